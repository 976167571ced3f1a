package query

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint) *uint { return &v }

func TestPostListNoFilters(t *testing.T) {
	stmt := PostList(PostFilter{Page: 1, PageSize: 20})

	assert.NotContains(t, stmt.SQL, "is_liked")
	assert.Contains(t, stmt.SQL, "WHERE 1=1")
	assert.Contains(t, stmt.SQL, "ORDER BY posts.created_at DESC")
	assert.Contains(t, stmt.SQL, "LIMIT ? OFFSET ?")
	assert.Equal(t, []any{20, 0}, stmt.Args)
}

func TestPostListAllFilters(t *testing.T) {
	f := PostFilter{
		ViewerID:   uptr(7),
		AuthorID:   uptr(3),
		CategoryID: uptr(2),
		TagID:      uptr(5),
		Keyword:    "go",
		Page:       2,
		PageSize:   10,
	}
	stmt := PostList(f)

	assert.Contains(t, stmt.SQL, "COALESCE(v.is_liked, FALSE) AS is_liked")
	assert.Contains(t, stmt.SQL, "posts.category_id = ?")
	assert.Contains(t, stmt.SQL, "post_tags.tag_id = ?")
	assert.Contains(t, stmt.SQL, "posts.title LIKE CONCAT('%', ?, '%')")
	assert.Contains(t, stmt.SQL, "posts.author_id = ?")

	// Viewer join arg first, then predicates in fixed order, then paging.
	assert.Equal(t, []any{uint(7), uint(2), uint(5), "go", "go", uint(3), 10, 10}, stmt.Args)
}

func TestPostListKeywordNeverInterpolated(t *testing.T) {
	f := PostFilter{Keyword: "'; DROP TABLE posts; --", Page: 1, PageSize: 10}
	stmt := PostList(f)

	assert.NotContains(t, stmt.SQL, "DROP TABLE")
	assert.Equal(t, []any{f.Keyword, f.Keyword, 10, 0}, stmt.Args)
}

func TestPostListDeterministic(t *testing.T) {
	f := PostFilter{CategoryID: uptr(1), Keyword: "x", Page: 1, PageSize: 5}
	a := PostList(f)
	b := PostList(f)
	assert.Equal(t, a.SQL, b.SQL)
	assert.Equal(t, a.Args, b.Args)
}

func TestPostListOffsetMath(t *testing.T) {
	stmt := PostList(PostFilter{Page: 3, PageSize: 10})
	require.GreaterOrEqual(t, len(stmt.Args), 2)
	assert.Equal(t, 10, stmt.Args[len(stmt.Args)-2])
	assert.Equal(t, 20, stmt.Args[len(stmt.Args)-1])
}

func TestPostCountIgnoresViewerAndPaging(t *testing.T) {
	f := PostFilter{
		ViewerID:   uptr(7),
		CategoryID: uptr(2),
		Page:       4,
		PageSize:   25,
	}
	stmt := PostCount(f)

	assert.Contains(t, stmt.SQL, "COUNT(DISTINCT posts.id)")
	assert.NotContains(t, stmt.SQL, "is_liked")
	assert.NotContains(t, stmt.SQL, "LIMIT")
	assert.Equal(t, []any{uint(2)}, stmt.Args)
}

func TestPostDetailViewerArgBeforePostID(t *testing.T) {
	stmt := PostDetail(11, uptr(7))
	assert.Contains(t, stmt.SQL, "WHERE posts.id = ?")
	assert.Equal(t, []any{uint(7), uint(11)}, stmt.Args)

	anon := PostDetail(11, nil)
	assert.NotContains(t, anon.SQL, "is_liked")
	assert.Equal(t, []any{uint(11)}, anon.Args)
}

func TestPostViewIncrement(t *testing.T) {
	stmt := PostViewIncrement(4)
	assert.Equal(t, "UPDATE posts SET view_count = view_count + 1 WHERE id = ?", stmt.SQL)
	assert.Equal(t, []any{uint(4)}, stmt.Args)
}

func TestNeighborStatements(t *testing.T) {
	prev := PostPrev(9)
	assert.Contains(t, prev.SQL, "created_at <")
	assert.Contains(t, prev.SQL, "ORDER BY created_at DESC LIMIT 1")
	assert.Equal(t, []any{uint(9)}, prev.Args)

	next := PostNext(9)
	assert.Contains(t, next.SQL, "created_at >")
	assert.Contains(t, next.SQL, "ORDER BY created_at ASC LIMIT 1")
	assert.Equal(t, []any{uint(9)}, next.Args)
}

func TestLikeStatements(t *testing.T) {
	now := time.Now()
	ins := LikeInsert(7, 4, now)
	assert.True(t, strings.HasPrefix(ins.SQL, "INSERT IGNORE INTO post_likes"))
	assert.Equal(t, []any{uint(7), uint(4), now}, ins.Args)

	del := LikeDelete(7, 4)
	assert.Equal(t, "DELETE FROM post_likes WHERE user_id = ? AND post_id = ?", del.SQL)
	assert.Equal(t, []any{uint(7), uint(4)}, del.Args)
}
