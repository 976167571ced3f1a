package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/mingyan/blogserver/query"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gdb, mock
}

func uptr(v uint) *uint { return &v }

var postRowColumns = []string{
	"id", "title", "category_id", "category_name", "content",
	"author_id", "author_name", "created_at", "view_count",
	"like_count", "comment_count", "tags",
}

func TestListPostsShapesTagsAndCounts(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)

	filter := query.PostFilter{Page: 1, PageSize: 2}
	listStmt := query.PostList(filter)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(listStmt.SQL)).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow(2, "second", 1, "tech", "body", 1, "ann", now, 3, 1, 0, []byte(`[{"id": 4, "name": "go"}]`)).
			AddRow(1, "first", 1, "tech", "body", 1, "ann", now.Add(-time.Hour), 9, 0, 2, []byte(`[{"id": null, "name": null}]`)))

	countStmt := query.PostCount(filter)
	mock.ExpectQuery(regexp.QuoteMeta(countStmt.SQL)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(5))

	result, err := svc.ListPosts(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, result.List, 2)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, []query.TagRef{{ID: 4, Name: "go"}}, result.List[0].Tags)
	// The tagless post still carries an empty array, never null.
	assert.NotNil(t, result.List[1].Tags)
	assert.Empty(t, result.List[1].Tags)
	assert.Nil(t, result.List[0].IsLiked)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsCountFailureDegradesToZero(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)

	filter := query.PostFilter{Page: 1, PageSize: 10}
	listStmt := query.PostList(filter)
	mock.ExpectQuery(regexp.QuoteMeta(listStmt.SQL)).
		WillReturnRows(sqlmock.NewRows(postRowColumns))
	countStmt := query.PostCount(filter)
	mock.ExpectQuery(regexp.QuoteMeta(countStmt.SQL)).
		WillReturnError(assert.AnError)

	result, err := svc.ListPosts(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Total)
	assert.Empty(t, result.List)
}

func TestGetPostDetailIncrementsThenReads(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET view_count = view_count + 1 WHERE id = ?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	detailStmt := query.PostDetail(4, uptr(7))
	cols := append(append([]string{}, postRowColumns[:11]...), "is_liked", "tags")
	mock.ExpectQuery(regexp.QuoteMeta(detailStmt.SQL)).
		WithArgs(7, 4).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(4, "post", 1, "tech", "body", 1, "ann", now, 10, 2, 1, true, []byte(`[]`)))

	prevStmt := query.PostPrev(4)
	mock.ExpectQuery(regexp.QuoteMeta(prevStmt.SQL)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(3, "older"))
	nextStmt := query.PostNext(4)
	mock.ExpectQuery(regexp.QuoteMeta(nextStmt.SQL)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	detail, err := svc.GetPostDetail(context.Background(), 4, uptr(7))
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, uint(4), detail.ID)
	require.NotNil(t, detail.IsLiked)
	assert.True(t, *detail.IsLiked)
	require.NotNil(t, detail.PrevPost)
	assert.Equal(t, uint(3), detail.PrevPost.ID)
	assert.Nil(t, detail.NextPost)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostDetailMissingPost(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET view_count = view_count + 1 WHERE id = ?")).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	detailStmt := query.PostDetail(99, nil)
	mock.ExpectQuery(regexp.QuoteMeta(detailStmt.SQL)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	detail, err := svc.GetPostDetail(context.Background(), 99, nil)
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestTogglePostLike(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)

	insertSQL := regexp.QuoteMeta("INSERT IGNORE INTO post_likes (user_id, post_id, created_at) VALUES (?, ?, ?)")

	mock.ExpectExec(insertSQL).
		WithArgs(7, 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	changed, err := svc.TogglePostLike(context.Background(), 7, 4, true)
	require.NoError(t, err)
	assert.True(t, changed)

	// A duplicate like affects zero rows.
	mock.ExpectExec(insertSQL).
		WithArgs(7, 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	changed, err = svc.TogglePostLike(context.Background(), 7, 4, true)
	require.NoError(t, err)
	assert.False(t, changed)

	deleteSQL := regexp.QuoteMeta("DELETE FROM post_likes WHERE user_id = ? AND post_id = ?")
	mock.ExpectExec(deleteSQL).
		WithArgs(7, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	changed, err = svc.TogglePostLike(context.Background(), 7, 4, false)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, mock.ExpectationsWereMet())
}

var commentColumns = []string{
	"id", "post_id", "author_id", "author_name",
	"parent_id", "parent_grand_id", "content", "created_at",
}

func TestAddCommentTopLevel(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `comments`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	id, err := svc.AddComment(context.Background(), 1, 7, "nick", nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, uint(9), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentReplyResolvesThreadRoot(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)
	now := time.Now()

	// Parent is itself a reply under thread root 10, so the new comment's
	// root must be 10, not the parent.
	mock.ExpectQuery("SELECT \\* FROM `comments`").
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow(2, 1, 3, "bob", 10, nil, "parent body", now))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `comments`").
		WithArgs(1, 7, "nick", 2, 10, "re", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	id, err := svc.AddComment(context.Background(), 1, 7, "nick", uptr(2), "re")
	require.NoError(t, err)
	assert.Equal(t, uint(11), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentReplyToTopLevel(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `comments`").
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow(10, 1, 3, "bob", nil, nil, "top", now))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `comments`").
		WithArgs(1, 7, "nick", 10, 10, "re", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()

	id, err := svc.AddComment(context.Background(), 1, 7, "nick", uptr(10), "re")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)
}

func TestAddCommentRejectsCrossPostParent(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `comments`").
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow(2, 99, 3, "bob", nil, nil, "other post", now))

	_, err := svc.AddComment(context.Background(), 1, 7, "nick", uptr(2), "re")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var postColumns = []string{
	"id", "title", "category_id", "category_name", "content",
	"author_id", "author_name", "view_count", "created_at",
}

func TestUpdatePostRejectsNonOwner(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `posts`").
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(4, "post", 1, "tech", "body", 99, "owner", 0, now))

	err := svc.UpdatePost(context.Background(), 4, 7, PostInput{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrNotOwner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePostRejectsNonOwner(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `posts`").
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(4, "post", 1, "tech", "body", 99, "owner", 0, now))

	err := svc.DeletePost(context.Background(), 4, 7)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestListCommentsShapesThreads(t *testing.T) {
	gdb, mock := setupMockDB(t)
	svc := NewContentService(gdb)
	now := time.Now()

	listStmt := query.CommentList(1, 1, 10)
	mock.ExpectQuery(regexp.QuoteMeta(listStmt.SQL)).
		WithArgs(1, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "author_id", "author_name", "content", "created_at", "child_comments"}).
			AddRow(10, 1, 3, "bob", "top", now, []byte(`[
				{"id": 12, "postId": 1, "authorId": 4, "authorName": "eve", "parentId": 11, "parentGrandId": 10, "content": "second", "createdAt": "2024-03-02 08:00:00.000000"},
				{"id": 11, "postId": 1, "authorId": 5, "authorName": "dan", "parentId": 10, "parentGrandId": null, "content": "first", "createdAt": "2024-03-01 08:00:00.000000"}
			]`)))

	countStmt := query.CommentCount(1)
	mock.ExpectQuery(regexp.QuoteMeta(countStmt.SQL)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(1))

	result, err := svc.ListComments(context.Background(), 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.List, 1)
	assert.Equal(t, int64(1), result.Total)
	children := result.List[0].Children
	require.Len(t, children, 2)
	assert.Equal(t, uint(11), children[0].ID)
	assert.Equal(t, uint(12), children[1].ID)
}
