package query

import (
	"strings"
	"time"
)

// postColumns is the aggregated per-post projection shared by listing and
// detail. Like and comment counts come from derived tables so posts without
// either still produce a row with zero counts; tags are folded into a JSON
// array per post.
const postColumns = `posts.id,
posts.title,
posts.category_id,
posts.category_name,
posts.content,
posts.author_id,
posts.author_name,
posts.created_at,
posts.view_count,
COALESCE(l.like_count, 0) AS like_count,
COALESCE(c.comment_count, 0) AS comment_count`

const postCountJoins = `LEFT JOIN (SELECT post_id, COUNT(*) AS like_count FROM post_likes GROUP BY post_id) l ON posts.id = l.post_id
LEFT JOIN (SELECT post_id, COUNT(*) AS comment_count FROM comments GROUP BY post_id) c ON posts.id = c.post_id`

const postTagJoins = `LEFT JOIN post_tags pt ON posts.id = pt.post_id
LEFT JOIN tags t ON pt.tag_id = t.id`

// writePostSelect writes the shared SELECT ... FROM ... JOIN body. The
// is_liked projection and its join are present only when a viewer is known;
// without a viewer the column is absent entirely, not false.
func writePostSelect(b *strings.Builder, args *[]any, viewerID *uint) {
	b.WriteString("SELECT ")
	b.WriteString(postColumns)
	if viewerID != nil {
		b.WriteString(",\nCOALESCE(v.is_liked, FALSE) AS is_liked")
	}
	b.WriteString(",\nCOALESCE(JSON_ARRAYAGG(JSON_OBJECT('id', t.id, 'name', t.name)), JSON_ARRAY()) AS tags")
	b.WriteString("\nFROM posts\n")
	b.WriteString(postCountJoins)
	if viewerID != nil {
		b.WriteString("\nLEFT JOIN (SELECT post_id, COUNT(*) > 0 AS is_liked FROM post_likes WHERE user_id = ? GROUP BY post_id) v ON posts.id = v.post_id")
		*args = append(*args, *viewerID)
	}
	b.WriteString("\n")
	b.WriteString(postTagJoins)
}

// PostList builds the paginated, filtered listing statement. Rows come back
// newest first; ordering among equal creation times follows store order and
// is deterministic for identical input.
func PostList(f PostFilter) Statement {
	var b strings.Builder
	var args []any

	writePostSelect(&b, &args, f.ViewerID)

	b.WriteString("\nWHERE 1=1")
	exprs, whereArgs := f.predicates()
	for _, e := range exprs {
		b.WriteString(" AND ")
		b.WriteString(e)
	}
	args = append(args, whereArgs...)

	b.WriteString("\nGROUP BY posts.id")
	b.WriteString("\nORDER BY posts.created_at DESC")
	b.WriteString("\nLIMIT ? OFFSET ?")
	limit, offset := f.limitOffset()
	args = append(args, limit, offset)

	return Statement{SQL: b.String(), Args: args}
}

// PostCount builds the total-count statement for the same predicate list as
// PostList, ignoring pagination and the viewer.
func PostCount(f PostFilter) Statement {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT COUNT(DISTINCT posts.id) AS total FROM posts WHERE 1=1")
	exprs, whereArgs := f.predicates()
	for _, e := range exprs {
		b.WriteString(" AND ")
		b.WriteString(e)
	}
	args = append(args, whereArgs...)

	return Statement{SQL: b.String(), Args: args}
}

// PostDetail builds the single-post statement with the same aggregated
// projection as the listing.
func PostDetail(postID uint, viewerID *uint) Statement {
	var b strings.Builder
	var args []any

	writePostSelect(&b, &args, viewerID)
	b.WriteString("\nWHERE posts.id = ?")
	args = append(args, postID)
	b.WriteString("\nGROUP BY posts.id")

	return Statement{SQL: b.String(), Args: args}
}

// PostViewIncrement bumps the view counter. It is issued before the detail
// read so a fetch counts as a view even when the read itself fails.
func PostViewIncrement(postID uint) Statement {
	return Statement{
		SQL:  "UPDATE posts SET view_count = view_count + 1 WHERE id = ?",
		Args: []any{postID},
	}
}

// PostPrev selects the neighbor with the next-earlier creation time.
func PostPrev(postID uint) Statement {
	return Statement{
		SQL: `SELECT id, title FROM posts
WHERE created_at < (SELECT created_at FROM posts WHERE id = ?)
ORDER BY created_at DESC LIMIT 1`,
		Args: []any{postID},
	}
}

// PostNext selects the neighbor with the next-later creation time.
func PostNext(postID uint) Statement {
	return Statement{
		SQL: `SELECT id, title FROM posts
WHERE created_at > (SELECT created_at FROM posts WHERE id = ?)
ORDER BY created_at ASC LIMIT 1`,
		Args: []any{postID},
	}
}

// LikeInsert records a like. INSERT IGNORE together with the unique
// (user_id, post_id) index makes a duplicate like affect zero rows.
func LikeInsert(userID, postID uint, now time.Time) Statement {
	return Statement{
		SQL:  "INSERT IGNORE INTO post_likes (user_id, post_id, created_at) VALUES (?, ?, ?)",
		Args: []any{userID, postID, now},
	}
}

// LikeDelete removes a like.
func LikeDelete(userID, postID uint) Statement {
	return Statement{
		SQL:  "DELETE FROM post_likes WHERE user_id = ? AND post_id = ?",
		Args: []any{userID, postID},
	}
}
