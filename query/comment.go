package query

// CommentList builds the top-level comment listing for a post, newest thread
// first. Each row carries a JSON array of every comment on the same post
// whose parent_id or parent_grand_id is the top-level comment's id, so
// replies-to-a-reply are flattened onto the thread root. Pagination applies
// to top-level comments only; a thread's replies always come back complete.
func CommentList(postID uint, page, pageSize int) Statement {
	return Statement{
		SQL: `SELECT c.id, c.post_id, c.author_id, c.author_name, c.content, c.created_at,
COALESCE((
    SELECT JSON_ARRAYAGG(JSON_OBJECT(
        'id', r.id,
        'postId', r.post_id,
        'authorId', r.author_id,
        'authorName', r.author_name,
        'parentId', r.parent_id,
        'parentGrandId', r.parent_grand_id,
        'content', r.content,
        'createdAt', r.created_at))
    FROM comments r
    WHERE r.post_id = c.post_id AND (r.parent_id = c.id OR r.parent_grand_id = c.id)
), JSON_ARRAY()) AS child_comments
FROM comments c
WHERE c.post_id = ? AND c.parent_id IS NULL
ORDER BY c.created_at DESC
LIMIT ? OFFSET ?`,
		Args: []any{postID, pageSize, (page - 1) * pageSize},
	}
}

// CommentCount counts top-level comments only.
func CommentCount(postID uint) Statement {
	return Statement{
		SQL:  "SELECT COUNT(*) AS total FROM comments WHERE post_id = ? AND parent_id IS NULL",
		Args: []any{postID},
	}
}
