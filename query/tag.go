package query

// TagList selects all tags.
func TagList() Statement {
	return Statement{SQL: "SELECT id, name FROM tags ORDER BY id"}
}

// TagCounts selects tags joined with their usage count across all posts,
// most used first. Ties follow store order.
func TagCounts() Statement {
	return Statement{
		SQL: `SELECT post_tags.tag_id AS id, tags.name AS name, COUNT(*) AS count
FROM post_tags
LEFT JOIN tags ON post_tags.tag_id = tags.id
GROUP BY post_tags.tag_id, tags.name
ORDER BY count DESC`,
	}
}
