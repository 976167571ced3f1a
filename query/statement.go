// Package query builds the parameterized SQL statements issued against the
// relational store. Every optional filter contributes a typed clause with a
// placeholder and a bound value; no caller input is ever interpolated into
// statement text.
package query

// Statement is a SQL text plus the arguments bound to its placeholders.
type Statement struct {
	SQL  string
	Args []any
}

// PostFilter carries the optional listing filters. All filters are
// conjunctive: a nil/empty field does not narrow the result set at all.
//
// The composer does not clamp Page/PageSize; callers are expected to pass
// values >= 1 (services clamp before building).
type PostFilter struct {
	ViewerID   *uint
	AuthorID   *uint
	CategoryID *uint
	TagID      *uint
	Keyword    string
	Page       int
	PageSize   int
}

// predicates returns the WHERE fragments and bound args for the filter, in a
// fixed order so identical filters always produce identical statements.
func (f PostFilter) predicates() (exprs []string, args []any) {
	if f.CategoryID != nil {
		exprs = append(exprs, "posts.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.TagID != nil {
		exprs = append(exprs, "EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag_id = ?)")
		args = append(args, *f.TagID)
	}
	if f.Keyword != "" {
		exprs = append(exprs, "(posts.title LIKE CONCAT('%', ?, '%') OR posts.content LIKE CONCAT('%', ?, '%'))")
		args = append(args, f.Keyword, f.Keyword)
	}
	if f.AuthorID != nil {
		exprs = append(exprs, "posts.author_id = ?")
		args = append(args, *f.AuthorID)
	}
	return exprs, args
}

func (f PostFilter) limitOffset() (limit, offset int) {
	return f.PageSize, (f.Page - 1) * f.PageSize
}
