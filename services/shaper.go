package services

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mingyan/blogserver/query"
)

// The shaper turns the store's JSON aggregates into the structures callers
// expect: tags always a real array, reply threads sorted chronologically.

// rawTagRef tolerates the null entry MySQL's JSON_ARRAYAGG emits when a
// tagless post left-joins no tag rows.
type rawTagRef struct {
	ID   *uint   `json:"id"`
	Name *string `json:"name"`
}

// shapePostRow decodes a row's tag aggregate. Tags ends up non-nil even for
// posts with zero tag associations.
func shapePostRow(row *query.PostRow) error {
	row.Tags = []query.TagRef{}
	if len(row.RawTags) == 0 {
		return nil
	}
	var raw []rawTagRef
	if err := json.Unmarshal(row.RawTags, &raw); err != nil {
		return fmt.Errorf("decode tags for post %d: %w", row.ID, err)
	}
	for _, t := range raw {
		if t.ID == nil {
			continue
		}
		name := ""
		if t.Name != nil {
			name = *t.Name
		}
		row.Tags = append(row.Tags, query.TagRef{ID: *t.ID, Name: name})
	}
	row.RawTags = nil
	return nil
}

// shapeCommentRow decodes a thread's reply aggregate and sorts the replies
// ascending by creation time: threads are listed newest first, but the
// conversation inside a thread reads oldest first. The sort is stable, so
// equal timestamps keep the store's order.
func shapeCommentRow(row *query.CommentRow) error {
	row.Children = []query.ChildComment{}
	if len(row.RawChildren) == 0 {
		return nil
	}
	if err := json.Unmarshal(row.RawChildren, &row.Children); err != nil {
		return fmt.Errorf("decode replies for comment %d: %w", row.ID, err)
	}
	sort.SliceStable(row.Children, func(i, j int) bool {
		return row.Children[i].CreatedAt.Before(row.Children[j].CreatedAt.Time)
	})
	row.RawChildren = nil
	return nil
}
