package query

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TagRef is a tag reference embedded in a post row.
type TagRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TagCount is a tag joined with its usage count.
type TagCount struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// PostRow is one aggregated listing/detail row. IsLiked is present only when
// the statement was built with a viewer; it stays nil (and is omitted from
// JSON) otherwise. RawTags holds the JSON aggregate as returned by the store
// until the shaper decodes it into Tags.
type PostRow struct {
	ID           uint      `gorm:"column:id" json:"id"`
	Title        string    `gorm:"column:title" json:"title"`
	CategoryID   uint      `gorm:"column:category_id" json:"categoryId"`
	CategoryName string    `gorm:"column:category_name" json:"categoryName"`
	Content      string    `gorm:"column:content" json:"content"`
	AuthorID     uint      `gorm:"column:author_id" json:"authorId"`
	AuthorName   string    `gorm:"column:author_name" json:"authorName"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	ViewCount    int64     `gorm:"column:view_count" json:"viewCount"`
	LikeCount    int64     `gorm:"column:like_count" json:"likeCount"`
	CommentCount int64     `gorm:"column:comment_count" json:"commentCount"`
	IsLiked      *bool     `gorm:"column:is_liked" json:"isLiked,omitempty"`
	RawTags      []byte    `gorm:"column:tags" json:"-"`
	Tags         []TagRef  `gorm:"-" json:"tags"`
}

// PostRef identifies an adjacent post.
type PostRef struct {
	ID    uint   `gorm:"column:id" json:"id"`
	Title string `gorm:"column:title" json:"title"`
}

// PostDetailRow is the detail row plus its best-effort neighbors.
type PostDetailRow struct {
	PostRow
	PrevPost *PostRef `json:"prevPost"`
	NextPost *PostRef `json:"nextPost"`
}

// CommentRow is one top-level comment with its aggregated reply array.
type CommentRow struct {
	ID          uint           `gorm:"column:id" json:"id"`
	PostID      uint           `gorm:"column:post_id" json:"postId"`
	AuthorID    uint           `gorm:"column:author_id" json:"authorId"`
	AuthorName  string         `gorm:"column:author_name" json:"authorName"`
	Content     string         `gorm:"column:content" json:"content"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"createdAt"`
	RawChildren []byte         `gorm:"column:child_comments" json:"-"`
	Children    []ChildComment `gorm:"-" json:"childComments"`
}

// ChildComment is a reply inside a thread, decoded from the store's JSON
// aggregate. All fields round-trip through decode/sort/encode unchanged.
type ChildComment struct {
	ID            uint    `json:"id"`
	PostID        uint    `json:"postId"`
	AuthorID      uint    `json:"authorId"`
	AuthorName    string  `json:"authorName"`
	ParentID      *uint   `json:"parentId"`
	ParentGrandID *uint   `json:"parentGrandId"`
	Content       string  `json:"content"`
	CreatedAt     SQLTime `json:"createdAt"`
}

// SQLTime is a time.Time that also decodes the datetime literals MySQL's
// JSON functions emit ("2006-01-02 15:04:05.000000").
type SQLTime struct {
	time.Time
}

var sqlTimeLayouts = []string{
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// UnmarshalJSON accepts MySQL datetime literals as well as RFC 3339.
func (t *SQLTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range sqlTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported time literal %q", s)
}

// MarshalJSON emits RFC 3339, the format the rest of the API speaks.
func (t SQLTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
