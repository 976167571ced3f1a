package models

import "time"

// Comment is a reply to a post or to another comment. Threads are two-level:
// ParentID points at the immediate parent and ParentGrandID at the top-level
// comment rooting the thread. Top-level comments have both set to nil.
// ParentGrandID is computed by the service, never trusted from callers.
type Comment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostID        uint      `gorm:"index;not null" json:"post_id"`
	AuthorID      uint      `gorm:"not null" json:"author_id"`
	AuthorName    string    `gorm:"size:64;not null" json:"author_name"`
	ParentID      *uint     `gorm:"index" json:"parent_id"`
	ParentGrandID *uint     `gorm:"index" json:"parent_grand_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}
