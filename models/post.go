package models

import "time"

// Post is a blog article. Category and author names are denormalized at the
// time of writing, matching what the reader-facing queries return.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	CategoryID   uint      `gorm:"index;not null" json:"category_id"`
	CategoryName string    `gorm:"size:64;not null" json:"category_name"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	AuthorID     uint      `gorm:"index;not null" json:"author_id"`
	AuthorName   string    `gorm:"size:64;not null" json:"author_name"`
	ViewCount    int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// Tag is a label shared by many posts.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}

// PostTag associates a post with a tag.
type PostTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"uniqueIndex:idx_post_tag;not null" json:"post_id"`
	TagID     uint      `gorm:"uniqueIndex:idx_post_tag;not null" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostLike records that a user liked a post. The composite unique index keeps
// one like per (user, post) pair; inserts go through INSERT IGNORE so a
// duplicate like affects zero rows instead of erroring.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_post;not null" json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:idx_user_post;not null" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
