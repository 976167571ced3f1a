package models

import "time"

// User is an account identity. Passwords are stored as bcrypt hashes only;
// the hash never leaves the service layer.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Nickname  string    `gorm:"size:64;uniqueIndex;not null" json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}
