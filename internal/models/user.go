// Package models contains the persisted entities and API error types.
package models

import "time"

// User is a registered account. Password holds the bcrypt hash and is never serialised.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Avatar    string    `json:"avatar"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// Author is the public projection of a user embedded in posts and comments.
type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// TableName maps Author onto the users table.
func (Author) TableName() string { return "users" }

// Profile is a user together with graph counts and their posts.
type Profile struct {
	User
	PostsCount     int64   `json:"postsCount"`
	FollowersCount int64   `json:"followersCount"`
	FollowingCount int64   `json:"followingCount"`
	Posts          []*Post `json:"posts"`
}
