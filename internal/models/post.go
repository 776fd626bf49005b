package models

import "time"

// PostType distinguishes text posts from image posts.
type PostType string

const (
	PostTypeText  PostType = "text"
	PostTypeImage PostType = "image"
)

// Valid reports whether t is a known post type.
func (t PostType) Valid() bool {
	return t == PostTypeText || t == PostTypeImage
}

// Post is a piece of user content. Image is set iff Type is image.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *Author   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Type      PostType  `gorm:"size:16;not null;default:'text'" json:"type"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// Computed at query time
	Likes    int64 `gorm:"->;-:migration" json:"likes"`
	Comments int64 `gorm:"->;-:migration" json:"comments"`
	IsLiked  bool  `gorm:"->;-:migration" json:"isLiked"`
}
