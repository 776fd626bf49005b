package models

import "time"

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follower_following" json:"followerId"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follower_following;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}
