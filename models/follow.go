package models

import "time"

// Follow is a directed edge between two users. The composite primary key
// makes (follower, followed) unique at the store level, so concurrent
// duplicate follows are rejected by the key rather than by application locks.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName keeps the association table name aligned with the schema.
func (Follow) TableName() string { return "follows" }
