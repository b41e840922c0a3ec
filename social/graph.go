// Package social maintains the follower/following relation between users.
//
// The relation is a single edge set keyed by the ordered pair
// (follower_id, followed_id). Followers and Following are two projections of
// that one set, filtering on either column, so the two directions can never
// drift apart.
package social

import (
	"errors"

	"gorm.io/gorm"

	"blogapi/models"
)

var (
	// ErrUserNotFound is returned when either end of an edge does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrAlreadyFollowing is returned when the edge already exists.
	ErrAlreadyFollowing = errors.New("already following")
	// ErrNotFollowing is returned when unfollowing an edge that does not exist.
	ErrNotFollowing = errors.New("not following")
)

// Graph exposes follow operations over the shared connection pool.
type Graph struct {
	db *gorm.DB
}

// NewGraph creates a Graph bound to the given pool handle.
func NewGraph(db *gorm.DB) *Graph {
	return &Graph{db: db}
}

// Follow inserts the edge follower -> followed.
//
// The pre-check for an existing edge is advisory; the composite primary key
// on follows is the authority, and a duplicate-key error from a concurrent
// insert maps to the same ErrAlreadyFollowing outcome.
func (g *Graph) Follow(followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	if err := g.ensureUsers(followerID, followedID); err != nil {
		return err
	}

	var count int64
	if err := g.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyFollowing
	}

	err := g.db.Create(&models.Follow{FollowerID: followerID, FollowedID: followedID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyFollowing
	}
	return err
}

// Unfollow removes the edge follower -> followed.
func (g *Graph) Unfollow(followerID, followedID uint) error {
	if err := g.ensureUsers(followerID, followedID); err != nil {
		return err
	}

	res := g.db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// Followers returns the users following userID, ordered by when they followed.
func (g *Graph) Followers(userID uint) ([]models.User, error) {
	return g.project(userID, "follows.followed_id = ?", "users.id = follows.follower_id")
}

// Following returns the users userID follows, ordered by when the edges were created.
func (g *Graph) Following(userID uint) ([]models.User, error) {
	return g.project(userID, "follows.follower_id = ?", "users.id = follows.followed_id")
}

// project reads one side of the edge set joined against users.
func (g *Graph) project(userID uint, filter, joinOn string) ([]models.User, error) {
	if err := g.ensureUsers(userID); err != nil {
		return nil, err
	}

	users := []models.User{}
	err := g.db.Model(&models.User{}).
		Joins("JOIN follows ON "+joinOn).
		Where(filter, userID).
		Order("follows.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ensureUsers verifies every given user id exists.
func (g *Graph) ensureUsers(ids ...uint) error {
	for _, id := range ids {
		var count int64
		if err := g.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}

// RemoveUserEdges deletes every edge touching userID in either direction.
// Used by the user delete cascade.
func (g *Graph) RemoveUserEdges(tx *gorm.DB, userID uint) error {
	return tx.Where("follower_id = ? OR followed_id = ?", userID, userID).
		Delete(&models.Follow{}).Error
}
