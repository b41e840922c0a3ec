package social

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogapi/models"
)

func setupGraph(t *testing.T) (*Graph, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Follow{}))
	return NewGraph(db), db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		Username:     name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestFollowAndProjections(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, g.Follow(bob.ID, alice.ID))

	followers, err := g.Followers(alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, bob.ID, followers[0].ID)

	following, err := g.Following(bob.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, alice.ID, following[0].ID)

	// The reverse direction stays empty: one edge, two projections.
	followers, err = g.Followers(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	following, err = g.Following(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestFollowSelf(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")

	assert.ErrorIs(t, g.Follow(alice.ID, alice.ID), ErrSelfFollow)
}

func TestFollowDuplicate(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, g.Follow(alice.ID, bob.ID))
	assert.ErrorIs(t, g.Follow(alice.ID, bob.ID), ErrAlreadyFollowing)

	following, err := g.Following(alice.ID)
	require.NoError(t, err)
	assert.Len(t, following, 1)
}

func TestFollowUnknownUsers(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")

	assert.ErrorIs(t, g.Follow(alice.ID, 999), ErrUserNotFound)
	assert.ErrorIs(t, g.Follow(999, alice.ID), ErrUserNotFound)
	_, err := g.Followers(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = g.Following(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUnfollow(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, g.Follow(alice.ID, bob.ID))
	require.NoError(t, g.Unfollow(alice.ID, bob.ID))

	following, err := g.Following(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, following)

	followers, err := g.Followers(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	assert.ErrorIs(t, g.Unfollow(alice.ID, bob.ID), ErrNotFollowing)
}

func TestProjectionOrder(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	// Insert edges with distinct timestamps so ordering is deterministic.
	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.Follow{FollowerID: bob.ID, FollowedID: alice.ID, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: carol.ID, FollowedID: alice.ID, CreatedAt: base.Add(time.Minute)}).Error)

	followers, err := g.Followers(alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, bob.ID, followers[0].ID)
	assert.Equal(t, carol.ID, followers[1].ID)
}

func TestDuplicateKeyFromStore(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	// Insert behind the graph's back to simulate a concurrent winner.
	require.NoError(t, db.Create(&models.Follow{FollowerID: alice.ID, FollowedID: bob.ID}).Error)

	err := db.Create(&models.Follow{FollowerID: alice.ID, FollowedID: bob.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// The module maps the constraint hit to the same outcome as its pre-check.
	assert.ErrorIs(t, g.Follow(alice.ID, bob.ID), ErrAlreadyFollowing)
}

func TestRemoveUserEdges(t *testing.T) {
	g, db := setupGraph(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	require.NoError(t, g.Follow(alice.ID, bob.ID))
	require.NoError(t, g.Follow(carol.ID, alice.ID))

	require.NoError(t, g.RemoveUserEdges(db, alice.ID))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}
