package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/models"
)

func TestCreateCommentUnknownPost(t *testing.T) {
	r, db := newTestRouter(t)

	aliceID := createTestUser(t, r, "alice", "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/v1/comments", gin.H{
		"content":   "hello?",
		"author_id": aliceID,
		"post_id":   42,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Nothing was persisted.
	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateCommentUnknownAuthor(t *testing.T) {
	r, _ := newTestRouter(t)

	aliceID := createTestUser(t, r, "alice", "alice@example.com")
	postID := createTestPost(t, r, aliceID, "Hello", "World")

	w := doJSON(t, r, http.MethodPost, "/api/v1/comments", gin.H{
		"content":   "hi",
		"author_id": 42,
		"post_id":   postID,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetComment(t *testing.T) {
	r, _ := newTestRouter(t)

	aliceID := createTestUser(t, r, "alice", "alice@example.com")
	postID := createTestPost(t, r, aliceID, "Hello", "World")
	commentID := createTestComment(t, r, aliceID, postID, "first")

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/comments/%d", commentID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	comment := dataMap(t, w)["comment"].(map[string]interface{})
	assert.Equal(t, "first", comment["content"])
	author := comment["author"].(map[string]interface{})
	assert.Equal(t, "alice", author["username"])
}

func TestListCommentsFilters(t *testing.T) {
	r, _ := newTestRouter(t)

	aliceID := createTestUser(t, r, "alice", "alice@example.com")
	bobID := createTestUser(t, r, "bob", "bob@example.com")
	firstPost := createTestPost(t, r, aliceID, "First", "...")
	secondPost := createTestPost(t, r, aliceID, "Second", "...")

	createTestComment(t, r, aliceID, firstPost, "a1")
	createTestComment(t, r, bobID, firstPost, "b1")
	createTestComment(t, r, bobID, secondPost, "b2")

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/comments?post_id=%d", firstPost), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataMap(t, w)["items"].([]interface{}), 2)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/comments?author_id=%d", bobID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataMap(t, w)["items"].([]interface{}), 2)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/comments?post_id=%d&author_id=%d", secondPost, bobID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := dataMap(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "b2", items[0].(map[string]interface{})["content"])
}

func TestUpdateComment(t *testing.T) {
	r, db := newTestRouter(t)

	aliceID := createTestUser(t, r, "alice", "alice@example.com")
	postID := createTestPost(t, r, aliceID, "Hello", "World")
	commentID := createTestComment(t, r, aliceID, postID, "first")

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/comments/%d", commentID), gin.H{
		"content": "edited",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var comment models.Comment
	require.NoError(t, db.First(&comment, commentID).Error)
	assert.Equal(t, "edited", comment.Content)
}

func TestDeleteComment(t *testing.T) {
	r, _ := newTestRouter(t)

	aliceID := createTestUser(t, r, "alice", "alice@example.com")
	postID := createTestPost(t, r, aliceID, "Hello", "World")
	commentID := createTestComment(t, r, aliceID, postID, "first")

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", commentID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", commentID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestBlogScenario walks the end-to-end flow: alice and bob register, alice
// posts, bob comments and follows alice.
func TestBlogScenario(t *testing.T) {
	r, _ := newTestRouter(t)

	aliceID := createTestUser(t, r, "alice", "a@x.com")
	bobID := createTestUser(t, r, "bob", "b@x.com")

	postID := createTestPost(t, r, aliceID, "Hello", "World")
	createTestComment(t, r, bobID, postID, "Nice!")

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	post := dataMap(t, w)["post"].(map[string]interface{})
	comments := post["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "Nice!", comments[0].(map[string]interface{})["content"])

	w = doJSON(t, r, http.MethodPost, followURL(aliceID, bobID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/followers", aliceID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	followers := dataMap(t, w)["followers"].([]interface{})
	require.Len(t, followers, 1)
	assert.Equal(t, "bob", followers[0].(map[string]interface{})["username"])
}
