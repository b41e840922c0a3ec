package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogapi/models"
	"blogapi/utils"
)

// newTestRouter wires the controllers against an in-memory database with the
// same paths the production router uses, minus the operational middleware.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Follow{}))

	gin.SetMode(gin.TestMode)
	r := gin.New()

	userController := NewUserController(db)
	postController := NewPostController(db)
	commentController := NewCommentController(db)

	api := r.Group("/api/v1")

	api.POST("/users", userController.Register)
	api.GET("/users", userController.ListUsers)
	api.GET("/users/:id", userController.GetUser)
	api.PUT("/users/:id", userController.UpdateUser)
	api.DELETE("/users/:id", userController.DeleteUser)
	api.POST("/users/:id/follow", userController.Follow)
	api.DELETE("/users/:id/unfollow", userController.Unfollow)
	api.GET("/users/:id/followers", userController.ListFollowers)
	api.GET("/users/:id/following", userController.ListFollowing)

	api.POST("/posts", postController.CreatePost)
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.PUT("/posts/:id", postController.UpdatePost)
	api.DELETE("/posts/:id", postController.DeletePost)

	api.POST("/comments", commentController.CreateComment)
	api.GET("/comments", commentController.ListComments)
	api.GET("/comments/:id", commentController.GetComment)
	api.PUT("/comments/:id", commentController.UpdateComment)
	api.DELETE("/comments/:id", commentController.DeleteComment)

	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) utils.JSONResponse {
	t.Helper()
	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// dataMap re-decodes the envelope data into a generic map for assertions.
func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	resp := decodeEnvelope(t, w)
	b, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func createTestUser(t *testing.T, r *gin.Engine, username, email string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/users", gin.H{
		"username": username,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := dataMap(t, w)["user"].(map[string]interface{})
	return uint(user["id"].(float64))
}

func createTestPost(t *testing.T, r *gin.Engine, authorID uint, title, content string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", gin.H{
		"title":     title,
		"content":   content,
		"author_id": authorID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := dataMap(t, w)["post"].(map[string]interface{})
	return uint(post["id"].(float64))
}

func createTestComment(t *testing.T, r *gin.Engine, authorID, postID uint, content string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/comments", gin.H{
		"content":   content,
		"author_id": authorID,
		"post_id":   postID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := dataMap(t, w)["comment"].(map[string]interface{})
	return uint(comment["id"].(float64))
}

func followURL(followedID, followerID uint) string {
	return fmt.Sprintf("/api/v1/users/%d/follow?current_user_id=%d", followedID, followerID)
}

func unfollowURL(followedID, followerID uint) string {
	return fmt.Sprintf("/api/v1/users/%d/unfollow?current_user_id=%d", followedID, followerID)
}
