package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogapi/models"
	"blogapi/social"
	"blogapi/utils"
)

// UserController manages user accounts and their follow relations.
type UserController struct {
	db    *gorm.DB
	graph *social.Graph
}

// NewUserController creates a UserController sharing the process pool handle.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db, graph: social.NewGraph(db)}
}

// Register handles account creation with bcrypt hashing.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=2,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42201, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := u.db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to check existing users")
		return
	}
	if count > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40901, "username or email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to hash password")
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := u.db.Create(&user).Error; err != nil {
		// Unique indexes back up the pre-check under concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusBadRequest, 40901, "username or email already registered")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to create user")
		return
	}

	utils.Created(ctx, gin.H{"user": user})
}

// GetUser returns a user together with posts, comments, followers and
// following. Related rows are loaded eagerly and deliberately here; nothing
// is fetched lazily on access.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var user models.User
	err := u.db.Preload("Posts").Preload("Comments").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to load user")
		return
	}

	followers, err := u.graph.Followers(user.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to load followers")
		return
	}
	following, err := u.graph.Following(user.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load following")
		return
	}

	utils.Success(ctx, gin.H{
		"user":      user,
		"followers": followers,
		"following": following,
	})
}

// ListUsers returns a paginated slice of users.
func (u *UserController) ListUsers(ctx *gin.Context) {
	skip, limit := parsePagination(ctx.Query("skip"), ctx.Query("limit"))

	var users []models.User
	var total int64
	if err := u.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to count users")
		return
	}
	if err := u.db.Order("created_at ASC").Offset(skip).Limit(limit).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to list users")
		return
	}

	utils.Success(ctx, gin.H{
		"items": users,
		"pagination": gin.H{
			"skip":  skip,
			"limit": limit,
			"total": total,
		},
	})
}

// UpdateUser changes username, email and password independently. Uniqueness
// of username and email is re-validated on update.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Username *string `json:"username" binding:"omitempty,min=2,max=64"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Password *string `json:"password" binding:"omitempty,min=6,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42202, "invalid request payload")
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50009, "failed to load user")
		return
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		var count int64
		if err := u.db.Model(&models.User{}).
			Where("username = ? AND id <> ?", username, user.ID).
			Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to check username")
			return
		}
		if count > 0 {
			utils.Error(ctx, http.StatusBadRequest, 40902, "username already taken")
			return
		}
		user.Username = username
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		var count int64
		if err := u.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, user.ID).
			Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to check email")
			return
		}
		if count > 0 {
			utils.Error(ctx, http.StatusBadRequest, 40903, "email already taken")
			return
		}
		user.Email = email
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}

	if err := u.db.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusBadRequest, 40904, "username or email already taken")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to update user")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}

// DeleteUser removes a user and cascades their posts, comments on those
// posts, their own comments, and all follow edges in one transaction.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load user")
		return
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("author_id = ?", user.ID).
			Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := u.graph.RemoveUserEdges(tx, user.ID); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to delete user")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"message": "user deleted"})
}

// Follow creates the edge current_user_id -> :id.
func (u *UserController) Follow(ctx *gin.Context) {
	u.mutateEdge(ctx, u.graph.Follow)
}

// Unfollow removes the edge current_user_id -> :id.
func (u *UserController) Unfollow(ctx *gin.Context) {
	u.mutateEdge(ctx, u.graph.Unfollow)
}

func (u *UserController) mutateEdge(ctx *gin.Context, op func(followerID, followedID uint) error) {
	followedID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	followerID, ok := parseUintQuery(ctx, "current_user_id")
	if !ok {
		return
	}

	if err := op(followerID, followedID); err != nil {
		switch {
		case errors.Is(err, social.ErrUserNotFound):
			utils.Error(ctx, http.StatusNotFound, 40404, "user not found")
		case errors.Is(err, social.ErrSelfFollow):
			utils.Error(ctx, http.StatusBadRequest, 40001, "cannot follow yourself")
		case errors.Is(err, social.ErrAlreadyFollowing):
			utils.Error(ctx, http.StatusBadRequest, 40002, "already following this user")
		case errors.Is(err, social.ErrNotFollowing):
			utils.Error(ctx, http.StatusBadRequest, 40003, "not following this user")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to update follow relation")
		}
		return
	}

	utils.Success(ctx, nil)
}

// ListFollowers returns the users following :id.
func (u *UserController) ListFollowers(ctx *gin.Context) {
	u.listEdge(ctx, u.graph.Followers, "followers")
}

// ListFollowing returns the users :id follows.
func (u *UserController) ListFollowing(ctx *gin.Context) {
	u.listEdge(ctx, u.graph.Following, "following")
}

func (u *UserController) listEdge(ctx *gin.Context, project func(userID uint) ([]models.User, error), key string) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	users, err := project(id)
	if err != nil {
		if errors.Is(err, social.ErrUserNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to load "+key)
		return
	}

	utils.Success(ctx, gin.H{key: users})
}

// parseIDParam reads a numeric path parameter; a malformed id replies 422.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42203, "invalid "+name+" parameter")
		return 0, false
	}
	return uint(n), true
}

// parseUintQuery reads a numeric query parameter; missing or malformed replies 422.
func parseUintQuery(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Query(name))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42204, "invalid "+name+" parameter")
		return 0, false
	}
	return uint(n), true
}

// parsePagination maps skip/limit query values onto sane bounds.
func parsePagination(skipStr, limitStr string) (int, int) {
	skip := 0
	limit := 10
	if s, err := strconv.Atoi(skipStr); err == nil && s >= 0 {
		skip = s
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return skip, limit
}
