package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogapi/models"
	"blogapi/utils"
)

// CommentController manages CRUD operations for comments.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// CreateComment persists a comment after verifying both the author and the
// parent post exist. Nothing is written when either check fails.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content  string `json:"content" binding:"required"`
		AuthorID uint   `json:"author_id" binding:"required"`
		PostID   uint   `json:"post_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42220, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40020, "content cannot be empty")
		return
	}

	var author models.User
	if err := c.db.First(&author, req.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "author not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load author")
		return
	}

	var post models.Post
	if err := c.db.First(&post, req.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load post")
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Content:  content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to create comment")
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:posts:detail:%d", post.ID))

	utils.Created(ctx, gin.H{"comment": comment})
}

// GetComment returns a single comment with its author.
func (c *CommentController) GetComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var comment models.Comment
	if err := c.db.Preload("Author").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40422, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
		return
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// ListComments returns paginated comments with optional post and author filters.
func (c *CommentController) ListComments(ctx *gin.Context) {
	skip, limit := parsePagination(ctx.Query("skip"), ctx.Query("limit"))

	query := c.db.Model(&models.Comment{}).Order("created_at DESC")
	if raw := strings.TrimSpace(ctx.Query("post_id")); raw != "" {
		postID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.Error(ctx, http.StatusUnprocessableEntity, 42221, "invalid post_id parameter")
			return
		}
		query = query.Where("post_id = ?", postID)
	}
	if raw := strings.TrimSpace(ctx.Query("author_id")); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.Error(ctx, http.StatusUnprocessableEntity, 42222, "invalid author_id parameter")
			return
		}
		query = query.Where("author_id = ?", authorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to count comments")
		return
	}

	var comments []models.Comment
	if err := query.Offset(skip).Limit(limit).Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to list comments")
		return
	}

	utils.Success(ctx, gin.H{
		"items": comments,
		"pagination": gin.H{
			"skip":  skip,
			"limit": limit,
			"total": total,
		},
	})
}

// UpdateComment overwrites only the fields supplied in the request body.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Content *string `json:"content" binding:"omitempty,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42223, "invalid request payload")
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40423, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to load comment")
		return
	}

	if req.Content != nil {
		content := utils.Sanitize(*req.Content)
		if strings.TrimSpace(content) == "" {
			utils.Error(ctx, http.StatusBadRequest, 40021, "content cannot be empty")
			return
		}
		comment.Content = content
	}

	if err := c.db.Save(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to update comment")
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:posts:detail:%d", comment.PostID))

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment; deleting an absent comment is NotFound.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40424, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to load comment")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50039, "failed to delete comment")
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:posts:detail:%d", comment.PostID))

	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
