package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogapi/models"
	"blogapi/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// CreatePost persists a new post after verifying the author exists.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required,min=1"`
		Content  string `json:"content" binding:"required"`
		AuthorID uint   `json:"author_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42210, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	var author models.User
	if err := p.db.First(&author, req.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "author not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load author")
		return
	}

	post := models.Post{
		AuthorID: author.ID,
		Title:    title,
		Content:  content,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Created(ctx, gin.H{"post": post})
}

// GetPost returns a single post with its author and comments, with comment
// authors attached.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	cacheKey := fmt.Sprintf("cache:posts:detail:%d", id)

	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var post models.Post
	if err := p.db.Preload("Author").Preload("Comments").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40411, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load post")
		return
	}

	p.attachCommentAuthors(post.Comments)

	payload := gin.H{"post": post}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// ListPosts returns paginated posts with optional author and date-range filters.
func (p *PostController) ListPosts(ctx *gin.Context) {
	skip, limit := parsePagination(ctx.Query("skip"), ctx.Query("limit"))
	authorIDStr := strings.TrimSpace(ctx.Query("author_id"))
	startStr := strings.TrimSpace(ctx.Query("start_date"))
	endStr := strings.TrimSpace(ctx.Query("end_date"))

	// Cache unfiltered pages only to avoid cache key explosion.
	filtered := authorIDStr != "" || startStr != "" || endStr != ""
	cacheKey := fmt.Sprintf("cache:posts:list:skip=%d:limit=%d", skip, limit)
	if !filtered {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := p.db.Model(&models.Post{}).Preload("Author").Order("created_at DESC")
	if authorIDStr != "" {
		authorID, err := strconv.ParseUint(authorIDStr, 10, 64)
		if err != nil {
			utils.Error(ctx, http.StatusUnprocessableEntity, 42211, "invalid author_id parameter")
			return
		}
		query = query.Where("author_id = ?", authorID)
	}
	if startStr != "" {
		start, err := parseDate(startStr)
		if err != nil {
			utils.Error(ctx, http.StatusUnprocessableEntity, 42212, "invalid start_date parameter")
			return
		}
		query = query.Where("created_at >= ?", start)
	}
	if endStr != "" {
		end, err := parseDate(endStr)
		if err != nil {
			utils.Error(ctx, http.StatusUnprocessableEntity, 42213, "invalid end_date parameter")
			return
		}
		query = query.Where("created_at <= ?", end)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to count posts")
		return
	}

	var posts []models.Post
	if err := query.Offset(skip).Limit(limit).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"skip":  skip,
			"limit": limit,
			"total": total,
		},
	}
	if !filtered {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// UpdatePost overwrites only the fields supplied in the request body.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Title   *string `json:"title" binding:"omitempty,min=1"`
		Content *string `json:"content" binding:"omitempty,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42214, "invalid request payload")
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	if req.Title != nil {
		title := utils.Sanitize(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40011, "title cannot be empty")
			return
		}
		post.Title = title
	}
	if req.Content != nil {
		post.Content = utils.Sanitize(*req.Content)
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix(fmt.Sprintf("cache:posts:detail:%d", post.ID))

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post and cascades its comments in one transaction.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40413, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load post")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix(fmt.Sprintf("cache:posts:detail:%d", post.ID))

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// attachCommentAuthors loads the distinct authors of the given comments in one
// query and attaches them in place.
func (p *PostController) attachCommentAuthors(comments []models.Comment) {
	if len(comments) == 0 {
		return
	}
	var authorIDs []uint
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authorIDs = utils.UniqueUint(authorIDs)

	var authors []models.User
	if err := p.db.Find(&authors, authorIDs).Error; err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("failed to load comment authors: %v", err)
		}
		return
	}
	authorMap := make(map[uint]models.User, len(authors))
	for _, a := range authors {
		authorMap[a.ID] = a
	}
	for i := range comments {
		if author, ok := authorMap[comments[i].AuthorID]; ok {
			a := author
			comments[i].Author = &a
		}
	}
}

// parseDate accepts RFC3339 timestamps or plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
