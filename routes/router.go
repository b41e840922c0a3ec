package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogapi/config"
	"blogapi/controllers"
	"blogapi/middleware"
	"blogapi/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	userController := controllers.NewUserController(db)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)

	api := r.Group("/api/v1")

	limited := api.Group("")
	limited.Use(middleware.RateLimitMiddleware())

	usersGroup := api.Group("/users")
	usersGroup.GET("", userController.ListUsers)
	usersGroup.GET("/:id", userController.GetUser)
	usersGroup.GET("/:id/followers", userController.ListFollowers)
	usersGroup.GET("/:id/following", userController.ListFollowing)

	usersMut := limited.Group("/users")
	usersMut.POST("", userController.Register)
	usersMut.PUT("/:id", userController.UpdateUser)
	usersMut.DELETE("/:id", userController.DeleteUser)
	usersMut.POST("/:id/follow", userController.Follow)
	usersMut.DELETE("/:id/unfollow", userController.Unfollow)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/:id", postController.GetPost)

	postsMut := limited.Group("/posts")
	postsMut.POST("", postController.CreatePost)
	postsMut.PUT("/:id", postController.UpdatePost)
	postsMut.DELETE("/:id", postController.DeletePost)

	commentsGroup := api.Group("/comments")
	commentsGroup.GET("", commentController.ListComments)
	commentsGroup.GET("/:id", commentController.GetComment)

	commentsMut := limited.Group("/comments")
	commentsMut.POST("", commentController.CreateComment)
	commentsMut.PUT("/:id", commentController.UpdateComment)
	commentsMut.DELETE("/:id", commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
