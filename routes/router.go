package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mingyan/blogserver/cache"
	"github.com/mingyan/blogserver/config"
	"github.com/mingyan/blogserver/controllers"
	"github.com/mingyan/blogserver/middleware"
	"github.com/mingyan/blogserver/services"
	"github.com/mingyan/blogserver/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, rdb *redis.Client) *gin.Engine {
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
	r.Use(middleware.RequestLog())
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/uploads", cfg.UploadDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	store := cache.NewStore(rdb)
	userCache := cache.NewUserCache(store)
	codeStore := cache.NewCodeStore(store)
	blacklist := cache.NewTokenBlacklist(store)

	userService := services.NewUserService(db, userCache, codeStore)
	contentService := services.NewContentService(db)

	authController := controllers.NewAuthController(userService, blacklist)
	postController := controllers.NewPostController(contentService)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/send-email-code", authController.SendEmailCode)
	authGroup.POST("/logout", middleware.AuthRequired(blacklist), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(blacklist), authController.Me)

	api.GET("/users/:id", authController.GetUser)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", middleware.OptionalAuth(blacklist), postController.ListPosts)
	postsGroup.GET("/:id", middleware.OptionalAuth(blacklist), postController.GetPost)
	postsGroup.GET("/:id/comments", postController.ListComments)

	api.GET("/tags", postController.GetTags)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(blacklist), middleware.RateLimitMiddleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/like", postController.LikePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.POST("/upload", postController.UploadImage)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
