package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/social-blog/config"
	_ "github.com/d60-Lab/social-blog/docs"
	"github.com/d60-Lab/social-blog/internal/api/handler"
	"github.com/d60-Lab/social-blog/internal/api/middleware"
)

// SetupRouter 注册中间件与 /api/v1 路由
func SetupRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.NewTokenAuth(cfg.JWT)
	viewLimiter := middleware.NewIPRateLimiter(cfg.Views.RateLimit, cfg.Views.Burst)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/accounts", h.CreateAccount)
		v1.GET("/accounts/search", auth.Optional(), h.SearchAccounts)
		v1.GET("/accounts/:id", h.GetAccount)
		v1.GET("/accounts/:id/blogs", auth.Optional(), h.ListAccountBlogs)

		rel := v1.Group("/relations")
		rel.POST("/:id/toggle", auth.Required(), h.ToggleFollow)
		rel.GET("/:id/stats", h.FollowStats)
		rel.GET("/:id/followers", auth.Optional(), h.ListFollowers)
		rel.GET("/:id/following", auth.Optional(), h.ListFollowing)

		blogs := v1.Group("/blogs")
		blogs.POST("/drafts", auth.Required(), h.CreateDraft)
		blogs.POST("/publish", auth.Required(), h.PublishNew)
		blogs.PUT("/:id/draft", auth.Required(), h.UpdateDraft)
		blogs.PUT("/:id/publish", auth.Required(), h.Publish)
		blogs.POST("/:id/archive", auth.Required(), h.Archive)
		blogs.PATCH("/:id", auth.Required(), h.UpdateBlog)
		blogs.DELETE("/:id", auth.Required(), h.DeleteBlog)
		blogs.GET("/:id", auth.Optional(), h.GetBlog)
		blogs.POST("/:id/like", auth.Required(), h.LikeBlog)
		blogs.POST("/:id/views", viewLimiter.Middleware(), h.RecordView)

		v1.GET("/trending/blogs", h.TrendingBlogs)
		v1.GET("/trending/genres", h.TrendingGenres)
		v1.GET("/feed", auth.Required(), h.Feed)
	}
	return r
}
