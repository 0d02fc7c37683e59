// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/listing-studio/internal/config"
	"github.com/javajoker/listing-studio/internal/handlers"
	"github.com/javajoker/listing-studio/internal/middleware"
	"github.com/javajoker/listing-studio/internal/utils"
)

// Services are the dependencies the HTTP layer routes to.
type Services struct {
	Listings      handlers.ListingStore
	Products      handlers.ProductReader
	Generations   handlers.GenerationRunner
	Contents      handlers.ContentLister
	Notifications handlers.NotificationInbox
	RateLimiter   *middleware.RateLimiter
}

// NewRateLimiter builds the inbound limiter from the server config.
func NewRateLimiter(cfg config.ServerConfig) *middleware.RateLimiter {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	return middleware.NewRateLimiter(limit, cfg.RateBurst)
}

func Initialize(cfg *config.Config, svc Services) *gin.Engine {
	// Initialize handlers
	productHandler := handlers.NewProductHandler(svc.Products)
	listingHandler := handlers.NewListingHandler(svc.Listings, svc.Products)
	generationHandler := handlers.NewGenerationHandler(svc.Generations, cfg.CORS.AllowedOrigins)
	contentHandler := handlers.NewContentHandler(svc.Contents)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiter := svc.RateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(cfg.Server)
	}

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	r.Use(limiter.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthRequired())
	{
		products := v1.Group("/products/:id")
		{
			products.GET("", productHandler.GetProduct)
			products.GET("/content", contentHandler.ListProductContent)

			listings := products.Group("/listings/:channel")
			{
				listings.GET("", listingHandler.GetListing)
				listings.PUT("", listingHandler.UpdateListing)
				listings.POST("/generate", generationHandler.StartGeneration)
				listings.GET("/generation", generationHandler.GetGeneration)
				listings.DELETE("/generation", generationHandler.CancelGeneration)
				listings.GET("/generation/ws", generationHandler.WatchGeneration)
				listings.POST("/images/:slot", generationHandler.GenerateSlotImage)
			}
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListUnread)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
