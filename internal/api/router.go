package api

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/auth"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
	bookingHttp "github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking/http"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog"
	catalogHttp "github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog/http"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/recurring"
	recurringHttp "github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/recurring/http"
)

// Config holds the services the router exposes.
type Config struct {
	IsProduction     bool
	ProdOrigins      string
	Logger           *slog.Logger
	CatalogService   catalog.CatalogService
	BookingService   booking.Service
	RecurringService recurring.Service
	Scheduler        recurring.Ticker
	JWTManager       *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery(), RequestLogger(cfg.Logger))

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	if origins := splitOrigins(cfg.ProdOrigins); cfg.IsProduction && len(origins) > 0 {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	r.Use(cors.New(config))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	catalogHandler := catalogHttp.NewHandler(cfg.CatalogService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	recurringHandler := recurringHttp.NewHandler(cfg.RecurringService, cfg.Scheduler)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		catalogHttp.RegisterRoutes(v1, catalogHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		recurringHttp.RegisterRoutes(v1, recurringHandler, authMiddleware)
	}

	return r
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
