package app

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/api"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/auth"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/recurring"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	Logger       *slog.Logger

	Location             *time.Location
	SchedulerLookahead   int
	SchedulerConcurrency int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router           *gin.Engine
	JWTManager       *auth.JWTManager
	RecurringService recurring.Service
	Scheduler        *recurring.Scheduler
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Catalog Module
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)
	catalogService := catalog.NewService(catalogRepo)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo)

	// Recurring Module
	recurringRepo := recurring.NewPgxRepository(cfg.DBPool)
	recurringService := recurring.NewService(recurring.Deps{
		Repo:     recurringRepo,
		Bookings: bookingRepo,
		Catalog:  catalogService,
		Locker:   recurring.NewPgLocker(cfg.DBPool),
		Location: cfg.Location,
		Logger:   cfg.Logger,
	})
	scheduler := recurring.NewScheduler(recurringService, recurring.SchedulerConfig{
		LookaheadDays: cfg.SchedulerLookahead,
		Concurrency:   cfg.SchedulerConcurrency,
		Location:      cfg.Location,
		Logger:        cfg.Logger,
	})

	// API Router Config
	routerParams := api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		Logger:           cfg.Logger,
		CatalogService:   catalogService,
		BookingService:   bookingService,
		RecurringService: recurringService,
		Scheduler:        scheduler,
		JWTManager:       jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:           router,
		JWTManager:       jwtManager,
		RecurringService: recurringService,
		Scheduler:        scheduler,
	}
}
