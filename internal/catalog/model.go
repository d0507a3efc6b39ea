package catalog

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "service not found")
)

// Service is a bookable offering of a provider. Only the fields the booking
// engine prices and schedules with are loaded.
type Service struct {
	ID              string
	ProviderID      string
	Name            string
	BasePrice       decimal.Decimal
	DurationMinutes int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
