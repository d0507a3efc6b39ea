package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
)

// maxNumberAttempts bounds booking number regeneration on collisions.
const maxNumberAttempts = 5

// ServiceCatalog is the price and duration lookup the engine books against.
type ServiceCatalog interface {
	GetByID(ctx context.Context, id string) (*catalog.Service, error)
}

// BookingStore creates and queries booking instances.
type BookingStore interface {
	Create(ctx context.Context, b *booking.Booking) error
	List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, int, error)
}

// Materializer turns a resolved occurrence into a persisted booking.
type Materializer struct {
	catalog   ServiceCatalog
	store     BookingStore
	loc       *time.Location
	newNumber func(time.Time) string
	logger    *slog.Logger
}

func NewMaterializer(catalog ServiceCatalog, store BookingStore, loc *time.Location, logger *slog.Logger) *Materializer {
	if loc == nil {
		loc = time.UTC
	}
	return &Materializer{
		catalog:   catalog,
		store:     store,
		loc:       loc,
		newNumber: NewBookingNumber,
		logger:    logger,
	}
}

// NewBookingNumber returns a human readable booking number such as
// BK-20250106-9F2C41AB. Uniqueness is enforced by the store.
func NewBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "BK-" + now.UTC().Format("20060102") + "-" + suffix
}

// Materialize books the occurrence at date and clock.
func (m *Materializer) Materialize(ctx context.Context, d *Definition, date time.Time, clock string) (*booking.Booking, error) {
	status := booking.StatusPending
	if d.AutoConfirm {
		status = booking.StatusConfirmed
	}
	return m.create(ctx, d, date, clock, status, d.SpecialInstructions)
}

// MaterializeCancelled records a cancelled booking for an occurrence that a
// cancel exception removed, so the missed slot stays visible. A record left
// by an earlier attempt for the same slot is returned instead of a new one.
func (m *Materializer) MaterializeCancelled(ctx context.Context, d *Definition, date time.Time, reason string) (*booking.Booking, error) {
	start, err := combine(date, d.StartTime, m.loc)
	if err != nil {
		return nil, err
	}
	existing, _, err := m.store.List(ctx, booking.Filter{
		RecurringBookingID: d.ID,
		Status:             string(booking.StatusCancelled),
		StartTime:          &start,
		EndTime:            &start,
		Page:               1,
		PageSize:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("look up cancelled occurrence %s: %w", FormatDate(date), err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	notes := "cancelled occurrence"
	if reason != "" {
		notes += ": " + reason
	}
	return m.create(ctx, d, date, d.StartTime, booking.StatusCancelled, notes)
}

func (m *Materializer) create(ctx context.Context, d *Definition, date time.Time, clock string, status booking.Status, notes string) (*booking.Booking, error) {
	start, err := combine(date, clock, m.loc)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(d.DurationMinutes) * time.Minute)

	price, err := m.price(ctx, d)
	if err != nil {
		return nil, err
	}

	recurringID := d.ID
	b := &booking.Booking{
		CustomerID:         d.CustomerID,
		ProviderID:         d.ProviderID,
		ServiceID:          d.ServiceID,
		RecurringBookingID: &recurringID,
		StartTime:          start,
		EndTime:            end,
		Price:              price,
		Status:             status,
		Notes:              notes,
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		b.BookingNumber = m.newNumber(time.Now())
		err = m.store.Create(ctx, b)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, booking.ErrDuplicateNumber) {
			return nil, fmt.Errorf("create booking for %s: %w", FormatDate(date), err)
		}
		logging.FromContext(ctx, m.logger).Debug("booking number collision, retrying",
			"recurring_booking_id", d.ID, "attempt", attempt)
	}
	return nil, fmt.Errorf("create booking for %s: %w", FormatDate(date), err)
}

// price looks up the service base price. A missing service books at zero
// rather than failing the occurrence.
func (m *Materializer) price(ctx context.Context, d *Definition) (decimal.Decimal, error) {
	svc, err := m.catalog.GetByID(ctx, d.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			logging.FromContext(ctx, m.logger).Warn("service not found, booking at zero price",
				"recurring_booking_id", d.ID, "service_id", d.ServiceID)
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("lookup service %s: %w", d.ServiceID, err)
	}
	return svc.BasePrice, nil
}
