//go:build integration

package booking

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/migrate"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, pool))

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(),
			"TRUNCATE public.bookings, public.recurring_booking_exceptions, public.recurring_bookings, public.services CASCADE")
		pool.Close()
	})
	return pool
}

func newTestBooking(t *testing.T, pool *pgxpool.Pool, number string, start time.Time, status Status) *Booking {
	t.Helper()
	providerID := uuid.NewString()

	var serviceID string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO public.services (provider_id, name, base_price) VALUES ($1, 'Massage', 80.00) RETURNING id`,
		providerID).Scan(&serviceID)
	require.NoError(t, err)

	return &Booking{
		BookingNumber: number,
		CustomerID:    uuid.NewString(),
		ProviderID:    providerID,
		ServiceID:     serviceID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Price:         decimal.RequireFromString("80.00"),
		Status:        status,
	}
}

func TestPgxRepositoryCreateRejectsDuplicateNumber(t *testing.T) {
	pool := openTestPool(t)
	repo := NewPgxRepository(pool)
	ctx := context.Background()
	start := time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC)

	first := newTestBooking(t, pool, "BK-20250106-0000AAAA", start, StatusConfirmed)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := newTestBooking(t, pool, "BK-20250106-0000AAAA", start.AddDate(0, 0, 7), StatusConfirmed)
	assert.ErrorIs(t, repo.Create(ctx, second), ErrDuplicateNumber)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.BookingNumber, got.BookingNumber)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("80")))
	assert.True(t, got.StartTime.Equal(start))
}

func TestPgxRepositoryListFilters(t *testing.T) {
	pool := openTestPool(t)
	repo := NewPgxRepository(pool)
	ctx := context.Background()
	start := time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC)

	confirmed := newTestBooking(t, pool, "BK-1", start, StatusConfirmed)
	cancelled := newTestBooking(t, pool, "BK-2", start.AddDate(0, 0, 7), StatusCancelled)
	later := newTestBooking(t, pool, "BK-3", start.AddDate(0, 0, 14), StatusPending)
	for _, b := range []*Booking{confirmed, cancelled, later} {
		require.NoError(t, repo.Create(ctx, b))
	}

	items, total, err := repo.List(ctx, Filter{ExcludeStatuses: []Status{StatusCancelled}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)

	at := start.AddDate(0, 0, 7)
	items, total, err = repo.List(ctx, Filter{Status: string(StatusCancelled), StartTime: &at, EndTime: &at, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "BK-2", items[0].BookingNumber)
}
