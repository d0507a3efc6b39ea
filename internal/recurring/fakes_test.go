package recurring

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog"
)

const (
	testCustomer = "customer-1"
	testProvider = "provider-1"
	testService  = "service-1"
)

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(s string) *testClock {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &testClock{t: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(s string) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// memRepo is an in-memory Repository.
type memRepo struct {
	mu         sync.Mutex
	defs       map[string]Definition
	exceptions map[string][]Exception
	getErr     map[string]error
}

func newMemRepo() *memRepo {
	return &memRepo{
		defs:       make(map[string]Definition),
		exceptions: make(map[string][]Exception),
		getErr:     make(map[string]error),
	}
}

func (r *memRepo) Create(_ context.Context, d *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = uuid.NewString()
	d.Version = 1
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.defs[d.ID] = *d
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.getErr[id]; err != nil {
		return nil, err
	}
	d, ok := r.defs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Definition, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Definition
	for _, d := range r.defs {
		if filter.CustomerID != "" && d.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && string(d.Status) != filter.Status {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r *memRepo) ListDue(_ context.Context, horizon time.Time) ([]*Definition, error) {
	return r.where(func(d Definition) bool {
		return d.Status == StatusActive && !d.NextOccurrenceDate.After(DateOf(horizon))
	}), nil
}

func (r *memRepo) ListPauseExpired(_ context.Context, today time.Time) ([]*Definition, error) {
	return r.where(func(d Definition) bool {
		return d.Status == StatusPaused && d.PausedUntil != nil && !d.PausedUntil.After(DateOf(today))
	}), nil
}

func (r *memRepo) where(keep func(Definition) bool) []*Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Definition
	for _, d := range r.defs {
		if keep(d) {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) Update(_ context.Context, d *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.defs[d.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != d.Version {
		return ErrVersionConflict
	}
	d.Version++
	d.UpdatedAt = time.Now()
	r.defs[d.ID] = *d
	return nil
}

func (r *memRepo) CreateException(_ context.Context, e *Exception) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[e.RecurringBookingID]; !ok {
		return ErrNotFound
	}
	for _, existing := range r.exceptions[e.RecurringBookingID] {
		if existing.ExceptionDate.Equal(e.ExceptionDate) {
			return ErrExceptionExists
		}
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	r.exceptions[e.RecurringBookingID] = append(r.exceptions[e.RecurringBookingID], *e)
	return nil
}

func (r *memRepo) GetExceptionByDate(_ context.Context, id string, date time.Time) (*Exception, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.exceptions[id] {
		if sameDate(e.ExceptionDate, date) {
			e := e
			return &e, nil
		}
	}
	return nil, ErrExceptionNotFound
}

func (r *memRepo) ListExceptions(_ context.Context, id string, filter ExceptionFilter) ([]*Exception, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Exception
	for _, e := range r.exceptions[id] {
		if filter.Type != "" && string(e.Type) != filter.Type {
			continue
		}
		if filter.From != nil && e.ExceptionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.ExceptionDate.After(*filter.To) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExceptionDate.Before(out[j].ExceptionDate) })
	return out, nil
}

// memBookings is an in-memory BookingStore with a unique booking number.
type memBookings struct {
	mu        sync.Mutex
	items     []booking.Booking
	createErr error
	// failIf rejects selected bookings after createErr is checked.
	failIf func(b *booking.Booking) error
}

func (s *memBookings) Create(_ context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if s.failIf != nil {
		if err := s.failIf(b); err != nil {
			return err
		}
	}
	for _, existing := range s.items {
		if existing.BookingNumber == b.BookingNumber {
			return booking.ErrDuplicateNumber
		}
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	s.items = append(s.items, *b)
	return nil
}

func (s *memBookings) List(_ context.Context, f booking.Filter) ([]*booking.Booking, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*booking.Booking
	for _, b := range s.items {
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.RecurringBookingID != "" && (b.RecurringBookingID == nil || *b.RecurringBookingID != f.RecurringBookingID) {
			continue
		}
		if f.Status != "" && string(b.Status) != f.Status {
			continue
		}
		excluded := false
		for _, st := range f.ExcludeStatuses {
			if b.Status == st {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		if f.StartTime != nil && b.StartTime.Before(*f.StartTime) {
			continue
		}
		if f.EndTime != nil && b.StartTime.After(*f.EndTime) {
			continue
		}
		b := b
		matched = append(matched, &b)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })

	total := len(matched)
	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= total {
		return nil, total, nil
	}
	end := min(start+size, total)
	return matched[start:end], total, nil
}

// forDefinition returns every booking of id ordered by start time.
func (s *memBookings) forDefinition(id string) []booking.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.Booking
	for _, b := range s.items {
		if b.RecurringBookingID != nil && *b.RecurringBookingID == id {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetByID(ctx context.Context, id string) (*catalog.Service, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*catalog.Service); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func haircut() *catalog.Service {
	return &catalog.Service{
		ID:              testService,
		ProviderID:      testProvider,
		Name:            "Haircut",
		BasePrice:       decimal.RequireFromString("50.00"),
		DurationMinutes: 45,
		IsActive:        true,
	}
}

func newCatalog() *mockCatalog {
	c := &mockCatalog{}
	c.On("GetByID", mock.Anything, testService).Return(haircut(), nil)
	c.On("GetByID", mock.Anything, mock.Anything).Return(nil, catalog.ErrNotFound)
	return c
}

type harness struct {
	repo     *memRepo
	bookings *memBookings
	catalog  *mockCatalog
	clock    *testClock
	svc      Service
}

func newHarness(now string) *harness {
	h := &harness{
		repo:     newMemRepo(),
		bookings: &memBookings{},
		catalog:  newCatalog(),
		clock:    newClock(now),
	}
	h.svc = NewService(Deps{
		Repo:     h.repo,
		Bookings: h.bookings,
		Catalog:  h.catalog,
		Locker:   NewMutexLocker(),
		Location: time.UTC,
		Now:      h.clock.Now,
	})
	return h
}

func (h *harness) scheduler() *Scheduler {
	return NewScheduler(h.svc, SchedulerConfig{
		LookaheadDays: 1,
		Concurrency:   4,
		Location:      time.UTC,
		Now:           h.clock.Now,
	})
}

// weeklyRequest is a WEEKLY definition anchored on Monday 2025-01-06 10:30.
func weeklyRequest() CreateRequest {
	return CreateRequest{
		CustomerID:      testCustomer,
		ProviderID:      testProvider,
		ServiceID:       testService,
		Frequency:       FrequencyWeekly,
		StartDate:       day("2025-01-06"),
		StartTime:       "10:30",
		DurationMinutes: 60,
		MaxOccurrences:  ptr(3),
		AutoConfirm:     true,
	}
}

func bookedDates(items []booking.Booking) []string {
	out := make([]string, len(items))
	for i, b := range items {
		out[i] = b.StartTime.Format("2006-01-02 15:04")
	}
	return out
}
