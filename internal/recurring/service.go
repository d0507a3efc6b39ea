package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/apperror"
)

const (
	defaultPreviewCount = 10
	maxPreviewCount     = 100
	statsPageSize       = 100
)

// Service exposes the recurring booking operations. Every request-driven
// method takes the caller's customer id; an empty id skips the ownership
// check and is reserved for administrators.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Definition, error)
	GetByID(ctx context.Context, id, customerID string) (*Definition, error)
	List(ctx context.Context, filter Filter) ([]*Definition, int, error)
	Update(ctx context.Context, id, customerID string, req UpdateRequest) (*Definition, error)
	Pause(ctx context.Context, id, customerID string, req PauseRequest) (*Definition, error)
	Resume(ctx context.Context, id, customerID string, req ResumeRequest) (*Definition, error)
	Cancel(ctx context.Context, id, customerID string) (*Definition, error)

	AddException(ctx context.Context, id, customerID string, req ExceptionRequest) (*Exception, error)
	ListExceptions(ctx context.Context, id, customerID string, filter ExceptionFilter) ([]*Exception, error)

	ListUpcomingBookings(ctx context.Context, id, customerID string, filter UpcomingFilter) ([]*booking.Booking, int, error)
	GetStats(ctx context.Context, id, customerID string, opts StatsOptions) (*Stats, error)
	Preview(ctx context.Context, id, customerID string, count int) ([]Occurrence, error)
	Calendar(ctx context.Context, id, customerID string) ([]byte, error)

	// MaterializeNext books the definition's next occurrence when it falls on
	// or before horizon. It is safe to call repeatedly: a definition whose
	// cursor already moved past horizon is left alone.
	MaterializeNext(ctx context.Context, id string, horizon time.Time) (*Result, error)
	DueDefinitions(ctx context.Context, horizon time.Time) ([]*Definition, error)
	// ResumeExpiredPauses reactivates paused definitions whose pause-until
	// date has arrived and returns how many were resumed.
	ResumeExpiredPauses(ctx context.Context) (int, error)
}

type CreateRequest struct {
	CustomerID              string
	ProviderID              string
	ServiceID               string
	Frequency               Frequency
	RecurrenceInterval      int
	StartDate               time.Time
	StartTime               string
	DurationMinutes         int
	DaysOfWeek              []time.Weekday
	EndDate                 *time.Time
	MaxOccurrences          *int
	AutoConfirm             bool
	SpecialInstructions     string
	NotificationPreferences NotificationPreferences
	SkipDates               []time.Time
}

// UpdateRequest carries a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Frequency               *Frequency
	RecurrenceInterval      *int
	StartTime               *string
	DurationMinutes         *int
	DaysOfWeek              *[]time.Weekday
	EndDate                 *time.Time
	ClearEndDate            bool
	MaxOccurrences          *int
	ClearMaxOccurrences     bool
	AutoConfirm             *bool
	SpecialInstructions     *string
	NotificationPreferences *NotificationPreferences
	SkipDates               *[]time.Time
}

type ExceptionRequest struct {
	ExceptionDate time.Time
	Type          ExceptionType
	NewDate       *time.Time
	NewTime       string
	Reason        string
}

type UpcomingFilter struct {
	From     *time.Time
	To       *time.Time
	Status   string
	Page     int
	PageSize int
}

// Result describes what one MaterializeNext call did.
type Result struct {
	Outcome    Outcome
	Definition *Definition
	Booking    *booking.Booking
	// Skipped counts occurrences passed over by skip dates, skip or cancel exceptions.
	Skipped int
}

type Deps struct {
	Repo     Repository
	Bookings BookingStore
	Catalog  ServiceCatalog
	Locker   Locker
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

type service struct {
	repo         Repository
	bookings     BookingStore
	catalog      ServiceCatalog
	locker       Locker
	resolver     *ExceptionResolver
	materializer *Materializer
	loc          *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

func NewService(deps Deps) Service {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewMutexLocker()
	}
	return &service{
		repo:         deps.Repo,
		bookings:     deps.Bookings,
		catalog:      deps.Catalog,
		locker:       locker,
		resolver:     NewExceptionResolver(deps.Repo),
		materializer: NewMaterializer(deps.Catalog, deps.Bookings, loc, deps.Logger),
		loc:          loc,
		now:          now,
		logger:       deps.Logger,
	}
}

func (s *service) today() time.Time {
	return DateOf(s.now().In(s.loc))
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Definition, error) {
	if req.RecurrenceInterval == 0 {
		req.RecurrenceInterval = 1
	}
	d := &Definition{
		CustomerID:              req.CustomerID,
		ProviderID:              req.ProviderID,
		ServiceID:               req.ServiceID,
		Frequency:               req.Frequency,
		RecurrenceInterval:      req.RecurrenceInterval,
		StartDate:               DateOf(req.StartDate),
		StartTime:               req.StartTime,
		DurationMinutes:         req.DurationMinutes,
		DaysOfWeek:              normalizeWeekdays(req.DaysOfWeek),
		EndDate:                 datePtr(req.EndDate),
		MaxOccurrences:          req.MaxOccurrences,
		AutoConfirm:             req.AutoConfirm,
		SpecialInstructions:     req.SpecialInstructions,
		NotificationPreferences: req.NotificationPreferences,
		SkipDates:               normalizeDates(req.SkipDates),
		Status:                  StatusActive,
	}

	svc, err := s.catalog.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("lookup service %s: %w", req.ServiceID, err)
	}
	if svc.ProviderID != req.ProviderID {
		return nil, ErrProviderMismatch
	}
	if d.DurationMinutes == 0 {
		d.DurationMinutes = svc.DurationMinutes
	}

	if err := validate(d); err != nil {
		return nil, err
	}
	d.NextOccurrenceDate = First(d)

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx, s.logger)
	logger.Info("recurring booking created", "recurring_booking_id", d.ID, "frequency", d.Frequency)

	// The first occurrence is booked straight away regardless of the
	// lookahead window. A failure here leaves the cursor in place for the
	// next tick instead of failing the request.
	if _, err := s.materializeNext(ctx, d.ID, nil); err != nil {
		logger.Error("initial materialization failed",
			"recurring_booking_id", d.ID, "error", err, "error_kind", ErrorKind(err))
	}

	return s.repo.GetByID(ctx, d.ID)
}

func (s *service) GetByID(ctx context.Context, id, customerID string) (*Definition, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(d, customerID) {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Definition, int, error) {
	if filter.Status != "" && !slices.Contains([]Status{StatusActive, StatusPaused, StatusCompleted, StatusCancelled}, Status(filter.Status)) {
		return nil, 0, apperror.New(http.StatusBadRequest, "invalid status")
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id, customerID string, req UpdateRequest) (*Definition, error) {
	return s.mutate(ctx, id, customerID, func(d Definition) (Definition, error) {
		if d.Status.Terminal() {
			return d, ErrInvalidTransition
		}

		patternChanged := false
		if req.Frequency != nil {
			patternChanged = patternChanged || *req.Frequency != d.Frequency
			d.Frequency = *req.Frequency
		}
		if req.RecurrenceInterval != nil {
			patternChanged = patternChanged || *req.RecurrenceInterval != d.RecurrenceInterval
			d.RecurrenceInterval = *req.RecurrenceInterval
		}
		if req.DaysOfWeek != nil {
			patternChanged = true
			d.DaysOfWeek = normalizeWeekdays(*req.DaysOfWeek)
		}
		if req.StartTime != nil {
			d.StartTime = *req.StartTime
		}
		if req.DurationMinutes != nil {
			d.DurationMinutes = *req.DurationMinutes
		}
		switch {
		case req.ClearEndDate:
			d.EndDate = nil
		case req.EndDate != nil:
			d.EndDate = datePtr(req.EndDate)
		}
		switch {
		case req.ClearMaxOccurrences:
			d.MaxOccurrences = nil
		case req.MaxOccurrences != nil:
			limit := *req.MaxOccurrences
			d.MaxOccurrences = &limit
		}
		if req.AutoConfirm != nil {
			d.AutoConfirm = *req.AutoConfirm
		}
		if req.SpecialInstructions != nil {
			d.SpecialInstructions = *req.SpecialInstructions
		}
		if req.NotificationPreferences != nil {
			d.NotificationPreferences = *req.NotificationPreferences
		}
		if req.SkipDates != nil {
			d.SkipDates = normalizeDates(*req.SkipDates)
		}

		if err := validate(&d); err != nil {
			return d, err
		}
		if d.MaxOccurrences != nil && *d.MaxOccurrences < d.OccurrenceCount {
			return d, ErrInvalidMaxOccurrences
		}

		if patternChanged {
			d.NextOccurrenceDate = align(&d, d.NextOccurrenceDate)
		}
		d, _ = CompleteIfFinished(d, s.today())
		return d, nil
	})
}

func (s *service) Pause(ctx context.Context, id, customerID string, req PauseRequest) (*Definition, error) {
	return s.mutate(ctx, id, customerID, func(d Definition) (Definition, error) {
		return Pause(d, req, s.now())
	})
}

func (s *service) Resume(ctx context.Context, id, customerID string, req ResumeRequest) (*Definition, error) {
	return s.mutate(ctx, id, customerID, func(d Definition) (Definition, error) {
		return Resume(d, req)
	})
}

func (s *service) Cancel(ctx context.Context, id, customerID string) (*Definition, error) {
	return s.mutate(ctx, id, customerID, func(d Definition) (Definition, error) {
		next, changed := Cancel(d, s.now())
		if !changed {
			return d, errUnchanged
		}
		return next, nil
	})
}

// errUnchanged tells mutate to return the stored definition without saving.
var errUnchanged = errors.New("recurring: unchanged")

// mutate re-reads the definition under its lock, applies fn and saves the
// result with a version check.
func (s *service) mutate(ctx context.Context, id, customerID string, fn func(Definition) (Definition, error)) (*Definition, error) {
	var out *Definition
	err := s.locker.WithLock(ctx, id, func(ctx context.Context) error {
		d, err := s.GetByID(ctx, id, customerID)
		if err != nil {
			return err
		}

		next, err := fn(*d)
		if errors.Is(err, errUnchanged) {
			out = d
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Debug("recurring booking updated",
		"recurring_booking_id", out.ID, "status", out.Status, "version", out.Version)
	return out, nil
}

func (s *service) AddException(ctx context.Context, id, customerID string, req ExceptionRequest) (*Exception, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidExceptionType
	}
	e := &Exception{
		RecurringBookingID: id,
		ExceptionDate:      DateOf(req.ExceptionDate),
		Type:               req.Type,
		Reason:             req.Reason,
	}
	if req.Type == ExceptionReschedule {
		if req.NewDate == nil {
			return nil, ErrRescheduleDate
		}
		e.NewDate = datePtr(req.NewDate)
		if req.NewTime != "" {
			if _, _, err := ParseClock(req.NewTime); err != nil {
				return nil, ErrInvalidStartTime
			}
			e.NewTime = req.NewTime
		}
	}

	err := s.locker.WithLock(ctx, id, func(ctx context.Context) error {
		d, err := s.GetByID(ctx, id, customerID)
		if err != nil {
			return err
		}
		if d.Status.Terminal() {
			return ErrInvalidTransition
		}
		// Dates before the cursor are already materialized or skipped.
		if e.ExceptionDate.Before(DateOf(d.NextOccurrenceDate)) {
			return ErrExceptionDatePassed
		}
		return s.repo.CreateException(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) ListExceptions(ctx context.Context, id, customerID string, filter ExceptionFilter) ([]*Exception, error) {
	if filter.Type != "" && !ExceptionType(filter.Type).Valid() {
		return nil, ErrInvalidExceptionType
	}
	if _, err := s.GetByID(ctx, id, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListExceptions(ctx, id, filter)
}

func (s *service) ListUpcomingBookings(ctx context.Context, id, customerID string, filter UpcomingFilter) ([]*booking.Booking, int, error) {
	if _, err := s.GetByID(ctx, id, customerID); err != nil {
		return nil, 0, err
	}

	from := s.now()
	if filter.From != nil && filter.From.After(from) {
		from = *filter.From
	}
	f := booking.Filter{
		RecurringBookingID: id,
		Status:             filter.Status,
		StartTime:          &from,
		EndTime:            filter.To,
		Page:               filter.Page,
		PageSize:           filter.PageSize,
	}
	if filter.Status == "" {
		f.ExcludeStatuses = []booking.Status{booking.StatusCancelled, booking.StatusCompleted}
	}
	return s.bookings.List(ctx, f)
}

func (s *service) GetStats(ctx context.Context, id, customerID string, opts StatsOptions) (*Stats, error) {
	if !opts.GroupBy.Valid() {
		return nil, apperror.New(http.StatusBadRequest, "invalid grouping")
	}
	d, err := s.GetByID(ctx, id, customerID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.allBookings(ctx, id)
	if err != nil {
		return nil, err
	}

	var unitPrice *decimal.Decimal
	svc, err := s.catalog.GetByID(ctx, d.ServiceID)
	switch {
	case err == nil:
		unitPrice = &svc.BasePrice
	case errors.Is(err, catalog.ErrNotFound):
		// Fall back to the prices recorded on the bookings.
	default:
		return nil, fmt.Errorf("lookup service %s: %w", d.ServiceID, err)
	}

	stats := Aggregate(d, bookings, unitPrice, opts, s.now(), s.loc)
	return &stats, nil
}

func (s *service) allBookings(ctx context.Context, id string) ([]*booking.Booking, error) {
	var all []*booking.Booking
	for page := 1; ; page++ {
		items, total, err := s.bookings.List(ctx, booking.Filter{
			RecurringBookingID: id,
			Page:               page,
			PageSize:           statsPageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < statsPageSize || len(all) >= total {
			return all, nil
		}
	}
}

func (s *service) Preview(ctx context.Context, id, customerID string, count int) ([]Occurrence, error) {
	if count <= 0 {
		count = defaultPreviewCount
	}
	if count > maxPreviewCount {
		count = maxPreviewCount
	}

	d, err := s.GetByID(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, *d, count)
}

// project simulates upcoming materializations on a copy of d without
// persisting anything. A paused definition is projected as if resumed now.
func (s *service) project(ctx context.Context, d Definition, count int) ([]Occurrence, error) {
	if d.Status.Terminal() {
		return []Occurrence{}, nil
	}
	d.Status = StatusActive

	out := make([]Occurrence, 0, count)
	for len(out) < count && d.Status == StatusActive {
		if d.MaxOccurrences != nil && d.OccurrenceCount >= *d.MaxOccurrences {
			break
		}
		res, err := s.resolver.Resolve(ctx, &d, d.NextOccurrenceDate)
		if err != nil {
			return nil, err
		}
		plan := PlanNext(d, res, s.now())
		if plan.Book != nil {
			out = append(out, *plan.Book)
		}
		d = plan.Definition
	}
	return out, nil
}

func (s *service) Calendar(ctx context.Context, id, customerID string) ([]byte, error) {
	d, err := s.GetByID(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.allBookings(ctx, id)
	if err != nil {
		return nil, err
	}

	name := "Recurring booking"
	if svc, err := s.catalog.GetByID(ctx, d.ServiceID); err == nil {
		name = svc.Name
	}
	return BuildCalendar(d, name, bookings, s.now()), nil
}

func (s *service) MaterializeNext(ctx context.Context, id string, horizon time.Time) (*Result, error) {
	return s.materializeNext(ctx, id, &horizon)
}

// materializeNext runs one step of the engine for a definition. A nil
// horizon books the next occurrence however far away it is.
func (s *service) materializeNext(ctx context.Context, id string, horizon *time.Time) (*Result, error) {
	var result *Result
	err := s.locker.WithLock(ctx, id, func(ctx context.Context) error {
		// Fresh read under the lock: a cancel or pause that won the race is seen here.
		d, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		result = &Result{Outcome: OutcomeInactive, Definition: d}
		if d.Status != StatusActive {
			return nil
		}

		if done, ok := CompleteIfFinished(*d, s.today()); ok {
			if err := s.repo.Update(ctx, &done); err != nil {
				return err
			}
			result.Outcome = OutcomeCompleted
			result.Definition = &done
			return nil
		}

		if horizon != nil && d.NextOccurrenceDate.After(DateOf(*horizon)) {
			result.Outcome = OutcomeNotDue
			return nil
		}

		res, err := s.resolver.Resolve(ctx, d, d.NextOccurrenceDate)
		if err != nil {
			return err
		}
		plan := PlanNext(*d, res, s.now())
		result.Skipped = len(res.Skipped) + len(res.Cancelled)

		for _, date := range plan.Cancelled {
			if _, err := s.materializer.MaterializeCancelled(ctx, d, date, s.exceptionReason(ctx, id, date)); err != nil {
				return err
			}
		}
		if plan.Book != nil {
			b, err := s.materializer.Materialize(ctx, d, plan.Book.Date, plan.Book.StartTime)
			if err != nil {
				return err
			}
			result.Booking = b
		}

		next := plan.Definition
		if err := s.repo.Update(ctx, &next); err != nil {
			return err
		}
		result.Outcome = plan.Outcome
		result.Definition = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Booking != nil {
		logging.FromContext(ctx, s.logger).Info("occurrence materialized",
			"recurring_booking_id", id,
			"booking_id", result.Booking.ID,
			"booking_number", result.Booking.BookingNumber,
			"start_time", result.Booking.StartTime,
			"occurrence_count", result.Definition.OccurrenceCount,
			"status", result.Definition.Status)
	}
	return result, nil
}

func (s *service) exceptionReason(ctx context.Context, id string, date time.Time) string {
	e, err := s.repo.GetExceptionByDate(ctx, id, date)
	if err != nil {
		return ""
	}
	return e.Reason
}

func (s *service) DueDefinitions(ctx context.Context, horizon time.Time) ([]*Definition, error) {
	return s.repo.ListDue(ctx, horizon)
}

func (s *service) ResumeExpiredPauses(ctx context.Context) (int, error) {
	today := s.today()
	expired, err := s.repo.ListPauseExpired(ctx, today)
	if err != nil {
		return 0, err
	}

	logger := logging.FromContext(ctx, s.logger)
	resumed := 0
	for _, candidate := range expired {
		_, err := s.mutate(ctx, candidate.ID, "", func(d Definition) (Definition, error) {
			if d.Status != StatusPaused || d.PausedUntil == nil || d.PausedUntil.After(today) {
				return d, errUnchanged
			}
			return Resume(d, ResumeRequest{})
		})
		if err != nil {
			logger.Error("auto-resume failed",
				"recurring_booking_id", candidate.ID, "error", err, "error_kind", ErrorKind(err))
			continue
		}
		resumed++
	}
	return resumed, nil
}

func owns(d *Definition, customerID string) bool {
	return customerID == "" || d.CustomerID == customerID
}

func validate(d *Definition) error {
	if !d.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if d.RecurrenceInterval < 1 {
		return ErrInvalidInterval
	}
	if _, _, err := ParseClock(d.StartTime); err != nil {
		return ErrInvalidStartTime
	}
	if d.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if len(d.DaysOfWeek) > 0 {
		if !d.Frequency.weekly() {
			return ErrInvalidDaysOfWeek
		}
		for _, wd := range d.DaysOfWeek {
			if wd < time.Sunday || wd > time.Saturday {
				return ErrInvalidDaysOfWeek
			}
		}
	}
	if d.EndDate != nil && d.EndDate.Before(DateOf(d.StartDate)) {
		return ErrInvalidEndDate
	}
	if d.MaxOccurrences != nil && *d.MaxOccurrences < 1 {
		return ErrInvalidMaxOccurrences
	}
	return nil
}

// align moves cursor onto the definition's pattern when it no longer lies on it.
func align(d *Definition, cursor time.Time) time.Time {
	if len(d.DaysOfWeek) == 0 || !d.Frequency.weekly() {
		return cursor
	}
	if next, ok := weekdayRule(d).after(cursor, true); ok {
		return next
	}
	return cursor
}

func normalizeWeekdays(days []time.Weekday) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}

func normalizeDates(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := DateOf(d)
		if !slices.ContainsFunc(out, func(o time.Time) bool { return o.Equal(day) }) {
			out = append(out, day)
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}

// ErrorKind returns a stable label for err, used in logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, errPanic):
		return "panic"
	}
	switch apperror.Status(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "validation"
	}
	return "store"
}
