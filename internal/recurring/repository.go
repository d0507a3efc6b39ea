package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/db"
)

// Repository stores definitions and their exceptions.
type Repository interface {
	Create(ctx context.Context, d *Definition) error
	GetByID(ctx context.Context, id string) (*Definition, error)
	List(ctx context.Context, filter Filter) ([]*Definition, int, error)
	// ListDue returns ACTIVE definitions whose cursor is on or before horizon.
	ListDue(ctx context.Context, horizon time.Time) ([]*Definition, error)
	// ListPauseExpired returns PAUSED definitions whose pause ended on or before today.
	ListPauseExpired(ctx context.Context, today time.Time) ([]*Definition, error)
	// Update saves d if its stored version still equals d.Version, then bumps
	// d.Version. A mismatch yields ErrVersionConflict.
	Update(ctx context.Context, d *Definition) error

	CreateException(ctx context.Context, e *Exception) error
	GetExceptionByDate(ctx context.Context, recurringBookingID string, date time.Time) (*Exception, error)
	ListExceptions(ctx context.Context, recurringBookingID string, filter ExceptionFilter) ([]*Exception, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var definitionColumns = []string{
	"id", "customer_id", "provider_id", "service_id",
	"frequency", "recurrence_interval", "start_date", "start_time", "duration_minutes", "days_of_week",
	"next_occurrence_date", "end_date", "max_occurrences", "occurrence_count", "last_materialized_at",
	"auto_confirm", "special_instructions", "notification_preferences", "skip_dates",
	"status", "pause_reason", "paused_at", "paused_until", "cancelled_at",
	"version", "created_at", "updated_at",
}

func scanDefinition(row pgx.Row) (*Definition, error) {
	var d Definition
	var days []int32
	if err := row.Scan(
		&d.ID, &d.CustomerID, &d.ProviderID, &d.ServiceID,
		&d.Frequency, &d.RecurrenceInterval, &d.StartDate, &d.StartTime, &d.DurationMinutes, &days,
		&d.NextOccurrenceDate, &d.EndDate, &d.MaxOccurrences, &d.OccurrenceCount, &d.LastMaterializedAt,
		&d.AutoConfirm, &d.SpecialInstructions, &d.NotificationPreferences, &d.SkipDates,
		&d.Status, &d.PauseReason, &d.PausedAt, &d.PausedUntil, &d.CancelledAt,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.DaysOfWeek = fromWeekdayInts(days)
	return &d, nil
}

func toWeekdayInts(days []time.Weekday) []int32 {
	out := make([]int32, len(days))
	for i, wd := range days {
		out[i] = int32(wd)
	}
	return out
}

func fromWeekdayInts(days []int32) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, wd := range days {
		out[i] = time.Weekday(wd)
	}
	return out
}

func nonNilDates(dates []time.Time) []time.Time {
	if dates == nil {
		return []time.Time{}
	}
	return dates
}

func (r *pgxRepository) Create(ctx context.Context, d *Definition) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.recurring_bookings").
		Columns(
			"customer_id", "provider_id", "service_id",
			"frequency", "recurrence_interval", "start_date", "start_time", "duration_minutes", "days_of_week",
			"next_occurrence_date", "end_date", "max_occurrences", "occurrence_count",
			"auto_confirm", "special_instructions", "notification_preferences", "skip_dates", "status",
		).
		Values(
			d.CustomerID, d.ProviderID, d.ServiceID,
			d.Frequency, d.RecurrenceInterval, d.StartDate, d.StartTime, d.DurationMinutes, toWeekdayInts(d.DaysOfWeek),
			d.NextOccurrenceDate, d.EndDate, d.MaxOccurrences, d.OccurrenceCount,
			d.AutoConfirm, d.SpecialInstructions, d.NotificationPreferences, nonNilDates(d.SkipDates), d.Status,
		).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create recurring booking query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&d.ID, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("create recurring booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Definition, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(definitionColumns...).
		From("public.recurring_bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get recurring booking query failed: %w", err)
	}

	d, err := scanDefinition(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get recurring booking failed: %w", err)
	}
	return d, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Definition, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(definitionColumns, "count(*) OVER() as total_count")...).
		From("public.recurring_bookings")

	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"customer_id": filter.CustomerID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	// Sorting
	orderBy := "created_at"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}

	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}

	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list recurring bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recurring bookings failed: %w", err)
	}
	defer rows.Close()

	var result []*Definition
	var total int

	for rows.Next() {
		var d Definition
		var days []int32
		if err := rows.Scan(
			&d.ID, &d.CustomerID, &d.ProviderID, &d.ServiceID,
			&d.Frequency, &d.RecurrenceInterval, &d.StartDate, &d.StartTime, &d.DurationMinutes, &days,
			&d.NextOccurrenceDate, &d.EndDate, &d.MaxOccurrences, &d.OccurrenceCount, &d.LastMaterializedAt,
			&d.AutoConfirm, &d.SpecialInstructions, &d.NotificationPreferences, &d.SkipDates,
			&d.Status, &d.PauseReason, &d.PausedAt, &d.PausedUntil, &d.CancelledAt,
			&d.Version, &d.CreatedAt, &d.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan recurring booking failed: %w", err)
		}
		d.DaysOfWeek = fromWeekdayInts(days)
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate recurring bookings failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) ListDue(ctx context.Context, horizon time.Time) ([]*Definition, error) {
	return r.listWhere(ctx, squirrel.And{
		squirrel.Eq{"status": StatusActive},
		squirrel.LtOrEq{"next_occurrence_date": DateOf(horizon)},
	}, "next_occurrence_date ASC")
}

func (r *pgxRepository) ListPauseExpired(ctx context.Context, today time.Time) ([]*Definition, error) {
	return r.listWhere(ctx, squirrel.And{
		squirrel.Eq{"status": StatusPaused},
		squirrel.NotEq{"paused_until": nil},
		squirrel.LtOrEq{"paused_until": DateOf(today)},
	}, "paused_until ASC")
}

func (r *pgxRepository) listWhere(ctx context.Context, where squirrel.Sqlizer, orderBy string) ([]*Definition, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select(definitionColumns...).
		From("public.recurring_bookings").
		Where(where).
		OrderBy(orderBy).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list recurring bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring bookings failed: %w", err)
	}
	defer rows.Close()

	var result []*Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring booking failed: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring bookings failed: %w", err)
	}
	return result, nil
}

func (r *pgxRepository) Update(ctx context.Context, d *Definition) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.recurring_bookings").
		Set("frequency", d.Frequency).
		Set("recurrence_interval", d.RecurrenceInterval).
		Set("start_time", d.StartTime).
		Set("duration_minutes", d.DurationMinutes).
		Set("days_of_week", toWeekdayInts(d.DaysOfWeek)).
		Set("next_occurrence_date", d.NextOccurrenceDate).
		Set("end_date", d.EndDate).
		Set("max_occurrences", d.MaxOccurrences).
		Set("occurrence_count", d.OccurrenceCount).
		Set("last_materialized_at", d.LastMaterializedAt).
		Set("auto_confirm", d.AutoConfirm).
		Set("special_instructions", d.SpecialInstructions).
		Set("notification_preferences", d.NotificationPreferences).
		Set("skip_dates", nonNilDates(d.SkipDates)).
		Set("status", d.Status).
		Set("pause_reason", d.PauseReason).
		Set("paused_at", d.PausedAt).
		Set("paused_until", d.PausedUntil).
		Set("cancelled_at", d.CancelledAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": d.ID, "version": d.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update recurring booking query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&d.Version, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row is gone or someone else saved first.
			if _, getErr := r.GetByID(ctx, d.ID); errors.Is(getErr, ErrNotFound) {
				return ErrNotFound
			}
			return ErrVersionConflict
		}
		return fmt.Errorf("update recurring booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) CreateException(ctx context.Context, e *Exception) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.recurring_booking_exceptions").
		Columns("recurring_booking_id", "exception_date", "type", "new_date", "new_time", "reason").
		Values(e.RecurringBookingID, e.ExceptionDate, e.Type, e.NewDate, e.NewTime, e.Reason).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create exception query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return ErrExceptionExists.WithCause(err)
			case pgerrcode.ForeignKeyViolation:
				return ErrNotFound.WithCause(err)
			}
		}
		return fmt.Errorf("create exception failed: %w", err)
	}
	return nil
}

var exceptionColumns = []string{
	"id", "recurring_booking_id", "exception_date", "type", "new_date", "new_time", "reason", "created_at",
}

func (r *pgxRepository) GetExceptionByDate(ctx context.Context, recurringBookingID string, date time.Time) (*Exception, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(exceptionColumns...).
		From("public.recurring_booking_exceptions").
		Where(squirrel.Eq{"recurring_booking_id": recurringBookingID, "exception_date": DateOf(date)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get exception query failed: %w", err)
	}

	var e Exception
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&e.ID, &e.RecurringBookingID, &e.ExceptionDate, &e.Type, &e.NewDate, &e.NewTime, &e.Reason, &e.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExceptionNotFound
		}
		return nil, fmt.Errorf("get exception failed: %w", err)
	}
	return &e, nil
}

func (r *pgxRepository) ListExceptions(ctx context.Context, recurringBookingID string, filter ExceptionFilter) ([]*Exception, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(exceptionColumns...).
		From("public.recurring_booking_exceptions").
		Where(squirrel.Eq{"recurring_booking_id": recurringBookingID})

	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"type": filter.Type})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"exception_date": DateOf(*filter.From)})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"exception_date": DateOf(*filter.To)})
	}

	sql, args, err := query.OrderBy("exception_date ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list exceptions query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list exceptions failed: %w", err)
	}
	defer rows.Close()

	var result []*Exception
	for rows.Next() {
		var e Exception
		if err := rows.Scan(
			&e.ID, &e.RecurringBookingID, &e.ExceptionDate, &e.Type, &e.NewDate, &e.NewTime, &e.Reason, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan exception failed: %w", err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exceptions failed: %w", err)
	}
	return result, nil
}
