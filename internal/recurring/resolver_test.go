package recurring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupFunc func(date time.Time) (*Exception, error)

func (f lookupFunc) GetExceptionByDate(_ context.Context, _ string, date time.Time) (*Exception, error) {
	return f(date)
}

func exceptionsByDate(list ...Exception) lookupFunc {
	return func(date time.Time) (*Exception, error) {
		for _, e := range list {
			if sameDate(e.ExceptionDate, date) {
				e := e
				return &e, nil
			}
		}
		return nil, ErrExceptionNotFound
	}
}

func weeklyDefinition() *Definition {
	return &Definition{
		ID:                 "def-1",
		Frequency:          FrequencyWeekly,
		RecurrenceInterval: 1,
		StartDate:          day("2025-01-06"),
		StartTime:          "10:30",
		DurationMinutes:    60,
		NextOccurrenceDate: day("2025-01-06"),
		Status:             StatusActive,
	}
}

func TestResolveWithoutException(t *testing.T) {
	r := NewExceptionResolver(exceptionsByDate())

	res, err := r.Resolve(context.Background(), weeklyDefinition(), day("2025-01-13"))
	require.NoError(t, err)
	assert.True(t, res.Materialize)
	assert.False(t, res.Rescheduled)
	assert.Equal(t, day("2025-01-13"), res.Date)
	assert.Equal(t, day("2025-01-13"), res.Candidate)
	assert.Equal(t, "10:30", res.StartTime)
}

func TestResolveChainsSkips(t *testing.T) {
	d := weeklyDefinition()
	d.SkipDates = []time.Time{day("2025-01-20")}
	r := NewExceptionResolver(exceptionsByDate(
		Exception{ExceptionDate: day("2025-01-13"), Type: ExceptionSkip},
		Exception{ExceptionDate: day("2025-01-27"), Type: ExceptionCancel},
	))

	res, err := r.Resolve(context.Background(), d, day("2025-01-13"))
	require.NoError(t, err)
	assert.True(t, res.Materialize)
	assert.Equal(t, day("2025-02-03"), res.Date)
	assert.Equal(t, []time.Time{day("2025-01-13"), day("2025-01-20")}, res.Skipped)
	assert.Equal(t, []time.Time{day("2025-01-27")}, res.Cancelled)
}

func TestResolveReschedule(t *testing.T) {
	r := NewExceptionResolver(exceptionsByDate(
		Exception{ExceptionDate: day("2025-01-13"), Type: ExceptionReschedule, NewDate: ptr(day("2025-01-15")), NewTime: "14:00"},
		Exception{ExceptionDate: day("2025-01-20"), Type: ExceptionReschedule, NewDate: ptr(day("2025-01-21"))},
	))

	res, err := r.Resolve(context.Background(), weeklyDefinition(), day("2025-01-13"))
	require.NoError(t, err)
	assert.True(t, res.Rescheduled)
	assert.Equal(t, day("2025-01-15"), res.Date)
	assert.Equal(t, day("2025-01-13"), res.Candidate)
	assert.Equal(t, "14:00", res.StartTime)

	res, err = r.Resolve(context.Background(), weeklyDefinition(), day("2025-01-20"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-01-21"), res.Date)
	assert.Equal(t, "10:30", res.StartTime)
}

func TestResolveStopsAtEndDate(t *testing.T) {
	d := weeklyDefinition()
	d.EndDate = ptr(day("2025-01-15"))
	r := NewExceptionResolver(exceptionsByDate(
		Exception{ExceptionDate: day("2025-01-13"), Type: ExceptionSkip},
	))

	res, err := r.Resolve(context.Background(), d, day("2025-01-13"))
	require.NoError(t, err)
	assert.False(t, res.Materialize)
	assert.Equal(t, day("2025-01-20"), res.Candidate)
}

func TestResolveErrors(t *testing.T) {
	d := weeklyDefinition()

	everything := lookupFunc(func(date time.Time) (*Exception, error) {
		return &Exception{ExceptionDate: date, Type: ExceptionSkip}, nil
	})
	_, err := NewExceptionResolver(everything).Resolve(context.Background(), d, day("2025-01-13"))
	assert.ErrorIs(t, err, ErrSkipChainTooLong)

	storeErr := errors.New("connection refused")
	failing := lookupFunc(func(time.Time) (*Exception, error) { return nil, storeErr })
	_, err = NewExceptionResolver(failing).Resolve(context.Background(), d, day("2025-01-13"))
	assert.ErrorIs(t, err, storeErr)
}
