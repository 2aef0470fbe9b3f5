package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zapis/internal/errs"
	"zapis/internal/models"
)

func TestToInstant(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	got, err := ToInstant(date, 9*60+30, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, loc), got)

	_, err = ToInstant(date, -1, loc)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = ToInstant(date, MinutesPerDay+1, loc)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = ToInstant(time.Time{}, 600, loc)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestToInstant_DSTSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Clocks jump 02:00 -> 03:00 on 2026-03-29. Wall-clock 09:00 must
	// still land on 09:00 local, one absolute hour "earlier" than a
	// fixed-offset conversion would produce.
	date := time.Date(2026, 3, 29, 0, 0, 0, 0, loc)
	got, err := ToInstant(date, 9*60, loc)
	require.NoError(t, err)

	assert.Equal(t, 9, got.In(loc).Hour())
	assert.Equal(t, "CEST", got.In(loc).Format("MST"))

	before, err := ToInstant(time.Date(2026, 3, 28, 0, 0, 0, 0, loc), 9*60, loc)
	require.NoError(t, err)
	// Same wall-clock on consecutive days is 23 real hours apart.
	assert.Equal(t, 23*time.Hour, got.Sub(before))
}

func TestDayBounds(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	entry := &models.WeeklyScheduleEntry{
		ProviderID:   "p1",
		Weekday:      int(date.Weekday()),
		StartMinutes: 9 * 60,
		EndMinutes:   17 * 60,
	}

	window, err := DayBounds(entry, date, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, loc), window.Start)
	assert.Equal(t, time.Date(2026, 3, 10, 17, 0, 0, 0, loc), window.End)

	closed, err := DayBounds(&models.WeeklyScheduleEntry{IsClosed: true}, date, loc)
	require.NoError(t, err)
	assert.True(t, closed.IsZero())

	missing, err := DayBounds(nil, date, loc)
	require.NoError(t, err)
	assert.True(t, missing.IsZero())

	_, err = DayBounds(&models.WeeklyScheduleEntry{StartMinutes: 600, EndMinutes: 600}, date, loc)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
