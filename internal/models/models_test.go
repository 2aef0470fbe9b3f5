package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestBooking_Overlaps(t *testing.T) {
	b := Booking{StartAt: at(10, 0), EndAt: at(10, 30)}

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		overlap bool
	}{
		{"request before booking", at(9, 0), at(10, 0), false},
		{"request after booking", at(10, 30), at(11, 0), false},
		{"request starts before, ends inside", at(9, 45), at(10, 15), true},
		{"request starts inside, ends after", at(10, 15), at(11, 0), true},
		{"request contained in booking", at(10, 10), at(10, 20), true},
		{"request contains booking", at(9, 0), at(12, 0), true},
		{"identical range", at(10, 0), at(10, 30), true},
		{"touching end is exclusive", at(10, 30), at(10, 40), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlap, b.Overlaps(tt.start, tt.end))
		})
	}
}

func TestBooking_IsBlocking(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).IsBlocking())
	assert.True(t, (&Booking{Status: StatusConfirmed}).IsBlocking())
	assert.False(t, (&Booking{Status: StatusCanceled}).IsBlocking())
	assert.False(t, (&Booking{Status: StatusDone}).IsBlocking())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCanceled))
	assert.True(t, CanTransition(StatusConfirmed, StatusDone))
	assert.True(t, CanTransition(StatusConfirmed, StatusCanceled))

	assert.False(t, CanTransition(StatusPending, StatusDone))
	assert.False(t, CanTransition(StatusCanceled, StatusPending))
	assert.False(t, CanTransition(StatusDone, StatusConfirmed))
}
