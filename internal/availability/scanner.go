package availability

import (
	"context"
	"time"
)

// DefaultHorizonDays bounds the forward scan; the horizon exists to
// guarantee termination and a bounded worst-case query count.
const DefaultHorizonDays = 60

// Scanner walks forward day by day looking for the first day with at
// least one bookable slot.
type Scanner struct {
	svc     *Service
	horizon int
}

// NewScanner wraps a Service with a bounded forward scan. horizonDays
// <= 0 falls back to the default horizon.
func NewScanner(svc *Service, horizonDays int) *Scanner {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Scanner{svc: svc, horizon: horizonDays}
}

// FirstAvailableDay returns the first day at or after from with a
// non-empty slot list. An exhausted horizon returns from with empty
// slots and no error: "nothing in range" is an expected outcome.
func (sc *Scanner) FirstAvailableDay(ctx context.Context, providerID string, durationMin int, from time.Time) (Result, error) {
	for i := 0; i < sc.horizon; i++ {
		date := from.AddDate(0, 0, i)
		res, err := sc.svc.DayAvailability(ctx, providerID, date, durationMin)
		if err != nil {
			return Result{Date: from}, err
		}
		if len(res.Slots) > 0 {
			return res, nil
		}
		if err := ctx.Err(); err != nil {
			return Result{Date: from}, err
		}
	}
	return Result{Date: from}, nil
}
