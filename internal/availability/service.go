package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"zapis/internal/errs"
	"zapis/internal/metrics"
	"zapis/internal/models"
	"zapis/internal/schedule"
	"zapis/internal/slots"
)

// ProviderStore resolves provider ids.
type ProviderStore interface {
	GetProvider(ctx context.Context, providerID string) (*models.Provider, error)
}

// WeeklyScheduleStore reads recurring weekly hours.
type WeeklyScheduleStore interface {
	GetScheduleEntry(ctx context.Context, providerID string, weekday int) (*models.WeeklyScheduleEntry, error)
}

// TimeOffStore reads per-date exception blocks.
type TimeOffStore interface {
	GetTimeOffBlocks(ctx context.Context, providerID string, date time.Time) ([]models.TimeOffBlock, error)
}

// BookingLedger reads blocking bookings intersecting a range.
type BookingLedger interface {
	BlockingBookings(ctx context.Context, providerID string, start, end time.Time) ([]models.Booking, error)
}

// Stores bundles the read-side data sources.
type Stores struct {
	Providers ProviderStore
	Schedules WeeklyScheduleStore
	TimeOff   TimeOffStore
	Ledger    BookingLedger
}

// Service computes bookable slots for one provider and day.
type Service struct {
	stores   Stores
	gen      *slots.Generator
	loc      *time.Location
	leadTime time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

// Options tunes the service; zero values fall back to defaults.
type Options struct {
	StepMinutes     int
	LeadTimeMinutes int
	Now             func() time.Time // test hook
}

// DefaultLeadTimeMinutes is the same-day minimum notice.
const DefaultLeadTimeMinutes = 60

// NewService constructs an availability service over the given stores.
func NewService(stores Stores, loc *time.Location, opts Options, log *zerolog.Logger) *Service {
	leadTime := opts.LeadTimeMinutes
	if leadTime <= 0 {
		leadTime = DefaultLeadTimeMinutes
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		stores:   stores,
		gen:      slots.NewGenerator(opts.StepMinutes, loc),
		loc:      loc,
		leadTime: time.Duration(leadTime) * time.Minute,
		now:      now,
		log:      log,
	}
}

// Result is one day's computed availability. SplitRequired signals that
// the requested duration exceeds the provider's whole working window
// that day, so no single booking can ever fit and the client should
// offer booking the services separately.
type Result struct {
	Date          time.Time     `json:"date"`
	Slots         []models.Slot `json:"slots"`
	SplitRequired bool          `json:"split_required"`
}

// DayAvailability computes the bookable slots for one provider and
// date. A closed or unconfigured day is an empty result, not an error.
func (s *Service) DayAvailability(ctx context.Context, providerID string, date time.Time, durationMin int) (Result, error) {
	res := Result{Date: date}

	if providerID == "" {
		return res, errs.InvalidInputf("empty provider id")
	}
	if durationMin <= 0 {
		return res, errs.InvalidInputf("duration %d must be positive", durationMin)
	}
	if date.IsZero() {
		return res, errs.InvalidInputf("zero date")
	}

	provider, err := s.stores.Providers.GetProvider(ctx, providerID)
	if err != nil {
		return res, fmt.Errorf("resolve provider: %w", err)
	}
	if provider == nil || !provider.IsActive {
		return res, errs.NotFoundf("provider %s", providerID)
	}

	entry, err := s.stores.Schedules.GetScheduleEntry(ctx, providerID, int(date.In(s.loc).Weekday()))
	if err != nil {
		return res, fmt.Errorf("load schedule: %w", err)
	}
	window, err := schedule.DayBounds(entry, date, s.loc)
	if err != nil {
		return res, err
	}
	if window.IsZero() {
		// Closed day is a normal empty outcome.
		metrics.ObserveAvailabilityQuery(0)
		return res, nil
	}

	duration := time.Duration(durationMin) * time.Minute
	res.SplitRequired = duration > window.End.Sub(window.Start)

	blocks, err := s.blockingIntervals(ctx, providerID, date, window)
	if err != nil {
		return res, err
	}

	free := schedule.FreeWindows(window, schedule.Merge(blocks))
	res.Slots = s.applyLeadTime(s.gen.Generate(free, duration), date)

	metrics.ObserveAvailabilityQuery(len(res.Slots))
	if s.log != nil {
		s.log.Debug().
			Str("provider_id", providerID).
			Str("date", date.In(s.loc).Format("2006-01-02")).
			Int("duration_min", durationMin).
			Int("slots", len(res.Slots)).
			Msg("day availability computed")
	}
	return res, nil
}

// DaySlots is DayAvailability reduced to the slot list.
func (s *Service) DaySlots(ctx context.Context, providerID string, date time.Time, durationMin int) ([]models.Slot, error) {
	res, err := s.DayAvailability(ctx, providerID, date, durationMin)
	if err != nil {
		return nil, err
	}
	return res.Slots, nil
}

func (s *Service) blockingIntervals(ctx context.Context, providerID string, date time.Time, window schedule.Interval) ([]schedule.Interval, error) {
	timeOff, err := s.stores.TimeOff.GetTimeOffBlocks(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("load time off: %w", err)
	}

	intervals := make([]schedule.Interval, 0, len(timeOff))
	for _, block := range timeOff {
		start, err := schedule.ToInstant(date, block.StartMinutes, s.loc)
		if err != nil {
			return nil, err
		}
		end, err := schedule.ToInstant(date, block.EndMinutes, s.loc)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, schedule.Interval{Start: start, End: end})
	}

	bookings, err := s.stores.Ledger.BlockingBookings(ctx, providerID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	for _, b := range bookings {
		intervals = append(intervals, schedule.Interval{Start: b.StartAt, End: b.EndAt})
	}
	return intervals, nil
}

// applyLeadTime drops same-day slots starting before now plus the
// minimum notice. Other days pass through untouched.
func (s *Service) applyLeadTime(in []models.Slot, date time.Time) []models.Slot {
	now := s.now().In(s.loc)
	local := date.In(s.loc)
	if now.Year() != local.Year() || now.YearDay() != local.YearDay() {
		return in
	}

	cutoff := now.Add(s.leadTime)
	out := in[:0]
	for _, slot := range in {
		if !slot.StartAt.Before(cutoff) {
			out = append(out, slot)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
