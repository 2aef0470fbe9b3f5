package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"zapis/internal/errs"
	"zapis/internal/events"
	"zapis/internal/metrics"
	"zapis/internal/models"
)

// ServiceCatalog resolves a service set to its total duration.
type ServiceCatalog interface {
	TotalDuration(ctx context.Context, serviceIDs []string) (int, error)
}

// Ledger persists bookings. CreatePending must run the overlap check
// and the insert atomically and return errs.ErrConflict when the range
// is taken.
type Ledger interface {
	CreatePending(ctx context.Context, b *models.Booking) error
}

// Writer turns a chosen slot into a pending booking.
type Writer struct {
	catalog ServiceCatalog
	ledger  Ledger
	bus     *events.Bus
	log     *zerolog.Logger
}

// NewWriter constructs a booking writer. bus may be nil.
func NewWriter(catalog ServiceCatalog, ledger Ledger, bus *events.Bus, log *zerolog.Logger) *Writer {
	return &Writer{catalog: catalog, ledger: ledger, bus: bus, log: log}
}

// Request carries everything needed to place a booking. The slot list
// the caller read earlier is advisory; the ledger's overlap check at
// write time is authoritative.
type Request struct {
	ProviderID string
	ServiceIDs []string
	StartAt    time.Time
	Client     models.ClientInfo
}

// CreatePending validates the request, resolves its total duration and
// inserts a pending booking. Returns the new booking id, or
// errs.ErrConflict when the range was taken in the meantime.
func (w *Writer) CreatePending(ctx context.Context, req Request) (string, error) {
	if req.ProviderID == "" {
		return "", errs.InvalidInputf("empty provider id")
	}
	if len(req.ServiceIDs) == 0 {
		return "", errs.InvalidInputf("no services selected")
	}
	if req.StartAt.IsZero() {
		return "", errs.InvalidInputf("zero start time")
	}
	if req.Client.Name == "" {
		return "", errs.InvalidInputf("client name is required")
	}

	totalMin, err := w.catalog.TotalDuration(ctx, req.ServiceIDs)
	if err != nil {
		return "", fmt.Errorf("resolve duration: %w", err)
	}
	if totalMin <= 0 {
		return "", errs.InvalidInputf("total duration %d must be positive", totalMin)
	}

	b := &models.Booking{
		ID:         uuid.NewString(),
		ProviderID: req.ProviderID,
		ServiceIDs: req.ServiceIDs,
		StartAt:    req.StartAt,
		EndAt:      req.StartAt.Add(time.Duration(totalMin) * time.Minute),
		Client:     req.Client,
	}

	if err := w.ledger.CreatePending(ctx, b); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			metrics.IncBookingConflict()
			if w.log != nil {
				w.log.Info().
					Str("provider_id", req.ProviderID).
					Time("start_at", b.StartAt).
					Msg("booking rejected: slot taken")
			}
		}
		return "", err
	}

	metrics.IncBookingCreated()
	if w.log != nil {
		w.log.Info().
			Str("booking_id", b.ID).
			Str("provider_id", b.ProviderID).
			Time("start_at", b.StartAt).
			Time("end_at", b.EndAt).
			Msg("pending booking created")
	}
	if w.bus != nil {
		w.bus.Publish(events.Event{
			Type:       events.TypeBookingCreated,
			BookingID:  b.ID,
			ProviderID: b.ProviderID,
			StartAt:    b.StartAt,
			EndAt:      b.EndAt,
		})
	}
	return b.ID, nil
}
