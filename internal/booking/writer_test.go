package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zapis/internal/errs"
	"zapis/internal/events"
	"zapis/internal/models"
)

type fakeCatalog struct {
	durations map[string]int
}

func (c *fakeCatalog) TotalDuration(_ context.Context, serviceIDs []string) (int, error) {
	total := 0
	for _, id := range serviceIDs {
		d, ok := c.durations[id]
		if !ok {
			return 0, errs.NotFoundf("service %s", id)
		}
		total += d
	}
	return total, nil
}

// fakeLedger mirrors the storage contract: the overlap check and the
// insert happen under one lock, as the SQL transaction does.
type fakeLedger struct {
	mu       sync.Mutex
	bookings []models.Booking
}

func (l *fakeLedger) CreatePending(_ context.Context, b *models.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.bookings {
		if existing.ProviderID == b.ProviderID && existing.IsBlocking() && existing.Overlaps(b.StartAt, b.EndAt) {
			return errs.Conflictf("slot taken")
		}
	}
	b.Status = models.StatusPending
	l.bookings = append(l.bookings, *b)
	return nil
}

var start = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestWriter(ledger *fakeLedger, bus *events.Bus) *Writer {
	catalog := &fakeCatalog{durations: map[string]int{"cut": 30, "color": 60}}
	return NewWriter(catalog, ledger, bus, nil)
}

func TestCreatePending(t *testing.T) {
	ledger := &fakeLedger{}
	bus := events.NewBus()
	var published []events.Event
	bus.Subscribe(events.TypeBookingCreated, func(e events.Event) {
		published = append(published, e)
	})

	w := newTestWriter(ledger, bus)

	id, err := w.CreatePending(context.Background(), Request{
		ProviderID: "p1",
		ServiceIDs: []string{"cut", "color"},
		StartAt:    start,
		Client:     models.ClientInfo{Name: "Ira", Phone: "+70000000000"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, ledger.bookings, 1)
	b := ledger.bookings[0]
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, start.Add(90*time.Minute), b.EndAt)

	require.Len(t, published, 1)
	assert.Equal(t, id, published[0].BookingID)
	assert.Equal(t, "p1", published[0].ProviderID)
}

func TestCreatePending_Validation(t *testing.T) {
	w := newTestWriter(&fakeLedger{}, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  Request
		kind error
	}{
		{"empty provider", Request{ServiceIDs: []string{"cut"}, StartAt: start, Client: models.ClientInfo{Name: "A"}}, errs.ErrInvalidInput},
		{"no services", Request{ProviderID: "p1", StartAt: start, Client: models.ClientInfo{Name: "A"}}, errs.ErrInvalidInput},
		{"zero start", Request{ProviderID: "p1", ServiceIDs: []string{"cut"}, Client: models.ClientInfo{Name: "A"}}, errs.ErrInvalidInput},
		{"no client name", Request{ProviderID: "p1", ServiceIDs: []string{"cut"}, StartAt: start}, errs.ErrInvalidInput},
		{"unknown service", Request{ProviderID: "p1", ServiceIDs: []string{"massage"}, StartAt: start, Client: models.ClientInfo{Name: "A"}}, errs.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.CreatePending(ctx, tc.req)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestCreatePending_Conflict(t *testing.T) {
	ledger := &fakeLedger{}
	w := newTestWriter(ledger, nil)
	ctx := context.Background()

	req := Request{
		ProviderID: "p1",
		ServiceIDs: []string{"cut"},
		StartAt:    start,
		Client:     models.ClientInfo{Name: "Ira"},
	}

	_, err := w.CreatePending(ctx, req)
	require.NoError(t, err)

	_, err = w.CreatePending(ctx, req)
	assert.ErrorIs(t, err, errs.ErrConflict)

	// A partially overlapping range is rejected too.
	req.StartAt = start.Add(15 * time.Minute)
	_, err = w.CreatePending(ctx, req)
	assert.ErrorIs(t, err, errs.ErrConflict)

	// An adjacent range is fine.
	req.StartAt = start.Add(30 * time.Minute)
	_, err = w.CreatePending(ctx, req)
	assert.NoError(t, err)
}

func TestCreatePending_ConcurrentIdenticalRequests(t *testing.T) {
	ledger := &fakeLedger{}
	w := newTestWriter(ledger, nil)

	req := Request{
		ProviderID: "p1",
		ServiceIDs: []string{"cut"},
		StartAt:    start,
		Client:     models.ClientInfo{Name: "Ira"},
	}

	const writers = 8
	results := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.CreatePending(context.Background(), req)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, conflicted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errs.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicted)
	assert.Len(t, ledger.bookings, 1)
}
