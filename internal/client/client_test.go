package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zapis/internal/errs"
	"zapis/internal/models"
)

func newAPIStub(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/availability":
			atomic.AddInt64(hits, 1)
			_ = json.NewEncoder(w).Encode(DayResult{
				Slots: []models.Slot{{StartMinutes: 9 * 60, EndMinutes: 9*60 + 30}},
			})
		case "/api/v1/availability/next":
			_ = json.NewEncoder(w).Encode(DayResult{Date: "2026-03-12"})
		case "/api/v1/bookings":
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "slot taken", "kind": "conflict",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_DayAvailability(t *testing.T) {
	var hits int64
	srv := newAPIStub(t, &hits)
	c := New(srv.URL, "")

	res, err := c.DayAvailability(context.Background(), "p1", "2026-03-10", []string{"cut"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", res.Date)
	assert.Len(t, res.Slots, 1)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))
}

func TestClient_RedisCacheShortCircuits(t *testing.T) {
	var hits int64
	srv := newAPIStub(t, &hits)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	c := New(srv.URL, "")
	c.UseRedisCache(rdb, 30*time.Second)
	ctx := context.Background()

	_, err := c.DayAvailability(ctx, "p1", "2026-03-10", []string{"cut"})
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt64(&hits))

	// Second identical query is served from Redis.
	res, err := c.DayAvailability(ctx, "p1", "2026-03-10", []string{"cut"})
	require.NoError(t, err)
	assert.Len(t, res.Slots, 1)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))

	// Expiry brings the network back.
	mr.FastForward(time.Minute)
	_, err = c.DayAvailability(ctx, "p1", "2026-03-10", []string{"cut"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&hits))
}

func TestClient_NextAvailableDay(t *testing.T) {
	var hits int64
	srv := newAPIStub(t, &hits)
	c := New(srv.URL, "")

	res, err := c.NextAvailableDay(context.Background(), "p1", "2026-03-10", []string{"cut"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-12", res.Date)
}

func TestClient_CreateBookingConflict(t *testing.T) {
	var hits int64
	srv := newAPIStub(t, &hits)
	c := New(srv.URL, "")

	_, err := c.CreateBooking(context.Background(), BookingRequest{
		ProviderID: "p1",
		ServiceIDs: []string{"cut"},
		StartAt:    time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Client:     models.ClientInfo{Name: "Ira"},
	})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestClient_Cancellation(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-blocked:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(blocked); srv.Close() })

	c := New(srv.URL, "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := c.DayAvailability(ctx, "p1", "2026-03-10", []string{"cut"})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request did not return")
	}
}
