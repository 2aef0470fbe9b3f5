package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"zapis/internal/audit"
	"zapis/internal/availability"
	"zapis/internal/booking"
	"zapis/internal/errs"
	"zapis/internal/metrics"
	"zapis/internal/models"
)

// Catalog resolves service ids to a total duration.
type Catalog interface {
	TotalDuration(ctx context.Context, serviceIDs []string) (int, error)
}

// Server exposes the availability and booking endpoints.
type Server struct {
	svc      *availability.Service
	scanner  *availability.Scanner
	writer   *booking.Writer
	catalog  Catalog
	exporter *audit.Exporter
	loc      *time.Location
	apiKey   string
	limiter  *rate.Limiter
	log      *zerolog.Logger
}

// Options configures the server surface.
type Options struct {
	APIKey    string
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
}

// NewServer wires handlers over the scheduling core.
func NewServer(
	svc *availability.Service,
	scanner *availability.Scanner,
	writer *booking.Writer,
	catalog Catalog,
	exporter *audit.Exporter,
	loc *time.Location,
	opts Options,
	log *zerolog.Logger,
) *Server {
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &Server{
		svc:      svc,
		scanner:  scanner,
		writer:   writer,
		catalog:  catalog,
		exporter: exporter,
		loc:      loc,
		apiKey:   opts.APIKey,
		limiter:  limiter,
		log:      log,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/availability", s.guard(s.handleAvailability))
	mux.HandleFunc("/api/v1/availability/next", s.guard(s.handleNextAvailable))
	mux.HandleFunc("/api/v1/bookings", s.guard(s.handleCreateBooking))
	mux.HandleFunc("/api/v1/bookings/export", s.guard(s.handleExport))
	return mux
}

// guard applies the rate limit and API key check.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next(w, r)
	}
}

// SlotResponse is a slot in API responses.
type SlotResponse struct {
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	StartMinutes int       `json:"start_minutes"`
	EndMinutes   int       `json:"end_minutes"`
}

// AvailabilityResponse is the payload for GET /api/v1/availability.
type AvailabilityResponse struct {
	Slots         []SlotResponse `json:"slots"`
	SplitRequired bool           `json:"split_required"`
}

// NextAvailableResponse is the payload for GET /api/v1/availability/next.
type NextAvailableResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

// BookingRequest is the body for POST /api/v1/bookings.
type BookingRequest struct {
	ProviderID string            `json:"provider_id"`
	ServiceIDs []string          `json:"service_ids"`
	StartAt    time.Time         `json:"start_at"`
	Client     models.ClientInfo `json:"client"`
}

// BookingResponse is the payload for POST /api/v1/bookings.
type BookingResponse struct {
	BookingID string `json:"booking_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// handleAvailability computes one day's bookable slots.
// GET /api/v1/availability?provider_id=...&date=YYYY-MM-DD&service_ids=a,b
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	providerID := r.URL.Query().Get("provider_id")
	serviceIDs := splitIDs(r.URL.Query().Get("service_ids"))

	date, err := s.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	durationMin, err := s.resolveDuration(r.Context(), serviceIDs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	res, err := s.svc.DayAvailability(r.Context(), providerID, date, durationMin)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		Slots:         toSlotResponses(res.Slots),
		SplitRequired: res.SplitRequired,
	})
}

// handleNextAvailable scans forward for the first day with openings.
// GET /api/v1/availability/next?provider_id=...&service_ids=a,b&from=YYYY-MM-DD
func (s *Server) handleNextAvailable(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability_next")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	providerID := r.URL.Query().Get("provider_id")
	serviceIDs := splitIDs(r.URL.Query().Get("service_ids"))

	from := time.Now().In(s.loc)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := s.parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.loc)

	durationMin, err := s.resolveDuration(r.Context(), serviceIDs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	res, err := s.scanner.FirstAvailableDay(r.Context(), providerID, durationMin, from)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NextAvailableResponse{
		Date:  res.Date.In(s.loc).Format("2006-01-02"),
		Slots: toSlotResponses(res.Slots),
	})
}

// handleCreateBooking turns a chosen slot into a pending booking.
// POST /api/v1/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req BookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, BookingResponse{Error: "invalid JSON body", Kind: "invalid_input"})
		return
	}

	id, err := s.writer.CreatePending(r.Context(), booking.Request{
		ProviderID: req.ProviderID,
		ServiceIDs: req.ServiceIDs,
		StartAt:    req.StartAt,
		Client:     req.Client,
	})
	if err != nil {
		status, kind := statusOf(err)
		if s.log != nil && status >= http.StatusInternalServerError {
			s.log.Error().Err(err).Str("provider_id", req.ProviderID).Msg("create booking failed")
		}
		writeJSON(w, status, BookingResponse{Error: publicMessage(err, kind), Kind: kind})
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{BookingID: id})
}

// handleExport streams the booking ledger as an xlsx report.
// GET /api/v1/bookings/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_bookings")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, err := s.parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := s.parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "from must be before to")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audit.Filename(from)))
	if err := s.exporter.Export(r.Context(), w, from, to); err != nil {
		if s.log != nil {
			s.log.Error().Err(err).Msg("ledger export failed")
		}
	}
}

func (s *Server) parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	return time.ParseInLocation("2006-01-02", raw, s.loc)
}

func (s *Server) resolveDuration(ctx context.Context, serviceIDs []string) (int, error) {
	if len(serviceIDs) == 0 {
		return 0, errs.InvalidInputf("service_ids is required")
	}
	return s.catalog.TotalDuration(ctx, serviceIDs)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status, kind := statusOf(err)
	if s.log != nil && status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": publicMessage(err, kind), "kind": kind})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errs.ErrTransient):
		return http.StatusServiceUnavailable, "transient"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// publicMessage keeps storage details out of client-facing payloads.
func publicMessage(err error, kind string) string {
	if kind == "internal" || kind == "transient" {
		return "temporary failure, please retry"
	}
	return err.Error()
}

func toSlotResponses(in []models.Slot) []SlotResponse {
	out := make([]SlotResponse, len(in))
	for i, s := range in {
		out[i] = SlotResponse{
			StartAt:      s.StartAt,
			EndAt:        s.EndAt,
			StartMinutes: s.StartMinutes,
			EndMinutes:   s.EndMinutes,
		}
	}
	return out
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
