package models

import "time"

// Booking statuses. Only pending and confirmed bookings block a
// provider's calendar; canceled and done never do.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
	StatusDone      = "done"
)

// Provider is a bookable staff member.
type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceOffering maps a catalog service to its duration and price.
// Owned by the catalog; read-only here.
type ServiceOffering struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DurationMin int    `json:"duration_min"`
	PriceCents  int64  `json:"price_cents"`
}

// WeeklyScheduleEntry holds a provider's recurring hours for one
// weekday (time.Weekday numbering, Sunday = 0). Start and end are
// wall-clock minutes since midnight; if not closed, Start < End.
type WeeklyScheduleEntry struct {
	ProviderID   string `json:"provider_id"`
	Weekday      int    `json:"weekday"`
	IsClosed     bool   `json:"is_closed"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
}

// TimeOffBlock removes availability on one specific date. Start and
// end are wall-clock minutes since midnight, Start < End.
type TimeOffBlock struct {
	ProviderID   string    `json:"provider_id"`
	Date         time.Time `json:"date"`
	StartMinutes int       `json:"start_minutes"`
	EndMinutes   int       `json:"end_minutes"`
	Reason       string    `json:"reason,omitempty"`
}

// ClientInfo is the contact data captured with a booking.
type ClientInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking is a ledger record over [StartAt, EndAt).
type Booking struct {
	ID         string     `json:"id"`
	ProviderID string     `json:"provider_id"`
	ServiceIDs []string   `json:"service_ids"`
	StartAt    time.Time  `json:"start_at"`
	EndAt      time.Time  `json:"end_at"`
	Status     string     `json:"status"`
	Client     ClientInfo `json:"client"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsBlocking reports whether the booking occupies calendar time.
func (b *Booking) IsBlocking() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Overlaps reports whether the booking intersects [start, end).
// Half-open semantics: touching ranges do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && start.Before(b.EndAt)
}

// CanTransition reports whether a status change is legal. The engine
// only creates pending bookings; confirmation and cancellation belong
// to the payment/admin flow.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCanceled
	case StatusConfirmed:
		return to == StatusCanceled || to == StatusDone
	default:
		return false
	}
}

// Slot is a candidate bookable start of a fixed duration. Instants are
// absolute; the minute fields are wall-clock values for display.
type Slot struct {
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	StartMinutes int       `json:"start_minutes"`
	EndMinutes   int       `json:"end_minutes"`
}
