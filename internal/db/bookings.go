package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"zapis/internal/errs"
	"zapis/internal/models"
)

// BlockingBookings returns pending or confirmed bookings for a provider
// intersecting [start, end), ordered by start.
func (db *DB) BlockingBookings(ctx context.Context, providerID string, start, end time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, provider_id, service_ids, start_at, end_at, status,
		       COALESCE(client_name, ''), COALESCE(client_email, ''), COALESCE(client_phone, ''),
		       created_at, updated_at
		FROM bookings
		WHERE provider_id = ?
		  AND status IN ('pending', 'confirmed')
		  AND start_at < ? AND end_at > ?
		ORDER BY start_at`,
		providerID, end, start,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocking bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CreatePending runs the authoritative overlap check and inserts a
// pending booking in one transaction. SQLite serializes writers, so
// two concurrent identical requests produce exactly one row; the other
// caller gets ErrConflict.
func (db *DB) CreatePending(ctx context.Context, b *models.Booking) error {
	serviceIDs, err := json.Marshal(b.ServiceIDs)
	if err != nil {
		return fmt.Errorf("marshal service ids: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var overlapping int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE provider_id = ?
		  AND status IN ('pending', 'confirmed')
		  AND start_at < ? AND end_at > ?`,
		b.ProviderID, b.EndAt, b.StartAt,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("overlap check: %w", err)
	}
	if overlapping > 0 {
		return errs.Conflictf("slot [%s, %s) already taken for provider %s",
			b.StartAt.Format(time.RFC3339), b.EndAt.Format(time.RFC3339), b.ProviderID)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, provider_id, service_ids, start_at, end_at, status,
			client_name, client_email, client_phone, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ProviderID, string(serviceIDs), b.StartAt, b.EndAt, models.StatusPending,
		b.Client.Name, b.Client.Email, b.Client.Phone, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	b.Status = models.StatusPending
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetBooking returns a booking by id, nil when unknown.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, provider_id, service_ids, start_at, end_at, status,
		       COALESCE(client_name, ''), COALESCE(client_email, ''), COALESCE(client_phone, ''),
		       created_at, updated_at
		FROM bookings WHERE id = ?`,
		id,
	)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatus transitions a booking's status. The engine itself never
// calls this; it serves the external confirmation/cancellation flow.
func (db *DB) UpdateStatus(ctx context.Context, id, status string) error {
	current, err := db.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return errs.NotFoundf("booking %s", id)
	}
	if !models.CanTransition(current.Status, status) {
		return errs.InvalidInputf("illegal transition %s -> %s for booking %s", current.Status, status, id)
	}
	_, err = db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// ListBookings returns all bookings in [from, to) across providers,
// ordered by start. Used by the ledger export.
func (db *DB) ListBookings(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, provider_id, service_ids, start_at, end_at, status,
		       COALESCE(client_name, ''), COALESCE(client_email, ''), COALESCE(client_phone, ''),
		       created_at, updated_at
		FROM bookings
		WHERE start_at >= ? AND start_at < ?
		ORDER BY start_at`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var serviceIDs string
	err := row.Scan(
		&b.ID, &b.ProviderID, &serviceIDs, &b.StartAt, &b.EndAt, &b.Status,
		&b.Client.Name, &b.Client.Email, &b.Client.Phone,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	if err := json.Unmarshal([]byte(serviceIDs), &b.ServiceIDs); err != nil {
		return nil, fmt.Errorf("unmarshal service ids: %w", err)
	}
	return &b, nil
}
