package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zapis/internal/models"
)

// DefaultScheduleConfig provides default working hours for seeding.
var DefaultScheduleConfig = struct {
	StartMinutes int
	EndMinutes   int
}{
	StartMinutes: 9 * 60,
	EndMinutes:   19 * 60,
}

// GetProvider returns a provider by id, nil when unknown.
func (db *DB) GetProvider(ctx context.Context, providerID string) (*models.Provider, error) {
	var p models.Provider
	err := db.QueryRowContext(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM providers WHERE id = ?`,
		providerID,
	).Scan(&p.ID, &p.Name, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return &p, nil
}

// CreateProvider inserts a provider record.
func (db *DB) CreateProvider(ctx context.Context, p *models.Provider) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO providers (id, name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

// GetScheduleEntry returns the weekly schedule row for a weekday, nil
// when none is configured (treated as closed by the caller).
func (db *DB) GetScheduleEntry(ctx context.Context, providerID string, weekday int) (*models.WeeklyScheduleEntry, error) {
	var e models.WeeklyScheduleEntry
	err := db.QueryRowContext(ctx, `
		SELECT provider_id, weekday, is_closed, start_minutes, end_minutes
		FROM weekly_schedules
		WHERE provider_id = ? AND weekday = ?
		LIMIT 1`,
		providerID, weekday,
	).Scan(&e.ProviderID, &e.Weekday, &e.IsClosed, &e.StartMinutes, &e.EndMinutes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule entry: %w", err)
	}
	return &e, nil
}

// UpsertScheduleEntry creates or updates a provider's hours for one
// weekday.
func (db *DB) UpsertScheduleEntry(ctx context.Context, e *models.WeeklyScheduleEntry) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO weekly_schedules (
			provider_id, weekday, is_closed, start_minutes, end_minutes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider_id, weekday) DO UPDATE SET
			is_closed = excluded.is_closed,
			start_minutes = excluded.start_minutes,
			end_minutes = excluded.end_minutes,
			updated_at = excluded.updated_at`,
		e.ProviderID, e.Weekday, e.IsClosed, e.StartMinutes, e.EndMinutes, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule entry: %w", err)
	}
	return nil
}

// EnsureDefaultSchedule fills in default hours for any weekday the
// provider has no row for. Existing rows are left untouched.
func (db *DB) EnsureDefaultSchedule(ctx context.Context, providerID string) error {
	for weekday := 0; weekday <= 6; weekday++ {
		existing, err := db.GetScheduleEntry(ctx, providerID, weekday)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		entry := &models.WeeklyScheduleEntry{
			ProviderID:   providerID,
			Weekday:      weekday,
			IsClosed:     weekday == int(time.Sunday),
			StartMinutes: DefaultScheduleConfig.StartMinutes,
			EndMinutes:   DefaultScheduleConfig.EndMinutes,
		}
		if err := db.UpsertScheduleEntry(ctx, entry); err != nil {
			return fmt.Errorf("seed schedule for provider %s day %d: %w", providerID, weekday, err)
		}
	}
	return nil
}

// GetTimeOffBlocks returns all exception blocks for a provider on one
// date, ordered by start.
func (db *DB) GetTimeOffBlocks(ctx context.Context, providerID string, date time.Time) ([]models.TimeOffBlock, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT provider_id, date, start_minutes, end_minutes, COALESCE(reason, '')
		FROM time_off_blocks
		WHERE provider_id = ? AND date(date) = date(?)
		ORDER BY start_minutes`,
		providerID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("get time off blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.TimeOffBlock
	for rows.Next() {
		var b models.TimeOffBlock
		if err := rows.Scan(&b.ProviderID, &b.Date, &b.StartMinutes, &b.EndMinutes, &b.Reason); err != nil {
			return nil, fmt.Errorf("scan time off block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// CreateTimeOffBlock inserts an exception block for a specific date.
func (db *DB) CreateTimeOffBlock(ctx context.Context, b *models.TimeOffBlock) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO time_off_blocks (provider_id, date, start_minutes, end_minutes, reason)
		VALUES (?, ?, ?, ?, ?)`,
		b.ProviderID, b.Date, b.StartMinutes, b.EndMinutes, b.Reason,
	)
	if err != nil {
		return fmt.Errorf("create time off block: %w", err)
	}
	return nil
}

// DeleteTimeOffBlocks removes all exception blocks for a date.
func (db *DB) DeleteTimeOffBlocks(ctx context.Context, providerID string, date time.Time) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM time_off_blocks WHERE provider_id = ? AND date(date) = date(?)",
		providerID, date,
	)
	if err != nil {
		return fmt.Errorf("delete time off blocks: %w", err)
	}
	return nil
}
