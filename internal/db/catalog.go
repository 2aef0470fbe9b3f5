package db

import (
	"context"
	"database/sql"
	"fmt"

	"zapis/internal/errs"
	"zapis/internal/models"
)

// GetService returns a catalog service by id, nil when unknown.
func (db *DB) GetService(ctx context.Context, serviceID string) (*models.ServiceOffering, error) {
	var s models.ServiceOffering
	err := db.QueryRowContext(ctx,
		"SELECT id, name, duration_min, price_cents FROM services WHERE id = ?",
		serviceID,
	).Scan(&s.ID, &s.Name, &s.DurationMin, &s.PriceCents)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &s, nil
}

// CreateService inserts a catalog service.
func (db *DB) CreateService(ctx context.Context, s *models.ServiceOffering) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO services (id, name, duration_min, price_cents) VALUES (?, ?, ?, ?)",
		s.ID, s.Name, s.DurationMin, s.PriceCents,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// TotalDuration sums the durations of the given services in minutes.
// Any unknown id fails the whole lookup with ErrNotFound.
func (db *DB) TotalDuration(ctx context.Context, serviceIDs []string) (int, error) {
	if len(serviceIDs) == 0 {
		return 0, errs.InvalidInputf("no service ids")
	}
	total := 0
	for _, id := range serviceIDs {
		svc, err := db.GetService(ctx, id)
		if err != nil {
			return 0, err
		}
		if svc == nil {
			return 0, errs.NotFoundf("service %s", id)
		}
		total += svc.DurationMin
	}
	return total, nil
}
