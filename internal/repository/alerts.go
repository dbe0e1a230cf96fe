// internal/repository/alerts.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/models"
)

// Alerts persists stores and alerts. Alert ingestion is the only multi-row
// transaction in the system: the store get-or-create and the alert upsert
// commit together so a fan-out never sees a half-written alert.
type Alerts struct {
	db *sql.DB
}

func NewAlerts(db *sql.DB) *Alerts {
	return &Alerts{db: db}
}

// UpsertAlertParams carries the validated ingestion payload.
type UpsertAlertParams struct {
	AlertUUID   uuid.UUID
	URL         string
	LocationID  string
	Label       models.AlertLabel
	TimeSpotted time.Time
}

// Upsert creates or updates the alert keyed by its external UUID, creating
// the store first if it does not exist. Store auto-creation is deliberate:
// the alert source does not pre-provision stores.
func (r *Alerts) Upsert(ctx context.Context, p UpsertAlertParams) (*models.Alert, *models.Store, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin alert upsert: %w", err)
	}
	defer tx.Rollback()

	var store models.Store
	err = tx.QueryRowContext(ctx, `
		INSERT INTO stores (location_id, name)
		VALUES ($1, $1)
		ON CONFLICT (location_id) DO UPDATE SET location_id = EXCLUDED.location_id
		RETURNING location_id, name, created, modified`,
		p.LocationID,
	).Scan(&store.LocationID, &store.Name, &store.Created, &store.Modified)
	if err != nil {
		return nil, nil, fmt.Errorf("upsert store %s: %w", p.LocationID, err)
	}

	var alert models.Alert
	err = tx.QueryRowContext(ctx, `
		INSERT INTO alerts (alert_uuid, url, location_id, label, time_spotted)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (alert_uuid) DO UPDATE SET
			url = EXCLUDED.url,
			location_id = EXCLUDED.location_id,
			label = EXCLUDED.label,
			time_spotted = EXCLUDED.time_spotted,
			modified = now()
		RETURNING alert_uuid, url, location_id, label, time_spotted, created, modified`,
		p.AlertUUID, p.URL, p.LocationID, string(p.Label), p.TimeSpotted,
	).Scan(&alert.AlertUUID, &alert.URL, &alert.LocationID, &alert.Label,
		&alert.TimeSpotted, &alert.Created, &alert.Modified)
	if err != nil {
		return nil, nil, fmt.Errorf("upsert alert %s: %w", p.AlertUUID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit alert upsert: %w", err)
	}

	return &alert, &store, nil
}

// GetByUUID resolves one alert; errors.ErrNotFound when it does not exist.
func (r *Alerts) GetByUUID(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.QueryRowContext(ctx, `
		SELECT alert_uuid, url, location_id, label, time_spotted, created, modified
		FROM alerts WHERE alert_uuid = $1`,
		alertUUID,
	).Scan(&alert.AlertUUID, &alert.URL, &alert.LocationID, &alert.Label,
		&alert.TimeSpotted, &alert.Created, &alert.Modified)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert %s: %w", alertUUID, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get alert %s: %w", alertUUID, err)
	}
	return &alert, nil
}

// GetStore resolves one store; errors.ErrNotFound when it does not exist.
func (r *Alerts) GetStore(ctx context.Context, locationID string) (*models.Store, error) {
	var store models.Store
	err := r.db.QueryRowContext(ctx, `
		SELECT location_id, name, created, modified
		FROM stores WHERE location_id = $1`,
		locationID,
	).Scan(&store.LocationID, &store.Name, &store.Created, &store.Modified)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store %s: %w", locationID, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get store %s: %w", locationID, err)
	}
	return &store, nil
}
