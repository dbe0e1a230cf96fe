// internal/repository/profiles.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "alert-notifier/internal/common/errors"
	"alert-notifier/internal/models"
)

// ErrDuplicateProfile signals a second profile for the same (user, store)
// pair; the uniqueness constraint is the source of truth.
var ErrDuplicateProfile = errors.New("profile already exists for user and store")

// Profiles persists user subscription profiles.
type Profiles struct {
	db *sql.DB
}

func NewProfiles(db *sql.DB) *Profiles {
	return &Profiles{db: db}
}

type CreateProfileParams struct {
	UserID                 uuid.UUID
	LocationID             string
	NotificationPreference models.NotificationPreference
	PreferredChannel       models.Channel
}

// Create inserts a profile. The store must pre-exist: a missing store
// surfaces as errors.ErrNotFound via the foreign key.
func (r *Profiles) Create(ctx context.Context, p CreateProfileParams) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_profiles (id, user_id, location_id, notification_preference, preferred_channel)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, location_id, notification_preference, preferred_channel, created, modified`,
		uuid.New(), p.UserID, p.LocationID, string(p.NotificationPreference), string(p.PreferredChannel),
	).Scan(&profile.ID, &profile.UserID, &profile.LocationID,
		&profile.NotificationPreference, &profile.PreferredChannel,
		&profile.Created, &profile.Modified)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, ErrDuplicateProfile
			case "foreign_key_violation":
				return nil, fmt.Errorf("store %s: %w", p.LocationID, apperrors.ErrNotFound)
			}
		}
		return nil, fmt.Errorf("create profile for user %s: %w", p.UserID, err)
	}
	return &profile, nil
}

// ListByStore returns every profile subscribed to a store.
func (r *Profiles) ListByStore(ctx context.Context, locationID string) ([]models.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, location_id, notification_preference, preferred_channel, created, modified
		FROM user_profiles WHERE location_id = $1
		ORDER BY created`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles for store %s: %w", locationID, err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.LocationID,
			&p.NotificationPreference, &p.PreferredChannel,
			&p.Created, &p.Modified); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}
