// internal/models/profile.go
package models

import (
	"time"

	"github.com/google/uuid"

	"alert-notifier/internal/common/errors"
)

// Channel is a delivery transport.
type Channel string

const (
	ChannelWebhook Channel = "webhook"
	ChannelEmail   Channel = "email" // transport not rolled out yet
	ChannelSMS     Channel = "sms"   // transport not rolled out yet
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelWebhook, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

// NotificationPreference selects which alert classes a subscriber wants.
type NotificationPreference string

const (
	PreferenceCritical NotificationPreference = "critical" // theft only
	PreferenceStandard NotificationPreference = "standard" // suspicious or normal
	PreferenceAll      NotificationPreference = "all"
)

func (p NotificationPreference) Valid() bool {
	switch p {
	case PreferenceCritical, PreferenceStandard, PreferenceAll:
		return true
	}
	return false
}

// UserProfile binds an opaque external user id to a store, a preference and
// a preferred channel. At most one profile exists per (user, store) pair.
type UserProfile struct {
	ID                     uuid.UUID              `json:"id"`
	UserID                 uuid.UUID              `json:"user_id"`
	LocationID             string                 `json:"location_id"`
	NotificationPreference NotificationPreference `json:"notification_preference"`
	PreferredChannel       Channel                `json:"preferred_channel"`
	Created                time.Time              `json:"created"`
	Modified               time.Time              `json:"modified"`
}

// ShouldNotify decides whether this profile receives a notification for the
// alert. An unrecognized preference is an invalid-state error, never a
// silent default.
func (p *UserProfile) ShouldNotify(alert *Alert) (bool, error) {
	switch p.NotificationPreference {
	case PreferenceAll:
		return true, nil
	case PreferenceCritical:
		return alert.IsCritical(), nil
	case PreferenceStandard:
		return !alert.IsCritical(), nil
	default:
		return false, errors.NewInvalidPreferenceError(string(p.NotificationPreference))
	}
}
