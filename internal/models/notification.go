// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus is the delivery state of one notification.
// pending is the initial state and is re-entered on every retry attempt;
// sent and failed are terminal.
type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

// Notification is the unit of delivery work: one (alert, profile, channel)
// triple. Fan-out keeps the triple unique by resetting an existing row to
// pending instead of inserting a duplicate.
type Notification struct {
	NotificationUUID uuid.UUID          `json:"notification_uuid"`
	AlertUUID        uuid.UUID          `json:"alert_uuid"`
	UserProfileID    uuid.UUID          `json:"user_profile_id"`
	Channel          Channel            `json:"channel"`
	Status           NotificationStatus `json:"status"`
	AttemptCount     int                `json:"attempt_count"`
	LastAttemptAt    *time.Time         `json:"last_attempt_at,omitempty"`
	ResponseData     *string            `json:"response_data,omitempty"`
	Created          time.Time          `json:"created"`
	Modified         time.Time          `json:"modified"`
}

// IsSent reports whether the notification already reached its success
// terminal state; dispatch short-circuits on it.
func (n *Notification) IsSent() bool {
	return n.Status == StatusSent
}

// NotificationDetail is a notification joined with the rows the outgoing
// payload is built from.
type NotificationDetail struct {
	Notification Notification
	Alert        Alert
	Store        Store
	Profile      UserProfile
}

// BuildPayload assembles the outgoing webhook payload from the joined
// alert, store and profile data. UUIDs travel as strings.
func (d *NotificationDetail) BuildPayload() map[string]interface{} {
	return map[string]interface{}{
		"url":            d.Alert.URL,
		"alert_uuid":     d.Alert.AlertUUID.String(),
		"location":       d.Store.LocationID,
		"label":          string(d.Alert.Label),
		"target_user_id": d.Profile.UserID.String(),
	}
}
