// internal/models/alert.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertLabel classifies a detection event.
type AlertLabel string

const (
	LabelTheft      AlertLabel = "theft"
	LabelSuspicious AlertLabel = "suspicious"
	LabelNormal     AlertLabel = "normal"
)

// Valid reports whether the label is one of the known classifications.
func (l AlertLabel) Valid() bool {
	switch l {
	case LabelTheft, LabelSuspicious, LabelNormal:
		return true
	}
	return false
}

// Alert is an externally sourced detection event. The UUID is issued by the
// external service and is the upsert key: receiving the same UUID twice must
// update the existing row, later fields winning.
type Alert struct {
	AlertUUID   uuid.UUID  `json:"alert_uuid"`
	URL         string     `json:"url"`
	LocationID  string     `json:"location_id"`
	Label       AlertLabel `json:"label"`
	TimeSpotted time.Time  `json:"time_spotted"`
	Created     time.Time  `json:"created"`
	Modified    time.Time  `json:"modified"`
}

// IsCritical reports whether the alert requires critical-only subscribers
// to be notified.
func (a *Alert) IsCritical() bool {
	return a.Label == LabelTheft
}
