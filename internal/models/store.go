// internal/models/store.go
package models

import "time"

// Store is a physical or logical location. Identity is the externally
// issued location id (e.g. "fr-auchan-larochelle"); the name is an optional
// description and may change.
type Store struct {
	LocationID string    `json:"location_id"`
	Name       string    `json:"name"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}
