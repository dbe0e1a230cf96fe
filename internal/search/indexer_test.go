package search

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
)

func TestNewAlertIndexer_IndexName(t *testing.T) {
	log := logger.NewTestLogger(t)

	assert.Equal(t, "store-alerts", NewAlertIndexer(nil, "store-alerts", log).index)
	assert.Equal(t, defaultAlertIndex, NewAlertIndexer(nil, "", log).index)
}

func TestIndexAlert_NilClientIsNoOp(t *testing.T) {
	indexer := NewAlertIndexer(nil, "", logger.NewTestLogger(t))

	alert := &models.Alert{
		AlertUUID:   uuid.New(),
		URL:         "https://cam.example.com/clip/1",
		LocationID:  "store-1",
		Label:       models.LabelTheft,
		TimeSpotted: time.Now().UTC(),
	}
	store := &models.Store{LocationID: "store-1", Name: "store-1"}

	assert.NotPanics(t, func() {
		indexer.IndexAlert(context.Background(), alert, store)
	})
}
