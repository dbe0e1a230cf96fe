// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alert-notifier/internal/common/database"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
)

const defaultAlertIndex = "alerts"

// AlertIndexer mirrors ingested alerts into Elasticsearch so operators can
// search them by label, store, and time. Indexing is best-effort: the alert
// is already committed to Postgres by the time this runs, and a missing or
// unreachable cluster must not affect ingestion.
type AlertIndexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

// NewAlertIndexer returns an indexer writing to the given index. A nil
// client disables indexing; an empty index name falls back to the default.
func NewAlertIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *AlertIndexer {
	if index == "" {
		index = defaultAlertIndex
	}
	return &AlertIndexer{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "alert-indexer"}),
	}
}

type alertDocument struct {
	AlertUUID   string    `json:"alert_uuid"`
	URL         string    `json:"url"`
	LocationID  string    `json:"location_id"`
	StoreName   string    `json:"store_name"`
	Label       string    `json:"label"`
	IsCritical  bool      `json:"is_critical"`
	TimeSpotted time.Time `json:"time_spotted"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// IndexAlert writes one alert document, keyed by the alert UUID so
// re-ingested alerts overwrite their previous document.
func (i *AlertIndexer) IndexAlert(ctx context.Context, alert *models.Alert, store *models.Store) {
	if i.es == nil {
		return
	}

	doc := alertDocument{
		AlertUUID:   alert.AlertUUID.String(),
		URL:         alert.URL,
		LocationID:  alert.LocationID,
		StoreName:   store.Name,
		Label:       string(alert.Label),
		IsCritical:  alert.IsCritical(),
		TimeSpotted: alert.TimeSpotted,
		IndexedAt:   time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		i.logger.Warn("failed to marshal alert document", map[string]interface{}{
			"alertUuid": doc.AlertUUID,
			"error":     err.Error(),
		})
		return
	}

	if err := i.write(ctx, doc.AlertUUID, body); err != nil {
		i.logger.Warn("failed to index alert", map[string]interface{}{
			"alertUuid": doc.AlertUUID,
			"error":     err.Error(),
		})
	}
}

func (i *AlertIndexer) write(ctx context.Context, documentID string, body []byte) error {
	client := i.es.Client
	res, err := client.Index(
		i.index,
		bytes.NewReader(body),
		client.Index.WithDocumentID(documentID),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index alert: %s", res.Status())
	}
	return nil
}
