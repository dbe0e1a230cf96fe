// internal/api/alerts.go
package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/common/metrics"
	"alert-notifier/internal/models"
	"alert-notifier/internal/repository"
	"alert-notifier/internal/search"
)

// AlertWriter is what the alert handler needs from the repository layer.
type AlertWriter interface {
	Upsert(ctx context.Context, p repository.UpsertAlertParams) (*models.Alert, *models.Store, error)
}

// FanOutEnqueuer schedules the fan-out task for a persisted alert.
type FanOutEnqueuer interface {
	EnqueueFanOut(ctx context.Context, alertUUID uuid.UUID) error
}

type alertsHandler struct {
	alerts   AlertWriter
	enqueuer FanOutEnqueuer
	indexer  *search.AlertIndexer
	logger   logger.Logger
}

// alertRequest is the inbound webhook body. time_spotted arrives as a unix
// timestamp in seconds; fractional values from the source are accepted.
type alertRequest struct {
	URL         string       `json:"url"`
	AlertUUID   string       `json:"alert_uuid"`
	Label       string       `json:"label"`
	TimeSpotted *json.Number `json:"time_spotted"`
	Location    string       `json:"location"`
}

type storeResponse struct {
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Created    string `json:"created"`
	Modified   string `json:"modified"`
}

type alertResponse struct {
	AlertUUID   string        `json:"alert_uuid"`
	URL         string        `json:"url"`
	Store       storeResponse `json:"store"`
	Label       string        `json:"label"`
	TimeSpotted string        `json:"time_spotted"`
	Created     string        `json:"created"`
	IsCritical  bool          `json:"is_critical"`
}

func newAlertResponse(alert *models.Alert, store *models.Store) alertResponse {
	return alertResponse{
		AlertUUID: alert.AlertUUID.String(),
		URL:       alert.URL,
		Store: storeResponse{
			LocationID: store.LocationID,
			Name:       store.Name,
			Created:    store.Created.Format(time.RFC3339),
			Modified:   store.Modified.Format(time.RFC3339),
		},
		Label:       string(alert.Label),
		TimeSpotted: alert.TimeSpotted.Format(time.RFC3339),
		Created:     alert.Created.Format(time.RFC3339),
		IsCritical:  alert.IsCritical(),
	}
}

func (h *alertsHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	params, fieldErrs := req.validate()
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	alert, store, err := h.alerts.Upsert(r.Context(), params)
	if err != nil {
		h.logger.Error("failed to persist alert", map[string]interface{}{
			"alertUuid": params.AlertUUID,
			"error":     err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "could not persist alert")
		return
	}
	metrics.AlertsIngested.WithLabelValues(string(alert.Label)).Inc()

	if h.indexer != nil {
		h.indexer.IndexAlert(r.Context(), alert, store)
	}

	if err := h.enqueuer.EnqueueFanOut(r.Context(), alert.AlertUUID); err != nil {
		// The alert row is committed; the caller should not resend it.
		h.logger.Error("failed to enqueue fan-out", map[string]interface{}{
			"alertUuid": alert.AlertUUID,
			"error":     err.Error(),
		})
		writeJSON(w, http.StatusAccepted, map[string]string{
			"warning": "alert saved but notifications not scheduled",
		})
		return
	}

	h.logger.Info("alert ingested", map[string]interface{}{
		"alertUuid": alert.AlertUUID,
		"location":  store.LocationID,
		"label":     string(alert.Label),
	})
	writeJSON(w, http.StatusOK, newAlertResponse(alert, store))
}

func (req *alertRequest) validate() (repository.UpsertAlertParams, map[string]string) {
	fields := make(map[string]string)
	var params repository.UpsertAlertParams

	if req.URL == "" {
		fields["url"] = "required"
	}
	params.URL = req.URL

	if req.AlertUUID == "" {
		fields["alert_uuid"] = "required"
	} else if id, err := uuid.Parse(req.AlertUUID); err != nil {
		fields["alert_uuid"] = "must be a valid UUID"
	} else {
		params.AlertUUID = id
	}

	label := models.AlertLabel(req.Label)
	if req.Label == "" {
		fields["label"] = "required"
	} else if !label.Valid() {
		fields["label"] = "must be one of theft, suspicious, normal"
	} else {
		params.Label = label
	}

	if req.TimeSpotted == nil {
		fields["time_spotted"] = "required"
	} else if ts, err := req.TimeSpotted.Float64(); err != nil || ts <= 0 || math.IsNaN(ts) || math.IsInf(ts, 0) {
		fields["time_spotted"] = "must be a positive unix timestamp"
	} else {
		sec, frac := math.Modf(ts)
		params.TimeSpotted = time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
	}

	if req.Location == "" {
		fields["location"] = "required"
	}
	params.LocationID = req.Location

	return params, fields
}
