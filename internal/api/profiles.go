// internal/api/profiles.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
	"alert-notifier/internal/repository"
)

// ProfileWriter is what the profile handler needs from the repository layer.
type ProfileWriter interface {
	Create(ctx context.Context, p repository.CreateProfileParams) (*models.UserProfile, error)
}

type profilesHandler struct {
	profiles ProfileWriter
	logger   logger.Logger
}

type profileRequest struct {
	UserID                 string `json:"user_id"`
	Store                  string `json:"store"`
	NotificationPreference string `json:"notification_preference"`
	PreferredChannel       string `json:"preferred_channel"`
}

type profileResponse struct {
	ID                     string `json:"id"`
	UserID                 string `json:"user_id"`
	Store                  string `json:"store"`
	NotificationPreference string `json:"notification_preference"`
	PreferredChannel       string `json:"preferred_channel"`
	Created                string `json:"created"`
	Modified               string `json:"modified"`
}

func newProfileResponse(p *models.UserProfile) profileResponse {
	return profileResponse{
		ID:                     p.ID.String(),
		UserID:                 p.UserID.String(),
		Store:                  p.LocationID,
		NotificationPreference: string(p.NotificationPreference),
		PreferredChannel:       string(p.PreferredChannel),
		Created:                p.Created.Format(time.RFC3339),
		Modified:               p.Modified.Format(time.RFC3339),
	}
}

func (h *profilesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	params, fieldErrs := req.validate()
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	profile, err := h.profiles.Create(r.Context(), params)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, newProfileResponse(profile))
	case err == repository.ErrDuplicateProfile:
		writeError(w, http.StatusConflict, "profile already exists for this user and store")
	case apperrors.IsNotFound(err):
		// Profiles target known stores only; alerts, not profiles, create stores.
		writeFieldErrors(w, map[string]string{"store": "store does not exist"})
	default:
		h.logger.Error("failed to create profile", map[string]interface{}{
			"userId": req.UserID,
			"error":  err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "could not create profile")
	}
}

func (req *profileRequest) validate() (repository.CreateProfileParams, map[string]string) {
	fields := make(map[string]string)
	var params repository.CreateProfileParams

	if req.UserID == "" {
		fields["user_id"] = "required"
	} else if id, err := uuid.Parse(req.UserID); err != nil {
		fields["user_id"] = "must be a valid UUID"
	} else {
		params.UserID = id
	}

	if req.Store == "" {
		fields["store"] = "required"
	}
	params.LocationID = req.Store

	pref := models.NotificationPreference(req.NotificationPreference)
	if req.NotificationPreference == "" {
		fields["notification_preference"] = "required"
	} else if !pref.Valid() {
		fields["notification_preference"] = "must be one of critical, standard, all"
	} else {
		params.NotificationPreference = pref
	}

	channel := models.Channel(req.PreferredChannel)
	if req.PreferredChannel == "" {
		fields["preferred_channel"] = "required"
	} else if !channel.Valid() {
		fields["preferred_channel"] = "must be one of webhook, email, sms"
	} else {
		params.PreferredChannel = channel
	}

	return params, fields
}
