// Package handlers contains the HTTP handlers for the public API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/happenit/server/internal/api/problem"
	"github.com/happenit/server/internal/domain/events"
	"github.com/happenit/server/internal/domain/users"
	"github.com/happenit/server/internal/messages"
	"github.com/happenit/server/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, users.ValidationError{Field: key, Message: "must be a positive integer"}
	}
	return id, nil
}

// writeDomainError maps the domain error taxonomy onto problem
// responses. Anything unrecognized becomes a generic 500; the storage
// detail is logged but never leaks outside development.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, catalog *messages.Catalog, env string) {
	var userVal users.ValidationError
	var eventVal events.ValidationError
	var urlVal validation.URLValidationError

	switch {
	case errors.As(err, &userVal):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			catalog.Get(messages.KeyValidationFailed), err, env,
			problem.WithErrors(map[string]interface{}{userVal.Field: fieldText(catalog, userVal.Key, userVal.Message)}))
	case errors.As(err, &eventVal):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			catalog.Get(messages.KeyValidationFailed), err, env,
			problem.WithErrors(map[string]interface{}{eventVal.Field: fieldText(catalog, eventVal.Key, eventVal.Message)}))
	case errors.As(err, &urlVal):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			catalog.Get(messages.KeyValidationFailed), err, env,
			problem.WithErrors(map[string]interface{}{urlVal.Field: urlVal.Message}))
	case errors.Is(err, users.ErrEmailTaken):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict,
			catalog.Get(messages.KeyEmailTaken), err, env)
	case errors.Is(err, users.ErrInvalidCredentials):
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized,
			catalog.Get(messages.KeyInvalidCredentials), err, env)
	case errors.Is(err, users.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound,
			catalog.Get(messages.KeyUserNotFound), err, env)
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound,
			catalog.Get(messages.KeyEventNotFound), err, env)
	case errors.Is(err, events.ErrUnknownOwner):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound,
			catalog.Get(messages.KeyOwnerNotFound), err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError,
			catalog.Get(messages.KeyInternalError), err, env)
	}
}

// fieldText resolves a keyed validation failure through the catalog so the
// client sees the localized text; unkeyed failures keep their own message.
func fieldText(catalog *messages.Catalog, key, message string) string {
	if key != "" {
		return catalog.Get(key)
	}
	return message
}

// userPayload is the serialized user shape. The password hash never
// leaves the domain layer.
type userPayload struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Surname          string  `json:"surname,omitempty"`
	Phone            string  `json:"phone"`
	Email            string  `json:"email"`
	ProfileImagePath *string `json:"profile_image_path"`
	CreatedAt        string  `json:"created_at"`
}

func userToPayload(u *users.User) userPayload {
	payload := userPayload{
		ID:        u.ID,
		Name:      u.Name,
		Surname:   u.Surname,
		Phone:     u.Phone,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.ProfileImagePath != "" {
		path := u.ProfileImagePath
		payload.ProfileImagePath = &path
	}
	return payload
}

type ownerPayload struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	ProfileImagePath *string `json:"profile_image_path"`
}

type eventPayload struct {
	ID          int64         `json:"id"`
	OwnerID     int64         `json:"owner_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	EventDate   string        `json:"event_date"`
	Location    string        `json:"location"`
	Category    string        `json:"category"`
	ImageURL    *string       `json:"image_url"`
	CreatedAt   string        `json:"created_at"`
	Owner       *ownerPayload `json:"owner,omitempty"`
}

func eventToPayload(e *events.Event) eventPayload {
	payload := eventPayload{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Title:       e.Title,
		Description: e.Description,
		EventDate:   e.EventDate.UTC().Format(time.RFC3339),
		Location:    e.Location,
		Category:    string(e.Category),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.ImageURL != "" {
		url := e.ImageURL
		payload.ImageURL = &url
	}
	return payload
}

func eventWithOwnerToPayload(e *events.EventWithOwner) eventPayload {
	payload := eventToPayload(&e.Event)
	owner := ownerPayload{ID: e.Owner.ID, Name: e.Owner.Name}
	if e.Owner.ProfileImagePath != "" {
		path := e.Owner.ProfileImagePath
		owner.ProfileImagePath = &path
	}
	payload.Owner = &owner
	return payload
}
