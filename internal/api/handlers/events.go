package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/happenit/server/internal/api/problem"
	"github.com/happenit/server/internal/domain/events"
	"github.com/happenit/server/internal/messages"
	"github.com/happenit/server/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Catalog *messages.Catalog
	Env     string
}

func NewEventsHandler(service *events.Service, catalog *messages.Catalog, env string) *EventsHandler {
	return &EventsHandler{Service: service, Catalog: catalog, Env: env}
}

type createEventRequest struct {
	OwnerID     int64  `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	EventDate   string `json:"event_date"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

// Create handles POST /api/v1/events. The body is either JSON or a
// multipart form with the same fields plus an optional "image" file.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	params, err := h.createParams(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			h.Catalog.Get(messages.KeyValidationFailed), err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	metrics.EventsCreatedTotal.WithLabelValues(string(event.Category)).Inc()
	if len(params.Image) > 0 {
		metrics.MediaUploadsTotal.WithLabelValues("event").Inc()
	}
	writeJSON(w, http.StatusCreated, eventToPayload(event))
}

func (h *EventsHandler) createParams(r *http.Request) (events.CreateEventParams, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.createParamsFromForm(r)
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return events.CreateEventParams{}, err
	}

	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return events.CreateEventParams{}, err
	}

	return events.CreateEventParams{
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		EventDate:   eventDate,
		Location:    req.Location,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}, nil
}

func (h *EventsHandler) createParamsFromForm(r *http.Request) (events.CreateEventParams, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return events.CreateEventParams{}, err
	}

	ownerID, err := strconv.ParseInt(r.FormValue("owner_id"), 10, 64)
	if err != nil {
		return events.CreateEventParams{}, events.ValidationError{Field: "owner_id", Message: "must be a positive integer"}
	}

	eventDate, err := parseEventDate(r.FormValue("event_date"))
	if err != nil {
		return events.CreateEventParams{}, err
	}

	params := events.CreateEventParams{
		OwnerID:     ownerID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		EventDate:   eventDate,
		Location:    r.FormValue("location"),
		Category:    r.FormValue("category"),
		ImageURL:    r.FormValue("image_url"),
	}

	if filename, data, err := readMultipartFile(r, "image"); err == nil {
		params.Image = data
		params.ImageFilename = filename
	}

	return params, nil
}

func parseEventDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, events.ValidationError{Field: "event_date", Message: "is required"}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, events.ValidationError{Field: "event_date", Message: "must be a valid timestamp"}
}

// Get handles GET /api/v1/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := eventPathID(r)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	event, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventToPayload(event))
}

type eventListResponse struct {
	Items []eventPayload `json:"items"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// List handles GET /api/v1/events. Only upcoming events are returned,
// newest listing first, with the owner summary joined in.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := events.ParseListParams(r.URL.Query())
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	payloads := make([]eventPayload, 0, len(items))
	for i := range items {
		payloads = append(payloads, eventWithOwnerToPayload(&items[i]))
	}

	writeJSON(w, http.StatusOK, eventListResponse{
		Items: payloads,
		Skip:  params.Skip,
		Limit: params.Limit,
	})
}

// ListByOwner handles GET /api/v1/users/{id}/events, oldest first.
func (h *EventsHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	items, err := h.Service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	payloads := make([]eventPayload, 0, len(items))
	for i := range items {
		payloads = append(payloads, eventToPayload(&items[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": payloads})
}

type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	EventDate   *string `json:"event_date"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"image_url"`
}

// Update handles PUT /api/v1/events/{id}. Only supplied fields change.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := eventPathID(r)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			h.Catalog.Get(messages.KeyValidationFailed), err, h.Env)
		return
	}

	params := events.UpdateEventParams{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if req.EventDate != nil {
		eventDate, err := parseEventDate(*req.EventDate)
		if err != nil {
			writeDomainError(w, r, err, h.Catalog, h.Env)
			return
		}
		params.EventDate = &eventDate
	}

	event, err := h.Service.Update(r.Context(), id, params)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventToPayload(event))
}

func eventPathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, events.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}
