// Package events implements the event domain: creation against a valid
// owner and category, partial updates, reads, and the upcoming-events
// listing with the owner summary joined in.
package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/happenit/server/internal/media"
	"github.com/happenit/server/internal/sanitize"
	"github.com/happenit/server/internal/validation"
)

const (
	// DefaultLimit is the page size when the caller does not pass one.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100
)

// ValidationError rejects one field of a request. Message is the internal
// description; Key, when set, names the catalog entry whose localized text
// the HTTP boundary shows instead.
type ValidationError struct {
	Field   string
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	repo   Repository
	media  media.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, mediaStore media.Store, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		media:  mediaStore,
		logger: logger.With().Str("component", "events").Logger(),
		now:    time.Now,
	}
}

// CreateEventParams is the input of Create. Image carries optional raw
// upload bytes; when present they take precedence over ImageURL.
type CreateEventParams struct {
	OwnerID       int64
	Title         string
	Description   string
	EventDate     time.Time
	Location      string
	Category      string
	ImageURL      string
	Image         []byte
	ImageFilename string
}

// Create validates the category against the fixed enumeration and the
// owner against the users table, then persists the event. An optional
// image is stored through the media store before the insert; a crash in
// between leaves an orphaned binary, which is accepted.
func (s *Service) Create(ctx context.Context, params CreateEventParams) (*Event, error) {
	category, err := ParseCategory(params.Category)
	if err != nil {
		return nil, err
	}

	title := sanitize.Text(params.Title)
	if title == "" {
		return nil, ValidationError{Field: "title", Message: "must not be empty"}
	}
	description := sanitize.Description(params.Description)
	if description == "" {
		return nil, ValidationError{Field: "description", Message: "must not be empty"}
	}
	location := sanitize.Text(params.Location)
	if location == "" {
		return nil, ValidationError{Field: "location", Message: "must not be empty"}
	}
	if params.EventDate.IsZero() {
		return nil, ValidationError{Field: "event_date", Message: "must be a valid timestamp"}
	}
	if err := validation.ValidateImageURL(params.ImageURL, "image_url"); err != nil {
		return nil, ValidationError{Field: "image_url", Message: "must be a valid http(s) URL"}
	}

	exists, err := s.repo.OwnerExists(ctx, params.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return nil, ErrUnknownOwner
	}

	imageURL := params.ImageURL
	if len(params.Image) > 0 {
		ref, err := s.media.Save(ctx, media.EventImagesDir, params.ImageFilename, params.Image)
		if err != nil {
			return nil, fmt.Errorf("store event image: %w", err)
		}
		imageURL = ref
	}

	event, err := s.repo.Create(ctx, CreateParams{
		OwnerID:     params.OwnerID,
		Title:       title,
		Description: description,
		EventDate:   params.EventDate,
		Location:    location,
		Category:    category,
		ImageURL:    imageURL,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("event_id", event.ID).
		Int64("owner_id", event.OwnerID).
		Str("category", string(event.Category)).
		Msg("event created")
	return event, nil
}

// UpdateEventParams carries a partial update; nil fields stay untouched.
type UpdateEventParams struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	Location    *string
	Category    *string
	ImageURL    *string
}

// Update applies only the supplied fields to an existing event.
func (s *Service) Update(ctx context.Context, id int64, params UpdateEventParams) (*Event, error) {
	update := UpdateParams{}

	if params.Title != nil {
		title := sanitize.Text(*params.Title)
		if title == "" {
			return nil, ValidationError{Field: "title", Message: "must not be empty"}
		}
		update.Title = &title
	}
	if params.Description != nil {
		description := sanitize.Description(*params.Description)
		if description == "" {
			return nil, ValidationError{Field: "description", Message: "must not be empty"}
		}
		update.Description = &description
	}
	if params.EventDate != nil {
		if params.EventDate.IsZero() {
			return nil, ValidationError{Field: "event_date", Message: "must be a valid timestamp"}
		}
		update.EventDate = params.EventDate
	}
	if params.Location != nil {
		location := sanitize.Text(*params.Location)
		if location == "" {
			return nil, ValidationError{Field: "location", Message: "must not be empty"}
		}
		update.Location = &location
	}
	if params.Category != nil {
		category, err := ParseCategory(*params.Category)
		if err != nil {
			return nil, err
		}
		update.Category = &category
	}
	if params.ImageURL != nil {
		if err := validation.ValidateImageURL(*params.ImageURL, "image_url"); err != nil {
			return nil, ValidationError{Field: "image_url", Message: "must be a valid http(s) URL"}
		}
		update.ImageURL = params.ImageURL
	}

	event, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("event_id", id).Msg("event updated")
	return event, nil
}

// GetByID returns one event or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

type ListParams struct {
	Skip  int
	Limit int
}

// List returns upcoming events, newest created first, with owner summary.
func (s *Service) List(ctx context.Context, params ListParams) ([]EventWithOwner, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	skip := params.Skip
	if skip < 0 {
		skip = 0
	}
	return s.repo.ListUpcoming(ctx, s.now().UTC(), skip, limit)
}

// ListByOwner returns every event of one owner in creation order. An owner
// with no events yields an empty list, not an error.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]Event, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ParseListParams reads skip/limit query parameters with bounds checking.
func ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Skip: 0, Limit: DefaultLimit}

	if raw := strings.TrimSpace(values.Get("skip")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return params, ValidationError{Field: "skip", Message: "must be a non-negative number"}
		}
		params.Skip = parsed
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxLimit {
			return params, ValidationError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
		}
		params.Limit = parsed
	}

	return params, nil
}
