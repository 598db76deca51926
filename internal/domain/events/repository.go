package events

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an event id does not resolve.
var ErrNotFound = errors.New("event not found")

// ErrUnknownOwner is returned when an event references a user that does not
// exist, either from the pre-insert check or from the foreign key.
var ErrUnknownOwner = errors.New("event owner not found")

type Event struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	EventDate   time.Time
	Location    string
	Category    Category
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnerSummary is the slice of the owning user joined into listings.
type OwnerSummary struct {
	ID               int64
	Name             string
	ProfileImagePath string
}

type EventWithOwner struct {
	Event
	Owner OwnerSummary
}

type CreateParams struct {
	OwnerID     int64
	Title       string
	Description string
	EventDate   time.Time
	Location    string
	Category    Category
	ImageURL    string
}

// UpdateParams carries partial updates; nil fields are left untouched.
type UpdateParams struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	Location    *string
	Category    *Category
	ImageURL    *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Event, error)
	// ListUpcoming returns events with event_date at or after now, newest
	// created first, with the owner summary joined in.
	ListUpcoming(ctx context.Context, now time.Time, skip, limit int) ([]EventWithOwner, error)
	// ListByOwner returns all events of one owner in creation order.
	ListByOwner(ctx context.Context, ownerID int64) ([]Event, error)
	OwnerExists(ctx context.Context, ownerID int64) (bool, error)
}
