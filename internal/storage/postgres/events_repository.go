package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/happenit/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

type eventRow struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	EventDate   pgtype.Timestamptz
	Location    string
	Category    string
	ImageURL    *string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

const eventColumns = `id, owner_id, title, description, event_date, location, category, image_url, created_at, updated_at`

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (owner_id, title, description, event_date, location, category, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+eventColumns,
		params.OwnerID,
		params.Title,
		params.Description,
		params.EventDate,
		params.Location,
		string(params.Category),
		nullableString(params.ImageURL),
	)

	event, err := scanEvent(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, events.ErrUnknownOwner
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, id int64, params events.UpdateParams) (*events.Event, error) {
	assignments := make([]string, 0, 7)
	args := make([]any, 0, 8)

	appendSet := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Title != nil {
		appendSet("title", *params.Title)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}
	if params.EventDate != nil {
		appendSet("event_date", *params.EventDate)
	}
	if params.Location != nil {
		appendSet("location", *params.Location)
	}
	if params.Category != nil {
		appendSet("category", string(*params.Category))
	}
	if params.ImageURL != nil {
		appendSet("image_url", nullableString(*params.ImageURL))
	}

	if len(assignments) == 0 {
		return r.GetByID(ctx, id)
	}

	assignments = append(assignments, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
UPDATE events
   SET %s
 WHERE id = $%d
RETURNING %s`, strings.Join(assignments, ", "), len(args), eventColumns)

	row := r.queryer().QueryRow(ctx, query, args...)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time, skip, limit int) ([]events.EventWithOwner, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT e.id, e.owner_id, e.title, e.description, e.event_date, e.location,
       e.category, e.image_url, e.created_at, e.updated_at,
       u.id, u.name, u.profile_image_path
  FROM events e
  JOIN users u ON u.id = e.owner_id
 WHERE e.event_date >= $1
 ORDER BY e.created_at DESC, e.id DESC
 OFFSET $2
 LIMIT $3`, now, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]events.EventWithOwner, 0, limit)
	for rows.Next() {
		var (
			er        eventRow
			ownerID   int64
			ownerName string
			ownerImg  *string
		)
		if err := rows.Scan(
			&er.ID,
			&er.OwnerID,
			&er.Title,
			&er.Description,
			&er.EventDate,
			&er.Location,
			&er.Category,
			&er.ImageURL,
			&er.CreatedAt,
			&er.UpdatedAt,
			&ownerID,
			&ownerName,
			&ownerImg,
		); err != nil {
			return nil, fmt.Errorf("scan events: %w", err)
		}
		items = append(items, events.EventWithOwner{
			Event: eventFromRow(er),
			Owner: events.OwnerSummary{
				ID:               ownerID,
				Name:             ownerName,
				ProfileImagePath: derefString(ownerImg),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID int64) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE owner_id = $1
 ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events by owner: %w", err)
	}
	defer rows.Close()

	var items []events.Event
	for rows.Next() {
		var er eventRow
		if err := rows.Scan(
			&er.ID,
			&er.OwnerID,
			&er.Title,
			&er.Description,
			&er.EventDate,
			&er.Location,
			&er.Category,
			&er.ImageURL,
			&er.CreatedAt,
			&er.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan events by owner: %w", err)
		}
		items = append(items, eventFromRow(er))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events by owner: %w", err)
	}
	return items, nil
}

func (r *EventRepository) OwnerExists(ctx context.Context, ownerID int64) (bool, error) {
	var exists bool
	err := r.queryer().QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, ownerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check owner: %w", err)
	}
	return exists, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var er eventRow
	if err := row.Scan(
		&er.ID,
		&er.OwnerID,
		&er.Title,
		&er.Description,
		&er.EventDate,
		&er.Location,
		&er.Category,
		&er.ImageURL,
		&er.CreatedAt,
		&er.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event := eventFromRow(er)
	return &event, nil
}

func eventFromRow(er eventRow) events.Event {
	event := events.Event{
		ID:          er.ID,
		OwnerID:     er.OwnerID,
		Title:       er.Title,
		Description: er.Description,
		Location:    er.Location,
		Category:    events.Category(er.Category),
		ImageURL:    derefString(er.ImageURL),
	}
	if er.EventDate.Valid {
		event.EventDate = er.EventDate.Time
	}
	if er.CreatedAt.Valid {
		event.CreatedAt = er.CreatedAt.Time
	}
	if er.UpdatedAt.Valid {
		event.UpdatedAt = er.UpdatedAt.Time
	}
	return event
}
