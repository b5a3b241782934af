package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rifle-app/rifle/internal/model"
)

// EventRepo provides CRUD access to the `events` table.  Remaining capacity
// is derived from issued tickets at query time so listings never go stale.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = `e.id, e.organizer_id, e.title, e.description, e.date, e.location,
	e.price_cents, e.capacity,
	e.capacity - (SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id AND t.status <> 'pending') AS remaining,
	e.image_url, e.created_at, e.updated_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var ev model.Event
	err := row.Scan(&ev.ID, &ev.OrganizerID, &ev.Title, &ev.Description, &ev.Date,
		&ev.Location, &ev.PriceCents, &ev.Capacity, &ev.Remaining, &ev.ImageURL,
		&ev.CreatedAt, &ev.UpdatedAt)
	return ev, err
}

// Create inserts an event and returns its ID.
func (r *EventRepo) Create(ctx context.Context, ev model.Event) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO events (organizer_id, title, description, date, location, price_cents, capacity, image_url)
		 VALUES (?,?,?,?,?,?,?,?)`,
		ev.OrganizerID, ev.Title, ev.Description, ev.Date, ev.Location,
		ev.PriceCents, ev.Capacity, ev.ImageURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one event with its remaining capacity.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events e WHERE e.id=? LIMIT 1", id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return ev, err
}

// List returns upcoming events ordered by date, newest page first.  page is
// 1-based; total pages are computed from the full count.
func (r *EventRepo) List(ctx context.Context, page, perPage int) ([]model.Event, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events e ORDER BY e.date ASC LIMIT ? OFFSET ?",
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]model.Event, 0, perPage)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	totalPages := (total + perPage - 1) / perPage
	return events, totalPages, nil
}

// Update rewrites an event's mutable fields.  The organizer check is done
// here so a non-owner update is indistinguishable from a missing row at the
// SQL level; callers get ErrForbidden when the row exists under a different
// organizer.  Admins pass organizerID 0 to bypass the ownership check.
func (r *EventRepo) Update(ctx context.Context, ev model.Event, organizerID uint64) error {
	owner, err := r.ownerOf(ctx, ev.ID)
	if err != nil {
		return err
	}
	if organizerID != 0 && owner != organizerID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE events SET title=?, description=?, date=?, location=?, price_cents=?, capacity=?, image_url=?, updated_at=NOW()
		 WHERE id=?`,
		ev.Title, ev.Description, ev.Date, ev.Location, ev.PriceCents, ev.Capacity, ev.ImageURL, ev.ID)
	return err
}

// Delete removes an event.  Events with issued tickets cannot be deleted.
func (r *EventRepo) Delete(ctx context.Context, id, organizerID uint64) error {
	owner, err := r.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if organizerID != 0 && owner != organizerID {
		return ErrForbidden
	}
	var sold int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE event_id=?", id).Scan(&sold); err != nil {
		return err
	}
	if sold > 0 {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
	return err
}

func (r *EventRepo) ownerOf(ctx context.Context, id uint64) (uint64, error) {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT organizer_id FROM events WHERE id=? LIMIT 1", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return owner, err
}
