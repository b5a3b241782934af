package model

import "time"

// Event represents a row in the `events` table.  Remaining capacity is
// derived at query time from issued tickets rather than stored, so the
// struct carries it as a computed field.
type Event struct {
	ID          uint64    // events.id
	OrganizerID uint64    // events.organizer_id (references users.id)
	Title       string    // events.title
	Description string    // events.description
	Date        time.Time // events.date
	Location    string    // events.location
	PriceCents  uint32    // events.price_cents
	Capacity    uint32    // events.capacity
	Remaining   uint32    // capacity minus issued tickets (computed)
	ImageURL    string    // events.image_url
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}
