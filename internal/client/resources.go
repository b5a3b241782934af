package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Typed wrappers for the CRUD surface. These are thin by design: all of the
// interesting behavior (credential attach, renewal, retry-once) lives in the
// dispatch pipeline they share.

// Event mirrors the server's event payload.
type Event struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	PriceCents  uint32    `json:"priceCents"`
	Capacity    uint32    `json:"capacity"`
	Remaining   uint32    `json:"remaining"`
	ImageURL    string    `json:"imageUrl"`
}

// EventPage is one page of the public event listing.
type EventPage struct {
	Events     []Event `json:"events"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}

// EventDraft is the mutable portion of an event for create/update.
type EventDraft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	PriceCents  uint32    `json:"priceCents"`
	Capacity    uint32    `json:"capacity"`
	ImageURL    string    `json:"imageUrl"`
}

// Ticket mirrors the server's ticket payload.
type Ticket struct {
	ID      uint64 `json:"id"`
	EventID uint64 `json:"eventId"`
	Status  string `json:"status"`
	QRCode  string `json:"qrCode"`
}

// TicketValidation is the outcome of a door scan.
type TicketValidation struct {
	TicketID uint64 `json:"ticketId"`
	Valid    bool   `json:"valid"`
}

// OrganizerEventStats is one event's sales on the organizer dashboard.
type OrganizerEventStats struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	TicketsSold  uint32 `json:"ticketsSold"`
	Capacity     uint32 `json:"capacity"`
	RevenueCents uint64 `json:"revenueCents"`
}

// OrganizerDashboard aggregates the calling organizer's sales.
type OrganizerDashboard struct {
	EventsCount  int                   `json:"eventsCount"`
	TicketsSold  uint64                `json:"ticketsSold"`
	RevenueCents uint64                `json:"revenueCents"`
	Events       []OrganizerEventStats `json:"events"`
}

// AdminDashboard aggregates platform totals.
type AdminDashboard struct {
	Users        uint64 `json:"users"`
	Events       uint64 `json:"events"`
	TicketsSold  uint64 `json:"ticketsSold"`
	RevenueCents uint64 `json:"revenueCents"`
}

// ListEvents fetches one page of the public event listing.
func (c *Client) ListEvents(ctx context.Context, page int) (EventPage, error) {
	var out EventPage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/events?page=%d", page), nil, &out)
	return out, err
}

// GetEvent fetches one event.
func (c *Client) GetEvent(ctx context.Context, id uint64) (Event, error) {
	var out Event
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/events/%d", id), nil, &out)
	return out, err
}

// CreateEvent creates an event (organizer or admin role).
func (c *Client) CreateEvent(ctx context.Context, draft EventDraft) (Event, error) {
	var out Event
	err := c.do(ctx, http.MethodPost, "/api/events", draftWire(draft), &out)
	return out, err
}

// UpdateEvent rewrites an event (owner organizer or admin).
func (c *Client) UpdateEvent(ctx context.Context, id uint64, draft EventDraft) (Event, error) {
	var out Event
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/events/%d", id), draftWire(draft), &out)
	return out, err
}

// DeleteEvent removes an event without sold tickets.
func (c *Client) DeleteEvent(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/events/%d", id), nil, nil)
}

// PurchaseTicket buys one ticket for the event.
func (c *Client) PurchaseTicket(ctx context.Context, eventID uint64) (Ticket, error) {
	var out Ticket
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/events/%d/tickets", eventID), nil, &out)
	return out, err
}

// MyTickets lists the caller's tickets.
func (c *Client) MyTickets(ctx context.Context) ([]Ticket, error) {
	var out []Ticket
	err := c.do(ctx, http.MethodGet, "/api/tickets", nil, &out)
	return out, err
}

// ValidateTicket marks a ticket used at the door (organizer or admin role).
func (c *Client) ValidateTicket(ctx context.Context, ticketID uint64) (TicketValidation, error) {
	var out TicketValidation
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tickets/%d/validate", ticketID), nil, &out)
	return out, err
}

// GetOrganizerDashboard fetches the organizer sales view.
func (c *Client) GetOrganizerDashboard(ctx context.Context) (OrganizerDashboard, error) {
	var out OrganizerDashboard
	err := c.do(ctx, http.MethodGet, "/api/dashboard/organizer", nil, &out)
	return out, err
}

// GetAdminDashboard fetches the platform totals view.
func (c *Client) GetAdminDashboard(ctx context.Context) (AdminDashboard, error) {
	var out AdminDashboard
	err := c.do(ctx, http.MethodGet, "/api/dashboard/admin", nil, &out)
	return out, err
}

// draftWire formats the draft date the way the server expects it.
func draftWire(d EventDraft) map[string]interface{} {
	return map[string]interface{}{
		"title":       d.Title,
		"description": d.Description,
		"date":        d.Date.Format(time.RFC3339),
		"location":    d.Location,
		"priceCents":  d.PriceCents,
		"capacity":    d.Capacity,
		"imageUrl":    d.ImageURL,
	}
}
