// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketIssuedEvent is published when a ticket purchase completes.  It
// carries enough information for downstream consumers to log, notify, or
// feed analytics without querying the primary database.
type TicketIssuedEvent struct {
	TicketID   uint64 `json:"ticket_id"`
	EventID    uint64 `json:"event_id"`
	UserID     uint64 `json:"user_id"`
	EventTitle string `json:"event_title"`
	PriceCents uint32 `json:"price_cents"`
	IssuedAt   string `json:"issued_at"`
}
