package model

import "time"

// Ticket status values.  A ticket is created as paid (checkout is immediate,
// there is no payment gateway step) and becomes used once validated at the
// door.  Pending exists for forward compatibility with deferred payment.
const (
	TicketPaid    = "paid"
	TicketPending = "pending"
	TicketUsed    = "used"
)

// Ticket represents a row in the `tickets` table.
type Ticket struct {
	ID        uint64    // tickets.id
	EventID   uint64    // tickets.event_id
	UserID    uint64    // tickets.user_id
	Status    string    // tickets.status
	QRCode    string    // tickets.qr_code (opaque validation code)
	CreatedAt time.Time // tickets.created_at
}
