package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rifle-app/rifle/internal/model"
)

// TicketRepo manages ticket purchase, listing and validation.  Purchase runs
// in a transaction with a capacity check against the event row so two
// concurrent buyers cannot oversell the last seat.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

// Purchase issues one ticket for the event.  Returns ErrConflict when the
// event is sold out and ErrNotFound when the event does not exist.
func (r *TicketRepo) Purchase(ctx context.Context, eventID, userID uint64, qrCode string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the event row for the duration of the capacity check.
	var capacity, sold uint32
	err = tx.QueryRowContext(ctx,
		"SELECT capacity FROM events WHERE id=? FOR UPDATE", eventID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE event_id=? AND status <> 'pending'",
		eventID).Scan(&sold); err != nil {
		return 0, err
	}
	if sold >= capacity {
		return 0, ErrConflict
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (event_id, user_id, status, qr_code) VALUES (?,?,?,?)",
		eventID, userID, model.TicketPaid, qrCode)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns all tickets belonging to a user, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, event_id, user_id, status, qr_code, created_at FROM tickets WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.EventID, &t.UserID, &t.Status, &t.QRCode, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Validate marks a paid ticket as used.  The organizer must own the event
// the ticket belongs to (organizerID 0 bypasses the check for admins).
// Returns ErrConflict when the ticket was already used.
func (r *TicketRepo) Validate(ctx context.Context, ticketID, organizerID uint64) error {
	var status string
	var eventOwner uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT t.status, e.organizer_id FROM tickets t
		 JOIN events e ON e.id = t.event_id WHERE t.id=? LIMIT 1`,
		ticketID).Scan(&status, &eventOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if organizerID != 0 && eventOwner != organizerID {
		return ErrForbidden
	}
	if status == model.TicketUsed {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE tickets SET status=? WHERE id=? AND status=?",
		model.TicketUsed, ticketID, model.TicketPaid)
	return err
}
