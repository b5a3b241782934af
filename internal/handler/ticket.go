package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rifle-app/rifle/internal/model"
	"github.com/rifle-app/rifle/internal/queue"
	"github.com/rifle-app/rifle/internal/repository"
	queue_publisher "github.com/rifle-app/rifle/internal/service"
)

// TicketStore is the slice of the ticket repository the handler needs.
type TicketStore interface {
	Purchase(ctx context.Context, eventID, userID uint64, qrCode string) (uint64, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
	Validate(ctx context.Context, ticketID, organizerID uint64) error
}

// TicketHandler serves purchase, listing and door validation.
type TicketHandler struct {
	Tickets TicketStore
	Events  EventStore
}

func NewTicketHandler(t TicketStore, ev EventStore) *TicketHandler {
	return &TicketHandler{Tickets: t, Events: ev}
}

type ticketPart struct {
	ID      uint64 `json:"id"`
	EventID uint64 `json:"eventId"`
	Status  string `json:"status"`
	QRCode  string `json:"qrCode"`
}

type validateData struct {
	TicketID uint64 `json:"ticketId"`
	Valid    bool   `json:"valid"`
}

// Purchase issues one ticket for the event and publishes a ticket.issued
// event for downstream consumers.  Publish failures are logged but never
// fail the purchase.
func (h *TicketHandler) Purchase(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	uid, _ := c.Get("user_id").(uint64)

	code := make([]byte, 16)
	if _, err := rand.Read(code); err != nil {
		return fail(c, http.StatusInternalServerError, "issue ticket failed")
	}
	qr := hex.EncodeToString(code)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ticketID, err := h.Tickets.Purchase(ctx, eventID, uid, qr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "event sold out")
		}
		return fail(c, http.StatusInternalServerError, "issue ticket failed")
	}

	ev, evErr := h.Events.GetByID(ctx, eventID)
	if evErr == nil {
		if pubErr := queue_publisher.PublishTicketIssued(ctx, queue.TicketIssuedEvent{
			TicketID:   ticketID,
			EventID:    eventID,
			UserID:     uid,
			EventTitle: ev.Title,
			PriceCents: ev.PriceCents,
			IssuedAt:   time.Now().UTC().Format(time.RFC3339),
		}); pubErr != nil {
			log.Printf("ticket-publish: %v", pubErr)
		}
	}

	return respond(c, http.StatusCreated, ticketPart{
		ID: ticketID, EventID: eventID, Status: model.TicketPaid, QRCode: qr,
	})
}

// List returns the caller's own tickets.
func (h *TicketHandler) List(c echo.Context) error {
	uid, _ := c.Get("user_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list tickets failed")
	}
	parts := make([]ticketPart, 0, len(tickets))
	for _, t := range tickets {
		parts = append(parts, ticketPart{ID: t.ID, EventID: t.EventID, Status: t.Status, QRCode: t.QRCode})
	}
	return respond(c, http.StatusOK, parts)
}

// Validate marks a ticket used at the door.  Organizer role required; the
// repository enforces that the ticket belongs to one of the caller's events.
func (h *TicketHandler) Validate(c echo.Context) error {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid ticket id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tickets.Validate(ctx, ticketID, mutatorID(c)); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Already used: report invalid rather than erroring, the door
			// scanner treats this as a rejected entry.
			return respond(c, http.StatusOK, validateData{TicketID: ticketID, Valid: false})
		}
		return mapRepoError(c, err, "validate ticket failed")
	}
	return respond(c, http.StatusOK, validateData{TicketID: ticketID, Valid: true})
}
