package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rifle-app/rifle/internal/model"
	"github.com/rifle-app/rifle/internal/repository"
)

// EventStore is the slice of the event repository the handler needs.
type EventStore interface {
	Create(ctx context.Context, ev model.Event) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	List(ctx context.Context, page, perPage int) ([]model.Event, int, error)
	Update(ctx context.Context, ev model.Event, organizerID uint64) error
	Delete(ctx context.Context, id, organizerID uint64) error
}

// EventHandler serves the event CRUD endpoints.
type EventHandler struct {
	Events EventStore
}

func NewEventHandler(ev EventStore) *EventHandler { return &EventHandler{Events: ev} }

type eventReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // RFC 3339
	Location    string `json:"location"`
	PriceCents  uint32 `json:"priceCents"`
	Capacity    uint32 `json:"capacity"`
	ImageURL    string `json:"imageUrl"`
}

type eventPart struct {
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

type eventListData struct {
	Events     []eventPart `json:"events"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

func eventPartOf(ev model.Event) eventPart {
	return eventPart{
		ID: ev.ID, Title: ev.Title, Description: ev.Description, Date: ev.Date,
		Location: ev.Location, PriceCents: ev.PriceCents, Capacity: ev.Capacity,
		Remaining: ev.Remaining, ImageURL: ev.ImageURL,
	}
}

func (req *eventReq) validate() (time.Time, string) {
	if req.Title == "" || req.Location == "" {
		return time.Time{}, "title and location are required"
	}
	if req.Capacity == 0 {
		return time.Time{}, "capacity must be positive"
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return time.Time{}, "date must be RFC 3339"
	}
	return date, ""
}

// List is public and sits behind the response cache.
func (h *EventHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, totalPages, err := h.Events.List(ctx, page, 20)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list events failed")
	}
	parts := make([]eventPart, 0, len(events))
	for _, ev := range events {
		parts = append(parts, eventPartOf(ev))
	}
	return respond(c, http.StatusOK, eventListData{Events: parts, Page: page, TotalPages: totalPages})
}

// Get is public.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "load event failed")
	}
	return respond(c, http.StatusOK, eventPartOf(ev))
}

// Create requires the organizer or admin role.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	date, msg := req.validate()
	if msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	uid, _ := c.Get("user_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Events.Create(ctx, model.Event{
		OrganizerID: uid, Title: req.Title, Description: req.Description,
		Date: date, Location: req.Location, PriceCents: req.PriceCents,
		Capacity: req.Capacity, ImageURL: req.ImageURL,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create event failed")
	}
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load event failed")
	}
	return respond(c, http.StatusCreated, eventPartOf(ev))
}

// Update lets organizers edit their own events; admins edit any event.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	date, msg := req.validate()
	if msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Events.Update(ctx, model.Event{
		ID: id, Title: req.Title, Description: req.Description, Date: date,
		Location: req.Location, PriceCents: req.PriceCents,
		Capacity: req.Capacity, ImageURL: req.ImageURL,
	}, mutatorID(c))
	if err != nil {
		return mapRepoError(c, err, "update event failed")
	}
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load event failed")
	}
	return respond(c, http.StatusOK, eventPartOf(ev))
}

// Delete refuses to remove events that already sold tickets.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, id, mutatorID(c)); err != nil {
		return mapRepoError(c, err, "delete event failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// mutatorID returns 0 for admins, which bypasses repository ownership
// checks, and the caller's user id otherwise.
func mutatorID(c echo.Context) uint64 {
	if role, _ := c.Get("role").(string); role == model.RoleAdmin {
		return 0
	}
	uid, _ := c.Get("user_id").(uint64)
	return uid
}

// mapRepoError translates repository sentinels into envelope failures.
func mapRepoError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "conflict")
	default:
		return fail(c, http.StatusInternalServerError, fallback)
	}
}
