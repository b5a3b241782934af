package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rifle-app/rifle/internal/repository"
)

// DashboardStore is the slice of the dashboard repository the handler needs.
type DashboardStore interface {
	OrganizerStats(ctx context.Context, organizerID uint64) ([]repository.OrganizerEventStats, error)
	AdminStats(ctx context.Context) (repository.PlatformStats, error)
}

// DashboardHandler serves the aggregated sales views.
type DashboardHandler struct {
	Stats DashboardStore
}

func NewDashboardHandler(s DashboardStore) *DashboardHandler { return &DashboardHandler{Stats: s} }

type organizerEventData struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	TicketsSold  uint32 `json:"ticketsSold"`
	Capacity     uint32 `json:"capacity"`
	RevenueCents uint64 `json:"revenueCents"`
}

type organizerDashboardData struct {
	EventsCount  int                  `json:"eventsCount"`
	TicketsSold  uint64               `json:"ticketsSold"`
	RevenueCents uint64               `json:"revenueCents"`
	Events       []organizerEventData `json:"events"`
}

type adminDashboardData struct {
	Users        uint64 `json:"users"`
	Events       uint64 `json:"events"`
	TicketsSold  uint64 `json:"ticketsSold"`
	RevenueCents uint64 `json:"revenueCents"`
}

// Organizer returns per-event sales for the calling organizer plus totals.
func (h *DashboardHandler) Organizer(c echo.Context) error {
	uid, _ := c.Get("user_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Stats.OrganizerStats(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load dashboard failed")
	}

	data := organizerDashboardData{Events: make([]organizerEventData, 0, len(stats))}
	for _, s := range stats {
		data.Events = append(data.Events, organizerEventData{
			ID: s.EventID, Title: s.Title, TicketsSold: s.TicketsSold,
			Capacity: s.Capacity, RevenueCents: s.RevenueCents,
		})
		data.TicketsSold += uint64(s.TicketsSold)
		data.RevenueCents += s.RevenueCents
	}
	data.EventsCount = len(stats)
	return respond(c, http.StatusOK, data)
}

// Admin returns platform-wide totals.  Admin role required.
func (h *DashboardHandler) Admin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Stats.AdminStats(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load dashboard failed")
	}
	return respond(c, http.StatusOK, adminDashboardData{
		Users: s.Users, Events: s.Events, TicketsSold: s.TicketsSold, RevenueCents: s.RevenueCents,
	})
}
