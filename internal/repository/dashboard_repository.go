package repository

import (
	"context"
	"database/sql"
)

// OrganizerEventStats aggregates sales for one event on the organizer
// dashboard.
type OrganizerEventStats struct {
	EventID      uint64
	Title        string
	TicketsSold  uint32
	Capacity     uint32
	RevenueCents uint64
}

// PlatformStats aggregates totals for the admin dashboard.
type PlatformStats struct {
	Users        uint64
	Events       uint64
	TicketsSold  uint64
	RevenueCents uint64
}

// DashboardRepo runs the aggregation queries behind the dashboard endpoints.
type DashboardRepo struct{ DB *sql.DB }

func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{DB: db} }

// OrganizerStats returns per-event sales for every event the organizer owns.
func (r *DashboardRepo) OrganizerStats(ctx context.Context, organizerID uint64) ([]OrganizerEventStats, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT e.id, e.title, e.capacity,
		        COUNT(t.id) AS sold,
		        COUNT(t.id) * e.price_cents AS revenue
		 FROM events e
		 LEFT JOIN tickets t ON t.event_id = e.id AND t.status <> 'pending'
		 WHERE e.organizer_id = ?
		 GROUP BY e.id, e.title, e.capacity, e.price_cents
		 ORDER BY e.date ASC`,
		organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []OrganizerEventStats
	for rows.Next() {
		var s OrganizerEventStats
		if err := rows.Scan(&s.EventID, &s.Title, &s.Capacity, &s.TicketsSold, &s.RevenueCents); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// AdminStats returns platform-wide totals.
func (r *DashboardRepo) AdminStats(ctx context.Context) (PlatformStats, error) {
	var s PlatformStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM users),
		    (SELECT COUNT(*) FROM events),
		    (SELECT COUNT(*) FROM tickets WHERE status <> 'pending'),
		    (SELECT COALESCE(SUM(e.price_cents), 0) FROM tickets t JOIN events e ON e.id = t.event_id WHERE t.status <> 'pending')`,
	).Scan(&s.Users, &s.Events, &s.TicketsSold, &s.RevenueCents)
	return s, err
}
