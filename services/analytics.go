package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kayak-backend/models"
)

// NoRouteLabel names the bucket of reservations without a route.
const NoRouteLabel = "No route"

type RouteCount struct {
	RouteID int64  `json:"routeId"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

type PaymentCount struct {
	Status models.PaymentStatus `json:"status"`
	Count  int                  `json:"count"`
}

// Summary is the analytics payload served to the dashboard.
type Summary struct {
	Year         int            `json:"year,omitempty"`
	Months       [12]int        `json:"months"`
	Routes       []RouteCount   `json:"routes"`
	Payments     []PaymentCount `json:"payments"`
	Total        int            `json:"total"`
	Kayaks       int            `json:"kayaks"`
	Participants int            `json:"participants"`
}

// ParseReservationDate reads Data as a calendar date in local time, falling
// back to a full RFC3339 timestamp.
func ParseReservationDate(raw string) (time.Time, bool) {
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(time.Local), true
	}
	return time.Time{}, false
}

// CountByMonth buckets reservations January..December. year 0 counts every
// year. Unparseable dates are skipped.
func CountByMonth(rs []models.Reservation, year int) [12]int {
	var months [12]int
	for _, r := range rs {
		t, ok := ParseReservationDate(r.Date)
		if !ok {
			continue
		}
		if year != 0 && t.Year() != year {
			continue
		}
		months[t.Month()-1]++
	}
	return months
}

// CountByRoute groups reservations by route name. Unknown ids fall back to
// "Route #<id>".
func CountByRoute(rs []models.Reservation, names map[int64]string) []RouteCount {
	counts := map[int64]int{}
	for _, r := range rs {
		counts[r.RouteID]++
	}
	out := make([]RouteCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, RouteCount{RouteID: id, Name: routeLabel(id, names), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func routeLabel(id int64, names map[int64]string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	if id == models.NoRoute {
		return NoRouteLabel
	}
	return fmt.Sprintf("Route #%d", id)
}

func CountByPaymentStatus(rs []models.Reservation) []PaymentCount {
	counts := map[models.PaymentStatus]int{}
	for _, r := range rs {
		counts[r.PaymentStatus]++
	}
	out := make([]PaymentCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, PaymentCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// BuildSummary is the pure aggregation behind AnalyticsService.Summary. A
// non-zero year restricts every bucket to reservations dated in that year.
func BuildSummary(rs []models.Reservation, names map[int64]string, year int) Summary {
	if year != 0 {
		rs = inYear(rs, year)
	}
	sum := Summary{
		Year:     year,
		Months:   CountByMonth(rs, year),
		Routes:   CountByRoute(rs, names),
		Payments: CountByPaymentStatus(rs),
		Total:    len(rs),
	}
	for _, r := range rs {
		sum.Kayaks += r.Kayaks()
		sum.Participants += r.Participants()
	}
	return sum
}

func inYear(rs []models.Reservation, year int) []models.Reservation {
	out := make([]models.Reservation, 0, len(rs))
	for _, r := range rs {
		if t, ok := ParseReservationDate(r.Date); ok && t.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

type AnalyticsService struct {
	reservations *ReservationService
	routes       *RouteService
}

func NewAnalyticsService(reservations *ReservationService, routes *RouteService) *AnalyticsService {
	return &AnalyticsService{reservations: reservations, routes: routes}
}

// Summary reads the current data and aggregates it. Both reads degrade to
// empty lists, so this never fails.
func (s *AnalyticsService) Summary(ctx context.Context, year int) Summary {
	return BuildSummary(s.reservations.List(ctx), s.routes.Names(ctx), year)
}
