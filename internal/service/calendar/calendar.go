package calendar

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
)

// ErrMissingEvent indicates the plan lacks the event fields a calendar
// entry requires. Surfaced as an inline action failure, never a crash.
var ErrMissingEvent = errors.New("plan is missing event title or times")

const templateBase = "https://www.google.com/calendar/render?action=TEMPLATE"

// BuildGoogleURL assembles a Google Calendar template link from a trip plan,
// embedding both itinerary legs and the weather reminder in the details.
func BuildGoogleURL(plan *conv.TripPlan) (string, error) {
	if !plan.HasEvent() {
		return "", ErrMissingEvent
	}

	event := plan.Event
	dates := fmt.Sprintf("%s/%s", formatTemplateDate(event.StartTime), formatTemplateDate(event.EndTime))

	details := fmt.Sprintf(`由 AI 行動助理為您規劃的行程：

--- 去程計畫 ---
%s
--- 回程計畫 ---
%s
--- 天氣提醒 ---
%s`,
		formatLeg(plan.ItineraryTo),
		formatLeg(plan.ItineraryFrom),
		weatherOrDefault(plan.Suggestions))

	link := fmt.Sprintf("%s&text=%s&dates=%s&location=%s&details=%s",
		templateBase,
		url.QueryEscape(event.Title),
		dates,
		url.QueryEscape(event.Location),
		url.QueryEscape(details))
	return link, nil
}

// formatTemplateDate reduces an ISO-ish timestamp to the compact form the
// calendar template expects.
func formatTemplateDate(iso string) string {
	return strings.NewReplacer("-", "", ":", "").Replace(iso)
}

func formatLeg(leg *conv.Itinerary) string {
	mode, service, departure, arrival, cost := "N/A", "N/A", "N/A", "N/A", "N/A"
	if leg != nil {
		mode = orNA(leg.Mode)
		service = orNA(leg.ServiceNumber)
		departure = orNA(leg.Departure)
		arrival = orNA(leg.Arrival)
		cost = orNA(leg.Cost)
	}
	return fmt.Sprintf("交通方式: %s (%s)\n出發: %s\n抵達: %s\n費用: %s\n", mode, service, departure, arrival, cost)
}

func weatherOrDefault(s *conv.Suggestions) string {
	if s == nil || s.Weather == "" {
		return "未提供"
	}
	return s.Weather
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
