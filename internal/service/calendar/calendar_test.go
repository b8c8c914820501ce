package calendar

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
)

func eventPlan() *conv.TripPlan {
	return &conv.TripPlan{
		Summary: "週五台中出差行程",
		Event: &conv.Event{
			Title:     "客戶簡報",
			Location:  "台中市西屯區",
			StartTime: "2026-03-13T09:00:00",
			EndTime:   "2026-03-13T11:00:00",
		},
		ItineraryTo: &conv.Itinerary{
			Mode:          "高鐵",
			ServiceNumber: "0823",
			Departure:     "台北 07:30",
			Arrival:       "台中 08:17",
			Cost:          "700 元",
		},
		Suggestions: &conv.Suggestions{Weather: "午後有陣雨，請攜帶雨具"},
	}
}

func TestBuildGoogleURL(t *testing.T) {
	link, err := BuildGoogleURL(eventPlan())
	if err != nil {
		t.Fatalf("BuildGoogleURL err: %v", err)
	}

	if !strings.HasPrefix(link, "https://www.google.com/calendar/render?action=TEMPLATE") {
		t.Fatalf("unexpected base: %s", link)
	}
	if !strings.Contains(link, "dates=20260313T090000/20260313T110000") {
		t.Fatalf("dates not compacted: %s", link)
	}
	if !strings.Contains(link, "text="+url.QueryEscape("客戶簡報")) {
		t.Fatal("title missing")
	}
	if !strings.Contains(link, "location="+url.QueryEscape("台中市西屯區")) {
		t.Fatal("location missing")
	}

	details, err := url.QueryUnescape(link[strings.Index(link, "details=")+len("details="):])
	if err != nil {
		t.Fatalf("unescape details: %v", err)
	}
	for _, want := range []string{"去程計畫", "高鐵 (0823)", "回程計畫", "N/A", "午後有陣雨"} {
		if !strings.Contains(details, want) {
			t.Fatalf("details missing %q:\n%s", want, details)
		}
	}
}

func TestBuildGoogleURLWithoutWeather(t *testing.T) {
	plan := eventPlan()
	plan.Suggestions = nil

	link, err := BuildGoogleURL(plan)
	if err != nil {
		t.Fatalf("BuildGoogleURL err: %v", err)
	}
	if !strings.Contains(link, url.QueryEscape("未提供")) {
		t.Fatal("missing weather placeholder")
	}
}

func TestBuildGoogleURLRequiresEvent(t *testing.T) {
	cases := []*conv.TripPlan{
		{Summary: "閒聊"},
		{Event: &conv.Event{Title: "只有標題"}},
		{Event: &conv.Event{Title: "缺結束", StartTime: "2026-03-13T09:00:00"}},
	}
	for i, plan := range cases {
		if _, err := BuildGoogleURL(plan); !errors.Is(err, ErrMissingEvent) {
			t.Fatalf("case %d: expected ErrMissingEvent, got %v", i, err)
		}
	}
}
