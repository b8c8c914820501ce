package status

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/yuchialin/concierge/backend/internal/config"
	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/service/geo"
)

// Lookup is the grounded one-shot call the status service depends on.
type Lookup interface {
	GroundedLookup(ctx context.Context, prompt string) (string, error)
}

// Snapshot is the parsed ambient status line shown above the chat.
type Snapshot struct {
	Location    string `json:"location"`
	Weather     string `json:"weather"`
	Temperature string `json:"temperature"`
}

// Service resolves the ambient "city | weather | temperature" line. It is
// read-only with respect to the conversation and never blocks the pipeline;
// any failure degrades to "unavailable".
type Service struct {
	llm     Lookup
	locator geo.Locator
	results *cache.Cache
}

// NewService builds the status service with a TTL cache keyed by position.
func NewService(llm Lookup, locator geo.Locator, cfg config.StatusConfig) *Service {
	return &Service{
		llm:     llm,
		locator: locator,
		results: cache.New(cfg.CacheTTL, cfg.CacheTTL),
	}
}

// Current returns the status snapshot for the given position (or the
// ambient one when nil). The boolean reports availability.
func (s *Service) Current(ctx context.Context, loc *conv.Location) (Snapshot, bool) {
	if loc == nil {
		loc = s.locator.Locate(ctx)
	}
	if loc == nil || s.llm == nil {
		return Snapshot{}, false
	}

	key := fmt.Sprintf("%.3f,%.3f", loc.Latitude, loc.Longitude)
	if cached, ok := s.results.Get(key); ok {
		if snap, ok := cached.(Snapshot); ok {
			return snap, true
		}
	}

	prompt := fmt.Sprintf(`Based on latitude %v and longitude %v, what is the current city/district, current weather, and temperature in Celsius? Format the answer as a single line: "City, District | Weather Description | XX°C". For example: "台北市信義區 | 晴朗 | 28°C". Do not include any other text or explanation.`,
		loc.Latitude, loc.Longitude)

	line, err := s.llm.GroundedLookup(ctx, prompt)
	if err != nil {
		log.Printf("[status] lookup failed: %v", err)
		return Snapshot{}, false
	}

	snap, ok := Parse(line)
	if !ok {
		log.Printf("[status] could not parse status line: %q", line)
		return Snapshot{}, false
	}

	s.results.SetDefault(key, snap)
	return snap, true
}

// Parse splits a "location | weather | temperature" line into a snapshot.
func Parse(line string) (Snapshot, bool) {
	parts := strings.Split(line, "|")
	if len(parts) != 3 {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Location:    strings.TrimSpace(parts[0]),
		Weather:     strings.TrimSpace(parts[1]),
		Temperature: strings.TrimSpace(parts[2]),
	}
	if snap.Location == "" || snap.Weather == "" || snap.Temperature == "" {
		return Snapshot{}, false
	}
	return snap, true
}
