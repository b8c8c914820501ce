package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/yuchialin/concierge/backend/internal/config"
	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
)

const geocodeConcurrency = 4

// Geocoder resolves address strings to coordinates via Nominatim. Failures
// and unknown addresses degrade to "not found" for that address only.
type Geocoder struct {
	baseURL      string
	countryCodes string
	httpClient   *http.Client
	results      *cache.Cache
}

// MarkerResult pairs one suggestion with its geocoding outcome.
type MarkerResult struct {
	Point  conv.MapPoint  `json:"point"`
	Coords *conv.Location `json:"coords,omitempty"`
	Found  bool           `json:"found"`
}

// NewGeocoder builds a Nominatim-backed geocoder with a TTL result cache.
func NewGeocoder(cfg config.GeoConfig) *Geocoder {
	return &Geocoder{
		baseURL:      cfg.NominatimBaseURL,
		countryCodes: cfg.CountryCodes,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		results:      cache.New(cfg.CacheTTL, cfg.CacheTTL/2),
	}
}

// Geocode resolves a single address. The boolean reports whether a
// coordinate was found; errors are logged and reported as not-found.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*conv.Location, bool) {
	if address == "" {
		return nil, false
	}
	if cached, ok := g.results.Get(address); ok {
		if loc, ok := cached.(conv.Location); ok {
			return &loc, true
		}
		return nil, false // cached miss
	}

	loc, err := g.lookup(ctx, address)
	if err != nil {
		log.Printf("[geo] geocode %q failed: %v", address, err)
		return nil, false
	}
	if loc == nil {
		g.results.SetDefault(address, struct{}{})
		return nil, false
	}

	g.results.SetDefault(address, *loc)
	return loc, true
}

// GeocodeAll fans the suggestion addresses out concurrently and joins once
// every lookup has completed. Results keep the input order; individual
// misses never fail the batch.
func (g *Geocoder) GeocodeAll(ctx context.Context, points []conv.MapPoint) []MarkerResult {
	results := make([]MarkerResult, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(geocodeConcurrency)
	for i, point := range points {
		eg.Go(func() error {
			coords, found := g.Geocode(ctx, point.Address)
			results[i] = MarkerResult{Point: point, Coords: coords, Found: found}
			return nil
		})
	}
	_ = eg.Wait() // lookups only degrade, they never error the group

	return results
}

func (g *Geocoder) lookup(ctx context.Context, address string) (*conv.Location, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("q", address)
	query.Set("limit", "1")
	if g.countryCodes != "" {
		query.Set("countrycodes", g.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "concierge/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var hits []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("malformed nominatim payload: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q: %w", hits[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q: %w", hits[0].Lon, err)
	}

	return &conv.Location{Latitude: lat, Longitude: lon}, nil
}
