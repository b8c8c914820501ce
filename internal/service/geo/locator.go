package geo

import (
	"context"

	"github.com/yuchialin/concierge/backend/internal/config"
	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
)

// Locator resolves the user's current position, best effort. A nil result
// means "no location available" and is always a valid outcome.
type Locator interface {
	Locate(ctx context.Context) *conv.Location
}

// FixedLocator pins the position to a configured coordinate.
type FixedLocator struct {
	loc conv.Location
}

// Locate returns the pinned coordinate.
func (l FixedLocator) Locate(context.Context) *conv.Location {
	loc := l.loc
	return &loc
}

// NopLocator reports no position.
type NopLocator struct{}

// Locate always returns nil.
func (NopLocator) Locate(context.Context) *conv.Location { return nil }

// NewLocator picks the locator matching configuration: a pinned default
// coordinate when provided, otherwise no ambient location. Per-request
// positions supplied by the client take precedence at the call site.
func NewLocator(cfg config.GeoConfig) Locator {
	if cfg.DefaultLocation != nil {
		return FixedLocator{loc: conv.Location{
			Latitude:  cfg.DefaultLocation.Latitude,
			Longitude: cfg.DefaultLocation.Longitude,
		}}
	}
	return NopLocator{}
}
