package conversation

// TripPlan is the structured assistant payload. Every field except Summary
// is optional; a free-text reply is represented as a plan carrying only the
// summary. Field names follow the wire schema the assistant is prompted
// with.
type TripPlan struct {
	Summary       string       `json:"summary"`
	Event         *Event       `json:"event,omitempty"`
	TotalCost     string       `json:"total_cost,omitempty"`
	ItineraryTo   *Itinerary   `json:"itinerary_to,omitempty"`
	ItineraryFrom *Itinerary   `json:"itinerary_from,omitempty"`
	Suggestions   *Suggestions `json:"suggestions,omitempty"`
}

// Event is the anchor appointment a full trip plan is built around.
type Event struct {
	Title     string `json:"title,omitempty"`
	Location  string `json:"location,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Itinerary describes one transport leg of the plan.
type Itinerary struct {
	HomeDepartureTime string     `json:"home_departure_time,omitempty"`
	Mode              string     `json:"mode,omitempty"`
	ServiceNumber     string     `json:"serviceNumber,omitempty"`
	Departure         string     `json:"departure,omitempty"`
	Arrival           string     `json:"arrival,omitempty"`
	Cost              string     `json:"cost,omitempty"`
	BookingURL        string     `json:"booking_url,omitempty"`
	LocalTransport    []LegStep  `json:"local_transport,omitempty"`
	Details           string     `json:"details,omitempty"`
}

// LegStep is one local transfer within an itinerary.
type LegStep struct {
	Mode     string `json:"mode,omitempty"`
	Route    string `json:"route,omitempty"`
	Details  string `json:"details,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Suggestions groups the optional recommendation lists of a plan.
type Suggestions struct {
	Weather     string       `json:"weather,omitempty"`
	Hotels      []Hotel      `json:"hotels,omitempty"`
	Restaurants []Restaurant `json:"restaurants,omitempty"`
	Activities  []Activity   `json:"activities,omitempty"`
	Souvenirs   []Souvenir   `json:"souvenirs,omitempty"`
}

// Hotel is a lodging recommendation; Name and Address are required by the
// schema, the rest is optional color.
type Hotel struct {
	Name    string `json:"name"`
	Reason  string `json:"reason,omitempty"`
	Address string `json:"address"`
	Price   string `json:"price,omitempty"`
}

// Restaurant is a dining recommendation.
type Restaurant struct {
	Name       string `json:"name"`
	Cuisine    string `json:"cuisine,omitempty"`
	Address    string `json:"address"`
	Reason     string `json:"reason,omitempty"`
	PriceRange string `json:"price_range,omitempty"`
}

// Activity is a nearby sight or activity recommendation.
type Activity struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address"`
}

// Souvenir is a local specialty recommendation.
type Souvenir struct {
	Name       string `json:"name"`
	Store      string `json:"store,omitempty"`
	Address    string `json:"address"`
	Reason     string `json:"reason,omitempty"`
	PriceRange string `json:"price_range,omitempty"`
}

// SuggestionKind tags a flattened suggestion with its origin list.
type SuggestionKind string

const (
	KindHotel      SuggestionKind = "hotel"
	KindRestaurant SuggestionKind = "restaurant"
	KindSouvenir   SuggestionKind = "souvenir"
	KindActivity   SuggestionKind = "activity"
)

// MapPoint is one addressable suggestion flattened out of a plan, in the
// fixed hotel/restaurant/souvenir/activity order the card renderer uses.
type MapPoint struct {
	Kind    SuggestionKind `json:"kind"`
	Name    string         `json:"name"`
	Address string         `json:"address"`
	Detail  string         `json:"detail,omitempty"`
}

// MapPoints flattens the plan's suggestions into addressable entries,
// skipping anything without an address.
func (p *TripPlan) MapPoints() []MapPoint {
	if p == nil || p.Suggestions == nil {
		return nil
	}
	var points []MapPoint
	for _, h := range p.Suggestions.Hotels {
		if h.Address != "" {
			points = append(points, MapPoint{Kind: KindHotel, Name: h.Name, Address: h.Address, Detail: h.Reason})
		}
	}
	for _, r := range p.Suggestions.Restaurants {
		if r.Address != "" {
			points = append(points, MapPoint{Kind: KindRestaurant, Name: r.Name, Address: r.Address, Detail: r.Reason})
		}
	}
	for _, s := range p.Suggestions.Souvenirs {
		if s.Address != "" {
			points = append(points, MapPoint{Kind: KindSouvenir, Name: s.Name, Address: s.Address, Detail: s.Reason})
		}
	}
	for _, a := range p.Suggestions.Activities {
		if a.Address != "" {
			points = append(points, MapPoint{Kind: KindActivity, Name: a.Name, Address: a.Address, Detail: a.Description})
		}
	}
	return points
}

// HasEvent reports whether the plan carries everything the calendar link
// builder requires.
func (p *TripPlan) HasEvent() bool {
	return p != nil && p.Event != nil &&
		p.Event.Title != "" && p.Event.StartTime != "" && p.Event.EndTime != ""
}
