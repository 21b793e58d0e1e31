package domain

import "time"

type PropertyType string

const (
	PropertyTypeSale PropertyType = "sale"
	PropertyTypeRent PropertyType = "rent"
)

func (t PropertyType) Valid() bool {
	return t == PropertyTypeSale || t == PropertyTypeRent
}

type Property struct {
	ID          string
	Title       string
	Location    string
	Description string
	Price       float64
	Type        PropertyType
	Beds        float64
	Baths       float64
	Area        float64
	Garages     int
	IPTU        *float64
	Condo       *float64
	Image       string
	Gallery     []string
	Featured    bool
	UpdatedAt   time.Time
	UpdatedBy   string
}

// Filter is the type-based inclusion predicate applied to a snapshot.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterSale Filter = Filter(PropertyTypeSale)
	FilterRent Filter = Filter(PropertyTypeRent)
)

// ParseFilter never fails: anything other than "all", "sale" or "rent"
// is treated as no filter.
func ParseFilter(v any) Filter {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case Filter:
		s = string(t)
	case PropertyType:
		s = string(t)
	default:
		return FilterAll
	}

	switch f := Filter(s); f {
	case FilterAll, FilterSale, FilterRent:
		return f
	default:
		return FilterAll
	}
}

// Match reports whether the property type passes the filter.
func (f Filter) Match(t PropertyType) bool {
	if f == FilterAll {
		return true
	}
	return PropertyType(f) == t
}

// PropertyDraft is the admin form payload. An empty ID means a new listing.
type PropertyDraft struct {
	ID          string
	Title       string
	Location    string
	Description string
	Price       float64
	Type        PropertyType
	Beds        float64
	Baths       float64
	Area        float64
	Garages     int
	IPTU        float64
	Condo       float64
	Image       string
	NewGallery  []string
	Featured    bool
}

type PropertyCommandKind string

const (
	CommandUpsert       PropertyCommandKind = "upsert"
	CommandDelete       PropertyCommandKind = "delete"
	CommandClearGallery PropertyCommandKind = "clear_gallery"
)

type PropertyCommand struct {
	Kind       PropertyCommandKind
	PropertyID string
	Property   *Property
}
