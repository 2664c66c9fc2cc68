package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested listing or property is absent from the
// store. Callers recover locally by falling through to the next matching
// stage; it never crosses the service boundary as a hard failure.
var ErrNotFound = errors.New("record not found")

// ErrUnavailable indicates the store itself could not be reached
var ErrUnavailable = errors.New("store unavailable")

// Property is a canonical property record, read-only for the matching core
type Property struct {
	PropertyID        string
	TeamID            string
	StreetPart        string
	UnitPart          string
	City              string
	State             string
	Zipcode           string
	FullAddress       string
	AddressCanonical  string
	BuildingCanonical string
	TokenSet          string
	TypeNorm          string
}

// Listing is a free-form listing record awaiting resolution. PropertyID is
// empty until the listing has been resolved; a non-empty value is ground
// truth and must never be re-matched.
type Listing struct {
	ListingID         string
	PropertyID        string
	TeamID            string
	StreetPart        string
	UnitPart          string
	City              string
	State             string
	Zipcode           string
	FullAddress       string
	AddressCanonical  string
	BuildingCanonical string
	TokenSet          string
}

// Stats summarizes store contents for the stats endpoint
type Stats struct {
	Properties       int `json:"properties"`
	Listings         int `json:"listings"`
	ResolvedListings int `json:"resolved_listings"`
	Teams            int `json:"teams"`
}

// Gateway is the matching core's only access path to the relational store.
// Implementations may back it with any persistent store.
type Gateway interface {
	// GetListingProperty returns the stored property_id for a listing, or
	// empty string when the listing exists but is unresolved. Returns
	// ErrNotFound when the listing itself is absent.
	GetListingProperty(ctx context.Context, listingID string) (string, error)

	// FindExact returns the property whose canonical address equals the
	// given one within a team. Returns ErrNotFound when no property matches.
	FindExact(ctx context.Context, teamID, addressCanonical string) (string, error)

	// FindBuilding is the building-level variant of FindExact, comparing
	// unit-stripped canonical addresses.
	FindBuilding(ctx context.Context, teamID, buildingCanonical string) (string, error)

	// ListProperties returns every property belonging to a team
	ListProperties(ctx context.Context, teamID string) ([]Property, error)

	// ListListings returns all listings in stable store order
	ListListings(ctx context.Context) ([]Listing, error)

	// SaveResolution records a resolved property_id and confidence on a listing
	SaveResolution(ctx context.Context, listingID, propertyID string, confidence float64) error
}
