// Package geoloc reverse-geocodes a decimal-degree GPS coordinate into
// a city/state pair, supplementing the catalog's location tags beyond
// the raw latitude/longitude spec.md requires (SPEC_FULL.md §11).
package geoloc

import (
	"fmt"
	"strconv"

	"github.com/sams96/rgeo"
)

// Resolver wraps an rgeo dataset. Grounded on
// zach-capalbo-photofield's internal/image/source.go usage of
// rgeo.New(rgeo.Provinces10, rgeo.Cities10) and ReverseGeocode.
type Resolver struct {
	rg *rgeo.Rgeo
}

// New builds a Resolver backed by the province and city datasets.
func New() (*Resolver, error) {
	rg, err := rgeo.New(rgeo.Provinces10, rgeo.Cities10)
	if err != nil {
		return nil, fmt.Errorf("geoloc: building resolver: %w", err)
	}
	return &Resolver{rg: rg}, nil
}

// Location is the subset of rgeo's result the catalog's location tags
// use.
type Location struct {
	City     string
	Province string
}

// Reverse resolves decimal-degree latitude/longitude strings (as stored
// on an Image row) into a Location. Returns nil, nil when no match is
// found for the coordinate, rather than an error - an image simply has
// no reverse-geocoded city in that case.
func (r *Resolver) Reverse(latitude, longitude string) (*Location, error) {
	lat, err := strconv.ParseFloat(latitude, 64)
	if err != nil {
		return nil, fmt.Errorf("geoloc: invalid latitude %q: %w", latitude, err)
	}
	lng, err := strconv.ParseFloat(longitude, 64)
	if err != nil {
		return nil, fmt.Errorf("geoloc: invalid longitude %q: %w", longitude, err)
	}

	loc, err := r.rg.ReverseGeocode([]float64{lng, lat})
	if err != nil {
		return nil, nil
	}
	return &Location{City: loc.City, Province: loc.Province}, nil
}
