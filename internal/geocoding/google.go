package geocoding

import (
	"context"
	"errors"
	"sync"

	"github.com/kelvins/geocoder"
)

// geocoder keeps its API key in a package variable.
var googleMu sync.Mutex

// Google geocodes through the Google Maps Geocoding API.
type Google struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogle(apiKey string) *Google {
	return &Google{apiKey: apiKey, lookup: geocoder.Geocoding}
}

func (g *Google) Name() string {
	return "google"
}

func (g *Google) Geocode(ctx context.Context, city string) (Coordinates, error) {
	if g.apiKey == "" {
		return Coordinates{}, errors.New("google geocoder api key is not configured")
	}
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}

	googleMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := g.lookup(geocoder.Address{City: city})
	googleMu.Unlock()

	if err != nil {
		return Coordinates{}, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return Coordinates{}, ErrNotFound
	}
	return Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
