package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/logger"
	"github.com/i474232898/vocal-weather/internal/outcome"
)

// ErrNotFound is returned when the backend has no coordinates for the query.
var ErrNotFound = errors.New("no coordinates found")

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, city string) (Coordinates, error)
}

// Result is the geocoding stage output. City is the name actually geocoded,
// which is the default city when none was extracted.
type Result struct {
	Outcome outcome.Outcome `json:"outcome"`
	City    string          `json:"city"`
	Lat     *float64        `json:"lat,omitempty"`
	Lon     *float64        `json:"lon,omitempty"`
}

// HasCoordinates reports whether both coordinates are present.
func (r Result) HasCoordinates() bool {
	return r.Lat != nil && r.Lon != nil
}

// Service wraps a Geocoder with the default-city fallback.
type Service struct {
	geocoder    Geocoder
	defaultCity string
	log         *zap.Logger
}

func NewService(g Geocoder, defaultCity string, log *zap.Logger) *Service {
	return &Service{geocoder: g, defaultCity: defaultCity, log: logger.OrNop(log)}
}

// Locate geocodes city, substituting the default city when city is empty. The
// stage is marked failed in that case even if the default resolves.
func (s *Service) Locate(ctx context.Context, city string) Result {
	res := Result{Outcome: outcome.Success(), City: strings.TrimSpace(city)}
	if res.City == "" {
		res.City = s.defaultCity
		res.Outcome = outcome.Failure(fmt.Sprintf("no city from user input, %s used as default value", s.defaultCity))
	}

	coords, err := s.geocoder.Geocode(ctx, res.City)
	if err != nil || (coords.Lat == 0 && coords.Lon == 0) {
		s.log.Warn("geocoding failed",
			zap.String("backend", s.geocoder.Name()),
			zap.String("city", res.City),
			zap.Error(err),
		)
		// Keep the default-city note when the fallback lookup fails too.
		res.Outcome = outcome.All(res.Outcome, outcome.Failure(s.geocoder.Name()+" service failed to return coordinates"))
		return res
	}

	lat, lon := coords.Lat, coords.Lon
	res.Lat, res.Lon = &lat, &lon
	s.log.Debug("city geocoded", zap.String("city", res.City), zap.Float64("lat", lat), zap.Float64("lon", lon))
	return res
}
