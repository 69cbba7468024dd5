package weather

import (
	"context"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/logger"
	"github.com/i474232898/vocal-weather/internal/outcome"
)

// Service is the weather stage: coordinates and a horizon in, hourly table out.
type Service struct {
	source  HourlySource
	maxDays int
	log     *zap.Logger
}

// NewService creates a new Service. maxDays caps the requested horizon.
func NewService(source HourlySource, maxDays int, log *zap.Logger) *Service {
	if maxDays < 1 {
		maxDays = 1
	}
	return &Service{source: source, maxDays: maxDays, log: logger.OrNop(log)}
}

// ForecastDays turns an extracted horizon into the number of forecast days to
// request: missing or non-positive horizons mean one day.
func ForecastDays(horizon *int, maxDays int) int {
	days := 1
	if horizon != nil && *horizon > 0 {
		days = *horizon
	}
	if days > maxDays {
		days = maxDays
	}
	return days
}

// Forecast fetches the hourly forecast. A missing coordinate fails the stage
// without calling the upstream.
func (s *Service) Forecast(ctx context.Context, lat, lon *float64, horizon *int) Result {
	days := ForecastDays(horizon, s.maxDays)
	res := Result{Horizon: days}

	if lat == nil || lon == nil {
		res.Outcome = outcome.Failure("no coordinates to forecast")
		return res
	}

	table, err := s.source.Hourly(ctx, *lat, *lon, days)
	if err != nil {
		s.log.Warn("weather forecast failed",
			zap.String("source", s.source.Name()),
			zap.Float64("lat", *lat),
			zap.Float64("lon", *lon),
			zap.Error(err),
		)
		res.Outcome = outcome.Failure(s.source.Name() + " service failed to return a forecast")
		return res
	}

	res.Outcome = outcome.Success()
	res.Table = table
	if len(table) > 0 {
		res.Data = DataOK
	}
	s.log.Debug("weather forecast fetched", zap.Int("rows", len(table)), zap.Int("days", days))
	return res
}
