package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/cache"
	"github.com/i474232898/vocal-weather/internal/config"
	"github.com/i474232898/vocal-weather/internal/geocoding"
	"github.com/i474232898/vocal-weather/internal/httpx"
	"github.com/i474232898/vocal-weather/internal/logger"
	"github.com/i474232898/vocal-weather/internal/monitoring"
	"github.com/i474232898/vocal-weather/internal/ner"
	"github.com/i474232898/vocal-weather/internal/pipeline"
	"github.com/i474232898/vocal-weather/internal/speech"
	"github.com/i474232898/vocal-weather/internal/weather"
)

// weatherCacheSize bounds the in-memory forecast cache.
const weatherCacheSize = 256

// application holds the wired stages of one process.
type application struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	store    *monitoring.Store
	pipeline *pipeline.Pipeline
	closers  []func() error
}

// setup loads configuration and builds the logger shared by every command.
func setup() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

// openStore connects to the monitoring database, creating the SQLite
// directory when needed.
func openStore(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (*monitoring.Store, error) {
	if cfg.Driver == "sqlite" {
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}
	return monitoring.Open(ctx, cfg, log)
}

// newApplication wires every stage. When requireStore is false a database that
// cannot be reached only disables monitoring.
func newApplication(ctx context.Context, cfg *config.AppConfig, log *zap.Logger, reg prometheus.Registerer, requireStore bool) (*application, error) {
	a := &application{cfg: cfg, log: log}

	weatherCache, err := a.weatherCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	shared := httpx.SharedHTTPClient(cfg.HTTPTimeout)

	weatherHTTP, err := httpx.NewClient(httpx.Config{
		Name:   "openmeteo",
		Client: shared,
		Backoff: httpx.BackoffConfig{
			MaxRetries:      cfg.Weather.MaxRetries,
			InitialInterval: cfg.Weather.BackoffInitial,
			MaxInterval:     cfg.Weather.BackoffMax,
		},
		Logger: log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("weather client: %w", err)
	}

	forecaster := weather.NewService(
		weather.NewOpenMeteo(cfg.Weather.BaseURL, cfg.Weather.PastDays, weatherHTTP, weatherCache, cfg.Weather.CacheTTL, log),
		cfg.Weather.MaxForecastDays,
		log,
	)

	geocoder, err := newGeocoder(cfg, shared, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	extractor := ner.NewExtractor(
		ner.NewClient(cfg.NER.APIURL, cfg.NER.APIToken, httpx.SharedHTTPClient(cfg.NER.Timeout), log),
		ner.NaturalDateParser{Languages: cfg.NER.DateLanguages},
	)

	deps := pipeline.Deps{
		Recognizer: speech.New(cfg.Speech, httpx.SharedHTTPClient(cfg.Speech.Timeout), log),
		Extractor:  extractor,
		Locator:    geocoding.NewService(geocoder, cfg.Geocoding.DefaultCity, log),
		Forecaster: forecaster,
		Metrics:    pipeline.NewMetrics(reg),
		Logger:     log,
	}

	store, err := openStore(ctx, cfg.DB, log)
	switch {
	case err == nil:
		a.store = store
		a.closers = append(a.closers, store.Close)
		deps.Recorder = store
	case requireStore:
		a.Close()
		return nil, err
	default:
		log.Error("monitoring database unavailable; runs will not be recorded", zap.Error(err))
	}

	a.pipeline = pipeline.New(deps)
	return a, nil
}

func (a *application) weatherCache(ctx context.Context) (cache.Cache, error) {
	if a.cfg.Weather.RedisAddr == "" {
		return cache.NewMemoryCache(weatherCacheSize), nil
	}

	client, err := cache.DialRedis(ctx, a.cfg.Weather.RedisAddr, a.cfg.Weather.RedisPassword, a.cfg.Weather.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.log.Info("weather cache backed by redis", zap.String("addr", a.cfg.Weather.RedisAddr))
	return cache.NewRedisCache(client, "vocal-weather:forecast:"), nil
}

func newGeocoder(cfg *config.AppConfig, shared *http.Client, log *zap.Logger) (geocoding.Geocoder, error) {
	if cfg.Geocoding.GoogleAPIKey != "" {
		return geocoding.NewGoogle(cfg.Geocoding.GoogleAPIKey), nil
	}

	client, err := httpx.NewClient(httpx.Config{
		Name:   "nominatim",
		Client: shared,
		Backoff: httpx.BackoffConfig{
			MaxRetries:      2,
			InitialInterval: cfg.Weather.BackoffInitial,
			MaxInterval:     cfg.Weather.BackoffMax,
		},
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("geocoding client: %w", err)
	}
	return geocoding.NewNominatim(cfg.Geocoding.NominatimURL, cfg.Geocoding.UserAgent, client), nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
