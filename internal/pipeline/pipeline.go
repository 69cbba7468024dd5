package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/geocoding"
	"github.com/i474232898/vocal-weather/internal/logger"
	"github.com/i474232898/vocal-weather/internal/monitoring"
	"github.com/i474232898/vocal-weather/internal/ner"
	"github.com/i474232898/vocal-weather/internal/outcome"
	"github.com/i474232898/vocal-weather/internal/speech"
	"github.com/i474232898/vocal-weather/internal/weather"
)

// EntityExtractor finds the city and the horizon in a transcript.
type EntityExtractor interface {
	Extract(ctx context.Context, text string, now time.Time) (ner.CityResult, ner.HorizonResult)
}

// Locator geocodes a city, falling back to a default one.
type Locator interface {
	Locate(ctx context.Context, city string) geocoding.Result
}

// Forecaster fetches the forecast for a position.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon *float64, horizon *int) weather.Result
}

// Recorder persists one monitoring record per run.
type Recorder interface {
	Save(ctx context.Context, r monitoring.Record) error
}

// Deps are the stage implementations the pipeline calls in order.
type Deps struct {
	Recognizer speech.Recognizer
	Extractor  EntityExtractor
	Locator    Locator
	Forecaster Forecaster
	// Recorder may be nil, in which case runs are not persisted.
	Recorder Recorder
	Metrics  *Metrics
	Logger   *zap.Logger
}

// Pipeline runs speech → entities → geocoding → forecast → monitoring sequentially.
type Pipeline struct {
	deps  Deps
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func New(deps Deps) *Pipeline {
	return &Pipeline{
		deps:  deps,
		log:   logger.OrNop(deps.Logger),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run is everything one pipeline execution produced.
type Run struct {
	ID        string            `json:"runId"`
	StartedAt time.Time         `json:"startedAt"`
	Speech    speech.Result     `json:"speech"`
	City      ner.CityResult    `json:"city"`
	Horizon   ner.HorizonResult `json:"horizon"`
	Geocoding geocoding.Result  `json:"geocoding"`
	Weather   weather.Result    `json:"weather"`
	Outcome   outcome.Outcome   `json:"outcome"`
	// Stored reports whether the monitoring row was written.
	Stored bool `json:"stored"`
}

// Run transcribes audio and runs every stage. It never fails: stage failures
// degrade into empty values recorded in the returned Run.
func (p *Pipeline) Run(ctx context.Context, audio io.Reader) Run {
	var sp speech.Result
	if p.deps.Recognizer == nil {
		sp = speech.Result{Outcome: outcome.Failure("no speech recognizer configured"), Reason: speech.ReasonCanceled}
	} else {
		sp = p.deps.Recognizer.Recognize(ctx, audio)
	}
	return p.run(ctx, sp)
}

// RunText starts from an already transcribed command.
func (p *Pipeline) RunText(ctx context.Context, text string) Run {
	return p.run(ctx, speech.FromText(text))
}

func (p *Pipeline) run(ctx context.Context, sp speech.Result) Run {
	started := p.now()
	run := Run{ID: p.newID(), StartedAt: started.UTC(), Speech: sp}
	log := p.log.With(zap.String("run_id", run.ID))

	p.deps.Metrics.observe(StageSpeech, sp.Outcome)
	log.Info("speech stage done", zap.Stringer("status", sp.Outcome), zap.String("text", sp.Text))

	run.City, run.Horizon = p.deps.Extractor.Extract(ctx, sp.Text, started)
	p.deps.Metrics.observe(StageCity, run.City.Outcome)
	log.Info("city extraction done", zap.Stringer("status", run.City.Outcome), zap.String("city", run.City.City))

	p.deps.Metrics.observe(StageHorizon, run.Horizon.Outcome)
	log.Info("horizon extraction done",
		zap.Stringer("status", run.Horizon.Outcome),
		zap.Int("code", run.Horizon.Code),
		zap.Intp("days", run.Horizon.Days),
	)

	run.Geocoding = p.deps.Locator.Locate(ctx, run.City.City)
	p.deps.Metrics.observe(StageGeocoding, run.Geocoding.Outcome)
	log.Info("geocoding done",
		zap.Stringer("status", run.Geocoding.Outcome),
		zap.String("city", run.Geocoding.City),
		zap.Float64p("lat", run.Geocoding.Lat),
		zap.Float64p("lon", run.Geocoding.Lon),
	)

	run.Weather = p.deps.Forecaster.Forecast(ctx, run.Geocoding.Lat, run.Geocoding.Lon, run.Horizon.Days)
	p.deps.Metrics.observe(StageWeather, run.Weather.Outcome)
	log.Info("weather forecast done",
		zap.Stringer("status", run.Weather.Outcome),
		zap.Int("horizon", run.Weather.Horizon),
		zap.Int("rows", len(run.Weather.Table)),
	)

	run.Outcome = outcome.All(
		sp.Outcome,
		run.City.Outcome,
		run.Horizon.Outcome,
		run.Geocoding.Outcome,
		run.Weather.Outcome,
	)

	if p.deps.Recorder != nil {
		if err := p.deps.Recorder.Save(ctx, run.Record()); err != nil {
			p.deps.Metrics.observe(StageStorage, outcome.Failure(err.Error()))
			log.Error("data not saved to monitoring database", zap.Error(err))
		} else {
			p.deps.Metrics.observe(StageStorage, outcome.Success())
			run.Stored = true
		}
	}

	p.deps.Metrics.observeRun(p.now().Sub(started).Seconds())
	log.Info("pipeline run finished", zap.Stringer("status", run.Outcome), zap.Bool("stored", run.Stored))
	return run
}

// Record flattens the run into its monitoring row.
func (r Run) Record() monitoring.Record {
	rec := monitoring.Record{
		RunID:     r.ID,
		Timestamp: r.StartedAt.UTC().Format(monitoring.TimestampLayout),

		SpeechStatus: r.Speech.Outcome.String(),
		SpeechText:   optional(r.Speech.Text),

		CityStatus: r.City.Outcome.String(),
		CityText:   optional(r.City.City),

		HorizonStatus: r.Horizon.Outcome.String(),
		HorizonCode:   r.Horizon.Code,
		HorizonDays:   r.Horizon.Days,

		GeocodingStatus: r.Geocoding.Outcome.String(),
		GeocodingCity:   r.Geocoding.City,
		GeocodingLat:    r.Geocoding.Lat,
		GeocodingLon:    r.Geocoding.Lon,

		WeatherStatus:   r.Weather.Outcome.String(),
		WeatherData:     optional(r.Weather.Data),
		ForecastHorizon: r.Weather.Horizon,

		PipelineStatus: r.Outcome.String(),
	}
	return rec
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
