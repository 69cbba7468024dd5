package ner

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/outcome"
)

// CityResult is the city-extraction output. City is empty on failure.
type CityResult struct {
	Outcome outcome.Outcome `json:"outcome"`
	City    string          `json:"city,omitempty"`
}

// Extractor pulls the city and the forecast horizon out of a transcript.
type Extractor struct {
	client *Client
	dates  DateParser
	log    *zap.Logger
}

func NewExtractor(client *Client, dates DateParser) *Extractor {
	return &Extractor{client: client, dates: dates, log: client.log}
}

// Extract runs the model once over text and derives both the city and the
// horizon from the returned entities. Empty text fails both without a call.
func (x *Extractor) Extract(ctx context.Context, text string, now time.Time) (CityResult, HorizonResult) {
	if strings.TrimSpace(text) == "" {
		return CityResult{Outcome: outcome.Failure("no text to analyse")},
			HorizonResult{Outcome: outcome.Failure("no text to analyse")}
	}

	entities, code, err := x.client.Entities(ctx, text)
	if err != nil {
		x.log.Warn("entity extraction failed", zap.Int("code", code), zap.Error(err))
		failed := outcome.Failure("entity extraction service failed")
		return CityResult{Outcome: failed}, HorizonResult{Outcome: failed, Code: code}
	}

	return x.city(entities), x.horizon(entities, code, now)
}

// city picks the first location entity.
func (x *Extractor) city(entities []Entity) CityResult {
	loc, ok := first(entities, GroupLocation, GroupGPE)
	if !ok || strings.TrimSpace(loc.Word) == "" {
		return CityResult{Outcome: outcome.Failure("no location found")}
	}

	city := strings.TrimSpace(loc.Word)
	x.log.Debug("city extracted", zap.String("city", city))
	return CityResult{Outcome: outcome.Success(), City: city}
}
