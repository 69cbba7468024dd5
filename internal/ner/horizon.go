package ner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/outcome"
)

// HorizonResult is the horizon-extraction output. Code is the upstream HTTP status
// (0 when no call was made); Days is nil on failure.
type HorizonResult struct {
	Outcome  outcome.Outcome `json:"outcome"`
	Code     int             `json:"code"`
	Days     *int            `json:"days,omitempty"`
	DateText string          `json:"dateText,omitempty"`
}

// DateParser resolves a free-form date span relative to now.
type DateParser interface {
	ParseDate(span string, now time.Time) (time.Time, error)
}

// NaturalDateParser parses absolute and relative dates ("7 mars 2024", "demain").
type NaturalDateParser struct {
	Languages []string
}

func (p NaturalDateParser) ParseDate(span string, now time.Time) (time.Time, error) {
	cfg := &dps.Configuration{
		Languages:   p.Languages,
		CurrentTime: now,
		// A bare weekday or month means the next one, not the last.
		PreferredDateSource: dps.Future,
	}
	dt, err := dps.Parse(cfg, span)
	if err != nil {
		return time.Time{}, err
	}
	if dt.Time.IsZero() {
		return time.Time{}, errors.New("no date found")
	}
	return dt.Time, nil
}

// HorizonDays is the calendar difference between the day of target and the day
// of now, both taken in now's location: later today is 0, any time tomorrow is 1
// and yesterday is -1.
func HorizonDays(target, now time.Time) int {
	ty, tm, td := target.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(n) / (24 * time.Hour))
}

// horizon converts the first DATE entity into a day offset from now. code is
// the status of the inference call the entities came from.
func (x *Extractor) horizon(entities []Entity, code int, now time.Time) HorizonResult {
	date, ok := first(entities, GroupDate)
	if !ok || strings.TrimSpace(date.Word) == "" {
		return HorizonResult{Outcome: outcome.Failure("no date found"), Code: code}
	}
	span := strings.TrimSpace(date.Word)

	when, err := x.dates.ParseDate(span, now)
	if err != nil {
		x.log.Warn("date span not understood", zap.String("span", span), zap.Error(err))
		return HorizonResult{
			Outcome:  outcome.Failure(fmt.Sprintf("unparsable date %q", span)),
			Code:     code,
			DateText: span,
		}
	}

	days := HorizonDays(when, now)
	x.log.Debug("horizon extracted", zap.String("span", span), zap.Int("days", days))
	return HorizonResult{Outcome: outcome.Success(), Code: code, Days: &days, DateText: span}
}
