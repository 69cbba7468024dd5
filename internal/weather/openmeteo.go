package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/cache"
	"github.com/i474232898/vocal-weather/internal/httpx"
	"github.com/i474232898/vocal-weather/internal/logger"
)

// hourlyVariables is the order of variables requested and read back.
var hourlyVariables = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"precipitation",
	"cloud_cover",
	"wind_speed_10m",
	"weather_code",
}

const openMeteoTimeLayout = "2006-01-02T15:04"

// HourlySource fetches an hourly forecast for a position.
type HourlySource interface {
	Name() string
	Hourly(ctx context.Context, lat, lon float64, days int) (Table, error)
}

// OpenMeteo fetches hourly forecasts from an Open-Meteo endpoint, caching raw
// responses for a fixed TTL.
type OpenMeteo struct {
	baseURL  string
	pastDays int
	client   *httpx.Client
	cache    cache.Cache
	ttl      time.Duration
	log      *zap.Logger
}

func NewOpenMeteo(baseURL string, pastDays int, client *httpx.Client, c cache.Cache, ttl time.Duration, log *zap.Logger) *OpenMeteo {
	return &OpenMeteo{
		baseURL:  baseURL,
		pastDays: pastDays,
		client:   client,
		cache:    c,
		ttl:      ttl,
		log:      logger.OrNop(log),
	}
}

func (p *OpenMeteo) Name() string {
	return "openmeteo"
}

type openMeteoPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    struct {
		Time               []string   `json:"time"`
		Temperature2m      []*float64 `json:"temperature_2m"`
		RelativeHumidity2m []*float64 `json:"relative_humidity_2m"`
		Precipitation      []*float64 `json:"precipitation"`
		CloudCover         []*float64 `json:"cloud_cover"`
		WindSpeed10m       []*float64 `json:"wind_speed_10m"`
		WeatherCode        []*float64 `json:"weather_code"`
	} `json:"hourly"`
}

func (p *OpenMeteo) requestURL(lat, lon float64, days int) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("hourly", strings.Join(hourlyVariables, ","))
	values.Set("timezone", "GMT")
	values.Set("past_days", strconv.Itoa(p.pastDays))
	values.Set("forecast_days", strconv.Itoa(days))
	return p.baseURL + "?" + values.Encode()
}

func (p *OpenMeteo) Hourly(ctx context.Context, lat, lon float64, days int) (Table, error) {
	u := p.requestURL(lat, lon, days)

	body, err := p.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	var payload openMeteoPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo response: %w", err)
	}
	return reshape(payload)
}

func (p *OpenMeteo) fetch(ctx context.Context, u string) ([]byte, error) {
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, u)
		if err != nil {
			p.log.Warn("weather cache read failed", zap.Error(err))
		} else if ok {
			p.log.Debug("weather cache hit", zap.String("url", u))
			return cached, nil
		}
	}

	resp, err := p.client.Do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("read openmeteo response: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, u, raw, p.ttl); err != nil {
			p.log.Warn("weather cache write failed", zap.Error(err))
		}
	}
	return raw, nil
}

// reshape turns the column-oriented hourly block into rows.
func reshape(payload openMeteoPayload) (Table, error) {
	h := payload.Hourly
	table := make(Table, 0, len(h.Time))

	for i, ts := range h.Time {
		t, err := time.ParseInLocation(openMeteoTimeLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid hourly timestamp %q: %w", ts, err)
		}

		row := HourlyRow{
			Time:               t,
			Temperature2m:      at(h.Temperature2m, i),
			RelativeHumidity2m: at(h.RelativeHumidity2m, i),
			Precipitation:      at(h.Precipitation, i),
			CloudCover:         at(h.CloudCover, i),
			WindSpeed10m:       at(h.WindSpeed10m, i),
			Condition:          ConditionUnknown,
		}
		if code := at(h.WeatherCode, i); code != nil {
			row.Condition = mapOpenMeteoCondition(int(*code))
		}
		table = append(table, row)
	}
	return table, nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func mapOpenMeteoCondition(code int) Condition {
	// WMO weather interpretation codes.
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}
