package weather

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/vocal-weather/internal/cache"
	"github.com/i474232898/vocal-weather/internal/httpx"
)

const hourlyBody = `{
	"latitude": 47.38,
	"longitude": 0.68,
	"timezone": "GMT",
	"hourly": {
		"time": ["2026-10-19T00:00", "2026-10-19T01:00", "2026-10-19T02:00"],
		"temperature_2m": [11.2, 10.8, null],
		"relative_humidity_2m": [88, 90, 91],
		"precipitation": [0.0, 0.2, 0.0],
		"cloud_cover": [100, 75, 20],
		"wind_speed_10m": [12.5, 11.0, 9.4],
		"weather_code": [3, 61, 0]
	}
}`

func newHTTPX(t *testing.T) *httpx.Client {
	t.Helper()
	c, err := httpx.NewClient(httpx.Config{
		Name:    "openmeteo",
		Client:  &http.Client{Timeout: 2 * time.Second},
		Backoff: httpx.BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond},
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return c
}

func float(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func TestOpenMeteoHourly(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "47.39", q.Get("latitude"))
		assert.Equal(t, "0.69", q.Get("longitude"))
		assert.Equal(t, "GMT", q.Get("timezone"))
		assert.Equal(t, "2", q.Get("past_days"))
		assert.Equal(t, "3", q.Get("forecast_days"))
		assert.Equal(t, "temperature_2m,relative_humidity_2m,precipitation,cloud_cover,wind_speed_10m,weather_code", q.Get("hourly"))
		_, _ = io.WriteString(w, hourlyBody)
	}))
	defer srv.Close()

	om := NewOpenMeteo(srv.URL, 2, newHTTPX(t), cache.NewMemoryCache(10), time.Hour, zaptest.NewLogger(t))

	table, err := om.Hourly(context.Background(), 47.39, 0.69, 3)
	require.NoError(t, err)
	require.Len(t, table, 3)

	assert.Equal(t, time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC), table[1].Time)
	assert.Equal(t, 10.8, *table[1].Temperature2m)
	assert.Equal(t, 0.2, *table[1].Precipitation)
	assert.Equal(t, ConditionRain, table[1].Condition)
	assert.Equal(t, ConditionCloudy, table[0].Condition)
	assert.Nil(t, table[2].Temperature2m)
	assert.Equal(t, 9.4, *table[2].WindSpeed10m)

	// Second identical request is served from the cache.
	_, err = om.Hourly(context.Background(), 47.39, 0.69, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenMeteoRetriesThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	om := NewOpenMeteo(srv.URL, 2, newHTTPX(t), nil, time.Hour, zaptest.NewLogger(t))
	_, err := om.Hourly(context.Background(), 1, 2, 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReshapeRejectsBadTimestamps(t *testing.T) {
	var p openMeteoPayload
	p.Hourly.Time = []string{"yesterday"}
	_, err := reshape(p)
	assert.Error(t, err)
}

func TestMapOpenMeteoCondition(t *testing.T) {
	cases := map[int]Condition{
		0: ConditionClear, 2: ConditionCloudy, 45: ConditionFog, 63: ConditionRain,
		81: ConditionRain, 73: ConditionSnow, 86: ConditionSnow, 95: ConditionStorm, 30: ConditionUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, mapOpenMeteoCondition(code), "code %d", code)
	}
}

func TestForecastDays(t *testing.T) {
	assert.Equal(t, 1, ForecastDays(nil, 4))
	assert.Equal(t, 1, ForecastDays(intp(0), 4))
	assert.Equal(t, 1, ForecastDays(intp(-3), 4))
	assert.Equal(t, 3, ForecastDays(intp(3), 4))
	assert.Equal(t, 4, ForecastDays(intp(9), 4))
}

type stubSource struct {
	table Table
	err   error
	calls int
	days  int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Hourly(_ context.Context, _, _ float64, days int) (Table, error) {
	s.calls++
	s.days = days
	return s.table, s.err
}

func TestServiceForecast(t *testing.T) {
	src := &stubSource{table: Table{{Time: time.Now().UTC()}}}
	res := NewService(src, 4, zaptest.NewLogger(t)).Forecast(context.Background(), float(47.39), float(0.69), intp(2))

	assert.True(t, res.Outcome.OK())
	assert.Equal(t, DataOK, res.Data)
	assert.Equal(t, 2, res.Horizon)
	assert.Equal(t, 2, src.days)
	assert.Len(t, res.Table, 1)
}

func TestServiceForecastEmptyTable(t *testing.T) {
	res := NewService(&stubSource{}, 4, nil).Forecast(context.Background(), float(1), float(2), nil)
	assert.True(t, res.Outcome.OK())
	assert.Empty(t, res.Data)
	assert.Equal(t, 1, res.Horizon)
}

func TestServiceForecastFailures(t *testing.T) {
	src := &stubSource{}
	res := NewService(src, 4, nil).Forecast(context.Background(), nil, float(0.69), intp(2))
	assert.False(t, res.Outcome.OK())
	assert.Equal(t, 0, src.calls)
	assert.Empty(t, res.Data)

	src = &stubSource{err: errors.New("down")}
	res = NewService(src, 4, zaptest.NewLogger(t)).Forecast(context.Background(), float(1), float(2), nil)
	assert.False(t, res.Outcome.OK())
	assert.Nil(t, res.Table)
	assert.Equal(t, 1, src.calls)
}
