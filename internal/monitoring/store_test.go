package monitoring

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/vocal-weather/internal/config"
)

func strp(s string) *string     { return &s }
func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func sampleRecord() Record {
	return Record{
		RunID:           "3f1c2a8e-0000-4000-8000-000000000001",
		Timestamp:       "2026-10-19 08:30:00",
		SpeechStatus:    "Succeeded",
		SpeechText:      strp("quelle est la météo à Tours demain"),
		CityStatus:      "Succeeded",
		CityText:        strp("Tours"),
		HorizonStatus:   "Succeeded",
		HorizonCode:     200,
		HorizonDays:     intp(1),
		GeocodingStatus: "Succeeded",
		GeocodingCity:   "Tours",
		GeocodingLat:    floatp(47.39),
		GeocodingLon:    floatp(0.69),
		WeatherStatus:   "Succeeded",
		WeatherData:     strp("OK"),
		ForecastHorizon: 1,
		PipelineStatus:  "Succeeded",
	}
}

func newMockStore(t *testing.T, driver string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, driver, zaptest.NewLogger(t)), mock
}

func TestSaveCreatesTableOnceAndInserts(t *testing.T) {
	store, mock := newMockStore(t, "sqlite")
	r := sampleRecord()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS weather_app_monitoring")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weather_app_monitoring")).
		WithArgs(r.RunID, r.Timestamp, "Succeeded", "quelle est la météo à Tours demain",
			"Succeeded", "Tours", "Succeeded", 200, "1",
			"Succeeded", "Tours", 47.39, 0.69,
			"Succeeded", "OK", 1, "Succeeded").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weather_app_monitoring")).
		WillReturnResult(sqlmock.NewResult(2, 1))

	require.NoError(t, store.Save(context.Background(), r))
	require.NoError(t, store.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveFailedRunStoresNulls(t *testing.T) {
	store, mock := newMockStore(t, "sqlite")
	r := Record{
		RunID:           "run",
		Timestamp:       "2026-10-19 08:30:00",
		SpeechStatus:    "Failed. no speech recognized",
		CityStatus:      "Failed. no text to analyse",
		HorizonStatus:   "Failed. no text to analyse",
		GeocodingStatus: "Failed. no city from user input, Tours used as default value",
		GeocodingCity:   "Tours",
		WeatherStatus:   "Failed. no coordinates to forecast",
		ForecastHorizon: 1,
		PipelineStatus:  "Failed",
	}

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO").
		WithArgs("run", r.Timestamp, r.SpeechStatus, nil, r.CityStatus, nil, r.HorizonStatus, 0, nil,
			r.GeocodingStatus, "Tours", nil, nil, r.WeatherStatus, nil, 1, "Failed").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSchemaError(t *testing.T) {
	store, mock := newMockStore(t, "sqlite")
	mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)

	err := store.Save(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlaceholders(t *testing.T) {
	store, mock := newMockStore(t, "postgres")

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weather_app_monitoring WHERE timestamp < $1")).
		WithArgs("2026-09-19 08:30:00").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Prune(context.Background(), time.Date(2026, 9, 19, 8, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, store.rebind(insertSQL), "$17)")
}

func TestListScansRows(t *testing.T) {
	store, mock := newMockStore(t, "sqlite")

	cols := []string{
		"run_id", "timestamp", "speech_status", "speech_text", "extract_city_status", "extract_city_text",
		"extract_horizon_status", "extract_horizon_code", "extract_horizon_text",
		"geocoding_status", "geocoding_city", "geocoding_lat", "geocoding_lon",
		"weather_status", "weather_data", "forecast_horizon", "pipeline_status",
	}
	rows := sqlmock.NewRows(cols).
		AddRow("b", "2026-10-19 09:00:00", "Succeeded", "météo à Tours demain", "Succeeded", "Tours",
			"Succeeded", 200, "1", "Succeeded", "Tours", 47.39, 0.69, "Succeeded", "OK", 1, "Succeeded").
		AddRow("a", "2026-10-19 08:00:00", "Failed. no speech recognized", nil, "Failed", nil,
			"Failed", 0, nil, "Failed", "Tours", nil, nil, "Failed", nil, 1, "Failed")

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM weather_app_monitoring ORDER BY timestamp DESC LIMIT ?")).
		WithArgs(10).
		WillReturnRows(rows)

	got, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].RunID)
	require.NotNil(t, got[0].HorizonDays)
	assert.Equal(t, 1, *got[0].HorizonDays)
	assert.Equal(t, 47.39, *got[0].GeocodingLat)
	assert.Equal(t, "OK", *got[0].WeatherData)

	assert.Nil(t, got[1].SpeechText)
	assert.Nil(t, got[1].HorizonDays)
	assert.Nil(t, got[1].GeocodingLat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropTableResetsSchema(t *testing.T) {
	store, mock := newMockStore(t, "sqlite")

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS weather_app_monitoring").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.DropTable(context.Background()))
	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.DBConfig{
		Driver:         "sqlite",
		Path:           filepath.Join(t.TempDir(), "monitoring.db"),
		ConnectTimeout: 5 * time.Second,
	}

	store, err := Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	old := sampleRecord()
	old.RunID = "old"
	old.Timestamp = "2026-01-01 00:00:00"
	require.NoError(t, store.Save(ctx, old))
	require.NoError(t, store.Save(ctx, sampleRecord()))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, sampleRecord(), all[0])

	n, err := store.Prune(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.DropTable(ctx))
	all, err = store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}
