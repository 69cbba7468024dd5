package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/config"
	"github.com/i474232898/vocal-weather/internal/logger"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS weather_app_monitoring (
	run_id VARCHAR(36) NOT NULL,
	timestamp VARCHAR(100) NOT NULL,
	speech_status VARCHAR(255),
	speech_text VARCHAR(1000),
	extract_city_status VARCHAR(255),
	extract_city_text VARCHAR(1000),
	extract_horizon_status VARCHAR(255),
	extract_horizon_code INTEGER,
	extract_horizon_text VARCHAR(1000),
	geocoding_status VARCHAR(255),
	geocoding_city VARCHAR(1000),
	geocoding_lat DOUBLE PRECISION,
	geocoding_lon DOUBLE PRECISION,
	weather_status VARCHAR(255),
	weather_data VARCHAR(100),
	forecast_horizon INTEGER,
	pipeline_status VARCHAR(1000)
)`

const columns = `run_id, timestamp, speech_status, speech_text, extract_city_status, extract_city_text,
	extract_horizon_status, extract_horizon_code, extract_horizon_text,
	geocoding_status, geocoding_city, geocoding_lat, geocoding_lon,
	weather_status, weather_data, forecast_horizon, pipeline_status`

const insertSQL = `INSERT INTO weather_app_monitoring (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectSQL = `SELECT ` + columns + ` FROM weather_app_monitoring ORDER BY timestamp DESC`

// Store persists monitoring records in a SQL database.
type Store struct {
	db     *sql.DB
	driver string
	log    *zap.Logger

	schemaMu sync.Mutex
	schemaOK bool
}

// Open connects to the monitoring database described by cfg.
func Open(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (*Store, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	return NewStore(db, cfg.Driver, log), nil
}

// NewStore wraps an existing connection. driver selects the placeholder style.
func NewStore(db *sql.DB, driver string, log *zap.Logger) *Store {
	return &Store{db: db, driver: driver, log: logger.OrNop(log)}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EnsureSchema creates the monitoring table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaOK {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create monitoring table: %w", err)
	}
	s.schemaOK = true
	return nil
}

// Save appends one record.
func (s *Store) Save(ctx context.Context, r Record) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.rebind(insertSQL),
		r.RunID,
		r.Timestamp,
		r.SpeechStatus,
		r.SpeechText,
		r.CityStatus,
		r.CityText,
		r.HorizonStatus,
		r.HorizonCode,
		horizonText(r.HorizonDays),
		r.GeocodingStatus,
		r.GeocodingCity,
		r.GeocodingLat,
		r.GeocodingLon,
		r.WeatherStatus,
		r.WeatherData,
		r.ForecastHorizon,
		r.PipelineStatus,
	)
	if err != nil {
		return fmt.Errorf("insert monitoring record: %w", err)
	}

	s.log.Debug("monitoring record saved", zap.String("run_id", r.RunID))
	return nil
}

// List returns the most recent records first. limit <= 0 returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	query := selectSQL
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query monitoring records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r           Record
			speechText  sql.NullString
			cityText    sql.NullString
			horizonCode sql.NullInt64
			horizonTxt  sql.NullString
			geoCity     sql.NullString
			lat, lon    sql.NullFloat64
			weatherData sql.NullString
			forecastH   sql.NullInt64
		)
		if err := rows.Scan(
			&r.RunID, &r.Timestamp,
			&r.SpeechStatus, &speechText,
			&r.CityStatus, &cityText,
			&r.HorizonStatus, &horizonCode, &horizonTxt,
			&r.GeocodingStatus, &geoCity, &lat, &lon,
			&r.WeatherStatus, &weatherData, &forecastH,
			&r.PipelineStatus,
		); err != nil {
			return nil, fmt.Errorf("scan monitoring record: %w", err)
		}

		r.SpeechText = nullString(speechText)
		r.CityText = nullString(cityText)
		r.HorizonCode = int(horizonCode.Int64)
		r.HorizonDays = parseHorizon(horizonTxt)
		r.GeocodingCity = geoCity.String
		r.GeocodingLat = nullFloat(lat)
		r.GeocodingLon = nullFloat(lon)
		r.WeatherData = nullString(weatherData)
		r.ForecastHorizon = int(forecastH.Int64)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monitoring records: %w", err)
	}
	return out, nil
}

// Prune deletes records older than before and returns how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM weather_app_monitoring WHERE timestamp < ?`),
		before.UTC().Format(TimestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune monitoring records: %w", err)
	}
	return res.RowsAffected()
}

// DropTable removes the monitoring table; the next write recreates it.
func (s *Store) DropTable(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS weather_app_monitoring`); err != nil {
		return fmt.Errorf("drop monitoring table: %w", err)
	}
	s.schemaOK = false
	return nil
}

func horizonText(days *int) interface{} {
	if days == nil {
		return nil
	}
	return strconv.Itoa(*days)
}

func parseHorizon(v sql.NullString) *int {
	if !v.Valid {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.String))
	if err != nil {
		return nil
	}
	return &n
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
