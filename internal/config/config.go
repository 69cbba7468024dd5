package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// SpeechConfig holds credentials for the speech-to-text backends.
type SpeechConfig struct {
	Provider    string `envconfig:"SPEECH_PROVIDER" default:"azure"`
	AzureKey    string `envconfig:"AZURE_SPEECH_KEY"`
	AzureRegion string `envconfig:"AZURE_SPEECH_REGION"`
	Language    string `envconfig:"AZURE_SPEECH_LANG" default:"fr-FR"`

	// Azure endpoint override, mostly useful for tests and sovereign clouds.
	AzureEndpoint string `envconfig:"AZURE_SPEECH_ENDPOINT"`

	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	WhisperModel  string `envconfig:"WHISPER_MODEL" default:"whisper-1"`

	Timeout time.Duration `envconfig:"SPEECH_TIMEOUT" default:"30s"`
}

// NERConfig points at the hosted token-classification model.
type NERConfig struct {
	APIURL   string        `envconfig:"HF_API_URL" default:"https://api-inference.huggingface.co/models/Jean-Baptiste/camembert-ner-with-dates"`
	APIToken string        `envconfig:"HF_USER_ACCESS_TOKENS"`
	Timeout  time.Duration `envconfig:"HF_TIMEOUT" default:"30s"`
	// DateLanguages are the languages tried when parsing the DATE span.
	DateLanguages []string `envconfig:"NER_DATE_LANGUAGES" default:"fr,en"`
}

// GeocodingConfig selects and configures the geocoding backend.
type GeocodingConfig struct {
	NominatimURL string `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent    string `envconfig:"GEOCODER_USER_AGENT" default:"vocal_weather_app"`
	// GoogleAPIKey switches geocoding to the Google backend when set.
	GoogleAPIKey string `envconfig:"GEOCODER_API_KEY"`
	DefaultCity  string `envconfig:"DEFAULT_CITY" default:"Tours"`
}

// WeatherConfig configures the Open-Meteo client and its response cache.
type WeatherConfig struct {
	BaseURL         string        `envconfig:"WEATHER_API_URL" default:"https://api.open-meteo.com/v1/meteofrance"`
	PastDays        int           `envconfig:"WEATHER_PAST_DAYS" default:"2"`
	MaxForecastDays int           `envconfig:"WEATHER_MAX_FORECAST_DAYS" default:"4"`
	CacheTTL        time.Duration `envconfig:"WEATHER_CACHE_TTL" default:"1h"`
	MaxRetries      int           `envconfig:"WEATHER_MAX_RETRIES" default:"5"`
	BackoffInitial  time.Duration `envconfig:"WEATHER_BACKOFF_INITIAL" default:"200ms"`
	BackoffMax      time.Duration `envconfig:"WEATHER_BACKOFF_MAX" default:"5s"`

	// RedisAddr enables the shared Redis cache; empty means in-memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// DBConfig holds the monitoring database credentials.
type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	Server   string `envconfig:"DB_SERVER" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"vocal_weather"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"require"`
	Path     string `envconfig:"DB_PATH" default:"data/monitoring.db"`

	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"30s"`
}

// DSN builds the driver specific connection string.
func (c DBConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d",
			quoteDSN(c.Server), c.Port, quoteDSN(c.Name), quoteDSN(c.User), quoteDSN(c.Password),
			quoteDSN(c.SSLMode), int(c.ConnectTimeout.Seconds()),
		)
	default:
		return c.Path + "?_pragma=busy_timeout(5000)"
	}
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteDSN single-quotes a libpq key=value value so spaces and quotes survive.
func quoteDSN(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

// AppConfig is the explicit configuration handed to every stage.
type AppConfig struct {
	Speech    SpeechConfig    `ignored:"true"`
	NER       NERConfig       `ignored:"true"`
	Geocoding GeocodingConfig `ignored:"true"`
	Weather   WeatherConfig   `ignored:"true"`
	DB        DBConfig        `ignored:"true"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	Port        string        `envconfig:"PORT" default:"8080"`

	// MonitoringRetention drops monitoring rows older than this (0 = keep forever).
	MonitoringRetention time.Duration `envconfig:"MONITORING_RETENTION" default:"720h"`
	// PruneInterval controls how often the retention job runs.
	PruneInterval time.Duration `envconfig:"PRUNE_INTERVAL" default:"1h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads configuration from the environment (and .env if present) with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv processes the current environment without touching .env.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	sections := []struct {
		name   string
		target interface{}
	}{
		{"app", cfg},
		{"speech", &cfg.Speech},
		{"ner", &cfg.NER},
		{"geocoding", &cfg.Geocoding},
		{"weather", &cfg.Weather},
		{"db", &cfg.DB},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *AppConfig) Validate() error {
	switch strings.ToLower(c.Speech.Provider) {
	case "azure", "whisper":
		c.Speech.Provider = strings.ToLower(c.Speech.Provider)
	default:
		return fmt.Errorf("invalid SPEECH_PROVIDER %q: must be azure or whisper", c.Speech.Provider)
	}

	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: must be postgres or sqlite", c.DB.Driver)
	}

	if c.Weather.MaxForecastDays < 1 {
		return fmt.Errorf("WEATHER_MAX_FORECAST_DAYS must be at least 1")
	}
	if c.Weather.MaxRetries < 0 || c.Weather.BackoffInitial <= 0 {
		return fmt.Errorf("invalid weather backoff configuration")
	}
	if strings.TrimSpace(c.Geocoding.DefaultCity) == "" {
		return fmt.Errorf("DEFAULT_CITY must not be empty")
	}
	return nil
}
