package monitoring

// TimestampLayout is the persisted timestamp format (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one row of the monitoring table: the statuses and key outputs of
// every stage of a single pipeline run.
type Record struct {
	RunID     string `json:"runId"`
	Timestamp string `json:"timestamp"`

	SpeechStatus string  `json:"speechStatus"`
	SpeechText   *string `json:"speechText"`

	CityStatus string  `json:"extractCityStatus"`
	CityText   *string `json:"extractCityText"`

	HorizonStatus string `json:"extractHorizonStatus"`
	HorizonCode   int    `json:"extractHorizonCode"`
	HorizonDays   *int   `json:"extractHorizonText"`

	GeocodingStatus string   `json:"geocodingStatus"`
	GeocodingCity   string   `json:"geocodingCity"`
	GeocodingLat    *float64 `json:"geocodingLat"`
	GeocodingLon    *float64 `json:"geocodingLon"`

	WeatherStatus   string  `json:"weatherStatus"`
	WeatherData     *string `json:"weatherData"`
	ForecastHorizon int     `json:"forecastHorizon"`

	PipelineStatus string `json:"pipelineStatus"`
}
