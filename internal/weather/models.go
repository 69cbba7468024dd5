package weather

import (
	"time"

	"github.com/i474232898/vocal-weather/internal/outcome"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// DataOK marks a forecast table with at least one row.
const DataOK = "OK"

// HourlyRow is one line of the flattened hourly forecast. Values are nil when the
// upstream model has no data for that hour.
type HourlyRow struct {
	Time               time.Time `json:"date"` // always UTC
	Temperature2m      *float64  `json:"temperature_2m"`
	RelativeHumidity2m *float64  `json:"relative_humidity_2m"`
	Precipitation      *float64  `json:"precipitation"`
	CloudCover         *float64  `json:"cloud_cover"`
	WindSpeed10m       *float64  `json:"wind_speed_10m"`
	Condition          Condition `json:"condition"`
}

// Table is the hourly forecast ordered by Time ascending.
type Table []HourlyRow

// Result is the weather stage output.
type Result struct {
	Outcome outcome.Outcome `json:"outcome"`
	// Data is DataOK when Table has rows, empty otherwise.
	Data    string `json:"data,omitempty"`
	Horizon int    `json:"forecastHorizon"`
	Table   Table  `json:"table,omitempty"`
}
