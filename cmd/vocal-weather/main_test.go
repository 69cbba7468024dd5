package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/vocal-weather/internal/geocoding"
	"github.com/i474232898/vocal-weather/internal/outcome"
	"github.com/i474232898/vocal-weather/internal/pipeline"
	"github.com/i474232898/vocal-weather/internal/speech"
	"github.com/i474232898/vocal-weather/internal/weather"
)

func TestPrintRun(t *testing.T) {
	lat, lon, temp := 45.76, 4.83, 12.5
	run := pipeline.Run{
		ID:        "run-1",
		Speech:    speech.FromText("météo à Lyon"),
		Geocoding: geocoding.Result{Outcome: outcome.Success(), City: "Lyon", Lat: &lat, Lon: &lon},
		Weather: weather.Result{
			Outcome: outcome.Success(),
			Horizon: 1,
			Table: weather.Table{{
				Time:          time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
				Temperature2m: &temp,
				Condition:     weather.ConditionUnknown,
			}},
		},
		Outcome: outcome.Failure("no city"),
	}

	var out bytes.Buffer
	require.NoError(t, printRun(&out, run))

	s := out.String()
	assert.Contains(t, s, "run-1")
	assert.Contains(t, s, "Lyon (45.7600, 4.8300)")
	assert.Contains(t, s, "2026-10-19 09:00")
	assert.Contains(t, s, "12.5")
	assert.Contains(t, s, "Failed. no city")
}

func TestRunRequiresOneInput(t *testing.T) {
	for _, args := range [][]string{{}, {"--audio", "a.wav", "--text", "hello"}} {
		cmd := runCmd()
		cmd.SetArgs(args)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		assert.Error(t, cmd.Execute())
	}
}

func TestDropTableRequiresConfirmation(t *testing.T) {
	cmd := dropTableCmd()
	cmd.SetArgs(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "--yes")
}

func TestServerErrorHandler(t *testing.T) {
	app := newServer(time.Second)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "short and stout", body["message"])
}
