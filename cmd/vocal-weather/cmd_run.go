package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/vocal-weather/internal/pipeline"
)

func runCmd() *cobra.Command {
	var (
		audioPath string
		text      string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once on a WAV file or a text command",
		Example: `  vocal-weather run --audio request.wav
  vocal-weather run --text "quel temps fera-t-il à Lyon demain"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (audioPath == "") == (text == "") {
				return errors.New("exactly one of --audio or --text is required")
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log, nil, false)
			if err != nil {
				return err
			}
			defer app.Close()

			var run pipeline.Run
			if audioPath != "" {
				f, err := os.Open(audioPath)
				if err != nil {
					return fmt.Errorf("open audio: %w", err)
				}
				defer f.Close()
				run = app.pipeline.Run(ctx, f)
			} else {
				run = app.pipeline.RunText(ctx, text)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}
			return printRun(cmd.OutOrStdout(), run)
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "path to a WAV recording of the request")
	cmd.Flags().StringVar(&text, "text", "", "already transcribed request")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full run as JSON")
	return cmd
}

func printRun(out io.Writer, run pipeline.Run) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "run\t%s\n", run.ID)
	fmt.Fprintf(w, "speech\t%s\t%s\n", run.Speech.Outcome, run.Speech.Text)
	fmt.Fprintf(w, "city\t%s\t%s\n", run.City.Outcome, run.City.City)
	days := "-"
	if run.Horizon.Days != nil {
		days = fmt.Sprintf("%d day(s)", *run.Horizon.Days)
	}
	fmt.Fprintf(w, "horizon\t%s\t%s\n", run.Horizon.Outcome, days)
	coords := "-"
	if run.Geocoding.HasCoordinates() {
		coords = fmt.Sprintf("%s (%.4f, %.4f)", run.Geocoding.City, *run.Geocoding.Lat, *run.Geocoding.Lon)
	}
	fmt.Fprintf(w, "geocoding\t%s\t%s\n", run.Geocoding.Outcome, coords)
	fmt.Fprintf(w, "weather\t%s\t%d hourly rows over %d day(s)\n", run.Weather.Outcome, len(run.Weather.Table), run.Weather.Horizon)
	fmt.Fprintf(w, "pipeline\t%s\tstored=%t\n", run.Outcome, run.Stored)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(run.Weather.Table) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "time (UTC)\ttemp °C\thumidity %\tprecip mm\tclouds %\twind km/h\tcondition")
	for _, row := range run.Weather.Table {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Time.Format("2006-01-02 15:04"),
			num(row.Temperature2m),
			num(row.RelativeHumidity2m),
			num(row.Precipitation),
			num(row.CloudCover),
			num(row.WindSpeed10m),
			row.Condition,
		)
	}
	return w.Flush()
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
