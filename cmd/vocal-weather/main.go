package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:          "vocal-weather",
		Short:        "Voice-driven weather lookup",
		Long:         "vocal-weather transcribes a spoken request, finds the city and the date in it, and returns the forecast for that place.",
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(dropTableCmd())

	if err := root.Execute(); err != nil {
		log.Printf("vocal-weather: %v", err)
		os.Exit(1)
	}
}
