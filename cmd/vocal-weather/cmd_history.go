package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func historyCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the monitoring log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx := context.Background()
			store, err := openStore(ctx, cfg.DB, log)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(ctx, limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "timestamp\trun\tcity\thorizon\tpipeline")
			for _, r := range records {
				city := r.GeocodingCity
				if city == "" {
					city = "-"
				}
				horizon := "-"
				if r.HorizonDays != nil {
					horizon = fmt.Sprint(*r.HorizonDays)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Timestamp, r.RunID, city, horizon, r.PipelineStatus)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of rows to print (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the rows as JSON")
	return cmd
}

func dropTableCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop-table",
		Short: "Drop the monitoring table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop the monitoring table without --yes")
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx := context.Background()
			store, err := openStore(ctx, cfg.DB, log)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DropTable(ctx); err != nil {
				return err
			}
			log.Info("monitoring table dropped", zap.String("driver", cfg.DB.Driver))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the drop")
	return cmd
}
