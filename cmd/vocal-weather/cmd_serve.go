package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/vocal-weather/internal/api/http"
	"github.com/i474232898/vocal-weather/internal/scheduler"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if port == "" {
				port = cfg.Port
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			app, err := newApplication(ctx, cfg, log, reg, true)
			if err != nil {
				return err
			}
			defer app.Close()

			// Retention job for the monitoring table.
			sched := scheduler.New(app.store, cfg.MonitoringRetention, cfg.PruneInterval, log)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			server := newServer(cfg.HTTPTimeout)
			server.Get("/health", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"status":  "ok",
					"service": "vocal-weather",
					"version": version,
				})
			})
			httpapi.RegisterRoutes(server, app.pipeline, app.store)
			httpapi.RegisterMetrics(server, reg)

			go func() {
				log.Info("http server listening", zap.String("port", port))
				if err := server.Listen(":" + port); err != nil {
					log.Error("fiber server stopped", zap.Error(err))
					stop()
				}
			}()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.ShutdownWithContext(shutdownCtx); err != nil {
				log.Error("error during shutdown", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default from PORT or 8080)")
	return cmd
}

// newServer builds the Fiber app with the centralized JSON error handler.
func newServer(timeout time.Duration) *fiber.App {
	// Transcription and forecast calls run inside the request.
	writeTimeout := 4 * timeout
	if writeTimeout < 30*time.Second {
		writeTimeout = 30 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:               "vocal-weather",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          writeTimeout,
		BodyLimit:             16 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	return app
}
