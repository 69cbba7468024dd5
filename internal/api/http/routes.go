package httpapi

import (
	"context"
	"io"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/vocal-weather/internal/monitoring"
	"github.com/i474232898/vocal-weather/internal/pipeline"
)

var validate = validator.New()

// Runner executes the weather pipeline.
type Runner interface {
	Run(ctx context.Context, audio io.Reader) pipeline.Run
	RunText(ctx context.Context, text string) pipeline.Run
}

// History reads back the monitoring log.
type History interface {
	List(ctx context.Context, limit int) ([]monitoring.Record, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, runner Runner, history History) {
	v1 := app.Group("/api/v1")

	v1.Post("/pipeline/voice", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("audio")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart field \"audio\" is required")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable audio upload")
		}
		defer f.Close()

		return c.JSON(runner.Run(c.UserContext(), f))
	})

	v1.Post("/pipeline/text", func(c *fiber.Ctx) error {
		var req textRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(runner.RunText(c.UserContext(), req.Text))
	})

	v1.Get("/monitoring", func(c *fiber.Ctx) error {
		q, err := parseHistoryQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := history.List(c.UserContext(), q.Limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read monitoring log")
		}
		if records == nil {
			records = []monitoring.Record{}
		}

		return c.JSON(fiber.Map{
			"count":   len(records),
			"records": records,
		})
	})
}

// RegisterMetrics exposes the Prometheus registry at /metrics.
func RegisterMetrics(app *fiber.App, gatherer prometheus.Gatherer) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// textRequest is the body of the text pipeline endpoint.
type textRequest struct {
	Text string `json:"text" validate:"required"`
}

// historyQuery holds query parameters for the monitoring endpoint.
type historyQuery struct {
	// Limit of 0 returns every row.
	Limit int `validate:"gte=0,lte=1000"`
}

func parseHistoryQuery(c *fiber.Ctx) (historyQuery, error) {
	var q historyQuery

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, err
		}
		q.Limit = n
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
