package httpapi

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/observability"
	"github.com/vamshikr/sure-weather/internal/store"
	"github.com/vamshikr/sure-weather/internal/weather"
)

const (
	serviceName  = "sure-weather"
	requestIDKey = "requestid"
)

// Deps are the collaborators of the HTTP layer. Health and Metrics are optional.
type Deps struct {
	Service *weather.Service
	Health  *store.MemoryStore
	Metrics *observability.Collector
	Logger  *zap.Logger
}

// NewApp builds the Fiber app with middleware and every route registered.
func NewApp(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Logger),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}?${queryParams}\n",
	}))
	app.Use(recover.New())

	RegisterRoutes(app, deps)
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/current_weather", func(c *fiber.Ctx) error {
		ctx := weather.WithRequestID(c.UserContext(), requestID(c))
		body, status := deps.Service.Handle(ctx, c.Queries())
		deps.Metrics.ObserveRequest(status)
		return c.Status(status).JSON(body)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "ok",
			"service": serviceName,
		}
		if deps.Health != nil {
			resp["providers"] = deps.Health.LatestAll()
		}
		return c.JSON(resp)
	})

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
}

// errorHandler renders errors that escape a handler in the same shape as
// weather errors. Unknown failures are reported as internal errors.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(weather.ErrorResponse{
				Code:    weather.ErrorCode(errorCodeFor(fe.Code)),
				Message: fe.Message,
			})
		}

		log.Error("unhandled request error",
			zap.String("request_id", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		body, status := weather.FormatError(err)
		return c.Status(status).JSON(body)
	}
}

// requestID returns the id assigned by the requestid middleware.
func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

func errorCodeFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return string(weather.CodeInternalError)
	}
}
