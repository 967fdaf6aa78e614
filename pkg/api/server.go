package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/api/routes"
)

func NewApp() *fiber.App {
	webApp := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	webApp.Use(NewLogger())
	webApp.Use(recover.New())

	webApp.Get("/version", routes.APIVersion)
	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	routes.ActionRouter(webApp)

	return webApp
}

func SetupServer(listen string) error {
	log.Info().Str("listen", listen).Msg("Starting web API")

	return NewApp().Listen(listen)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		code = fiberError.Code
		message = fiberError.Message
	}

	return c.Status(code).JSON(routes.ErrorResponse{
		Error:      true,
		Message:    message,
		StatusCode: code,
	})
}
