package routes

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed static/index.html
var indexPage []byte

func IndexPage(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexPage)
}
