package validation

import "github.com/gofiber/fiber/v2"

// Respond writes the 400 response for a failed Validate call.
func Respond(c *fiber.Ctx, errs map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Datos de entrada inválidos",
		"details": errs,
	})
}
