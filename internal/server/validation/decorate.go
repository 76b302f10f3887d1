package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// DecorateWithBodyEx parses and validates the request body into T before
// calling next. Parse and validation failures are 400 errors.
func DecorateWithBodyEx[T any](v *validator.Validate, next func(c *fiber.Ctx, req *T) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := v.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return next(c, req)
	}
}

// DecorateWithQueryEx does the same for query parameters.
func DecorateWithQueryEx[T any](v *validator.Validate, next func(c *fiber.Ctx, req *T) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.QueryParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := v.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return next(c, req)
	}
}
