package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/auth"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/payment"
)

const internalErrMsg = "internal server error"

// ErrInvalidBody is returned when a request body can not be decoded.
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// kinds maps error kinds to their status code, checked in order.
var kinds = []struct { //nolint:gochecknoglobals
	err  error
	code int
}{
	{lifecycle.ErrValidation, fiber.StatusBadRequest},
	{lifecycle.ErrRange, fiber.StatusBadRequest},
	{lifecycle.ErrInvalidTransition, fiber.StatusBadRequest},
	{lifecycle.ErrNotFound, fiber.StatusNotFound},
	{payment.ErrSignatureInvalid, fiber.StatusBadRequest},
	{payment.ErrMalformedEvent, fiber.StatusBadRequest},
	{payment.ErrGateway, fiber.StatusBadGateway},
	{auth.ErrUnauthorized, fiber.StatusUnauthorized},
	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
}

// Status returns the http status code and the client message for err.
func Status(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	for _, k := range kinds {
		if !errors.Is(err, k.err) {
			continue
		}

		// lifecycle errors carry a message meant for the client
		var le *lifecycle.Error
		if errors.As(err, &le) {
			return k.code, le.Msg
		}

		return k.code, k.err.Error()
	}

	return fiber.StatusInternalServerError, internalErrMsg
}

// ErrorHandler renders every error as {"error": "<message>"}.
func ErrorHandler(c fiber.Ctx, err error) error {
	code, msg := Status(err)

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", code).Msg("request failed")
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}
