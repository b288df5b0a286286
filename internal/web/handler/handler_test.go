package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandinsky-studio/design-shop/internal/auth"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/payment"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "validation keeps the field message",
			err:      &lifecycle.Error{Kind: lifecycle.ErrValidation, Msg: "customerEmail is required"},
			wantCode: fiber.StatusBadRequest,
			wantMsg:  "customerEmail is required",
		},
		{
			name:     "range",
			err:      &lifecycle.Error{Kind: lifecycle.ErrRange, Msg: "amount must be between 100 and 99999900"},
			wantCode: fiber.StatusBadRequest,
			wantMsg:  "amount must be between 100 and 99999900",
		},
		{
			name:     "not found",
			err:      &lifecycle.Error{Kind: lifecycle.ErrNotFound, Msg: "order not found"},
			wantCode: fiber.StatusNotFound,
			wantMsg:  "order not found",
		},
		{
			name:     "invalid transition",
			err:      &lifecycle.Error{Kind: lifecycle.ErrInvalidTransition, Msg: "cannot change order status from completed to paid"},
			wantCode: fiber.StatusBadRequest,
			wantMsg:  "cannot change order status from completed to paid",
		},
		{
			name:     "gateway details are hidden",
			err:      fmt.Errorf("%w: card declined by test backend", payment.ErrGateway),
			wantCode: fiber.StatusBadGateway,
			wantMsg:  payment.ErrGateway.Error(),
		},
		{
			name:     "bad signature",
			err:      fmt.Errorf("%w: no valid signature", payment.ErrSignatureInvalid),
			wantCode: fiber.StatusBadRequest,
			wantMsg:  payment.ErrSignatureInvalid.Error(),
		},
		{
			name:     "unauthorized",
			err:      fmt.Errorf("%w: token expired", auth.ErrUnauthorized),
			wantCode: fiber.StatusUnauthorized,
			wantMsg:  "unauthorized",
		},
		{
			name:     "invalid credentials",
			err:      auth.ErrInvalidCredentials,
			wantCode: fiber.StatusUnauthorized,
			wantMsg:  "invalid credentials",
		},
		{
			name:     "fiber error",
			err:      fiber.ErrTooManyRequests,
			wantCode: fiber.StatusTooManyRequests,
			wantMsg:  fiber.ErrTooManyRequests.Message,
		},
		{
			name:     "anything else",
			err:      errors.New("disk I/O error"),
			wantCode: fiber.StatusInternalServerError,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := Status(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/fail", func(_ fiber.Ctx) error {
		return &lifecycle.Error{Kind: lifecycle.ErrNotFound, Msg: "package not found"}
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/fail", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"package not found"}`, string(body))
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 49900, want: "$499"},
		{cents: 149900, want: "$1,499"},
		{cents: 2550, want: "$25.50"},
		{cents: 105, want: "$1.05"},
		{cents: 99_999_900, want: "$999,999"},
		{cents: 0, want: "$0"},
		{cents: -2500, want: "-$25"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUSD(tt.cents))
		})
	}
}
