package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandinsky-studio/design-shop/internal/logger"
	adapter "github.com/kandinsky-studio/design-shop/internal/logger/adapter/fiber"
)

// expectedLoggerJSONFormat implements loggers default json format.
type expectedLoggerJSONFormat struct {
	IP           net.IP    `json:"IP"`
	Status       int       `json:"status"`
	XPerformance float32   `json:"X-Performance"`
	URI          string    `json:"URI"`
	Method       string    `json:"method"`
	Host         string    `json:"host"`
	UserAgent    string    `json:"User-Agent"`
	Error        string    `json:"error"`
	Time         time.Time `json:"time"`
}

func consoleConfig() adapter.Config {
	return adapter.Config{
		Config: logger.Log{
			EnableAccessLogToConsole: true,
			DisableCheckAlive:        true,
			Console:                  logger.Console{Enabled: true},
		},
		CheckAliveURI: "/checkalive",
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		config     adapter.Config
		targetPath string
		want       *expectedLoggerJSONFormat
	}{
		{
			name:       "empty config no output at all",
			targetPath: "/api/packages",
		},
		{
			name:       "get packages log to console json",
			config:     consoleConfig(),
			targetPath: "/api/packages",
			want: &expectedLoggerJSONFormat{
				IP:     net.ParseIP("0.0.0.0"),
				Status: fiber.StatusOK,
				URI:    "/api/packages",
				Method: fiber.MethodGet,
				Host:   "example.com",
			},
		},
		{
			name:       "query string is kept",
			config:     consoleConfig(),
			targetPath: "/api/packages?active=1",
			want: &expectedLoggerJSONFormat{
				IP:     net.ParseIP("0.0.0.0"),
				Status: fiber.StatusOK,
				URI:    "/api/packages?active=1",
				Method: fiber.MethodGet,
				Host:   "example.com",
			},
		},
		{
			name:       "handler error is rendered and logged",
			config:     consoleConfig(),
			targetPath: "/api/orders/session/unknown",
			want: &expectedLoggerJSONFormat{
				IP:     net.ParseIP("0.0.0.0"),
				Status: fiber.StatusNotFound,
				URI:    "/api/orders/session/unknown",
				Method: fiber.MethodGet,
				Host:   "example.com",
				Error:  "order not found",
			},
		},
		{
			name:       "checkalive is not logged",
			config:     consoleConfig(),
			targetPath: "/checkalive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := testMiddlewareHelper(t, tt.targetPath, tt.config)

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			require.NotEmpty(t, output, "expected output but got no output")

			var decodedOutput expectedLoggerJSONFormat
			require.NoError(t, json.Unmarshal([]byte(output), &decodedOutput))

			assert.Equal(t, tt.want.Host, decodedOutput.Host)
			assert.Equal(t, tt.want.Method, decodedOutput.Method)
			assert.Equal(t, tt.want.Status, decodedOutput.Status)
			assert.Equal(t, tt.want.IP, decodedOutput.IP)
			assert.Equal(t, tt.want.URI, decodedOutput.URI)
			assert.Equal(t, tt.want.Error, decodedOutput.Error)
		})
	}
}

func testMiddlewareHelper(t *testing.T, targetPath string, adapterConfig adapter.Config) string {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	// capture stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	// the middleware picks its writers at construction time
	handler := adapter.New(adapterConfig)

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
	})

	app.Use(handler)

	app.Get("/api/packages", func(ctx fiber.Ctx) error {
		return ctx.JSON([]string{"starter"})
	})
	app.Get("/api/orders/session/:sessionId", func(_ fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	})
	app.Get("/checkalive", func(ctx fiber.Ctx) error {
		return ctx.SendString("OK")
	})

	_, errTest := app.Test(httptest.NewRequest(fiber.MethodGet, targetPath, nil))

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	// back to normal state
	_ = w.Close()
	os.Stdout = stdout // restoring the real stdout
	os.Stderr = stderr // restoring the real stderr
	out := <-outC

	require.NoError(t, errTest)

	return out
}
