package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandinsky-studio/design-shop/internal/web/handler/catalog"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/handlertest"
)

func newEnv(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)
	require.NoError(t, new(catalog.Service).Init(env.API(), env.Deps))

	return env
}

func TestList(t *testing.T) {
	env := newEnv(t)

	code, body := env.Do(t, handlertest.Request{Method: fiber.MethodGet, Path: "/api/packages"})
	require.Equal(t, fiber.StatusOK, code)

	var packages []catalog.Package
	require.NoError(t, json.Unmarshal(body, &packages))
	require.Len(t, packages, 3)

	assert.Equal(t, "starter", packages[0].ID)
	assert.Equal(t, "$499", packages[0].PriceFormatted)
	assert.Equal(t, "professional", packages[1].ID)
	assert.Equal(t, "$1,499", packages[1].PriceFormatted)
	assert.Equal(t, "enterprise", packages[2].ID)
	assert.NotEmpty(t, packages[2].Features)
}

func TestGet(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantID   string
	}{
		{name: "known package", path: "/api/packages/professional", wantCode: fiber.StatusOK, wantID: "professional"},
		{name: "unknown package", path: "/api/packages/premium", wantCode: fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.Do(t, handlertest.Request{Method: fiber.MethodGet, Path: tt.path})
			require.Equal(t, tt.wantCode, code)

			if tt.wantID == "" {
				assert.JSONEq(t, `{"error":"package not found"}`, string(body))
				return
			}

			var p catalog.Package
			require.NoError(t, json.Unmarshal(body, &p))
			assert.Equal(t, tt.wantID, p.ID)
			assert.Equal(t, int64(149900), p.Price)
		})
	}
}

func TestInitNilDeps(t *testing.T) {
	assert.Error(t, new(catalog.Service).Init(nil, nil))
}
