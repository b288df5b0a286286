package stripe_test

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandinsky-studio/design-shop/internal/credentials"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/admin/settings/stripe"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/handlertest"
)

func put(t *testing.T, env *handlertest.Env, keys map[string]string) credentials.Keys {
	t.Helper()

	code, body := env.Do(t, handlertest.Request{
		Method: fiber.MethodPut,
		Path:   "/api/settings",
		Body:   keys,
		Token:  env.AdminToken(t),
	})
	require.Equal(t, fiber.StatusOK, code, string(body))

	var out credentials.Keys
	require.NoError(t, json.Unmarshal(body, &out))

	return out
}

func TestSaveAndMask(t *testing.T) {
	env := handlertest.New(t)
	require.NoError(t, new(stripe.Service).Init(env.API(), env.Deps))

	shown := put(t, env, map[string]string{
		"publishableKey": "pk_test_123",
		"secretKey":      "sk_test_abcd1234",
		"webhookSecret":  "whsec_wxyz",
	})
	assert.Equal(t, credentials.Keys{
		PublishableKey: "pk_test_123",
		SecretKey:      "********1234",
		WebhookSecret:  "********wxyz",
	}, shown)
	assert.Equal(t, "sk_test_abcd1234", env.Deps.Credentials.SecretKey(t.Context()))

	// sending the masked values back keeps the secrets, the empty webhook
	// secret removes the stored one
	shown = put(t, env, map[string]string{
		"publishableKey": "pk_test_456",
		"secretKey":      shown.SecretKey,
		"webhookSecret":  "",
	})
	assert.Equal(t, "pk_test_456", shown.PublishableKey)
	assert.Equal(t, "********1234", shown.SecretKey)
	assert.Empty(t, shown.WebhookSecret)
	assert.Equal(t, "sk_test_abcd1234", env.Deps.Credentials.SecretKey(t.Context()))

	_, ok := env.Deps.Credentials.WebhookSecret(t.Context())
	assert.False(t, ok)
}

func TestPartialUpdate(t *testing.T) {
	env := handlertest.New(t)
	require.NoError(t, new(stripe.Service).Init(env.API(), env.Deps))

	put(t, env, map[string]string{
		"publishableKey": "pk_test_1",
		"secretKey":      "sk_test_11111111",
		"webhookSecret":  "whsec_11111111",
	})

	// only the publishable key is sent, the secrets stay
	shown := put(t, env, map[string]string{"publishableKey": "pk_test_2"})
	assert.Equal(t, credentials.Keys{
		PublishableKey: "pk_test_2",
		SecretKey:      "********1111",
		WebhookSecret:  "********1111",
	}, shown)

	secret, ok := env.Deps.Credentials.WebhookSecret(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "whsec_11111111", secret)
	assert.Equal(t, "sk_test_11111111", env.Deps.Credentials.SecretKey(t.Context()))
}

func TestNeedsToken(t *testing.T) {
	env := handlertest.New(t)
	require.NoError(t, new(stripe.Service).Init(env.API(), env.Deps))

	code, _ := env.Do(t, handlertest.Request{Method: fiber.MethodGet, Path: "/api/settings"})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = env.Do(t, handlertest.Request{
		Method: fiber.MethodPut,
		Path:   "/api/settings",
		Body:   map[string]string{"secretKey": "sk_live_evil"},
	})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "sk_test_env", env.Deps.Credentials.SecretKey(t.Context()))
}
