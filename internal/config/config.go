// Package config handles input from etc/main.toml and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding config keys,
	// e.g. DESIGN_SHOP_WEBSERVER_PORT.
	EnvPrefix = "DESIGN_SHOP"

	// JSONConfigEnv holds a JSON document merged over the file config.
	JSONConfigEnv = "DESIGN_SHOP_CONFIG_JSON"

	// MinTokenSecretLen is the minimal length of a configured token secret.
	MinTokenSecretLen = 32

	// DefaultSecretKey is used when no stripe secret key is configured at all.
	DefaultSecretKey = "sk_test_your_key_here"
)

// wellKnownEnv maps config keys to the plain variable names used by
// deployments of the storefront.
var wellKnownEnv = map[string]string{ //nolint:gochecknoglobals
	"stripe.secretkey":      "STRIPE_SECRET_KEY",
	"stripe.publishablekey": "STRIPE_PUBLISHABLE_KEY",
	"stripe.webhooksecret":  "STRIPE_WEBHOOK_SECRET",
	"webserver.clienturl":   "CLIENT_URL",
	"webserver.port":        "PORT",
	"auth.local.password":   "ADMIN_PASSWORD",
	"auth.tokensecret":      "JWT_SECRET",
}

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigName("main")
	v.SetConfigType("toml")
	v.AddConfigPath(path)

	setDefaults(v)

	// override it from env
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range wellKnownEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err = v.BindEnv(key, prefixed, name); err != nil {
			return Config{}, errors.Wrap(err, "failed to bind env "+name)
		}
	}

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	if jsonConfig := os.Getenv(JSONConfigEnv); jsonConfig != "" {
		c, err = decodeAndMergeConfig(c, jsonConfig)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "Design Shop")
	v.SetDefault("db.gormengine", EngineSQLite)
	v.SetDefault("db.path", "./data/orders.db")
	v.SetDefault("webserver.port", 3001)
	v.SetDefault("webserver.shutdowntime", 5)
	v.SetDefault("webserver.clienturl", "http://localhost:5173")
	v.SetDefault("stripe.timeout", 30*time.Second)
	v.SetDefault("auth.tokenttl", 24*time.Hour)
	v.SetDefault("auth.issuer", "design-shop")
	v.SetDefault("auth.loginratelimit", 5)
	v.SetDefault("auth.local.enabled", true)
	v.SetDefault("auth.local.username", "admin")
	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "design-shop")
	v.SetDefault("log.servicename", "design-shop")
	v.SetDefault("log.console.enabled", true)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return string(out), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate the settings the daemon can not start without and
// fill in defaults for optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// checkout redirects and CORS depend on it
	if c.Webserver.ClientURL == "" {
		return errors.Wrap(ErrEmptyClientURL, invalidErrMessage)
	}

	c.Webserver.ClientURL = strings.TrimRight(c.Webserver.ClientURL, "/")

	if c.Auth.TokenSecret != "" && len(c.Auth.TokenSecret) < MinTokenSecretLen {
		return errors.Wrap(ErrTokenSecretTooShort, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour //nolint:mnd
	}

	if c.Stripe.Timeout == 0 {
		c.Stripe.Timeout = 30 * time.Second //nolint:mnd
	}

	return nil
}
