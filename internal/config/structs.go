package config

import (
	"time"

	"github.com/kandinsky-studio/design-shop/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Stripe    Stripe
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // public base url of this api
	ClientURL      string // storefront origin, used for checkout redirects and CORS
}

// Stripe holds the environment defaults for the payment provider.
// Values stored through the admin settings API take precedence.
type Stripe struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	APIBase        string        // override the api endpoint, e.g. a local stripe-mock
	Timeout        time.Duration // http timeout for calls to the provider
}

// Auth holds the admin authentication settings.
type Auth struct {
	TokenSecret    string        // hmac key for bearer tokens, random per process if empty
	TokenTTL       time.Duration // lifetime of an issued token
	Issuer         string
	LoginRateLimit int // login attempts per minute and ip
	Local          LocalAuth
	LDAP           LDAPAuth
	OIDC           OIDCAuth
}

// LocalAuth is the single configured admin account.
type LocalAuth struct {
	Enabled      bool
	Username     string
	Password     string // plaintext, development only. Hashed at startup.
	PasswordHash string // argon2id hash, see the hash-password command
	TOTPSecret   string // optional base32 totp secret
}

// LDAPAuth configures admin login against a directory.
type LDAPAuth struct {
	Enabled      bool
	Host         string
	Port         int
	UseSSL       bool
	UseTLS       bool
	SkipVerify   bool
	BindDN       string
	BindPassword string
	BaseDN       string
	UserFilter   string
	AdminGroupDN string // when set the user must be a member of this group
	GroupFilter  string
	Timeout      int
}

// OIDCAuth configures admin login with an OpenID Connect provider.
type OIDCAuth struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	AdminEmails  []string // verified emails allowed to act as admin
}
