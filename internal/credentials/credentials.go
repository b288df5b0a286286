// Package credentials resolves the effective Stripe keys.
//
// A key stored in the settings table wins over the value from the config
// file or environment. Resolved values are cached until Invalidate is called,
// which every settings write does.
package credentials

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/setting"
)

// Setting names of the stored provider credentials.
const (
	SettingPublishableKey = "stripe_publishable_key"
	SettingSecretKey      = "stripe_secret_key"
	SettingWebhookSecret  = "stripe_webhook_secret"
)

// MaskPrefix replaces all but the last characters of a secret on read.
const MaskPrefix = "********"

const visibleSuffix = 4

// Keys is a set of provider credentials.
type Keys struct {
	PublishableKey string `json:"publishableKey"`
	SecretKey      string `json:"secretKey"`
	WebhookSecret  string `json:"webhookSecret"`
}

// Update is a credentials write. Nil fields are left as they are.
type Update struct {
	PublishableKey *string `json:"publishableKey"`
	SecretKey      *string `json:"secretKey"`
	WebhookSecret  *string `json:"webhookSecret"`
}

// Resolver resolves credentials from the settings table with config fallback.
type Resolver struct {
	db       *gorm.DB
	defaults Keys
	reads    singleflight.Group

	mu         sync.RWMutex
	cached     *Keys
	generation uint64 // bumped by Invalidate
}

// NewResolver creates a Resolver whose fallbacks come from the stripe config.
func NewResolver(db *gorm.DB, cfg config.Stripe) *Resolver {
	return &Resolver{
		db: db,
		defaults: Keys{
			PublishableKey: cfg.PublishableKey,
			SecretKey:      cfg.SecretKey,
			WebhookSecret:  cfg.WebhookSecret,
		},
	}
}

// SecretKey returns the effective secret key, or a placeholder test key.
func (r *Resolver) SecretKey(ctx context.Context) string {
	if key := r.resolve(ctx).SecretKey; key != "" {
		return key
	}

	return config.DefaultSecretKey
}

// PublishableKey returns the effective publishable key, possibly empty.
func (r *Resolver) PublishableKey(ctx context.Context) string {
	return r.resolve(ctx).PublishableKey
}

// WebhookSecret returns the webhook signing secret and whether one is set.
func (r *Resolver) WebhookSecret(ctx context.Context) (string, bool) {
	secret := r.resolve(ctx).WebhookSecret

	return secret, secret != ""
}

// Invalidate drops cached values so the next call reads the store again.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.generation++
	r.mu.Unlock()
}

// resolve returns the cached keys or reads them. Concurrent reads of one
// generation share a single store query, and a result read before an
// Invalidate is returned but never cached.
func (r *Resolver) resolve(ctx context.Context) Keys {
	r.mu.RLock()
	cached, gen := r.cached, r.generation
	r.mu.RUnlock()

	if cached != nil {
		return *cached
	}

	v, _, _ := r.reads.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		keys, ok := r.load(ctx)
		if !ok {
			return keys, nil
		}

		r.mu.Lock()
		if r.generation == gen {
			r.cached = &keys
		}
		r.mu.Unlock()

		return keys, nil
	})

	return v.(Keys) //nolint:forcetypeassert
}

// load reads the stored keys over the defaults. ok is false when the store
// failed and only the defaults are returned.
func (r *Resolver) load(ctx context.Context) (keys Keys, ok bool) {
	keys = r.defaults

	stored, err := setting.GetValues(ctx, r.db, SettingPublishableKey, SettingSecretKey, SettingWebhookSecret)
	if err != nil {
		// not cached, the next call retries the store
		log.Error().Err(err).Msg("failed to read stored credentials, using configured defaults")

		return keys, false
	}

	overlay(&keys.PublishableKey, stored[SettingPublishableKey])
	overlay(&keys.SecretKey, stored[SettingSecretKey])
	overlay(&keys.WebhookSecret, stored[SettingWebhookSecret])

	return keys, true
}

func overlay(dst *string, stored string) {
	if stored != "" {
		*dst = stored
	}
}

// Stored returns the credentials saved in the settings table for display.
// Secrets are masked, the publishable key is public and returned as is.
func (r *Resolver) Stored(ctx context.Context) (Keys, error) {
	stored, err := setting.GetValues(ctx, r.db, SettingPublishableKey, SettingSecretKey, SettingWebhookSecret)
	if err != nil {
		return Keys{}, err
	}

	return Keys{
		PublishableKey: stored[SettingPublishableKey],
		SecretKey:      Mask(stored[SettingSecretKey]),
		WebhookSecret:  Mask(stored[SettingWebhookSecret]),
	}, nil
}

// Save writes submitted credentials. An absent or masked value leaves the
// stored value untouched, an empty value removes it, anything else
// overwrites it.
func (r *Resolver) Save(ctx context.Context, upd Update) error {
	defer r.Invalidate()

	for _, field := range []struct {
		name  string
		value *string
	}{
		{SettingPublishableKey, upd.PublishableKey},
		{SettingSecretKey, upd.SecretKey},
		{SettingWebhookSecret, upd.WebhookSecret},
	} {
		if field.value == nil {
			continue
		}

		value := strings.TrimSpace(*field.value)

		switch {
		case IsMasked(value):
			continue
		case value == "":
			if err := setting.Delete(ctx, r.db, field.name); err != nil && !errors.Is(err, setting.ErrSettingNotFound) {
				return err
			}
		default:
			if err := setting.Set(ctx, r.db, field.name, []byte(value)); err != nil {
				return err
			}
		}
	}

	return nil
}

// Mask hides all but the last characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= visibleSuffix {
		return MaskPrefix
	}

	return MaskPrefix + secret[len(secret)-visibleSuffix:]
}

// IsMasked reports whether v is a value previously returned by Mask.
func IsMasked(v string) bool {
	return strings.HasPrefix(v, MaskPrefix)
}
