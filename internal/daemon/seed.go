package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/db/controller/catalog"
)

// seed fills the catalog on first start.
func seed(ctx context.Context, db *gorm.DB) error {
	n, err := catalog.Seed(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if n > 0 {
		log.Info().Int("packages", n).Msg("catalog seeded")
	}

	return nil
}
