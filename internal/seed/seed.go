package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"gorm.io/gorm"
)

const (
	defaultTierName = "Free"
	defaultTierSlug = "free"
)

// EnsureFreeTier seeds the free tier every publication starts with.
// Members without a paid subscription project onto it.
func EnsureFreeTier(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tier tierdomain.Tier
		err := tx.WithContext(ctx).
			Where("slug = ?", defaultTierSlug).
			First(&tier).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		tier = tierdomain.Tier{
			ID:        node.Generate().Int64(),
			Name:      defaultTierName,
			Slug:      defaultTierSlug,
			Currency:  "usd",
			Kind:      tierdomain.KindFree,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.WithContext(ctx).Create(&tier).Error
	})
}
