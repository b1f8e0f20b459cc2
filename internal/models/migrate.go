package models

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for all entities. The partial
// unique index enforces the "at most one ACTIVE subscription per user"
// invariant in the database instead of relying on read-then-write checks.
func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("running database migrations")

	if err := db.AutoMigrate(
		&User{},
		&BlockedEmail{},
		&Download{},
		&Subscription{},
		&Payment{},
	); err != nil {
		return err
	}

	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_subscriptions_one_active
		 ON subscriptions (user_id) WHERE status = 'ACTIVE'`,
	).Error; err != nil {
		return err
	}

	log.Info().Msg("database migrations completed")
	return nil
}
