package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"teleclinic/consult-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Consultation{},
		&entities.QueueEntry{},
		&entities.Payment{},
	); err != nil {
		return err
	}
	log.Info().Msg("applied consultation migrations")
	return nil
}
