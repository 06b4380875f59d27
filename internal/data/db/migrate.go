package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/gitrec/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.User{},
		&types.Recommendation{},
		&types.Version{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
