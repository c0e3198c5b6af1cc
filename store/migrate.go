package store

import (
	"fmt"

	"filmorate_social/model"

	"gorm.io/gorm"
)

// AutoMigrate 建表（按依赖顺序）
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&model.User{},
		&model.MpaRating{},
		&model.Genre{},
		&model.Director{},
		&model.Film{},
		&model.FilmLike{},
		&model.Friendship{},
		&model.FeedEvent{},
		&model.SystemSettings{},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}
	return nil
}
