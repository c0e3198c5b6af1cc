package store

import (
	"context"
	"fmt"

	"filmorate_social/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FilmStore 影片目录（只读），返回带类型/分级/导演的完整记录
type FilmStore struct {
	db *gorm.DB
}

func NewFilmStore(db *gorm.DB) *FilmStore {
	return &FilmStore{db: db}
}

func (s *FilmStore) FilmExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Film{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check film: %w", err)
	}
	return count > 0, nil
}

// GetFilmsByIDs 不保证顺序，调用方按需重排
func (s *FilmStore) GetFilmsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Film, error) {
	films := []model.Film{}
	if len(ids) == 0 {
		return films, nil
	}
	err := s.db.WithContext(ctx).
		Preload("Mpa").
		Preload("Genres").
		Preload("Directors").
		Where("id IN ?", ids).
		Find(&films).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query films: %w", err)
	}
	return films, nil
}
