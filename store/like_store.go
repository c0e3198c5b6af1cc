package store

import (
	"context"
	"fmt"

	"filmorate_social/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeStore 点赞图（film_likes 表）
type LikeStore struct {
	db *gorm.DB
}

func NewLikeStore(db *gorm.DB) *LikeStore {
	return &LikeStore{db: db}
}

// AddLike 插入点赞边，已存在时不报错（ON CONFLICT DO NOTHING）
func (s *LikeStore) AddLike(ctx context.Context, userID, filmID uuid.UUID) (bool, error) {
	like := &model.FilmLike{UserID: userID, FilmID: filmID}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert like: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// RemoveLike 删除点赞边，不存在时 RowsAffected 为 0
func (s *LikeStore) RemoveLike(ctx context.Context, userID, filmID uuid.UUID) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND film_id = ?", userID, filmID).
		Delete(&model.FilmLike{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete like: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// LikeCountByFilm 每部影片的点赞人数，无点赞的影片为 0
func (s *LikeStore) LikeCountByFilm(ctx context.Context, filmIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(filmIDs))
	if len(filmIDs) == 0 {
		return counts, nil
	}

	var rows []model.FilmLikes
	err := s.db.WithContext(ctx).Model(&model.FilmLike{}).
		Select("film_id, COUNT(DISTINCT user_id) AS likes").
		Where("film_id IN ?", filmIDs).
		Group("film_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	for _, id := range filmIDs {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.FilmID] = row.Likes
	}
	return counts, nil
}

// OverlapCounts 自连接 film_likes，统计其他用户与 userID 的共同点赞数
func (s *LikeStore) OverlapCounts(ctx context.Context, userID uuid.UUID) ([]model.TasteNeighbor, error) {
	var neighbors []model.TasteNeighbor
	err := s.db.WithContext(ctx).Raw(`
		SELECT other.user_id AS user_id, COUNT(*) AS overlap
		FROM film_likes AS mine
		JOIN film_likes AS other ON other.film_id = mine.film_id AND other.user_id <> mine.user_id
		WHERE mine.user_id = ?
		GROUP BY other.user_id
		ORDER BY overlap DESC, other.user_id ASC`, userID).
		Scan(&neighbors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute overlaps: %w", err)
	}
	if neighbors == nil {
		neighbors = []model.TasteNeighbor{}
	}
	return neighbors, nil
}

// FilmsLikedByAny 给定用户中至少一人点赞过的影片
func (s *LikeStore) FilmsLikedByAny(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	filmIDs := []uuid.UUID{}
	if len(userIDs) == 0 {
		return filmIDs, nil
	}

	err := s.db.WithContext(ctx).Model(&model.FilmLike{}).
		Distinct().
		Where("user_id IN ?", userIDs).
		Order("film_id").
		Pluck("film_id", &filmIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load films liked by users: %w", err)
	}
	return filmIDs, nil
}

// FilmsLikedBy userID 点赞过的影片
func (s *LikeStore) FilmsLikedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	filmIDs := []uuid.UUID{}
	err := s.db.WithContext(ctx).Model(&model.FilmLike{}).
		Where("user_id = ?", userID).
		Order("film_id").
		Pluck("film_id", &filmIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load films liked by user: %w", err)
	}
	return filmIDs, nil
}

// TopFilms films LEFT JOIN film_likes：零赞影片也参与排行
func (s *LikeStore) TopFilms(ctx context.Context, q model.PopularQuery) ([]model.FilmLikes, error) {
	query := s.db.WithContext(ctx).
		Table("films AS f").
		Select("f.id AS film_id, COUNT(l.user_id) AS likes").
		Joins("LEFT JOIN film_likes AS l ON l.film_id = f.id")

	if q.GenreID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM film_genres AS fg WHERE fg.film_id = f.id AND fg.genre_id = ?)", *q.GenreID)
	}
	if q.Year != nil {
		query = query.Where("EXTRACT(YEAR FROM f.release_date) = ?", *q.Year)
	}

	query = query.Group("f.id").Order("likes DESC, f.id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var ranked []model.FilmLikes
	err := query.Scan(&ranked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank films: %w", err)
	}
	if ranked == nil {
		ranked = []model.FilmLikes{}
	}
	return ranked, nil
}
