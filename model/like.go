package model

import (
	"time"

	"github.com/google/uuid"
)

// FilmLike 点赞边（用户 ↔ 影片），(user_id, film_id) 唯一
type FilmLike struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	FilmID    uuid.UUID `json:"film_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (FilmLike) TableName() string {
	return "film_likes"
}
