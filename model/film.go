package model

import (
	"time"

	"github.com/google/uuid"
)

// Film 影片（目录记录，含类型/分级/导演元数据）
type Film struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string     `json:"name" gorm:"type:varchar(200);not null"`
	Description string     `json:"description" gorm:"type:varchar(200)"`
	ReleaseDate time.Time  `json:"release_date" gorm:"type:date;not null;index"`
	Duration    int        `json:"duration"`
	MpaID       *int       `json:"-" gorm:"column:mpa_id"`
	Mpa         *MpaRating `json:"mpa,omitempty" gorm:"foreignKey:MpaID"`
	Genres      []Genre    `json:"genres" gorm:"many2many:film_genres;"`
	Directors   []Director `json:"directors" gorm:"many2many:film_directors;"`
	Likes       int64      `json:"likes" gorm:"-"` // 全局点赞数，排行时回填
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (Film) TableName() string {
	return "films"
}

// Genre 影片类型
type Genre struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(50);not null;unique"`
}

func (Genre) TableName() string {
	return "genres"
}

// MpaRating MPA 分级
type MpaRating struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(10);not null;unique"`
}

func (MpaRating) TableName() string {
	return "mpa_ratings"
}

// Director 导演
type Director struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);not null"`
}

func (Director) TableName() string {
	return "directors"
}
