package model

import "github.com/google/uuid"

// TasteNeighbor 口味邻居（派生，不落库）：与目标用户共同点赞的影片数
type TasteNeighbor struct {
	UserID  uuid.UUID `json:"user_id"`
	Overlap int64     `json:"overlap"`
}

// FilmLikes 影片及其全局点赞数（派生，不落库）
type FilmLikes struct {
	FilmID uuid.UUID `json:"film_id"`
	Likes  int64     `json:"likes"`
}

// PopularQuery 热门影片查询条件
type PopularQuery struct {
	Limit   int
	GenreID *int
	Year    *int
}
