package handler

import (
	"strconv"

	"filmorate_social/model"
	"filmorate_social/service"
	"filmorate_social/utils"

	"github.com/gin-gonic/gin"
)

type FilmHandler struct {
	socialSvc *service.SocialService
}

func NewFilmHandler(socialSvc *service.SocialService) *FilmHandler {
	return &FilmHandler{socialSvc: socialSvc}
}

// AddLike 点赞
// PUT /api/v1/films/:id/like/:userId
func (h *FilmHandler) AddLike(c *gin.Context) {
	filmID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	result, err := h.socialSvc.AddLike(c.Request.Context(), filmID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// RemoveLike 取消点赞
// DELETE /api/v1/films/:id/like/:userId
func (h *FilmHandler) RemoveLike(c *gin.Context) {
	filmID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	result, err := h.socialSvc.RemoveLike(c.Request.Context(), filmID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// PopularFilms 热门影片
// GET /api/v1/films/popular?count=10&genreId=1&year=1999
func (h *FilmHandler) PopularFilms(c *gin.Context) {
	var q model.PopularQuery

	if raw := c.Query("count"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count <= 0 {
			utils.BadRequest(c, "count must be a positive integer")
			return
		}
		q.Limit = count
	}
	if raw := c.Query("genreId"); raw != "" {
		genreID, err := strconv.Atoi(raw)
		if err != nil {
			utils.BadRequest(c, "invalid genreId")
			return
		}
		q.GenreID = &genreID
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			utils.BadRequest(c, "invalid year")
			return
		}
		q.Year = &year
	}

	films, err := h.socialSvc.PopularFilms(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"films": films,
		"total": len(films),
	})
}

// CommonFilms 两人共同点赞的影片
// GET /api/v1/films/common?userId=&friendId=
func (h *FilmHandler) CommonFilms(c *gin.Context) {
	userID, ok := uuidQuery(c, "userId")
	if !ok {
		return
	}
	friendID, ok := uuidQuery(c, "friendId")
	if !ok {
		return
	}

	films, err := h.socialSvc.CommonFilms(c.Request.Context(), userID, friendID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"films": films,
		"total": len(films),
	})
}

// Recommendations 推荐影片
// GET /api/v1/users/:id/recommendations
func (h *FilmHandler) Recommendations(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	films, err := h.socialSvc.Recommendations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"films": films,
		"total": len(films),
	})
}

// TasteNeighbors 口味相近的用户
// GET /api/v1/users/:id/neighbors
func (h *FilmHandler) TasteNeighbors(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	neighbors, err := h.socialSvc.TasteNeighbors(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"neighbors": neighbors,
	})
}
