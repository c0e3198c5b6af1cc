package handler

import (
	"errors"

	"filmorate_social/logging"
	"filmorate_social/service"
	"filmorate_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError 按错误分类返回对应状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidOperation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		utils.Conflict(c, err.Error())
	case errors.Is(err, service.ErrCollaboratorUnavailable):
		logging.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("collaborator unavailable")
		utils.ServiceUnavailable(c, "dependent service unavailable")
	default:
		logging.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		utils.InternalServerError(c, "internal server error")
	}
}

// uuidParam 解析路径参数，失败时已写入 400
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery 解析 query 参数，失败时已写入 400
func uuidQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		utils.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
