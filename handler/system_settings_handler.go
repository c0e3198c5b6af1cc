package handler

import (
	"filmorate_social/middleware"
	"filmorate_social/service"
	"filmorate_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SystemSettingsHandler struct {
	sysSvc *service.SystemSettingsService
}

func NewSystemSettingsHandler(sysSvc *service.SystemSettingsService) *SystemSettingsHandler {
	return &SystemSettingsHandler{
		sysSvc: sysSvc,
	}
}

// GetSystemSettings 获取所有系统配置（生效值）
// GET /api/admin/settings
func (h *SystemSettingsHandler) GetSystemSettings(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"settings": h.sysSvc.GetAllSettings(),
	})
}

// UpdateSystemSetting 更新系统配置
// POST /api/admin/settings/:key
func (h *SystemSettingsHandler) UpdateSystemSetting(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	if err := h.sysSvc.UpdateSetting(c.Request.Context(), key, req.Value); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "setting updated successfully",
		"key":     key,
		"value":   req.Value,
	})
}

// ReloadSystemSettings 重新加载系统配置
// POST /api/admin/settings/reload
func (h *SystemSettingsHandler) ReloadSystemSettings(c *gin.Context) {
	if err := h.sysSvc.LoadSettings(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "settings reloaded successfully",
	})
}

// AdminAuthMiddleware 超管鉴权：用户必须在 ADMIN_USER_IDS 中
func AdminAuthMiddleware(adminIDs []uuid.UUID) gin.HandlerFunc {
	admins := make(map[uuid.UUID]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return func(c *gin.Context) {
		userID, exists := middleware.GetUserID(c)
		if !exists {
			utils.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		if !admins[userID] {
			utils.Forbidden(c, "admin permission required")
			c.Abort()
			return
		}

		c.Next()
	}
}
