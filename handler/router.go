package handler

import (
	"filmorate_social/middleware"
	"filmorate_social/service"
	"filmorate_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Social       *service.SocialService
	Settings     *service.SystemSettingsService
	Hub          *FeedHub
	AdminUserIDs []uuid.UUID
}

// NewRouter 注册所有路由
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	friendHandler := NewFriendshipHandler(deps.Social)
	filmHandler := NewFilmHandler(deps.Social)
	sysHandler := NewSystemSettingsHandler(deps.Settings)

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Hub != nil {
		r.GET("/ws", HandleWebSocket(deps.Hub))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		// 好友
		api.PUT("/users/:id/friends/:friendId", middleware.RequireSelf("id"), friendHandler.AddFriend)
		api.DELETE("/users/:id/friends/:friendId", middleware.RequireSelf("id"), friendHandler.RemoveFriend)
		api.GET("/users/:id/friends/:friendId", friendHandler.GetFriendship)
		api.GET("/users/:id/friends", friendHandler.ListFriends)
		api.GET("/users/:id/friends/common/:otherId", friendHandler.ListCommonFriends)

		// 推荐
		api.GET("/users/:id/recommendations", filmHandler.Recommendations)
		api.GET("/users/:id/neighbors", filmHandler.TasteNeighbors)

		// 点赞与热门
		api.PUT("/films/:id/like/:userId", middleware.RequireSelf("userId"), filmHandler.AddLike)
		api.DELETE("/films/:id/like/:userId", middleware.RequireSelf("userId"), filmHandler.RemoveLike)
		api.GET("/films/popular", filmHandler.PopularFilms)
		api.GET("/films/common", filmHandler.CommonFilms)
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(AdminAuthMiddleware(deps.AdminUserIDs))
	{
		admin.GET("/settings", sysHandler.GetSystemSettings)
		admin.POST("/settings/:key", sysHandler.UpdateSystemSetting)
		admin.POST("/settings/reload", sysHandler.ReloadSystemSettings)
	}

	return r
}
