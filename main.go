package main

import (
	"time"

	"filmorate_social/cache"
	"filmorate_social/config"
	"filmorate_social/handler"
	"filmorate_social/logging"
	"filmorate_social/middleware"
	"filmorate_social/service"
	"filmorate_social/store"
	"filmorate_social/store/memstore"
	"filmorate_social/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	// 服务端统一使用 UTC
	time.Local = time.UTC
}

// backends 存储层实现
type backends struct {
	likes    service.LikeGraph
	friends  service.FriendshipStore
	users    service.UserDirectory
	films    service.FilmCatalogue
	feed     service.FeedSink
	settings service.SettingsStore
}

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var b backends
	switch cfg.StorageDriver {
	case "memory":
		mem := memstore.New()
		b = backends{likes: mem, friends: mem, users: mem, films: mem, feed: mem, settings: mem}
		logging.Warn().Msg("using in-memory storage, data is not persisted")
	default:
		if err := utils.InitDB(cfg.DatabaseURL); err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer utils.CloseDB()

		if err := store.AutoMigrate(utils.GetDB()); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate database")
		}

		db := utils.GetDB()
		b = backends{
			likes:    store.NewLikeStore(db),
			friends:  store.NewFriendshipStore(db),
			users:    store.NewUserStore(db),
			films:    store.NewFilmStore(db),
			feed:     store.NewFeedStore(db),
			settings: store.NewSettingsStore(db),
		}
	}

	// Redis 可选：热门缓存与跨 Pod 推送
	if cfg.RedisURL != "" {
		if err := utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer utils.CloseRedis()

		ttl := time.Duration(cfg.PopularCacheTTLSeconds) * time.Second
		b.likes = cache.NewPopularCache(b.likes, utils.GetRedis(), ttl)
	}

	middleware.InitAuth(cfg.JWTSecret)

	sysSvc := service.NewSystemSettingsService(b.settings, service.RecommendationPolicy{
		MinOverlap:    int64(cfg.RecommendMinOverlap),
		NeighborLimit: cfg.RecommendNeighborLimit,
	})

	hub := handler.NewFeedHub(utils.GetRedis())
	hub.StartPubSub()
	defer hub.StopPubSub()

	breakerTimeout := time.Duration(cfg.BreakerTimeoutSeconds) * time.Second
	socialSvc := service.NewSocialService(
		b.likes,
		b.friends,
		b.users,
		service.NewGuardedCatalogue(b.films, breakerTimeout),
		service.NewGuardedFeedSink(hub.Sink(b.feed), breakerTimeout),
		sysSvc,
		service.Options{
			StrictLikes:         cfg.StrictLikes,
			DefaultPopularLimit: cfg.PopularDefaultLimit,
		},
	)

	r := handler.NewRouter(handler.RouterDeps{
		Social:       socialSvc,
		Settings:     sysSvc,
		Hub:          hub,
		AdminUserIDs: cfg.AdminUserIDs,
	})

	logging.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("filmorate_social service starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logging.Fatal().Err(err).Msg("failed to start server")
	}
}
