// Package cache 热门影片排行的 Redis 读穿缓存
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"filmorate_social/logging"
	"filmorate_social/metrics"
	"filmorate_social/model"
	"filmorate_social/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	generationKey = "popular:generation"
	keyPrefix     = "popular:v"
	loadTimeout   = 10 * time.Second
)

// PopularCache 包装 LikeGraph：TopFilms 走缓存，点赞变更时递增代数使旧缓存失效
type PopularCache struct {
	service.LikeGraph

	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

func NewPopularCache(next service.LikeGraph, rdb *redis.Client, ttl time.Duration) *PopularCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PopularCache{LikeGraph: next, rdb: rdb, ttl: ttl}
}

func (c *PopularCache) AddLike(ctx context.Context, userID, filmID uuid.UUID) (bool, error) {
	changed, err := c.LikeGraph.AddLike(ctx, userID, filmID)
	if err == nil && changed {
		c.invalidate(ctx)
	}
	return changed, err
}

func (c *PopularCache) RemoveLike(ctx context.Context, userID, filmID uuid.UUID) (bool, error) {
	changed, err := c.LikeGraph.RemoveLike(ctx, userID, filmID)
	if err == nil && changed {
		c.invalidate(ctx)
	}
	return changed, err
}

// TopFilms 缓存未命中时合并并发请求，只回源一次
func (c *PopularCache) TopFilms(ctx context.Context, q model.PopularQuery) ([]model.FilmLikes, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logging.Warn().Err(err).Msg("popular cache unavailable, reading through")
		return c.LikeGraph.TopFilms(ctx, q)
	}

	key := cacheKey(gen, q)
	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var ranked []model.FilmLikes
		if err := json.Unmarshal(data, &ranked); err == nil {
			metrics.PopularCacheHits.Inc()
			return ranked, nil
		}
	}
	metrics.PopularCacheMisses.Inc()

	// 回源不受首个调用方取消影响，避免合并等待的请求一起失败
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		ranked, err := c.LikeGraph.TopFilms(loadCtx, q)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(ranked); err == nil {
			if err := c.rdb.Set(loadCtx, key, data, c.ttl).Err(); err != nil {
				logging.Warn().Err(err).Str("key", key).Msg("failed to write popular cache")
			}
		}
		return ranked, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.FilmLikes), nil
}

func (c *PopularCache) invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		logging.Warn().Err(err).Msg("failed to invalidate popular cache")
	}
}

func cacheKey(gen int64, q model.PopularQuery) string {
	genre, year := "*", "*"
	if q.GenreID != nil {
		genre = fmt.Sprint(*q.GenreID)
	}
	if q.Year != nil {
		year = fmt.Sprint(*q.Year)
	}
	return fmt.Sprintf("%s%d:l%d:g%s:y%s", keyPrefix, gen, q.Limit, genre, year)
}
