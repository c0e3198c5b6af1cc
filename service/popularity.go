package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"filmorate_social/model"

	"github.com/google/uuid"
)

// PopularityRanker 基于点赞图的热门排行（每次请求实时计算）
type PopularityRanker struct {
	likes        LikeGraph
	defaultLimit int
}

func NewPopularityRanker(likes LikeGraph, defaultLimit int) *PopularityRanker {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &PopularityRanker{likes: likes, defaultLimit: defaultLimit}
}

// TopFilms 热门影片，可按类型/年份过滤；Limit <= 0 时使用默认数量
func (r *PopularityRanker) TopFilms(ctx context.Context, q model.PopularQuery) ([]model.FilmLikes, error) {
	if q.Limit <= 0 {
		q.Limit = r.defaultLimit
	}

	ranked, err := r.likes.TopFilms(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to rank popular films: %w", err)
	}
	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	return ranked, nil
}

// CommonlyPopularFilms 两人都点赞过的影片，按全局点赞数排序（而非两人自己的点赞）
func (r *PopularityRanker) CommonlyPopularFilms(ctx context.Context, userID, otherID uuid.UUID) ([]model.FilmLikes, error) {
	userFilms, err := r.likes.FilmsLikedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes of user %s: %w", userID, err)
	}
	otherFilms, err := r.likes.FilmsLikedBy(ctx, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes of user %s: %w", otherID, err)
	}

	common := intersect(userFilms, otherFilms)
	if len(common) == 0 {
		return []model.FilmLikes{}, nil
	}

	counts, err := r.likes.LikeCountByFilm(ctx, common)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	ranked := make([]model.FilmLikes, 0, len(common))
	for _, filmID := range common {
		ranked = append(ranked, model.FilmLikes{FilmID: filmID, Likes: counts[filmID]})
	}
	RankByLikes(ranked)
	return ranked, nil
}

// RankByLikes 点赞数降序，相同点赞数按 film_id 升序
func RankByLikes(films []model.FilmLikes) {
	sort.SliceStable(films, func(i, j int) bool {
		if films[i].Likes != films[j].Likes {
			return films[i].Likes > films[j].Likes
		}
		return lessID(films[i].FilmID, films[j].FilmID)
	})
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// SortIDs 按 uuid 字节序升序排序（与 Postgres uuid 排序一致）
func SortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return lessID(ids[i], ids[j])
	})
}

func intersect(a, b []uuid.UUID) []uuid.UUID {
	inA := make(map[uuid.UUID]bool, len(a))
	for _, id := range a {
		inA[id] = true
	}

	result := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, id := range b {
		if inA[id] && !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}
