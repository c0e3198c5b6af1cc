package service

import (
	"context"
	"fmt"
	"sort"

	"filmorate_social/metrics"
	"filmorate_social/model"

	"github.com/google/uuid"
)

// RecommendationPolicy 推荐策略参数
type RecommendationPolicy struct {
	// MinOverlap 共同点赞数必须严格大于该值才算口味邻居
	MinOverlap int64 `json:"min_overlap"`
	// NeighborLimit 参与推荐的邻居数量上限
	NeighborLimit int `json:"neighbor_limit"`
}

func DefaultRecommendationPolicy() RecommendationPolicy {
	return RecommendationPolicy{MinOverlap: 1, NeighborLimit: 10}
}

// PolicySource 提供当前生效的推荐策略
type PolicySource interface {
	RecommendationPolicy() RecommendationPolicy
}

// StaticPolicy 固定策略
type StaticPolicy RecommendationPolicy

func (p StaticPolicy) RecommendationPolicy() RecommendationPolicy {
	return RecommendationPolicy(p)
}

// RecommendationEngine 协同过滤：口味邻居发现 + 候选影片生成
type RecommendationEngine struct {
	likes  LikeGraph
	policy PolicySource
}

func NewRecommendationEngine(likes LikeGraph, policy PolicySource) *RecommendationEngine {
	if policy == nil {
		policy = StaticPolicy(DefaultRecommendationPolicy())
	}
	return &RecommendationEngine{likes: likes, policy: policy}
}

// Neighbors 第一阶段：overlap > MinOverlap，按 overlap 降序取前 NeighborLimit 个
func (e *RecommendationEngine) Neighbors(ctx context.Context, userID uuid.UUID) ([]model.TasteNeighbor, error) {
	policy := e.policy.RecommendationPolicy()

	overlaps, err := e.likes.OverlapCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute overlaps for user %s: %w", userID, err)
	}

	neighbors := make([]model.TasteNeighbor, 0, len(overlaps))
	for _, n := range overlaps {
		if n.UserID == userID || n.Overlap <= policy.MinOverlap {
			continue
		}
		neighbors = append(neighbors, n)
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Overlap != neighbors[j].Overlap {
			return neighbors[i].Overlap > neighbors[j].Overlap
		}
		return lessID(neighbors[i].UserID, neighbors[j].UserID)
	})

	if policy.NeighborLimit > 0 && len(neighbors) > policy.NeighborLimit {
		neighbors = neighbors[:policy.NeighborLimit]
	}
	metrics.RecommendationNeighbors.Observe(float64(len(neighbors)))
	return neighbors, nil
}

// Recommend 第二阶段：邻居点赞过、而 userID 未点赞的影片，按 film_id 升序
func (e *RecommendationEngine) Recommend(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	neighbors, err := e.Neighbors(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return []uuid.UUID{}, nil
	}

	neighborIDs := make([]uuid.UUID, 0, len(neighbors))
	for _, n := range neighbors {
		neighborIDs = append(neighborIDs, n.UserID)
	}

	candidates, err := e.likes.FilmsLikedByAny(ctx, neighborIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load neighbor likes: %w", err)
	}
	seen, err := e.likes.FilmsLikedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes of user %s: %w", userID, err)
	}

	exclude := make(map[uuid.UUID]bool, len(seen))
	for _, id := range seen {
		exclude[id] = true
	}

	result := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if exclude[id] {
			continue
		}
		exclude[id] = true
		result = append(result, id)
	}
	SortIDs(result)
	return result, nil
}
