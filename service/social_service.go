package service

import (
	"context"
	"errors"
	"fmt"

	"filmorate_social/logging"
	"filmorate_social/metrics"
	"filmorate_social/model"

	"github.com/google/uuid"
)

// Options 社交服务策略开关
type Options struct {
	// StrictLikes 重复点赞返回 ErrConflict，否则视为幂等空操作
	StrictLikes bool
	// DefaultPopularLimit 热门列表默认数量
	DefaultPopularLimit int
}

// MutationResult 写操作结果；Warning 非空表示主操作成功但动态未写入
type MutationResult struct {
	Changed    bool              `json:"changed"`
	Friendship *FriendshipChange `json:"friendship,omitempty"`
	Warning    string            `json:"warning,omitempty"`
}

// SocialService 社交图与推荐的统一入口
type SocialService struct {
	users       UserDirectory
	films       FilmCatalogue
	feed        FeedSink
	likes       LikeGraph
	friendship  *FriendshipService
	ranker      *PopularityRanker
	engine      *RecommendationEngine
	strictLikes bool
}

func NewSocialService(likes LikeGraph, friends FriendshipStore, users UserDirectory, films FilmCatalogue, feed FeedSink, policy PolicySource, opts Options) *SocialService {
	return &SocialService{
		users:       users,
		films:       films,
		feed:        feed,
		likes:       likes,
		friendship:  NewFriendshipService(friends),
		ranker:      NewPopularityRanker(likes, opts.DefaultPopularLimit),
		engine:      NewRecommendationEngine(likes, policy),
		strictLikes: opts.StrictLikes,
	}
}

// AddLike userID 给 filmID 点赞
func (s *SocialService) AddLike(ctx context.Context, filmID, userID uuid.UUID) (*MutationResult, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireFilm(ctx, filmID); err != nil {
		return nil, err
	}

	created, err := s.likes.AddLike(ctx, userID, filmID)
	metrics.RecordOperation("add_like", err, created)
	if err != nil {
		return nil, fmt.Errorf("failed to add like: %w", err)
	}
	if !created && s.strictLikes {
		return nil, fmt.Errorf("%w: user %s already likes film %s", ErrConflict, userID, filmID)
	}

	result := &MutationResult{Changed: created}
	if created {
		result.Warning = s.recordEvent(ctx, userID, model.EventTypeLike, model.OperationAdd, filmID)
	}
	logging.Info().Str("user_id", userID.String()).Str("film_id", filmID.String()).Bool("changed", created).Msg("Like added")
	return result, nil
}

// RemoveLike 取消点赞，未点赞时为空操作
func (s *SocialService) RemoveLike(ctx context.Context, filmID, userID uuid.UUID) (*MutationResult, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireFilm(ctx, filmID); err != nil {
		return nil, err
	}

	removed, err := s.likes.RemoveLike(ctx, userID, filmID)
	metrics.RecordOperation("remove_like", err, removed)
	if err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}

	result := &MutationResult{Changed: removed}
	if removed {
		result.Warning = s.recordEvent(ctx, userID, model.EventTypeLike, model.OperationRemove, filmID)
	}
	logging.Info().Str("user_id", userID.String()).Str("film_id", filmID.String()).Bool("changed", removed).Msg("Like removed")
	return result, nil
}

// AddFriend userID 添加 friendID
func (s *SocialService) AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*MutationResult, error) {
	if userID == friendID {
		return nil, invalidOperation("user %s cannot befriend themselves", userID)
	}
	if err := s.requireUsers(ctx, userID, friendID); err != nil {
		return nil, err
	}

	change, err := s.friendship.RequestFriend(ctx, userID, friendID)
	metrics.RecordOperation("add_friend", err, change != nil && change.Changed)
	if err != nil {
		return nil, err
	}

	result := &MutationResult{Changed: change.Changed, Friendship: change}
	if change.Changed {
		result.Warning = s.recordEvent(ctx, userID, model.EventTypeFriend, model.OperationAdd, friendID)
	}
	logging.Info().Str("user_id", userID.String()).Str("friend_id", friendID.String()).
		Str("from", string(change.From)).Str("to", string(change.To)).Msg("Friend requested")
	return result, nil
}

// RemoveFriend userID 删除 friendID
func (s *SocialService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) (*MutationResult, error) {
	if userID == friendID {
		return nil, invalidOperation("user %s cannot unfriend themselves", userID)
	}
	if err := s.requireUsers(ctx, userID, friendID); err != nil {
		return nil, err
	}

	change, err := s.friendship.RemoveFriend(ctx, userID, friendID)
	metrics.RecordOperation("remove_friend", err, change != nil && change.Changed)
	if err != nil {
		return nil, err
	}

	result := &MutationResult{Changed: change.Changed, Friendship: change}
	if change.Changed {
		result.Warning = s.recordEvent(ctx, userID, model.EventTypeFriend, model.OperationRemove, friendID)
	}
	logging.Info().Str("user_id", userID.String()).Str("friend_id", friendID.String()).
		Str("from", string(change.From)).Str("to", string(change.To)).Msg("Friend removed")
	return result, nil
}

// GetFriendship 查询两人关系状态
func (s *SocialService) GetFriendship(ctx context.Context, userID, otherID uuid.UUID) (*PairStatus, error) {
	if userID == otherID {
		return nil, invalidOperation("user %s has no friendship with themselves", userID)
	}
	if err := s.requireUsers(ctx, userID, otherID); err != nil {
		return nil, err
	}
	return s.friendship.GetStatus(ctx, userID, otherID)
}

// ListFriends userID 添加过的所有用户（含未确认）
func (s *SocialService) ListFriends(ctx context.Context, userID uuid.UUID) ([]model.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.friendship.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrateUsers(ctx, ids)
}

// ListCommonFriends 与两人都互为确认好友的用户
func (s *SocialService) ListCommonFriends(ctx context.Context, userID, otherID uuid.UUID) ([]model.User, error) {
	if err := s.requireUsers(ctx, userID, otherID); err != nil {
		return nil, err
	}
	ids, err := s.friendship.MutualFriendIDs(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return s.hydrateUsers(ctx, ids)
}

// PopularFilms 热门影片
func (s *SocialService) PopularFilms(ctx context.Context, q model.PopularQuery) ([]model.Film, error) {
	ranked, err := s.ranker.TopFilms(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.hydrateFilms(ctx, ranked)
}

// CommonFilms 两人共同点赞的影片，按全局热度排序
func (s *SocialService) CommonFilms(ctx context.Context, userID, otherID uuid.UUID) ([]model.Film, error) {
	if err := s.requireUsers(ctx, userID, otherID); err != nil {
		return nil, err
	}
	ranked, err := s.ranker.CommonlyPopularFilms(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return s.hydrateFilms(ctx, ranked)
}

// Recommendations 为 userID 推荐影片
func (s *SocialService) Recommendations(ctx context.Context, userID uuid.UUID) ([]model.Film, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	filmIDs, err := s.engine.Recommend(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(filmIDs) == 0 {
		return []model.Film{}, nil
	}

	counts, err := s.likes.LikeCountByFilm(ctx, filmIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	ranked := make([]model.FilmLikes, 0, len(filmIDs))
	for _, id := range filmIDs {
		ranked = append(ranked, model.FilmLikes{FilmID: id, Likes: counts[id]})
	}
	return s.hydrateFilms(ctx, ranked)
}

// TasteNeighbors 推荐第一阶段的口味邻居
func (s *SocialService) TasteNeighbors(ctx context.Context, userID uuid.UUID) ([]model.TasteNeighbor, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.engine.Neighbors(ctx, userID)
}

func (s *SocialService) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return unavailable("user-directory", err)
	}
	if !exists {
		return notFound("user %s", userID)
	}
	return nil
}

func (s *SocialService) requireUsers(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		if err := s.requireUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *SocialService) requireFilm(ctx context.Context, filmID uuid.UUID) error {
	exists, err := s.films.FilmExists(ctx, filmID)
	if err != nil {
		return asUnavailable("film-catalogue", err)
	}
	if !exists {
		return notFound("film %s", filmID)
	}
	return nil
}

// hydrateUsers 按 ids 顺序返回用户记录，目录中缺失的 id 被跳过
func (s *SocialService) hydrateUsers(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, unavailable("user-directory", err)
	}

	byID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	result := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

// hydrateFilms 按排行顺序返回完整影片记录并回填点赞数
func (s *SocialService) hydrateFilms(ctx context.Context, ranked []model.FilmLikes) ([]model.Film, error) {
	if len(ranked) == 0 {
		return []model.Film{}, nil
	}

	ids := make([]uuid.UUID, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.FilmID)
	}
	films, err := s.films.GetFilmsByIDs(ctx, ids)
	if err != nil {
		return nil, asUnavailable("film-catalogue", err)
	}

	byID := make(map[uuid.UUID]model.Film, len(films))
	for _, f := range films {
		byID[f.ID] = f
	}
	result := make([]model.Film, 0, len(ranked))
	for _, r := range ranked {
		film, ok := byID[r.FilmID]
		if !ok {
			logging.Debug().Str("film_id", r.FilmID.String()).Msg("Ranked film missing from catalogue")
			continue
		}
		film.Likes = r.Likes
		result = append(result, film)
	}
	return result, nil
}

// recordEvent 写入动态，失败只记录告警并返回提示信息
func (s *SocialService) recordEvent(ctx context.Context, userID uuid.UUID, eventType, operation string, entityID uuid.UUID) string {
	if s.feed == nil {
		return ""
	}

	event := &model.FeedEvent{
		UserID:    userID,
		EventType: eventType,
		Operation: operation,
		EntityID:  entityID,
	}
	if err := s.feed.RecordEvent(ctx, event); err != nil {
		metrics.FeedEventFailures.WithLabelValues(eventType).Inc()
		logging.Warn().Err(err).Str("user_id", userID.String()).Str("event_type", eventType).
			Str("operation", operation).Msg("Failed to record feed event")
		return "activity feed unavailable: event not recorded"
	}
	return ""
}

func asUnavailable(what string, err error) error {
	if errors.Is(err, ErrCollaboratorUnavailable) {
		return err
	}
	return unavailable(what, err)
}
