package service

import (
	"context"

	"filmorate_social/model"

	"github.com/google/uuid"
)

// LikeGraph 点赞二部图 {user, film}：单边增删 + 聚合查询
type LikeGraph interface {
	// AddLike 插入点赞边，返回是否新建（重复点赞返回 false）
	AddLike(ctx context.Context, userID, filmID uuid.UUID) (bool, error)
	// RemoveLike 删除点赞边，返回是否实际删除
	RemoveLike(ctx context.Context, userID, filmID uuid.UUID) (bool, error)
	LikeCountByFilm(ctx context.Context, filmIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	// OverlapCounts 与 userID 至少共同点赞一部影片的其他用户，按 overlap 降序、user_id 升序
	OverlapCounts(ctx context.Context, userID uuid.UUID) ([]model.TasteNeighbor, error)
	FilmsLikedByAny(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error)
	FilmsLikedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// TopFilms 按点赞数降序、film_id 升序返回目录中满足过滤条件的影片（含零赞影片）
	TopFilms(ctx context.Context, q model.PopularQuery) ([]model.FilmLikes, error)
}

// FriendEdges 单个用户对事务内可见的好友边
type FriendEdges interface {
	// Edge 查询 from → to，不存在返回 nil, nil
	Edge(ctx context.Context, from, to uuid.UUID) (*model.Friendship, error)
	Upsert(ctx context.Context, edge *model.Friendship) error
	SetConfirmed(ctx context.Context, from, to uuid.UUID, confirmed bool) error
	Delete(ctx context.Context, from, to uuid.UUID) (bool, error)
}

// FriendshipStore 有向好友关系存储
type FriendshipStore interface {
	// WithinPair 在对 (a, b) 串行化的事务中执行 fn，fn 返回错误时回滚
	WithinPair(ctx context.Context, a, b uuid.UUID, fn func(FriendEdges) error) error
	// FriendIDs 所有 userID → x 的 x，不区分是否确认
	FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// MutualFriendIDs 与 a、b 都互为确认好友的用户
	MutualFriendIDs(ctx context.Context, a, b uuid.UUID) ([]uuid.UUID, error)
}

// UserDirectory 用户身份查询（外部协作方）
type UserDirectory interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
}

// FilmCatalogue 影片目录查询（外部协作方）
type FilmCatalogue interface {
	FilmExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetFilmsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Film, error)
}

// FeedSink 用户动态写入端（尽力而为）
type FeedSink interface {
	RecordEvent(ctx context.Context, event *model.FeedEvent) error
}

// SettingsStore 系统配置持久化
type SettingsStore interface {
	LoadSettings(ctx context.Context) ([]model.SystemSettings, error)
	SaveSetting(ctx context.Context, setting *model.SystemSettings) error
}
