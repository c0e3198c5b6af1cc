package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"filmorate_social/model"
	"filmorate_social/service"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendshipStore 有向好友边（friendships 表，主键 (user_id, friend_id)）
type FriendshipStore struct {
	db *gorm.DB
}

func NewFriendshipStore(db *gorm.DB) *FriendshipStore {
	return &FriendshipStore{db: db}
}

// WithinPair 事务内先取用户对的 advisory 锁，(a,b) 与 (b,a) 的并发请求在此串行
func (s *FriendshipStore) WithinPair(ctx context.Context, a, b uuid.UUID, fn func(service.FriendEdges) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", pairKey(a, b)).Error; err != nil {
			return fmt.Errorf("failed to lock friendship pair: %w", err)
		}
		return fn(&friendEdges{tx: tx})
	})
}

// FriendIDs userID → x 的所有 x，按添加时间
func (s *FriendshipStore) FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, friend_id ASC").
		Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	return ids, nil
}

// MutualFriendIDs 候选人与 a、b 之间四条边都存在且已确认
func (s *FriendshipStore) MutualFriendIDs(ctx context.Context, a, b uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := s.db.WithContext(ctx).Raw(`
		SELECT a_out.friend_id
		FROM friendships AS a_out
		JOIN friendships AS a_in ON a_in.user_id = a_out.friend_id AND a_in.friend_id = a_out.user_id
		JOIN friendships AS b_out ON b_out.friend_id = a_out.friend_id
		JOIN friendships AS b_in ON b_in.user_id = a_out.friend_id AND b_in.friend_id = b_out.user_id
		WHERE a_out.user_id = ? AND b_out.user_id = ?
		  AND a_out.confirmed AND a_in.confirmed AND b_out.confirmed AND b_in.confirmed
		ORDER BY a_out.friend_id`, a, b).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query common friends: %w", err)
	}
	return ids, nil
}

type friendEdges struct {
	tx *gorm.DB
}

func (e *friendEdges) Edge(ctx context.Context, from, to uuid.UUID) (*model.Friendship, error) {
	var edge model.Friendship
	err := e.tx.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", from, to).
		Take(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query friendship edge: %w", err)
	}
	return &edge, nil
}

func (e *friendEdges) Upsert(ctx context.Context, edge *model.Friendship) error {
	err := e.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "friend_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"confirmed", "updated_at"}),
		}).
		Create(edge).Error
	if err != nil {
		return fmt.Errorf("failed to upsert friendship edge: %w", err)
	}
	return nil
}

func (e *friendEdges) SetConfirmed(ctx context.Context, from, to uuid.UUID, confirmed bool) error {
	err := e.tx.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", from, to).
		Update("confirmed", confirmed).Error
	if err != nil {
		return fmt.Errorf("failed to update friendship edge: %w", err)
	}
	return nil
}

func (e *friendEdges) Delete(ctx context.Context, from, to uuid.UUID) (bool, error) {
	result := e.tx.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", from, to).
		Delete(&model.Friendship{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete friendship edge: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// pairKey 与方向无关的用户对键
func pairKey(a, b uuid.UUID) string {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return a.String() + ":" + b.String()
}
