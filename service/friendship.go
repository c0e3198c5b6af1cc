package service

import (
	"context"
	"fmt"

	"filmorate_social/model"

	"github.com/google/uuid"
)

// FriendshipService 好友关系状态机：NONE → PENDING → MUTUAL
// 每对用户用两条独立的有向边表示，状态迁移只在该用户对的事务内完成
type FriendshipService struct {
	store FriendshipStore
}

func NewFriendshipService(store FriendshipStore) *FriendshipService {
	return &FriendshipService{store: store}
}

// FriendshipChange 一次状态迁移的结果
type FriendshipChange struct {
	From    model.FriendshipState `json:"from"`
	To      model.FriendshipState `json:"to"`
	Changed bool                  `json:"changed"`
}

// RequestFriend userID 添加 friendID
// 反向边已存在时双方升级为 MUTUAL；否则创建未确认的 userID → friendID；正向边已存在时幂等
func (s *FriendshipService) RequestFriend(ctx context.Context, userID, friendID uuid.UUID) (*FriendshipChange, error) {
	if userID == friendID {
		return nil, invalidOperation("user %s cannot befriend themselves", userID)
	}

	change := &FriendshipChange{}
	err := s.store.WithinPair(ctx, userID, friendID, func(edges FriendEdges) error {
		forward, reverse, err := loadPair(ctx, edges, userID, friendID)
		if err != nil {
			return err
		}
		change.From = pairState(forward, reverse)

		switch {
		case reverse != nil:
			if forward == nil || !forward.Confirmed {
				if err := edges.Upsert(ctx, &model.Friendship{UserID: userID, FriendID: friendID, Confirmed: true}); err != nil {
					return err
				}
				change.Changed = true
			}
			if !reverse.Confirmed {
				if err := edges.SetConfirmed(ctx, friendID, userID, true); err != nil {
					return err
				}
				change.Changed = true
			}
			change.To = model.FriendshipMutual
		case forward == nil:
			if err := edges.Upsert(ctx, &model.Friendship{UserID: userID, FriendID: friendID, Confirmed: false}); err != nil {
				return err
			}
			change.Changed = true
			change.To = model.FriendshipPending
		default:
			change.To = change.From
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request friendship: %w", err)
	}

	return change, nil
}

// RemoveFriend 删除 userID → friendID
// 反向边若是已确认状态则降级为未确认（MUTUAL → PENDING(friendID → userID)）；边不存在时为空操作
func (s *FriendshipService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) (*FriendshipChange, error) {
	if userID == friendID {
		return nil, invalidOperation("user %s cannot unfriend themselves", userID)
	}

	change := &FriendshipChange{}
	err := s.store.WithinPair(ctx, userID, friendID, func(edges FriendEdges) error {
		forward, reverse, err := loadPair(ctx, edges, userID, friendID)
		if err != nil {
			return err
		}
		change.From = pairState(forward, reverse)

		if forward != nil {
			if _, err := edges.Delete(ctx, userID, friendID); err != nil {
				return err
			}
			change.Changed = true
		}
		if reverse != nil && reverse.Confirmed {
			if err := edges.SetConfirmed(ctx, friendID, userID, false); err != nil {
				return err
			}
			change.Changed = true
		}

		if reverse != nil {
			change.To = model.FriendshipPending
		} else {
			change.To = model.FriendshipNone
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove friendship: %w", err)
	}

	return change, nil
}

// PairStatus 用户对当前状态及两条边
type PairStatus struct {
	State   model.FriendshipState `json:"state"`
	Forward *model.Friendship     `json:"forward,omitempty"`
	Reverse *model.Friendship     `json:"reverse,omitempty"`
}

// GetStatus 查询 userID 与 otherID 之间的关系
func (s *FriendshipService) GetStatus(ctx context.Context, userID, otherID uuid.UUID) (*PairStatus, error) {
	if userID == otherID {
		return nil, invalidOperation("user %s has no friendship with themselves", userID)
	}

	status := &PairStatus{}
	err := s.store.WithinPair(ctx, userID, otherID, func(edges FriendEdges) error {
		forward, reverse, err := loadPair(ctx, edges, userID, otherID)
		if err != nil {
			return err
		}
		status.Forward, status.Reverse = forward, reverse
		status.State = pairState(forward, reverse)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query friendship: %w", err)
	}

	return status, nil
}

// FriendIDs 好友列表（包含未确认）
func (s *FriendshipService) FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.store.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return ids, nil
}

// MutualFriendIDs 共同好友：与两人都互为确认好友
func (s *FriendshipService) MutualFriendIDs(ctx context.Context, userID, otherID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.store.MutualFriendIDs(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list common friends: %w", err)
	}
	return ids, nil
}

func loadPair(ctx context.Context, edges FriendEdges, userID, otherID uuid.UUID) (*model.Friendship, *model.Friendship, error) {
	forward, err := edges.Edge(ctx, userID, otherID)
	if err != nil {
		return nil, nil, err
	}
	reverse, err := edges.Edge(ctx, otherID, userID)
	if err != nil {
		return nil, nil, err
	}
	return forward, reverse, nil
}

func pairState(forward, reverse *model.Friendship) model.FriendshipState {
	switch {
	case forward != nil && reverse != nil:
		return model.FriendshipMutual
	case forward != nil || reverse != nil:
		return model.FriendshipPending
	default:
		return model.FriendshipNone
	}
}
