package memstore

import (
	"context"
	"sort"
	"time"

	"filmorate_social/model"
	"filmorate_social/service"

	"github.com/google/uuid"
)

// WithinPair 持有写锁执行 fn；fn 出错时恢复该用户对的两条边
func (s *Store) WithinPair(_ context.Context, a, b uuid.UUID, fn func(service.FriendEdges) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[edgeKey]model.Friendship, 2)
	for _, key := range []edgeKey{{a, b}, {b, a}} {
		if edge, ok := s.friendships[key]; ok {
			snapshot[key] = edge
		}
	}

	if err := fn(&pairEdges{store: s}); err != nil {
		for _, key := range []edgeKey{{a, b}, {b, a}} {
			if edge, ok := snapshot[key]; ok {
				s.friendships[key] = edge
			} else {
				delete(s.friendships, key)
			}
		}
		return err
	}
	return nil
}

func (s *Store) FriendIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]model.Friendship, 0)
	for key, edge := range s.friendships {
		if key.from == userID {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.Before(edges[j].CreatedAt)
		}
		return edges[i].FriendID.String() < edges[j].FriendID.String()
	})

	ids := make([]uuid.UUID, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.FriendID)
	}
	return ids, nil
}

func (s *Store) MutualFriendIDs(_ context.Context, a, b uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []uuid.UUID{}
	for key := range s.friendships {
		if key.from != a {
			continue
		}
		candidate := key.to
		if s.confirmedBothWays(a, candidate) && s.confirmedBothWays(b, candidate) {
			ids = append(ids, candidate)
		}
	}
	service.SortIDs(ids)
	return ids, nil
}

func (s *Store) confirmedBothWays(x, y uuid.UUID) bool {
	out, ok := s.friendships[edgeKey{x, y}]
	if !ok || !out.Confirmed {
		return false
	}
	in, ok := s.friendships[edgeKey{y, x}]
	return ok && in.Confirmed
}

// pairEdges 在 WithinPair 持锁期间直接访问 map
type pairEdges struct {
	store *Store
}

func (e *pairEdges) Edge(_ context.Context, from, to uuid.UUID) (*model.Friendship, error) {
	edge, ok := e.store.friendships[edgeKey{from, to}]
	if !ok {
		return nil, nil
	}
	return &edge, nil
}

func (e *pairEdges) Upsert(_ context.Context, edge *model.Friendship) error {
	key := edgeKey{edge.UserID, edge.FriendID}
	now := time.Now()
	stored, ok := e.store.friendships[key]
	if !ok {
		stored = model.Friendship{UserID: edge.UserID, FriendID: edge.FriendID, CreatedAt: now}
	}
	stored.Confirmed = edge.Confirmed
	stored.UpdatedAt = now
	e.store.friendships[key] = stored
	return nil
}

func (e *pairEdges) SetConfirmed(_ context.Context, from, to uuid.UUID, confirmed bool) error {
	key := edgeKey{from, to}
	stored, ok := e.store.friendships[key]
	if !ok {
		return nil
	}
	stored.Confirmed = confirmed
	stored.UpdatedAt = time.Now()
	e.store.friendships[key] = stored
	return nil
}

func (e *pairEdges) Delete(_ context.Context, from, to uuid.UUID) (bool, error) {
	key := edgeKey{from, to}
	if _, ok := e.store.friendships[key]; !ok {
		return false, nil
	}
	delete(e.store.friendships, key)
	return true, nil
}
