// Package memstore 内存实现的点赞图/好友关系/目录存储，用于本地开发与测试
package memstore

import (
	"context"
	"sync"
	"time"

	"filmorate_social/model"
	"filmorate_social/service"

	"github.com/google/uuid"
)

type edgeKey struct {
	from, to uuid.UUID
}

// Store 所有数据放在一把读写锁下
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]model.User
	films       map[uuid.UUID]model.Film
	likes       map[uuid.UUID]map[uuid.UUID]bool // user → films
	friendships map[edgeKey]model.Friendship
	feed        []model.FeedEvent
	settings    map[string]model.SystemSettings
}

func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]model.User),
		films:       make(map[uuid.UUID]model.Film),
		likes:       make(map[uuid.UUID]map[uuid.UUID]bool),
		friendships: make(map[edgeKey]model.Friendship),
		settings:    make(map[string]model.SystemSettings),
	}
}

// AddUser 写入用户，ID 为空时自动生成
func (s *Store) AddUser(user model.User) model.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return user
}

// AddFilm 写入影片，ID 为空时自动生成
func (s *Store) AddFilm(film model.Film) model.Film {
	if film.ID == uuid.Nil {
		film.ID = uuid.New()
	}
	if film.CreatedAt.IsZero() {
		film.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.films[film.ID] = film
	return film
}

// FeedEvents 已写入的动态（副本）
func (s *Store) FeedEvents() []model.FeedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.FeedEvent(nil), s.feed...)
}

// Edge 读取一条好友边
func (s *Store) Edge(from, to uuid.UUID) (model.Friendship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge, ok := s.friendships[edgeKey{from, to}]
	return edge, ok
}

// ---- service.UserDirectory ----

func (s *Store) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// ---- service.FilmCatalogue ----

func (s *Store) FilmExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.films[id]
	return ok, nil
}

func (s *Store) GetFilmsByIDs(_ context.Context, ids []uuid.UUID) ([]model.Film, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	films := make([]model.Film, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.films[id]; ok {
			films = append(films, f)
		}
	}
	return films, nil
}

// ---- service.FeedSink ----

func (s *Store) RecordEvent(_ context.Context, event *model.FeedEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = append(s.feed, *event)
	return nil
}

// ---- service.SettingsStore ----

func (s *Store) LoadSettings(_ context.Context) ([]model.SystemSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := make([]model.SystemSettings, 0, len(s.settings))
	for _, setting := range s.settings {
		settings = append(settings, setting)
	}
	return settings, nil
}

func (s *Store) SaveSetting(_ context.Context, setting *model.SystemSettings) error {
	setting.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[setting.SettingKey] = *setting
	return nil
}

var (
	_ service.LikeGraph       = (*Store)(nil)
	_ service.FriendshipStore = (*Store)(nil)
	_ service.UserDirectory   = (*Store)(nil)
	_ service.FilmCatalogue   = (*Store)(nil)
	_ service.FeedSink        = (*Store)(nil)
	_ service.SettingsStore   = (*Store)(nil)
)
