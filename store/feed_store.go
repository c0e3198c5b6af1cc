package store

import (
	"context"
	"fmt"

	"filmorate_social/model"

	"gorm.io/gorm"
)

// FeedStore 用户动态写入（feed_events 表）
type FeedStore struct {
	db *gorm.DB
}

func NewFeedStore(db *gorm.DB) *FeedStore {
	return &FeedStore{db: db}
}

func (s *FeedStore) RecordEvent(ctx context.Context, event *model.FeedEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record feed event: %w", err)
	}
	return nil
}
