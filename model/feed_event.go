package model

import (
	"time"

	"github.com/google/uuid"
)

// 动态事件类型
const (
	EventTypeLike   = "LIKE"
	EventTypeFriend = "FRIEND"
)

// 动态操作类型
const (
	OperationAdd    = "ADD"
	OperationRemove = "REMOVE"
)

// FeedEvent 用户动态（只写，由社交操作产生）
type FeedEvent struct {
	ID        uuid.UUID `json:"event_id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	EventType string    `json:"event_type" gorm:"type:varchar(20);not null"` // 'LIKE' | 'FRIEND'
	Operation string    `json:"operation" gorm:"type:varchar(20);not null"`  // 'ADD' | 'REMOVE'
	EntityID  uuid.UUID `json:"entity_id" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"autoCreateTime"`
}

func (FeedEvent) TableName() string {
	return "feed_events"
}
