package model

import (
	"time"

	"github.com/google/uuid"
)

// Friendship 有向好友边 user_id → friend_id
// 同一对用户最多各有一条方向的记录；双向都存在时两条都必须 confirmed
type Friendship struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	FriendID  uuid.UUID `json:"friend_id" gorm:"type:uuid;primaryKey;index"`
	Confirmed bool      `json:"confirmed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Friendship) TableName() string {
	return "friendships"
}

// FriendshipState 一对用户之间的关系状态
type FriendshipState string

const (
	FriendshipNone    FriendshipState = "none"
	FriendshipPending FriendshipState = "pending"
	FriendshipMutual  FriendshipState = "mutual"
)
