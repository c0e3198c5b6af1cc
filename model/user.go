package model

import (
	"time"

	"github.com/google/uuid"
)

// User 用户（身份目录，只读引用）
type User struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string     `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Login     string     `json:"login" gorm:"type:varchar(100);not null"`
	Name      string     `json:"name" gorm:"type:varchar(100)"`
	Birthday  *time.Time `json:"birthday,omitempty" gorm:"type:date"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
