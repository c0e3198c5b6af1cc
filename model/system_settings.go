package model

import (
	"time"
)

// SystemSettings 运行时可调参数（推荐策略等）
type SystemSettings struct {
	SettingKey   string    `json:"setting_key" gorm:"primaryKey;type:varchar(100)"`
	SettingValue string    `json:"setting_value" gorm:"not null"`
	Description  string    `json:"description"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}
