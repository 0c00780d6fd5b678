package model

import "time"

// SkipFlag 翘课标记 — 对应 skip_flags
// 首次切换时创建，不会自动过期
type SkipFlag struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey"        json:"user_id"`
	Skipping  bool      `gorm:"not null;default:false"             json:"skipping"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (SkipFlag) TableName() string { return "skip_flags" }
