package model

import "time"

// GroupMember 群成员 — 对应 group_members
// 由宿主适配器同步，Card 为成员的群名片
type GroupMember struct {
	GroupID   string    `gorm:"type:varchar(64);primaryKey"        json:"group_id"`
	UserID    string    `gorm:"type:varchar(64);primaryKey"        json:"user_id"`
	Card      string    `gorm:"type:varchar(64)"                   json:"card"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (GroupMember) TableName() string { return "group_members" }
