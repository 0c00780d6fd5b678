package model

import "time"

// UserSchedule 用户课表记录 — 对应 user_schedules
// 课表与个人资料（昵称、签名）共用一条记录，以用户 ID 为主键
type UserSchedule struct {
	UserID        string     `gorm:"type:varchar(64);primaryKey"        json:"user_id"`
	TimetableName string     `gorm:"column:table_name;type:varchar(128)" json:"table_name"`
	SemesterStart *time.Time `gorm:"type:date"                          json:"semester_start,omitempty"`
	Nickname      string     `gorm:"type:varchar(64)"                   json:"nickname"`
	Signature     string     `gorm:"type:varchar(128)"                  json:"signature,omitempty"`
	BaseModel

	// 关联
	Courses []Course `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"courses"`
}

// TableName 指定表名
func (UserSchedule) TableName() string { return "user_schedules" }
