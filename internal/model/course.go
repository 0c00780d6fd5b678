package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course 课程表 — 对应 courses
// 一条记录表示一个上课模式：固定星期、固定时间段，在 Weeks 列出的周次上课
type Course struct {
	ID         string   `gorm:"type:uuid;primaryKey"          json:"-"`
	UserID     string   `gorm:"type:varchar(64);not null"     json:"-"`
	CourseID   int      `gorm:"not null"                      json:"id"` // WakeUp 课程 ID
	Name       string   `gorm:"type:varchar(128);not null"    json:"name"`
	Teacher    string   `gorm:"type:varchar(128)"             json:"teacher"`
	Location   string   `gorm:"type:varchar(128)"             json:"location"`
	Day        int      `gorm:"type:smallint;not null"        json:"day"`        // 1=周一 … 7=周日
	StartTime  string   `gorm:"type:char(5);not null"         json:"start_time"` // HH:MM
	EndTime    string   `gorm:"type:char(5);not null"         json:"end_time"`   // HH:MM
	Weeks      IntArray `gorm:"type:integer[];not null"       json:"weeks"`
	ParityType int      `gorm:"type:smallint;not null"        json:"parity_type"` // 0 每周 | 1 单周 | 2 双周
	StartNode  int      `gorm:"type:smallint"                 json:"start_node"`
	Step       int      `gorm:"type:smallint"                 json:"step"`
	Credit     float64  `gorm:"type:numeric(4,1)"             json:"credit"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 写入前生成主键
func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
