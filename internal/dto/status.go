package dto

// ── 单人状态 ──

// StatusResponse 用户当前上课状态
type StatusResponse struct {
	UserID           string          `json:"user_id"`
	Status           string          `json:"status"`      // in_progress | skipping | not_started | ended | no_class
	StatusText       string          `json:"status_text"` // 进行中 / 翘课中 / ...
	Week             int             `json:"week"`
	Course           *CourseResponse `json:"course,omitempty"`
	RemainingMinutes *int            `json:"remaining_minutes,omitempty"`
	RemainingText    string          `json:"remaining_text,omitempty"`
	Skipping         bool            `json:"skipping"`
}

// ── 翘课 ──

// SetSkipRequest 设置翘课状态请求
type SetSkipRequest struct {
	Skipping *bool `json:"skipping" binding:"required"`
}

// SkipResponse 翘课状态
type SkipResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Skipping    bool   `json:"skipping"`
}

// ── 群状态 ──

// BatchStatusRequest 按用户 ID 列表查询群状态
type BatchStatusRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1,max=3000,dive,required,max=64"`
}

// GroupMemberStatus 群成员状态
type GroupMemberStatus struct {
	StatusResponse
	Nickname         string `json:"nickname"`
	AvatarURL        string `json:"avatar_url"`
	Signature        string `json:"signature"`
	HasSemesterStart bool   `json:"has_semester_start"`
}

// GroupStatusResponse 群状态视图
type GroupStatusResponse struct {
	Week        int                 `json:"week"` // 按默认开学日期计算的参考周次
	Day         int                 `json:"day"`
	Time        string              `json:"time"` // HH:MM
	Total       int                 `json:"total"`
	InProgress  int                 `json:"in_progress"`
	Skipping    int                 `json:"skipping"`
	SkipEnabled int                 `json:"skip_enabled"`
	Members     []GroupMemberStatus `json:"members"`
	Text        string              `json:"text,omitempty"` // format=text 时返回纯文本
}

// ── 群成员同步 ──

// SyncMembersRequest 全量同步群成员请求
type SyncMembersRequest struct {
	Members []SyncMember `json:"members" binding:"required,max=3000,dive"`
}

// SyncMember 群成员
type SyncMember struct {
	UserID string `json:"user_id" binding:"required,max=64"`
	Card   string `json:"card" binding:"omitempty,max=64"` // 群名片或昵称
}

// SyncMembersResponse 同步结果
type SyncMembersResponse struct {
	GroupID string `json:"group_id"`
	Count   int    `json:"count"`
}
