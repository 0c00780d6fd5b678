package dto

// ── 课表导入 ──

// ImportScheduleRequest 导入 WakeUp 课表请求
type ImportScheduleRequest struct {
	ShareText      string `json:"share_text" binding:"required,max=2000"` // 分享口令或完整分享文案
	SenderNickname string `json:"sender_nickname" binding:"omitempty,max=64"`
}

// ImportScheduleResponse 导入结果
type ImportScheduleResponse struct {
	TableName       string  `json:"table_name"`
	SemesterStart   *string `json:"semester_start"` // YYYY-MM-DD，缺省时为 null
	CourseCount     int     `json:"course_count"`
	Nickname        string  `json:"nickname"`
	NicknameMissing bool    `json:"nickname_missing"` // 未能获取昵称，已回退为用户 ID
}

// ── 课程 ──

// CourseResponse 课程信息
type CourseResponse struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Teacher    string  `json:"teacher"`
	Location   string  `json:"location"`
	Day        int     `json:"day"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Weeks      []int   `json:"weeks"`
	ParityType int     `json:"parity_type"`
	StartNode  int     `json:"start_node"`
	Step       int     `json:"step"`
	Credit     float64 `json:"credit"`
}

// ScheduleInfoResponse 课表概况
type ScheduleInfoResponse struct {
	UserID        string  `json:"user_id"`
	Nickname      string  `json:"nickname"`
	Signature     string  `json:"signature,omitempty"`
	TableName     string  `json:"table_name"`
	SemesterStart *string `json:"semester_start"`
	CurrentWeek   int     `json:"current_week"`
	TotalCourses  int     `json:"total_courses"`
	WeekCourses   int     `json:"week_courses"` // 本周有课的课程数
	UpdatedAt     string  `json:"updated_at"`
}

// DayScheduleQuery 按日查询参数
// 指定 week+day 时按指定日期查询；否则按 offset（0 今天，1 明天）查询
type DayScheduleQuery struct {
	Offset int  `form:"offset" binding:"omitempty,min=0,max=1"`
	Week   *int `form:"week" binding:"omitempty,min=1,max=60"`
	Day    *int `form:"day"`
}

// DayScheduleResponse 某日课程列表
type DayScheduleResponse struct {
	UserID      string           `json:"user_id"`
	DisplayName string           `json:"display_name"`
	Week        int              `json:"week"`
	Day         int              `json:"day"`
	Courses     []CourseResponse `json:"courses"`
}

// ── 个人资料 ──

// SetNicknameRequest 设置昵称请求
type SetNicknameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// SetSignatureRequest 设置个性签名请求
type SetSignatureRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// ProfileResponse 个人资料
type ProfileResponse struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Signature string `json:"signature"`
}
