package service

import (
	"fmt"
	"sort"
	"time"

	"wakeup-schedule/internal/model"
)

// CourseStatus 用户当前上课状态，取值顺序即群视图排序优先级
type CourseStatus int

const (
	StatusInProgress CourseStatus = iota // 进行中
	StatusSkipping                       // 翘课中
	StatusNotStarted                     // 未开始
	StatusEnded                          // 已结束
	StatusNoClass                        // 无课程
)

var courseStatusNames = [...]string{"in_progress", "skipping", "not_started", "ended", "no_class"}
var courseStatusTexts = [...]string{"进行中", "翘课中", "未开始", "已结束", "无课程"}

// String 返回接口使用的状态标识
func (s CourseStatus) String() string {
	if s < 0 || int(s) >= len(courseStatusNames) {
		return fmt.Sprintf("CourseStatus(%d)", int(s))
	}
	return courseStatusNames[s]
}

// Text 返回中文状态文案
func (s CourseStatus) Text() string {
	if s < 0 || int(s) >= len(courseStatusTexts) {
		return "未知"
	}
	return courseStatusTexts[s]
}

// StatusSnapshot 某一时刻的用户状态，仅在查询期间存在
type StatusSnapshot struct {
	Status           CourseStatus
	Course           *model.Course // NoClass 时为 nil
	RemainingMinutes *int          // 仅 InProgress（距下课）与 NotStarted（距上课）
	Week             int
}

// EvaluateStatus 根据课表、翘课标记与当前时间推导用户状态
//
// 时间按分钟比较，now 截断到整分钟；上下课时刻两端均视为上课中。
func EvaluateStatus(schedule *model.UserSchedule, skipping bool, now time.Time) StatusSnapshot {
	week := ComputeWeek(schedule.SemesterStart, now)
	today := TodayCourses(schedule, week, ISOWeekday(now.Weekday()))
	nowMin := now.Hour()*60 + now.Minute()

	snap := StatusSnapshot{Status: StatusNoClass, Week: week}

	for i := range today {
		c := &today[i]
		start, end := ClockMinutes(c.StartTime), ClockMinutes(c.EndTime)
		if start <= nowMin && nowMin <= end {
			snap.Course = c
			if skipping {
				snap.Status = StatusSkipping
				return snap
			}
			snap.Status = StatusInProgress
			snap.RemainingMinutes = intPtr(end - nowMin)
			return snap
		}
	}

	for i := range today {
		c := &today[i]
		if start := ClockMinutes(c.StartTime); start > nowMin {
			snap.Status = StatusNotStarted
			snap.Course = c
			snap.RemainingMinutes = intPtr(start - nowMin)
			return snap
		}
	}

	if len(today) > 0 {
		snap.Status = StatusEnded
		snap.Course = &today[len(today)-1]
	}
	return snap
}

// TodayCourses 返回第 week 周星期 day 的课程，按开始时间升序
func TodayCourses(schedule *model.UserSchedule, week, day int) []model.Course {
	var result []model.Course
	for _, c := range schedule.Courses {
		if c.Day == day && c.Weeks.Contains(week) {
			result = append(result, c)
		}
	}
	// HH:MM 零填充，字典序即时间序
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime < result[j].StartTime
	})
	return result
}

// FormatRemaining 将分钟数格式化为 "X小时Y分钟" 或 "Y分钟"
func FormatRemaining(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%d小时%d分钟", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d分钟", minutes)
}

// ValidCourse 校验存储中读出的课程是否满足不变量
func ValidCourse(c *model.Course) bool {
	if c.Day < 1 || c.Day > 7 {
		return false
	}
	start, err1 := normalizeClock(c.StartTime)
	end, err2 := normalizeClock(c.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}
	return start == c.StartTime && end == c.EndTime && start <= end
}

// ClockMinutes 将已校验的 "HH:MM" 转为当天分钟数
func ClockMinutes(hhmm string) int {
	var h, m int
	fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return h*60 + m
}

func intPtr(v int) *int { return &v }
