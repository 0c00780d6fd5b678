package service

import "time"

// DefaultSemesterStart 课表未携带开学日期时使用的默认值
var DefaultSemesterStart = time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)

// ComputeWeek 计算 now 所处的教学周（≥1）
//
// 按日历日相减（与夏令时无关）：dayDiff 为 now 所在日期与开学日期相差的天数，
// 周次 = ceil(dayDiff/7)，开学前及第一周内均为第 1 周。
func ComputeWeek(semesterStart *time.Time, now time.Time) int {
	start := DefaultSemesterStart
	if semesterStart != nil && !semesterStart.IsZero() {
		start = *semesterStart
	}
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	dayDiff := int(nowDate.Sub(startDate).Hours() / 24)
	if dayDiff <= 0 {
		return 1
	}

	week := (dayDiff + 6) / 7
	if week < 1 {
		return 1
	}
	return week
}

// DateOfWeekDay 返回第 week 周星期 day 的日期（loc 时区零点）
func DateOfWeekDay(semesterStart *time.Time, week, day int, loc *time.Location) time.Time {
	start := DefaultSemesterStart
	if semesterStart != nil && !semesterStart.IsZero() {
		start = *semesterStart
	}
	base := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	return base.AddDate(0, 0, (week-1)*7+(day-1))
}

// ISOWeekday 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=Monday … 7=Sunday)
func ISOWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}
