package service

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestComputeWeek(t *testing.T) {
	start := date(2024, 2, 26, 0, 0)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"开学前", date(2024, 2, 1, 12, 0), 1},
		{"开学当天", date(2024, 2, 26, 9, 0), 1},
		{"第一周末", date(2024, 3, 3, 23, 59), 1},
		{"第 8 天仍为第 1 周", date(2024, 3, 4, 9, 0), 1},
		{"第 9 天进入第 2 周", date(2024, 3, 5, 9, 0), 2},
		{"第 15 天", date(2024, 3, 11, 0, 0), 2},
		{"第 16 天", date(2024, 3, 12, 0, 0), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeWeek(&start, tt.now); got != tt.want {
				t.Errorf("ComputeWeek(%s) = %d，期望 %d", tt.now.Format(time.DateTime), got, tt.want)
			}
		})
	}
}

func TestComputeWeek_DefaultStart(t *testing.T) {
	now := date(2024, 3, 12, 8, 0)
	if got, want := ComputeWeek(nil, now), ComputeWeek(&DefaultSemesterStart, now); got != want {
		t.Errorf("缺省开学日期应使用默认值: got=%d want=%d", got, want)
	}
}

func TestComputeWeek_MonotonicAndPositive(t *testing.T) {
	start := date(2024, 9, 2, 0, 0)
	prev := 0
	for h := -24 * 30; h < 24*7*25; h += 7 {
		now := start.Add(time.Duration(h) * time.Hour)
		w := ComputeWeek(&start, now)
		if w < 1 {
			t.Fatalf("周次必须 ≥1，now=%s got=%d", now, w)
		}
		if w < prev {
			t.Fatalf("周次应单调不减，now=%s prev=%d got=%d", now, prev, w)
		}
		prev = w
	}
}

func TestComputeWeek_LocalMidnight(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	start := time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)
	// 北京时间 3 月 5 日 00:30，距开学零点（北京时间）已满 8 天
	now := time.Date(2024, 3, 5, 0, 30, 0, 0, loc)
	if got := ComputeWeek(&start, now); got != 2 {
		t.Errorf("开学日期应按 now 所在时区零点解释，期望 2，实际 %d", got)
	}
}

func TestComputeWeek_DaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	// 2024-03-10 切换夏令时，当天只有 23 小时
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"切换前第 7 天", time.Date(2024, 3, 11, 23, 59, 0, 0, loc), 1},
		{"第 8 天零点后", time.Date(2024, 3, 12, 0, 30, 0, 0, loc), 2},
		{"第 15 天零点后", time.Date(2024, 3, 19, 0, 0, 0, 0, loc), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeWeek(&start, tt.now); got != tt.want {
				t.Errorf("ComputeWeek(%s) = %d，期望 %d", tt.now.Format(time.DateTime), got, tt.want)
			}
		})
	}
}

func TestDateOfWeekDay(t *testing.T) {
	start := date(2024, 2, 26, 0, 0)
	got := DateOfWeekDay(&start, 3, 5, time.UTC)
	want := date(2024, 3, 15, 0, 0)
	if !got.Equal(want) {
		t.Errorf("第 3 周周五期望 %s，实际 %s", want, got)
	}
}

func TestISOWeekday(t *testing.T) {
	if ISOWeekday(time.Sunday) != 7 || ISOWeekday(time.Monday) != 1 || ISOWeekday(time.Saturday) != 6 {
		t.Error("星期映射错误")
	}
}
