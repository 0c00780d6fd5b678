package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultSignature 未设置个性签名时的展示文案
const DefaultSignature = "此人很懒，还没有设置个性签名~"

// MemberStatus 群视图中的单个成员
type MemberStatus struct {
	UserID           string
	DisplayName      string
	AvatarURL        string
	Signature        string
	Skipping         bool // 翘课标记，可能在无课时开启
	HasSemesterStart bool
	Snapshot         StatusSnapshot
}

// GroupView 排序后的群状态视图
type GroupView struct {
	Members     []MemberStatus
	Total       int
	InProgress  int
	Skipping    int
	SkipEnabled int
}

// AggregateGroup 按状态优先级排序并统计
//
// 同状态按昵称中文排序，昵称相同再按用户 ID，保证全序；不修改入参。
func AggregateGroup(members []MemberStatus) GroupView {
	sorted := make([]MemberStatus, len(members))
	copy(sorted, members)

	// Collator 非并发安全，每次聚合单独创建
	col := collate.New(language.Chinese)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Snapshot.Status != b.Snapshot.Status {
			return a.Snapshot.Status < b.Snapshot.Status
		}
		if c := col.CompareString(a.DisplayName, b.DisplayName); c != 0 {
			return c < 0
		}
		return a.UserID < b.UserID
	})

	view := GroupView{Members: sorted, Total: len(sorted)}
	for _, m := range sorted {
		switch m.Snapshot.Status {
		case StatusInProgress:
			view.InProgress++
		case StatusSkipping:
			view.Skipping++
		}
		if m.Skipping {
			view.SkipEnabled++
		}
	}
	return view
}

var weekdayNames = map[int]string{1: "一", 2: "二", 3: "三", 4: "四", 5: "五", 6: "六", 7: "日"}

// FormatGroupText 生成群课表的纯文本版本，供无法发送图片的宿主使用
func FormatGroupText(view GroupView, week int, now time.Time) string {
	var b strings.Builder
	sep := strings.Repeat("━", 16) + "\n"

	b.WriteString("📚 群课表状态\n")
	b.WriteString(sep)
	fmt.Fprintf(&b, "第%d周 星期%s | 当前时间: %s\n", week, weekdayNames[ISOWeekday(now.Weekday())], now.Format("15:04"))
	fmt.Fprintf(&b, "有课表成员: %d人 | 上课中: %d人\n", view.Total, view.InProgress)
	fmt.Fprintf(&b, "翘课中: %d人 | 开启翘课: %d人\n", view.Skipping, view.SkipEnabled)
	b.WriteString(sep)

	for i, m := range view.Members {
		fmt.Fprintf(&b, "%d. %s", i+1, m.DisplayName)
		if m.Skipping {
			b.WriteString(" [翘课模式]")
		}
		fmt.Fprintf(&b, "\n   状态: %s\n", m.Snapshot.Status.Text())

		if st := m.Snapshot.Status; (st == StatusNoClass || st == StatusEnded) && m.Signature != "" {
			fmt.Fprintf(&b, "   签名: %s\n", m.Signature)
		}

		c := m.Snapshot.Course
		if c == nil {
			b.WriteString("   今日暂无课程安排\n\n")
			continue
		}
		fmt.Fprintf(&b, "   课程: %s\n", c.Name)
		fmt.Fprintf(&b, "   时间: %s-%s\n", c.StartTime, c.EndTime)
		if c.Location != "" {
			fmt.Fprintf(&b, "   地点: %s\n", c.Location)
		}
		if r := m.Snapshot.RemainingMinutes; r != nil {
			switch m.Snapshot.Status {
			case StatusInProgress:
				fmt.Fprintf(&b, "   剩余: %s\n", FormatRemaining(*r))
			case StatusNotStarted:
				fmt.Fprintf(&b, "   距离上课: %s\n", FormatRemaining(*r))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(sep)
	b.WriteString("使用 #翘课 或 #取消翘课 切换翘课状态")
	return b.String()
}
