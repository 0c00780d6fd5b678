package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wakeup-schedule/internal/model"
	"wakeup-schedule/internal/repository"
	"wakeup-schedule/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoCourses    = errors.New("课表中没有课程")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 课表导出业务接口
//
// 设计说明：
//   - ICS：每门课程的每个上课周次生成一个独立事件，时间按配置时区解释
//   - Excel：单周网格，行为时间段，列为周一至周日
//   - 结果以字节返回，由 Handler 层设置响应头
type ExportService interface {
	// ExportICS 导出全部上课安排为 iCalendar
	ExportICS(ctx context.Context, userID string) ([]byte, string, error)
	// ExportWeekXLSX 导出某一周的课表为 Excel，week<=0 时导出当前周
	ExportWeekXLSX(ctx context.Context, userID string, week int) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, clock: clk, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 导出 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, userID string) ([]byte, string, error) {
	schedule, err := loadSchedule(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, "", err
	}
	if len(schedule.Courses) == 0 {
		return nil, "", ErrExportNoCourses
	}

	loc := s.clock.Location()
	now := s.clock.Now()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//wakeup-schedule//课表导出//CN")
	cal.SetXWRCalName(schedule.TimetableName)
	cal.SetXWRTimezone(loc.String())

	events := 0
	for i := range schedule.Courses {
		c := &schedule.Courses[i]
		startH, startM := clockParts(c.StartTime)
		endH, endM := clockParts(c.EndTime)

		for _, week := range c.Weeks {
			date := DateOfWeekDay(schedule.SemesterStart, week, c.Day, loc)
			start := time.Date(date.Year(), date.Month(), date.Day(), startH, startM, 0, 0, loc)
			end := time.Date(date.Year(), date.Month(), date.Day(), endH, endM, 0, 0, loc)

			evt := cal.AddEvent(fmt.Sprintf("%s-%d-%d-w%d@wakeup-schedule", userID, c.CourseID, i, week))
			evt.SetDtStampTime(now)
			evt.SetStartAt(start)
			evt.SetEndAt(end)
			evt.SetSummary(c.Name)
			if c.Location != "" {
				evt.SetLocation(c.Location)
			}
			evt.SetDescription(courseDescription(c, week))
			events++
		}
	}
	if events == 0 {
		return nil, "", ErrExportNoCourses
	}

	filename := fmt.Sprintf("%s.ics", exportBaseName(schedule))
	return []byte(cal.Serialize()), filename, nil
}

func courseDescription(c *model.Course, week int) string {
	parts := []string{fmt.Sprintf("第%d周", week)}
	if c.Teacher != "" {
		parts = append(parts, "教师: "+c.Teacher)
	}
	if c.Credit > 0 {
		parts = append(parts, fmt.Sprintf("学分: %.1f", c.Credit))
	}
	return strings.Join(parts, " | ")
}

// ═══════════════════════════════════════════════════════════
// ExportWeekXLSX — 导出单周 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：课表名 — 第N周
//   - 表头：时间 | 周一 ~ 周日（附日期）
//   - 单元格：课程名 / 地点 / 教师

func (s *exportService) ExportWeekXLSX(ctx context.Context, userID string, week int) (*bytes.Buffer, string, error) {
	schedule, err := loadSchedule(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, "", err
	}
	if week <= 0 {
		week = ComputeWeek(schedule.SemesterStart, s.clock.Now())
	}

	// 1. 收集本周课程与时间段
	type slotKey struct{ start, end string }
	cells := make(map[slotKey]map[int][]string)
	var slots []slotKey
	for day := 1; day <= 7; day++ {
		for _, c := range TodayCourses(schedule, week, day) {
			k := slotKey{c.StartTime, c.EndTime}
			if _, ok := cells[k]; !ok {
				cells[k] = make(map[int][]string)
				slots = append(slots, k)
			}
			cells[k][day] = append(cells[k][day], courseCellText(&c))
		}
	}
	if len(slots) == 0 {
		return nil, "", ErrExportNoCourses
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].start != slots[j].start {
			return slots[i].start < slots[j].start
		}
		return slots[i].end < slots[j].end
	})

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := fmt.Sprintf("第%d周", week)
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("创建工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "H", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 第%d周", schedule.TimetableName, week))
	f.MergeCell(sheetName, "A1", "H1")
	f.SetCellStyle(sheetName, "A1", "H1", headerStyle)

	// 表头
	dayNames := []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}
	f.SetCellValue(sheetName, cell("A", 2), "时间")
	for i, name := range dayNames {
		date := DateOfWeekDay(schedule.SemesterStart, week, i+1, s.clock.Location())
		f.SetCellValue(sheetName, cell(colName(i+1), 2), fmt.Sprintf("%s\n%s", name, date.Format("01-02")))
	}
	f.SetCellStyle(sheetName, "A2", "H2", headerStyle)

	// 数据行
	row := 3
	for _, k := range slots {
		f.SetCellValue(sheetName, cell("A", row), fmt.Sprintf("%s-%s", k.start, k.end))
		for day := 1; day <= 7; day++ {
			if texts, ok := cells[k][day]; ok {
				f.SetCellValue(sheetName, cell(colName(day), row), strings.Join(texts, "\n"))
			}
		}
		f.SetRowHeight(sheetName, row, 48)
		row++
	}
	f.SetCellStyle(sheetName, "A3", cell("H", row-1), cellStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_第%d周.xlsx", exportBaseName(schedule), week)
	return buf, filename, nil
}

func courseCellText(c *model.Course) string {
	lines := []string{c.Name}
	if c.Location != "" {
		lines = append(lines, "@"+c.Location)
	}
	if c.Teacher != "" {
		lines = append(lines, c.Teacher)
	}
	return strings.Join(lines, "\n")
}

// ── 辅助函数 ──

func exportBaseName(s *model.UserSchedule) string {
	name := strings.TrimSpace(s.TimetableName)
	if name == "" {
		name = "课表"
	}
	return strings.NewReplacer("/", "_", "\\", "_", "\"", "_").Replace(name)
}

func clockParts(hhmm string) (int, int) {
	m := ClockMinutes(hhmm)
	return m / 60, m % 60
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
