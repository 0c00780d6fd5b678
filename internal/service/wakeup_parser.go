package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wakeup-schedule/internal/model"
)

// ── WakeUp 分享数据解析器 ──────────────────────────────────
//
// 分享接口返回的 data 字段是按行分隔的 JSON 记录，按位置取值：
//   - [1] 节次表 {node, startTime, endTime}
//   - [2] 课表信息 {tableName, startDate}
//   - [3] 课程字典 {id, courseName}
//   - [4] 上课安排 {id, teacher, day, startWeek, endWeek, type, room, ...}
//
// 任一记录非法或引用缺失时整体失败，不返回部分结果。
// ─────────────────────────────────────────────────────────────

// ErrScheduleDecode 课表数据解析失败
var ErrScheduleDecode = errors.New("课表数据解析失败")

const wakeupMinRecords = 5

type wakeupNode struct {
	Node      int    `json:"node"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type wakeupTable struct {
	TableName string `json:"tableName"`
	StartDate string `json:"startDate"`
}

type wakeupCourseName struct {
	ID         int    `json:"id"`
	CourseName string `json:"courseName"`
}

type wakeupArrangement struct {
	ID        int     `json:"id"`
	Teacher   string  `json:"teacher"`
	Day       int     `json:"day"`
	StartWeek int     `json:"startWeek"`
	EndWeek   int     `json:"endWeek"`
	Type      int     `json:"type"`
	Room      string  `json:"room"`
	Credit    float64 `json:"credit"`
	StartNode int     `json:"startNode"`
	Step      int     `json:"step"`
	OwnTime   bool    `json:"ownTime"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
}

// ParseWakeupSchedule 将分享数据解析为用户课表（不含 UserID）
func ParseWakeupSchedule(raw string) (*model.UserSchedule, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < wakeupMinRecords {
		return nil, fmt.Errorf("%w: 记录数 %d 少于 %d", ErrScheduleDecode, len(lines), wakeupMinRecords)
	}
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
		if !json.Valid([]byte(lines[i])) {
			return nil, fmt.Errorf("%w: 第 %d 条记录不是合法 JSON", ErrScheduleDecode, i)
		}
	}

	var (
		nodes        []wakeupNode
		table        wakeupTable
		names        []wakeupCourseName
		arrangements []wakeupArrangement
	)
	if err := json.Unmarshal([]byte(lines[1]), &nodes); err != nil {
		return nil, fmt.Errorf("%w: 节次表: %v", ErrScheduleDecode, err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &table); err != nil {
		return nil, fmt.Errorf("%w: 课表信息: %v", ErrScheduleDecode, err)
	}
	if err := json.Unmarshal([]byte(lines[3]), &names); err != nil {
		return nil, fmt.Errorf("%w: 课程字典: %v", ErrScheduleDecode, err)
	}
	if err := json.Unmarshal([]byte(lines[4]), &arrangements); err != nil {
		return nil, fmt.Errorf("%w: 上课安排: %v", ErrScheduleDecode, err)
	}

	// 1. 节次索引
	nodeIndex := make(map[int]wakeupNode, len(nodes))
	for _, n := range nodes {
		nodeIndex[n.Node] = n
	}

	// 2. 课程名索引
	nameIndex := make(map[int]string, len(names))
	for _, n := range names {
		nameIndex[n.ID] = n.CourseName
	}

	// 3. 上课安排
	courses := make([]model.Course, 0, len(arrangements))
	for i, a := range arrangements {
		c, err := buildCourse(a, nodeIndex, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 条上课安排: %v", ErrScheduleDecode, i, err)
		}
		courses = append(courses, c)
	}

	return &model.UserSchedule{
		TimetableName: table.TableName,
		SemesterStart: parseStartDate(table.StartDate),
		Courses:       courses,
	}, nil
}

func buildCourse(a wakeupArrangement, nodes map[int]wakeupNode, names map[int]string) (model.Course, error) {
	name, ok := names[a.ID]
	if !ok {
		return model.Course{}, fmt.Errorf("课程 ID %d 不在课程字典中", a.ID)
	}
	if a.Day < 1 || a.Day > 7 {
		return model.Course{}, fmt.Errorf("星期 %d 超出 1-7", a.Day)
	}

	var rawStart, rawEnd string
	if a.OwnTime {
		rawStart, rawEnd = a.StartTime, a.EndTime
	} else {
		first, ok := nodes[a.StartNode]
		if !ok {
			return model.Course{}, fmt.Errorf("节次 %d 不存在", a.StartNode)
		}
		// 连续多节课的结束时间取最后一节
		lastNode := a.StartNode + a.Step - 1
		last, ok := nodes[lastNode]
		if !ok {
			return model.Course{}, fmt.Errorf("节次 %d 不存在", lastNode)
		}
		rawStart, rawEnd = first.StartTime, last.EndTime
	}

	start, err := normalizeClock(rawStart)
	if err != nil {
		return model.Course{}, err
	}
	end, err := normalizeClock(rawEnd)
	if err != nil {
		return model.Course{}, err
	}
	if start > end {
		return model.Course{}, fmt.Errorf("开始时间 %s 晚于结束时间 %s", start, end)
	}

	return model.Course{
		CourseID:   a.ID,
		Name:       name,
		Teacher:    a.Teacher,
		Location:   a.Room,
		Day:        a.Day,
		StartTime:  start,
		EndTime:    end,
		Weeks:      model.IntArray(ExpandWeeks(a.StartWeek, a.EndWeek, a.Type)),
		ParityType: a.Type,
		StartNode:  a.StartNode,
		Step:       a.Step,
		Credit:     a.Credit,
	}, nil
}

// ExpandWeeks 展开 [startWeek, endWeek] 内符合单双周规则的周次
// parity: 0 每周，1 单周，2 双周，其他取值不产生任何周次
func ExpandWeeks(startWeek, endWeek, parity int) []int {
	weeks := []int{}
	if parity < 0 || parity > 2 {
		return weeks
	}
	for w := startWeek; w <= endWeek; w++ {
		if parity == 0 || parity%2 == w%2 {
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// normalizeClock 将 "8:5" / "08:05" 统一为零填充的 "HH:MM"
func normalizeClock(s string) (string, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return "", fmt.Errorf("时间格式无效: %q", s)
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("时间格式无效: %q", s)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// parseStartDate 解析 "2024-2-26" / "2024-02-26"，为空或非法时返回 nil
func parseStartDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return nil
	}
	return &t
}
