package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/model"
	"wakeup-schedule/internal/repository"
	pkgerrors "wakeup-schedule/pkg/errors"
)

// ErrScheduleNotConfigured 用户尚未导入课表
var ErrScheduleNotConfigured = errors.New("尚未设置课表")

// loadSchedule 读取用户课表
// 记录不存在、读取失败或记录损坏均视为未设置课表，后两者记录日志
func loadSchedule(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID string) (*model.UserSchedule, error) {
	s, err := repo.Schedule.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotConfigured
		}
		logger.Error("读取课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrScheduleNotConfigured, pkgerrors.ErrStoreUnavailable)
	}
	if err := checkSchedule(s); err != nil {
		logger.Warn("课表记录已损坏，按未设置处理", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrScheduleNotConfigured, err)
	}
	return s, nil
}

// checkSchedule 校验课表中每门课程
func checkSchedule(s *model.UserSchedule) error {
	for i := range s.Courses {
		if !ValidCourse(&s.Courses[i]) {
			return fmt.Errorf("%w: 课程 %q (星期 %d, %s-%s)", pkgerrors.ErrRecordCorrupted,
				s.Courses[i].Name, s.Courses[i].Day, s.Courses[i].StartTime, s.Courses[i].EndTime)
		}
	}
	return nil
}

// displayName 展示名：已存昵称 → 群名片 → "用户<ID>"
func displayName(s *model.UserSchedule, card, userID string) string {
	if s != nil && s.Nickname != "" {
		return s.Nickname
	}
	if card != "" {
		return card
	}
	return "用户" + userID
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func semesterStartString(s *model.UserSchedule) *string {
	if s.SemesterStart == nil {
		return nil
	}
	v := formatDate(*s.SemesterStart)
	return &v
}

func toCourseResponse(c *model.Course) dto.CourseResponse {
	weeks := []int(c.Weeks)
	if weeks == nil {
		weeks = []int{}
	}
	return dto.CourseResponse{
		ID:         c.CourseID,
		Name:       c.Name,
		Teacher:    c.Teacher,
		Location:   c.Location,
		Day:        c.Day,
		StartTime:  c.StartTime,
		EndTime:    c.EndTime,
		Weeks:      weeks,
		ParityType: c.ParityType,
		StartNode:  c.StartNode,
		Step:       c.Step,
		Credit:     c.Credit,
	}
}

func toStatusResponse(userID string, snap StatusSnapshot, skipping bool) dto.StatusResponse {
	resp := dto.StatusResponse{
		UserID:           userID,
		Status:           snap.Status.String(),
		StatusText:       snap.Status.Text(),
		Week:             snap.Week,
		RemainingMinutes: snap.RemainingMinutes,
		Skipping:         skipping,
	}
	if snap.Course != nil {
		c := toCourseResponse(snap.Course)
		resp.Course = &c
	}
	if snap.RemainingMinutes != nil {
		resp.RemainingText = FormatRemaining(*snap.RemainingMinutes)
	}
	return resp
}
