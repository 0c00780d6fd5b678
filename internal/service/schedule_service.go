package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/model"
	"wakeup-schedule/internal/repository"
	"wakeup-schedule/pkg/clock"
	pkgerrors "wakeup-schedule/pkg/errors"
)

// ── 课表模块业务错误 ──

var (
	ErrNicknameEmpty     = errors.New("昵称不能为空")
	ErrNicknameTooLong   = errors.New("昵称太长了，请控制在20个字符以内")
	ErrSignatureEmpty    = errors.New("签名不能为空")
	ErrSignatureTooLong  = errors.New("签名太长了，请控制在30字以内")
	ErrInvalidDay        = errors.New("星期数应在1-7之间（1=周一，7=周日）")
	ErrIncompleteDayArgs = errors.New("按日期查询需同时指定周数和星期")
)

const (
	maxNicknameLen  = 20
	maxSignatureLen = 30

	placeholderTableName = "未设置"
)

// ── ScheduleService 接口 ───────────────────────────────────
//
// 设计说明：
//   - 导入采用全量替换：口令 → 拉取 → 解析 → 写入，任一步失败都不修改已有数据。
//   - 课表与昵称、签名共用一条记录；仅设置资料时创建占位记录。
//   - 读取失败与记录损坏统一视为未设置课表。
// ─────────────────────────────────────────────────────────────

// ScheduleService 课表模块业务接口
type ScheduleService interface {
	// Import 通过 WakeUp 分享口令导入课表
	Import(ctx context.Context, userID string, req *dto.ImportScheduleRequest) (*dto.ImportScheduleResponse, error)
	// Clear 清除课表
	Clear(ctx context.Context, userID string) error
	// Info 课表概况
	Info(ctx context.Context, userID string) (*dto.ScheduleInfoResponse, error)
	// ListDay 查询今日 / 明日 / 指定周次星期的课程
	ListDay(ctx context.Context, userID string, q *dto.DayScheduleQuery) (*dto.DayScheduleResponse, error)
	// SetNickname 设置昵称
	SetNickname(ctx context.Context, userID, nickname string) (*dto.ProfileResponse, error)
	// SetSignature 设置个性签名
	SetSignature(ctx context.Context, userID, signature string) (*dto.ProfileResponse, error)
}

type scheduleService struct {
	repo    *repository.Repository
	fetcher ScheduleFetcher
	clock   clock.Clock
	logger  *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, fetcher ScheduleFetcher, clk clock.Clock, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, fetcher: fetcher, clock: clk, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Import — 导入课表
// ════════════════════════════════════════════════════════════
//
// 昵称优先级：已存昵称 → 发送者群名片/昵称 → 用户 ID（并提示用户设置）

func (s *scheduleService) Import(ctx context.Context, userID string, req *dto.ImportScheduleRequest) (*dto.ImportScheduleResponse, error) {
	code, err := NormalizeShareCode(req.ShareText)
	if err != nil {
		return nil, err
	}

	raw, err := s.fetcher.Fetch(ctx, code)
	if err != nil {
		s.logger.Warn("获取课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	schedule, err := ParseWakeupSchedule(raw)
	if err != nil {
		s.logger.Warn("解析课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	existing := s.findExisting(ctx, userID)

	nickname, missing := "", false
	switch {
	case existing != nil && existing.Nickname != "":
		nickname = existing.Nickname
	case strings.TrimSpace(req.SenderNickname) != "":
		nickname = truncateRunes(strings.TrimSpace(req.SenderNickname), maxNicknameLen)
	default:
		nickname, missing = userID, true
	}

	schedule.UserID = userID
	schedule.Nickname = nickname
	if existing != nil {
		schedule.Signature = existing.Signature
	}

	if err := s.repo.Schedule.Save(ctx, schedule); err != nil {
		s.logger.Error("保存课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("保存课表失败: %w", err)
	}

	s.logger.Info("课表导入成功",
		zap.String("user_id", userID),
		zap.String("table_name", schedule.TimetableName),
		zap.Int("courses", len(schedule.Courses)),
	)

	return &dto.ImportScheduleResponse{
		TableName:       schedule.TimetableName,
		SemesterStart:   semesterStartString(schedule),
		CourseCount:     len(schedule.Courses),
		Nickname:        nickname,
		NicknameMissing: missing,
	}, nil
}

// findExisting 读取已有记录用于保留昵称与签名，读取失败按不存在处理
func (s *scheduleService) findExisting(ctx context.Context, userID string) *model.UserSchedule {
	existing, err := s.repo.Schedule.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("读取已有课表失败，按新用户处理", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return existing
}

// ════════════════════════════════════════════════════════════
// Clear — 清除课表
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Clear(ctx context.Context, userID string) error {
	deleted, err := s.repo.Schedule.Delete(ctx, userID)
	if err != nil {
		s.logger.Error("清除课表失败", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("清除课表失败: %w", err)
	}
	if !deleted {
		return ErrScheduleNotConfigured
	}
	s.logger.Info("课表已清除", zap.String("user_id", userID))
	return nil
}

// ════════════════════════════════════════════════════════════
// Info / ListDay — 查询
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Info(ctx context.Context, userID string) (*dto.ScheduleInfoResponse, error) {
	schedule, err := loadSchedule(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}

	week := ComputeWeek(schedule.SemesterStart, s.clock.Now())
	weekCourses := 0
	for _, c := range schedule.Courses {
		if c.Weeks.Contains(week) {
			weekCourses++
		}
	}

	return &dto.ScheduleInfoResponse{
		UserID:        userID,
		Nickname:      displayName(schedule, "", userID),
		Signature:     schedule.Signature,
		TableName:     schedule.TimetableName,
		SemesterStart: semesterStartString(schedule),
		CurrentWeek:   week,
		TotalCourses:  len(schedule.Courses),
		WeekCourses:   weekCourses,
		UpdatedAt:     schedule.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func (s *scheduleService) ListDay(ctx context.Context, userID string, q *dto.DayScheduleQuery) (*dto.DayScheduleResponse, error) {
	schedule, err := loadSchedule(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}

	var week, day int
	switch {
	case q.Week != nil && q.Day != nil:
		week, day = *q.Week, *q.Day
		if day < 1 || day > 7 {
			return nil, ErrInvalidDay
		}
	case q.Week != nil || q.Day != nil:
		return nil, ErrIncompleteDayArgs
	default:
		// 明日按明日所在周计算，跨周日时周次随之递增
		target := s.clock.Now().AddDate(0, 0, q.Offset)
		week = ComputeWeek(schedule.SemesterStart, target)
		day = ISOWeekday(target.Weekday())
	}

	courses := TodayCourses(schedule, week, day)
	items := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		items = append(items, toCourseResponse(&courses[i]))
	}

	return &dto.DayScheduleResponse{
		UserID:      userID,
		DisplayName: displayName(schedule, "", userID),
		Week:        week,
		Day:         day,
		Courses:     items,
	}, nil
}

// ════════════════════════════════════════════════════════════
// SetNickname / SetSignature — 个人资料
// ════════════════════════════════════════════════════════════

func (s *scheduleService) SetNickname(ctx context.Context, userID, nickname string) (*dto.ProfileResponse, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrNicknameEmpty
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLen {
		return nil, ErrNicknameTooLong
	}

	return s.saveProfile(ctx, userID, func(p *model.UserSchedule) { p.Nickname = nickname })
}

func (s *scheduleService) SetSignature(ctx context.Context, userID, signature string) (*dto.ProfileResponse, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, ErrSignatureEmpty
	}
	if utf8.RuneCountInString(signature) > maxSignatureLen {
		return nil, ErrSignatureTooLong
	}

	return s.saveProfile(ctx, userID, func(p *model.UserSchedule) { p.Signature = signature })
}

// saveProfile 更新资料字段；尚无记录时创建占位课表
func (s *scheduleService) saveProfile(ctx context.Context, userID string, apply func(*model.UserSchedule)) (*dto.ProfileResponse, error) {
	profile, err := s.repo.Schedule.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		today := s.clock.Now()
		start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		profile = &model.UserSchedule{
			UserID:        userID,
			TimetableName: placeholderTableName,
			SemesterStart: &start,
			Nickname:      userID,
		}
	case err != nil:
		s.logger.Error("读取课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("保存资料失败: %w", pkgerrors.ErrStoreUnavailable)
	}

	apply(profile)
	profile.Courses = nil

	if err := s.repo.Schedule.SaveProfile(ctx, profile); err != nil {
		s.logger.Error("保存资料失败", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("保存资料失败: %w", err)
	}

	s.logger.Info("资料已更新",
		zap.String("user_id", userID),
		zap.String("nickname", profile.Nickname),
	)

	return &dto.ProfileResponse{
		UserID:    userID,
		Nickname:  profile.Nickname,
		Signature: profile.Signature,
	}, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
