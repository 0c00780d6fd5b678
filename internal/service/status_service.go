package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/repository"
	"wakeup-schedule/pkg/clock"
)

// ── 状态模块业务错误 ──

var (
	ErrSkipAlreadyOn  = errors.New("你已经处于翘课模式，无需再次开启")
	ErrSkipAlreadyOff = errors.New("你还未处于翘课模式，无需取消")
	ErrGroupEmpty     = errors.New("本群暂无成员设置课程表")
	ErrGroupDirectory = errors.New("获取群成员失败")
	ErrSkipSaveFailed = errors.New("翘课状态保存失败")
)

// StatusService 上课状态业务接口
type StatusService interface {
	// GetStatus 查询单个用户当前状态
	GetStatus(ctx context.Context, userID string) (*dto.StatusResponse, error)
	// GetGroupStatusByIDs 按用户 ID 列表聚合群状态
	GetGroupStatusByIDs(ctx context.Context, userIDs []string, withText bool) (*dto.GroupStatusResponse, error)
	// GetGroupStatus 通过群成员目录聚合群状态
	GetGroupStatus(ctx context.Context, groupID string, withText bool) (*dto.GroupStatusResponse, error)
	// SetSkip 开启或关闭翘课模式
	SetSkip(ctx context.Context, userID string, skipping bool) (*dto.SkipResponse, error)
}

type statusService struct {
	repo      *repository.Repository
	directory GroupDirectory
	clock     clock.Clock
	logger    *zap.Logger
}

// NewStatusService 创建 StatusService 实例
func NewStatusService(repo *repository.Repository, directory GroupDirectory, clk clock.Clock, logger *zap.Logger) StatusService {
	return &statusService{repo: repo, directory: directory, clock: clk, logger: logger}
}

func (s *statusService) GetStatus(ctx context.Context, userID string) (*dto.StatusResponse, error) {
	schedule, err := loadSchedule(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}

	skipping, err := s.repo.SkipFlag.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("读取翘课状态失败，按未开启处理", zap.String("user_id", userID), zap.Error(err))
		skipping = false
	}

	snap := EvaluateStatus(schedule, skipping, s.clock.Now())
	resp := toStatusResponse(userID, snap, skipping)
	return &resp, nil
}

func (s *statusService) GetGroupStatusByIDs(ctx context.Context, userIDs []string, withText bool) (*dto.GroupStatusResponse, error) {
	members := make([]GroupMemberInfo, 0, len(userIDs))
	for _, id := range userIDs {
		members = append(members, GroupMemberInfo{UserID: id})
	}
	return s.buildGroupView(ctx, members, withText)
}

func (s *statusService) GetGroupStatus(ctx context.Context, groupID string, withText bool) (*dto.GroupStatusResponse, error) {
	members, err := s.directory.Members(ctx, groupID)
	if err != nil {
		s.logger.Error("获取群成员失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGroupDirectory, err)
	}
	return s.buildGroupView(ctx, members, withText)
}

// buildGroupView 读取成员课表与翘课标记，逐个推导状态后聚合
// 没有课表或课表损坏的成员不计入视图
func (s *statusService) buildGroupView(ctx context.Context, members []GroupMemberInfo, withText bool) (*dto.GroupStatusResponse, error) {
	cards := make(map[string]string, len(members))
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := cards[m.UserID]; ok {
			continue
		}
		cards[m.UserID] = m.Card
		ids = append(ids, m.UserID)
	}

	schedules, err := s.repo.Schedule.ListByUserIDs(ctx, ids)
	if err != nil {
		s.logger.Error("批量读取课表失败", zap.Int("members", len(ids)), zap.Error(err))
		schedules = nil
	}

	skipFlags, err := s.repo.SkipFlag.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("批量读取翘课状态失败，按未开启处理", zap.Error(err))
		skipFlags = map[string]bool{}
	}

	now := s.clock.Now()
	statuses := make([]MemberStatus, 0, len(schedules))
	for i := range schedules {
		sch := &schedules[i]
		if err := checkSchedule(sch); err != nil {
			s.logger.Warn("课表记录已损坏，跳过该成员", zap.String("user_id", sch.UserID), zap.Error(err))
			continue
		}
		skipping := skipFlags[sch.UserID]
		signature := sch.Signature
		if signature == "" {
			signature = DefaultSignature
		}
		statuses = append(statuses, MemberStatus{
			UserID:           sch.UserID,
			DisplayName:      displayName(sch, cards[sch.UserID], sch.UserID),
			AvatarURL:        s.directory.AvatarURL(sch.UserID),
			Signature:        signature,
			Skipping:         skipping,
			HasSemesterStart: sch.SemesterStart != nil,
			Snapshot:         EvaluateStatus(sch, skipping, now),
		})
	}

	view := AggregateGroup(statuses)
	if view.Total == 0 {
		return nil, ErrGroupEmpty
	}

	refWeek := ComputeWeek(nil, now)
	resp := &dto.GroupStatusResponse{
		Week:        refWeek,
		Day:         ISOWeekday(now.Weekday()),
		Time:        now.Format("15:04"),
		Total:       view.Total,
		InProgress:  view.InProgress,
		Skipping:    view.Skipping,
		SkipEnabled: view.SkipEnabled,
		Members:     make([]dto.GroupMemberStatus, 0, len(view.Members)),
	}
	for _, m := range view.Members {
		resp.Members = append(resp.Members, dto.GroupMemberStatus{
			StatusResponse:   toStatusResponse(m.UserID, m.Snapshot, m.Skipping),
			Nickname:         m.DisplayName,
			AvatarURL:        m.AvatarURL,
			Signature:        m.Signature,
			HasSemesterStart: m.HasSemesterStart,
		})
	}
	if withText {
		resp.Text = FormatGroupText(view, refWeek, now)
	}
	return resp, nil
}

// SetSkip 翘课开关；已是目标状态时返回 ErrSkipAlreadyOn / ErrSkipAlreadyOff
func (s *statusService) SetSkip(ctx context.Context, userID string, skipping bool) (*dto.SkipResponse, error) {
	schedule, err := loadSchedule(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.SkipFlag.CompareAndSet(ctx, userID, skipping)
	if err != nil {
		s.logger.Error("保存翘课状态失败", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSkipSaveFailed, err)
	}
	if !changed {
		if skipping {
			return nil, ErrSkipAlreadyOn
		}
		return nil, ErrSkipAlreadyOff
	}

	s.logger.Info("翘课状态已切换", zap.String("user_id", userID), zap.Bool("skipping", skipping))
	return &dto.SkipResponse{
		UserID:      userID,
		DisplayName: displayName(schedule, "", userID),
		Skipping:    skipping,
	}, nil
}
