package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/model"
	"wakeup-schedule/internal/repository"
)

// GroupMemberInfo 群成员基本信息
type GroupMemberInfo struct {
	UserID string
	Card   string // 群名片或昵称，可为空
}

// GroupDirectory 群成员目录
type GroupDirectory interface {
	Members(ctx context.Context, groupID string) ([]GroupMemberInfo, error)
	AvatarURL(userID string) string
}

// repoGroupDirectory 基于宿主同步的成员表实现 GroupDirectory
type repoGroupDirectory struct {
	repo           *repository.Repository
	avatarTemplate string
}

// NewGroupDirectory 创建 GroupDirectory；avatarTemplate 中的 %s 替换为用户 ID
func NewGroupDirectory(repo *repository.Repository, avatarTemplate string) GroupDirectory {
	return &repoGroupDirectory{repo: repo, avatarTemplate: avatarTemplate}
}

func (d *repoGroupDirectory) Members(ctx context.Context, groupID string) ([]GroupMemberInfo, error) {
	members, err := d.repo.GroupMember.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	result := make([]GroupMemberInfo, 0, len(members))
	for _, m := range members {
		result = append(result, GroupMemberInfo{UserID: m.UserID, Card: m.Card})
	}
	return result, nil
}

func (d *repoGroupDirectory) AvatarURL(userID string) string {
	if d.avatarTemplate == "" || !strings.Contains(d.avatarTemplate, "%s") {
		return d.avatarTemplate
	}
	return fmt.Sprintf(d.avatarTemplate, userID)
}

// ── GroupService ──

// GroupService 群成员同步接口
type GroupService interface {
	// SyncMembers 用宿主提供的成员列表全量替换群成员
	SyncMembers(ctx context.Context, groupID string, req *dto.SyncMembersRequest) (*dto.SyncMembersResponse, error)
}

type groupService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGroupService 创建 GroupService 实例
func NewGroupService(repo *repository.Repository, logger *zap.Logger) GroupService {
	return &groupService{repo: repo, logger: logger}
}

func (s *groupService) SyncMembers(ctx context.Context, groupID string, req *dto.SyncMembersRequest) (*dto.SyncMembersResponse, error) {
	seen := make(map[string]bool, len(req.Members))
	members := make([]model.GroupMember, 0, len(req.Members))
	for _, m := range req.Members {
		if seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		members = append(members, model.GroupMember{
			GroupID: groupID,
			UserID:  m.UserID,
			Card:    strings.TrimSpace(m.Card),
		})
	}

	if err := s.repo.GroupMember.ReplaceGroup(ctx, groupID, members); err != nil {
		s.logger.Error("同步群成员失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, fmt.Errorf("同步群成员失败: %w", err)
	}

	s.logger.Info("群成员已同步", zap.String("group_id", groupID), zap.Int("count", len(members)))
	return &dto.SyncMembersResponse{GroupID: groupID, Count: len(members)}, nil
}
