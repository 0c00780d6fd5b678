package service

import (
	"go.uber.org/zap"

	"wakeup-schedule/config"
	"wakeup-schedule/internal/repository"
	"wakeup-schedule/pkg/clock"
)

// Service 聚合所有业务服务
type Service struct {
	Schedule     ScheduleService
	Status       StatusService
	Group        GroupService
	Export       ExportService
	Conversation ConversationService
}

// NewService 创建所有业务服务实例
func NewService(repo *repository.Repository, fetcher ScheduleFetcher, clk clock.Clock, cfg *config.Config, logger *zap.Logger) *Service {
	directory := NewGroupDirectory(repo, cfg.Schedule.AvatarTemplate)
	schedule := NewScheduleService(repo, fetcher, clk, logger)

	return &Service{
		Schedule:     schedule,
		Status:       NewStatusService(repo, directory, clk, logger),
		Group:        NewGroupService(repo, logger),
		Export:       NewExportService(repo, clk, logger),
		Conversation: NewConversationService(schedule, clk, cfg.Conversation.TTL, logger),
	}
}
