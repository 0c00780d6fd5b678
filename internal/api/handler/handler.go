package handler

import "wakeup-schedule/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule     *ScheduleHandler
	Status       *StatusHandler
	Group        *GroupHandler
	Export       *ExportHandler
	Conversation *ConversationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Schedule:     NewScheduleHandler(svc.Schedule),
		Status:       NewStatusHandler(svc.Status),
		Group:        NewGroupHandler(svc.Group, svc.Status),
		Export:       NewExportHandler(svc.Export),
		Conversation: NewConversationHandler(svc.Conversation),
	}
}
