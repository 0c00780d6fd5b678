package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/pkg/clock"
)

// ── 交互式输入 ──────────────────────────────────────────────
//
// 设计说明：
//   - 状态转移是纯函数 Transition，不做任何 IO，便于单独测试
//   - 等待状态按用户保存在内存中，超过 TTL 自动失效
//   - 任意一条后续消息都会消费等待状态，执行失败也不保留
// ─────────────────────────────────────────────────────────────

var ErrUnknownConversationKind = errors.New("不支持的输入类型")

// ConversationKind 等待输入的类型
type ConversationKind string

const (
	KindShareCode ConversationKind = "share_code"
	KindNickname  ConversationKind = "nickname"
	KindSignature ConversationKind = "signature"
)

var conversationPrompts = map[ConversationKind]string{
	KindShareCode: "请发送你的WakeUp课程表分享口令（可以从WakeUp应用分享获取）",
	KindNickname:  "请发送你想要设置的昵称",
	KindSignature: "请发送你想要设置的个性签名（最多30字）",
}

const cancelKeyword = "取消"

// ConversationState 用户的输入状态，Kind 为空表示空闲
type ConversationState struct {
	Kind      ConversationKind
	ExpiresAt time.Time
}

// Idle 是否处于空闲状态
func (s ConversationState) Idle() bool { return s.Kind == "" }

// ActionType 状态转移产生的动作
type ActionType int

const (
	ActionNone ActionType = iota
	ActionCancel
	ActionExecute
)

// Action 状态转移结果
type Action struct {
	Type  ActionType
	Kind  ConversationKind
	Input string
}

// Transition 根据当前状态与收到的消息计算下一状态与动作
//
//	Idle                      + 任意消息 → Idle, None
//	AwaitingInput(已过期)     + 任意消息 → Idle, None
//	AwaitingInput(k)          + "取消"   → Idle, Cancel
//	AwaitingInput(k)          + 文本     → Idle, Execute(k, 文本)
func Transition(state ConversationState, text string, now time.Time) (ConversationState, Action) {
	if state.Idle() || !now.Before(state.ExpiresAt) {
		return ConversationState{}, Action{Type: ActionNone}
	}
	input := strings.TrimSpace(text)
	if input == cancelKeyword {
		return ConversationState{}, Action{Type: ActionCancel, Kind: state.Kind}
	}
	return ConversationState{}, Action{Type: ActionExecute, Kind: state.Kind, Input: input}
}

// ConversationService 交互式输入业务接口
type ConversationService interface {
	// Begin 进入等待输入状态，覆盖该用户之前的等待状态
	Begin(ctx context.Context, userID string, kind ConversationKind) (*dto.PromptResponse, error)
	// HandleMessage 处理用户的下一条消息
	HandleMessage(ctx context.Context, userID string, req *dto.ConversationMessageRequest) (*dto.ConversationReply, error)
}

type conversationService struct {
	schedule ScheduleService
	clock    clock.Clock
	ttl      time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]ConversationState
}

// NewConversationService 创建 ConversationService 实例
func NewConversationService(schedule ScheduleService, clk clock.Clock, ttl time.Duration, logger *zap.Logger) ConversationService {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	return &conversationService{
		schedule: schedule,
		clock:    clk,
		ttl:      ttl,
		logger:   logger,
		pending:  make(map[string]ConversationState),
	}
}

// ════════════════════════════════════════════════════════════
// Begin
// ════════════════════════════════════════════════════════════

func (s *conversationService) Begin(_ context.Context, userID string, kind ConversationKind) (*dto.PromptResponse, error) {
	prompt, ok := conversationPrompts[kind]
	if !ok {
		return nil, ErrUnknownConversationKind
	}

	now := s.clock.Now()
	state := ConversationState{Kind: kind, ExpiresAt: now.Add(s.ttl)}

	s.mu.Lock()
	s.pruneLocked(now)
	s.pending[userID] = state
	s.mu.Unlock()

	s.logger.Debug("进入等待输入状态", zap.String("user_id", userID), zap.String("kind", string(kind)))

	return &dto.PromptResponse{
		Kind:      string(kind),
		Prompt:    prompt,
		ExpiresAt: state.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// pruneLocked 清理过期状态，调用方需持有锁
func (s *conversationService) pruneLocked(now time.Time) {
	for id, st := range s.pending {
		if !now.Before(st.ExpiresAt) {
			delete(s.pending, id)
		}
	}
}

// ════════════════════════════════════════════════════════════
// HandleMessage
// ════════════════════════════════════════════════════════════

func (s *conversationService) HandleMessage(ctx context.Context, userID string, req *dto.ConversationMessageRequest) (*dto.ConversationReply, error) {
	now := s.clock.Now()

	s.mu.Lock()
	state := s.pending[userID]
	next, action := Transition(state, req.Text, now)
	if next.Idle() {
		delete(s.pending, userID)
	} else {
		s.pending[userID] = next
	}
	s.mu.Unlock()

	switch action.Type {
	case ActionNone:
		return &dto.ConversationReply{Handled: false}, nil
	case ActionCancel:
		return &dto.ConversationReply{Handled: true, Kind: string(action.Kind), Reply: "已取消"}, nil
	}

	reply := &dto.ConversationReply{Handled: true, Kind: string(action.Kind)}
	switch action.Kind {
	case KindShareCode:
		res, err := s.schedule.Import(ctx, userID, &dto.ImportScheduleRequest{
			ShareText:      action.Input,
			SenderNickname: req.SenderNickname,
		})
		if err != nil {
			return nil, err
		}
		reply.Reply = "课表导入成功：" + res.TableName
		reply.Result = res
	case KindNickname:
		res, err := s.schedule.SetNickname(ctx, userID, action.Input)
		if err != nil {
			return nil, err
		}
		reply.Reply = "昵称已设置为：" + res.Nickname
		reply.Result = res
	case KindSignature:
		res, err := s.schedule.SetSignature(ctx, userID, action.Input)
		if err != nil {
			return nil, err
		}
		reply.Reply = "个性签名已设置为：" + res.Signature
		reply.Result = res
	default:
		return nil, ErrUnknownConversationKind
	}
	return reply, nil
}
