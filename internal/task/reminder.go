package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wakeup-schedule/internal/model"
	"wakeup-schedule/internal/repository"
	"wakeup-schedule/internal/service"
	"wakeup-schedule/pkg/clock"
)

// ── 上课提醒 ──────────────────────────────────────────────
//
// 每次触发扫描所有已导入课表的用户，对今日距开课恰好 advance 分钟的课程发送提醒。
// 配置了 Redis 时用 SETNX 去重，避免多实例或任务重叠导致重复提醒。
// ─────────────────────────────────────────────────────────────

const remindDedupTTL = 24 * time.Hour

// Notification 一条上课提醒
type Notification struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Course    string `json:"course"`
	Location  string `json:"location,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Date      string `json:"date"`
	Week      int    `json:"week"`
	Minutes   int    `json:"minutes"` // 距开课分钟数
}

// Notifier 提醒投递接口
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Deduper 提醒去重；首次标记返回 true
type Deduper interface {
	MarkReminded(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Reminder 上课提醒任务
type Reminder struct {
	repo     *repository.Repository
	clock    clock.Clock
	advance  int
	notifier Notifier
	dedup    Deduper
	logger   *zap.Logger
}

// NewReminder 创建提醒任务；dedup 可为 nil
func NewReminder(repo *repository.Repository, clk clock.Clock, advance int, notifier Notifier, dedup Deduper, logger *zap.Logger) *Reminder {
	return &Reminder{
		repo:     repo,
		clock:    clk,
		advance:  advance,
		notifier: notifier,
		dedup:    dedup,
		logger:   logger,
	}
}

// Run 执行一次扫描，返回成功发送的提醒数
func (r *Reminder) Run(ctx context.Context) (int, error) {
	schedules, err := r.repo.Schedule.ListWithCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("读取课表列表失败: %w", err)
	}

	now := r.clock.Now().Truncate(time.Minute)
	nowMin := now.Hour()*60 + now.Minute()
	day := service.ISOWeekday(now.Weekday())

	sent := 0
	for i := range schedules {
		s := &schedules[i]
		week := service.ComputeWeek(s.SemesterStart, now)

		for _, c := range service.TodayCourses(s, week, day) {
			if !service.ValidCourse(&c) {
				continue
			}
			if service.ClockMinutes(c.StartTime)-nowMin != r.advance {
				continue
			}

			n := newNotification(s, &c, now, week, r.advance)
			if !r.markOnce(ctx, n) {
				continue
			}
			if err := r.notifier.Notify(ctx, n); err != nil {
				r.logger.Warn("发送上课提醒失败", zap.String("user_id", n.UserID), zap.String("course", n.Course), zap.Error(err))
				continue
			}
			sent++
		}
	}
	return sent, nil
}

// markOnce 去重标记；Redis 不可用时仍发送
func (r *Reminder) markOnce(ctx context.Context, n Notification) bool {
	if r.dedup == nil {
		return true
	}
	key := fmt.Sprintf("%s:%s:%s", n.UserID, n.Date, n.StartTime)
	first, err := r.dedup.MarkReminded(ctx, key, remindDedupTTL)
	if err != nil {
		r.logger.Warn("提醒去重失败，继续发送", zap.String("key", key), zap.Error(err))
		return true
	}
	return first
}

func newNotification(s *model.UserSchedule, c *model.Course, now time.Time, week, minutes int) Notification {
	nickname := s.Nickname
	if nickname == "" {
		nickname = s.UserID
	}
	return Notification{
		UserID:    s.UserID,
		Nickname:  nickname,
		Course:    c.Name,
		Location:  c.Location,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Date:      now.Format("2006-01-02"),
		Week:      week,
		Minutes:   minutes,
	}
}

// ── 调度 ──

// StartScheduler 按 spec（含秒的 cron 表达式）注册提醒任务并启动
func StartScheduler(spec string, reminder *Reminder, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()

		sent, err := reminder.Run(ctx)
		if err != nil {
			logger.Error("上课提醒任务执行失败", zap.Error(err))
			return
		}
		if sent > 0 {
			logger.Info("上课提醒已发送", zap.Int("count", sent))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("注册上课提醒任务失败: %w", err)
	}

	c.Start()
	logger.Info("上课提醒任务已启动", zap.String("spec", spec))
	return c, nil
}

// ── Notifier 实现 ──

// LogNotifier 只记录日志，用于未配置 webhook 的部署
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.logger.Info("上课提醒",
		zap.String("user_id", msg.UserID),
		zap.String("course", msg.Course),
		zap.String("start_time", msg.StartTime),
		zap.Int("minutes", msg.Minutes),
	)
	return nil
}

// WebhookNotifier 以 JSON POST 投递给宿主
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg Notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook 返回状态码 %d", resp.StatusCode)
	}
	return nil
}
