package task

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakeup-schedule/internal/model"
	"wakeup-schedule/internal/repository"
	"wakeup-schedule/pkg/clock"
)

// ── 测试替身 ──

type stubScheduleRepo struct {
	repository.ScheduleRepository
	schedules []model.UserSchedule
	err       error
}

func (s *stubScheduleRepo) ListWithCourses(context.Context) ([]model.UserSchedule, error) {
	return s.schedules, s.err
}

func (s *stubScheduleRepo) GetByUserID(context.Context, string) (*model.UserSchedule, error) {
	return nil, gorm.ErrRecordNotFound
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

type memoryDeduper struct {
	keys map[string]bool
}

func (m *memoryDeduper) MarkReminded(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

// 2024-03-04 周一 07:50，开学 2024-02-26（第 1 周）
func newTestReminder(dedup Deduper) (*Reminder, *recordingNotifier) {
	start := time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)
	repo := &repository.Repository{Schedule: &stubScheduleRepo{schedules: []model.UserSchedule{
		{
			UserID:        "u1",
			Nickname:      "小明",
			SemesterStart: &start,
			Courses: []model.Course{
				{Name: "高等数学", Day: 1, StartTime: "08:00", EndTime: "09:40", Weeks: model.IntArray{1}},
				{Name: "线性代数", Day: 1, StartTime: "10:00", EndTime: "11:40", Weeks: model.IntArray{1}},
				{Name: "大学物理", Day: 1, StartTime: "08:00", EndTime: "09:40", Weeks: model.IntArray{2}},
			},
		},
		{
			UserID:        "u2",
			SemesterStart: &start,
			Courses: []model.Course{
				{Name: "体育", Day: 2, StartTime: "08:00", EndTime: "09:40", Weeks: model.IntArray{1}},
			},
		},
	}}}
	notifier := &recordingNotifier{}
	clk := clock.NewFixed(time.Date(2024, 3, 4, 7, 50, 30, 0, time.UTC))
	return NewReminder(repo, clk, 10, notifier, dedup, zap.NewNop()), notifier
}

func TestReminder_Run(t *testing.T) {
	r, notifier := newTestReminder(nil)

	sent, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.sent, 1)

	n := notifier.sent[0]
	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, "高等数学", n.Course)
	assert.Equal(t, "2024-03-04", n.Date)
	assert.Equal(t, 10, n.Minutes)
	assert.Equal(t, 1, n.Week)
}

func TestReminder_Dedup(t *testing.T) {
	r, notifier := newTestReminder(&memoryDeduper{keys: map[string]bool{}})

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, notifier.sent, 1, "同一节课只应提醒一次")
}

func TestReminder_SundayAfternoon(t *testing.T) {
	start := time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)
	repo := &repository.Repository{Schedule: &stubScheduleRepo{schedules: []model.UserSchedule{{
		UserID:        "u3",
		SemesterStart: &start,
		Courses: []model.Course{
			{Name: "形势与政策", Day: 7, StartTime: "14:30", EndTime: "16:05", Weeks: model.IntArray{2}},
			{Name: "周一早课", Day: 1, StartTime: "14:30", EndTime: "16:05", Weeks: model.IntArray{2}},
		},
	}}}}
	notifier := &recordingNotifier{}
	// 2024-03-10 周日 14:20，第 2 周
	clk := clock.NewFixed(time.Date(2024, 3, 10, 14, 20, 0, 0, time.UTC))
	r := NewReminder(repo, clk, 10, notifier, nil, zap.NewNop())

	sent, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "形势与政策", notifier.sent[0].Course)
	assert.Equal(t, 2, notifier.sent[0].Week)
	assert.Equal(t, "u3", notifier.sent[0].Nickname)
}

func TestReminder_NotifierErrorNotCounted(t *testing.T) {
	r, notifier := newTestReminder(nil)
	notifier.err = errors.New("host offline")

	sent, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestReminder_RepoError(t *testing.T) {
	repo := &repository.Repository{Schedule: &stubScheduleRepo{err: errors.New("db down")}}
	r := NewReminder(repo, clock.NewFixed(time.Now()), 10, &recordingNotifier{}, nil, zap.NewNop())

	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestWebhookNotifier(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	require.NoError(t, n.Notify(context.Background(), Notification{UserID: "u1", Course: "高等数学"}))
	assert.Equal(t, "高等数学", got.Course)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	assert.Error(t, NewWebhookNotifier(failing.URL, time.Second).Notify(context.Background(), Notification{}))
}

func TestStartScheduler_InvalidSpec(t *testing.T) {
	r, _ := newTestReminder(nil)
	_, err := StartScheduler("not a spec", r, zap.NewNop())
	assert.Error(t, err)
}
