package service

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"wakeup-schedule/internal/model"
	"wakeup-schedule/internal/repository"
)

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*model.UserSchedule
	getErr    error
	saveErr   error
	saves     int
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*model.UserSchedule)}
}

// cloneSchedule 模拟数据库读出的新对象，避免服务层修改影响存储
func cloneSchedule(s *model.UserSchedule) *model.UserSchedule {
	c := *s
	if s.Courses != nil {
		c.Courses = append([]model.Course(nil), s.Courses...)
	}
	return &c
}

func (m *mockScheduleRepo) GetByUserID(_ context.Context, userID string) (*model.UserSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if s, ok := m.schedules[userID]; ok {
		return cloneSchedule(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListByUserIDs(_ context.Context, userIDs []string) ([]model.UserSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []model.UserSchedule
	for _, id := range userIDs {
		if s, ok := m.schedules[id]; ok {
			result = append(result, *cloneSchedule(s))
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) ListWithCourses(_ context.Context) ([]model.UserSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []model.UserSchedule
	for _, s := range m.schedules {
		if len(s.Courses) > 0 {
			result = append(result, *cloneSchedule(s))
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) Save(_ context.Context, schedule *model.UserSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.schedules[schedule.UserID] = cloneSchedule(schedule)
	return nil
}

func (m *mockScheduleRepo) SaveProfile(_ context.Context, schedule *model.UserSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	if existing, ok := m.schedules[schedule.UserID]; ok {
		existing.Nickname = schedule.Nickname
		existing.Signature = schedule.Signature
		return nil
	}
	m.schedules[schedule.UserID] = cloneSchedule(schedule)
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[userID]; !ok {
		return false, nil
	}
	delete(m.schedules, userID)
	return true, nil
}

// ── Mock SkipFlagRepository ──

type mockSkipFlagRepo struct {
	mu    sync.Mutex
	flags map[string]bool
	err   error
}

func newMockSkipFlagRepo() *mockSkipFlagRepo {
	return &mockSkipFlagRepo{flags: make(map[string]bool)}
}

func (m *mockSkipFlagRepo) Get(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.flags[userID], nil
}

func (m *mockSkipFlagRepo) GetMany(_ context.Context, userIDs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make(map[string]bool)
	for _, id := range userIDs {
		if m.flags[id] {
			result[id] = true
		}
	}
	return result, nil
}

func (m *mockSkipFlagRepo) CompareAndSet(_ context.Context, userID string, skipping bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.flags[userID] == skipping {
		return false, nil
	}
	m.flags[userID] = skipping
	return true, nil
}

// ── Mock GroupMemberRepository ──

type mockGroupMemberRepo struct {
	groups map[string][]model.GroupMember
	err    error
}

func newMockGroupMemberRepo() *mockGroupMemberRepo {
	return &mockGroupMemberRepo{groups: make(map[string][]model.GroupMember)}
}

func (m *mockGroupMemberRepo) ListByGroup(_ context.Context, groupID string) ([]model.GroupMember, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.GroupMember(nil), m.groups[groupID]...), nil
}

func (m *mockGroupMemberRepo) ReplaceGroup(_ context.Context, groupID string, members []model.GroupMember) error {
	if m.err != nil {
		return m.err
	}
	m.groups[groupID] = append([]model.GroupMember(nil), members...)
	return nil
}

// ── Fake ScheduleFetcher ──

type fakeFetcher struct {
	payload  string
	err      error
	calls    int
	lastCode string
}

func (f *fakeFetcher) Fetch(_ context.Context, shareCode string) (string, error) {
	f.calls++
	f.lastCode = shareCode
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

// ── 测试仓储聚合 ──

type testRepos struct {
	schedule *mockScheduleRepo
	skip     *mockSkipFlagRepo
	group    *mockGroupMemberRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	r := &testRepos{
		schedule: newMockScheduleRepo(),
		skip:     newMockSkipFlagRepo(),
		group:    newMockGroupMemberRepo(),
	}
	return &repository.Repository{
		Schedule:    r.schedule,
		SkipFlag:    r.skip,
		GroupMember: r.group,
	}, r
}
