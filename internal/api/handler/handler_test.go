package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/service"
	pkgerrors "wakeup-schedule/pkg/errors"
	"wakeup-schedule/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ScheduleService ──

type mockScheduleService struct {
	importResult  *dto.ImportScheduleResponse
	importErr     error
	lastImport    *dto.ImportScheduleRequest
	clearErr      error
	infoResult    *dto.ScheduleInfoResponse
	infoErr       error
	dayResult     *dto.DayScheduleResponse
	dayErr        error
	lastDayQuery  *dto.DayScheduleQuery
	profileResult *dto.ProfileResponse
	profileErr    error
}

func (m *mockScheduleService) Import(_ context.Context, _ string, req *dto.ImportScheduleRequest) (*dto.ImportScheduleResponse, error) {
	m.lastImport = req
	return m.importResult, m.importErr
}
func (m *mockScheduleService) Clear(_ context.Context, _ string) error {
	return m.clearErr
}
func (m *mockScheduleService) Info(_ context.Context, _ string) (*dto.ScheduleInfoResponse, error) {
	return m.infoResult, m.infoErr
}
func (m *mockScheduleService) ListDay(_ context.Context, _ string, q *dto.DayScheduleQuery) (*dto.DayScheduleResponse, error) {
	m.lastDayQuery = q
	return m.dayResult, m.dayErr
}
func (m *mockScheduleService) SetNickname(_ context.Context, _ string, _ string) (*dto.ProfileResponse, error) {
	return m.profileResult, m.profileErr
}
func (m *mockScheduleService) SetSignature(_ context.Context, _ string, _ string) (*dto.ProfileResponse, error) {
	return m.profileResult, m.profileErr
}

// ── Mock StatusService ──

type mockStatusService struct {
	statusResult *dto.StatusResponse
	statusErr    error
	groupResult  *dto.GroupStatusResponse
	groupErr     error
	lastWithText bool
	skipResult   *dto.SkipResponse
	skipErr      error
	lastSkip     *bool
}

func (m *mockStatusService) GetStatus(_ context.Context, _ string) (*dto.StatusResponse, error) {
	return m.statusResult, m.statusErr
}
func (m *mockStatusService) GetGroupStatusByIDs(_ context.Context, _ []string, withText bool) (*dto.GroupStatusResponse, error) {
	m.lastWithText = withText
	return m.groupResult, m.groupErr
}
func (m *mockStatusService) GetGroupStatus(_ context.Context, _ string, withText bool) (*dto.GroupStatusResponse, error) {
	m.lastWithText = withText
	return m.groupResult, m.groupErr
}
func (m *mockStatusService) SetSkip(_ context.Context, _ string, skipping bool) (*dto.SkipResponse, error) {
	m.lastSkip = &skipping
	return m.skipResult, m.skipErr
}

// ── Mock GroupService ──

type mockGroupService struct {
	result *dto.SyncMembersResponse
	err    error
}

func (m *mockGroupService) SyncMembers(_ context.Context, _ string, _ *dto.SyncMembersRequest) (*dto.SyncMembersResponse, error) {
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	data     []byte
	filename string
	err      error
	lastWeek int
}

func (m *mockExportService) ExportICS(_ context.Context, _ string) ([]byte, string, error) {
	return m.data, m.filename, m.err
}
func (m *mockExportService) ExportWeekXLSX(_ context.Context, _ string, week int) (*bytes.Buffer, string, error) {
	m.lastWeek = week
	if m.err != nil {
		return nil, "", m.err
	}
	return bytes.NewBuffer(m.data), m.filename, nil
}

// ── Mock ConversationService ──

type mockConversationService struct {
	prompt   *dto.PromptResponse
	reply    *dto.ConversationReply
	err      error
	lastKind service.ConversationKind
}

func (m *mockConversationService) Begin(_ context.Context, _ string, kind service.ConversationKind) (*dto.PromptResponse, error) {
	m.lastKind = kind
	return m.prompt, m.err
}
func (m *mockConversationService) HandleMessage(_ context.Context, _ string, _ *dto.ConversationMessageRequest) (*dto.ConversationReply, error) {
	return m.reply, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, route, target string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func TestScheduleHandler_Import_Success(t *testing.T) {
	mock := &mockScheduleService{importResult: &dto.ImportScheduleResponse{TableName: "大二下", CourseCount: 12}}
	h := NewScheduleHandler(mock)

	w := serve("POST", "/users/:user_id/schedule/import", "/users/10001/schedule/import",
		jsonBody(dto.ImportScheduleRequest{ShareText: "abc_123", SenderNickname: "小明"}), h.ImportSchedule)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	if mock.lastImport == nil || mock.lastImport.SenderNickname != "小明" {
		t.Errorf("请求未正确传递: %+v", mock.lastImport)
	}
}

func TestScheduleHandler_Import_BadJSON(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{})

	w := serve("POST", "/users/:user_id/schedule/import", "/users/10001/schedule/import",
		strings.NewReader("{"), h.ImportSchedule)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestScheduleHandler_Import_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"口令无效", service.ErrInvalidShareCode, http.StatusBadRequest, 12002},
		{"接口全部失败", fmt.Errorf("%w: timeout", service.ErrFetchExhausted), http.StatusBadGateway, 12003},
		{"解析失败", fmt.Errorf("%w: 记录不足", service.ErrScheduleDecode), http.StatusUnprocessableEntity, 12004},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewScheduleHandler(&mockScheduleService{importErr: tt.err})
			w := serve("POST", "/users/:user_id/schedule/import", "/users/10001/schedule/import",
				jsonBody(dto.ImportScheduleRequest{ShareText: "abc"}), h.ImportSchedule)

			if w.Code != tt.wantHTTP {
				t.Errorf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestScheduleHandler_GetInfo_NotConfigured(t *testing.T) {
	err := fmt.Errorf("%w: %w", service.ErrScheduleNotConfigured, pkgerrors.ErrStoreUnavailable)
	h := NewScheduleHandler(&mockScheduleService{infoErr: err})

	w := serve("GET", "/users/:user_id/schedule/info", "/users/10001/schedule/info", nil, h.GetInfo)

	if w.Code != http.StatusNotFound {
		t.Errorf("读取失败应按未设置返回 404，实际 %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12001 || resp.Details == "" {
		t.Errorf("响应错误: %+v", resp)
	}
}

func TestScheduleHandler_ListDay_Query(t *testing.T) {
	mock := &mockScheduleService{dayResult: &dto.DayScheduleResponse{Week: 3, Day: 2}}
	h := NewScheduleHandler(mock)

	w := serve("GET", "/users/:user_id/schedule/day", "/users/10001/schedule/day?week=3&day=2", nil, h.ListDay)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastDayQuery.Week == nil || *mock.lastDayQuery.Week != 3 || *mock.lastDayQuery.Day != 2 {
		t.Errorf("查询参数解析错误: %+v", mock.lastDayQuery)
	}

	w = serve("GET", "/users/:user_id/schedule/day", "/users/10001/schedule/day?offset=5", nil, h.ListDay)
	if w.Code != http.StatusBadRequest {
		t.Errorf("offset 越界应返回 400，实际 %d", w.Code)
	}
}

func TestScheduleHandler_SetNickname_TooLong(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{profileErr: service.ErrNicknameTooLong})

	w := serve("PUT", "/users/:user_id/profile/nickname", "/users/10001/profile/nickname",
		jsonBody(dto.SetNicknameRequest{Nickname: "很长的昵称"}), h.SetNickname)

	if w.Code != http.StatusBadRequest || parseResponse(w).Code != 12005 {
		t.Errorf("expected 400/12005, got %d/%d", w.Code, parseResponse(w).Code)
	}
}

func TestScheduleHandler_Clear(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{clearErr: service.ErrScheduleNotConfigured})

	w := serve("DELETE", "/users/:user_id/schedule", "/users/10001/schedule", nil, h.ClearSchedule)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestMustGetUserIDParam_TooLong(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{})

	w := serve("GET", "/users/:user_id/schedule/info", "/users/"+strings.Repeat("9", 65)+"/schedule/info", nil, h.GetInfo)
	if w.Code != http.StatusBadRequest {
		t.Errorf("过长的用户 ID 应返回 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StatusHandler / GroupHandler Tests
// ═══════════════════════════════════════════════════════════

func TestStatusHandler_SetSkip(t *testing.T) {
	mock := &mockStatusService{skipResult: &dto.SkipResponse{UserID: "10001", Skipping: true}}
	h := NewStatusHandler(mock)

	w := serve("PUT", "/users/:user_id/skip", "/users/10001/skip", strings.NewReader(`{"skipping":true}`), h.SetSkip)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastSkip == nil || !*mock.lastSkip {
		t.Error("skipping 参数未传递")
	}

	// skipping 缺失
	w = serve("PUT", "/users/:user_id/skip", "/users/10001/skip", strings.NewReader(`{}`), h.SetSkip)
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 skipping 应返回 400，实际 %d", w.Code)
	}
}

func TestStatusHandler_SetSkip_AlreadyOn(t *testing.T) {
	h := NewStatusHandler(&mockStatusService{skipErr: service.ErrSkipAlreadyOn})

	w := serve("PUT", "/users/:user_id/skip", "/users/10001/skip", strings.NewReader(`{"skipping":true}`), h.SetSkip)
	if w.Code != http.StatusConflict || parseResponse(w).Code != 13001 {
		t.Errorf("expected 409/13001, got %d/%d", w.Code, parseResponse(w).Code)
	}
}

func TestStatusHandler_BatchStatus(t *testing.T) {
	mock := &mockStatusService{groupResult: &dto.GroupStatusResponse{Total: 2, Text: "📚 群课表状态"}}
	h := NewStatusHandler(mock)

	w := serve("POST", "/status/batch", "/status/batch?format=text",
		jsonBody(dto.BatchStatusRequest{UserIDs: []string{"1", "2"}}), h.BatchStatus)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !mock.lastWithText {
		t.Error("format=text 应请求文本视图")
	}

	w = serve("POST", "/status/batch", "/status/batch", jsonBody(dto.BatchStatusRequest{}), h.BatchStatus)
	if w.Code != http.StatusBadRequest {
		t.Errorf("空列表应返回 400，实际 %d", w.Code)
	}
}

func TestGroupHandler_GetGroupStatus_Empty(t *testing.T) {
	h := NewGroupHandler(&mockGroupService{}, &mockStatusService{groupErr: service.ErrGroupEmpty})

	w := serve("GET", "/groups/:group_id/status", "/groups/g1/status", nil, h.GetGroupStatus)
	if w.Code != http.StatusNotFound || parseResponse(w).Code != 13003 {
		t.Errorf("expected 404/13003, got %d/%d", w.Code, parseResponse(w).Code)
	}
}

func TestGroupHandler_SyncMembers(t *testing.T) {
	h := NewGroupHandler(&mockGroupService{result: &dto.SyncMembersResponse{GroupID: "g1", Count: 1}}, &mockStatusService{})

	w := serve("PUT", "/groups/:group_id/members", "/groups/g1/members",
		jsonBody(dto.SyncMembersRequest{Members: []dto.SyncMember{{UserID: "1"}}}), h.SyncMembers)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportICS(t *testing.T) {
	h := NewExportHandler(&mockExportService{data: []byte("BEGIN:VCALENDAR"), filename: "课表.ics"})

	w := serve("GET", "/users/:user_id/schedule/export.ics", "/users/10001/schedule/export.ics", nil, h.ExportICS)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type 错误: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filename*=UTF-8''") {
		t.Errorf("Content-Disposition 错误: %s", cd)
	}
}

func TestExportHandler_FilenameWithSpace(t *testing.T) {
	h := NewExportHandler(&mockExportService{data: []byte("BEGIN:VCALENDAR"), filename: "我的 课表.ics"})

	w := serve("GET", "/users/:user_id/schedule/export.ics", "/users/10001/schedule/export.ics", nil, h.ExportICS)

	cd := w.Header().Get("Content-Disposition")
	want := "attachment; filename*=UTF-8''%E6%88%91%E7%9A%84%20%E8%AF%BE%E8%A1%A8.ics"
	if cd != want {
		t.Errorf("Content-Disposition 期望 %s，实际 %s", want, cd)
	}
	if strings.Contains(cd, "+") {
		t.Errorf("空格不应编码为 +: %s", cd)
	}
}

func TestExportHandler_ExportWeekXLSX(t *testing.T) {
	mock := &mockExportService{data: []byte("xlsx"), filename: "课表_第3周.xlsx"}
	h := NewExportHandler(mock)

	w := serve("GET", "/users/:user_id/schedule/export.xlsx", "/users/10001/schedule/export.xlsx?week=3", nil, h.ExportWeekXLSX)
	if w.Code != http.StatusOK || mock.lastWeek != 3 {
		t.Errorf("expected 200 with week=3, got %d week=%d", w.Code, mock.lastWeek)
	}

	w = serve("GET", "/users/:user_id/schedule/export.xlsx", "/users/10001/schedule/export.xlsx?week=abc", nil, h.ExportWeekXLSX)
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法 week 应返回 400，实际 %d", w.Code)
	}
}

func TestExportHandler_NoCourses(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoCourses})

	w := serve("GET", "/users/:user_id/schedule/export.ics", "/users/10001/schedule/export.ics", nil, h.ExportICS)
	if w.Code != http.StatusNotFound || parseResponse(w).Code != 14001 {
		t.Errorf("expected 404/14001, got %d/%d", w.Code, parseResponse(w).Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ConversationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestConversationHandler_BeginPrompt(t *testing.T) {
	mock := &mockConversationService{prompt: &dto.PromptResponse{Kind: "nickname", Prompt: "请发送你想要设置的昵称"}}
	h := NewConversationHandler(mock)

	w := serve("POST", "/users/:user_id/conversation/prompt", "/users/10001/conversation/prompt",
		jsonBody(dto.BeginPromptRequest{Kind: "nickname"}), h.BeginPrompt)
	if w.Code != http.StatusOK || mock.lastKind != service.KindNickname {
		t.Errorf("expected 200 with kind nickname, got %d kind=%s", w.Code, mock.lastKind)
	}

	w = serve("POST", "/users/:user_id/conversation/prompt", "/users/10001/conversation/prompt",
		jsonBody(dto.BeginPromptRequest{Kind: "avatar"}), h.BeginPrompt)
	if w.Code != http.StatusBadRequest {
		t.Errorf("未知类型应返回 400，实际 %d", w.Code)
	}
}

func TestConversationHandler_HandleMessage_ServiceError(t *testing.T) {
	h := NewConversationHandler(&mockConversationService{err: service.ErrInvalidShareCode})

	w := serve("POST", "/users/:user_id/conversation/messages", "/users/10001/conversation/messages",
		jsonBody(dto.ConversationMessageRequest{Text: "???"}), h.HandleMessage)
	if w.Code != http.StatusBadRequest || parseResponse(w).Code != 12002 {
		t.Errorf("expected 400/12002, got %d/%d", w.Code, parseResponse(w).Code)
	}
}
