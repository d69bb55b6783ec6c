package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/panacea/internal/db"
	"github.com/panacea/internal/handler"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// apiSuite 启动一个带会话 cookie 的完整 HTTP 栈。
// 不配置 AI Key，模型调用统一走确定性兜底，测试无需外部依赖。
type apiSuite struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newAPISuite(t *testing.T) *apiSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Goal{}, &db.Plan{}, &db.Task{}, &db.ChatMessage{}, &db.SystemSetting{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	api := handler.NewAPI(gdb)
	server := httptest.NewServer(Setup(api, "test-secret"))

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	t.Cleanup(func() {
		server.Close()
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &apiSuite{
		t:      t,
		server: server,
		client: &http.Client{Jar: jar},
	}
}

func (s *apiSuite) do(method, path string, payload interface{}) (*http.Response, []byte) {
	s.t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.server.URL+path, body)
	if err != nil {
		s.t.Fatalf("failed to create request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("failed to read response body: %v", err)
	}
	return resp, data
}

func (s *apiSuite) doJSON(method, path string, payload interface{}, wantStatus int, out interface{}) {
	s.t.Helper()

	resp, data := s.do(method, path, payload)
	if resp.StatusCode != wantStatus {
		s.t.Fatalf("%s %s: expected status %d, got %d (%s)", method, path, wantStatus, resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			s.t.Fatalf("%s %s: failed to decode response: %v", method, path, err)
		}
	}
}

func (s *apiSuite) register(email string) {
	s.t.Helper()
	s.doJSON(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "secreto123",
	}, http.StatusCreated, nil)
}

func TestPing(t *testing.T) {
	s := newAPISuite(t)

	var out map[string]string
	s.doJSON(http.MethodGet, "/ping", nil, http.StatusOK, &out)
	if out["message"] != "pong" {
		t.Fatalf("unexpected ping response: %v", out)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newAPISuite(t)

	resp, _ := s.do(http.MethodGet, "/api/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}

	resp, _ = s.do(http.MethodGet, "/api/goals", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	s := newAPISuite(t)

	s.register("ana@example.com")

	var me db.User
	s.doJSON(http.MethodGet, "/api/me", nil, http.StatusOK, &me)
	if me.Email != "ana@example.com" {
		t.Fatalf("unexpected me response: %s", me.Email)
	}

	s.doJSON(http.MethodPost, "/api/auth/logout", nil, http.StatusOK, nil)

	resp, _ := s.do(http.MethodGet, "/api/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}

	s.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "secreto123",
	}, http.StatusOK, nil)
	s.doJSON(http.MethodGet, "/api/me", nil, http.StatusOK, &me)
}

func TestGoalPlanTaskFlow(t *testing.T) {
	s := newAPISuite(t)
	s.register("ana@example.com")

	var goal db.Goal
	s.doJSON(http.MethodPost, "/api/goals", map[string]string{
		"title":  "Dormir mejor",
		"domain": "sleep",
		"target": "Dormir 7.5h",
	}, http.StatusCreated, &goal)
	if goal.ID == "" {
		t.Fatal("expected goal id")
	}

	var generated struct {
		Plan  db.Plan   `json:"plan"`
		Tasks []db.Task `json:"tasks"`
	}
	s.doJSON(http.MethodPost, fmt.Sprintf("/api/goals/%s/plan", goal.ID), nil, http.StatusCreated, &generated)
	if generated.Plan.ID != goal.ID {
		t.Fatalf("expected plan id to equal goal id, got %s", generated.Plan.ID)
	}
	if len(generated.Tasks) < 5 {
		t.Fatalf("expected at least 5 tasks, got %d", len(generated.Tasks))
	}

	var today struct {
		Tasks []db.Task `json:"tasks"`
	}
	s.doJSON(http.MethodGet, "/api/tasks/today?tz=UTC", nil, http.StatusOK, &today)
	if len(today.Tasks) == 0 {
		t.Fatal("expected fallback tasks due today")
	}

	first := today.Tasks[0]
	var completed db.Task
	s.doJSON(http.MethodPost, fmt.Sprintf("/api/tasks/%s/complete", first.ID), nil, http.StatusOK, &completed)
	if completed.Status != db.TaskStatusDone {
		t.Fatalf("expected done status, got %s", completed.Status)
	}

	second := today.Tasks[1]
	var postponed db.Task
	s.doJSON(http.MethodPost, fmt.Sprintf("/api/tasks/%s/postpone", second.ID), map[string]int{"days": 1}, http.StatusOK, &postponed)
	if postponed.PostponedCount != 1 {
		t.Fatalf("expected postponed_count 1, got %d", postponed.PostponedCount)
	}

	resp, _ := s.do(http.MethodPost, fmt.Sprintf("/api/tasks/%s/postpone", second.ID), map[string]int{"days": 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero days, got %d", resp.StatusCode)
	}

	s.doJSON(http.MethodDelete, fmt.Sprintf("/api/goals/%s", goal.ID), nil, http.StatusOK, nil)

	var listed struct {
		Goals []db.Goal `json:"goals"`
	}
	s.doJSON(http.MethodGet, "/api/goals", nil, http.StatusOK, &listed)
	if len(listed.Goals) != 0 {
		t.Fatalf("expected deleted goal hidden from list, got %d", len(listed.Goals))
	}
}

func TestChatFlowWithoutModel(t *testing.T) {
	s := newAPISuite(t)
	s.register("ana@example.com")

	var reply struct {
		db.ChatMessage
		TextHTML string `json:"textHtml"`
	}
	s.doJSON(http.MethodPost, "/api/chat/messages", map[string]string{
		"text": "Quiero dormir mejor",
	}, http.StatusCreated, &reply)

	if reply.Role != db.ChatRoleAssistant {
		t.Fatalf("expected assistant reply, got %s", reply.Role)
	}
	if len(reply.Effects) == 0 {
		t.Fatal("expected effects on goal creation")
	}
	if reply.Effects[0].Type != "SET_CURRENT_GOAL" {
		t.Fatalf("expected SET_CURRENT_GOAL first, got %s", reply.Effects[0].Type)
	}
	if reply.TextHTML == "" {
		t.Fatal("expected rendered HTML for assistant reply")
	}

	var history struct {
		Messages []json.RawMessage `json:"messages"`
	}
	s.doJSON(http.MethodGet, "/api/chat/history", nil, http.StatusOK, &history)
	if len(history.Messages) != 2 {
		t.Fatalf("expected 2 messages in history, got %d", len(history.Messages))
	}
}

func TestSettingsNeverEchoKeys(t *testing.T) {
	s := newAPISuite(t)
	s.register("ana@example.com")

	var view map[string]interface{}
	s.doJSON(http.MethodPut, "/api/settings", map[string]interface{}{
		"aiProvider":   "openai",
		"openaiApiKey": "sk-super-secreta",
	}, http.StatusOK, &view)

	if set, _ := view["openaiKeySet"].(bool); !set {
		t.Fatal("expected openaiKeySet true")
	}
	for key, value := range view {
		if text, ok := value.(string); ok && text == "sk-super-secreta" {
			t.Fatalf("api key echoed in field %s", key)
		}
	}

	s.doJSON(http.MethodGet, "/api/settings", nil, http.StatusOK, &view)
	if _, exists := view["openaiApiKey"]; exists {
		t.Fatal("settings view must not contain the raw key field")
	}
}
