package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/serverutils"
	"oreza-assistant-be/pkg/calendar/intent"
	"oreza-assistant-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeChatService struct {
	got *dto.ChatRequest
}

func (f *fakeChatService) SendChat(_ context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	f.got = req
	return &dto.ChatResponse{Response: "こんにちは", SessionID: "s-1"}, nil
}

type fakeSessionService struct{}

func (fakeSessionService) GetOrCreate(context.Context, string) *store.Session { return nil }
func (fakeSessionService) Create(context.Context) *dto.SessionResponse {
	return &dto.SessionResponse{SessionID: "s-new"}
}
func (fakeSessionService) Touch(*store.Session) {}
func (fakeSessionService) Clear(_ context.Context, id string) error {
	if id != "s-1" {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	return nil
}
func (fakeSessionService) Memory(context.Context, string) (*dto.SessionMemoryResponse, error) {
	return &dto.SessionMemoryResponse{SessionID: "s-1"}, nil
}
func (fakeSessionService) Failures(context.Context, string) (*dto.SessionFailuresResponse, error) {
	return &dto.SessionFailuresResponse{}, nil
}
func (fakeSessionService) CorrectFailure(_ context.Context, _, failureID string, _ *dto.CorrectFailureRequest) (*dto.CorrectFailureResponse, error) {
	return &dto.CorrectFailureResponse{FailureID: failureID}, nil
}
func (fakeSessionService) Count() int { return 1 }

type fakeCalendarService struct{}

func (fakeCalendarService) Dispatch(_ context.Context, req *dto.CalendarDispatchRequest) *dto.CalendarDispatchResponse {
	return &dto.CalendarDispatchResponse{Success: false, Error: "Unknown intent"}
}
func (fakeCalendarService) SyncFromChat(context.Context, string, intent.Context) (dto.CalendarSyncResult, bool) {
	return dto.CalendarSyncResult{}, false
}

type fakeAdminService struct{}

func (fakeAdminService) Health(context.Context) *dto.HealthResponse {
	return &dto.HealthResponse{Status: "ok", ActiveSessions: 1}
}
func (fakeAdminService) GetSystemLogs(context.Context, int, int, string) ([]*dto.LogListResponse, error) {
	return []*dto.LogListResponse{}, nil
}
func (fakeAdminService) GetLogDetail(context.Context, string) (*dto.LogDetailResponse, error) {
	return nil, fiber.NewError(fiber.StatusNotFound, "Log not found")
}

func newTestApp(secret string, chat *fakeChatService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	auth := serverutils.JwtMiddleware(secret)

	api := app.Group("/api")
	NewChatController(chat, auth).RegisterRoutes(api)
	NewSessionController(fakeSessionService{}, auth).RegisterRoutes(api)
	NewCalendarController(fakeCalendarService{}, auth).RegisterRoutes(api)
	NewAdminController(fakeAdminService{}, auth).RegisterRoutes(api)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func signToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestChatController_SendChat(t *testing.T) {
	chat := &fakeChatService{}
	app := newTestApp("", chat)

	status, body := doJSON(t, app, http.MethodPost, "/api/chat/v1", `{"session_id":"s-1","message":"やあ"}`, "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "こんにちは", data["response"])
	require.NotNil(t, chat.got)
	assert.Equal(t, "やあ", chat.got.Message)
}

func TestChatController_Validation(t *testing.T) {
	chat := &fakeChatService{}
	app := newTestApp("", chat)

	status, body := doJSON(t, app, http.MethodPost, "/api/chat/v1", `{"session_id":"s-1"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "Message")

	status, _ = doJSON(t, app, http.MethodPost, "/api/chat/v1", `{"message":"x","strategy":"fastest"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/chat/v1", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Nil(t, chat.got)
}

func TestAuth(t *testing.T) {
	app := newTestApp(testSecret, &fakeChatService{})

	status, body := doJSON(t, app, http.MethodPost, "/api/chat/v1", `{"message":"やあ"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing token", body["message"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/chat/v1", `{"message":"やあ"}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/chat/v1", `{"message":"やあ"}`, signToken(t))
	assert.Equal(t, http.StatusOK, status)

	// health stays public
	status, body = doJSON(t, app, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestSessionController(t *testing.T) {
	app := newTestApp("", &fakeChatService{})

	status, body := doJSON(t, app, http.MethodPost, "/api/session/v1", "", "")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "s-new", body["data"].(map[string]interface{})["session_id"])

	status, _ = doJSON(t, app, http.MethodDelete, "/api/session/v1/s-1", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodDelete, "/api/session/v1/missing", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Session not found", body["message"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/session/v1/s-1/failures/f-1/correct", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/session/v1/s-1/failures/f-1/correct", `{"correct_response":"正しい答え"}`, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "f-1", body["data"].(map[string]interface{})["failure_id"])
}

func TestCalendarController_Dispatch(t *testing.T) {
	app := newTestApp("", &fakeChatService{})

	status, _ := doJSON(t, app, http.MethodPost, "/api/calendar/v1/dispatch", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/calendar/v1/dispatch", `{"user_input":"天気は？"}`, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Calendar dispatch failed", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["success"])
	assert.Equal(t, "Unknown intent", data["error"])
}

func TestAdminController_LogDetailNotFound(t *testing.T) {
	app := newTestApp("", &fakeChatService{})

	status, _ := doJSON(t, app, http.MethodGet, "/api/admin/v1/logs/abc", "", "")
	assert.Equal(t, http.StatusNotFound, status)
}
