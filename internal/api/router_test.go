package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/blob"
	"github.com/floatbank/floatbank/internal/config"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/floatbank/floatbank/internal/rbac"
	"github.com/floatbank/floatbank/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	enforcer *rbac.Enforcer
	tokens   *auth.TokenService
	users    *service.UserService
}

type envelope struct {
	Meta struct {
		Code    int    `json:"code"`
		Success bool   `json:"success"`
		Message string `json:"message"`
		Errors  []struct {
			Type    string `json:"error_type"`
			Message string `json:"error_message"`
			Field   string `json:"field"`
		} `json:"errors"`
	} `json:"meta"`
	Result json.RawMessage `json:"result"`
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ActivityLog{}, &models.RevokedToken{}))

	enforcer, err := rbac.NewEnforcer(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret", time.Hour, 2*time.Hour, auth.NewDBDenylist(db))
	require.NoError(t, err)

	store, err := blob.NewLocalStore(t.TempDir(), "http://localhost:8460/storage", 1<<20)
	require.NoError(t, err)

	users := service.NewUserService(db, store, enforcer)
	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		Storage: config.StorageConfig{URLPrefix: "/storage"},
	}

	router := NewRouter(cfg, Dependencies{
		DB:            db,
		Authenticator: auth.NewAuthenticator(db, tokens),
		Enforcer:      enforcer,
		Users:         users,
		Recorder:      audit.NewRecorder(db),
		StorageDir:    store.Dir(),
	})

	return &testEnv{router: router, db: db, enforcer: enforcer, tokens: tokens, users: users}
}

// createUser inserts an active user and returns it with a valid token
func (e *testEnv) createUser(t *testing.T, name, email, phone string, admin bool) (*models.User, string) {
	t.Helper()
	u, err := e.users.Create(context.Background(), service.CreateUserInput{
		Name: name, Email: email, Phone: phone, Password: "secret123",
	})
	require.NoError(t, err)
	if admin {
		require.NoError(t, e.enforcer.MakeAdmin(u.ID))
	}
	tok, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return u, tok.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "router-test/1.0")
	return e.serve(t, req, token)
}

// serve runs req through the router and decodes the envelope it returns
func (e *testEnv) serve(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.Equal(t, w.Code, env.Meta.Code)
	assert.Equal(t, w.Code >= 200 && w.Code < 300, env.Meta.Success)
	return w, env
}

func (e *testEnv) logs(t *testing.T) []models.ActivityLog {
	t.Helper()
	var logs []models.ActivityLog
	require.NoError(t, e.db.Order("id ASC").Find(&logs).Error)
	return logs
}

func (e *testEnv) userCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.User{}).Count(&n).Error)
	return n
}

func registerBody(email, phone string) map[string]any {
	return map[string]any{
		"name":                  "Nurse Joy",
		"email":                 email,
		"phone":                 phone,
		"password":              "secret123",
		"password_confirmation": "secret123",
	}
}

func TestRegister(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", registerBody("joy@example.com", "0801"), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		AccessToken string      `json:"access_token"`
		TokenType   string      `json:"token_type"`
		ExpiresIn   int64       `json:"expires_in"`
		User        models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "bearer", result.TokenType)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, "joy@example.com", result.User.Email)
	assert.NotContains(t, string(resp.Result), "password")

	logs := env.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.LogAuth, logs[0].LogName)
	assert.Equal(t, audit.DescRegistered, logs[0].Description)
	require.NotNil(t, logs[0].CauserID)
	assert.Equal(t, result.User.ID, *logs[0].CauserID)
	assert.Equal(t, "router-test/1.0", logs[0].Properties["user_agent"])

	// the issued token authenticates
	w, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, result.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "Existing", "taken@example.com", "0800", false)
	logsBefore := len(env.logs(t))

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", registerBody("taken@example.com", "0801"), "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, resp.Meta.Success)
	assert.Equal(t, "null", string(resp.Result))
	require.Len(t, resp.Meta.Errors, 1)
	assert.Equal(t, "email", resp.Meta.Errors[0].Field)
	assert.Equal(t, "validation", resp.Meta.Errors[0].Type)

	assert.Equal(t, int64(1), env.userCount(t))
	assert.Len(t, env.logs(t), logsBefore)
}

func TestRegister_ValidationMessages(t *testing.T) {
	env := setupTestEnv(t)

	body := registerBody("not-an-email", "0801")
	body["password_confirmation"] = "different"
	delete(body, "name")

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	fields := map[string]string{}
	for _, e := range resp.Meta.Errors {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "The name field is required.", fields["name"])
	assert.Equal(t, "The email must be a valid email address.", fields["email"])
	assert.Contains(t, fields, "password_confirmation")
	assert.Zero(t, env.userCount(t))
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	u, _ := env.createUser(t, "Joy", "joy@example.com", "0801", false)

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "Joy@Example.com", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(resp.Result), "access_token")

	logs := env.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.DescLoggedIn, logs[0].Description)
	require.NotNil(t, logs[0].CauserID)
	assert.Equal(t, u.ID, *logs[0].CauserID)
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "whatever1",
	}, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "null", string(resp.Result))
	require.Len(t, resp.Meta.Errors, 1)
	assert.Equal(t, "email", resp.Meta.Errors[0].Field)
	assert.Contains(t, resp.Meta.Errors[0].Message, "not registered")

	logs := env.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.LogAuth, logs[0].LogName)
	assert.Equal(t, audit.DescLoginFailed, logs[0].Description)
	assert.Nil(t, logs[0].CauserID)
	assert.Equal(t, "ghost@example.com", logs[0].Properties["email"])
}

func TestLogin_WrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "Joy", "joy@example.com", "0801", false)

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "joy@example.com", "password": "wrong-password",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, resp.Meta.Errors, 1)
	assert.Equal(t, "auth", resp.Meta.Errors[0].Type)

	logs := env.logs(t)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].CauserID)
	assert.Equal(t, "joy@example.com", logs[0].Properties["email"])
	assert.NotEmpty(t, logs[0].Properties["ip_address"])
}

func TestLogin_InactiveAccount(t *testing.T) {
	env := setupTestEnv(t)
	u, _ := env.createUser(t, "Joy", "joy@example.com", "0801", false)
	_, err := env.users.SetStatus(context.Background(), u.ID, models.UserStatusInactive)
	require.NoError(t, err)

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "joy@example.com", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Account is inactive", resp.Meta.Message)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token not provided", resp.Meta.Message)

	w, resp = env.do(t, http.MethodGet, "/api/v1/users", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token is invalid", resp.Meta.Message)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Joy", "joy@example.com", "0801", false)

	w, _ := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	logs := env.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.DescLoggedOut, logs[0].Description)
}

func TestRefresh(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Joy", "joy@example.com", "0801", false)

	w, resp := env.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.NotEmpty(t, result.AccessToken)

	w, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, result.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes_ForbiddenForStaff(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Joy", "joy@example.com", "0801", false)

	for _, path := range []string{"/api/v1/users", "/api/v1/activity-logs"} {
		w, resp := env.do(t, http.MethodGet, path, nil, token)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		require.Len(t, resp.Meta.Errors, 1)
		assert.Equal(t, "forbidden", resp.Meta.Errors[0].Type)
	}
}

func TestUserCRUD(t *testing.T) {
	env := setupTestEnv(t)
	admin, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)

	// create
	body := registerBody("staff@example.com", "0802")
	body["name"] = "Staff"
	w, resp := env.do(t, http.MethodPost, "/api/v1/users", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID      string `json:"id"`
		IsAdmin bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &created))
	require.NotEmpty(t, created.ID)
	assert.False(t, created.IsAdmin)

	// list
	w, resp = env.do(t, http.MethodGet, "/api/v1/users", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.Result, &list))
	assert.Len(t, list, 2)

	// get
	w, _ = env.do(t, http.MethodGet, "/api/v1/users/"+created.ID, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	// update
	w, resp = env.do(t, http.MethodPut, "/api/v1/users/"+created.ID, map[string]string{"name": "Staff Nurse"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(resp.Result), "Staff Nurse")

	// status
	w, _ = env.do(t, http.MethodPatch, "/api/v1/users/"+created.ID+"/status", map[string]string{"status": "inactive"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// delete
	w, _ = env.do(t, http.MethodDelete, "/api/v1/users/"+created.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/users/"+created.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	logs := env.logs(t)
	require.Len(t, logs, 4)
	wantDescs := []string{audit.DescUserCreated, audit.DescUserUpdated, audit.DescStatusChanged, audit.DescUserDeleted}
	for i, l := range logs {
		assert.Equal(t, audit.LogUser, l.LogName)
		assert.Equal(t, wantDescs[i], l.Description)
		require.NotNil(t, l.CauserID)
		assert.Equal(t, admin.ID, *l.CauserID)
	}

	old := logs[1].Properties["old"].(map[string]any)
	attrs := logs[1].Properties["attributes"].(map[string]any)
	assert.Equal(t, "Staff", old["name"])
	assert.Equal(t, "Staff Nurse", attrs["name"])
	assert.Equal(t, "inactive", logs[2].Properties["new_status"])
}

func TestUpdateUser_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	admin, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)

	w, resp := env.do(t, http.MethodPut, "/api/v1/users/00000000-0000-0000-0000-000000000001", map[string]string{"name": "x"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "null", string(resp.Result))

	logs := env.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.FailureDescription("update user"), logs[0].Description)
	assert.Equal(t, admin.ID, *logs[0].CauserID)

	w, _ = env.do(t, http.MethodGet, "/api/v1/users/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser_Self(t *testing.T) {
	env := setupTestEnv(t)
	admin, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)

	w, _ := env.do(t, http.MethodDelete, "/api/v1/users/"+admin.ID.String(), nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, int64(1), env.userCount(t))
}

func TestBulkDelete(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)
	a, _ := env.createUser(t, "A", "a@example.com", "1", false)
	b, _ := env.createUser(t, "B", "b@example.com", "2", false)

	w, resp := env.do(t, http.MethodPost, "/api/v1/users/bulk-delete", map[string]any{
		"ids": []string{a.ID.String(), b.ID.String()},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"deleted":2}`, string(resp.Result))
	assert.Equal(t, int64(1), env.userCount(t))

	logs := env.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.DescUsersDeleted, logs[0].Description)
	assert.Len(t, logs[0].Properties["deleted"], 2)
}

func TestBulkDelete_EmptyIDs(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)
	env.createUser(t, "A", "a@example.com", "1", false)

	for _, body := range []any{map[string]any{"ids": []string{}}, map[string]any{}} {
		w, resp := env.do(t, http.MethodPost, "/api/v1/users/bulk-delete", body, token)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Len(t, resp.Meta.Errors, 1)
		assert.Equal(t, "ids", resp.Meta.Errors[0].Field)
	}
	assert.Equal(t, int64(2), env.userCount(t))
}

func TestBulkDelete_UnknownID(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)
	a, _ := env.createUser(t, "A", "a@example.com", "1", false)

	w, _ := env.do(t, http.MethodPost, "/api/v1/users/bulk-delete", map[string]any{
		"ids": []string{a.ID.String(), "00000000-0000-0000-0000-000000000001"},
	}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(2), env.userCount(t))
}

func TestActivityLogs(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)

	env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ghost@example.com", "password": "whatever1"}, "")
	env.do(t, http.MethodPost, "/api/v1/users", registerBody("staff@example.com", "0802"), token)

	w, resp := env.do(t, http.MethodGet, "/api/v1/activity-logs", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var all []audit.Activity
	require.NoError(t, json.Unmarshal(resp.Result, &all))
	require.Len(t, all, 2)
	assert.Nil(t, all[0].Causer)
	require.NotNil(t, all[1].Causer)
	assert.Equal(t, "admin@example.com", all[1].Causer.Email)

	w, resp = env.do(t, http.MethodGet, "/api/v1/activity-logs/category/Auth", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var byCategory []audit.Activity
	require.NoError(t, json.Unmarshal(resp.Result, &byCategory))
	require.Len(t, byCategory, 1)
	assert.Equal(t, audit.DescLoginFailed, byCategory[0].Description)

	w, resp = env.do(t, http.MethodGet, "/api/v1/activity-logs/category/Unknown", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(resp.Result))
}

func TestActivityLogs_Range(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)
	env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ghost@example.com", "password": "whatever1"}, "")

	today := time.Now().UTC().Format("2006-01-02")
	w, resp := env.do(t, http.MethodGet, "/api/v1/activity-logs/range?start_date="+today+"&end_date="+today, nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var logs []audit.Activity
	require.NoError(t, json.Unmarshal(resp.Result, &logs))
	assert.Len(t, logs, 1)

	w, resp = env.do(t, http.MethodGet, "/api/v1/activity-logs/range?start_date=2024-02-01&end_date=2024-01-01", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "null", string(resp.Result))
	require.Len(t, resp.Meta.Errors, 1)
	assert.Equal(t, "bad_request", resp.Meta.Errors[0].Type)

	w, _ = env.do(t, http.MethodGet, "/api/v1/activity-logs/range?start_date=01/02/2024&end_date=2024-01-03", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/activity-logs/range?start_date=2024-01-01", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestActivityLogs_RangeExcludesNextMidnight(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "Admin", "admin@example.com", "0800", true)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, row := range []models.ActivityLog{
		{LogName: audit.LogAuth, Description: "first", CreatedAt: day},
		{LogName: audit.LogAuth, Description: "late", CreatedAt: day.Add(24*time.Hour - time.Microsecond)},
		{LogName: audit.LogAuth, Description: "next day", CreatedAt: day.AddDate(0, 0, 1)},
	} {
		row.Properties = map[string]any{}
		require.NoError(t, env.db.Create(&row).Error)
	}

	w, resp := env.do(t, http.MethodGet, "/api/v1/activity-logs/range?start_date=2024-01-01&end_date=2024-01-01", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var logs []audit.Activity
	require.NoError(t, json.Unmarshal(resp.Result, &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Description)
	assert.Equal(t, "late", logs[1].Description)
}

func TestHealthAndVersion(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(resp.Result))

	w, resp = env.do(t, http.MethodGet, "/api/v1/version", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Result), `"mode":"test"`)
}

func TestNoRoute(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.Len(t, resp.Meta.Errors, 1)
	assert.Equal(t, "not_found", resp.Meta.Errors[0].Type)
}
