package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/ratelimit"
	"github.com/Kamal-Wagle/recondition/internal/security"
)

const testSecret = "access-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSessions struct {
	mock.Mock
}

var _ SessionLookup = (*mockSessions)(nil)

func (m *mockSessions) GetByID(ctx context.Context, id string) (models.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *mockSessions) Touch(ctx context.Context, sessionID string, ip string, userAgent string) error {
	return m.Called(ctx, sessionID, ip, userAgent).Error(0)
}

type mockUsers struct {
	mock.Mock
}

var _ UserLookup = (*mockUsers)(nil)

func (m *mockUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user": user.ID})
	})
	r.POST("/protected", handlers...)
	return r
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := security.GenerateAccessToken(testSecret, "u1", "s1", "d1", role, time.Minute)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_AdminPasses(t *testing.T) {
	sessions := &mockSessions{}
	users := &mockUsers{}
	sessions.On("GetByID", mock.Anything, "s1").Return(models.Session{ID: "s1", UserID: "u1", DeviceID: "d1"}, nil)
	sessions.On("Touch", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)
	users.On("GetByID", mock.Anything, "u1").Return(models.User{ID: "u1", Role: models.UserRoleAdmin, Status: models.UserStatusActive}, nil)

	r := newRouter(Auth(testSecret, users, sessions), RequireAdmin())
	w := do(r, "Bearer "+token(t, "admin"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1"}`, w.Body.String())
}

func TestAuth_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		header  func(t *testing.T) string
		session models.Session
		sessErr error
		user    models.User
		want    int
		errBody string
	}{
		{name: "no header", header: func(*testing.T) string { return "" }, want: http.StatusUnauthorized, errBody: "missing_token"},
		{name: "not bearer", header: func(*testing.T) string { return "Basic abc" }, want: http.StatusUnauthorized, errBody: "missing_token"},
		{name: "garbage token", header: func(*testing.T) string { return "Bearer nope" }, want: http.StatusUnauthorized, errBody: "invalid_token"},
		{
			name:    "revoked session",
			header:  func(t *testing.T) string { return "Bearer " + token(t, "admin") },
			sessErr: errors.New("session not found"),
			want:    http.StatusUnauthorized,
			errBody: "session_not_found",
		},
		{
			name:    "session of another device",
			header:  func(t *testing.T) string { return "Bearer " + token(t, "admin") },
			session: models.Session{ID: "s1", UserID: "u1", DeviceID: "other"},
			want:    http.StatusUnauthorized,
			errBody: "session_mismatch",
		},
		{
			name:    "disabled user",
			header:  func(t *testing.T) string { return "Bearer " + token(t, "admin") },
			session: models.Session{ID: "s1", UserID: "u1", DeviceID: "d1"},
			user:    models.User{ID: "u1", Role: models.UserRoleAdmin, Status: models.UserStatusDisabled},
			want:    http.StatusForbidden,
			errBody: "user_inactive",
		},
		{
			name:    "editor is not admin",
			header:  func(t *testing.T) string { return "Bearer " + token(t, "editor") },
			session: models.Session{ID: "s1", UserID: "u1", DeviceID: "d1"},
			user:    models.User{ID: "u1", Role: models.UserRoleEditor, Status: models.UserStatusActive},
			want:    http.StatusForbidden,
			errBody: "forbidden",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := &mockSessions{}
			users := &mockUsers{}
			sessions.On("GetByID", mock.Anything, "s1").Return(tc.session, tc.sessErr).Maybe()
			sessions.On("Touch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
			users.On("GetByID", mock.Anything, "u1").Return(tc.user, nil).Maybe()

			reached := false
			r := gin.New()
			r.POST("/protected", Auth(testSecret, users, sessions), RequireAdmin(), func(c *gin.Context) {
				reached = true
			})

			w := do(r, tc.header(t))
			assert.Equal(t, tc.want, w.Code)
			assert.JSONEq(t, `{"error":"`+tc.errBody+`"}`, w.Body.String())
			assert.False(t, reached)
		})
	}
}

func TestRequireRoles_WithoutAuth(t *testing.T) {
	w := do(newRouter(RequireAdmin()), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bucket := ratelimit.NewTokenBucket(client, 2, 2)
	setUser := func(c *gin.Context) { SetCurrentUser(c, models.User{ID: "u1"}) }
	r := newRouter(setUser, RateLimit(bucket, "bikes", zerolog.Nop()))

	for i := 0; i < 2; i++ {
		w := do(r, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	setUser := func(c *gin.Context) { SetCurrentUser(c, models.User{ID: "u1"}) }
	r := newRouter(setUser, RateLimit(ratelimit.NewTokenBucket(client, 2, 2), "bikes", zerolog.Nop()))

	assert.Equal(t, http.StatusOK, do(r, "").Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://admin.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Body.String(), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_server_error"}`, w.Body.String())
}
