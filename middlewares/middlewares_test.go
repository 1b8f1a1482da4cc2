package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nivaran-be/logger"
	"nivaran-be/models"
	authUtils "nivaran-be/utils"
)

const secret = "test-secret"

var supervisor = models.Session{ID: "s1", Name: "Ravi Kumar", Email: "ravi@example.org", Role: models.RoleSupervisor}

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, s models.Session) string {
	t.Helper()
	tok, err := authUtils.GenerateToken(secret, s, time.Now())
	require.NoError(t, err)
	return tok
}

func protected(roles ...models.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(secret, logger.Nop())}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		s, _ := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"id": s.ID})
	})
	r.GET("/p", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	valid := token(t, supervisor)

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + valid, "", http.StatusOK},
		{"raw header", valid, "", http.StatusOK},
		{"cookie", "", valid, http.StatusOK},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: authUtils.CookieName, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, supervisor))

	rec := httptest.NewRecorder()
	protected(models.RoleAdmin).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	protected(models.RoleAdmin, models.RoleSupervisor).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssueRateLimiter(t *testing.T) {
	counter := NewMemoryCounter()
	r := gin.New()
	r.POST("/issues", AuthMiddleware(secret, logger.Nop()), IssueRateLimiter(counter, "issue-limit", 2, logger.Nop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/issues", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, supervisor))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, send().Code)
	assert.Equal(t, http.StatusCreated, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "retry_after")
}

func TestMemoryCounterWindow(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryCounter()
	m.now = func() time.Time { return clock }

	n, _ := m.Incr(ctx, "k", time.Hour)
	assert.Equal(t, int64(1), n)
	n, _ = m.Incr(ctx, "k", time.Hour)
	assert.Equal(t, int64(2), n)

	clock = clock.Add(30 * time.Minute)
	ttl, _ := m.TTL(ctx, "k")
	assert.Equal(t, 30*time.Minute, ttl)

	clock = clock.Add(31 * time.Minute)
	n, _ = m.Incr(ctx, "k", time.Hour)
	assert.Equal(t, int64(1), n)
}

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.OPTIONS("/api/auth/login", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for origin, want := range map[string]string{
		"http://localhost:5173": "http://localhost:5173",
		"http://evil.example":   "",
	} {
		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logger.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusTeapot, "x") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
