package routes

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nivaran-be/controllers"
	"nivaran-be/dedup"
	"nivaran-be/events"
	"nivaran-be/logger"
	"nivaran-be/middlewares"
	"nivaran-be/models"
	"nivaran-be/services"
	"nivaran-be/store"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func seedIssue(id string, cat models.IssueCategory, title string, age time.Duration) models.Issue {
	created := time.Now().Add(-age)
	return models.Issue{
		ID:        id,
		Title:     title,
		Category:  cat,
		Latitude:  28.6139,
		Longitude: 77.2090,
		Address:   "Ward 1, Zone 1",
		CreatedAt: created,
		UpdatedAt: created,
		Priority:  models.High,
		Status:    models.Pending,
		Upvotes:   2,
		Reporter:  models.Reporter{ID: "r1", Name: "Citizen 2"},
		GroupID:   id,
	}
}

func newServer(t *testing.T, reportLimit int) *gin.Engine {
	t.Helper()
	log := logger.Nop()
	st := store.NewMemory()
	require.NoError(t, st.SaveIssues(context.Background(), []models.Issue{
		seedIssue("a", models.Pothole, "Large pothole on road", time.Hour),
		seedIssue("b", models.Water, "No water supply", 2*time.Hour),
		seedIssue("c", models.Garbage, "Overflowing garbage bin", 3*time.Hour),
	}))
	bus := events.NewLocalBus(log)
	t.Cleanup(func() { bus.Close() })

	issues := services.NewIssueService(st, bus, log, services.IssueConfig{Dedup: dedup.DefaultOptions(), Seed: 42, SeedCount: 10})
	require.NoError(t, issues.Load(context.Background()))
	supervisor := services.NewSupervisorService(issues, st, nil, bus, log)

	r := gin.New()
	Register(r, Handlers{
		Auth:          &controllers.AuthController{Secret: secret, Log: log},
		Issues:        &controllers.IssueController{Issues: issues, Supervisor: supervisor, Bus: bus, Log: log},
		Supervisor:    &controllers.SupervisorController{Issues: issues, Supervisor: supervisor, Log: log},
		Analytics:     &controllers.AnalyticsController{Issues: issues},
		Authenticate:  middlewares.AuthMiddleware(secret, log),
		ReportLimiter: middlewares.IssueRateLimiter(middlewares.NewMemoryCounter(), "issue-limit", reportLimit, log),
	})
	return r
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r *gin.Engine, name string, role models.Role) string {
	t.Helper()
	rec := do(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    models.StaffSlug(name) + "@example.org",
		"password": "secret1",
		"name":     name,
		"role":     role,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Token string         `json:"token"`
		User  models.Session `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	assert.Equal(t, role, out.User.Role)
	return out.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPing(t *testing.T) {
	r := newServer(t, 10)
	rec := do(r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	r := newServer(t, 10)

	cases := map[string]gin.H{
		"short password": {"email": "a@example.org", "password": "123", "role": "admin"},
		"bad email":      {"email": "nope", "password": "secret1", "role": "admin"},
		"bad role":       {"email": "a@example.org", "password": "secret1", "role": "mayor"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/auth/login", "", body).Code)
		})
	}

	rec := do(r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "Asha@Example.org", "password": "secret1", "role": "field"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "auth_token=")

	token := decode[struct{ Token string }](t, rec).Token
	me := decode[models.Session](t, do(r, http.MethodGet, "/api/auth/me", token, nil))
	assert.Equal(t, "asha", me.Name)
	assert.Equal(t, "asha@example.org", me.Email)

	again := login(t, r, "asha", models.RoleField)
	meAgain := decode[models.Session](t, do(r, http.MethodGet, "/api/auth/me", again, nil))
	assert.Equal(t, me.ID, meAgain.ID, "session id is stable per email")
}

func TestListIssues(t *testing.T) {
	r := newServer(t, 10)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/issues", "", nil).Code)

	token := login(t, r, "field", models.RoleField)

	page := decode[struct {
		Page  int            `json:"page"`
		Pages int            `json:"pages"`
		Total int            `json:"total"`
		Items []models.Issue `json:"items"`
	}](t, do(r, http.MethodGet, "/api/issues?sort=createdAt&dir=asc&perPage=2", token, nil))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].ID)

	filtered := decode[struct{ Total int }](t, do(r, http.MethodGet, "/api/issues?category=Water&q=water", token, nil))
	assert.Equal(t, 1, filtered.Total)

	for _, bad := range []string{"category=Road", "status=Closed", "priority=9", "start=yesterday"} {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/issues?"+bad, token, nil).Code, bad)
	}
}

func TestGetIssue(t *testing.T) {
	r := newServer(t, 10)
	token := login(t, r, "field", models.RoleField)

	detail := decode[services.IssueDetail](t, do(r, http.MethodGet, "/api/issues/a", token, nil))
	assert.Equal(t, "a", detail.Issue.ID)
	assert.Equal(t, "Ward 1, Zone 1", *detail.Location.Address)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/issues/zzz", token, nil).Code)
}

func TestAdminActions(t *testing.T) {
	r := newServer(t, 10)
	field := login(t, r, "field", models.RoleField)
	admin := login(t, r, "admin", models.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/issues/a/assign", field, gin.H{"staffName": "Ravi Kumar"}).Code)

	rec := do(r, http.MethodPost, "/api/issues/a/assign", admin, gin.H{"staffName": "Ravi Kumar"})
	require.Equal(t, http.StatusOK, rec.Code)
	issue := decode[models.Issue](t, rec)
	assert.Equal(t, "ravi-kumar", *issue.Assignment.StaffID)
	assert.Equal(t, models.InProgress, issue.Status)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/issues/a/status", admin, gin.H{"status": "Closed"}).Code)
	rec = do(r, http.MethodPut, "/api/issues/a/status", admin, gin.H{"status": "Resolved"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Resolved, decode[models.Issue](t, rec).Status)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/issues/b/location", admin, gin.H{"latitude": 28.7, "longitude": 77.1}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/issues/b/location", admin, gin.H{"latitude": 28.7}).Code)

	rec = do(r, http.MethodPost, "/api/issues/regenerate", admin, gin.H{"count": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, decode[struct{ Generated int }](t, rec).Generated)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/issues/regenerate", admin, gin.H{"count": 0}).Code)
}

func TestReportAndVote(t *testing.T) {
	r := newServer(t, 1)
	token := login(t, r, "citizen", models.RoleField)

	report := gin.H{
		"title":     "Streetlight not working",
		"category":  "Streetlight",
		"latitude":  28.65,
		"longitude": 77.25,
		"address":   "Ward 9, Zone 3",
	}
	rec := do(r, http.MethodPost, "/api/issues", token, report)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Issue](t, rec)
	assert.Equal(t, "citizen", created.Reporter.Name)
	assert.Equal(t, "Ward 9", created.Ward)

	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/issues", token, report).Code)

	vote := decode[struct {
		Votes        int  `json:"votes"`
		UserHasVoted bool `json:"userHasVoted"`
	}](t, do(r, http.MethodPost, "/api/issues/a/vote", token, nil))
	assert.True(t, vote.UserHasVoted)
	assert.Equal(t, 3, vote.Votes)
}

func TestReportValidation(t *testing.T) {
	r := newServer(t, 10)
	token := login(t, r, "citizen", models.RoleField)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/issues", token, gin.H{"title": "x", "category": "Road", "latitude": 1, "longitude": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/issues", token, gin.H{"title": "x", "category": "Water"}).Code)
}

func multipartImage(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSupervisorFlow(t *testing.T) {
	r := newServer(t, 10)
	field := login(t, r, "field", models.RoleField)
	sup := login(t, r, "Ravi Kumar", models.RoleSupervisor)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/supervisor/issues", field, nil).Code)

	mine := decode[struct {
		Total int            `json:"total"`
		Items []models.Issue `json:"items"`
	}](t, do(r, http.MethodGet, "/api/supervisor/issues", sup, nil))
	require.Equal(t, 3, mine.Total, "demo assignment hands out the open issues")
	id := mine.Items[0].ID

	rec := do(r, http.MethodPost, "/api/supervisor/issues/"+id+"/ack", sup, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.SupervisorState](t, rec).Acknowledged())

	body, ct := multipartImage(t, "after.png", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/supervisor/issues/"+id+"/images", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+sup)
	up := httptest.NewRecorder()
	r.ServeHTTP(up, req)
	require.Equal(t, http.StatusCreated, up.Code, up.Body.String())
	state := decode[models.SupervisorState](t, up)
	assert.Equal(t, []string{"data:image/png;base64,cG5nLWJ5dGVz"}, state.Images)

	dash := decode[services.Dashboard](t, do(r, http.MethodGet, "/api/supervisor/dashboard", sup, nil))
	assert.Equal(t, 3, dash.Metrics.Total)
	assert.Equal(t, 3, dash.Metrics.CountsByStatus[models.InProgress])
}

func TestAnalytics(t *testing.T) {
	r := newServer(t, 10)
	token := login(t, r, "field", models.RoleField)

	summary := decode[services.Summary](t, do(r, http.MethodGet, "/api/analytics/summary", token, nil))
	assert.Equal(t, 3, summary.Metrics.Total)
	assert.Len(t, summary.ByCategory, 3)

	trends := decode[services.Trends](t, do(r, http.MethodGet, "/api/analytics/trends", token, nil))
	assert.NotEmpty(t, trends.Monthly)

	board := decode[services.Leaderboard](t, do(r, http.MethodGet, "/api/analytics/leaderboard?limit=1", token, nil))
	require.Len(t, board.Citizens, 1)
	assert.Equal(t, 3, board.Citizens[0].Count)
	assert.Len(t, board.Wards, 1)
}

func TestImagesRouteNeedsImageStore(t *testing.T) {
	r := newServer(t, 10)
	token := login(t, r, "field", models.RoleField)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/images/abc", token, nil).Code)
}
