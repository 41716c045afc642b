package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-community/backend/internal/metrics"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(clock clockwork.Clock) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/open", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	protected := r.Group("", AuthMiddleware(secret, clock))
	protected.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt(UserIDKey), "role": c.GetString(RoleKey)})
	})
	protected.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := newRouter(clock)

	member := &models.User{ID: 7, Username: "ana", Role: models.RoleMember}
	token, err := IssueToken(secret, member, time.Hour, clock.Now())
	require.NoError(t, err)

	w := do(r, "/whoami", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"member"}`, w.Body.String())

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "").Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged, err := IssueToken([]byte("other"), member, time.Hour, clock.Now())
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", forged).Code)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "not.a.token").Code)
	})

	t.Run("expired", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		w := do(r, "/whoami", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token expired")
	})
}

func TestParseToken_ExpiredIsUnauthorized(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := IssueToken(secret, &models.User{ID: 1}, time.Minute, now)
	require.NoError(t, err)

	_, _, err = ParseToken(secret, token, clockwork.NewFakeClockAt(now.Add(time.Hour)))
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	id, role, err := ParseToken(secret, token, clockwork.NewFakeClockAt(now))
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, models.RoleMember, role)
}

func TestRequireAdmin(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newRouter(clock)

	member, err := IssueToken(secret, &models.User{ID: 1, Role: models.RoleMember}, time.Hour, clock.Now())
	require.NoError(t, err)
	admin, err := IssueToken(secret, &models.User{ID: 2, Role: models.RoleAdmin}, time.Hour, clock.Now())
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", member).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}

func TestRequestLogger(t *testing.T) {
	r := newRouter(clockwork.NewFakeClock())
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/open", "204"))

	w := do(r, "/open", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/open", "204")))

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set(RequestIDHeader, "6f1c2a3e-1d2b-4c5d-8e9f-0a1b2c3d4e5f")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "6f1c2a3e-1d2b-4c5d-8e9f-0a1b2c3d4e5f", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces a bogus incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
	})
}

func TestOptionalAuth(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := gin.New()
	r.GET("/maybe", OptionalAuth(secret, clock), func(c *gin.Context) {
		id, ok := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "user_id": id})
	})

	token, err := IssueToken(secret, &models.User{ID: 3}, time.Hour, clock.Now())
	require.NoError(t, err)

	assert.JSONEq(t, `{"authenticated":true,"user_id":3}`, do(r, "/maybe", token).Body.String())
	assert.JSONEq(t, `{"authenticated":false,"user_id":null}`, do(r, "/maybe", "").Body.String())
	assert.JSONEq(t, `{"authenticated":false,"user_id":null}`, do(r, "/maybe", "broken").Body.String())
}
