package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusvoice/internal/config"
	"campusvoice/internal/models"
	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIdentityProvider struct {
	user          *models.User
	err           error
	lastValidated string
}

func (m *mockIdentityProvider) RedirectURL(_ context.Context, state string) (string, error) {
	return "https://example.test/auth?state=" + state, nil
}

func (m *mockIdentityProvider) ExchangeCode(_ context.Context, _ string) (string, error) {
	return "token", nil
}

func (m *mockIdentityProvider) ValidateSession(_ context.Context, token string) (*models.User, error) {
	m.lastValidated = token
	return m.user, m.err
}

func (m *mockIdentityProvider) DeleteSession(_ context.Context, _ string) error {
	return nil
}

func (m *mockIdentityProvider) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	return m.ValidateSession(ctx, token)
}

func newSessionTestRouter(identity *mockIdentityProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", RequireSession(identity, nil), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"email":       user.Email,
			"ctx_email":   contextutils.GetAdminEmailFromContext(c.Request.Context()),
			"has_token":   c.GetString(SessionTokenKey) != "",
			"session_key": c.GetString(SessionTokenKey),
		})
	})
	return router
}

func TestRequireSession_NoCookie(t *testing.T) {
	identity := &mockIdentityProvider{user: &models.User{Email: "a@b.c"}}
	router := newSessionTestRouter(identity)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authentication required","code":"UNAUTHORIZED"}`, w.Body.String())
	assert.Empty(t, identity.lastValidated)
}

func TestRequireSession_ValidSession(t *testing.T) {
	identity := &mockIdentityProvider{user: &models.User{ID: "g-1", Email: "dean@campus.edu"}}
	router := newSessionTestRouter(identity)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "tok-123"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-123", identity.lastValidated)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "dean@campus.edu", body["email"])
	assert.Equal(t, "dean@campus.edu", body["ctx_email"])
	assert.Equal(t, "tok-123", body["session_key"])
}

func TestRequireSession_Rejected(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		err  error
	}{
		{"invalid token", nil, contextutils.ErrUnauthorized},
		{"expired session", nil, contextutils.ErrSessionExpired},
		{"nil user without error", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newSessionTestRouter(&mockIdentityProvider{user: tt.user, err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "stale"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Authentication required","code":"UNAUTHORIZED"}`, w.Body.String())
		})
	}
}

func TestRequireSession_StoreUnavailable(t *testing.T) {
	router := newSessionTestRouter(&mockIdentityProvider{
		err: contextutils.WrapError(contextutils.ErrServiceUnavailable, "redis down"),
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "redis")
}

func TestRequireSession_NilIdentityPanics(t *testing.T) {
	assert.Panics(t, func() { RequireSession(nil, nil) })
}

func TestCurrentUser_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	user, ok := CurrentUser(c)
	assert.False(t, ok)
	assert.Nil(t, user)

	c.Set(UserKey, "not a user")
	_, ok = CurrentUser(c)
	assert.False(t, ok)
}
