package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"campusvoice/internal/config"
	"campusvoice/internal/middleware"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"
	contextutils "campusvoice/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const oauthStateKey = "oauth_state"

// AuthHandler handles admin sign-in, session and sign-out requests
type AuthHandler struct {
	identity serviceinterfaces.IdentityProvider
	config   *config.Config
	logger   *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(identity serviceinterfaces.IdentityProvider, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		config:   cfg,
		logger:   logger,
	}
}

type sessionRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// GoogleRedirectURL handles GET /api/oauth/google/redirect_url
func (h *AuthHandler) GoogleRedirectURL(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "google_redirect_url")
	defer observability.FinishSpan(span, nil)

	state, err := generateRandomState()
	if err != nil {
		h.logger.Error(ctx, "Failed to generate OAuth state", err, nil)
		HandleAppError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	if err := session.Save(); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to save session"))
		return
	}

	redirectURL, err := h.identity.RedirectURL(ctx, state)
	if err != nil {
		h.logger.Error(ctx, "Failed to build OAuth redirect URL", err, nil)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirectUrl": redirectURL})
}

// CreateSession handles POST /api/sessions by exchanging the OAuth code for a session cookie
func (h *AuthHandler) CreateSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_session")
	defer observability.FinishSpan(span, nil)

	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "Invalid request body", ""))
		return
	}
	if req.Code == "" {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "No authorization code provided", ""))
		return
	}

	session := sessions.Default(c)
	if req.State != "" {
		stored, _ := session.Get(oauthStateKey).(string)
		if stored == "" || stored != req.State {
			span.SetAttributes(attribute.Bool("oauth.state_valid", false))
			h.logger.Warn(ctx, "OAuth state mismatch", map[string]interface{}{"has_stored_state": stored != ""})
			HandleAppError(c, contextutils.ErrOAuthStateMismatch)
			return
		}
		span.SetAttributes(attribute.Bool("oauth.state_valid", true))
	}
	session.Delete(oauthStateKey)
	if err := session.Save(); err != nil {
		h.logger.Warn(ctx, "Failed to clear OAuth state", map[string]interface{}{"error": err.Error()})
	}

	token, err := h.identity.ExchangeCode(ctx, req.Code)
	if err != nil {
		if contextutils.GetErrorSeverity(err) == contextutils.SeverityError {
			h.logger.Error(ctx, "Failed to exchange OAuth code", err, nil)
		}
		HandleAppError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.sessionMaxAge().Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout handles GET /api/logout. It always succeeds and always clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	if token := middleware.SessionToken(c); token != "" {
		if err := h.identity.DeleteSession(ctx, token); err != nil {
			h.logger.Warn(ctx, "Failed to delete session during logout", map[string]interface{}{"error": err.Error()})
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) sessionMaxAge() time.Duration {
	if h.config != nil && h.config.Auth.SessionMaxAge > 0 {
		return h.config.Auth.SessionMaxAge
	}
	return config.SessionMaxAge
}

// setSessionCookie writes the session cookie. Secure deployments use SameSite=None so the
// cookie survives the cross-site OAuth redirect.
func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	secure := h.config != nil && h.config.Server.SecureCookies
	if secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(config.SessionCookieName, value, maxAge, config.SessionPath, "", secure, config.SessionHTTPOnly)
}

// generateRandomState generates a cryptographically secure random state parameter for OAuth security
func generateRandomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", contextutils.WrapError(err, "failed to read random state")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
