// Package middleware provides authentication, validation and recovery middleware for the Gin web framework.
package middleware

import (
	"net/http"

	"campusvoice/internal/config"
	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"
	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
)

// Context keys for the authenticated admin
const (
	// UserKey is the gin context key holding the *models.User of the session
	UserKey = "campusvoice_user"
	// SessionTokenKey is the gin context key holding the raw session token
	SessionTokenKey = "campusvoice_session_token"
)

// SessionToken returns the session token carried by the request cookie, or ""
func SessionToken(c *gin.Context) string {
	token, err := c.Cookie(config.SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}

// RequireSession returns a middleware that admits only requests carrying a valid admin session
func RequireSession(identity serviceinterfaces.IdentityProvider, logger *observability.Logger) gin.HandlerFunc {
	if identity == nil {
		panic("RequireSession: identity provider is nil")
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		user, err := identity.ValidateSession(c.Request.Context(), token)
		if err != nil {
			if contextutils.GetErrorCode(err) == contextutils.ErrorCodeServiceUnavailable {
				logger.Error(c.Request.Context(), "Session store unavailable", err, nil)
				_ = c.Error(err)
				WriteError(c, err)
				c.Abort()
				return
			}
			logger.Debug(c.Request.Context(), "Session rejected", map[string]interface{}{
				"error_code": string(contextutils.GetErrorCode(err)),
			})
			abortUnauthorized(c)
			return
		}
		if user == nil {
			abortUnauthorized(c)
			return
		}

		c.Set(UserKey, user)
		c.Set(SessionTokenKey, token)
		c.Request = c.Request.WithContext(contextutils.WithAdminEmail(c.Request.Context(), user.Email))

		c.Next()
	}
}

// CurrentUser returns the admin stored by RequireSession
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  string(contextutils.ErrorCodeUnauthorized),
	})
	c.Abort()
}
