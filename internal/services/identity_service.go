package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"campusvoice/internal/config"
	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	contextutils "campusvoice/internal/utils"
)

// Google OAuth endpoints
const (
	GoogleAuthEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenEndpoint    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
)

const sessionIssuer = "campusvoice"

// GoogleIdentityService signs admins in with Google and issues session tokens backed by a SessionStore
type GoogleIdentityService struct {
	config           *config.Config
	store            SessionStore
	logger           *observability.Logger
	client           *http.Client
	AuthEndpoint     string // for testing/mocking
	TokenEndpoint    string // for testing/mocking
	UserInfoEndpoint string // for testing/mocking
	now              func() time.Time
}

// GoogleUserInfo represents the user information returned by Google OAuth
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// GoogleTokenResponse represents the token response from Google OAuth
type GoogleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token,omitempty"`
}

// NewGoogleIdentityService creates the identity collaborator
func NewGoogleIdentityService(cfg *config.Config, store SessionStore, logger *observability.Logger) *GoogleIdentityService {
	if cfg == nil {
		panic("NewGoogleIdentityService: config is nil")
	}
	if store == nil {
		panic("NewGoogleIdentityService: store is nil")
	}
	if logger == nil {
		panic("NewGoogleIdentityService: logger is nil")
	}
	return &GoogleIdentityService{
		config: cfg,
		store:  store,
		logger: logger,
		client: &http.Client{
			Timeout: config.OAuthHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		AuthEndpoint:     GoogleAuthEndpoint,
		TokenEndpoint:    GoogleTokenEndpoint,
		UserInfoEndpoint: GoogleUserInfoEndpoint,
		now:              time.Now,
	}
}

func (s *GoogleIdentityService) sessionMaxAge() time.Duration {
	if s.config.Auth.SessionMaxAge > 0 {
		return s.config.Auth.SessionMaxAge
	}
	return config.SessionMaxAge
}

// RedirectURL generates the Google OAuth authorization URL
func (s *GoogleIdentityService) RedirectURL(ctx context.Context, state string) (result0 string, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "redirect_url",
		attribute.String("oauth.redirect_url", s.config.GoogleOAuth.RedirectURL),
	)
	defer observability.FinishSpan(span, &err)

	if s.config.GoogleOAuth.ClientID == "" || s.config.GoogleOAuth.RedirectURL == "" {
		s.logger.Warn(ctx, "Google OAuth is not configured", map[string]interface{}{
			"env_vars": "GOOGLE_OAUTH_CLIENT_ID, GOOGLE_OAUTH_REDIRECT_URL",
		})
		return "", contextutils.WrapError(contextutils.ErrServiceUnavailable, "Google sign-in is not configured")
	}

	params := url.Values{}
	params.Set("client_id", s.config.GoogleOAuth.ClientID)
	params.Set("redirect_uri", s.config.GoogleOAuth.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("access_type", "online")
	params.Set("prompt", "select_account")
	if state != "" {
		params.Set("state", state)
	}

	return s.AuthEndpoint + "?" + params.Encode(), nil
}

// ExchangeCode completes the OAuth flow and opens a session for an allowed admin
func (s *GoogleIdentityService) ExchangeCode(ctx context.Context, code string) (result0 string, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "exchange_code")
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(code) == "" {
		return "", contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "Authorization code is required", "")
	}

	tokenResp, err := s.exchangeCodeForToken(ctx, code)
	if err != nil {
		return "", err
	}

	userInfo, err := s.getGoogleUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("user.email", userInfo.Email), attribute.String("user.id", userInfo.ID))

	if userInfo.Email == "" || !s.config.IsAdminAllowed(userInfo.Email) {
		s.logger.Warn(ctx, "Admin sign-in refused", map[string]interface{}{"email": userInfo.Email})
		return "", contextutils.WrapError(contextutils.ErrUnauthorized, "account is not permitted to administer complaints")
	}

	user := &models.User{
		ID:      userInfo.ID,
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "Admin signed in", map[string]interface{}{"email": user.Email, "user.id": user.ID})
	return token, nil
}

// ValidateSession checks the token signature and expiry, then the backing session record
func (s *GoogleIdentityService) ValidateSession(ctx context.Context, token string) (result0 *models.User, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "validate_session")
	defer observability.FinishSpan(span, &err)

	claims, err := s.parseToken(token, true)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", claims.ID))

	user, err := s.store.Load(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the admin owning the session
func (s *GoogleIdentityService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	return s.ValidateSession(ctx, token)
}

// DeleteSession removes the session record behind token. Expired tokens can still be revoked.
func (s *GoogleIdentityService) DeleteSession(ctx context.Context, token string) (err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "delete_session")
	defer observability.FinishSpan(span, &err)

	claims, err := s.parseToken(token, false)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("session.id", claims.ID))

	return s.store.Delete(ctx, claims.ID)
}

func (s *GoogleIdentityService) issueSession(ctx context.Context, user *models.User) (string, error) {
	now := s.now()
	maxAge := s.sessionMaxAge()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(maxAge)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Server.SessionSecret))
	if err != nil {
		return "", contextutils.WrapError(err, "failed to sign session token")
	}
	if err := s.store.Save(ctx, claims.ID, user, maxAge); err != nil {
		return "", err
	}
	return signed, nil
}

func (s *GoogleIdentityService) parseToken(token string, validateClaims bool) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, contextutils.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if validateClaims {
		opts = append(opts, jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.Server.SessionSecret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, contextutils.ErrSessionExpired
		}
		return nil, contextutils.WrapError(contextutils.ErrUnauthorized, "invalid session token")
	}
	if claims.ID == "" {
		return nil, contextutils.WrapError(contextutils.ErrUnauthorized, "session token has no id")
	}
	return claims, nil
}

func (s *GoogleIdentityService) exchangeCodeForToken(ctx context.Context, code string) (result0 *GoogleTokenResponse, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "exchange_code_for_token",
		attribute.String("oauth.token_endpoint", s.TokenEndpoint),
	)
	defer observability.FinishSpan(span, &err)

	data := url.Values{}
	data.Set("client_id", s.config.GoogleOAuth.ClientID)
	data.Set("client_secret", s.config.GoogleOAuth.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", s.config.GoogleOAuth.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrServiceUnavailable, fmt.Sprintf("failed to exchange code for token: %v", err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error(ctx, "Google token exchange error response", nil, map[string]interface{}{
			"status_code":   resp.StatusCode,
			"response_body": string(body),
		})

		var errorResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Error != "" {
			span.SetAttributes(attribute.String("oauth.error", errorResp.Error))
			if errorResp.Error == "invalid_grant" {
				return nil, contextutils.WrapError(contextutils.ErrOAuthProviderError, "authorization code is invalid or already used, please sign in again")
			}
			return nil, contextutils.WrapErrorf(contextutils.ErrOAuthProviderError, "OAuth error: %s - %s", errorResp.Error, errorResp.ErrorDescription)
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrOAuthProviderError, "token exchange failed with status %d", resp.StatusCode)
	}

	var tokenResp GoogleTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrOAuthProviderError, "failed to decode token response")
	}
	if tokenResp.AccessToken == "" {
		return nil, contextutils.WrapError(contextutils.ErrOAuthProviderError, "token response has no access token")
	}
	return &tokenResp, nil
}

func (s *GoogleIdentityService) getGoogleUserInfo(ctx context.Context, accessToken string) (result0 *GoogleUserInfo, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "get_google_user_info",
		attribute.String("oauth.userinfo_endpoint", s.UserInfoEndpoint),
	)
	defer observability.FinishSpan(span, &err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.UserInfoEndpoint, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrServiceUnavailable, fmt.Sprintf("failed to get user info: %v", err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, contextutils.WrapErrorf(contextutils.ErrOAuthProviderError, "userinfo request failed with status %d", resp.StatusCode)
	}

	var userInfo GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrOAuthProviderError, "failed to decode user info")
	}
	return &userInfo, nil
}
