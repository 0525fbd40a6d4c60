package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPReadTimeout  = 15 * time.Second
	DefaultHTTPWriteTimeout = 30 * time.Second
	OAuthHTTPTimeout        = 10 * time.Second
	ServerShutdownTimeout   = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Admin sessions last 60 days
	SessionMaxAge = 60 * 24 * time.Hour

	// A sign-in must finish within this window
	OAuthStateMaxAge = 10 * time.Minute
)

// Server defaults
const (
	ServiceName           = "campusvoice"
	DefaultServerPort     = "8080"
	DefaultRedisKeyPrefix = "campusvoice"
)

// Complaint defaults
const (
	DefaultMaxComplaintIDAttempts = 5
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true

	// SessionCookieName carries the signed admin session token
	SessionCookieName = "campusvoice_session"

	// OAuthStateSessionName is the gin-contrib/sessions cookie holding the pending OAuth state
	OAuthStateSessionName = "campusvoice_oauth"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data: https://lh3.googleusercontent.com;"
)
