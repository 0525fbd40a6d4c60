package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"campusvoice/internal/config"
	"campusvoice/internal/middleware"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"
	contextutils "campusvoice/internal/utils"
	"campusvoice/internal/version"
)

// NewRouter builds the HTTP API: public complaint routes, admin routes behind a
// session and the Google sign-in flow.
func NewRouter(
	cfg *config.Config,
	complaintService serviceinterfaces.ComplaintService,
	identity serviceinterfaces.IdentityProvider,
	logger *observability.Logger,
) (*gin.Engine, error) {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	schemas, err := middleware.DefaultSchemaLoader()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load request schemas")
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger, middleware.DefaultErrorRecoveryConfig()))
	router.Use(observability.RequestLogger(logger))

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get(config.ServiceName)})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling(config.ServiceName)...)

	router.RedirectTrailingSlash = false

	// cors.New panics on an empty origin list; same-origin deployments skip it
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With"}
		corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
		router.Use(cors.New(corsConfig))
	}

	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// The cookie store only carries the pending OAuth state
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.OAuthStateMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.Server.SecureCookies {
		sessionOpts.SameSite = http.SameSiteNoneMode
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.OAuthStateSessionName, store))

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	complaintHandler := NewComplaintHandler(complaintService, logger)
	adminHandler := NewAdminComplaintHandler(complaintService, logger)
	authHandler := NewAuthHandler(identity, cfg, logger)
	requireSession := middleware.RequireSession(identity, logger)

	api := router.Group("/api")
	{
		complaints := api.Group("/complaints")
		{
			complaints.POST("", middleware.RequestValidationMiddleware(schemas, middleware.SchemaNewComplaint, logger), complaintHandler.CreateComplaint)
			complaints.GET("/:id", complaintHandler.GetComplaint)
		}

		admin := api.Group("/admin")
		admin.Use(requireSession)
		{
			admin.GET("/complaints", adminHandler.ListComplaints)
			admin.PATCH("/complaints/:id", middleware.RequestValidationMiddleware(schemas, middleware.SchemaComplaintUpdate, logger), adminHandler.UpdateComplaint)
			admin.GET("/stats", adminHandler.GetStats)
		}

		api.GET("/oauth/google/redirect_url", authHandler.GoogleRedirectURL)
		api.POST("/sessions", middleware.RequestValidationMiddleware(schemas, middleware.SchemaSessionRequest, logger), authHandler.CreateSession)
		api.GET("/users/me", requireSession, authHandler.Me)
		api.GET("/logout", authHandler.Logout)
	}

	routeListing := NewRouteListingHandler(config.ServiceName)
	routeListing.CollectRoutes(router)
	router.GET("/api", routeListing.GetRouteListingJSON)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"code":  string(contextutils.ErrorCodeRecordNotFound),
		})
	})

	return router, nil
}
