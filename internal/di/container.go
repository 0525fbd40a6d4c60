// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"github.com/redis/go-redis/v9"

	"campusvoice/internal/config"
	"campusvoice/internal/database"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"
	"campusvoice/internal/services"
	contextutils "campusvoice/internal/utils"
)

// Service names registered in the container
const (
	ServiceComplaint    = "complaint"
	ServiceSessionStore = "session_store"
	ServiceIdentity     = "identity"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetComplaintService() (serviceinterfaces.ComplaintService, error)
	GetIdentityProvider() (serviceinterfaces.IdentityProvider, error)
	GetSessionStore() (*services.RedisSessionStore, error)
	GetDatabase() *sql.DB
	GetDatabaseManager() *database.Manager
	GetRedis() redis.UniversalClient
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	InitializeDatabase(ctx context.Context) error
	InitializeSessions(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	redis         redis.UniversalClient
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize connects the database and Redis and builds every service the server needs
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	if err := sc.InitializeDatabase(ctx); err != nil {
		return err
	}
	if err := sc.InitializeSessions(ctx); err != nil {
		sc.mu.Lock()
		_ = sc.cleanup(ctx)
		sc.mu.Unlock()
		return err
	}
	return nil
}

// InitializeDatabase opens the database, applies migrations and registers the complaint service
func (sc *ServiceContainer) InitializeDatabase(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.db != nil {
		return nil
	}

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDB(ctx, sc.cfg.Database)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	sc.services[ServiceComplaint] = services.NewComplaintService(sc.db, sc.cfg, sc.logger)
	return nil
}

// InitializeSessions connects Redis and registers the session store and identity provider
func (sc *ServiceContainer) InitializeSessions(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.redis != nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     sc.cfg.Redis.Addr,
		Password: sc.cfg.Redis.Password,
		DB:       sc.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"failed to connect to redis", err.Error(), err)
	}
	sc.redis = client
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return client.Close()
	})

	store := services.NewRedisSessionStore(client, sc.cfg.Redis.KeyPrefix, sc.logger)
	sc.services[ServiceSessionStore] = store
	sc.services[ServiceIdentity] = services.NewGoogleIdentityService(sc.cfg, store, sc.logger)

	sc.logger.Info(ctx, "Session store connected", map[string]interface{}{
		"redis.addr": sc.cfg.Redis.Addr,
		"redis.db":   sc.cfg.Redis.DB,
	})
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetComplaintService returns the complaint store
func (sc *ServiceContainer) GetComplaintService() (serviceinterfaces.ComplaintService, error) {
	return GetServiceAs[serviceinterfaces.ComplaintService](sc, ServiceComplaint)
}

// GetIdentityProvider returns the Google identity collaborator
func (sc *ServiceContainer) GetIdentityProvider() (serviceinterfaces.IdentityProvider, error) {
	return GetServiceAs[serviceinterfaces.IdentityProvider](sc, ServiceIdentity)
}

// GetSessionStore returns the Redis session store
func (sc *ServiceContainer) GetSessionStore() (*services.RedisSessionStore, error) {
	return GetServiceAs[*services.RedisSessionStore](sc, ServiceSessionStore)
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.db
}

// GetDatabaseManager returns the manager used to open the database, for migration commands
func (sc *ServiceContainer) GetDatabaseManager() *database.Manager {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.dbManager
}

// GetRedis returns the Redis client
func (sc *ServiceContainer) GetRedis() redis.UniversalClient {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.redis
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup closes connections in reverse order of initialization
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error

	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil
	sc.db = nil
	sc.redis = nil
	sc.services = make(map[string]interface{})

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}
