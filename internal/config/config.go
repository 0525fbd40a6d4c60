// Package config loads CampusVoice configuration from a YAML file with
// environment variable overrides.
package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "campusvoice/internal/utils"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at the YAML config file
const ConfigFileEnv = "CAMPUSVOICE_CONFIG_FILE"

// Config is the root configuration for the server and the admin CLI
type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`

	Database DatabaseConfig `json:"database" yaml:"database"`

	Redis RedisConfig `json:"redis" yaml:"redis"`

	GoogleOAuth GoogleOAuthConfig `json:"google_oauth" yaml:"google_oauth"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	Complaints ComplaintsConfig `json:"complaints" yaml:"complaints"`

	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port          string        `json:"port" yaml:"port" validate:"required,numeric"`
	SessionSecret string        `json:"session_secret" yaml:"session_secret" validate:"required,min=16"`
	Debug         bool          `json:"debug" yaml:"debug"`
	LogLevel      string        `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	AppBaseURL    string        `json:"app_base_url" yaml:"app_base_url" validate:"omitempty,url"`
	CORSOrigins   []string      `json:"cors_origins" yaml:"cors_origins"`
	ReadTimeout   time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout" yaml:"write_timeout"`
	// SecureCookies marks session cookies Secure and SameSite=None. Disable only for plain-HTTP local development.
	SecureCookies bool `json:"secure_cookies" yaml:"secure_cookies"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string        `json:"url" yaml:"url" validate:"required"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// RedisConfig holds the session store connection settings
type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr" validate:"required"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db" validate:"gte=0"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// GoogleOAuthConfig holds the Google OAuth client settings used for admin sign-in
type GoogleOAuthConfig struct {
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
	RedirectURL  string `json:"redirect_url" yaml:"redirect_url"`
}

// AuthConfig restricts which Google accounts may act as admins.
// Both lists empty means any verified Google account is accepted.
type AuthConfig struct {
	AllowedEmails  []string      `json:"allowed_emails,omitempty" yaml:"allowed_emails,omitempty"`
	AllowedDomains []string      `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`
	SessionMaxAge  time.Duration `json:"session_max_age" yaml:"session_max_age"`
}

// ComplaintsConfig holds complaint store tuning
type ComplaintsConfig struct {
	MaxIDAttempts int `json:"max_id_attempts" yaml:"max_id_attempts" validate:"gte=0,lte=50"`
}

// OpenTelemetryConfig holds tracing, metrics and log export settings
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "campusvoice-server"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
}

// IsAdminAllowed reports whether the email may sign in as an admin
func (c *Config) IsAdminAllowed(email string) bool {
	if len(c.Auth.AllowedEmails) == 0 && len(c.Auth.AllowedDomains) == 0 {
		return true
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range c.Auth.AllowedEmails {
		if strings.ToLower(strings.TrimSpace(allowed)) == normalized {
			return true
		}
	}

	at := strings.LastIndex(normalized, "@")
	if at < 0 {
		return false
	}
	domain := normalized[at+1:]
	for _, allowed := range c.Auth.AllowedDomains {
		if strings.ToLower(strings.TrimSpace(allowed)) == domain {
			return true
		}
	}
	return false
}

// NewConfig loads configuration from file, applies env overrides and defaults, then validates it.
func NewConfig() (result0 *Config, err error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %v", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks struct constraints on the loaded configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityFatal,
			"invalid configuration",
			err.Error(),
			err,
		)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultHTTPReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultHTTPWriteTimeout
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = DatabaseConnMaxLifetime
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if c.Auth.SessionMaxAge == 0 {
		c.Auth.SessionMaxAge = SessionMaxAge
	}
	if c.Complaints.MaxIDAttempts == 0 {
		c.Complaints.MaxIDAttempts = DefaultMaxComplaintIDAttempts
	}
	if c.OpenTelemetry.ServiceName == "" {
		c.OpenTelemetry.ServiceName = "campusvoice-server"
	}
	if c.OpenTelemetry.Protocol == "" {
		c.OpenTelemetry.Protocol = "grpc"
	}
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
}

func (c *Config) overrideFromEnv() {
	overrideStructFromEnvWithPrefix(c, "")
}

var durationType = reflect.TypeOf(time.Duration(0))

// overrideStructFromEnvWithPrefix sets fields from env vars named after their yaml tags,
// e.g. server.port -> SERVER_PORT, redis.addr -> REDIS_ADDR.
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}
		envVal := os.Getenv(envKey)

		if field.Type() == durationType {
			if envVal != "" {
				if d, err := time.ParseDuration(envVal); err == nil {
					field.SetInt(int64(d))
				}
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal != "" && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(envVal, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				field.Set(reflect.ValueOf(parts))
			}
		case reflect.Struct:
			if field.CanAddr() {
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
			}
		}
	}
}

// loadConfigWithOverrides loads the file named by CAMPUSVOICE_CONFIG_FILE, falling back to config.yaml
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to load config from %s", envPath)
		}
		return config, nil
	}

	return loadConfigFromFile("config.yaml")
}

func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
