package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Redis   RedisConfig
	Session SessionConfig
	CORS    CORSConfig
	Log     LogConfig
	Portal  PortalConfig
	Browser BrowserConfig
	Cache   CacheConfig
	Upload  UploadConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig holds secrets for session tokens and credential sealing.
type SessionConfig struct {
	Secret        string
	CredentialKey string
	TTL           time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PortalConfig locates the external college portal. The URLs are not a
// stable contract; the navigator carries fallbacks for markup drift.
type PortalConfig struct {
	BaseURL       string
	AttendanceURL string
	LabRecordURL  string
	// ReferenceYear is assumed for portal dates that omit a year.
	ReferenceYear int
}

// BrowserConfig tunes the headless-browser session pool.
type BrowserConfig struct {
	ChromeBin      string
	Headless       bool
	PoolSize       int
	AcquireTimeout time.Duration
	StepTimeout    time.Duration
}

// CacheConfig governs the scraped-result cache.
type CacheConfig struct {
	Enabled       bool
	AttendanceTTL time.Duration
}

// UploadConfig bounds lab-record document generation.
type UploadConfig struct {
	StorageDir  string
	MaxPDFBytes int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret:        v.GetString("SESSION_SECRET"),
		CredentialKey: v.GetString("CREDENTIAL_KEY"),
		TTL:           parseDuration(v.GetString("SESSION_TTL"), 30*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Portal = PortalConfig{
		BaseURL:       v.GetString("PORTAL_BASE_URL"),
		AttendanceURL: v.GetString("PORTAL_ATTENDANCE_URL"),
		LabRecordURL:  v.GetString("PORTAL_LAB_URL"),
		ReferenceYear: v.GetInt("PORTAL_REFERENCE_YEAR"),
	}

	cfg.Browser = BrowserConfig{
		ChromeBin:      v.GetString("CHROME_BIN"),
		Headless:       v.GetBool("BROWSER_HEADLESS"),
		PoolSize:       v.GetInt("BROWSER_POOL_SIZE"),
		AcquireTimeout: parseDuration(v.GetString("BROWSER_ACQUIRE_TIMEOUT"), 30*time.Second),
		StepTimeout:    parseDuration(v.GetString("BROWSER_STEP_TIMEOUT"), 10*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled:       v.GetBool("CACHE_ENABLED"),
		AttendanceTTL: parseDuration(v.GetString("ATTENDANCE_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Upload = UploadConfig{
		StorageDir:  v.GetString("PDF_STORAGE_DIR"),
		MaxPDFBytes: v.GetInt64("PDF_MAX_BYTES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_secret")
	v.SetDefault("CREDENTIAL_KEY", "dev_credential_key")
	v.SetDefault("SESSION_TTL", "30m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PORTAL_BASE_URL", "https://samvidha.iare.ac.in/")
	v.SetDefault("PORTAL_ATTENDANCE_URL", "https://samvidha.iare.ac.in/home?action=course_content")
	v.SetDefault("PORTAL_LAB_URL", "https://samvidha.iare.ac.in/home?action=labrecord_std")
	v.SetDefault("PORTAL_REFERENCE_YEAR", 2025)

	v.SetDefault("CHROME_BIN", "/usr/bin/chromium")
	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("BROWSER_POOL_SIZE", 3)
	v.SetDefault("BROWSER_ACQUIRE_TIMEOUT", "30s")
	v.SetDefault("BROWSER_STEP_TIMEOUT", "10s")

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("ATTENDANCE_CACHE_TTL", "30m")

	v.SetDefault("PDF_STORAGE_DIR", "./labdocs")
	v.SetDefault("PDF_MAX_BYTES", 1024*1024)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
