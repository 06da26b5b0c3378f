package app

import (
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/data/db"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/platform/envutil"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

const (
	DraftStoreMemory = "memory"
	DraftStoreRedis  = "redis"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	DB          db.Config
	AutoMigrate bool

	// Empty mode selects the emulator when StorageEmulatorHost is set.
	ObjectStorageMode   string
	StorageEmulatorHost string

	DraftStore    string
	DraftTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WebhookURL     string
	WebhookTimeout time.Duration
	Links          plan.Links

	ScreenshotMaxChars int
	PhotoMaxWidth      int
	PhotoJPEGQuality   int
	UploadConcurrency  int

	RenderFontPath string
	RenderCacheTTL time.Duration
	RenderTimezone string

	SentryDSN      string
	APIToken       string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

func LoadConfig(log *logger.Logger) Config {
	defaults := plan.DefaultLinks()

	return Config{
		Port:        envutil.String("PORT", "8080", log),
		Environment: envutil.String("APP_ENV", "development", log),
		Version:     envutil.String("APP_VERSION", "dev", log),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			SQLitePath:       envutil.String("SQLITE_PATH", "treatmentplan.db", log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "treatmentplan", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
		},

		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true, log),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", "", log),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", "", log),

		DraftStore:    envutil.String("DRAFT_STORE", DraftStoreMemory, log),
		DraftTTL:      envutil.Seconds("DRAFT_TTL_SECONDS", 12*time.Hour, log),
		RedisAddr:     envutil.String("REDIS_ADDR", "", log),
		RedisPassword: envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),

		WebhookURL:     envutil.String("WEBHOOK_URL", "", log),
		WebhookTimeout: envutil.Seconds("WEBHOOK_TIMEOUT_SECONDS", 0, log),
		Links: plan.Links{
			ViewerBaseURL:     envutil.String("PUBLIC_BASE_URL", defaults.ViewerBaseURL, log),
			PatientNavBaseURL: envutil.String("PATIENT_NAV_BASE_URL", defaults.PatientNavBaseURL, log),
		},

		ScreenshotMaxChars: envutil.Int("SCREENSHOT_MAX_CHARS", media.MaxScreenshotChars, log),
		PhotoMaxWidth:      envutil.Int("PHOTO_MAX_WIDTH", media.DefaultMaxWidth, log),
		PhotoJPEGQuality:   envutil.Int("PHOTO_JPEG_QUALITY", media.DefaultJPEGQuality, log),
		UploadConcurrency:  envutil.Int("UPLOAD_CONCURRENCY", 4, log),

		RenderFontPath: envutil.String("RENDER_FONT_PATH", "", log),
		RenderCacheTTL: envutil.Seconds("RENDER_CACHE_TTL_SECONDS", 10*time.Minute, log),
		RenderTimezone: envutil.String("RENDER_TIMEZONE", "Europe/Paris", log),

		SentryDSN:      envutil.String("SENTRY_DSN", "", log),
		APIToken:       envutil.String("API_TOKEN", "", log),
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil, log),
		MaxBodyBytes:   int64(envutil.Int("MAX_BODY_BYTES", 32<<20, log)),
	}
}

// Location resolves RenderTimezone, falling back to UTC.
func (c Config) Location(log *logger.Logger) *time.Location {
	if c.RenderTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.RenderTimezone)
	if err != nil {
		log.Warn("Unknown RENDER_TIMEZONE, using UTC", "timezone", c.RenderTimezone, "error", err)
		return time.UTC
	}
	return loc
}
