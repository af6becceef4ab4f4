package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a database host was configured.
// Without one the service keeps scan sessions in memory.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether backup mirroring to object storage is configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ScrubberConfig controls where and how the text scrubber operates.
type ScrubberConfig struct {
	ProjectRoot   string
	SourceDirs    []string
	Extensions    []string
	BackupDir     string
	LocaleFile    string
	SessionTTLMin int
	ImportLine    string
	HookLine      string
}

// AuthConfig holds the bearer token table and the role required for admin routes.
// Tokens has the form "userID:ROLE:bcryptHash", comma separated.
type AuthConfig struct {
	Tokens    string
	AdminRole string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	Log      LogConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
	Scrubber ScrubberConfig
	Auth     AuthConfig
}

const (
	DefaultImportLine = "import { useTranslationContext } from '@/components/providers/TranslationProvider';"
	DefaultHookLine   = "  const { t } = useTranslationContext();"
)

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Scrubber: ScrubberConfig{
			ProjectRoot:   getEnv("SCRUB_PROJECT_ROOT", ""),
			SourceDirs:    getEnvList("SCRUB_SOURCE_DIRS", []string{"src/app", "src/components"}),
			Extensions:    getEnvList("SCRUB_EXTENSIONS", []string{".tsx", ".jsx"}),
			BackupDir:     getEnv("SCRUB_BACKUP_DIR", ".backups"),
			LocaleFile:    getEnv("SCRUB_LOCALE_FILE", "src/lib/locales/en.json"),
			SessionTTLMin: getEnvInt("SCRUB_SESSION_TTL_MIN", 1440),
			ImportLine:    getEnv("SCRUB_IMPORT_LINE", DefaultImportLine),
			HookLine:      getEnv("SCRUB_HOOK_LINE", DefaultHookLine),
		},
		Auth: AuthConfig{
			Tokens:    getEnv("AUTH_TOKENS", ""),
			AdminRole: getEnv("AUTH_ADMIN_ROLE", "SUPER_ADMIN"),
		},
	}
}

// ResolveProjectRoot returns the configured project root, or walks up from
// start looking for a directory containing src/. It gives up after ten
// levels and falls back to start.
func ResolveProjectRoot(configured, start string) string {
	if configured != "" {
		if abs, err := filepath.Abs(configured); err == nil {
			return abs
		}
		return configured
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for i := 0; i < 10; i++ {
		if st, err := os.Stat(filepath.Join(dir, "src")); err == nil && st.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	abs, _ := filepath.Abs(start)
	return abs
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
