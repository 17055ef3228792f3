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
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Google   GoogleConfig
	Uploads  UploadsConfig
	Mirror   MirrorConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	// FolderTTL bounds how long resolved Drive folder IDs stay cached.
	FolderTTL time.Duration
}

// AuthConfig covers the single staff credential and token issuance.
type AuthConfig struct {
	StaffEmail        string
	StaffPasswordHash string
	JWTSecret         string
	TokenExpiry       time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GoogleConfig targets the Drive folder and spreadsheet used for intake.
type GoogleConfig struct {
	CredentialsFile string
	DriveFolderID   string
	SpreadsheetID   string
	SheetName       string
	CallTimeout     time.Duration
}

// UploadsConfig bounds the multipart spool.
type UploadsConfig struct {
	SpoolDir        string
	MaxFileSize     int64
	MaxFieldSize    int64
	JanitorInterval time.Duration
	SpoolTTL        time.Duration
}

// MirrorConfig toggles the local submissions mirror used by staff endpoints.
type MirrorConfig struct {
	Enabled bool
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
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:   v.GetBool("REDIS_ENABLED"),
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		FolderTTL: parseDuration(v.GetString("REDIS_FOLDER_TTL"), 24*time.Hour),
	}

	cfg.Auth = AuthConfig{
		StaffEmail:        v.GetString("STAFF_EMAIL"),
		StaffPasswordHash: v.GetString("STAFF_PASSWORD_HASH"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenExpiry:       parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Google = GoogleConfig{
		CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		DriveFolderID:   v.GetString("DRIVE_FOLDER_ID"),
		SpreadsheetID:   v.GetString("SPREADSHEET_ID"),
		SheetName:       v.GetString("SHEET_NAME"),
		CallTimeout:     parseDuration(v.GetString("GOOGLE_CALL_TIMEOUT"), 30*time.Second),
	}

	maxFileSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 25 * 1024 * 1024
	}
	maxFieldSize := v.GetInt64("UPLOADS_MAX_FIELD_SIZE")
	if maxFieldSize <= 0 {
		maxFieldSize = 64 * 1024
	}
	cfg.Uploads = UploadsConfig{
		SpoolDir:        v.GetString("UPLOADS_SPOOL_DIR"),
		MaxFileSize:     maxFileSize,
		MaxFieldSize:    maxFieldSize,
		JanitorInterval: parseDuration(v.GetString("UPLOADS_JANITOR_INTERVAL"), time.Hour),
		SpoolTTL:        parseDuration(v.GetString("UPLOADS_SPOOL_TTL"), 2*time.Hour),
	}

	cfg.Mirror = MirrorConfig{
		Enabled: v.GetBool("ENABLE_SUBMISSIONS_MIRROR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "transcript_intake")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_FOLDER_TTL", "24h")

	v.SetDefault("STAFF_EMAIL", "")
	v.SetDefault("STAFF_PASSWORD_HASH", "")
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "intake-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "service_account.json")
	v.SetDefault("DRIVE_FOLDER_ID", "")
	v.SetDefault("SPREADSHEET_ID", "")
	v.SetDefault("SHEET_NAME", "Transcripts")
	v.SetDefault("GOOGLE_CALL_TIMEOUT", "30s")

	v.SetDefault("UPLOADS_SPOOL_DIR", "./spool")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 25*1024*1024)
	v.SetDefault("UPLOADS_MAX_FIELD_SIZE", 64*1024)
	v.SetDefault("UPLOADS_JANITOR_INTERVAL", "1h")
	v.SetDefault("UPLOADS_SPOOL_TTL", "2h")

	v.SetDefault("ENABLE_SUBMISSIONS_MIRROR", false)
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
