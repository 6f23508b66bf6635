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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Generator   GeneratorConfig
	Assessment  AssessmentConfig
	Suggestions SuggestionsConfig
	Dashboard   DashboardConfig
	Repair      RepairConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GeneratorConfig governs weekly schedule generation behaviour.
type GeneratorConfig struct {
	HolidayReschedule bool
	BatchWorkers      int
	WeekLengthDays    int
	AutoRunInterval   time.Duration
	AutoRunEnabled    bool
}

// AssessmentConfig defines the window policy applied to generated entries.
type AssessmentConfig struct {
	WindowOffset time.Duration
	Duration     time.Duration
	GracePeriod  time.Duration
}

// SuggestionsConfig tunes topic suggestion scoring.
type SuggestionsConfig struct {
	ScoreFloor float64
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// RepairConfig controls the reconciliation utility.
type RepairConfig struct {
	DryRunDefault bool
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Generator = GeneratorConfig{
		HolidayReschedule: v.GetBool("GENERATOR_HOLIDAY_RESCHEDULE"),
		BatchWorkers:      v.GetInt("GENERATOR_BATCH_WORKERS"),
		WeekLengthDays:    v.GetInt("GENERATOR_WEEK_LENGTH_DAYS"),
		AutoRunEnabled:    v.GetBool("GENERATOR_AUTO_RUN"),
		AutoRunInterval:   parseDuration(v.GetString("GENERATOR_AUTO_RUN_INTERVAL"), 24*time.Hour),
	}

	cfg.Assessment = AssessmentConfig{
		WindowOffset: parseDuration(v.GetString("ASSESSMENT_WINDOW_OFFSET"), 0),
		Duration:     parseDuration(v.GetString("ASSESSMENT_WINDOW_DURATION"), 30*time.Minute),
		GracePeriod:  parseDuration(v.GetString("ASSESSMENT_GRACE_PERIOD"), 15*time.Minute),
	}

	cfg.Suggestions = SuggestionsConfig{
		ScoreFloor: v.GetFloat64("SUGGESTION_SCORE_FLOOR"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Repair = RepairConfig{
		DryRunDefault: v.GetBool("REPAIR_DRY_RUN_DEFAULT"),
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
	v.SetDefault("DB_NAME", "haybee_edu")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GENERATOR_HOLIDAY_RESCHEDULE", false)
	v.SetDefault("GENERATOR_BATCH_WORKERS", 4)
	v.SetDefault("GENERATOR_WEEK_LENGTH_DAYS", 7)
	v.SetDefault("GENERATOR_AUTO_RUN", false)
	v.SetDefault("GENERATOR_AUTO_RUN_INTERVAL", "24h")

	v.SetDefault("ASSESSMENT_WINDOW_OFFSET", "0s")
	v.SetDefault("ASSESSMENT_WINDOW_DURATION", "30m")
	v.SetDefault("ASSESSMENT_GRACE_PERIOD", "15m")

	v.SetDefault("SUGGESTION_SCORE_FLOOR", 0.3)

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("REPAIR_DRY_RUN_DEFAULT", true)
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
