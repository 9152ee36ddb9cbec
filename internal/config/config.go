package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel slog.Level `yaml:"logLevel"`

	ArchiveDir     string        `yaml:"archiveDir" validate:"required"`
	ArchiveFetch   bool          `yaml:"archiveFetch"`
	ArchiveBaseURL string        `yaml:"archiveBaseURL" validate:"omitempty,url"`
	ArchiveFrom    string        `yaml:"archiveFrom" validate:"omitempty,datetime=2006-01-02"`
	ArchiveDays    int           `yaml:"archiveDays" validate:"gte=0"`
	ArchiveTimeout time.Duration `yaml:"archiveTimeout" validate:"gt=0"`

	OutputDir string `yaml:"outputDir" validate:"required"`

	VehicleAPIURL    string        `yaml:"vehicleAPIURL" validate:"required,url"`
	VehicleTimeout   time.Duration `yaml:"vehicleTimeout" validate:"gt=0"`
	VehicleRateLimit float64       `yaml:"vehicleRateLimit" validate:"gte=0"`
	VehicleRateBurst int           `yaml:"vehicleRateBurst" validate:"gte=1"`

	LegWorkers      int `yaml:"legWorkers" validate:"gte=1"`
	PipelineWorkers int `yaml:"pipelineWorkers" validate:"gte=1"`

	RedisEnabled  bool          `yaml:"redisEnabled"`
	RedisAddr     string        `yaml:"redisAddr" validate:"required_if=RedisEnabled true"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB" validate:"gte=0"`
	RedisTTL      time.Duration `yaml:"redisTTL" validate:"gte=0"`
}

func defaults() Config {
	return Config{
		LogLevel: slog.LevelInfo,

		ArchiveDir:     "./archive",
		ArchiveFetch:   true,
		ArchiveBaseURL: "https://gtfs.irail.be/logs/",
		ArchiveFrom:    "2019-11-01",
		ArchiveDays:    30,
		ArchiveTimeout: 5 * time.Minute,

		OutputDir: "./output",

		VehicleAPIURL:    "https://api.irail.be/vehicle/?format=json&id=",
		VehicleTimeout:   30 * time.Second,
		VehicleRateLimit: 5,
		VehicleRateBurst: 1,

		LegWorkers:      1,
		PipelineWorkers: 1,

		RedisEnabled: false,
		RedisAddr:    "localhost:6379",
		RedisDB:      0,
		RedisTTL:     7 * 24 * time.Hour,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, then environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.LogLevel = getLogLevelEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.ArchiveDir = getEnv("ARCHIVE_DIR", cfg.ArchiveDir)
	cfg.ArchiveFetch = getBoolEnv("ARCHIVE_FETCH", cfg.ArchiveFetch)
	cfg.ArchiveBaseURL = getEnv("ARCHIVE_BASE_URL", cfg.ArchiveBaseURL)
	cfg.ArchiveFrom = getEnv("ARCHIVE_FROM", cfg.ArchiveFrom)
	cfg.ArchiveDays = getIntEnv("ARCHIVE_DAYS", cfg.ArchiveDays)
	cfg.ArchiveTimeout = getDurationEnv("ARCHIVE_TIMEOUT", cfg.ArchiveTimeout)

	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)

	cfg.VehicleAPIURL = getEnv("VEHICLE_API_URL", cfg.VehicleAPIURL)
	cfg.VehicleTimeout = getDurationEnv("VEHICLE_TIMEOUT", cfg.VehicleTimeout)
	cfg.VehicleRateLimit = getFloatEnv("VEHICLE_RATE_LIMIT", cfg.VehicleRateLimit)
	cfg.VehicleRateBurst = getIntEnv("VEHICLE_RATE_BURST", cfg.VehicleRateBurst)

	cfg.LegWorkers = getIntEnv("LEG_WORKERS", cfg.LegWorkers)
	cfg.PipelineWorkers = getIntEnv("PIPELINE_WORKERS", cfg.PipelineWorkers)

	cfg.RedisEnabled = getBoolEnv("REDIS_ENABLED", cfg.RedisEnabled)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getIntEnv("REDIS_DB", cfg.RedisDB)
	cfg.RedisTTL = getDurationEnv("REDIS_TTL", cfg.RedisTTL)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ArchiveStart returns the first archive day to fetch
func (c *Config) ArchiveStart() (time.Time, error) {
	return time.Parse(time.DateOnly, c.ArchiveFrom)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}
