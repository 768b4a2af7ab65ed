package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"wealth_manager/internal/processor"
)

const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port        string
	MetricsAddr string
	LogLevel    slog.Level

	StorageDriver string
	DataFile      string
	DBConn        string
	SnapshotKey   string
	SigningKey    string

	// RequireSignature rejects unsigned snapshots once a SigningKey is set.
	RequireSignature bool

	Thresholds                processor.Thresholds
	ReevaluateOnEveryMutation bool

	RetentionDays     int
	RetentionSchedule string

	NotificationWorkers int
	NotifyEmail         string
	SMTPHost            string
	SMTPPort            string
	SMTPUser            string
	SMTPPassword        string
	SenderEmail         string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9090"),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageFile)),
		DataFile:          getEnv("DATA_FILE", "data/wealth-management-data.json"),
		DBConn:            getEnv("DB_CONN", ""),
		SnapshotKey:       getEnv("SNAPSHOT_KEY", "wealth-management-data"),
		SigningKey:        getEnv("SIGNING_KEY", ""),
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "@daily"),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "advisor@localhost"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "INFO")); err != nil {
		return nil, err
	}
	if cfg.ReevaluateOnEveryMutation, err = getBool("REEVALUATE_ON_EVERY_MUTATION", false); err != nil {
		return nil, err
	}
	if cfg.RequireSignature, err = getBool("REQUIRE_SIGNATURE", false); err != nil {
		return nil, err
	}
	if cfg.RetentionDays, err = getInt("RETENTION_DAYS", 0); err != nil {
		return nil, err
	}
	if cfg.NotificationWorkers, err = getInt("NOTIFICATION_WORKERS", 2); err != nil {
		return nil, err
	}

	th := processor.DefaultThresholds()
	for key, dst := range map[string]*float64{
		"DEBT_TO_INCOME_THRESHOLD": &th.DebtToIncomeRatio,
		"HIGH_INTEREST_THRESHOLD":  &th.HighInterestRate,
		"EMERGENCY_FUND_MONTHS":    &th.EmergencyFundMonths,
		"EXPENSE_SHARE_OF_INCOME":  &th.ExpenseShareOfIncome,
		"CONCENTRATION_THRESHOLD":  &th.ConcentrationShare,
		"UTILIZATION_THRESHOLD":    &th.UtilizationRatio,
		"FALLBACK_PAYMENT_RATE":    &th.FallbackPaymentRate,
	} {
		if *dst, err = getFloat(key, *dst); err != nil {
			return nil, err
		}
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	cfg.Thresholds = th

	switch cfg.StorageDriver {
	case StorageFile:
		if cfg.DataFile == "" {
			return nil, fmt.Errorf("DATA_FILE is required for the file storage driver")
		}
	case StoragePostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required for the postgres storage driver")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.StorageDriver)
	}
	if cfg.RequireSignature && cfg.SigningKey == "" {
		return nil, fmt.Errorf("REQUIRE_SIGNATURE needs SIGNING_KEY")
	}
	if cfg.RetentionDays < 0 {
		return nil, fmt.Errorf("RETENTION_DAYS must not be negative")
	}

	return cfg, nil
}

// RetentionPeriod is zero when retention is disabled.
func (c *Config) RetentionPeriod() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}
