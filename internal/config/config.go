// Package config loads service settings from environment variables,
// applying defaults and validating everything up front so a run never
// starts with a half-usable configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

// dateLayout is the accepted format for the historical window bounds.
const dateLayout = "2006-01-02"

// Config holds all service settings, populated from environment variables.
type Config struct {
	SQLitePath string

	// Core disaggregation policy.
	BaseSeed        int64
	Granularity     domain.Granularity
	FallbackEnabled bool
	GapPolicy       domain.GapPolicy
	Workers         int

	// Historical horizon the weight table is built from, [start, end).
	HistoryStart time.Time
	HistoryEnd   time.Time

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka mirror of hourly results.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from the environment (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	baseSeed, err := parseInt64("BASE_SEED", 42)
	if err != nil {
		return nil, err
	}

	workers, err := parseInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers < 1 || workers > 256 {
		return nil, fmt.Errorf("WORKERS must be between 1 and 256, got %d", workers)
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	historyStart, err := parseDate("HISTORY_START")
	if err != nil {
		return nil, err
	}
	historyEnd, err := parseDate("HISTORY_END")
	if err != nil {
		return nil, err
	}
	if !historyEnd.After(historyStart) {
		return nil, fmt.Errorf("HISTORY_END (%s) must be after HISTORY_START (%s)",
			historyEnd.Format(dateLayout), historyStart.Format(dateLayout))
	}

	granularity := domain.Granularity(envOrDefault("GRANULARITY", string(domain.GranularityMonthHour)))
	if granularity != domain.GranularityMonthHour && granularity != domain.GranularityMonth {
		return nil, fmt.Errorf("GRANULARITY must be %q or %q, got %q",
			domain.GranularityMonthHour, domain.GranularityMonth, granularity)
	}

	gapPolicy := domain.GapPolicy(envOrDefault("GAP_POLICY", string(domain.GapExclude)))
	if gapPolicy != domain.GapExclude && gapPolicy != domain.GapZeroFill {
		return nil, fmt.Errorf("GAP_POLICY must be %q or %q, got %q",
			domain.GapExclude, domain.GapZeroFill, gapPolicy)
	}

	fallbackEnabled, err := parseBool("FALLBACK_ENABLED", true)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SQLitePath:      envOrDefault("SQLITE_PATH", "data/basin.db"),
		BaseSeed:        baseSeed,
		Granularity:     granularity,
		FallbackEnabled: fallbackEnabled,
		GapPolicy:       gapPolicy,
		Workers:         workers,
		HistoryStart:    historyStart,
		HistoryEnd:      historyEnd,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  envOrDefault("KAFKA_SINK_TOPIC", "hourly-precip"),
	}

	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("SQLITE_PATH is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(key string, def int) (int, error) {
	v, err := parseInt64(key, int64(def))
	return int(v), err
}

func parseInt64(key string, def int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, s)
	}
	return b, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, s)
	}
	return d, nil
}

func parseDate(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required (format %s)", key, dateLayout)
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a %s date, got %q", key, dateLayout, s)
	}
	return t, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
