package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

// setHistoryWindow supplies the two required variables so the remaining
// settings can be exercised with defaults.
func setHistoryWindow(t *testing.T) {
	t.Helper()
	t.Setenv("HISTORY_START", "2001-01-01")
	t.Setenv("HISTORY_END", "2021-01-01")
}

func TestLoad_Defaults(t *testing.T) {
	setHistoryWindow(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/basin.db", cfg.SQLitePath)
	assert.Equal(t, int64(42), cfg.BaseSeed)
	assert.Equal(t, domain.GranularityMonthHour, cfg.Granularity)
	assert.True(t, cfg.FallbackEnabled)
	assert.Equal(t, domain.GapExclude, cfg.GapPolicy)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), cfg.HistoryStart)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), cfg.HistoryEnd)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hourly-precip", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	setHistoryWindow(t)
	t.Setenv("SQLITE_PATH", "/var/lib/disagg/nemti.db")
	t.Setenv("BASE_SEED", "-7")
	t.Setenv("GRANULARITY", "month")
	t.Setenv("FALLBACK_ENABLED", "false")
	t.Setenv("GAP_POLICY", "zero-fill")
	t.Setenv("WORKERS", "16")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "hourly-precip-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/disagg/nemti.db", cfg.SQLitePath)
	assert.Equal(t, int64(-7), cfg.BaseSeed)
	assert.Equal(t, domain.GranularityMonth, cfg.Granularity)
	assert.False(t, cfg.FallbackEnabled)
	assert.Equal(t, domain.GapZeroFill, cfg.GapPolicy)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hourly-precip-test", cfg.KafkaSinkTopic)
}

func TestLoad_MissingHistoryWindow(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HISTORY_START")
}

func TestLoad_InvertedHistoryWindow(t *testing.T) {
	t.Setenv("HISTORY_START", "2021-01-01")
	t.Setenv("HISTORY_END", "2001-01-01")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HISTORY_END")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantSub string
	}{
		{"bad seed", "BASE_SEED", "forty-two", "BASE_SEED"},
		{"bad granularity", "GRANULARITY", "daily", "GRANULARITY"},
		{"bad gap policy", "GAP_POLICY", "interpolate", "GAP_POLICY"},
		{"zero workers", "WORKERS", "0", "WORKERS"},
		{"too many workers", "WORKERS", "1000", "WORKERS"},
		{"bad fallback flag", "FALLBACK_ENABLED", "maybe", "FALLBACK_ENABLED"},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soon", "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"bad history date", "HISTORY_START", "01/01/2001", "HISTORY_START"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setHistoryWindow(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantSub)
		})
	}
}

func TestLoad_KafkaEnabledRequiresSinkSettings(t *testing.T) {
	setHistoryWindow(t)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
