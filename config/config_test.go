package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-allowance/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "shift-allowance.db", cfg.DBPath)
	assert.Equal(t, "Asia/Hong_Kong", cfg.Location().String())
	assert.True(t, decimal.NewFromInt(50).Equal(cfg.Thresholds().Full))
	assert.True(t, decimal.NewFromInt(25).Equal(cfg.Thresholds().Half))
	assert.Empty(t, cfg.RateScheduleFile)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileThenEnv(t *testing.T) {
	// GIVEN: A config.yaml and an environment override
	// WHEN: Loading
	// THEN: The environment wins over the file, the file over defaults

	dir := t.TempDir()
	yaml := "PORT: \"9090\"\nLOG_LEVEL: debug\nFULL_ALLOWANCE_HOURS: \"60\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("PORT", "7000")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.True(t, decimal.NewFromInt(60).Equal(cfg.Thresholds().Full))
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
		{"non-numeric target", "FULL_ALLOWANCE_HOURS", "lots"},
		{"half above full", "HALF_ALLOWANCE_HOURS", "80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Load(t.TempDir())

			assert.Error(t, err)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	config.SetupLogging(&config.Config{Environment: "production", LogLevel: "warn"})
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	config.SetupLogging(&config.Config{LogLevel: "bogus"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
