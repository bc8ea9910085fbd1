package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"APP_PORT", "LOG_LEVEL", "STORAGE_BACKEND", "DATA_DIR", "SQLITE_PATH",
	"MONGODB_URI", "MONGODB_DB_NAME", "REPORT_CRON_SCHEDULE", "REMINDER_CRON_SCHEDULE",
	"TIMEZONE", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_BASE_URL",
	"WHATSAPP_API_VERSION", "WHATSAPP_OWNER_ID", "WHATSAPP_VERIFY_TOKEN", "GOOGLE_SHEETS_CREDENTIALS_PATH",
	"GOOGLE_SHEET_DATABASE_ID",
}

// clearEnv unsets every variable Load reads; t.Setenv restores them afterwards.
// godotenv never overrides a variable that is set, even to an empty value.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "./data/coop.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "coopkeeper", cfg.MongoDB.DBName)
	assert.Equal(t, "0 20 * * 0", cfg.Reporting.CronSchedule)
	assert.Equal(t, "0 8 * * *", cfg.Reporting.ReminderSchedule)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.WhatsApp.WebhookEnabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "STORAGE_BACKEND=SQLite\nDATA_DIR=/var/lib/coop\nTIMEZONE=Europe/Paris\n" +
		"WHATSAPP_TOKEN=token\nWHATSAPP_PHONE_NUMBER_ID=123\nWHATSAPP_OWNER_ID=456\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/coop/coop.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "Europe/Paris", cfg.Location().String())
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.WhatsApp.WebhookEnabled())

	cfg.WhatsApp.VerifyToken = "hook-secret"
	assert.True(t, cfg.WhatsApp.WebhookEnabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Storage:   StorageConfig{Backend: BackendMemory},
			Reporting: ReportingConfig{CronSchedule: "0 20 * * 0", ReminderSchedule: "0 8 * * *", Timezone: "UTC"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"file backend without dir", func(c *Config) { c.Storage.Backend = BackendFile }},
		{"mongodb without uri", func(c *Config) { c.Storage.Backend = BackendMongoDB; c.MongoDB.DBName = "coop" }},
		{"bad timezone", func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" }},
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"half configured sheets", func(c *Config) { c.Sheets.SpreadsheetID = "abc" }},
		{"whatsapp without version", func(c *Config) { c.WhatsApp.AccessToken = "t"; c.WhatsApp.BaseURL = "x" }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
