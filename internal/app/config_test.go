package app

import (
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joulek/Backend-mtr/internal/platform/mail"
	_ "github.com/joulek/Backend-mtr/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "NUMBERING_BACKEND", "REQUEST_NUMBER_PREFIX", "STORAGE_CLEANUP_DIRS",
		"QUOTE_SURCHARGE_PERCENT", "QUOTE_DEFAULT_TAX_PERCENT", "SMTP_HOST")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, NumberingPostgres, cfg.NumberingBackend)
	assert.Equal(t, "DDV", cfg.RequestNumberPrefix)
	assert.Equal(t, "fpdf", cfg.PDFEngine)
	assert.True(t, cfg.QuoteSurchargePercent.Equal(decimal.NewFromInt(1)))
	assert.True(t, cfg.QuoteDefaultTaxPercent.Equal(decimal.NewFromInt(19)))
	assert.Equal(t, []string{"tmp"}, cfg.CleanupDirs)
	assert.False(t, cfg.MailEnabled())
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("NUMBERING_BACKEND", "redis")
	t.Setenv("QUOTE_SURCHARGE_PERCENT", "1.5")
	t.Setenv("QUOTE_STAMP_DUTY", "1")
	t.Setenv("STORAGE_CLEANUP_DIRS", "tmp,uploads/tmp")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, NumberingRedis, cfg.NumberingBackend)
	assert.Equal(t, "1.5", cfg.QuoteSurchargePercent.String())
	assert.Equal(t, "1", cfg.QuoteStampDuty.String())
	assert.Equal(t, []string{"tmp", "uploads/tmp"}, cfg.CleanupDirs)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadDecimal(t *testing.T) {
	t.Setenv("QUOTE_SURCHARGE_PERCENT", "un pour cent")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			PDFEngine:              "fpdf",
			NumberingBackend:       NumberingPostgres,
			RequestNumberPrefix:    "DDV",
			QuoteSurchargePercent:  decimal.NewFromInt(1),
			QuoteDefaultTaxPercent: decimal.NewFromInt(19),
			RateLimitPerMinute:     60,
		}
	}
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "gotenberg with url", mutate: func(c *Config) {
			c.PDFEngine = "gotenberg"
			c.GotenbergURL = "http://gotenberg:3000"
		}, ok: true},
		{name: "gotenberg without url", mutate: func(c *Config) { c.PDFEngine = "gotenberg" }},
		{name: "unknown engine", mutate: func(c *Config) { c.PDFEngine = "wkhtmltopdf" }},
		{name: "unknown backend", mutate: func(c *Config) { c.NumberingBackend = "etcd" }},
		{name: "negative surcharge", mutate: func(c *Config) { c.QuoteSurchargePercent = decimal.NewFromInt(-1) }},
		{name: "negative stamp", mutate: func(c *Config) { c.QuoteStampDuty = decimal.RequireFromString("-0.6") }},
		{name: "empty prefix", mutate: func(c *Config) { c.RequestNumberPrefix = "" }},
		{name: "zero rate", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel(nil))
	assert.Equal(t, slog.LevelDebug, parseLevel(&Config{LogLevel: "DEBUG"}))
	assert.Equal(t, slog.LevelWarn, parseLevel(&Config{LogLevel: "warning"}))
	assert.Equal(t, slog.LevelError, parseLevel(&Config{LogLevel: "error"}))
	assert.Equal(t, slog.LevelInfo, parseLevel(&Config{LogLevel: "verbose"}))
}

func TestTestModeFollowsEnvironment(t *testing.T) {
	require.True(t, InTestMode())

	t.Cleanup(RefreshTestMode)
	t.Setenv("DEVIS_TEST_MODE", "false")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestNewMailSenderFallsBackToLog(t *testing.T) {
	sender := NewMailSender(&Config{SMTPHost: "smtp.mtr.tn"}, slog.Default())
	assert.IsType(t, mail.LogSender{}, sender)
}
