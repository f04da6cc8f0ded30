package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("PORT", "8080")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, DefaultReminderTime, cfg.DefaultReminderTime)
	assert.Equal(t, DefaultTickInterval, cfg.TickInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 10*time.Minute, cfg.PendingTTL)
}

func TestLoadEnvOverridesAndFlags(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("TICK_INTERVAL", "15s")
	t.Setenv("DEFAULT_REMINDER_TIME", "7:5")

	cfg, err := Load([]string{"-workers", "2", "-database-url", "/tmp/x.db"})
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.TelegramToken)
	assert.Equal(t, 15*time.Second, cfg.TickInterval)
	assert.Equal(t, "07:05", cfg.DefaultReminderTime)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "/tmp/x.db", cfg.DatabaseURL)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"TELEGRAM_TOKEN": ""}},
		{name: "tick too long", env: map[string]string{"TELEGRAM_TOKEN": "t", "TICK_INTERVAL": "2m"}},
		{name: "tick malformed", env: map[string]string{"TELEGRAM_TOKEN": "t", "TICK_INTERVAL": "soon"}},
		{name: "bad reminder time", env: map[string]string{"TELEGRAM_TOKEN": "t", "DEFAULT_REMINDER_TIME": "25:00"}},
		{name: "unknown zone", env: map[string]string{"TELEGRAM_TOKEN": "t", "TIME_ZONE": "Mars/Olympus"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "06:00", want: "06:00", ok: true},
		{in: "7:30", want: "07:30", ok: true},
		{in: " 23:59 ", want: "23:59", ok: true},
		{in: "0:0", want: "00:00", ok: true},
		{in: "24:00", ok: false},
		{in: "12:60", ok: false},
		{in: "-1:10", ok: false},
		{in: "1230", ok: false},
		{in: "12:30:00", ok: false},
		{in: "ab:cd", ok: false},
	}
	for _, test := range tests {
		got, ok := NormalizeClock(test.in)
		assert.Equal(t, test.ok, ok, "input %q", test.in)
		assert.Equal(t, test.want, got, "input %q", test.in)
	}
}
