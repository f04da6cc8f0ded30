package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/stoewer/go-strcase"
)

const (
	DefaultDatabaseURL  = "countdown_data.sqlite"
	DefaultReminderTime = "06:00"
	DefaultTickInterval = 30 * time.Second
	DefaultHTTPPort     = "5000"
	MaxTickInterval     = time.Minute
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken       string
	DatabaseURL         string
	DefaultReminderTime string
	TickInterval        time.Duration
	TimeZone            string
	HTTPAddr            string
	LogLevel            string
	Workers             int
	PendingTTL          time.Duration
}

// Location resolves TimeZone, falling back to the process local zone.
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.TimeZone)
	}
	return loc, nil
}

// Load parses flags from args. Every flag default can be overridden by the
// upper snake case environment variable of the same name (tick-interval -> TICK_INTERVAL).
func Load(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("countdownbot", flag.ContinueOnError)

	defaultAddr := ":" + DefaultHTTPPort
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		defaultAddr = ":" + port
	}

	env := envLookup{}
	stringVar(fs, &env, &cfg.TelegramToken, "telegram-token", "", "Telegram bot API token")
	stringVar(fs, &env, &cfg.DatabaseURL, "database-url", DefaultDatabaseURL, "SQLite file path or postgres:// URL")
	stringVar(fs, &env, &cfg.DefaultReminderTime, "default-reminder-time", DefaultReminderTime, "reminder time for new chats, HH:MM")
	durationVar(fs, &env, &cfg.TickInterval, "tick-interval", DefaultTickInterval, "reminder dispatcher tick interval, at most 1m")
	stringVar(fs, &env, &cfg.TimeZone, "time-zone", "", "IANA zone used for reminder wall clock, empty for local")
	stringVar(fs, &env, &cfg.HTTPAddr, "http-addr", defaultAddr, "keep-alive HTTP listen address")
	stringVar(fs, &env, &cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	intVar(fs, &env, &cfg.Workers, "workers", 4, "number of update handling workers")
	durationVar(fs, &env, &cfg.PendingTTL, "pending-ttl", 10*time.Minute, "how long a prompt waits for the reply")
	if env.err != nil {
		return cfg, env.err
	}

	if err := fs.Parse(args); err != nil {
		return cfg, errors.Wrap(err, "parse flags")
	}

	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = DefaultDatabaseURL
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if clock, ok := NormalizeClock(cfg.DefaultReminderTime); ok {
		cfg.DefaultReminderTime = clock
	}

	return cfg, cfg.Validate()
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	if _, ok := NormalizeClock(c.DefaultReminderTime); !ok {
		return errors.Errorf("invalid default reminder time %q, expected HH:MM", c.DefaultReminderTime)
	}
	if c.TickInterval <= 0 || c.TickInterval > MaxTickInterval {
		return errors.Errorf("tick interval %s must be positive and at most %s", c.TickInterval, MaxTickInterval)
	}
	if c.PendingTTL <= 0 {
		return errors.Errorf("pending ttl %s must be positive", c.PendingTTL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// NormalizeClock parses "H:M" with 0<=H<24 and 0<=M<60 and returns it as zero padded HH:MM.
func NormalizeClock(raw string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return "", false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// envLookup remembers the first malformed environment override.
type envLookup struct {
	err error
}

func (e *envLookup) value(name string) (string, bool) {
	return os.LookupEnv(strcase.UpperSnakeCase(name))
}

func (e *envLookup) fail(name, raw string, err error) {
	if e.err == nil {
		e.err = errors.Wrapf(err, "parse %s=%q", strcase.UpperSnakeCase(name), raw)
	}
}

func stringVar(fs *flag.FlagSet, env *envLookup, p *string, name, value, usage string) {
	if raw, ok := env.value(name); ok {
		value = raw
	}
	fs.StringVar(p, name, value, usage)
}

func intVar(fs *flag.FlagSet, env *envLookup, p *int, name string, value int, usage string) {
	if raw, ok := env.value(name); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			env.fail(name, raw, err)
		} else {
			value = parsed
		}
	}
	fs.IntVar(p, name, value, usage)
}

func durationVar(fs *flag.FlagSet, env *envLookup, p *time.Duration, name string, value time.Duration, usage string) {
	if raw, ok := env.value(name); ok {
		parsed, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			env.fail(name, raw, err)
		} else {
			value = parsed
		}
	}
	fs.DurationVar(p, name, value, usage)
}
