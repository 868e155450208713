package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides fields from UPTIME_* variables. getenv is os.Getenv
// outside tests.
func (c *Config) applyEnv(getenv func(string) string) error {
	e := envReader{getenv: getenv}

	e.str("SERVER_ADDR", &c.Server.Addr)
	e.str("JWT_SECRET", &c.Server.JWTSecret)
	e.duration("SHUTDOWN_GRACE", &c.Server.ShutdownGrace)
	e.str("GIN_MODE", &c.Server.GinMode)

	e.integer("WORKERS", &c.Monitor.Workers)
	e.duration("TIMEOUT", &c.Monitor.Timeout)
	e.duration("DEGRADED_THRESHOLD", &c.Monitor.DegradedThreshold)
	e.integer("MAX_ATTEMPTS", &c.Monitor.MaxAttempts)
	e.duration("RETRY_BACKOFF", &c.Monitor.RetryBackoff)
	e.integer("MAX_REDIRECTS", &c.Monitor.MaxRedirects)
	e.integer("HISTORY_CAP", &c.Monitor.HistoryCap)
	e.integer("DEFAULT_INTERVAL", &c.Monitor.DefaultInterval)
	e.duration("RETRY_DELAY", &c.Monitor.RetryDelay)
	e.duration("SLEEP_FLOOR", &c.Monitor.SleepFloor)
	e.duration("IDLE_CYCLE", &c.Monitor.IdleCycle)
	e.integer("RESULT_BUFFER", &c.Monitor.ResultBuffer)
	e.str("USER_AGENT", &c.Monitor.UserAgent)

	e.str("STORAGE_DRIVER", &c.Storage.Driver)
	e.str("STORAGE_PATH", &c.Storage.Path)
	e.str("STORAGE_DSN", &c.Storage.DSN)

	e.str("BREVO_API_KEY", &c.Notify.Brevo.APIKey)
	e.str("NOTIFY_FROM", &c.Notify.Brevo.From)
	e.str("NOTIFY_FROM_NAME", &c.Notify.Brevo.FromName)
	e.str("BREVO_BASE_URL", &c.Notify.Brevo.BaseURL)
	e.duration("WEBHOOK_TIMEOUT", &c.Notify.WebhookTimeout)
	e.duration("NOTIFY_TIMEOUT", &c.Notify.Timeout)

	e.str("LOG_LEVEL", &c.Logging.Level)
	e.boolean("LOG_CONSOLE", &c.Logging.Console)
	e.list("LOG_FILES", &c.Logging.Files)
	e.boolean("LOG_INTERNAL", &c.Logging.Internal)

	return e.err
}

// envReader records the first malformed value and ignores unset variables.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(e.getenv(envPrefix + key))
	return v, v != ""
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s%s=%q: %w", envPrefix, key, value, err)
	}
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = Duration(d)
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.lookup(key); ok {
		var out []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
