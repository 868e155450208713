package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Validator interface {
	validateServerConfig() error
	validateMonitorConfig() error
	validateStorageConfig() error
	validateNotifyConfig() error
	validateLoggingConfig() error
}

func validateConfig(config Validator) error {
	for _, validate := range []func() error{
		config.validateServerConfig,
		config.validateMonitorConfig,
		config.validateStorageConfig,
		config.validateNotifyConfig,
		config.validateLoggingConfig,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServerConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf(fmtErrEmptyConfigOption, "server.addr")
	}

	if c.Server.ShutdownGrace <= 0 {
		return fmt.Errorf(fmtErrPositiveOption, "server.shutdown_grace")
	}

	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf(fmtErrInvalidOption, "server.gin_mode", c.Server.GinMode)
	}

	return nil
}

func (c *Config) validateMonitorConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	m := c.Monitor
	positive := []struct {
		name string
		ok   bool
	}{
		{"monitor.workers", m.Workers > 0},
		{"monitor.timeout", m.Timeout > 0},
		{"monitor.degraded_threshold", m.DegradedThreshold > 0},
		{"monitor.max_attempts", m.MaxAttempts > 0},
		{"monitor.max_redirects", m.MaxRedirects > 0},
		{"monitor.history_cap", m.HistoryCap > 0},
		{"monitor.default_interval", m.DefaultInterval > 0},
		{"monitor.retry_delay", m.RetryDelay > 0},
		{"monitor.sleep_floor", m.SleepFloor > 0},
		{"monitor.idle_cycle", m.IdleCycle > 0},
		{"monitor.result_buffer", m.ResultBuffer > 0},
	}
	for _, p := range positive {
		if !p.ok {
			return fmt.Errorf(fmtErrPositiveOption, p.name)
		}
	}

	if m.RetryBackoff < 0 {
		return errors.New("monitor.retry_backoff cannot be negative")
	}

	if m.SleepFloor > m.IdleCycle {
		return errors.New("monitor.sleep_floor cannot exceed monitor.idle_cycle")
	}

	return nil
}

func (c *Config) validateStorageConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverJSON, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf(fmtErrEmptyConfigOption, "storage.path")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf(fmtErrEmptyConfigOption, "storage.dsn")
		}
	default:
		return fmt.Errorf(fmtErrInvalidOption, "storage.driver", c.Storage.Driver)
	}

	return nil
}

func (c *Config) validateNotifyConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	if c.Notify.Timeout <= 0 {
		return fmt.Errorf(fmtErrPositiveOption, "notify.timeout")
	}

	if c.Notify.WebhookTimeout <= 0 {
		return fmt.Errorf(fmtErrPositiveOption, "notify.webhook_timeout")
	}

	b := c.Notify.Brevo
	if b.APIKey != "" && !strings.Contains(b.From, "@") {
		return fmt.Errorf(fmtErrInvalidOption, "notify.brevo.from", b.From)
	}

	if b.BaseURL != "" {
		if u, err := url.Parse(b.BaseURL); err != nil || u.Host == "" {
			return fmt.Errorf(fmtErrInvalidOption, "notify.brevo.base_url", b.BaseURL)
		}
	}

	return nil
}

func (c *Config) validateLoggingConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	if _, ok := logLevels[strings.ToLower(c.Logging.Level)]; !ok {
		return fmt.Errorf(fmtErrInvalidOption, "logging.level", c.Logging.Level)
	}

	return nil
}
