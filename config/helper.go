package config

import (
	"strings"

	"go.uber.org/zap"

	"github.com/amartya2002/uptime-monitor/uptime"
)

var logLevels = map[string]uptime.LogLevel{
	"none":  uptime.LogNone,
	"error": uptime.LogError,
	"info":  uptime.LogInfo,
	"debug": uptime.LogDebug,
}

// LogLevel returns the per-result log level. Unknown names mean info.
func (l LoggingConfig) LogLevel() uptime.LogLevel {
	if lvl, ok := logLevels[strings.ToLower(l.Level)]; ok {
		return lvl
	}
	return uptime.LogInfo
}

// Build returns the process logger: a zap production logger writing to
// stdout and/or the configured files, or a no-op logger when there is
// nowhere to write.
func (l LoggingConfig) Build() (*zap.Logger, error) {
	var paths []string
	if l.Console {
		paths = append(paths, "stdout")
	}
	paths = append(paths, l.Files...)
	if len(paths) == 0 {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = paths
	if l.LogLevel() == uptime.LogDebug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// CheckerOptions translates the monitor and logging sections into Checker
// options. Logger, store and notifier are wired by the caller.
func (c *Config) CheckerOptions() []uptime.Option {
	m := c.Monitor
	opts := []uptime.Option{
		uptime.WithWorkers(m.Workers),
		uptime.WithTimeout(m.Timeout.Std()),
		uptime.WithDegradedThreshold(m.DegradedThreshold.Std()),
		uptime.WithRetryPolicy(uptime.RetryPolicy{MaxAttempts: m.MaxAttempts, Backoff: m.RetryBackoff.Std()}),
		uptime.WithMaxRedirects(m.MaxRedirects),
		uptime.WithHistoryCap(m.HistoryCap),
		uptime.WithDefaultInterval(m.DefaultInterval),
		uptime.WithRetryDelay(m.RetryDelay.Std()),
		uptime.WithSleepBounds(m.SleepFloor.Std(), m.IdleCycle.Std()),
		uptime.WithUserAgent(m.UserAgent),
		uptime.WithResultBuffer(m.ResultBuffer),
		uptime.WithNotifyTimeout(c.Notify.Timeout.Std()),
		uptime.WithLogLevel(c.Logging.LogLevel()),
		uptime.WithInternalLogs(c.Logging.Internal),
	}
	return opts
}
