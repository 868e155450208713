// Package uptime exposes configuration options for the Checker via a
// functional options API.
package uptime

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ===== Options Pattern =====
type Option func(*Checker)

// WithWorkers bounds how many probes a scheduler pass runs at once.
func WithWorkers(n int) Option {
	return func(c *Checker) { c.numWorkers = n }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogLevel(level LogLevel) Option {
	return func(c *Checker) { c.logLevel = level }
}

func WithResultBuffer(size int) Option {
	return func(c *Checker) { c.results = make(chan ProbeOutcome, size) }
}

// enable/disable internal logs
func WithInternalLogs(enabled bool) Option {
	return func(c *Checker) { c.enableInternalLogs = enabled }
}

// WithZapLogger sets up a zap logger. If filePath is empty, logs to console.
func WithZapLogger(filePath string) Option {
	return func(c *Checker) {
		var err error
		if filePath != "" {
			cfg := zap.NewProductionConfig()
			cfg.OutputPaths = []string{"stdout", filePath}
			c.logger, err = cfg.Build()
		} else {
			c.logger, err = zap.NewProduction(zap.AddCallerSkip(1))
		}
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize Zap logger: %v", err))
		}
		c.loggerExplicit = true
	}
}

// WithLogger allows injecting a custom zap logger (useful in tests).
func WithLogger(l *zap.Logger) Option {
	return func(c *Checker) {
		c.logger = l
		c.loggerExplicit = l != nil
	}
}

// LogConsole toggles the stdout sink of the built-in logger.
func LogConsole(enabled bool) Option {
	return func(c *Checker) { c.logConsoleOpt = &enabled }
}

// LogFile adds a file sink to the built-in logger. Repeatable.
func LogFile(path string) Option {
	return func(c *Checker) { c.logFilesOpt = append(c.logFilesOpt, path) }
}

// DisableLogs turns the built-in logger into a no-op.
func DisableLogs() Option {
	return func(c *Checker) { c.logDisableOpt = true }
}

// WithHistoryCap sets the max number of history entries kept per target.
func WithHistoryCap(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.historyCap = n
		}
	}
}

// WithStore sets where targets are loaded from and saved to.
func WithStore(s Store) Option {
	return func(c *Checker) { c.store = s }
}

// WithNotifier sets the sink for down/recovered alerts.
func WithNotifier(n Notifier) Option {
	return func(c *Checker) { c.notifier = n }
}

// WithDegradedThreshold sets the response time above which a successful
// probe is reported as high_latency.
func WithDegradedThreshold(d time.Duration) Option {
	return func(c *Checker) { c.degraded = d }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Checker) { c.retry = p }
}

func WithMaxRedirects(n int) Option {
	return func(c *Checker) { c.maxRedirects = n }
}

func WithUserAgent(ua string) Option {
	return func(c *Checker) { c.userAgent = ua }
}

// WithDefaultInterval sets the interval, in seconds, given to targets
// created without one.
func WithDefaultInterval(seconds int) Option {
	return func(c *Checker) {
		if seconds > 0 {
			c.defaultInterval = seconds
		}
	}
}

// WithRetryDelay sets how long the scheduler waits after a failed pass.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithSleepBounds clamps the scheduler's sleep between passes. ceiling is
// also the cycle length when nothing is auto-monitored.
func WithSleepBounds(floor, ceiling time.Duration) Option {
	return func(c *Checker) {
		if floor > 0 {
			c.sleepFloor = floor
		}
		if ceiling > 0 {
			c.idleCycle = ceiling
		}
	}
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.notifyTimeout = d
		}
	}
}

// WithClock replaces time.Now for scheduling decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		if now != nil {
			c.now = now
		}
	}
}
