package config

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

type mockConfig struct {
	serverErr, monitorErr, storageErr, notifyErr, loggingErr error
}

func (m *mockConfig) validateServerConfig() error  { return m.serverErr }
func (m *mockConfig) validateMonitorConfig() error { return m.monitorErr }
func (m *mockConfig) validateStorageConfig() error { return m.storageErr }
func (m *mockConfig) validateNotifyConfig() error  { return m.notifyErr }
func (m *mockConfig) validateLoggingConfig() error { return m.loggingErr }

func TestValidateConfig(t *testing.T) {
	fail := fmt.Errorf("validation failed")
	tests := []struct {
		name      string
		config    Validator
		expectErr bool
	}{
		{"success", &mockConfig{}, false},
		{"server error", &mockConfig{serverErr: fail}, true},
		{"monitor error", &mockConfig{monitorErr: fail}, true},
		{"storage error", &mockConfig{storageErr: fail}, true},
		{"notify error", &mockConfig{notifyErr: fail}, true},
		{"logging error", &mockConfig{loggingErr: fail}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := validateConfig(test.config)
			if (result != nil) != test.expectErr {
				t.Errorf("Expected error: %v, got: %v", test.expectErr, result)
			}
		})
	}
}

func checkError(t *testing.T, result error, expected string) {
	t.Helper()
	if expected == "" {
		if result != nil {
			t.Errorf("Expected no error, got '%v'", result)
		}
		return
	}
	if result == nil {
		t.Errorf("Expected error containing %q, got nil", expected)
	} else if !strings.Contains(result.Error(), expected) {
		t.Errorf("Expected error containing %q, got %v", expected, result)
	}
}

func withServer(f func(*ServerConfig)) *Config {
	c := Default()
	f(&c.Server)
	return c
}

func withMonitor(f func(*MonitorConfig)) *Config {
	c := Default()
	f(&c.Monitor)
	return c
}

func withStorage(f func(*StorageConfig)) *Config {
	c := Default()
	f(&c.Storage)
	return c
}

func TestValidateServerConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{"default config", Default(), ""},
		{"empty config", nil, fmt.Sprintf(fmtErrEmptyConfig, "config")},
		{"empty addr", withServer(func(s *ServerConfig) { s.Addr = "" }), fmt.Sprintf(fmtErrEmptyConfigOption, "server.addr")},
		{"zero grace", withServer(func(s *ServerConfig) { s.ShutdownGrace = 0 }), fmt.Sprintf(fmtErrPositiveOption, "server.shutdown_grace")},
		{"bad gin mode", withServer(func(s *ServerConfig) { s.GinMode = "loud" }), fmt.Sprintf(fmtErrInvalidOption, "server.gin_mode", "loud")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			checkError(t, test.config.validateServerConfig(), test.expected)
		})
	}
}

func TestValidateMonitorConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{"default config", Default(), ""},
		{"empty config", nil, fmt.Sprintf(fmtErrEmptyConfig, "config")},
		{"zero workers", withMonitor(func(m *MonitorConfig) { m.Workers = 0 }), fmt.Sprintf(fmtErrPositiveOption, "monitor.workers")},
		{"zero timeout", withMonitor(func(m *MonitorConfig) { m.Timeout = 0 }), fmt.Sprintf(fmtErrPositiveOption, "monitor.timeout")},
		{"zero attempts", withMonitor(func(m *MonitorConfig) { m.MaxAttempts = 0 }), fmt.Sprintf(fmtErrPositiveOption, "monitor.max_attempts")},
		{"zero history", withMonitor(func(m *MonitorConfig) { m.HistoryCap = 0 }), fmt.Sprintf(fmtErrPositiveOption, "monitor.history_cap")},
		{"zero interval", withMonitor(func(m *MonitorConfig) { m.DefaultInterval = 0 }), fmt.Sprintf(fmtErrPositiveOption, "monitor.default_interval")},
		{"negative backoff", withMonitor(func(m *MonitorConfig) { m.RetryBackoff = Duration(-time.Second) }), "monitor.retry_backoff cannot be negative"},
		{"zero backoff", withMonitor(func(m *MonitorConfig) { m.RetryBackoff = 0 }), ""},
		{"floor above ceiling", withMonitor(func(m *MonitorConfig) { m.SleepFloor = Duration(time.Minute) }), "monitor.sleep_floor cannot exceed monitor.idle_cycle"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			checkError(t, test.config.validateMonitorConfig(), test.expected)
		})
	}
}

func TestValidateStorageConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{"default config", Default(), ""},
		{"memory needs nothing", withStorage(func(s *StorageConfig) { *s = StorageConfig{Driver: DriverMemory} }), ""},
		{"json without path", withStorage(func(s *StorageConfig) { s.Path = "" }), fmt.Sprintf(fmtErrEmptyConfigOption, "storage.path")},
		{"sqlite without path", withStorage(func(s *StorageConfig) { *s = StorageConfig{Driver: DriverSQLite} }), fmt.Sprintf(fmtErrEmptyConfigOption, "storage.path")},
		{"postgres without dsn", withStorage(func(s *StorageConfig) { *s = StorageConfig{Driver: DriverPostgres} }), fmt.Sprintf(fmtErrEmptyConfigOption, "storage.dsn")},
		{"postgres with dsn", withStorage(func(s *StorageConfig) { *s = StorageConfig{Driver: DriverPostgres, DSN: "postgres://localhost/uptime"} }), ""},
		{"unknown driver", withStorage(func(s *StorageConfig) { s.Driver = "redis" }), fmt.Sprintf(fmtErrInvalidOption, "storage.driver", "redis")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			checkError(t, test.config.validateStorageConfig(), test.expected)
		})
	}
}

func TestValidateNotifyAndLoggingConfig(t *testing.T) {
	c := Default()
	c.Notify.Brevo.APIKey = "key"
	checkError(t, c.validateNotifyConfig(), fmt.Sprintf(fmtErrInvalidOption, "notify.brevo.from", ""))
	c.Notify.Brevo.From = "monitor@example.com"
	checkError(t, c.validateNotifyConfig(), "")
	c.Notify.Brevo.BaseURL = "not a url"
	checkError(t, c.validateNotifyConfig(), "notify.brevo.base_url")

	c = Default()
	c.Logging.Level = "DEBUG"
	checkError(t, c.validateLoggingConfig(), "")
	c.Logging.Level = "verbose"
	checkError(t, c.validateLoggingConfig(), fmt.Sprintf(fmtErrInvalidOption, "logging.level", "verbose"))
}
