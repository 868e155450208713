package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Monitor MonitorConfig `yaml:"monitor"`
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	Logging LoggingConfig `yaml:"logging"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type ServerConfig struct {
	Addr          string   `yaml:"addr"`
	JWTSecret     string   `yaml:"jwt_secret"`
	ShutdownGrace Duration `yaml:"shutdown_grace"`
	GinMode       string   `yaml:"gin_mode"`
}

var DefaultServerConfig = ServerConfig{
	Addr:          ":8080",
	ShutdownGrace: Duration(30 * time.Second),
	GinMode:       "release",
}

type MonitorConfig struct {
	Workers           int      `yaml:"workers"`
	Timeout           Duration `yaml:"timeout"`
	DegradedThreshold Duration `yaml:"degraded_threshold"`
	MaxAttempts       int      `yaml:"max_attempts"`
	RetryBackoff      Duration `yaml:"retry_backoff"`
	MaxRedirects      int      `yaml:"max_redirects"`
	HistoryCap        int      `yaml:"history_cap"`
	DefaultInterval   int      `yaml:"default_interval"` // seconds
	RetryDelay        Duration `yaml:"retry_delay"`
	SleepFloor        Duration `yaml:"sleep_floor"`
	IdleCycle         Duration `yaml:"idle_cycle"`
	UserAgent         string   `yaml:"user_agent"`
	ResultBuffer      int      `yaml:"result_buffer"`
}

var DefaultMonitorConfig = MonitorConfig{
	Workers:           10,
	Timeout:           Duration(15 * time.Second),
	DegradedThreshold: Duration(3 * time.Second),
	MaxAttempts:       2,
	RetryBackoff:      Duration(500 * time.Millisecond),
	MaxRedirects:      10,
	HistoryCap:        500,
	DefaultInterval:   30,
	RetryDelay:        Duration(5 * time.Second),
	SleepFloor:        Duration(time.Second),
	IdleCycle:         Duration(30 * time.Second),
	UserAgent:         "Mozilla/5.0 (compatible; WebMonitor/1.0)",
	ResultBuffer:      1000,
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // memory, json, sqlite or postgres
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

var DefaultStorageConfig = StorageConfig{
	Driver: DriverJSON,
	Path:   "data/websites.json",
}

type NotifyConfig struct {
	Timeout        Duration    `yaml:"timeout"`
	WebhookTimeout Duration    `yaml:"webhook_timeout"`
	Brevo          BrevoConfig `yaml:"brevo"`
}

type BrevoConfig struct {
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	BaseURL  string `yaml:"base_url"`
}

var DefaultNotifyConfig = NotifyConfig{
	Timeout:        Duration(10 * time.Second),
	WebhookTimeout: Duration(10 * time.Second),
	Brevo: BrevoConfig{
		FromName: "Uptime Monitor",
	},
}

type LoggingConfig struct {
	Level    string   `yaml:"level"` // none, error, info or debug
	Console  bool     `yaml:"console"`
	Files    []string `yaml:"files"`
	Internal bool     `yaml:"internal"`
}

var DefaultLoggingConfig = LoggingConfig{
	Level:   "info",
	Console: true,
}
