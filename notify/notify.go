// Package notify provides the alert sinks the Checker hands transition
// messages to.
package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/amartya2002/uptime-monitor/uptime"
)

var ErrNoRoute = errors.New("no notifier for address")

// Log writes alerts to a zap logger. It is the sink of last resort.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, address string, msg uptime.Message) error {
	fields := []zap.Field{
		zap.String("id", msg.TargetID),
		zap.String("url", msg.URL),
		zap.String("address", address),
		zap.String("reason", msg.Reason),
		zap.Int("status_code", msg.StatusCode),
		zap.Float64("uptime", msg.Uptime),
	}
	if msg.Kind == uptime.AlertDown {
		l.logger.Warn(msg.Subject(), fields...)
	} else {
		l.logger.Info(msg.Subject(), fields...)
	}
	return nil
}

// Router picks a sink by the shape of the address: e-mail addresses go to
// Email, http(s) URLs to Webhook, anything else to Fallback.
type Router struct {
	Email    uptime.Notifier
	Webhook  uptime.Notifier
	Fallback uptime.Notifier
}

func (r Router) Send(ctx context.Context, address string, msg uptime.Message) error {
	n := r.route(address)
	if n == nil {
		return ErrNoRoute
	}
	return n.Send(ctx, address, msg)
}

func (r Router) route(address string) uptime.Notifier {
	a := strings.ToLower(strings.TrimSpace(address))
	switch {
	case strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://"):
		if r.Webhook != nil {
			return r.Webhook
		}
	case strings.Contains(a, "@"):
		if r.Email != nil {
			return r.Email
		}
	}
	return r.Fallback
}
