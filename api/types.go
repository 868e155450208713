package api

import (
	"context"

	"github.com/amartya2002/uptime-monitor/uptime"
)

// Engine is the part of *uptime.Checker the HTTP layer drives.
type Engine interface {
	List(ctx context.Context) ([]uptime.Target, error)
	Get(ctx context.Context, id string) (uptime.Target, error)
	Create(ctx context.Context, spec uptime.TargetSpec) (uptime.Target, error)
	CreateBulk(ctx context.Context, specs []uptime.TargetSpec) ([]uptime.Target, error)
	Update(ctx context.Context, id string, patch uptime.TargetPatch) (uptime.Target, error)
	Delete(ctx context.Context, id string) error
	Check(ctx context.Context, id string) (uptime.Target, error)
	History(ctx context.Context, id string, limit int) ([]uptime.HistoryEntry, error)
}

type Site struct {
	URL           string                `json:"url" binding:"required"`
	Name          string                `json:"name"`
	Interval      int                   `json:"interval" binding:"omitempty,min=1"`
	AutoMonitor   *bool                 `json:"auto_monitor"`
	Notifications *NotificationSettings `json:"notifications"`
}

type NotificationSettings struct {
	Enabled *bool   `json:"enabled"`
	Address *string `json:"address"`
}

type SiteUpdate struct {
	URL           *string               `json:"url"`
	Name          *string               `json:"name"`
	Interval      *int                  `json:"interval" binding:"omitempty,min=1"`
	AutoMonitor   *bool                 `json:"auto_monitor"`
	Notifications *NotificationSettings `json:"notifications"`
}

type SiteLogResponse struct {
	Site uptime.Target         `json:"site"`
	Logs []uptime.HistoryEntry `json:"logs"`
}

func (s Site) spec() uptime.TargetSpec {
	spec := uptime.TargetSpec{
		URL:         s.URL,
		Name:        s.Name,
		Interval:    s.Interval,
		AutoMonitor: s.AutoMonitor,
	}
	if n := s.Notifications; n != nil {
		if n.Enabled != nil {
			spec.Notifications.Enabled = *n.Enabled
		}
		if n.Address != nil {
			spec.Notifications.Address = *n.Address
		}
	}
	return spec
}

func (u SiteUpdate) patch() uptime.TargetPatch {
	p := uptime.TargetPatch{
		URL:         u.URL,
		Name:        u.Name,
		Interval:    u.Interval,
		AutoMonitor: u.AutoMonitor,
	}
	if n := u.Notifications; n != nil {
		p.NotificationsEnabled = n.Enabled
		p.NotifyAddress = n.Address
	}
	return p
}
