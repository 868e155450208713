package uptime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// outcome pairs the target snapshot that was probed with its result.
type outcome struct {
	target    Target
	result    ProbeResult
	checkedAt time.Time
}

// ===== Workers, Scheduler, and Internals =====

// scheduler is the only timing authority: load, pick due targets, probe them
// on the bounded pool, write all results back in one batch, sleep until the
// next target is due.
func (c *Checker) scheduler() {
	defer c.wg.Done()
	// in-flight passes are drained, not cancelled, on Stop
	ctx := context.WithoutCancel(c.ctx)
	for {
		wait, err := c.runPass(ctx)
		if err != nil {
			c.logger.Error("Monitor pass failed", zap.Error(err), zap.Duration("retry_in", c.retryDelay))
			wait = c.retryDelay
		}
		c.ilog("Next pass in %v", wait)

		timer := time.NewTimer(wait)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return
		case <-c.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (c *Checker) runPass(ctx context.Context) (time.Duration, error) {
	c.storeMu.Lock()
	targets, err := c.store.Load(ctx)
	c.storeMu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("load targets: %w", err)
	}

	now := c.now()
	due := dueTargets(targets, now)
	if len(due) == 0 {
		return nextWake(targets, now, c.sleepFloor, c.idleCycle), nil
	}
	c.ilog("Dispatching %d of %d sites", len(due), len(targets))

	outcomes := c.probeAll(ctx, due, now)
	saved, err := c.apply(ctx, outcomes, false)
	if err != nil {
		return 0, err
	}
	return nextWake(saved, c.now(), c.sleepFloor, c.idleCycle), nil
}

// dueTargets returns the auto-monitored targets whose interval has elapsed.
func dueTargets(targets []Target, now time.Time) []Target {
	var due []Target
	for _, t := range targets {
		if !t.AutoMonitor {
			continue
		}
		if !now.Before(t.DueAt()) {
			due = append(due, t)
		}
	}
	return due
}

// nextWake is the time until the earliest auto-monitored target is due,
// clamped to [floor, ceiling]. With nothing to monitor it is the ceiling.
func nextWake(targets []Target, now time.Time, floor, ceiling time.Duration) time.Duration {
	wait := ceiling
	for _, t := range targets {
		if !t.AutoMonitor {
			continue
		}
		if d := t.DueAt().Sub(now); d < wait {
			wait = d
		}
	}
	if wait < floor {
		wait = floor
	}
	return wait
}

// probeAll runs one probe per due target with at most numWorkers in flight
// and returns when every probe has finished.
func (c *Checker) probeAll(ctx context.Context, due []Target, now time.Time) []outcome {
	out := make([]outcome, len(due))
	var g errgroup.Group
	g.SetLimit(c.numWorkers)
	for i, t := range due {
		i, t := i, t
		g.Go(func() error {
			c.ilog("Worker picked job for site %s (due at %s)", t.Name, t.DueAt().Format(time.RFC3339))
			out[i] = outcome{target: t, result: c.probeSafely(ctx, t), checkedAt: now}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// probeSafely isolates a panicking probe so it cannot take the pass down.
func (c *Checker) probeSafely(ctx context.Context, t Target) (res ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from panic in probe", zap.String("id", t.ID), zap.String("url", t.URL), zap.Any("panic", r))
			res = ProbeResult{Timestamp: c.now(), Status: StatusDown, Error: fmt.Sprintf("Unknown Error: %v", r)}
		}
	}()
	return c.prober.Probe(ctx, t.URL)
}

// apply writes results back onto the current stored targets in a single
// save, then sends the alerts the transitions produced. Results for targets
// deleted or re-pointed at another URL in the meantime are dropped.
func (c *Checker) apply(ctx context.Context, outcomes []outcome, manual bool) ([]Target, error) {
	var (
		alerts    []pendingAlert
		published []ProbeOutcome
	)
	saved, err := c.mutate(ctx, func(targets []Target) ([]Target, error) {
		for _, o := range outcomes {
			i := indexOf(targets, o.target.ID)
			if i < 0 {
				c.ilog("Site %s removed during check, dropping result", o.target.ID)
				continue
			}
			t := &targets[i]
			if t.URL != o.target.URL {
				c.ilog("Site %s changed URL during check, dropping result", t.ID)
				continue
			}
			Record(t, o.result, c.historyCap)
			t.LastChecked = o.checkedAt
			if a, ok := evaluate(t, o.result); ok {
				alerts = append(alerts, a)
			}
			published = append(published, ProbeOutcome{TargetID: t.ID, Name: t.Name, URL: t.URL, Manual: manual, Result: o.result})
		}
		return targets, nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range published {
		c.log(p)
		c.publish(p)
	}
	for _, a := range alerts {
		c.emit(a)
	}
	return saved, nil
}

func (c *Checker) publish(p ProbeOutcome) {
	select {
	case c.results <- p:
	default:
		c.ilog("Results buffer full, dropping result for %s", p.TargetID)
	}
}

// emit delivers an alert without blocking the caller.
func (c *Checker) emit(a pendingAlert) {
	if c.notifier == nil {
		c.logger.Debug("No notifier configured, alert not sent",
			zap.String("id", a.msg.TargetID), zap.String("kind", string(a.msg.Kind)))
		return
	}
	c.alerts.Add(1)
	go func() {
		defer c.alerts.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Recovered from panic in notifier", zap.String("id", a.msg.TargetID), zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), c.notifyTimeout)
		defer cancel()

		if err := c.notifier.Send(ctx, a.address, a.msg); err != nil {
			c.logger.Warn("Notification failed",
				zap.String("id", a.msg.TargetID),
				zap.String("kind", string(a.msg.Kind)),
				zap.String("address", a.address),
				zap.Error(err))
			return
		}
		c.logger.Info("Notification sent",
			zap.String("id", a.msg.TargetID),
			zap.String("kind", string(a.msg.Kind)),
			zap.String("address", a.address))
	}()
}

func (c *Checker) log(p ProbeOutcome) {
	res := p.Result
	switch c.logLevel {
	case LogNone:
		return
	case LogError:
		if res.Status == StatusDown {
			c.logger.Error("Site DOWN", zap.String("name", p.Name), zap.String("url", p.URL), zap.String("error", res.Error))
		}
	case LogInfo:
		switch res.Status {
		case StatusUp:
			c.logger.Info("Site UP", zap.String("name", p.Name), zap.Int("status_code", res.StatusCode), zap.Int64("elapsed_ms", res.ElapsedMS))
		case StatusHighLatency:
			c.logger.Warn("Site DEGRADED", zap.String("name", p.Name), zap.Int64("elapsed_ms", res.ElapsedMS), zap.String("error", res.Error))
		default:
			c.logger.Warn("Site DOWN", zap.String("name", p.Name), zap.String("url", p.URL), zap.String("error", res.Error))
		}
	case LogDebug:
		c.logger.Debug("Site check", zap.String("name", p.Name), zap.String("url", p.URL), zap.Bool("manual", p.Manual),
			zap.String("status", string(res.Status)), zap.Int("status_code", res.StatusCode),
			zap.Int64("elapsed_ms", res.ElapsedMS), zap.String("error", res.Error))
	}
}

// ===== Internal Logging Helper =====
func (c *Checker) ilog(format string, args ...interface{}) {
	if c.enableInternalLogs {
		c.logger.Info(fmt.Sprintf("[INTERNAL] "+format, args...))
	}
}
