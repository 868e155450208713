// Package uptime implements the monitoring engine behind the Checker public API.
package uptime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Named tunables. Options override them per Checker.
const (
	DefaultIntervalSeconds   = 30
	DefaultInterval          = DefaultIntervalSeconds * time.Second
	DefaultHistoryCap        = 500
	DefaultDegradedThreshold = 3000 * time.Millisecond
	DefaultTimeout           = 15 * time.Second
	DefaultMaxAttempts       = 2
	DefaultRetryBackoff      = 500 * time.Millisecond
	DefaultMaxRedirects      = 10
	DefaultWorkers           = 10
	DefaultRetryDelay        = 5 * time.Second
	DefaultSleepFloor        = 1 * time.Second
	DefaultIdleCycle         = 30 * time.Second
	DefaultNotifyTimeout     = 10 * time.Second
	DefaultUserAgent         = "Mozilla/5.0 (compatible; WebMonitor/1.0)"
)

var (
	ErrNotFound        = errors.New("target not found")
	ErrCheckInProgress = errors.New("check already running")
	ErrInvalidTarget   = errors.New("invalid target")
)

type Checker struct {
	numWorkers      int
	timeout         time.Duration
	degraded        time.Duration
	retry           RetryPolicy
	maxRedirects    int
	userAgent       string
	historyCap      int
	defaultInterval int
	retryDelay      time.Duration
	sleepFloor      time.Duration
	idleCycle       time.Duration
	notifyTimeout   time.Duration
	logLevel        LogLevel

	enableInternalLogs bool
	logger             *zap.Logger
	loggerExplicit     bool // set when WithLogger/WithZapLogger used

	// logging configuration accumulated by options
	logConsoleOpt *bool
	logFilesOpt   []string
	logDisableOpt bool

	prober   *Prober
	store    Store
	notifier Notifier
	gate     *Gate
	now      func() time.Time

	// storeMu serialises every load and load-modify-save; it is never held
	// across a probe.
	storeMu sync.Mutex

	results chan ProbeOutcome
	wake    chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	alerts    sync.WaitGroup
}

// ===== Constructor =====
func New(opts ...Option) *Checker {
	c := &Checker{
		numWorkers:      DefaultWorkers,
		timeout:         DefaultTimeout,
		degraded:        DefaultDegradedThreshold,
		retry:           RetryPolicy{MaxAttempts: DefaultMaxAttempts, Backoff: DefaultRetryBackoff},
		maxRedirects:    DefaultMaxRedirects,
		userAgent:       DefaultUserAgent,
		historyCap:      DefaultHistoryCap,
		defaultInterval: DefaultIntervalSeconds,
		retryDelay:      DefaultRetryDelay,
		sleepFloor:      DefaultSleepFloor,
		idleCycle:       DefaultIdleCycle,
		notifyTimeout:   DefaultNotifyTimeout,
		logLevel:        LogInfo,
		results:         make(chan ProbeOutcome, 1000),
		wake:            make(chan struct{}, 1),
		gate:            NewGate(),
		now:             time.Now,
		logger:          nil, // build after applying options
	}
	for _, opt := range opts {
		opt(c)
	}
	// Build logger after options applied unless explicitly provided
	if !c.loggerExplicit {
		c.logger = c.buildLoggerFromConfig()
	}
	// Safety fallback
	if c.logger == nil {
		c.logger = defaultConsoleLogger()
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	if c.numWorkers < 1 {
		c.numWorkers = 1
	}
	if c.sleepFloor > c.idleCycle {
		c.idleCycle = c.sleepFloor
	}
	c.prober = NewProber(c.timeout, c.degraded, c.retry, c.maxRedirects, c.userAgent)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

func defaultConsoleLogger() *zap.Logger {
	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func (c *Checker) buildLoggerFromConfig() *zap.Logger {
	// If disabled explicitly
	if c.logDisableOpt {
		return zap.NewNop()
	}

	// Determine console default: true unless explicitly set to false
	console := true
	if c.logConsoleOpt != nil {
		console = *c.logConsoleOpt
	}

	// Build output paths
	var paths []string
	seen := map[string]struct{}{}
	if console {
		paths = append(paths, "stdout")
		seen["stdout"] = struct{}{}
	}
	for _, f := range c.logFilesOpt {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		paths = append(paths, f)
	}

	if len(paths) == 0 {
		// No outputs selected: default to console
		return defaultConsoleLogger()
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = paths
	if c.logLevel == LogDebug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// ===== Public API =====

// Start launches the scheduler loop. Calling it more than once, or after
// Stop, has no effect.
func (c *Checker) Start() {
	c.startOnce.Do(func() {
		if c.ctx.Err() != nil {
			return
		}
		c.wg.Add(1)
		go c.scheduler()
		c.ilog("Scheduler started with %d workers", c.numWorkers)
	})
}

// Stop ends the scheduler loop. The pass in progress and any outstanding
// notifications are allowed to finish.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
		c.alerts.Wait()
		c.ilog("Checker stopped")
		_ = c.logger.Sync()
	})
}

// Results streams every applied probe result. Results are dropped when the
// buffer is full; the channel is never closed.
func (c *Checker) Results() <-chan ProbeOutcome { return c.results }

// List returns all targets in store order.
func (c *Checker) List(ctx context.Context) ([]Target, error) {
	c.storeMu.Lock()
	targets, err := c.store.Load(ctx)
	c.storeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	out := make([]Target, len(targets))
	for i, t := range targets {
		out[i] = t.Clone()
	}
	return out, nil
}

// Get returns a single target.
func (c *Checker) Get(ctx context.Context, id string) (Target, error) {
	targets, err := c.List(ctx)
	if err != nil {
		return Target{}, err
	}
	if i := indexOf(targets, id); i >= 0 {
		return targets[i], nil
	}
	return Target{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create registers a new target and probes it once before returning.
func (c *Checker) Create(ctx context.Context, spec TargetSpec) (Target, error) {
	ctx = context.WithoutCancel(ctx)
	t, err := c.newTarget(spec)
	if err != nil {
		return Target{}, err
	}
	if _, err := c.mutate(ctx, func(targets []Target) ([]Target, error) {
		return append(targets, t), nil
	}); err != nil {
		return Target{}, err
	}
	c.ilog("Registered site: %s (%s)", t.Name, t.URL)

	out, err := c.checkOnce(ctx, t, true)
	c.signalWake()
	if errors.Is(err, ErrNotFound) {
		// deleted while the first probe was running
		return t, nil
	}
	return out, err
}

// CreateBulk registers several targets, probing each once.
func (c *Checker) CreateBulk(ctx context.Context, specs []TargetSpec) ([]Target, error) {
	out := make([]Target, 0, len(specs))
	for i, spec := range specs {
		t, err := c.Create(ctx, spec)
		if err != nil {
			return out, fmt.Errorf("site %d: %w", i, err)
		}
		out = append(out, t)
	}
	c.ilog("Registered %d sites", len(out))
	return out, nil
}

// Update changes the fields set in patch. Monitoring state is kept.
func (c *Checker) Update(ctx context.Context, id string, patch TargetPatch) (Target, error) {
	if err := patch.validate(); err != nil {
		return Target{}, err
	}
	var out Target
	if _, err := c.mutate(ctx, func(targets []Target) ([]Target, error) {
		i := indexOf(targets, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		patch.apply(&targets[i])
		out = targets[i].Clone()
		return targets, nil
	}); err != nil {
		return Target{}, err
	}
	c.signalWake()
	return out, nil
}

// Delete removes a target. It is the only way a target leaves the set.
func (c *Checker) Delete(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, func(targets []Target) ([]Target, error) {
		i := indexOf(targets, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return append(targets[:i], targets[i+1:]...), nil
	})
	if err == nil {
		c.ilog("Deleted site %s", id)
	}
	return err
}

// Check runs one manual probe. It fails fast with ErrCheckInProgress when a
// manual check of the same target is already running. A scheduled probe of
// the same target may still run concurrently.
func (c *Checker) Check(ctx context.Context, id string) (Target, error) {
	if !c.gate.TryAcquire(id) {
		return Target{}, ErrCheckInProgress
	}
	defer c.gate.Release(id)

	ctx = context.WithoutCancel(ctx)
	t, err := c.Get(ctx, id)
	if err != nil {
		return Target{}, err
	}
	return c.checkOnce(ctx, t, true)
}

// History returns the newest limit entries, oldest first. limit <= 0 means all.
func (c *Checker) History(ctx context.Context, id string, limit int) ([]HistoryEntry, error) {
	t, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(t.History) > limit {
		return t.History[len(t.History)-limit:], nil
	}
	return t.History, nil
}

// ===== Internals =====

func (c *Checker) newTarget(spec TargetSpec) (Target, error) {
	u := strings.TrimSpace(spec.URL)
	if u == "" {
		return Target{}, fmt.Errorf("%w: url is required", ErrInvalidTarget)
	}
	interval := spec.Interval
	if interval == 0 {
		interval = c.defaultInterval
	}
	if interval < 1 {
		return Target{}, fmt.Errorf("%w: interval must be at least 1 second", ErrInvalidTarget)
	}
	auto := true
	if spec.AutoMonitor != nil {
		auto = *spec.AutoMonitor
	}
	now := c.now()
	// LastChecked is set up front so the scheduler leaves the target alone
	// until its creation probe has been applied.
	return Target{
		ID:                 uuid.NewString(),
		URL:                u,
		Name:               strings.TrimSpace(spec.Name),
		Interval:           interval,
		AutoMonitor:        auto,
		Notifications:      spec.Notifications,
		Status:             StatusUnknown,
		LastNotifiedStatus: StatusUnknown,
		Uptime:             100,
		LastChecked:        now,
		History:            []HistoryEntry{},
		CreatedAt:          now,
	}, nil
}

func (p TargetPatch) validate() error {
	if p.URL != nil && strings.TrimSpace(*p.URL) == "" {
		return fmt.Errorf("%w: url cannot be empty", ErrInvalidTarget)
	}
	if p.Interval != nil && *p.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1 second", ErrInvalidTarget)
	}
	return nil
}

func (p TargetPatch) apply(t *Target) {
	if p.URL != nil {
		t.URL = strings.TrimSpace(*p.URL)
	}
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Interval != nil {
		t.Interval = *p.Interval
	}
	if p.AutoMonitor != nil {
		t.AutoMonitor = *p.AutoMonitor
	}
	if p.NotificationsEnabled != nil {
		t.Notifications.Enabled = *p.NotificationsEnabled
	}
	if p.NotifyAddress != nil {
		t.Notifications.Address = strings.TrimSpace(*p.NotifyAddress)
	}
}

// checkOnce probes t outside the store lock and applies the result.
func (c *Checker) checkOnce(ctx context.Context, t Target, manual bool) (Target, error) {
	checkedAt := c.now()
	res := c.probeSafely(ctx, t)
	saved, err := c.apply(ctx, []outcome{{target: t, result: res, checkedAt: checkedAt}}, manual)
	if err != nil {
		return Target{}, err
	}
	if i := indexOf(saved, t.ID); i >= 0 {
		return saved[i].Clone(), nil
	}
	return Target{}, fmt.Errorf("%w: %s", ErrNotFound, t.ID)
}

// mutate runs fn on the current target set and saves the result, all under
// the store lock.
func (c *Checker) mutate(ctx context.Context, fn func([]Target) ([]Target, error)) ([]Target, error) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	targets, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	targets, err = fn(targets)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, targets); err != nil {
		return nil, fmt.Errorf("save targets: %w", err)
	}
	return targets, nil
}

func (c *Checker) signalWake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func indexOf(targets []Target, id string) int {
	for i := range targets {
		if targets[i].ID == id {
			return i
		}
	}
	return -1
}
