package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"wanwatch/internal/config"
	"wanwatch/internal/notify"
	"wanwatch/internal/report"
	"wanwatch/internal/types"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// shutdownTimeout bounds the stop notification once the run context is gone
const shutdownTimeout = 10 * time.Second

// AddressResolver determines the external address
type AddressResolver interface {
	Resolve(ctx context.Context) (types.Address, error)
}

// LocationEnricher looks up geolocation metadata; it never fails
type LocationEnricher interface {
	Enrich(ctx context.Context, addr types.Address) types.Location
}

// State is the last successfully resolved address. It lives only as
// long as the Monitor.
type State struct {
	Address types.Address
	Known   bool
}

// CheckResult describes one check cycle
type CheckResult struct {
	Resolved bool
	Address  types.Address
	Changed  bool
	Notified bool
}

// FaultError is a panic recovered from a check cycle
type FaultError struct {
	Value any
	Stack []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("check cycle panicked: %v", e.Value)
}

// Monitor polls the external address and reports changes
type Monitor struct {
	config    *config.MonitorConfig
	resolver  AddressResolver
	enricher  LocationEnricher
	notifier  notify.Notifier
	formatter *report.Formatter
	logger    *zap.Logger

	interval     time.Duration
	faultBackoff time.Duration
	state        State
}

// NewMonitor creates a new Monitor instance
func NewMonitor(
	cfg *config.MonitorConfig,
	resolver AddressResolver,
	enricher LocationEnricher,
	notifier notify.Notifier,
	formatter *report.Formatter,
	logger *zap.Logger,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		config:       cfg,
		resolver:     resolver,
		enricher:     enricher,
		notifier:     notifier,
		formatter:    formatter,
		logger:       logger.Named("monitor"),
		interval:     cfg.Interval(),
		faultBackoff: cfg.FaultBackoff,
	}
}

// State returns the last recorded address
func (m *Monitor) State() State {
	return m.state
}

// Run executes the monitor until ctx is cancelled, or for a single check
// in once mode. Cancellation is observed only while waiting between
// checks; a check in flight always completes.
func (m *Monitor) Run(ctx context.Context) error {
	if m.config.Mode == types.RunModeOnce {
		m.logger.Info("Running single check")
		if _, err := m.safeCheck(ctx); err != nil {
			m.logFault(err)
			return err
		}
		return nil
	}

	m.logger.Info("Starting network monitor",
		zap.String("id", m.config.ID),
		zap.Duration("interval", m.interval))

	// Notifications must not be cut short by an interrupt
	sendCtx := context.WithoutCancel(ctx)

	m.send(sendCtx, "startup", func() (string, error) {
		return m.formatter.Startup(m.interval, m.config.Mode, m.config.Hostname, m.config.ID)
	})

	// A crashed cycle is retried after the fault backoff rather than the
	// check interval; the wait ends early on interrupt.
	b := backoff.WithContext(backoff.NewConstantBackOff(m.faultBackoff), ctx)

	for {
		err := backoff.RetryNotify(func() error {
			_, err := m.safeCheck(ctx)
			if err != nil {
				m.logFault(err)
			}
			return err
		}, b, func(err error, delay time.Duration) {
			m.send(sendCtx, "fault", func() (string, error) {
				return m.formatter.Fault(err, delay)
			})
		})

		// RetryNotify only gives up once ctx is done
		if err != nil || !sleep(ctx, m.interval) {
			m.shutdown(ctx)
			return nil
		}
	}
}

// Check performs one check cycle: resolve, compare, and report when the
// address is new or changed. The recorded address is updated after any
// successful resolution, whether or not the report was delivered.
func (m *Monitor) Check(ctx context.Context) CheckResult {
	ctx = context.WithoutCancel(ctx)

	addr, err := m.resolver.Resolve(ctx)
	if err != nil {
		m.logger.Error("Failed to resolve external address", zap.Error(err))
		m.send(ctx, "resolve_failed", m.formatter.ResolveFailed)
		return CheckResult{}
	}

	m.logger.Info("Current network address", zap.String("address", addr.String()))

	first := !m.state.Known
	changed := m.state.Known && m.state.Address != addr
	result := CheckResult{Resolved: true, Address: addr, Changed: changed}

	if changed {
		m.logger.Info("External address changed",
			zap.String("old", m.state.Address.String()),
			zap.String("new", addr.String()))
	}

	if first || changed {
		loc := m.enricher.Enrich(ctx, addr)
		result.Notified = m.send(ctx, "report", func() (string, error) {
			return m.formatter.Report(addr, loc, changed)
		})
	}

	m.state = State{Address: addr, Known: true}
	return result
}

// safeCheck runs Check and converts a panic into a FaultError
func (m *Monitor) safeCheck(ctx context.Context) (result CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Value: r, Stack: debug.Stack()}
		}
	}()
	return m.Check(ctx), nil
}

// send renders and delivers a message. Failures, panics included, are
// logged only.
func (m *Monitor) send(ctx context.Context, kind string, render func() (string, error)) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Notification panicked",
				zap.String("kind", kind),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			sent = false
		}
	}()

	text, err := render()
	if err != nil {
		m.logger.Error("Failed to render notification",
			zap.String("kind", kind),
			zap.Error(err))
		return false
	}

	if err := m.notifier.Send(ctx, text); err != nil {
		m.logger.Warn("Failed to send notification",
			zap.String("kind", kind),
			zap.Error(err))
		return false
	}

	m.logger.Info("Notification sent", zap.String("kind", kind))
	return true
}

// shutdown sends the stop notification on a context detached from the
// cancelled run context
func (m *Monitor) shutdown(ctx context.Context) {
	m.logger.Info("Stopping network monitor...")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	m.send(ctx, "shutdown", m.formatter.Shutdown)
}

func (m *Monitor) logFault(err error) {
	fields := []zap.Field{zap.Error(err)}
	if fault, ok := err.(*FaultError); ok {
		fields = append(fields, zap.ByteString("stack", fault.Stack))
	}
	m.logger.Error("Check cycle crashed", fields...)
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
