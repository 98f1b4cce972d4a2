// Package lifecycle owns the single light client instance of the process.
//
// A Manager starts empty. Initialize builds, starts and syncs a client outside
// of the lock and publishes it only once it is fully ready, so concurrent
// readers observe either no client or a synced one. Exactly one Initialize
// may succeed per Manager; the published client is never replaced.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
)

const StartedMessage = `Light client started and synced successfully`

var (
	ErrAlreadyRunning    = errors.New("Light client is already running")
	ErrStartedByAnother  error = startedByAnotherError{}
	ErrNotInitialized    = errors.New("Light client not initialized")
	ErrCreateFailed      = errors.New("failed to create client")
	ErrStartFailed       = errors.New("failed to start client")
	ErrSyncFailed        = errors.New("failed to sync client")
	ErrClosed            = errors.New("light client gateway is shut down")
	errNilClientProduced = errors.New("builder returned nil client")
)

// startedByAnotherError reports a lost publish race. It matches
// ErrAlreadyRunning so callers can treat both the same way.
type startedByAnotherError struct{}

func (startedByAnotherError) Error() string {
	return "Light client was started by another request"
}

func (startedByAnotherError) Is(target error) bool {
	return target == ErrAlreadyRunning
}

type State int

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Starting:
		return `starting`
	case Running:
		return `running`
	default:
		return `stopped`
	}
}

type Options struct {
	// StartTimeout bounds Client.Start. Zero means no bound.
	StartTimeout time.Duration
	// SyncTimeout bounds Client.WaitSynced. Zero means wait indefinitely.
	SyncTimeout time.Duration
}

type Manager struct {
	log     *slog.Logger
	metrics *metrics.Store
	build   chain.Builder
	cfg     chain.Config
	opts    Options

	mu         sync.RWMutex
	client     chain.Client
	starting   bool
	closed     bool
	instanceID string
}

func New(log *slog.Logger, metricsStore *metrics.Store, build chain.Builder, cfg chain.Config, opts Options) *Manager {
	return &Manager{
		log:     log,
		metrics: metricsStore,
		build:   build,
		cfg:     cfg,
		opts:    opts,
	}
}

// Initialize creates, starts and syncs the light client. It fails fast with
// ErrAlreadyRunning when a client is published or another Initialize is in
// flight. On any other failure the Manager stays empty and may be retried.
func (m *Manager) Initialize(ctx context.Context) (err error) {
	if err := m.begin(); err != nil {
		m.metrics.InitializeAttempts.With(prometheus.Labels{metrics.Status: metrics.StatusFail}).Inc()
		return err
	}

	defer func() {
		status := metrics.StatusOk
		if err != nil {
			status = metrics.StatusFail
			m.log.Error(fmt.Sprintf("light client initialize failed: %v", err))
		}
		m.metrics.InitializeAttempts.With(prometheus.Labels{metrics.Status: status}).Inc()
	}()

	m.log.Info("starting light client", slog.String("network", string(m.cfg.Network)))

	client, err := m.construct(ctx)
	if err != nil {
		m.abort()
		return err
	}

	if err := m.publish(client); err != nil {
		closeClient(client)
		return err
	}

	m.log.Info(StartedMessage, slog.String("instance", m.InstanceID()))
	return nil
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.client != nil || m.starting {
		return ErrAlreadyRunning
	}

	m.starting = true
	m.metrics.ClientState.Set(metrics.StateStarting)
	return nil
}

func (m *Manager) abort() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.starting = false
	m.metrics.ClientState.Set(metrics.StateStopped)
}

func (m *Manager) publish(client chain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.starting = false
	if m.closed {
		m.metrics.ClientState.Set(metrics.StateStopped)
		return ErrClosed
	}
	if m.client != nil {
		return ErrStartedByAnother
	}

	m.client = client
	m.instanceID = uuid.NewString()
	m.metrics.ClientState.Set(metrics.StateRunning)
	return nil
}

func (m *Manager) construct(ctx context.Context) (chain.Client, error) {
	client, err := m.build(m.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateFailed, errNilClientProduced)
	}

	startCtx, cancelStart := withOptionalTimeout(ctx, m.opts.StartTimeout)
	defer cancelStart()
	if err := client.Start(startCtx); err != nil {
		closeClient(client)
		return nil, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	syncCtx, cancelSync := withOptionalTimeout(ctx, m.opts.SyncTimeout)
	defer cancelSync()
	if err := client.WaitSynced(syncCtx); err != nil {
		closeClient(client)
		return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	return client, nil
}

// WithClient runs fn with the published client. The lock only guards the
// lookup; fn runs unlocked so slow upstream calls never hold up Initialize,
// State or other requests. The client must not be retained after fn returns.
func (m *Manager) WithClient(fn func(chain.Client) error) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil {
		return ErrNotInitialized
	}
	return fn(client)
}

// With is WithClient for calls that produce a value.
func With[R any](m *Manager, fn func(chain.Client) (R, error)) (R, error) {
	var res R
	err := m.WithClient(func(c chain.Client) error {
		var fnErr error
		res, fnErr = fn(c)
		return fnErr
	})
	return res, err
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.client != nil:
		return Running
	case m.starting:
		return Starting
	default:
		return Stopped
	}
}

func (m *Manager) Ready() bool {
	return m.State() == Running
}

func (m *Manager) InstanceID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.instanceID
}

// Close releases the client at process teardown. The Manager cannot be
// initialized afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	client := m.client
	m.closed = true
	m.client = nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}

	m.metrics.ClientState.Set(metrics.StateStopped)
	if closer, ok := client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func closeClient(client chain.Client) {
	if closer, ok := client.(io.Closer); ok {
		_ = closer.Close()
	}
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
