package authsession

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/secretsafe/authsession/api"
	"github.com/secretsafe/authsession/internal/events"
	"github.com/secretsafe/authsession/policy"
	"github.com/secretsafe/authsession/store"
)

// Builder defines a public type used by authsession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger

	primary   store.Backend
	fallback  store.Backend
	redis     *redis.Client
	eventSink EventSink
	policies  *policy.Evaluator

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or storage checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or storage checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or storage checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or storage checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or storage checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithPrimaryBackend overrides the default bbolt primary storage backend.
func (b *Builder) WithPrimaryBackend(backend store.Backend) *Builder {
	b.primary = backend
	return b
}

// WithFallbackBackend overrides the default in-memory fallback backend.
func (b *Builder) WithFallbackBackend(backend store.Backend) *Builder {
	b.fallback = backend
	return b
}

// WithEventSink describes the witheventsink operation and its observable behavior.
//
// WithEventSink may return an error when input validation, dependency calls, or storage checks fail.
// WithEventSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// WithPolicy overrides the default product access tables.
func (b *Builder) WithPolicy(eval *policy.Evaluator) *Builder {
	b.policies = eval
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or storage checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or storage checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	stateDir := cfg.Storage.Dir
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.New("Storage Dir required when home directory is unavailable")
		}
		stateDir = filepath.Join(home, ".secretsafe")
	}

	// -------- STORAGE CHAIN --------
	primary := b.primary
	if primary == nil {
		switch {
		case b.redis != nil:
			primary = store.NewRedisBackend(b.redis, cfg.Storage.RedisPrefix, 0)
		case cfg.Storage.RedisAddr != "":
			client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
			primary = store.NewRedisBackend(client, cfg.Storage.RedisPrefix, 0)
		default:
			bolt, err := store.OpenBolt(filepath.Join(stateDir, "session.db"))
			if err != nil {
				return nil, err
			}
			primary = bolt
		}
	}

	fallback := b.fallback
	if fallback == nil {
		fallback = store.NewMemoryBackend()
	}

	writerID := uuid.NewString()
	mirror, err := store.NewCookieMirror(filepath.Join(stateDir, "session-cookies"), writerID)
	if err != nil {
		return nil, err
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}

	metrics := NewMetrics(cfg.Metrics)
	tokens, err := store.New(store.Config{
		Primary:          primary,
		Fallback:         fallback,
		Mirror:           mirror,
		Logger:           logger,
		RefreshThreshold: cfg.Refresh.Threshold,
		CleanupGrace:     cfg.Storage.CleanupGrace,
		OnFallback:       func() { metrics.Inc(MetricStorageFallback) },
		Now:              func() time.Time { return tokensNow() },
	})
	if err != nil {
		return nil, err
	}

	// -------- POLICY --------
	policies := b.policies
	if policies == nil {
		policies = policy.Default()
	}

	engine := &Engine{
		config:      cfg,
		logger:      logger,
		tokens:      tokens,
		client:      api.NewClient(cfg.API.BaseURL, httpClient),
		state:       newSessionState(tokens),
		policies:    policies,
		metrics:     metrics,
		refreshSubs: make(map[int]func(string, error)),
		healthSubs:  make(map[int]func(TokenHealth)),
		initialized: make(chan struct{}),
		closed:      make(chan struct{}),
	}
	engine.now = func() time.Time { return tokensNow() }
	engine.events = events.NewDispatcher(events.Config{
		Enabled:    cfg.Events.Enabled,
		BufferSize: cfg.Events.BufferSize,
		DropIfFull: cfg.Events.DropIfFull,
	}, b.eventSink)
	engine.watcher = store.NewWatcher(mirror, writerID, logger, engine.onExternalClear)
	engine.state.setOnChange(engine.onStateChange)

	b.built = true
	return engine, nil
}
