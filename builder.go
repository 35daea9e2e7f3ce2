package gymgate

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/memberly/gymgate/storage"
)

// Builder assembles an [Engine]. A Builder is single-use: Build returns
// an error on a second call.
type Builder struct {
	config Config

	storage   storage.Store
	redis     redis.UniversalClient
	backend   BackendClient
	auditSink AuditSink

	built bool
}

// New starts a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage supplies the persistence backend for the session keys.
func (b *Builder) WithStorage(st storage.Store) *Builder {
	b.storage = st
	return b
}

// WithRedis is a convenience for Redis-backed persistence; the store is
// namespaced with the configured session prefix at Build time. Mutually
// exclusive with WithStorage.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackend supplies the REST collaborator used for login, signup, and
// profile fetches. Optional: an engine without a backend can still
// restore, observe, and guard an existing session.
func (b *Builder) WithBackend(client BackendClient) *Builder {
	b.backend = client
	return b
}

// WithAuditSink supplies the audit destination. Implies nothing about
// Audit.Enabled; configure that separately.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithAuditEnabled toggles the audit dispatcher.
func (b *Builder) WithAuditEnabled(enabled bool) *Builder {
	b.config.Audit.Enabled = enabled
	return b
}

// WithMetricsEnabled toggles the counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the guard latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Defaults: an
// in-memory storage backend when none was supplied.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.storage != nil && b.redis != nil {
		return nil, errors.New("WithStorage and WithRedis are mutually exclusive")
	}

	st := b.storage
	switch {
	case st != nil:
	case b.redis != nil:
		st = storage.NewRedis(b.redis, b.config.Session.StoragePrefix)
	default:
		st = storage.NewMemory()
	}

	engine := &Engine{
		config:  b.config,
		store:   NewStore(st, b.config.Session),
		backend: b.backend,
		metrics: NewMetrics(b.config.Metrics),
		audit:   newAuditDispatcher(b.config.Audit, b.auditSink),
	}
	engine.store.onConflate = func() { engine.metricInc(MetricObserverConflated) }

	b.built = true
	return engine, nil
}
