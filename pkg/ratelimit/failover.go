package ratelimit

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Failover prefers the shared backend and delegates to the local one whenever
// a shared-store call fails. The substitution is silent for that call: a
// rate-limit subsystem outage must never become a user-visible failure, and
// per-process limiting is stricter, not looser, than the shared limit.
type Failover struct {
	primary  Limiter
	fallback Limiter
	logger   *slog.Logger
}

// FailoverOption configures a Failover limiter.
type FailoverOption func(*Failover)

// WithFailoverLogger sets the logger for fallback events.
func WithFailoverLogger(logger *slog.Logger) FailoverOption {
	return func(f *Failover) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFailover wraps primary with fallback. fallback must not be nil and
// should be a LocalLimiter, which cannot fail.
func NewFailover(primary, fallback Limiter, opts ...FailoverOption) *Failover {
	f := &Failover{
		primary:  primary,
		fallback: fallback,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Check implements Limiter.
func (f *Failover) Check(ctx context.Context, identifier string, policy Policy) (*Result, error) {
	res, err := f.primary.Check(ctx, identifier, policy)
	if err == nil {
		return res, nil
	}

	f.logger.WarnContext(ctx, "shared rate limit store failed, using local fallback",
		slog.Any("error", err),
	)
	return f.fallback.Check(ctx, identifier, policy)
}

type options struct {
	logger *slog.Logger
	local  []LocalOption
	redis  []RedisOption
}

// Option configures the New constructor.
type Option func(*options)

// WithLogger sets the logger used for fallback events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLocalOptions passes options to the underlying local limiter.
func WithLocalOptions(opts ...LocalOption) Option {
	return func(o *options) {
		o.local = append(o.local, opts...)
	}
}

// WithRedisOptions passes options to the underlying Redis limiter.
func WithRedisOptions(opts ...RedisOption) Option {
	return func(o *options) {
		o.redis = append(o.redis, opts...)
	}
}

// New builds the production limiter: a Redis sliding window with a local
// fallback when a client is available, local-only otherwise. The prefer-
// shared-else-local decision lives here, at construction time, not at call
// sites.
func New(client redis.UniversalClient, opts ...Option) Limiter {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}

	local := NewLocalLimiter(o.local...)
	if client == nil {
		return local
	}

	return NewFailover(
		NewRedisLimiter(client, o.redis...),
		local,
		WithFailoverLogger(o.logger),
	)
}
