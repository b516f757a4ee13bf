package webmail

import (
	"log/slog"
	"time"

	"github.com/rbaliyan/event/v3/transport"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/emailapp/webmail/store"
	"github.com/emailapp/webmail/summary"
)

// Default configuration values.
const (
	DefaultShutdownTimeout = 30 * time.Second
	MinShutdownTimeout     = 1 * time.Second

	// Message limits
	DefaultMaxSubjectLength  = 998 // RFC 5322 max line length
	DefaultMaxBodySize       = 1 * 1024 * 1024
	DefaultMaxRecipientCount = 50

	// Query limits
	DefaultMaxQueryLimit = 100
	DefaultQueryLimit    = 50

	// Concurrency limits
	DefaultMaxConcurrentSends = 10

	// Password limits
	DefaultMinPasswordLength = 8
)

// options holds webmail service configuration.
type options struct {
	store      store.Store
	summarizer summary.Summarizer
	logger     *slog.Logger

	// Message limits
	maxSubjectLength  int
	maxBodySize       int
	maxRecipientCount int

	// Query limits
	maxQueryLimit     int
	defaultQueryLimit int

	// Password policy
	minPasswordLength int

	// Concurrency limits
	maxConcurrentSends int

	// Shutdown
	shutdownTimeout time.Duration

	// OpenTelemetry
	tracingEnabled bool
	metricsEnabled bool
	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Event handling
	eventTransport        transport.Transport
	redisClient           redis.UniversalClient
	onEventPublishFailure EventPublishFailureFunc
}

// EventPublishFailureFunc is called when an event fails to publish.
type EventPublishFailureFunc func(eventName string, err error)

// safeEventPublishFailure calls the event failure callback with panic recovery.
func (o *options) safeEventPublishFailure(eventName string, err error) {
	if o.onEventPublishFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic in event publish failure handler",
				"event", eventName,
				"original_error", err,
				"panic", r,
			)
		}
	}()
	o.onEventPublishFailure(eventName, err)
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		logger:             slog.Default(),
		maxSubjectLength:   DefaultMaxSubjectLength,
		maxBodySize:        DefaultMaxBodySize,
		maxRecipientCount:  DefaultMaxRecipientCount,
		maxQueryLimit:      DefaultMaxQueryLimit,
		defaultQueryLimit:  DefaultQueryLimit,
		minPasswordLength:  DefaultMinPasswordLength,
		maxConcurrentSends: DefaultMaxConcurrentSends,
		shutdownTimeout:    DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.defaultQueryLimit > o.maxQueryLimit {
		o.defaultQueryLimit = o.maxQueryLimit
	}

	if o.onEventPublishFailure == nil {
		o.onEventPublishFailure = func(eventName string, err error) {
			o.logger.Error("failed to publish event", "event", eventName, "error", err)
		}
	}

	return o
}

// Option configures the webmail service.
type Option func(*options)

// --- Core Options ---

// WithStore sets the storage backend (required).
func WithStore(s store.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSummarizer sets the content summarizer used by Summarize and
// SmartReplies. Without one, both return their fallback responses.
func WithSummarizer(s summary.Summarizer) Option {
	return func(o *options) {
		if s != nil {
			o.summarizer = s
		}
	}
}

// --- Limit Options ---

// WithMaxSubjectLength sets the maximum subject length in characters.
func WithMaxSubjectLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSubjectLength = n
		}
	}
}

// WithMaxBodySize sets the maximum body size in bytes.
func WithMaxBodySize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithMaxRecipientCount sets the maximum number of recipients per send.
func WithMaxRecipientCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRecipientCount = n
		}
	}
}

// WithQueryLimits sets the default and maximum page sizes for folder
// listings.
func WithQueryLimits(defaultLimit, maxLimit int) Option {
	return func(o *options) {
		if defaultLimit > 0 {
			o.defaultQueryLimit = defaultLimit
		}
		if maxLimit > 0 {
			o.maxQueryLimit = maxLimit
		}
	}
}

// WithMinPasswordLength sets the minimum password length at signup.
func WithMinPasswordLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minPasswordLength = n
		}
	}
}

// WithMaxConcurrentSends limits concurrent send operations per service.
func WithMaxConcurrentSends(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrentSends = n
		}
	}
}

// WithShutdownTimeout sets how long Close waits for in-flight operations.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= MinShutdownTimeout {
			o.shutdownTimeout = d
		}
	}
}

// --- Observability Options ---

// WithTracing enables OpenTelemetry tracing.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables OpenTelemetry metrics.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithServiceName sets the service name used for telemetry and event bus
// naming.
func WithServiceName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// WithTracerProvider sets a custom tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets a custom meter provider.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// --- Event Options ---

// WithEventTransport sets a custom event transport.
func WithEventTransport(t transport.Transport) Option {
	return func(o *options) {
		if t != nil {
			o.eventTransport = t
		}
	}
}

// WithRedisClient sets a Redis client for the event transport. Ignored
// when WithEventTransport is also provided.
func WithRedisClient(c redis.UniversalClient) Option {
	return func(o *options) {
		if c != nil {
			o.redisClient = c
		}
	}
}

// WithEventPublishFailureHandler sets a callback for event publish
// failures. The default logs the failure and continues; event publishing
// never fails the originating operation.
func WithEventPublishFailureHandler(f EventPublishFailureFunc) Option {
	return func(o *options) {
		if f != nil {
			o.onEventPublishFailure = f
		}
	}
}
