package webmail

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/emailapp/webmail"
)

// otelInstrumentation holds OpenTelemetry instrumentation for the webmail service.
type otelInstrumentation struct {
	enabled bool

	// Tracing
	tracingEnabled bool
	tracer         trace.Tracer

	// Metrics
	metricsEnabled bool

	sendLatency metric.Float64Histogram
	sendCount   metric.Int64Counter
	sendErrors  metric.Int64Counter

	listLatency metric.Float64Histogram
	listCount   metric.Int64Counter
	listErrors  metric.Int64Counter

	updateLatency metric.Float64Histogram
	updateCount   metric.Int64Counter
	updateErrors  metric.Int64Counter

	deleteLatency metric.Float64Histogram
	deleteCount   metric.Int64Counter
	deleteErrors  metric.Int64Counter
	purgeCount    metric.Int64Counter
}

// newOtelInstrumentation creates new OTel instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{
		enabled:        opts.tracingEnabled || opts.metricsEnabled,
		tracingEnabled: opts.tracingEnabled,
		metricsEnabled: opts.metricsEnabled,
	}

	if !o.enabled {
		return o, nil
	}

	if opts.tracingEnabled {
		tp := opts.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		o.tracer = tp.Tracer(instrumentationName)
	}

	if opts.metricsEnabled {
		mp := opts.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := o.initMetrics(mp); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// initMetrics initializes all metric instruments.
func (o *otelInstrumentation) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error

	o.sendLatency, err = meter.Float64Histogram(
		"webmail.send.duration",
		metric.WithDescription("Duration of send operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.sendCount, err = meter.Int64Counter(
		"webmail.send.count",
		metric.WithDescription("Number of mails sent"),
	)
	if err != nil {
		return err
	}

	o.sendErrors, err = meter.Int64Counter(
		"webmail.send.errors",
		metric.WithDescription("Number of send errors"),
	)
	if err != nil {
		return err
	}

	o.listLatency, err = meter.Float64Histogram(
		"webmail.list.duration",
		metric.WithDescription("Duration of folder listings"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.listCount, err = meter.Int64Counter(
		"webmail.list.count",
		metric.WithDescription("Number of folder listings"),
	)
	if err != nil {
		return err
	}

	o.listErrors, err = meter.Int64Counter(
		"webmail.list.errors",
		metric.WithDescription("Number of folder listing errors"),
	)
	if err != nil {
		return err
	}

	o.updateLatency, err = meter.Float64Histogram(
		"webmail.update.duration",
		metric.WithDescription("Duration of read/star updates"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.updateCount, err = meter.Int64Counter(
		"webmail.update.count",
		metric.WithDescription("Number of read/star updates"),
	)
	if err != nil {
		return err
	}

	o.updateErrors, err = meter.Int64Counter(
		"webmail.update.errors",
		metric.WithDescription("Number of read/star update errors"),
	)
	if err != nil {
		return err
	}

	o.deleteLatency, err = meter.Float64Histogram(
		"webmail.delete.duration",
		metric.WithDescription("Duration of delete operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.deleteCount, err = meter.Int64Counter(
		"webmail.delete.count",
		metric.WithDescription("Number of delete operations"),
	)
	if err != nil {
		return err
	}

	o.deleteErrors, err = meter.Int64Counter(
		"webmail.delete.errors",
		metric.WithDescription("Number of delete errors"),
	)
	if err != nil {
		return err
	}

	o.purgeCount, err = meter.Int64Counter(
		"webmail.purge.count",
		metric.WithDescription("Number of mails permanently removed"),
	)
	if err != nil {
		return err
	}

	return nil
}

// startSpan starts a new span if tracing is enabled.
// Caller must invoke the returned func with the operation's error.
func (o *otelInstrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if !o.tracingEnabled || o.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := o.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// recordSend records send operation metrics.
func (o *otelInstrumentation) recordSend(ctx context.Context, duration time.Duration, recipientCount int, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Int("recipient_count", recipientCount),
	)

	o.sendLatency.Record(ctx, duration.Seconds(), attrs)
	o.sendCount.Add(ctx, 1, attrs)
	if err != nil {
		o.sendErrors.Add(ctx, 1, attrs)
	}
}

// recordList records folder listing metrics.
func (o *otelInstrumentation) recordList(ctx context.Context, duration time.Duration, folder string, resultCount int, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("folder", folder),
		attribute.Int("result_count", resultCount),
	)

	o.listLatency.Record(ctx, duration.Seconds(), attrs)
	o.listCount.Add(ctx, 1, attrs)
	if err != nil {
		o.listErrors.Add(ctx, 1, attrs)
	}
}

// recordUpdate records read/star update metrics.
func (o *otelInstrumentation) recordUpdate(ctx context.Context, duration time.Duration, operation string, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
	)

	o.updateLatency.Record(ctx, duration.Seconds(), attrs)
	o.updateCount.Add(ctx, 1, attrs)
	if err != nil {
		o.updateErrors.Add(ctx, 1, attrs)
	}
}

// recordDelete records delete operation metrics.
func (o *otelInstrumentation) recordDelete(ctx context.Context, duration time.Duration, purged bool, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("purged", purged),
	)

	o.deleteLatency.Record(ctx, duration.Seconds(), attrs)
	o.deleteCount.Add(ctx, 1, attrs)
	if err != nil {
		o.deleteErrors.Add(ctx, 1, attrs)
	}
	if purged {
		o.purgeCount.Add(ctx, 1)
	}
}
