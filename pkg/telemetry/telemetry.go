// Package telemetry wires OpenTelemetry tracing and Prometheus-exported
// metrics around workflow and node execution. It is an optional
// decorator: wrap any runctx.Context with NewContext to get spans and
// counters for free, or skip it entirely and run against the bare
// context.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "flowmesh-engine"

	metricRunExecutions  = "run.executions.total"
	metricRunDuration    = "run.execution.duration"
	metricRunSuccess     = "run.executions.success.total"
	metricRunFailure     = "run.executions.failure.total"
	metricNodeExecutions = "node.executions.total"
	metricNodeDuration   = "node.execution.duration"
	metricNodeSuccess    = "node.executions.success.total"
	metricNodeFailure    = "node.executions.failure.total"
)

// Provider manages OpenTelemetry setup and provides access to tracers and
// meters.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider trace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer

	runExecutions metric.Int64Counter
	runDuration   metric.Float64Histogram
	runSuccess    metric.Int64Counter
	runFailure    metric.Int64Counter
	nodeExecutions metric.Int64Counter
	nodeDuration   metric.Float64Histogram
	nodeSuccess    metric.Int64Counter
	nodeFailure    metric.Int64Counter

	mu sync.RWMutex
}

// Config holds telemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	EnableMetrics  bool
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider initializes OpenTelemetry with a Prometheus metrics exporter.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if config.EnableMetrics {
		if err := provider.initMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}
	if config.EnableTracing {
		provider.initTracing()
	}

	return provider, nil
}

func (p *Provider) initMetrics(res *resource.Resource) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(serviceName)

	return p.createMetricInstruments()
}

func (p *Provider) initTracing() {
	p.tracerProvider = otel.GetTracerProvider()
	p.tracer = p.tracerProvider.Tracer(serviceName)
}

func (p *Provider) createMetricInstruments() error {
	var err error

	if p.runExecutions, err = p.meter.Int64Counter(metricRunExecutions, metric.WithDescription("Total number of workflow runs")); err != nil {
		return err
	}
	if p.runDuration, err = p.meter.Float64Histogram(metricRunDuration, metric.WithDescription("Run duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return err
	}
	if p.runSuccess, err = p.meter.Int64Counter(metricRunSuccess, metric.WithDescription("Total number of successful runs")); err != nil {
		return err
	}
	if p.runFailure, err = p.meter.Int64Counter(metricRunFailure, metric.WithDescription("Total number of failed runs")); err != nil {
		return err
	}
	if p.nodeExecutions, err = p.meter.Int64Counter(metricNodeExecutions, metric.WithDescription("Total number of node executions")); err != nil {
		return err
	}
	if p.nodeDuration, err = p.meter.Float64Histogram(metricNodeDuration, metric.WithDescription("Node execution duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return err
	}
	if p.nodeSuccess, err = p.meter.Int64Counter(metricNodeSuccess, metric.WithDescription("Total number of successful node executions")); err != nil {
		return err
	}
	if p.nodeFailure, err = p.meter.Int64Counter(metricNodeFailure, metric.WithDescription("Total number of failed node executions")); err != nil {
		return err
	}
	return nil
}

func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracer
}

func (p *Provider) Meter() metric.Meter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meter
}

// RecordRun records metrics for one completed workflow run.
func (p *Provider) RecordRun(ctx context.Context, runID string, duration time.Duration, success bool, nodesExecuted int) {
	if p.meter == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("run.id", runID),
		attribute.Int("nodes.executed", nodesExecuted),
	}
	p.runExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.runDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if success {
		p.runSuccess.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		p.runFailure.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordNode records metrics for one completed node execution.
func (p *Provider) RecordNode(ctx context.Context, nodeID, nodeType string, duration time.Duration, success bool) {
	if p.meter == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("node.id", nodeID),
		attribute.String("node.type", nodeType),
	}
	p.nodeExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.nodeDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if success {
		p.nodeSuccess.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		p.nodeFailure.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// Shutdown gracefully shuts down the telemetry provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	return nil
}
