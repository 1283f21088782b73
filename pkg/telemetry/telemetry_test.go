package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		config Config
	}{
		{name: "default config", config: DefaultConfig()},
		{
			name: "custom config",
			config: Config{
				ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test",
				EnableTracing: true, EnableMetrics: true,
			},
		},
		{
			name: "metrics only",
			config: Config{
				ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test",
				EnableTracing: false, EnableMetrics: true,
			},
		},
		{
			name: "tracing only",
			config: Config{
				ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test",
				EnableTracing: true, EnableMetrics: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(ctx, tt.config)
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if tt.config.EnableTracing && provider.Tracer() == nil {
				t.Error("Tracer() returned nil when tracing is enabled")
			}
			if tt.config.EnableMetrics && provider.Meter() == nil {
				t.Error("Meter() returned nil when metrics are enabled")
			}
			if err := provider.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(ctx)

	provider.RecordRun(ctx, "run-123", 100*time.Millisecond, true, 5)
	provider.RecordRun(ctx, "run-456", 50*time.Millisecond, false, 3)
}

func TestRecordNode(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(ctx)

	provider.RecordNode(ctx, "node-1", "add", 10*time.Millisecond, true)
	provider.RecordNode(ctx, "node-2", "always_error", 5*time.Millisecond, false)
}

func TestShutdown(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	_ = provider.Shutdown(ctx)
}

func TestProviderWithNilMetrics(t *testing.T) {
	ctx := context.Background()
	config := Config{
		ServiceName: "test", ServiceVersion: "1.0.0", Environment: "test",
		EnableTracing: true, EnableMetrics: false,
	}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(ctx)

	provider.RecordRun(ctx, "test", time.Second, true, 1)
	provider.RecordNode(ctx, "node1", "add", time.Millisecond, true)
}

func TestContextForwardsToInnerContext(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(ctx)

	inner := runctx.NewNoopContext("run-1")
	decorated := NewContext(inner, provider)

	if decorated.RunID() != "run-1" {
		t.Fatalf("expected RunID to pass through, got %q", decorated.RunID())
	}

	decorated.OnWorkflowStart(runctx.WorkflowView{ID: "run-1"}, nil)

	outType := record.NewType("Out", []record.Field{{Name: "v", Variant: value.Integer, Required: false}})
	out, _ := outType.Validate(nil)
	decorated.OnNodeStart(runctx.NodeView{ID: "n1", Type: "add"}, record.Record{})
	finished := decorated.OnNodeFinish(runctx.NodeView{ID: "n1", Type: "add"}, record.Record{}, out)
	if finished.Type != out.Type {
		t.Fatal("expected OnNodeFinish to pass the output record through unchanged")
	}

	decorated.OnWorkflowFinish(runctx.WorkflowView{ID: "run-1"}, nil, nil)
}
