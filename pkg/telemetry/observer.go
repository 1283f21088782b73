package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
)

// Context decorates any runctx.Context with tracing spans and the
// Provider's metrics, triggered by the active hook protocol rather than
// passive event dispatch: a span opens in OnWorkflowStart/OnNodeStart and
// closes, with metrics recorded, in the matching Finish/Error hook. Every
// call is still forwarded to the wrapped context, so memoization,
// skipping, and error absorption behave exactly as they would unwrapped.
type Context struct {
	inner    runctx.Context
	provider *Provider

	mu            sync.Mutex
	workflowSpan  trace.Span
	workflowStart time.Time
	nodesExecuted int
	nodeSpans     map[string]trace.Span
	nodeStart     map[string]time.Time
}

func NewContext(inner runctx.Context, provider *Provider) *Context {
	return &Context{
		inner:     inner,
		provider:  provider,
		nodeSpans: make(map[string]trace.Span),
		nodeStart: make(map[string]time.Time),
	}
}

func (c *Context) RunID() string { return c.inner.RunID() }

func (c *Context) ReadFile(path string) ([]byte, error) { return c.inner.ReadFile(path) }

func (c *Context) WriteFile(path string, content []byte) (string, error) {
	return c.inner.WriteFile(path, content)
}

func (c *Context) OnWorkflowStart(workflow runctx.WorkflowView, input map[string]any) (map[string]any, bool) {
	_, span := c.provider.Tracer().Start(context.Background(), "run.execute",
		trace.WithAttributes(attribute.String("run.id", workflow.ID)),
	)
	c.mu.Lock()
	c.workflowSpan = span
	c.workflowStart = time.Now()
	c.mu.Unlock()

	return c.inner.OnWorkflowStart(workflow, input)
}

func (c *Context) OnNodeStart(node runctx.NodeView, input record.Record) (record.Record, bool) {
	spanCtx := context.Background()
	c.mu.Lock()
	if c.workflowSpan != nil {
		spanCtx = trace.ContextWithSpan(spanCtx, c.workflowSpan)
	}
	c.mu.Unlock()

	_, span := c.provider.Tracer().Start(spanCtx, "node.execute",
		trace.WithAttributes(
			attribute.String("node.id", node.ID),
			attribute.String("node.type", node.Type),
		),
	)
	c.mu.Lock()
	c.nodeSpans[node.ID] = span
	c.nodeStart[node.ID] = time.Now()
	c.mu.Unlock()

	return c.inner.OnNodeStart(node, input)
}

func (c *Context) OnNodeFinish(node runctx.NodeView, input, output record.Record) record.Record {
	c.endNodeSpan(node, nil)
	c.mu.Lock()
	c.nodesExecuted++
	c.mu.Unlock()
	return c.inner.OnNodeFinish(node, input, output)
}

func (c *Context) OnNodeError(node runctx.NodeView, input record.Record, err error) (record.Record, bool) {
	c.endNodeSpan(node, err)
	return c.inner.OnNodeError(node, input, err)
}

func (c *Context) OnWorkflowFinish(workflow runctx.WorkflowView, input, output map[string]any) {
	c.endWorkflowSpan(workflow.ID, nil)
	c.inner.OnWorkflowFinish(workflow, input, output)
}

func (c *Context) OnWorkflowError(workflow runctx.WorkflowView, input map[string]any, errs []string, partial map[string]any) {
	c.endWorkflowSpan(workflow.ID, fmt.Errorf("run failed: %d error(s)", len(errs)))
	c.inner.OnWorkflowError(workflow, input, errs, partial)
}

func (c *Context) endNodeSpan(node runctx.NodeView, err error) {
	c.mu.Lock()
	start, hasStart := c.nodeStart[node.ID]
	span, hasSpan := c.nodeSpans[node.ID]
	delete(c.nodeStart, node.ID)
	delete(c.nodeSpans, node.ID)
	c.mu.Unlock()

	var duration time.Duration
	if hasStart {
		duration = time.Since(start)
	}
	c.provider.RecordNode(context.Background(), node.ID, node.Type, duration, err == nil)

	if hasSpan {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "node completed")
		}
		span.End()
	}
}

func (c *Context) endWorkflowSpan(runID string, err error) {
	c.mu.Lock()
	start := c.workflowStart
	span := c.workflowSpan
	nodesExecuted := c.nodesExecuted
	c.mu.Unlock()

	c.provider.RecordRun(context.Background(), runID, time.Since(start), err == nil, nodesExecuted)

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "run completed")
		}
		span.End()
	}
}
