// Package logging provides structured logging capabilities for the workflow engine.
//
// # Overview
//
// The logging package implements a structured logging system with support for
// multiple output formats, log levels, contextual information, and integration
// with the workflow execution lifecycle.
//
// # Features
//
//   - Structured logging: JSON (default) and text output via log/slog
//   - Log levels: DEBUG, INFO, WARN, ERROR
//   - Contextual fields: run ID, node ID, node type, custom fields, errors
//   - Level filtering: messages below the configured level are discarded
//   - Thread-safe: Safe for concurrent use
//   - Flexible output: Write to any io.Writer
//
// # Log Levels
//
// The package supports standard log levels:
//
//   - DEBUG: Detailed diagnostic information
//   - INFO: General informational messages
//   - WARN: Warning messages for potential issues
//   - ERROR: Error messages for failures
//
// # Basic Usage
//
//	import "github.com/flowmesh/engine/pkg/logging"
//
//	// Create logger
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	// Log messages; fields are attached with the With* methods, and the
//	// logging methods themselves take only the message
//	logger.WithRunID("run-123").WithField("node_count", 42).Info("Workflow started")
//
//	logger.WithNodeID("node-5").WithError(err).Error("Execution failed")
//
// # Context Integration
//
// A logger can be stored in a context.Context and retrieved later.
// WithContext returns the derived context; FromContext returns the stored
// logger, or a new logger built from DefaultConfig when none is stored.
// No fields are extracted from the context:
//
//	ctx = logger.WithContext(ctx)
//	logging.FromContext(ctx).WithNodeType("add").Info("Node executing")
//
// # Structured Fields
//
// Several fields can be attached at once with WithFields:
//
//	logger.WithFields(map[string]interface{}{
//	    "method": "GET",
//	    "url": "https://api.example.com",
//	    "status": 200,
//	    "duration_ms": 145,
//	}).Info("HTTP request completed")
//
// # Output Formats
//
// JSON format (the default, Pretty: false), one object per line with
// slog's standard keys:
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"Workflow started","run_id":"run-123","node_count":42}
//
// Text format (Pretty: true):
//
//	time=2024-01-15T10:30:00.000Z level=INFO msg="Workflow started" run_id=run-123 node_count=42
//
// # Configuration
//
// Logger configuration options:
//
//	config := logging.Config{
//	    Level:         "debug",   // debug, info, warn (or warning), error; anything else means info
//	    Output:        os.Stdout, // Where to write logs (nil means os.Stdout)
//	    Pretty:        false,     // true for text output, false for JSON
//	    IncludeCaller: true,      // Include the source file:line
//	}
//
// DefaultConfig returns level "info", os.Stdout, JSON output and no
// caller information.
//
// # Performance Considerations
//
//   - Each With* call returns a new Logger and leaves the receiver unchanged
//   - Messages below the configured level are discarded by slog's level
//     check; the *f variants format their message before that check
//   - Output is written straight to the configured io.Writer; this package
//     adds no buffering
//
// # Common Logging Patterns
//
// Workflow execution:
//
//	logger.WithRunID(runID).WithField("node_count", len(workflow.Nodes)).Info("Workflow execution started")
//
// Node execution:
//
//	logger.WithNodeID(node.ID).WithNodeType(node.Type).Debug("Node executing")
//
// Error logging:
//
//	logger.WithNodeID(node.ID).WithError(err).Error("Node execution failed")
//
// Performance metrics:
//
//	logger.WithRunID(runID).WithFields(map[string]interface{}{
//	    "duration_ms": elapsed.Milliseconds(),
//	    "nodes_executed": count,
//	}).Info("Workflow completed")
//
// # Integration with the Run Context
//
// cmd/flowmesh builds a logger from DefaultConfig and logs the start of
// each run with its run ID. The engine and the telemetry-decorated
// runctx.Context (see package telemetry) do not log through this package.
//
// # Best Practices
//
//   - Use structured fields instead of string formatting
//   - Include execution context (run_id, node_id, node_type)
//   - Log at appropriate levels (avoid debug in production)
//   - Add timing information for performance analysis
//   - Include error context (not just error message)
//   - Use consistent field names across the codebase
//
// # Thread Safety
//
// All logger operations are thread-safe and can be used concurrently
// from multiple goroutines without additional synchronization.
//
// # Testing
//
// For testing, use a logger with a buffer:
//
//	buf := &bytes.Buffer{}
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: buf,
//	})
//
//	// Execute code
//	// Verify log output
//	if !strings.Contains(buf.String(), "expected message") {
//	    t.Errorf("log output missing message: %s", buf.String())
//	}
package logging
