// Command flowmesh runs one workflow definition against one input
// document and prints the resulting (errors, output) pair as JSON.
//
// Usage:
//
//	flowmesh -workflow workflow.json -input input.json
//
// Flags:
//
//	-workflow string
//	    Path to a workflow definition (see workflowSpec for its shape)
//	-input string
//	    Path to a JSON document providing the workflow's external input
//	-telemetry
//	    Wrap the run context with OpenTelemetry tracing and metrics
//
// The workflow definition's node types are resolved against the node set
// registered by demo/nodes: constant, add, always_error, append_to_file,
// foreach, conditional.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/flowmesh/engine/demo/memctx"
	"github.com/flowmesh/engine/demo/nodes"
	"github.com/flowmesh/engine/engine"
	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/pkg/logging"
	"github.com/flowmesh/engine/pkg/telemetry"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

// fieldSpec is the JSON shape of one workflow-level input/output field:
// a name, a primitive variant, and whether it is a sequence of that
// variant or the bare variant itself.
type fieldSpec struct {
	Name     string `json:"name"`
	Variant  string `json:"variant"`
	Sequence bool   `json:"sequence"`
	Required bool   `json:"required"`
}

type workflowSpec struct {
	InputType   []fieldSpec       `json:"input_type"`
	OutputType  []fieldSpec       `json:"output_type"`
	Nodes       []flow.Node       `json:"nodes"`
	Edges       []flow.Edge       `json:"edges"`
	InputEdges  []flow.InputEdge  `json:"input_edges"`
	OutputEdges []flow.OutputEdge `json:"output_edges"`
}

func primitiveVariant(name string) (value.Variant, error) {
	switch name {
	case "null":
		return value.Null, nil
	case "boolean":
		return value.Boolean, nil
	case "integer":
		return value.Integer, nil
	case "float":
		return value.Float, nil
	case "string":
		return value.String, nil
	default:
		return nil, fmt.Errorf("unknown variant %q", name)
	}
}

func buildRecordType(name string, specs []fieldSpec) (*record.Type, error) {
	fields := make([]record.Field, len(specs))
	for i, s := range specs {
		variant, err := primitiveVariant(s.Variant)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", s.Name, err)
		}
		if s.Sequence {
			variant = value.Sequence{Elem: variant}
		}
		fields[i] = record.Field{Name: s.Name, Variant: variant, Required: s.Required}
	}
	return record.NewType(name, fields), nil
}

func main() {
	workflowPath := flag.String("workflow", "", "path to a workflow definition")
	inputPath := flag.String("input", "", "path to a JSON input document")
	withTelemetry := flag.Bool("telemetry", false, "wrap the run context with tracing and metrics")
	flag.Parse()

	if *workflowPath == "" || *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: flowmesh -workflow workflow.json -input input.json")
		os.Exit(2)
	}

	if err := run(*workflowPath, *inputPath, *withTelemetry); err != nil {
		fmt.Fprintln(os.Stderr, "flowmesh:", err)
		os.Exit(1)
	}
}

func run(workflowPath, inputPath string, withTelemetry bool) error {
	logger := logging.New(logging.DefaultConfig())

	specRaw, err := os.ReadFile(workflowPath)
	if err != nil {
		return fmt.Errorf("reading workflow: %w", err)
	}
	var spec workflowSpec
	if err := json.Unmarshal(specRaw, &spec); err != nil {
		return fmt.Errorf("parsing workflow: %w", err)
	}

	inputType, err := buildRecordType("Input", spec.InputType)
	if err != nil {
		return fmt.Errorf("input_type: %w", err)
	}
	outputType, err := buildRecordType("Output", spec.OutputType)
	if err != nil {
		return fmt.Errorf("output_type: %w", err)
	}

	registry := flow.NewRegistry()
	nodes.Register(registry)

	w := flow.New(spec.Nodes, spec.Edges, spec.InputEdges, spec.OutputEdges)
	if err := w.Validate(registry, inputType, outputType); err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}

	inputRaw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	var inputDoc map[string]any
	if err := json.Unmarshal(inputRaw, &inputDoc); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}

	input := make(map[string]value.Value, len(inputType.Fields))
	for _, f := range inputType.Fields {
		doc, present := inputDoc[f.Name]
		if !present {
			continue
		}
		v, err := value.FromJSON(doc, f.Variant)
		if err != nil {
			return fmt.Errorf("input field %q: %w", f.Name, err)
		}
		input[f.Name] = v
	}

	store := memctx.New()
	if err := store.PersistWorkflow(w); err != nil {
		return fmt.Errorf("persisting workflow: %w", err)
	}

	var ctx runctx.Context = store
	if withTelemetry {
		provider, err := telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
		if err != nil {
			return fmt.Errorf("starting telemetry: %w", err)
		}
		defer provider.Shutdown(context.Background())
		ctx = telemetry.NewContext(store, provider)
	}

	logger.WithRunID(store.RunID()).Info("starting run")

	errs, output := engine.Run(ctx, registry, w, inputType, outputType, input)

	result := map[string]any{
		"run_id": store.RunID(),
		"errors": errs,
		"output": toJSONMap(output),
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func toJSONMap(m map[string]value.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		doc, err := value.ToJSON(v)
		if err != nil {
			doc = fmt.Sprintf("<unencodable: %v>", err)
		}
		out[k] = doc
	}
	return out
}
