package nodes

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
	"github.com/flowmesh/engine/vfile"
)

var appendToFileInputType = record.NewType("AppendToFileInput", []record.Field{
	{Name: "file", Variant: vfile.TextKind, Required: true},
	{Name: "text", Variant: value.String, Required: true},
})

var appendToFileOutputType = record.NewType("AppendToFileOutput", []record.Field{
	{Name: "file", Variant: vfile.TextKind, Required: true},
})

// AppendToFileParams configures an AppendToFile node: Suffix is inserted
// before the input file's extension to form the output file's path
// ("test.txt" with suffix "_append" -> "test_append.txt"), matching the
// reference implementation's AppendToFileParams.
type AppendToFileParams struct {
	Suffix string `json:"suffix"`
}

func decodeAppendToFileParams(node flow.Node) (AppendToFileParams, error) {
	var p AppendToFileParams
	if len(node.Params) == 0 {
		return p, fmt.Errorf("append_to_file node %s: missing params", node.ID)
	}
	if err := json.Unmarshal(node.Params, &p); err != nil {
		return p, fmt.Errorf("append_to_file node %s: invalid params: %w", node.ID, err)
	}
	if p.Suffix == "" {
		return p, fmt.Errorf("append_to_file node %s: params.suffix must be non-empty", node.ID)
	}
	return p, nil
}

// suffixedPath inserts suffix before path's extension, or appends it
// outright if path has none ("test" -> "test_append").
func suffixedPath(path, suffix string) string {
	if dot := strings.LastIndex(path, "."); dot > 0 {
		return path[:dot] + suffix + path[dot:]
	}
	return path + suffix
}

// AppendToFileExecutor reads a text file, appends the given text, and
// writes the result back under the input path with its configured suffix
// inserted before the extension. There is no dedicated teacher executor
// for file I/O, so this is grounded directly on the already-adapted vfile
// package's Read/WriteAt contract instead.
type AppendToFileExecutor struct{}

func (e *AppendToFileExecutor) Validate(node flow.Node) error {
	_, err := decodeAppendToFileParams(node)
	return err
}

func (e *AppendToFileExecutor) InputType(flow.Node) (*record.Type, error) {
	return appendToFileInputType, nil
}

func (e *AppendToFileExecutor) OutputType(flow.Node) (*record.Type, error) {
	return appendToFileOutputType, nil
}

func (e *AppendToFileExecutor) Execute(ctx runctx.Context, node flow.Node, input record.Record) (flow.Outcome, error) {
	p, err := decodeAppendToFileParams(node)
	if err != nil {
		return flow.Outcome{}, err
	}

	fileVal, _ := input.Get("file")
	textVal, _ := input.Get("text")

	f, ok := fileVal.Payload().(vfile.File)
	if !ok {
		return flow.Outcome{}, fmt.Errorf("append_to_file: field %q is not a File", "file")
	}
	text, _ := textVal.String()

	content, err := f.Read(ctx)
	if err != nil {
		return flow.Outcome{}, err
	}

	written, err := vfile.WriteAt(ctx, vfile.TextKind, suffixedPath(f.Path, p.Suffix), append(content, text...))
	if err != nil {
		return flow.Outcome{}, err
	}

	out, err := appendToFileOutputType.Validate(map[string]value.Value{
		"file": value.New(vfile.TextKind, written),
	})
	return flow.Outcome{Output: out}, err
}
