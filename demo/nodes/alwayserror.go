package nodes

import (
	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/werrors"
)

var alwaysErrorInputType = record.NewType("AlwaysErrorInput", nil)
var alwaysErrorOutputType = record.NewType("AlwaysErrorOutput", nil)

// AlwaysErrorExecutor unconditionally raises a werrors.UserError, the
// deliberate failure node used to exercise error containment and
// absorption. Grounded on the sentinel-error style of the teacher's
// executor errors, which are also never recoverable by retry.
type AlwaysErrorExecutor struct{}

func (e *AlwaysErrorExecutor) Validate(flow.Node) error { return nil }

func (e *AlwaysErrorExecutor) InputType(flow.Node) (*record.Type, error) {
	return alwaysErrorInputType, nil
}

func (e *AlwaysErrorExecutor) OutputType(flow.Node) (*record.Type, error) {
	return alwaysErrorOutputType, nil
}

func (e *AlwaysErrorExecutor) Execute(_ runctx.Context, node flow.Node, _ record.Record) (flow.Outcome, error) {
	return flow.Outcome{}, werrors.NewUserError("node %q always fails", node.ID)
}
