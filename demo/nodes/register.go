package nodes

import "github.com/flowmesh/engine/flow"

// Register binds every node type this package implements into r, the
// demo analogue of the teacher's registry.MustRegister bootstrap calls in
// its executor package init.
func Register(r *flow.Registry) {
	r.Register("constant", &ConstantExecutor{})
	r.Register("add", &AddExecutor{})
	r.Register("always_error", &AlwaysErrorExecutor{})
	r.Register("append_to_file", &AppendToFileExecutor{})
	r.Register("foreach", &ForEachExecutor{})
	r.Register("conditional", &ConditionalExecutor{})

	r.Register("internal_literal", &ConstantExecutor{})
	r.Register("internal_collect", &CollectExecutor{})
}
