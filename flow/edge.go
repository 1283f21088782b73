package flow

import (
	"fmt"

	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/value"
)

// Edge connects the output of a source node to the input of a target
// node.
type Edge struct {
	SourceID  string
	SourceKey string
	TargetID  string
	TargetKey string
}

// InputEdge maps a field of the workflow's external input into the input
// of a target node.
type InputEdge struct {
	InputKey  string
	TargetID  string
	TargetKey string
}

// OutputEdge maps a source node's output field to a field of the
// workflow's external output.
type OutputEdge struct {
	SourceID  string
	SourceKey string
	OutputKey string
}

// ValidateTypes checks that e's source field variant is castable to its
// target field variant, and that a required target field is only fed by
// a required source field. sourceOut/targetIn are the relevant nodes'
// output/input record types.
func (e Edge) ValidateTypes(sourceOut, targetIn *record.Type) error {
	sourceField, ok := fieldByName(sourceOut, e.SourceKey)
	if !ok {
		return fmt.Errorf("flow: source node %s has no output field %q", e.SourceID, e.SourceKey)
	}
	targetField, ok := fieldByName(targetIn, e.TargetKey)
	if !ok {
		return fmt.Errorf("flow: target node %s has no input field %q", e.TargetID, e.TargetKey)
	}
	if targetField.Required && !sourceField.Required {
		return fmt.Errorf("flow: edge %s.%s -> %s.%s is required on the target but not on the source", e.SourceID, e.SourceKey, e.TargetID, e.TargetKey)
	}
	if !value.CanCastVariant(sourceField.Variant, targetField.Variant) {
		return fmt.Errorf("flow: edge %s.%s -> %s.%s has incompatible types: %s is not assignable to %s", e.SourceID, e.SourceKey, e.TargetID, e.TargetKey, sourceField.Variant.Key(), targetField.Variant.Key())
	}
	return nil
}

func (e InputEdge) ValidateTypes(inputType *record.Type, targetIn *record.Type) error {
	sourceField, ok := fieldByName(inputType, e.InputKey)
	if !ok {
		return fmt.Errorf("flow: workflow input has no field %q", e.InputKey)
	}
	targetField, ok := fieldByName(targetIn, e.TargetKey)
	if !ok {
		return fmt.Errorf("flow: target node %s has no input field %q", e.TargetID, e.TargetKey)
	}
	if targetField.Required && !sourceField.Required {
		return fmt.Errorf("flow: input edge to %s.%s is required but workflow input field %q is not", e.TargetID, e.TargetKey, e.InputKey)
	}
	if !value.CanCastVariant(sourceField.Variant, targetField.Variant) {
		return fmt.Errorf("flow: input edge to %s.%s has incompatible types: %s is not assignable to %s", e.TargetID, e.TargetKey, sourceField.Variant.Key(), targetField.Variant.Key())
	}
	return nil
}

func (e OutputEdge) ValidateTypes(sourceOut *record.Type, outputType *record.Type) error {
	sourceField, ok := fieldByName(sourceOut, e.SourceKey)
	if !ok {
		return fmt.Errorf("flow: source node %s has no output field %q", e.SourceID, e.SourceKey)
	}
	targetField, ok := fieldByName(outputType, e.OutputKey)
	if !ok {
		return fmt.Errorf("flow: workflow output has no field %q", e.OutputKey)
	}
	if targetField.Required && !sourceField.Required {
		return fmt.Errorf("flow: output edge from %s.%s is required but the source field is not", e.SourceID, e.SourceKey)
	}
	if !value.CanCastVariant(sourceField.Variant, targetField.Variant) {
		return fmt.Errorf("flow: output edge from %s.%s has incompatible types: %s is not assignable to %s", e.SourceID, e.SourceKey, sourceField.Variant.Key(), targetField.Variant.Key())
	}
	return nil
}

func fieldByName(t *record.Type, name string) (record.Field, bool) {
	if t == nil {
		return record.Field{}, false
	}
	return t.Field(name)
}
