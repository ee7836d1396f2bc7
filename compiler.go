// Package engine is the compiler facade: Parse turns source text into an
// AST, Plan lowers an AST into a logical execution plan, and Compile
// chains Parse, Plan, and the optimizer's fixpoint rewrite in one call.
// This mirrors pgraph.go's PGraph facade (New/Load/Query) and
// internal/engine/engine.go's thin Execute/ExecuteWithContext wrapping
// from the original teacher tree, here applied to query compilation
// instead of graph inference.
package engine

import (
	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/compserial"
	"github.com/claude-voice/engine/internal/optimizer"
	"github.com/claude-voice/engine/internal/parser"
	"github.com/claude-voice/engine/internal/plan"
	"github.com/claude-voice/engine/internal/planner"
)

// Parse lexes and parses text into a Query AST. Errors are always a
// *internal/cerr.ParseError describing the byte offset of the failure.
func Parse(text string) (*ast.Query, error) {
	return parser.Parse(text)
}

// Plan lowers q into an unoptimized logical ExecutionPlan.
func Plan(q *ast.Query) (*plan.ExecutionPlan, error) {
	return planner.Plan(q)
}

// Compile parses text, lowers it to a plan, and runs the optimizer's
// fixpoint rewrite, returning the final ExecutionPlan.
func Compile(text string) (*plan.ExecutionPlan, error) {
	q, err := Parse(text)
	if err != nil {
		return nil, err
	}
	ep, err := Plan(q)
	if err != nil {
		return nil, err
	}
	return optimizer.Optimize(ep), nil
}

// MarshalQuery and MarshalPlan expose internal/compserial's
// kind-discriminated JSON encoding at the package root, so callers never
// need to import internal/compserial directly.
func MarshalQuery(q *ast.Query) ([]byte, error) { return compserial.MarshalQuery(q) }
func UnmarshalQuery(data []byte) (*ast.Query, error) { return compserial.UnmarshalQuery(data) }
func MarshalPlan(ep *plan.ExecutionPlan) ([]byte, error) { return compserial.MarshalPlan(ep) }
func UnmarshalPlan(data []byte) (*plan.ExecutionPlan, error) { return compserial.UnmarshalPlan(data) }
