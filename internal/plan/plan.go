// Package plan defines the logical execution plan produced by
// internal/planner and rewritten by internal/optimizer: a tree of
// relational-style PlanNode operators, again a tagged union realized as
// an interface with concrete struct implementations.
package plan

import "github.com/claude-voice/engine/internal/ast"

// IndexType enumerates the kinds of index a scan may require.
type IndexType int

const (
	BTree IndexType = iota
	Hash
	Fulltext
	Vector
)

// IndexRequirement records that a scan needs an index of Type over
// Label.Property to be efficient; the planner populates these only from
// scan nodes carrying both a label and an equality-shape property.
type IndexRequirement struct {
	Label    string
	Property string
	Type     IndexType
}

// ExecutionPlan is the top-level compiler output.
type ExecutionPlan struct {
	Root            PlanNode
	EstimatedCost   float64
	EstimatedRows   int
	RequiredIndexes []IndexRequirement

	// passesRun is the number of optimizer iterations that actually ran
	// before a structural fixpoint (or the iteration cap) was reached.
	// Set by internal/optimizer via NewExecutionPlan; read only through
	// PassesRunForTest, so tests can assert fixpoint behavior
	// deterministically without this becoming part of the public API.
	passesRun int
}

// NewExecutionPlan builds an ExecutionPlan carrying its passesRun count.
// Only internal/optimizer has a meaningful passesRun to report; other
// callers should pass 0.
func NewExecutionPlan(root PlanNode, cost float64, rows int, indexes []IndexRequirement, passesRun int) *ExecutionPlan {
	return &ExecutionPlan{
		Root:            root,
		EstimatedCost:   cost,
		EstimatedRows:   rows,
		RequiredIndexes: indexes,
		passesRun:       passesRun,
	}
}

// PassesRunForTest returns ep's passesRun count. It exists only so tests
// outside this package can assert fixpoint behavior; it is not part of
// the public API.
func PassesRunForTest(ep *ExecutionPlan) int { return ep.passesRun }

// PlanNode is one operator in the plan tree.
type PlanNode interface {
	planNode()
}

type NodeScan struct {
	Variable string
	Label    string // "" if none
}

type EdgeScan struct {
	Variable string
	Type     string // "" if none
}

type IndexSeek struct {
	Variable string
	Label    string
	Property string
	Value    ast.Expr
}

type Expand struct {
	Input        PlanNode
	FromVariable string
	EdgeVariable string
	ToVariable   string
	RelTypes     []string
	Direction    ast.Direction
	MinHops      int
	MaxHops      int
}

type Filter struct {
	Input     PlanNode
	Predicate ast.Expr
}

type ProjectItem struct {
	Expr  ast.Expr
	Alias string
}

type Project struct {
	Input PlanNode
	Items []ProjectItem
}

type SortItem struct {
	Expr      ast.Expr
	Ascending bool
}

type Sort struct {
	Input PlanNode
	Items []SortItem
}

type Limit struct {
	Input PlanNode
	Count int
}

type Skip struct {
	Input PlanNode
	Count int
}

type Distinct struct {
	Input   PlanNode
	Columns []string
}

// AggregateItem is reserved: no lowering rule in the planner produces
// Aggregate nodes today (the spec does not define an explicit aggregating
// clause), but the operator is part of the plan-node vocabulary so the
// optimizer's cost estimator and serialization both handle it.
type AggregateItem struct {
	Alias string
	Expr  ast.Expr
}

type Aggregate struct {
	Input        PlanNode
	GroupBy      []ast.Expr
	Aggregations []AggregateItem
}

type JoinKey struct {
	Left  string
	Right string
}

type HashJoin struct {
	Left  PlanNode
	Right PlanNode
	On    []JoinKey
}

type NestedLoopJoin struct {
	Outer PlanNode
	Inner PlanNode
}

type Union struct {
	Left  PlanNode
	Right PlanNode
}

// ApplyMode is the correlation mode of an Apply operator.
type ApplyMode int

const (
	Cross ApplyMode = iota
	Optional
	Semi
	AntiSemi
)

type Apply struct {
	Outer PlanNode
	Inner PlanNode
	Mode  ApplyMode
}

type Create struct {
	Input   PlanNode
	Pattern ast.Pattern
}

type SetProperty struct {
	Input PlanNode
	Items []ast.SetItem
}

type Delete struct {
	Input  PlanNode
	Items  []ast.Expr
	Detach bool
}

type EmptyResult struct{}

type SingleRow struct{}

func (NodeScan) planNode()       {}
func (EdgeScan) planNode()       {}
func (IndexSeek) planNode()      {}
func (Expand) planNode()         {}
func (Filter) planNode()         {}
func (Project) planNode()        {}
func (Sort) planNode()           {}
func (Limit) planNode()          {}
func (Skip) planNode()           {}
func (Distinct) planNode()       {}
func (Aggregate) planNode()      {}
func (HashJoin) planNode()       {}
func (NestedLoopJoin) planNode() {}
func (Union) planNode()          {}
func (Apply) planNode()          {}
func (Create) planNode()         {}
func (SetProperty) planNode()    {}
func (Delete) planNode()         {}
func (EmptyResult) planNode()    {}
func (SingleRow) planNode()      {}
