package planner

import (
	"testing"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/parser"
	"github.com/claude-voice/engine/internal/plan"
)

func mustPlan(t *testing.T, src string) *plan.ExecutionPlan {
	t.Helper()
	q, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	ep, err := Plan(q)
	if err != nil {
		t.Fatalf("Plan(%q): %v", src, err)
	}
	return ep
}

func TestSimpleNodeScanAndReturn(t *testing.T) {
	ep := mustPlan(t, "MATCH (a:Person) RETURN a")
	proj, ok := ep.Root.(plan.Project)
	if !ok {
		t.Fatalf("expected root Project, got %#v", ep.Root)
	}
	scan, ok := proj.Input.(plan.NodeScan)
	if !ok || scan.Label != "Person" {
		t.Fatalf("expected NodeScan(Person) below Project, got %#v", proj.Input)
	}
	if ep.EstimatedRows == 0 {
		t.Fatalf("expected non-zero estimated rows")
	}
}

func TestWhereWrapsFilterAroundScan(t *testing.T) {
	ep := mustPlan(t, "MATCH (a:Person) WHERE a.age > 30 RETURN a")
	proj := ep.Root.(plan.Project)
	filter, ok := proj.Input.(plan.Filter)
	if !ok {
		t.Fatalf("expected Filter below Project, got %#v", proj.Input)
	}
	if _, ok := filter.Input.(plan.NodeScan); !ok {
		t.Fatalf("expected NodeScan below Filter, got %#v", filter.Input)
	}
}

func TestMatchEdgeProducesExpandAndIndexRequirement(t *testing.T) {
	ep := mustPlan(t, `MATCH (a:Person {name: "Ada"})-[:KNOWS]->(b:Person) RETURN a, b`)
	proj := ep.Root.(plan.Project)
	if _, ok := proj.Input.(plan.Expand); !ok {
		t.Fatalf("expected Expand below Project, got %#v", proj.Input)
	}
	foundIndex := false
	for _, req := range ep.RequiredIndexes {
		if req.Label == "Person" && req.Property == "name" {
			foundIndex = true
		}
	}
	if !foundIndex {
		t.Fatalf("expected a Person.name index requirement, got %#v", ep.RequiredIndexes)
	}
}

func TestLimitAndSkipLiterals(t *testing.T) {
	ep := mustPlan(t, "MATCH (a) RETURN a SKIP 5 LIMIT 10")
	limit, ok := ep.Root.(plan.Limit)
	if !ok || limit.Count != 10 {
		t.Fatalf("expected Limit(10) at root, got %#v", ep.Root)
	}
	skip, ok := limit.Input.(plan.Skip)
	if !ok || skip.Count != 5 {
		t.Fatalf("expected Skip(5) below Limit, got %#v", limit.Input)
	}
}

func TestLimitRequiresIntegerLiteral(t *testing.T) {
	q := &ast.Query{Clauses: []ast.Clause{
		ast.Limit{Count: ast.Variable{Name: "n"}},
	}}
	if _, err := Plan(q); err == nil {
		t.Fatal("expected a PlanningError for non-literal LIMIT")
	}
}

func TestSecondMatchJoinsAsNestedLoop(t *testing.T) {
	ep := mustPlan(t, "MATCH (a:Person) MATCH (b:Company) RETURN a, b")
	proj := ep.Root.(plan.Project)
	if _, ok := proj.Input.(plan.NestedLoopJoin); !ok {
		t.Fatalf("expected NestedLoopJoin below Project, got %#v", proj.Input)
	}
}
