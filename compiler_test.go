package engine

import (
	"testing"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/cerr"
	"github.com/claude-voice/engine/internal/plan"
)

func TestCompileSimpleScan(t *testing.T) {
	ep, err := Compile("MATCH (a:Person) RETURN a")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := ep.Root.(plan.Project); !ok {
		t.Fatalf("expected Project at root, got %#v", ep.Root)
	}
}

func TestCompileFilteredScanFoldsAwayTrueFilter(t *testing.T) {
	// A filter predicate that folds to a literal true must disappear
	// entirely from the optimized plan.
	ep, err := Compile("MATCH (a:Person) WHERE true RETURN a")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	proj, ok := ep.Root.(plan.Project)
	if !ok {
		t.Fatalf("expected Project at root, got %#v", ep.Root)
	}
	if _, ok := proj.Input.(plan.NodeScan); !ok {
		t.Fatalf("expected WHERE true to fold away, leaving NodeScan below Project; got %#v", proj.Input)
	}
}

func TestCompileJoinOfTwoPatterns(t *testing.T) {
	ep, err := Compile("MATCH (a:Person) MATCH (b:Company) RETURN a, b LIMIT 20")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	limit, ok := ep.Root.(plan.Limit)
	if !ok || limit.Count != 20 {
		t.Fatalf("expected Limit(20) at root, got %#v", ep.Root)
	}
	if ep.EstimatedRows < 0 {
		t.Fatalf("estimated rows must never be negative, got %d", ep.EstimatedRows)
	}
}

func TestParseErrorType(t *testing.T) {
	_, err := Parse("RETURN (")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if _, ok := err.(*cerr.ParseError); !ok {
		t.Fatalf("expected *cerr.ParseError, got %T", err)
	}
}

func TestPlanErrorType(t *testing.T) {
	q := &ast.Query{Clauses: []ast.Clause{ast.Unwind{Expr: ast.LiteralExpr{Value: ast.IntValue(1)}, Alias: "x"}}}
	_, err := Plan(q)
	if err == nil {
		t.Fatal("expected a planning error for UNWIND")
	}
	if _, ok := err.(*cerr.PlanningError); !ok {
		t.Fatalf("expected *cerr.PlanningError, got %T", err)
	}
}

func TestQuerySerializationRoundTrip(t *testing.T) {
	q, err := Parse(`MATCH (a:Person) WHERE a.age > 30 RETURN a.name AS n ORDER BY n LIMIT 10`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := MarshalQuery(q)
	if err != nil {
		t.Fatalf("MarshalQuery: %v", err)
	}
	got, err := UnmarshalQuery(data)
	if err != nil {
		t.Fatalf("UnmarshalQuery: %v", err)
	}
	data2, err := MarshalQuery(got)
	if err != nil {
		t.Fatalf("MarshalQuery (2nd): %v", err)
	}
	if string(data) != string(data2) {
		t.Fatalf("round-tripped query did not re-serialize identically:\n  first:  %s\n  second: %s", data, data2)
	}
}
