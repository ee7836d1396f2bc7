package compserial

import (
	"reflect"
	"testing"

	"github.com/claude-voice/engine/internal/optimizer"
	"github.com/claude-voice/engine/internal/parser"
	"github.com/claude-voice/engine/internal/plan"
	"github.com/claude-voice/engine/internal/planner"
)

func TestQueryRoundTrip(t *testing.T) {
	srcs := []string{
		`MATCH (a:Person {name: "Ada"}) WHERE a.age > 30 RETURN a.name AS n ORDER BY n LIMIT 10`,
		`MATCH (a)-[r:KNOWS*1..3]->(b) RETURN a, b, r`,
		`MATCH (a) WHERE a.x IN [1, 2, 3] OR NOT a.y = true RETURN a SKIP 1 LIMIT 2`,
		`CREATE (a:Person {name: "Bob"}) SET a.age = 42`,
		`MATCH (a) DETACH DELETE a`,
	}
	for _, src := range srcs {
		q, err := parser.Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		data, err := MarshalQuery(q)
		if err != nil {
			t.Fatalf("MarshalQuery(%q): %v", src, err)
		}
		got, err := UnmarshalQuery(data)
		if err != nil {
			t.Fatalf("UnmarshalQuery(%q): %v", src, err)
		}
		if !reflect.DeepEqual(q, got) {
			t.Errorf("round trip mismatch for %q:\n  want %#v\n  got  %#v", src, q, got)
		}
	}
}

func TestPlanRoundTrip(t *testing.T) {
	srcs := []string{
		`MATCH (a:Person {name: "Ada"})-[:KNOWS]->(b:Person) WHERE a.age > 30 RETURN a, b LIMIT 5`,
		`MATCH (a:Person) MATCH (b:Company) RETURN a, b`,
	}
	for _, src := range srcs {
		q, err := parser.Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		ep, err := planner.Plan(q)
		if err != nil {
			t.Fatalf("Plan(%q): %v", src, err)
		}
		ep = optimizer.Optimize(ep)
		data, err := MarshalPlan(ep)
		if err != nil {
			t.Fatalf("MarshalPlan(%q): %v", src, err)
		}
		got, err := UnmarshalPlan(data)
		if err != nil {
			t.Fatalf("UnmarshalPlan(%q): %v", src, err)
		}
		// The optimizer's pass count is not encoded, so the expected plan
		// carries every encoded field of ep and a zero pass count.
		want := &plan.ExecutionPlan{Root: ep.Root, EstimatedCost: ep.EstimatedCost, EstimatedRows: ep.EstimatedRows, RequiredIndexes: ep.RequiredIndexes}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("round trip mismatch for %q:\n  want %#v\n  got  %#v", src, want, got)
		}
	}
}
