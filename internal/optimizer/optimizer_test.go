package optimizer

import (
	"testing"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/plan"
)

func TestConstantFoldingArithmetic(t *testing.T) {
	e := ast.Binary{
		Left:  ast.LiteralExpr{Value: ast.IntValue(2)},
		Op:    ast.OpAdd,
		Right: ast.LiteralExpr{Value: ast.IntValue(3)},
	}
	folded := foldExpr(e)
	lit, ok := folded.(ast.LiteralExpr)
	if !ok || lit.Value.Kind != ast.IntLit || lit.Value.I != 5 {
		t.Fatalf("expected literal 5, got %#v", folded)
	}
}

func TestConstantFoldingDivisionByZeroNotFolded(t *testing.T) {
	e := ast.Binary{
		Left:  ast.LiteralExpr{Value: ast.IntValue(1)},
		Op:    ast.OpDiv,
		Right: ast.LiteralExpr{Value: ast.IntValue(0)},
	}
	folded := foldExpr(e)
	if _, ok := folded.(ast.LiteralExpr); ok {
		t.Fatalf("division by zero must not be folded, got %#v", folded)
	}
}

func TestConstantFoldingBooleanIdentities(t *testing.T) {
	cases := []struct {
		name string
		e    ast.Expr
		want bool
	}{
		{"x AND false", ast.Binary{Left: ast.Variable{Name: "x"}, Op: ast.OpAnd, Right: ast.LiteralExpr{Value: ast.BoolValue(false)}}, false},
		{"x OR true", ast.Binary{Left: ast.Variable{Name: "x"}, Op: ast.OpOr, Right: ast.LiteralExpr{Value: ast.BoolValue(true)}}, true},
	}
	for _, c := range cases {
		folded := foldExpr(c.e)
		lit, ok := folded.(ast.LiteralExpr)
		if !ok || lit.Value.Kind != ast.BoolLit || lit.Value.B != c.want {
			t.Errorf("%s: expected literal %v, got %#v", c.name, c.want, folded)
		}
	}
}

func TestConstantFoldingIdentityPreservesVariable(t *testing.T) {
	e := ast.Binary{Left: ast.Variable{Name: "x"}, Op: ast.OpAnd, Right: ast.LiteralExpr{Value: ast.BoolValue(true)}}
	folded := foldExpr(e)
	v, ok := folded.(ast.Variable)
	if !ok || v.Name != "x" {
		t.Fatalf("expected bare Variable x, got %#v", folded)
	}
}

func TestDoubleNegationCancels(t *testing.T) {
	e := ast.Unary{Op: ast.OpNot, Expr: ast.Unary{Op: ast.OpNot, Expr: ast.Variable{Name: "x"}}}
	folded := foldExpr(e)
	v, ok := folded.(ast.Variable)
	if !ok || v.Name != "x" {
		t.Fatalf("expected NOT NOT x to fold to x, got %#v", folded)
	}
}

func TestFilterTrueRemoved(t *testing.T) {
	input := plan.NodeScan{Variable: "a"}
	ep := &plan.ExecutionPlan{Root: plan.Filter{Input: input, Predicate: ast.LiteralExpr{Value: ast.BoolValue(true)}}}
	out := Optimize(ep)
	if _, ok := out.Root.(plan.NodeScan); !ok {
		t.Fatalf("expected Filter(true) removed down to NodeScan, got %#v", out.Root)
	}
}

func TestFilterFalseBecomesEmptyResult(t *testing.T) {
	input := plan.NodeScan{Variable: "a"}
	ep := &plan.ExecutionPlan{Root: plan.Filter{Input: input, Predicate: ast.LiteralExpr{Value: ast.BoolValue(false)}}}
	out := Optimize(ep)
	if _, ok := out.Root.(plan.EmptyResult); !ok {
		t.Fatalf("expected Filter(false) -> EmptyResult, got %#v", out.Root)
	}
}

func TestPushdownThroughSort(t *testing.T) {
	sort := plan.Sort{
		Input: plan.NodeScan{Variable: "a", Label: "Person"},
		Items: []plan.SortItem{{Expr: ast.Property_{Expr: ast.Variable{Name: "a"}, Name: "age"}, Ascending: true}},
	}
	pred := ast.Binary{Left: ast.Property_{Expr: ast.Variable{Name: "a"}, Name: "age"}, Op: ast.OpGt, Right: ast.LiteralExpr{Value: ast.IntValue(30)}}
	ep := &plan.ExecutionPlan{Root: plan.Filter{Input: sort, Predicate: pred}}
	out := Optimize(ep)
	gotSort, ok := out.Root.(plan.Sort)
	if !ok {
		t.Fatalf("expected Sort pushed above the pushed-down Filter, got %#v", out.Root)
	}
	if _, ok := gotSort.Input.(plan.Filter); !ok {
		t.Fatalf("expected Filter pushed below Sort, got %#v", gotSort.Input)
	}
}

func TestSkipZeroRemoved(t *testing.T) {
	ep := &plan.ExecutionPlan{Root: plan.Skip{Input: plan.NodeScan{Variable: "a"}, Count: 0}}
	out := Optimize(ep)
	if _, ok := out.Root.(plan.NodeScan); !ok {
		t.Fatalf("expected Skip(0) removed, got %#v", out.Root)
	}
}

func TestLimitZeroBecomesEmptyResult(t *testing.T) {
	ep := &plan.ExecutionPlan{Root: plan.Limit{Input: plan.NodeScan{Variable: "a"}, Count: 0}}
	out := Optimize(ep)
	if _, ok := out.Root.(plan.EmptyResult); !ok {
		t.Fatalf("expected Limit(0) -> EmptyResult, got %#v", out.Root)
	}
}

func TestNestedDistinctCollapses(t *testing.T) {
	inner := plan.Distinct{Input: plan.NodeScan{Variable: "a"}, Columns: []string{"a"}}
	outer := plan.Distinct{Input: inner, Columns: []string{"a"}}
	ep := &plan.ExecutionPlan{Root: outer}
	out := Optimize(ep)
	d, ok := out.Root.(plan.Distinct)
	if !ok {
		t.Fatalf("expected Distinct at root, got %#v", out.Root)
	}
	if _, ok := d.Input.(plan.Distinct); ok {
		t.Fatalf("expected nested Distinct to collapse, got %#v", d.Input)
	}
}

func TestJoinReorderPutsSmallerSideOnRight(t *testing.T) {
	small := plan.IndexSeek{Variable: "a", Label: "Person", Property: "id", Value: ast.LiteralExpr{Value: ast.IntValue(1)}}
	large := plan.NodeScan{Variable: "b"} // no label: 1000/10000 estimate, much larger than IndexSeek's 10/10
	// left (small) has fewer rows than right (large): the reorder rule must
	// swap so the smaller side ends up on the right/build side.
	join := plan.HashJoin{Left: small, Right: large, On: []plan.JoinKey{{Left: "a_id", Right: "b_id"}}}
	ep := &plan.ExecutionPlan{Root: join}
	out := Optimize(ep)
	hj, ok := out.Root.(plan.HashJoin)
	if !ok {
		t.Fatalf("expected HashJoin at root, got %#v", out.Root)
	}
	if _, ok := hj.Right.(plan.IndexSeek); !ok {
		t.Fatalf("expected the smaller IndexSeek on the build (right) side, got %#v", hj.Right)
	}
}

func TestOptimizeRecordsPassesRunUntilFixpoint(t *testing.T) {
	// A single Filter(true) resolves to NodeScan in one pass; the next
	// pass finds nothing left to rewrite and the loop stops.
	ep := &plan.ExecutionPlan{Root: plan.Filter{Input: plan.NodeScan{Variable: "a"}, Predicate: ast.LiteralExpr{Value: ast.BoolValue(true)}}}
	out := Optimize(ep)
	if got := plan.PassesRunForTest(out); got != 2 {
		t.Fatalf("expected 2 passes to reach the fixpoint (one rewriting pass, one confirming pass), got %d", got)
	}
}

func TestOptimizeNoOpPlanStopsAfterOnePass(t *testing.T) {
	ep := &plan.ExecutionPlan{Root: plan.NodeScan{Variable: "a"}}
	out := Optimize(ep)
	if got := plan.PassesRunForTest(out); got != 1 {
		t.Fatalf("expected a plan already at fixpoint to stop after 1 pass, got %d", got)
	}
}

func TestEstimateLeafFormulas(t *testing.T) {
	cost, rows := Estimate(plan.NodeScan{Label: "Person"})
	if cost != 100 || rows != 1000 {
		t.Errorf("labeled NodeScan: got (%v,%v), want (100,1000)", cost, rows)
	}
	cost, rows = Estimate(plan.NodeScan{})
	if cost != 1000 || rows != 10000 {
		t.Errorf("unlabeled NodeScan: got (%v,%v), want (1000,10000)", cost, rows)
	}
	cost, rows = Estimate(plan.EmptyResult{})
	if cost != 0 || rows != 0 {
		t.Errorf("EmptyResult: got (%v,%v), want (0,0)", cost, rows)
	}
	cost, rows = Estimate(plan.SingleRow{})
	if cost != 1 || rows != 1 {
		t.Errorf("SingleRow: got (%v,%v), want (1,1)", cost, rows)
	}
}
