package parser

import (
	"testing"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/cerr"
)

func mustParseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	q, err := Parse("RETURN " + src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	ret, ok := q.Clauses[0].(ast.Return)
	if !ok || len(ret.Items) != 1 {
		t.Fatalf("Parse(%q): expected single-item RETURN, got %#v", src, q.Clauses[0])
	}
	return ret.Items[0].Expr
}

func TestPrecedenceAndBindsTighterThanOr(t *testing.T) {
	// a OR b AND c  must parse as  a OR (b AND c)
	e := mustParseExpr(t, "true OR false AND false")
	bin, ok := e.(ast.Binary)
	if !ok || bin.Op != ast.OpOr {
		t.Fatalf("expected top-level Or, got %#v", e)
	}
	right, ok := bin.Right.(ast.Binary)
	if !ok || right.Op != ast.OpAnd {
		t.Fatalf("expected right side to be And, got %#v", bin.Right)
	}
}

func TestPrecedenceAdditiveBeforeMultiplicative(t *testing.T) {
	// 1 + 2 * 3  must parse as  1 + (2 * 3)
	e := mustParseExpr(t, "1 + 2 * 3")
	bin, ok := e.(ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected top-level Add, got %#v", e)
	}
	right, ok := bin.Right.(ast.Binary)
	if !ok || right.Op != ast.OpMul {
		t.Fatalf("expected right side to be Mul, got %#v", bin.Right)
	}
}

func TestPowerIsRightAssociative(t *testing.T) {
	// 2 ^ 3 ^ 2  must parse as  2 ^ (3 ^ 2)
	e := mustParseExpr(t, "2 ^ 3 ^ 2")
	bin, ok := e.(ast.Binary)
	if !ok || bin.Op != ast.OpPow {
		t.Fatalf("expected top-level Pow, got %#v", e)
	}
	if _, ok := bin.Left.(ast.LiteralExpr); !ok {
		t.Fatalf("expected left operand to be a literal (not grouped), got %#v", bin.Left)
	}
	right, ok := bin.Right.(ast.Binary)
	if !ok || right.Op != ast.OpPow {
		t.Fatalf("expected right side to be Pow, got %#v", bin.Right)
	}
}

func TestAdditiveIsLeftAssociative(t *testing.T) {
	// 1 - 2 - 3 must parse as (1 - 2) - 3
	e := mustParseExpr(t, "1 - 2 - 3")
	bin, ok := e.(ast.Binary)
	if !ok || bin.Op != ast.OpSub {
		t.Fatalf("expected top-level Sub, got %#v", e)
	}
	if _, ok := bin.Left.(ast.Binary); !ok {
		t.Fatalf("expected left operand to be a nested Sub, got %#v", bin.Left)
	}
	if _, ok := bin.Right.(ast.LiteralExpr); !ok {
		t.Fatalf("expected right operand to be a literal, got %#v", bin.Right)
	}
}

func TestNotBindsTighterThanAndLooserThanComparison(t *testing.T) {
	e := mustParseExpr(t, "NOT 1 = 2 AND true")
	bin, ok := e.(ast.Binary)
	if !ok || bin.Op != ast.OpAnd {
		t.Fatalf("expected top-level And, got %#v", e)
	}
	un, ok := bin.Left.(ast.Unary)
	if !ok || un.Op != ast.OpNot {
		t.Fatalf("expected left side to be Not, got %#v", bin.Left)
	}
	if _, ok := un.Expr.(ast.Binary); !ok {
		t.Fatalf("expected NOT's operand to be the comparison, got %#v", un.Expr)
	}
}

func TestAdditiveBindsTighterThanComparison(t *testing.T) {
	e := mustParseExpr(t, "1 + 1 = 2")
	bin, ok := e.(ast.Binary)
	if !ok || bin.Op != ast.OpEq {
		t.Fatalf("expected top-level Eq, got %#v", e)
	}
	if _, ok := bin.Left.(ast.Binary); !ok {
		t.Fatalf("expected left operand to be Add, got %#v", bin.Left)
	}
}

func TestListLiteralVsListComprehension(t *testing.T) {
	lst := mustParseExpr(t, "[1, 2, 3]")
	if _, ok := lst.(ast.List); !ok {
		t.Fatalf("expected List, got %#v", lst)
	}
	comp := mustParseExpr(t, "[x IN [1, 2, 3] WHERE x > 1]")
	if _, ok := comp.(ast.ListComprehension); !ok {
		t.Fatalf("expected ListComprehension, got %#v", comp)
	}
}

func TestMatchPatternParsing(t *testing.T) {
	q, err := Parse(`MATCH (a:Person {name: "Ada"})-[r:KNOWS]->(b:Person) RETURN a, b`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(q.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(q.Clauses))
	}
	match, ok := q.Clauses[0].(ast.Match)
	if !ok {
		t.Fatalf("expected Match, got %#v", q.Clauses[0])
	}
	if len(match.Pattern.Paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(match.Pattern.Paths))
	}
	path := match.Pattern.Paths[0]
	if len(path.Nodes) != 2 || len(path.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %d/%d", len(path.Nodes), len(path.Edges))
	}
	if path.Nodes[0].Variable != "a" || path.Nodes[0].Labels[0] != "Person" {
		t.Fatalf("unexpected first node: %#v", path.Nodes[0])
	}
	if path.Edges[0].Direction != ast.Outgoing || path.Edges[0].Types[0] != "KNOWS" {
		t.Fatalf("unexpected edge: %#v", path.Edges[0])
	}
}

func TestVariableLengthEdge(t *testing.T) {
	q, err := Parse(`MATCH (a)-[:KNOWS*1..3]->(b) RETURN a`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	match := q.Clauses[0].(ast.Match)
	edge := match.Pattern.Paths[0].Edges[0]
	if edge.Length == nil || edge.Length.Min == nil || edge.Length.Max == nil {
		t.Fatalf("expected bounded length spec, got %#v", edge.Length)
	}
	if *edge.Length.Min != 1 || *edge.Length.Max != 3 {
		t.Fatalf("expected [1,3], got [%d,%d]", *edge.Length.Min, *edge.Length.Max)
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := Parse("MATCH (")
	if err == nil {
		t.Fatal("expected parse error for truncated pattern")
	}
	// "MATCH (" is 7 bytes long; the missing ')' is detected at EOF, byte 7.
	pe, ok := err.(*cerr.ParseError)
	if !ok || pe.Position != 7 {
		t.Fatalf("expected *cerr.ParseError at byte 7, got %#v", err)
	}
}
