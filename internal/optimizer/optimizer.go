// Package optimizer rewrites an internal/plan.ExecutionPlan to a
// structural fixpoint (constant folding, predicate pushdown, redundancy
// elimination, join reordering) and recomputes its cost/row estimates.
package optimizer

import (
	"math"
	"reflect"
	"strings"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/plan"
)

const maxIterations = 10

// Optimize applies optimizeOnce up to maxIterations times, stopping early
// on a structural fixpoint. The fixpoint check is intentionally
// conservative: reflect.DeepEqual already treats distinct concrete types
// (distinct PlanNode variants) as unequal and, for equal variants,
// compares every field — at least as strict as the "identifying fields"
// rule the specification requires, so it never under-counts iterations.
func Optimize(ep *plan.ExecutionPlan) *plan.ExecutionPlan {
	root := ep.Root
	passesRun := 0
	for i := 0; i < maxIterations; i++ {
		next := optimizeOnce(root)
		stop := reflect.DeepEqual(next, root)
		root = next
		passesRun++
		if stop {
			break
		}
	}
	cost, rows := Estimate(root)
	return plan.NewExecutionPlan(root, cost, rows, ep.RequiredIndexes, passesRun)
}

func optimizeOnce(node plan.PlanNode) plan.PlanNode {
	switch n := node.(type) {
	case plan.Filter:
		input := optimizeOnce(n.Input)
		pred := foldExpr(n.Predicate)
		if isBoolLiteral(pred, true) {
			return input
		}
		if isBoolLiteral(pred, false) {
			return plan.EmptyResult{}
		}
		return pushdownFilter(plan.Filter{Input: input, Predicate: pred})

	case plan.Project:
		items := make([]plan.ProjectItem, len(n.Items))
		for i, it := range n.Items {
			items[i] = plan.ProjectItem{Expr: foldExpr(it.Expr), Alias: it.Alias}
		}
		return plan.Project{Input: optimizeOnce(n.Input), Items: items}

	case plan.Sort:
		items := make([]plan.SortItem, len(n.Items))
		for i, it := range n.Items {
			items[i] = plan.SortItem{Expr: foldExpr(it.Expr), Ascending: it.Ascending}
		}
		return plan.Sort{Input: optimizeOnce(n.Input), Items: items}

	case plan.Limit:
		input := optimizeOnce(n.Input)
		if n.Count == 0 {
			return plan.EmptyResult{}
		}
		return plan.Limit{Input: input, Count: n.Count}

	case plan.Skip:
		input := optimizeOnce(n.Input)
		if n.Count == 0 {
			return input
		}
		return plan.Skip{Input: input, Count: n.Count}

	case plan.Distinct:
		input := optimizeOnce(n.Input)
		if inner, ok := input.(plan.Distinct); ok {
			return inner
		}
		return plan.Distinct{Input: input, Columns: n.Columns}

	case plan.Expand:
		n.Input = optimizeOnce(n.Input)
		return n

	case plan.HashJoin:
		left := optimizeOnce(n.Left)
		right := optimizeOnce(n.Right)
		_, leftRows := Estimate(left)
		_, rightRows := Estimate(right)
		if leftRows < rightRows {
			swapped := make([]plan.JoinKey, len(n.On))
			for i, k := range n.On {
				swapped[i] = plan.JoinKey{Left: k.Right, Right: k.Left}
			}
			return plan.HashJoin{Left: right, Right: left, On: swapped}
		}
		return plan.HashJoin{Left: left, Right: right, On: n.On}

	case plan.NestedLoopJoin:
		return plan.NestedLoopJoin{Outer: optimizeOnce(n.Outer), Inner: optimizeOnce(n.Inner)}

	case plan.Union:
		return plan.Union{Left: optimizeOnce(n.Left), Right: optimizeOnce(n.Right)}

	case plan.Apply:
		return plan.Apply{Outer: optimizeOnce(n.Outer), Inner: optimizeOnce(n.Inner), Mode: n.Mode}

	case plan.Create:
		return plan.Create{Input: optimizeOnce(n.Input), Pattern: n.Pattern}

	case plan.SetProperty:
		return plan.SetProperty{Input: optimizeOnce(n.Input), Items: n.Items}

	case plan.Delete:
		return plan.Delete{Input: optimizeOnce(n.Input), Items: n.Items, Detach: n.Detach}

	case plan.Aggregate:
		return plan.Aggregate{Input: optimizeOnce(n.Input), GroupBy: n.GroupBy, Aggregations: n.Aggregations}

	default:
		// NodeScan, EdgeScan, IndexSeek, EmptyResult, SingleRow: leaves.
		return node
	}
}

// pushdownFilter applies the predicate-pushdown rules for a Filter whose
// Input has already been recursively optimized.
func pushdownFilter(f plan.Filter) plan.PlanNode {
	switch child := f.Input.(type) {
	case plan.Project:
		if isPureOverVariables(f.Predicate) {
			return plan.Project{Input: plan.Filter{Input: child.Input, Predicate: f.Predicate}, Items: child.Items}
		}
		return f

	case plan.Sort:
		return plan.Sort{Input: plan.Filter{Input: child.Input, Predicate: f.Predicate}, Items: child.Items}

	case plan.Filter:
		merged := ast.Expr(ast.Binary{Left: child.Predicate, Op: ast.OpAnd, Right: f.Predicate})
		return pushdownFilter(plan.Filter{Input: child.Input, Predicate: merged})

	case plan.Expand:
		fromOnly, rest := splitConjuncts(f.Predicate, child.FromVariable)
		if fromOnly == nil {
			return f
		}
		newExpand := child
		newExpand.Input = plan.Filter{Input: child.Input, Predicate: fromOnly}
		if rest == nil {
			return newExpand
		}
		return plan.Filter{Input: newExpand, Predicate: rest}

	default:
		return f
	}
}

// splitConjuncts splits predicate on top-level AND conjuncts into those
// referencing only variable (AND-combined) and the remainder
// (AND-combined); either half may be nil.
func splitConjuncts(predicate ast.Expr, variable string) (onlyVar ast.Expr, rest ast.Expr) {
	for _, conjunct := range flattenAnd(predicate) {
		if referencesOnly(conjunct, variable) {
			onlyVar = andExpr(onlyVar, conjunct)
		} else {
			rest = andExpr(rest, conjunct)
		}
	}
	return onlyVar, rest
}

func flattenAnd(e ast.Expr) []ast.Expr {
	if b, ok := e.(ast.Binary); ok && b.Op == ast.OpAnd {
		return append(flattenAnd(b.Left), flattenAnd(b.Right)...)
	}
	return []ast.Expr{e}
}

func andExpr(existing ast.Expr, next ast.Expr) ast.Expr {
	if existing == nil {
		return next
	}
	return ast.Binary{Left: existing, Op: ast.OpAnd, Right: next}
}

// referencesOnly reports whether every Variable reference within e is
// named variable (no references at all also qualifies).
func referencesOnly(e ast.Expr, variable string) bool {
	for _, name := range referencedVariables(e) {
		if name != variable {
			return false
		}
	}
	return true
}

func referencedVariables(e ast.Expr) []string {
	switch v := e.(type) {
	case ast.Variable:
		return []string{v.Name}
	case ast.Property_:
		return referencedVariables(v.Expr)
	case ast.Index:
		return append(referencedVariables(v.Expr), referencedVariables(v.Index)...)
	case ast.Binary:
		return append(referencedVariables(v.Left), referencedVariables(v.Right)...)
	case ast.Unary:
		return referencedVariables(v.Expr)
	case ast.FunctionCall:
		var names []string
		for _, a := range v.Args {
			names = append(names, referencedVariables(a)...)
		}
		return names
	case ast.List:
		var names []string
		for _, it := range v.Items {
			names = append(names, referencedVariables(it)...)
		}
		return names
	default:
		return nil
	}
}

// isPureOverVariables reports whether e is built entirely from
// Variable/Literal/Property/Binary/Unary nodes.
func isPureOverVariables(e ast.Expr) bool {
	switch v := e.(type) {
	case ast.LiteralExpr, ast.Variable:
		return true
	case ast.Property_:
		return isPureOverVariables(v.Expr)
	case ast.Binary:
		return isPureOverVariables(v.Left) && isPureOverVariables(v.Right)
	case ast.Unary:
		return isPureOverVariables(v.Expr)
	default:
		return false
	}
}

// --- constant folding ---

func foldExpr(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case ast.LiteralExpr, ast.Variable, ast.Parameter:
		return v
	case ast.Property_:
		return ast.Property_{Expr: foldExpr(v.Expr), Name: v.Name}
	case ast.Index:
		return ast.Index{Expr: foldExpr(v.Expr), Index: foldExpr(v.Index)}
	case ast.Unary:
		return foldUnary(v)
	case ast.Binary:
		return foldBinary(v)
	case ast.FunctionCall:
		args := make([]ast.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = foldExpr(a)
		}
		return ast.FunctionCall{Name: v.Name, Args: args}
	case ast.Case:
		var operand ast.Expr
		if v.Operand != nil {
			operand = foldExpr(v.Operand)
		}
		whens := make([]ast.WhenClause, len(v.Whens))
		for i, w := range v.Whens {
			whens[i] = ast.WhenClause{When: foldExpr(w.When), Then: foldExpr(w.Then)}
		}
		var elseE ast.Expr
		if v.Else != nil {
			elseE = foldExpr(v.Else)
		}
		return ast.Case{Operand: operand, Whens: whens, Else: elseE}
	case ast.List:
		items := make([]ast.Expr, len(v.Items))
		for i, it := range v.Items {
			items[i] = foldExpr(it)
		}
		return ast.List{Items: items}
	case ast.Map:
		entries := make(ast.PropertyMap, len(v.Entries))
		for i, p := range v.Entries {
			entries[i] = ast.Property{Key: p.Key, Value: foldExpr(p.Value)}
		}
		return ast.Map{Entries: entries}
	default:
		// PatternComprehension, ListComprehension, Exists, Count: no
		// constant-foldable subexpressions defined by the spec.
		return e
	}
}

func foldUnary(v ast.Unary) ast.Expr {
	inner := foldExpr(v.Expr)
	if lit, ok := inner.(ast.LiteralExpr); ok {
		switch v.Op {
		case ast.OpNot:
			if lit.Value.Kind == ast.BoolLit {
				return ast.LiteralExpr{Value: ast.BoolValue(!lit.Value.B)}
			}
		case ast.OpNeg:
			switch lit.Value.Kind {
			case ast.IntLit:
				return ast.LiteralExpr{Value: ast.IntValue(-lit.Value.I)}
			case ast.FloatLit:
				return ast.LiteralExpr{Value: ast.FloatValue(-lit.Value.F)}
			}
		case ast.OpPos:
			return lit
		}
	}
	if innerUnary, ok := inner.(ast.Unary); ok && innerUnary.Op == v.Op && (v.Op == ast.OpNot || v.Op == ast.OpNeg) {
		return innerUnary.Expr
	}
	return ast.Unary{Op: v.Op, Expr: inner}
}

func foldBinary(v ast.Binary) ast.Expr {
	left := foldExpr(v.Left)
	right := foldExpr(v.Right)
	if folded, ok := foldBinaryLiterals(left, v.Op, right); ok {
		return folded
	}
	if folded, ok := foldAlgebraic(left, v.Op, right); ok {
		return folded
	}
	return ast.Binary{Left: left, Op: v.Op, Right: right}
}

func isNumeric(v ast.Literal) bool { return v.Kind == ast.IntLit || v.Kind == ast.FloatLit }

func numF(v ast.Literal) float64 {
	if v.Kind == ast.IntLit {
		return float64(v.I)
	}
	return v.F
}

func foldBinaryLiterals(left ast.Expr, op ast.BinaryOp, right ast.Expr) (ast.Expr, bool) {
	ll, lok := left.(ast.LiteralExpr)
	rl, rok := right.(ast.LiteralExpr)
	if !lok || !rok {
		return nil, false
	}
	a, b := ll.Value, rl.Value
	switch op {
	case ast.OpAdd:
		if a.Kind == ast.IntLit && b.Kind == ast.IntLit {
			return ast.LiteralExpr{Value: ast.IntValue(a.I + b.I)}, true
		}
		if isNumeric(a) && isNumeric(b) {
			return ast.LiteralExpr{Value: ast.FloatValue(numF(a) + numF(b))}, true
		}
	case ast.OpSub:
		if a.Kind == ast.IntLit && b.Kind == ast.IntLit {
			return ast.LiteralExpr{Value: ast.IntValue(a.I - b.I)}, true
		}
		if isNumeric(a) && isNumeric(b) {
			return ast.LiteralExpr{Value: ast.FloatValue(numF(a) - numF(b))}, true
		}
	case ast.OpMul:
		if a.Kind == ast.IntLit && b.Kind == ast.IntLit {
			return ast.LiteralExpr{Value: ast.IntValue(a.I * b.I)}, true
		}
		if isNumeric(a) && isNumeric(b) {
			return ast.LiteralExpr{Value: ast.FloatValue(numF(a) * numF(b))}, true
		}
	case ast.OpDiv:
		if a.Kind == ast.IntLit && b.Kind == ast.IntLit {
			if b.I == 0 {
				return nil, false
			}
			return ast.LiteralExpr{Value: ast.IntValue(a.I / b.I)}, true
		}
		if isNumeric(a) && isNumeric(b) {
			if numF(b) == 0 {
				return nil, false
			}
			return ast.LiteralExpr{Value: ast.FloatValue(numF(a) / numF(b))}, true
		}
	case ast.OpMod:
		if a.Kind == ast.IntLit && b.Kind == ast.IntLit {
			if b.I == 0 {
				return nil, false
			}
			return ast.LiteralExpr{Value: ast.IntValue(a.I % b.I)}, true
		}
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if a.Kind == ast.IntLit && b.Kind == ast.IntLit {
			return ast.LiteralExpr{Value: ast.BoolValue(intCompare(a.I, op, b.I))}, true
		}
		if (op == ast.OpEq || op == ast.OpNeq) && a.Kind == ast.StringLit && b.Kind == ast.StringLit {
			eq := a.S == b.S
			if op == ast.OpNeq {
				eq = !eq
			}
			return ast.LiteralExpr{Value: ast.BoolValue(eq)}, true
		}
	case ast.OpContains:
		if a.Kind == ast.StringLit && b.Kind == ast.StringLit {
			return ast.LiteralExpr{Value: ast.BoolValue(strings.Contains(a.S, b.S))}, true
		}
	case ast.OpStartsWith:
		if a.Kind == ast.StringLit && b.Kind == ast.StringLit {
			return ast.LiteralExpr{Value: ast.BoolValue(strings.HasPrefix(a.S, b.S))}, true
		}
	case ast.OpEndsWith:
		if a.Kind == ast.StringLit && b.Kind == ast.StringLit {
			return ast.LiteralExpr{Value: ast.BoolValue(strings.HasSuffix(a.S, b.S))}, true
		}
	case ast.OpAnd:
		if a.Kind == ast.BoolLit && b.Kind == ast.BoolLit {
			return ast.LiteralExpr{Value: ast.BoolValue(a.B && b.B)}, true
		}
	case ast.OpOr:
		if a.Kind == ast.BoolLit && b.Kind == ast.BoolLit {
			return ast.LiteralExpr{Value: ast.BoolValue(a.B || b.B)}, true
		}
	case ast.OpXor:
		if a.Kind == ast.BoolLit && b.Kind == ast.BoolLit {
			return ast.LiteralExpr{Value: ast.BoolValue(a.B != b.B)}, true
		}
	}
	return nil, false
}

func intCompare(a int64, op ast.BinaryOp, b int64) bool {
	switch op {
	case ast.OpEq:
		return a == b
	case ast.OpNeq:
		return a != b
	case ast.OpLt:
		return a < b
	case ast.OpLe:
		return a <= b
	case ast.OpGt:
		return a > b
	case ast.OpGe:
		return a >= b
	default:
		return false
	}
}

// foldAlgebraic applies the identities that don't require both operands
// to be literal: x AND true/false, x OR true/false, x+0, x-0, x*1, x/1, x*0.
func foldAlgebraic(left ast.Expr, op ast.BinaryOp, right ast.Expr) (ast.Expr, bool) {
	switch op {
	case ast.OpAnd:
		if isBoolLiteral(right, true) {
			return left, true
		}
		if isBoolLiteral(right, false) {
			return ast.LiteralExpr{Value: ast.BoolValue(false)}, true
		}
		if isBoolLiteral(left, true) {
			return right, true
		}
		if isBoolLiteral(left, false) {
			return ast.LiteralExpr{Value: ast.BoolValue(false)}, true
		}
	case ast.OpOr:
		if isBoolLiteral(right, false) {
			return left, true
		}
		if isBoolLiteral(right, true) {
			return ast.LiteralExpr{Value: ast.BoolValue(true)}, true
		}
		if isBoolLiteral(left, false) {
			return right, true
		}
		if isBoolLiteral(left, true) {
			return ast.LiteralExpr{Value: ast.BoolValue(true)}, true
		}
	case ast.OpAdd, ast.OpSub:
		if isZeroLiteral(right) {
			return left, true
		}
	case ast.OpMul:
		if isOneLiteral(right) {
			return left, true
		}
		if isZeroLiteral(right) {
			return zeroLike(right), true
		}
	case ast.OpDiv:
		if isOneLiteral(right) {
			return left, true
		}
	}
	return nil, false
}

func isBoolLiteral(e ast.Expr, want bool) bool {
	lit, ok := e.(ast.LiteralExpr)
	return ok && lit.Value.Kind == ast.BoolLit && lit.Value.B == want
}

func isZeroLiteral(e ast.Expr) bool {
	lit, ok := e.(ast.LiteralExpr)
	if !ok {
		return false
	}
	return (lit.Value.Kind == ast.IntLit && lit.Value.I == 0) || (lit.Value.Kind == ast.FloatLit && lit.Value.F == 0)
}

func isOneLiteral(e ast.Expr) bool {
	lit, ok := e.(ast.LiteralExpr)
	if !ok {
		return false
	}
	return (lit.Value.Kind == ast.IntLit && lit.Value.I == 1) || (lit.Value.Kind == ast.FloatLit && lit.Value.F == 1)
}

func zeroLike(e ast.Expr) ast.Expr {
	lit := e.(ast.LiteralExpr)
	if lit.Value.Kind == ast.FloatLit {
		return ast.LiteralExpr{Value: ast.FloatValue(0)}
	}
	return ast.LiteralExpr{Value: ast.IntValue(0)}
}

// --- cost / row estimator ---

// Estimate computes (cost, rows) for node per the fixed formula table.
func Estimate(node plan.PlanNode) (float64, int) {
	switch n := node.(type) {
	case plan.EmptyResult:
		return 0, 0
	case plan.SingleRow:
		return 1, 1
	case plan.NodeScan:
		if n.Label != "" {
			return 100, 1000
		}
		return 1000, 10000
	case plan.EdgeScan:
		if n.Type != "" {
			return 200, 5000
		}
		return 2000, 50000
	case plan.IndexSeek:
		return 10, 10
	case plan.Filter:
		cc, cr := Estimate(n.Input)
		return 1.1 * cc, cr / 10
	case plan.Project:
		cc, cr := Estimate(n.Input)
		return 1.05 * cc, cr
	case plan.Sort:
		cc, cr := Estimate(n.Input)
		nF := float64(cr)
		var log2n float64
		if nF > 0 {
			log2n = math.Log2(nF)
		}
		return cc + nF*log2n, cr
	case plan.Limit:
		cc, cr := Estimate(n.Input)
		rows := cr
		if n.Count < rows {
			rows = n.Count
		}
		return cc, rows
	case plan.Skip:
		cc, cr := Estimate(n.Input)
		rows := cr - n.Count
		if rows < 0 {
			rows = 0
		}
		return cc, rows
	case plan.Distinct:
		cc, cr := Estimate(n.Input)
		return cc, cr / 2
	case plan.Expand:
		cc, cr := Estimate(n.Input)
		return 10 * cc, 5 * cr
	case plan.HashJoin:
		lc, lr := Estimate(n.Left)
		rc, rr := Estimate(n.Right)
		return lc + 2*rc, (lr * rr) / 100
	case plan.NestedLoopJoin:
		oc, orows := Estimate(n.Outer)
		ic, irows := Estimate(n.Inner)
		return oc * ic, (orows * irows) / 10
	default:
		return 100, 1000
	}
}
