package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders a Query as a human-readable clause list, one numbered
// line per clause ("1. MATCH ..."). It mirrors pgraph's result.String()
// conventions (strings.Builder, fmt.Fprintf per line) rather than a
// generic AST pretty-printer.
func (q Query) String() string {
	if len(q.Clauses) == 0 {
		return "(empty query)"
	}
	var b strings.Builder
	for i, c := range q.Clauses {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, clauseString(c))
	}
	return b.String()
}

// ExprString renders e the same way Query.String() renders the
// expressions nested within its clauses. Exported so other packages
// (internal/plan's tree dump) can render an ast.Expr consistently.
func ExprString(e Expr) string { return exprString(e) }

func clauseString(c Clause) string {
	switch v := c.(type) {
	case Match:
		if v.Optional {
			return "OPTIONAL MATCH " + patternString(v.Pattern)
		}
		return "MATCH " + patternString(v.Pattern)
	case Where:
		return "WHERE " + exprString(v.Expr)
	case Return:
		return "RETURN " + returnItemsString(v.Items, v.Distinct)
	case OrderBy:
		items := make([]string, len(v.Items))
		for i, it := range v.Items {
			dir := "ASC"
			if !it.Ascending {
				dir = "DESC"
			}
			items[i] = exprString(it.Expr) + " " + dir
		}
		return "ORDER BY " + strings.Join(items, ", ")
	case Limit:
		return "LIMIT " + exprString(v.Count)
	case Skip:
		return "SKIP " + exprString(v.Count)
	case Create:
		return "CREATE " + patternString(v.Pattern)
	case Set:
		items := make([]string, len(v.Items))
		for i, it := range v.Items {
			items[i] = exprString(it.Target) + " = " + exprString(it.Value)
		}
		return "SET " + strings.Join(items, ", ")
	case Delete:
		prefix := "DELETE "
		if v.Detach {
			prefix = "DETACH DELETE "
		}
		items := make([]string, len(v.Items))
		for i, it := range v.Items {
			items[i] = exprString(it)
		}
		return prefix + strings.Join(items, ", ")
	case With:
		return "WITH " + returnItemsString(v.Items, v.Distinct)
	case Unwind:
		return "UNWIND " + exprString(v.Expr) + " AS " + v.Alias
	default:
		return fmt.Sprintf("%T", c)
	}
}

func returnItemsString(items []ReturnItem, distinct bool) string {
	parts := make([]string, len(items))
	for i, it := range items {
		s := exprString(it.Expr)
		if it.Alias != "" {
			s += " AS " + it.Alias
		}
		parts[i] = s
	}
	joined := strings.Join(parts, ", ")
	if distinct {
		return "DISTINCT " + joined
	}
	return joined
}

func patternString(p Pattern) string {
	paths := make([]string, len(p.Paths))
	for i, path := range p.Paths {
		paths[i] = pathPatternString(path)
	}
	return strings.Join(paths, ", ")
}

func pathPatternString(p PathPattern) string {
	var b strings.Builder
	for i, n := range p.Nodes {
		b.WriteString(nodePatternString(n))
		if i < len(p.Edges) {
			b.WriteString(edgePatternString(p.Edges[i]))
		}
	}
	return b.String()
}

func nodePatternString(n NodePattern) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(n.Variable)
	for _, l := range n.Labels {
		fmt.Fprintf(&b, ":%s", l)
	}
	if len(n.Props) > 0 {
		b.WriteString(" " + propertyMapString(n.Props))
	}
	b.WriteString(")")
	return b.String()
}

func edgePatternString(e EdgePattern) string {
	var inner strings.Builder
	inner.WriteString(e.Variable)
	for _, t := range e.Types {
		fmt.Fprintf(&inner, ":%s", t)
	}
	if e.Length != nil {
		inner.WriteString("*")
		if e.Length.Min != nil {
			fmt.Fprintf(&inner, "%d", *e.Length.Min)
		}
		inner.WriteString("..")
		if e.Length.Max != nil {
			fmt.Fprintf(&inner, "%d", *e.Length.Max)
		}
	}
	if len(e.Props) > 0 {
		inner.WriteString(" " + propertyMapString(e.Props))
	}
	body := "[" + inner.String() + "]"
	switch e.Direction {
	case Outgoing:
		return "-" + body + "->"
	case Incoming:
		return "<-" + body + "-"
	default:
		return "-" + body + "-"
	}
}

func propertyMapString(props PropertyMap) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Key + ": " + exprString(p.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func exprString(e Expr) string {
	switch v := e.(type) {
	case LiteralExpr:
		return literalString(v.Value)
	case Variable:
		return v.Name
	case Parameter:
		return "$" + v.Name
	case Property_:
		return exprString(v.Expr) + "." + v.Name
	case Index:
		return exprString(v.Expr) + "[" + exprString(v.Index) + "]"
	case Binary:
		return "(" + exprString(v.Left) + " " + binaryOpString(v.Op) + " " + exprString(v.Right) + ")"
	case Unary:
		return unaryOpString(v.Op) + exprString(v.Expr)
	case FunctionCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = exprString(a)
		}
		return v.Name + "(" + strings.Join(args, ", ") + ")"
	case Case:
		if v.Operand != nil {
			return "CASE " + exprString(v.Operand) + " ... END"
		}
		return "CASE ... END"
	case List:
		items := make([]string, len(v.Items))
		for i, it := range v.Items {
			items[i] = exprString(it)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case Map:
		return propertyMapString(v.Entries)
	case PatternComprehension:
		return "[" + v.Variable + " IN " + patternString(v.Pattern) + " | " + exprString(v.Project) + "]"
	case ListComprehension:
		return "[" + v.Variable + " IN " + exprString(v.Source) + " | " + exprString(v.Project) + "]"
	case Exists:
		return "EXISTS " + patternString(v.Pattern)
	case Count:
		return "COUNT " + patternString(v.Pattern)
	default:
		return fmt.Sprintf("%T", e)
	}
}

func literalString(l Literal) string {
	switch l.Kind {
	case NullLit:
		return "null"
	case BoolLit:
		return strconv.FormatBool(l.B)
	case IntLit:
		return strconv.FormatInt(l.I, 10)
	case FloatLit:
		return strconv.FormatFloat(l.F, 'g', -1, 64)
	case StringLit:
		return strconv.Quote(l.S)
	default:
		return "?"
	}
}

func binaryOpString(op BinaryOp) string {
	switch op {
	case OpOr:
		return "OR"
	case OpXor:
		return "XOR"
	case OpAnd:
		return "AND"
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpContains:
		return "CONTAINS"
	case OpStartsWith:
		return "STARTS WITH"
	case OpEndsWith:
		return "ENDS WITH"
	case OpIn:
		return "IN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpPow:
		return "^"
	default:
		return "?"
	}
}

func unaryOpString(op UnaryOp) string {
	switch op {
	case OpNot:
		return "NOT "
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	default:
		return "?"
	}
}
