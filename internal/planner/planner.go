// Package planner lowers an internal/ast.Query into an internal/plan
// logical plan tree, per the clause-by-clause rules in the specification.
// The switch-on-clause-type dispatch here generalizes the
// switch-on-which-field-is-set conversion style of the teacher's
// dsl/convert.go (convertStatement/convertQuery).
package planner

import (
	"fmt"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/cerr"
	"github.com/claude-voice/engine/internal/optimizer"
	"github.com/claude-voice/engine/internal/plan"
)

type planner struct {
	varCounter      int
	requiredIndexes []plan.IndexRequirement
}

// Plan lowers q into an ExecutionPlan, beginning with SingleRow and
// threading the current plan as input to each successive clause.
func Plan(q *ast.Query) (*plan.ExecutionPlan, error) {
	pl := &planner{}
	var current plan.PlanNode = plan.SingleRow{}
	for _, c := range q.Clauses {
		var err error
		current, err = pl.lowerClause(c, current)
		if err != nil {
			return nil, err
		}
	}
	ep := &plan.ExecutionPlan{Root: current, RequiredIndexes: pl.requiredIndexes}
	ep.EstimatedCost, ep.EstimatedRows = optimizer.Estimate(ep.Root)
	return ep, nil
}

func (pl *planner) autoName() string {
	pl.varCounter++
	return fmt.Sprintf("_n%d", pl.varCounter)
}

func (pl *planner) lowerClause(c ast.Clause, current plan.PlanNode) (plan.PlanNode, error) {
	switch cl := c.(type) {
	case ast.Match:
		lowered, err := pl.lowerPattern(cl.Pattern, current)
		if err != nil {
			return nil, err
		}
		if cl.Optional {
			return plan.Apply{Outer: plan.SingleRow{}, Inner: lowered, Mode: plan.Optional}, nil
		}
		return lowered, nil

	case ast.Where:
		return plan.Filter{Input: current, Predicate: cl.Expr}, nil

	case ast.Return:
		items := make([]plan.ProjectItem, len(cl.Items))
		for i, it := range cl.Items {
			items[i] = plan.ProjectItem{Expr: it.Expr, Alias: it.Alias}
		}
		proj := plan.PlanNode(plan.Project{Input: current, Items: items})
		if cl.Distinct {
			cols := make([]string, len(items))
			for i, it := range items {
				cols[i] = it.Alias
			}
			return plan.Distinct{Input: proj, Columns: cols}, nil
		}
		return proj, nil

	case ast.With:
		items := make([]plan.ProjectItem, len(cl.Items))
		for i, it := range cl.Items {
			items[i] = plan.ProjectItem{Expr: it.Expr, Alias: it.Alias}
		}
		proj := plan.PlanNode(plan.Project{Input: current, Items: items})
		if cl.Distinct {
			cols := make([]string, len(items))
			for i, it := range items {
				cols[i] = it.Alias
			}
			return plan.Distinct{Input: proj, Columns: cols}, nil
		}
		return proj, nil

	case ast.OrderBy:
		items := make([]plan.SortItem, len(cl.Items))
		for i, it := range cl.Items {
			items[i] = plan.SortItem{Expr: it.Expr, Ascending: it.Ascending}
		}
		return plan.Sort{Input: current, Items: items}, nil

	case ast.Limit:
		n, err := literalInt(cl.Count)
		if err != nil {
			return nil, err
		}
		return plan.Limit{Input: current, Count: n}, nil

	case ast.Skip:
		n, err := literalInt(cl.Count)
		if err != nil {
			return nil, err
		}
		return plan.Skip{Input: current, Count: n}, nil

	case ast.Create:
		return plan.Create{Input: current, Pattern: cl.Pattern}, nil

	case ast.Set:
		return plan.SetProperty{Input: current, Items: cl.Items}, nil

	case ast.Delete:
		return plan.Delete{Input: current, Items: cl.Items, Detach: cl.Detach}, nil

	case ast.Unwind:
		return nil, cerr.NewPlanningError("UNWIND is reserved but not implemented")

	default:
		return nil, cerr.NewPlanningError(fmt.Sprintf("unsupported clause type %T", c))
	}
}

func literalInt(e ast.Expr) (int, error) {
	lit, ok := e.(ast.LiteralExpr)
	if !ok || lit.Value.Kind != ast.IntLit {
		return 0, cerr.NewPlanningError("LIMIT/SKIP requires an integer literal")
	}
	return int(lit.Value.I), nil
}

// lowerPattern lowers every path in pat in sequence, threading current as
// in lowerClause, per the MATCH lowering rules.
func (pl *planner) lowerPattern(pat ast.Pattern, current plan.PlanNode) (plan.PlanNode, error) {
	for _, path := range pat.Paths {
		var err error
		current, err = pl.lowerPath(path, current)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

func (pl *planner) lowerPath(path ast.PathPattern, current plan.PlanNode) (plan.PlanNode, error) {
	firstNode := path.Nodes[0]
	firstVar := firstNode.Variable
	if firstVar == "" {
		firstVar = pl.autoName()
	}
	label := ""
	if len(firstNode.Labels) > 0 {
		label = firstNode.Labels[0]
	}
	var scan plan.PlanNode = plan.NodeScan{Variable: firstVar, Label: label}
	pl.recordIndexRequirement(label, firstNode.Props)
	scan = wrapPropertyFilter(scan, firstVar, firstNode.Props)

	if _, isSingleRow := current.(plan.SingleRow); isSingleRow {
		current = scan
	} else {
		current = plan.NestedLoopJoin{Outer: current, Inner: scan}
	}

	fromVar := firstVar
	for i, edge := range path.Edges {
		toNode := path.Nodes[i+1]
		toVar := toNode.Variable
		if toVar == "" {
			toVar = pl.autoName()
		}
		edgeVar := edge.Variable
		if edgeVar == "" {
			edgeVar = pl.autoName()
		}
		minHops, maxHops := 1, 1
		if edge.Length != nil {
			if edge.Length.Min != nil {
				minHops = *edge.Length.Min
			}
			if edge.Length.Max != nil {
				maxHops = *edge.Length.Max
			}
		}
		current = plan.Expand{
			Input:        current,
			FromVariable: fromVar,
			EdgeVariable: edgeVar,
			ToVariable:   toVar,
			RelTypes:     edge.Types,
			Direction:    edge.Direction,
			MinHops:      minHops,
			MaxHops:      maxHops,
		}

		toLabel := ""
		if len(toNode.Labels) > 0 {
			toLabel = toNode.Labels[0]
		}
		pl.recordIndexRequirement(toLabel, toNode.Props)

		var predicate ast.Expr
		predicate = andProperties(predicate, edgeVar, edge.Props)
		predicate = andProperties(predicate, toVar, toNode.Props)
		if predicate != nil {
			current = plan.Filter{Input: current, Predicate: predicate}
		}

		fromVar = toVar
	}
	return current, nil
}

func (pl *planner) recordIndexRequirement(label string, props ast.PropertyMap) {
	if label == "" || len(props) == 0 {
		return
	}
	pl.requiredIndexes = append(pl.requiredIndexes, plan.IndexRequirement{
		Label:    label,
		Property: props[0].Key,
		Type:     plan.BTree,
	})
}

func wrapPropertyFilter(input plan.PlanNode, variable string, props ast.PropertyMap) plan.PlanNode {
	predicate := andProperties(nil, variable, props)
	if predicate == nil {
		return input
	}
	return plan.Filter{Input: input, Predicate: predicate}
}

// andProperties AND-combines equality predicates `variable.key = value` for
// each property onto an existing predicate (nil if none yet).
func andProperties(existing ast.Expr, variable string, props ast.PropertyMap) ast.Expr {
	for _, prop := range props {
		eq := ast.Binary{
			Left:  ast.Property_{Expr: ast.Variable{Name: variable}, Name: prop.Key},
			Op:    ast.OpEq,
			Right: prop.Value,
		}
		if existing == nil {
			existing = eq
		} else {
			existing = ast.Binary{Left: existing, Op: ast.OpAnd, Right: eq}
		}
	}
	return existing
}
