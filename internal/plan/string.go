package plan

import (
	"fmt"
	"strings"

	"github.com/claude-voice/engine/internal/ast"
)

// String renders an ExecutionPlan as an indented operator tree, in the
// spirit of pgraph's result.String() (strings.Builder, manual indent)
// rather than a generic pretty-printer — useful for eyeballing a
// compiled plan from the CLI.
func (ep *ExecutionPlan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cost: %.2f  Rows: %d\n", ep.EstimatedCost, ep.EstimatedRows)
	if len(ep.RequiredIndexes) > 0 {
		b.WriteString("Required indexes:\n")
		for _, idx := range ep.RequiredIndexes {
			fmt.Fprintf(&b, "  %s.%s (%s)\n", idx.Label, idx.Property, indexTypeString(idx.Type))
		}
	}
	writeNode(&b, ep.Root, 0)
	return strings.TrimRight(b.String(), "\n")
}

func indexTypeString(t IndexType) string {
	switch t {
	case BTree:
		return "btree"
	case Hash:
		return "hash"
	case Fulltext:
		return "fulltext"
	case Vector:
		return "vector"
	default:
		return "unknown"
	}
}

func writeNode(b *strings.Builder, node PlanNode, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case NodeScan:
		fmt.Fprintf(b, "%sNodeScan(%s:%s)\n", indent, n.Variable, n.Label)
	case EdgeScan:
		fmt.Fprintf(b, "%sEdgeScan(%s:%s)\n", indent, n.Variable, n.Type)
	case IndexSeek:
		fmt.Fprintf(b, "%sIndexSeek(%s.%s=%s)\n", indent, n.Variable, n.Property, ast.ExprString(n.Value))
	case Expand:
		fmt.Fprintf(b, "%sExpand(%s-[%s]->%s)\n", indent, n.FromVariable, n.EdgeVariable, n.ToVariable)
		writeNode(b, n.Input, depth+1)
	case Filter:
		fmt.Fprintf(b, "%sFilter\n", indent)
		writeNode(b, n.Input, depth+1)
	case Project:
		fmt.Fprintf(b, "%sProject(%d items)\n", indent, len(n.Items))
		writeNode(b, n.Input, depth+1)
	case Sort:
		fmt.Fprintf(b, "%sSort(%d keys)\n", indent, len(n.Items))
		writeNode(b, n.Input, depth+1)
	case Limit:
		fmt.Fprintf(b, "%sLimit(%d)\n", indent, n.Count)
		writeNode(b, n.Input, depth+1)
	case Skip:
		fmt.Fprintf(b, "%sSkip(%d)\n", indent, n.Count)
		writeNode(b, n.Input, depth+1)
	case Distinct:
		fmt.Fprintf(b, "%sDistinct\n", indent)
		writeNode(b, n.Input, depth+1)
	case Aggregate:
		fmt.Fprintf(b, "%sAggregate(%d aggregations)\n", indent, len(n.Aggregations))
		writeNode(b, n.Input, depth+1)
	case HashJoin:
		fmt.Fprintf(b, "%sHashJoin(%d keys)\n", indent, len(n.On))
		writeNode(b, n.Left, depth+1)
		writeNode(b, n.Right, depth+1)
	case NestedLoopJoin:
		fmt.Fprintf(b, "%sNestedLoopJoin\n", indent)
		writeNode(b, n.Outer, depth+1)
		writeNode(b, n.Inner, depth+1)
	case Union:
		fmt.Fprintf(b, "%sUnion\n", indent)
		writeNode(b, n.Left, depth+1)
		writeNode(b, n.Right, depth+1)
	case Apply:
		fmt.Fprintf(b, "%sApply(%s)\n", indent, applyModeString(n.Mode))
		writeNode(b, n.Outer, depth+1)
		writeNode(b, n.Inner, depth+1)
	case Create:
		fmt.Fprintf(b, "%sCreate\n", indent)
		writeNode(b, n.Input, depth+1)
	case SetProperty:
		fmt.Fprintf(b, "%sSetProperty(%d items)\n", indent, len(n.Items))
		writeNode(b, n.Input, depth+1)
	case Delete:
		fmt.Fprintf(b, "%sDelete(detach=%v)\n", indent, n.Detach)
		writeNode(b, n.Input, depth+1)
	case EmptyResult:
		fmt.Fprintf(b, "%sEmptyResult\n", indent)
	case SingleRow:
		fmt.Fprintf(b, "%sSingleRow\n", indent)
	default:
		fmt.Fprintf(b, "%s%T\n", indent, node)
	}
}

func applyModeString(m ApplyMode) string {
	switch m {
	case Cross:
		return "cross"
	case Optional:
		return "optional"
	case Semi:
		return "semi"
	case AntiSemi:
		return "anti-semi"
	default:
		return "unknown"
	}
}
