// Package compserial serializes internal/ast.Query and internal/plan.
// ExecutionPlan trees to a self-describing JSON encoding where every
// tagged-union variant carries a "kind" discriminator alongside its
// structural "data" payload, generalizing internal/serialization's
// serializedValue{Kind,Value} and pgraph.go's jsonResult{Kind,Data}
// envelope from graph.Value/Result to ast.Expr/ast.Clause/plan.PlanNode.
package compserial

import (
	"encoding/json"
	"fmt"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/plan"
)

// envelope is the wire shape for every tagged-union variant.
type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func wrap(kind string, v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kind, Data: data})
}

// ---------------------------------------------------------------------
// Literal, Property, Pattern (plain structural types; Expr fields inside
// them still need envelope treatment since Expr is an interface).
// ---------------------------------------------------------------------

type wireProperty struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// marshalPropertyMap and every other helper below that encodes a list
// the parser can leave empty special-case len==0 by returning nil
// rather than make([]T, 0): the
// parser always leaves absent lists as a true nil slice, never an
// explicit empty one, and encoding/json round-trips nil<->"null"
// faithfully but collapses "[]" back to a non-nil empty slice — so
// forcing nil here is what makes round-trip equality (reflect.DeepEqual)
// hold for every Query the parser can produce.
func marshalPropertyMap(pm ast.PropertyMap) ([]wireProperty, error) {
	if len(pm) == 0 {
		return nil, nil
	}
	out := make([]wireProperty, len(pm))
	for i, p := range pm {
		data, err := marshalExpr(p.Value)
		if err != nil {
			return nil, err
		}
		out[i] = wireProperty{Key: p.Key, Value: data}
	}
	return out, nil
}

func unmarshalPropertyMap(wps []wireProperty) (ast.PropertyMap, error) {
	if len(wps) == 0 {
		return nil, nil
	}
	out := make(ast.PropertyMap, len(wps))
	for i, wp := range wps {
		e, err := unmarshalExpr(wp.Value)
		if err != nil {
			return nil, err
		}
		out[i] = ast.Property{Key: wp.Key, Value: e}
	}
	return out, nil
}

type wireNodePattern struct {
	Variable string         `json:"variable"`
	Labels   []string       `json:"labels"`
	Props    []wireProperty `json:"props"`
}

func marshalNodePattern(n ast.NodePattern) (wireNodePattern, error) {
	props, err := marshalPropertyMap(n.Props)
	if err != nil {
		return wireNodePattern{}, err
	}
	return wireNodePattern{Variable: n.Variable, Labels: n.Labels, Props: props}, nil
}

func unmarshalNodePattern(w wireNodePattern) (ast.NodePattern, error) {
	props, err := unmarshalPropertyMap(w.Props)
	if err != nil {
		return ast.NodePattern{}, err
	}
	return ast.NodePattern{Variable: w.Variable, Labels: w.Labels, Props: props}, nil
}

type wireLengthSpec struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

type wireEdgePattern struct {
	Variable  string          `json:"variable"`
	Types     []string        `json:"types"`
	Props     []wireProperty  `json:"props"`
	Direction ast.Direction   `json:"direction"`
	Length    *wireLengthSpec `json:"length"`
}

func marshalEdgePattern(e ast.EdgePattern) (wireEdgePattern, error) {
	props, err := marshalPropertyMap(e.Props)
	if err != nil {
		return wireEdgePattern{}, err
	}
	var length *wireLengthSpec
	if e.Length != nil {
		length = &wireLengthSpec{Min: e.Length.Min, Max: e.Length.Max}
	}
	return wireEdgePattern{Variable: e.Variable, Types: e.Types, Props: props, Direction: e.Direction, Length: length}, nil
}

func unmarshalEdgePattern(w wireEdgePattern) (ast.EdgePattern, error) {
	props, err := unmarshalPropertyMap(w.Props)
	if err != nil {
		return ast.EdgePattern{}, err
	}
	var length *ast.LengthSpec
	if w.Length != nil {
		length = &ast.LengthSpec{Min: w.Length.Min, Max: w.Length.Max}
	}
	return ast.EdgePattern{Variable: w.Variable, Types: w.Types, Props: props, Direction: w.Direction, Length: length}, nil
}

type wirePathPattern struct {
	Nodes []wireNodePattern `json:"nodes"`
	Edges []wireEdgePattern `json:"edges"`
}

func marshalPathPattern(p ast.PathPattern) (wirePathPattern, error) {
	nodes := make([]wireNodePattern, len(p.Nodes))
	for i, n := range p.Nodes {
		wn, err := marshalNodePattern(n)
		if err != nil {
			return wirePathPattern{}, err
		}
		nodes[i] = wn
	}
	var edges []wireEdgePattern
	if len(p.Edges) > 0 {
		edges = make([]wireEdgePattern, len(p.Edges))
	}
	for i, e := range p.Edges {
		we, err := marshalEdgePattern(e)
		if err != nil {
			return wirePathPattern{}, err
		}
		edges[i] = we
	}
	return wirePathPattern{Nodes: nodes, Edges: edges}, nil
}

func unmarshalPathPattern(w wirePathPattern) (ast.PathPattern, error) {
	nodes := make([]ast.NodePattern, len(w.Nodes))
	for i, wn := range w.Nodes {
		n, err := unmarshalNodePattern(wn)
		if err != nil {
			return ast.PathPattern{}, err
		}
		nodes[i] = n
	}
	var edges []ast.EdgePattern
	if len(w.Edges) > 0 {
		edges = make([]ast.EdgePattern, len(w.Edges))
	}
	for i, we := range w.Edges {
		e, err := unmarshalEdgePattern(we)
		if err != nil {
			return ast.PathPattern{}, err
		}
		edges[i] = e
	}
	return ast.PathPattern{Nodes: nodes, Edges: edges}, nil
}

type wirePattern struct {
	Paths []wirePathPattern `json:"paths"`
}

func marshalPattern(p ast.Pattern) (wirePattern, error) {
	paths := make([]wirePathPattern, len(p.Paths))
	for i, path := range p.Paths {
		wp, err := marshalPathPattern(path)
		if err != nil {
			return wirePattern{}, err
		}
		paths[i] = wp
	}
	return wirePattern{Paths: paths}, nil
}

func unmarshalPattern(w wirePattern) (ast.Pattern, error) {
	paths := make([]ast.PathPattern, len(w.Paths))
	for i, wp := range w.Paths {
		p, err := unmarshalPathPattern(wp)
		if err != nil {
			return ast.Pattern{}, err
		}
		paths[i] = p
	}
	return ast.Pattern{Paths: paths}, nil
}

// ---------------------------------------------------------------------
// Expr
// ---------------------------------------------------------------------

type wireProperty_ struct {
	Expr json.RawMessage `json:"expr"`
	Name string          `json:"name"`
}

type wireIndex struct {
	Expr  json.RawMessage `json:"expr"`
	Index json.RawMessage `json:"index"`
}

type wireBinary struct {
	Left  json.RawMessage `json:"left"`
	Op    ast.BinaryOp    `json:"op"`
	Right json.RawMessage `json:"right"`
}

type wireUnary struct {
	Op   ast.UnaryOp     `json:"op"`
	Expr json.RawMessage `json:"expr"`
}

type wireFunctionCall struct {
	Name string            `json:"name"`
	Args []json.RawMessage `json:"args"`
}

type wireWhenClause struct {
	When json.RawMessage `json:"when"`
	Then json.RawMessage `json:"then"`
}

type wireCase struct {
	Operand json.RawMessage  `json:"operand,omitempty"`
	Whens   []wireWhenClause `json:"whens"`
	Else    json.RawMessage  `json:"else,omitempty"`
}

type wireList struct {
	Items []json.RawMessage `json:"items"`
}

type wireMap struct {
	Entries []wireProperty `json:"entries"`
}

type wirePatternComprehension struct {
	Variable string          `json:"variable"`
	Pattern  wirePattern     `json:"pattern"`
	Where    json.RawMessage `json:"where,omitempty"`
	Project  json.RawMessage `json:"project"`
}

type wireListComprehension struct {
	Variable string          `json:"variable"`
	Source   json.RawMessage `json:"source"`
	Where    json.RawMessage `json:"where,omitempty"`
	Project  json.RawMessage `json:"project,omitempty"`
}

type wireExists struct {
	Pattern wirePattern `json:"pattern"`
}

type wireCount struct {
	Pattern wirePattern `json:"pattern"`
}

func marshalExprList(es []ast.Expr) ([]json.RawMessage, error) {
	if len(es) == 0 {
		return nil, nil
	}
	out := make([]json.RawMessage, len(es))
	for i, e := range es {
		data, err := marshalExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func unmarshalExprList(raws []json.RawMessage) ([]ast.Expr, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]ast.Expr, len(raws))
	for i, raw := range raws {
		e, err := unmarshalExpr(raw)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func marshalOptionalExpr(e ast.Expr) (json.RawMessage, error) {
	if e == nil {
		return nil, nil
	}
	return marshalExpr(e)
}

func unmarshalOptionalExpr(raw json.RawMessage) (ast.Expr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return unmarshalExpr(raw)
}

func marshalExpr(e ast.Expr) (json.RawMessage, error) {
	switch v := e.(type) {
	case ast.LiteralExpr:
		return wrap("Literal", v.Value)
	case ast.Variable:
		return wrap("Variable", v)
	case ast.Parameter:
		return wrap("Parameter", v)
	case ast.Property_:
		inner, err := marshalExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return wrap("Property", wireProperty_{Expr: inner, Name: v.Name})
	case ast.Index:
		expr, err := marshalExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		idx, err := marshalExpr(v.Index)
		if err != nil {
			return nil, err
		}
		return wrap("Index", wireIndex{Expr: expr, Index: idx})
	case ast.Binary:
		left, err := marshalExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := marshalExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return wrap("Binary", wireBinary{Left: left, Op: v.Op, Right: right})
	case ast.Unary:
		inner, err := marshalExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return wrap("Unary", wireUnary{Op: v.Op, Expr: inner})
	case ast.FunctionCall:
		args, err := marshalExprList(v.Args)
		if err != nil {
			return nil, err
		}
		return wrap("FunctionCall", wireFunctionCall{Name: v.Name, Args: args})
	case ast.Case:
		operand, err := marshalOptionalExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		var whens []wireWhenClause
		if len(v.Whens) > 0 {
			whens = make([]wireWhenClause, len(v.Whens))
		}
		for i, w := range v.Whens {
			when, err := marshalExpr(w.When)
			if err != nil {
				return nil, err
			}
			then, err := marshalExpr(w.Then)
			if err != nil {
				return nil, err
			}
			whens[i] = wireWhenClause{When: when, Then: then}
		}
		elseE, err := marshalOptionalExpr(v.Else)
		if err != nil {
			return nil, err
		}
		return wrap("Case", wireCase{Operand: operand, Whens: whens, Else: elseE})
	case ast.List:
		items, err := marshalExprList(v.Items)
		if err != nil {
			return nil, err
		}
		return wrap("List", wireList{Items: items})
	case ast.Map:
		entries, err := marshalPropertyMap(v.Entries)
		if err != nil {
			return nil, err
		}
		return wrap("Map", wireMap{Entries: entries})
	case ast.PatternComprehension:
		pat, err := marshalPattern(v.Pattern)
		if err != nil {
			return nil, err
		}
		where, err := marshalOptionalExpr(v.Where)
		if err != nil {
			return nil, err
		}
		project, err := marshalExpr(v.Project)
		if err != nil {
			return nil, err
		}
		return wrap("PatternComprehension", wirePatternComprehension{Variable: v.Variable, Pattern: pat, Where: where, Project: project})
	case ast.ListComprehension:
		source, err := marshalExpr(v.Source)
		if err != nil {
			return nil, err
		}
		where, err := marshalOptionalExpr(v.Where)
		if err != nil {
			return nil, err
		}
		project, err := marshalOptionalExpr(v.Project)
		if err != nil {
			return nil, err
		}
		return wrap("ListComprehension", wireListComprehension{Variable: v.Variable, Source: source, Where: where, Project: project})
	case ast.Exists:
		pat, err := marshalPattern(v.Pattern)
		if err != nil {
			return nil, err
		}
		return wrap("Exists", wireExists{Pattern: pat})
	case ast.Count:
		pat, err := marshalPattern(v.Pattern)
		if err != nil {
			return nil, err
		}
		return wrap("Count", wireCount{Pattern: pat})
	default:
		return nil, fmt.Errorf("compserial: unsupported expr type %T", e)
	}
}

func unmarshalExpr(raw json.RawMessage) (ast.Expr, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case "Literal":
		var lit ast.Literal
		if err := json.Unmarshal(env.Data, &lit); err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: lit}, nil
	case "Variable":
		var v ast.Variable
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "Parameter":
		var v ast.Parameter
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "Property":
		var w wireProperty_
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		inner, err := unmarshalExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Property_{Expr: inner, Name: w.Name}, nil
	case "Index":
		var w wireIndex
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		expr, err := unmarshalExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		idx, err := unmarshalExpr(w.Index)
		if err != nil {
			return nil, err
		}
		return ast.Index{Expr: expr, Index: idx}, nil
	case "Binary":
		var w wireBinary
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		left, err := unmarshalExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := unmarshalExpr(w.Right)
		if err != nil {
			return nil, err
		}
		return ast.Binary{Left: left, Op: w.Op, Right: right}, nil
	case "Unary":
		var w wireUnary
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		inner, err := unmarshalExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: w.Op, Expr: inner}, nil
	case "FunctionCall":
		var w wireFunctionCall
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		args, err := unmarshalExprList(w.Args)
		if err != nil {
			return nil, err
		}
		return ast.FunctionCall{Name: w.Name, Args: args}, nil
	case "Case":
		var w wireCase
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		operand, err := unmarshalOptionalExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		var whens []ast.WhenClause
		if len(w.Whens) > 0 {
			whens = make([]ast.WhenClause, len(w.Whens))
		}
		for i, wc := range w.Whens {
			when, err := unmarshalExpr(wc.When)
			if err != nil {
				return nil, err
			}
			then, err := unmarshalExpr(wc.Then)
			if err != nil {
				return nil, err
			}
			whens[i] = ast.WhenClause{When: when, Then: then}
		}
		elseE, err := unmarshalOptionalExpr(w.Else)
		if err != nil {
			return nil, err
		}
		return ast.Case{Operand: operand, Whens: whens, Else: elseE}, nil
	case "List":
		var w wireList
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		items, err := unmarshalExprList(w.Items)
		if err != nil {
			return nil, err
		}
		return ast.List{Items: items}, nil
	case "Map":
		var w wireMap
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		entries, err := unmarshalPropertyMap(w.Entries)
		if err != nil {
			return nil, err
		}
		return ast.Map{Entries: entries}, nil
	case "PatternComprehension":
		var w wirePatternComprehension
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		pat, err := unmarshalPattern(w.Pattern)
		if err != nil {
			return nil, err
		}
		where, err := unmarshalOptionalExpr(w.Where)
		if err != nil {
			return nil, err
		}
		project, err := unmarshalExpr(w.Project)
		if err != nil {
			return nil, err
		}
		return ast.PatternComprehension{Variable: w.Variable, Pattern: pat, Where: where, Project: project}, nil
	case "ListComprehension":
		var w wireListComprehension
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		source, err := unmarshalExpr(w.Source)
		if err != nil {
			return nil, err
		}
		where, err := unmarshalOptionalExpr(w.Where)
		if err != nil {
			return nil, err
		}
		project, err := unmarshalOptionalExpr(w.Project)
		if err != nil {
			return nil, err
		}
		return ast.ListComprehension{Variable: w.Variable, Source: source, Where: where, Project: project}, nil
	case "Exists":
		var w wireExists
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		pat, err := unmarshalPattern(w.Pattern)
		if err != nil {
			return nil, err
		}
		return ast.Exists{Pattern: pat}, nil
	case "Count":
		var w wireCount
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		pat, err := unmarshalPattern(w.Pattern)
		if err != nil {
			return nil, err
		}
		return ast.Count{Pattern: pat}, nil
	default:
		return nil, fmt.Errorf("compserial: unknown expr kind %q", env.Kind)
	}
}

// ---------------------------------------------------------------------
// Clause / Query
// ---------------------------------------------------------------------

type wireReturnItem struct {
	Expr  json.RawMessage `json:"expr"`
	Alias string          `json:"alias"`
}

func marshalReturnItems(items []ast.ReturnItem) ([]wireReturnItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]wireReturnItem, len(items))
	for i, it := range items {
		data, err := marshalExpr(it.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = wireReturnItem{Expr: data, Alias: it.Alias}
	}
	return out, nil
}

func unmarshalReturnItems(wis []wireReturnItem) ([]ast.ReturnItem, error) {
	if len(wis) == 0 {
		return nil, nil
	}
	out := make([]ast.ReturnItem, len(wis))
	for i, wi := range wis {
		e, err := unmarshalExpr(wi.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = ast.ReturnItem{Expr: e, Alias: wi.Alias}
	}
	return out, nil
}

type wireOrderItem struct {
	Expr      json.RawMessage `json:"expr"`
	Ascending bool            `json:"ascending"`
}

func marshalOrderItems(items []ast.OrderItem) ([]wireOrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]wireOrderItem, len(items))
	for i, it := range items {
		data, err := marshalExpr(it.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = wireOrderItem{Expr: data, Ascending: it.Ascending}
	}
	return out, nil
}

func unmarshalOrderItems(wis []wireOrderItem) ([]ast.OrderItem, error) {
	if len(wis) == 0 {
		return nil, nil
	}
	out := make([]ast.OrderItem, len(wis))
	for i, wi := range wis {
		e, err := unmarshalExpr(wi.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = ast.OrderItem{Expr: e, Ascending: wi.Ascending}
	}
	return out, nil
}

type wireSetItem struct {
	Target json.RawMessage `json:"target"`
	Value  json.RawMessage `json:"value"`
}

func marshalSetItems(items []ast.SetItem) ([]wireSetItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]wireSetItem, len(items))
	for i, it := range items {
		target, err := marshalExpr(it.Target)
		if err != nil {
			return nil, err
		}
		value, err := marshalExpr(it.Value)
		if err != nil {
			return nil, err
		}
		out[i] = wireSetItem{Target: target, Value: value}
	}
	return out, nil
}

func unmarshalSetItems(wis []wireSetItem) ([]ast.SetItem, error) {
	if len(wis) == 0 {
		return nil, nil
	}
	out := make([]ast.SetItem, len(wis))
	for i, wi := range wis {
		target, err := unmarshalExpr(wi.Target)
		if err != nil {
			return nil, err
		}
		value, err := unmarshalExpr(wi.Value)
		if err != nil {
			return nil, err
		}
		out[i] = ast.SetItem{Target: target, Value: value}
	}
	return out, nil
}

type wireMatch struct {
	Pattern  wirePattern `json:"pattern"`
	Optional bool        `json:"optional"`
}

type wireWhere struct {
	Expr json.RawMessage `json:"expr"`
}

type wireReturn struct {
	Items    []wireReturnItem `json:"items"`
	Distinct bool             `json:"distinct"`
}

type wireOrderBy struct {
	Items []wireOrderItem `json:"items"`
}

type wireLimit struct {
	Count json.RawMessage `json:"count"`
}

type wireSkip struct {
	Count json.RawMessage `json:"count"`
}

type wireCreate struct {
	Pattern wirePattern `json:"pattern"`
}

type wireSet struct {
	Items []wireSetItem `json:"items"`
}

type wireDelete struct {
	Items  []json.RawMessage `json:"items"`
	Detach bool               `json:"detach"`
}

type wireWith struct {
	Items    []wireReturnItem `json:"items"`
	Distinct bool             `json:"distinct"`
}

type wireUnwind struct {
	Expr  json.RawMessage `json:"expr"`
	Alias string          `json:"alias"`
}

func marshalClause(c ast.Clause) (json.RawMessage, error) {
	switch v := c.(type) {
	case ast.Match:
		pat, err := marshalPattern(v.Pattern)
		if err != nil {
			return nil, err
		}
		return wrap("Match", wireMatch{Pattern: pat, Optional: v.Optional})
	case ast.Where:
		expr, err := marshalExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return wrap("Where", wireWhere{Expr: expr})
	case ast.Return:
		items, err := marshalReturnItems(v.Items)
		if err != nil {
			return nil, err
		}
		return wrap("Return", wireReturn{Items: items, Distinct: v.Distinct})
	case ast.OrderBy:
		items, err := marshalOrderItems(v.Items)
		if err != nil {
			return nil, err
		}
		return wrap("OrderBy", wireOrderBy{Items: items})
	case ast.Limit:
		count, err := marshalExpr(v.Count)
		if err != nil {
			return nil, err
		}
		return wrap("Limit", wireLimit{Count: count})
	case ast.Skip:
		count, err := marshalExpr(v.Count)
		if err != nil {
			return nil, err
		}
		return wrap("Skip", wireSkip{Count: count})
	case ast.Create:
		pat, err := marshalPattern(v.Pattern)
		if err != nil {
			return nil, err
		}
		return wrap("Create", wireCreate{Pattern: pat})
	case ast.Set:
		items, err := marshalSetItems(v.Items)
		if err != nil {
			return nil, err
		}
		return wrap("Set", wireSet{Items: items})
	case ast.Delete:
		items, err := marshalExprList(v.Items)
		if err != nil {
			return nil, err
		}
		return wrap("Delete", wireDelete{Items: items, Detach: v.Detach})
	case ast.With:
		items, err := marshalReturnItems(v.Items)
		if err != nil {
			return nil, err
		}
		return wrap("With", wireWith{Items: items, Distinct: v.Distinct})
	case ast.Unwind:
		expr, err := marshalExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return wrap("Unwind", wireUnwind{Expr: expr, Alias: v.Alias})
	default:
		return nil, fmt.Errorf("compserial: unsupported clause type %T", c)
	}
}

func unmarshalClause(raw json.RawMessage) (ast.Clause, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case "Match":
		var w wireMatch
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		pat, err := unmarshalPattern(w.Pattern)
		if err != nil {
			return nil, err
		}
		return ast.Match{Pattern: pat, Optional: w.Optional}, nil
	case "Where":
		var w wireWhere
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		expr, err := unmarshalExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Where{Expr: expr}, nil
	case "Return":
		var w wireReturn
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		items, err := unmarshalReturnItems(w.Items)
		if err != nil {
			return nil, err
		}
		return ast.Return{Items: items, Distinct: w.Distinct}, nil
	case "OrderBy":
		var w wireOrderBy
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		items, err := unmarshalOrderItems(w.Items)
		if err != nil {
			return nil, err
		}
		return ast.OrderBy{Items: items}, nil
	case "Limit":
		var w wireLimit
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		count, err := unmarshalExpr(w.Count)
		if err != nil {
			return nil, err
		}
		return ast.Limit{Count: count}, nil
	case "Skip":
		var w wireSkip
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		count, err := unmarshalExpr(w.Count)
		if err != nil {
			return nil, err
		}
		return ast.Skip{Count: count}, nil
	case "Create":
		var w wireCreate
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		pat, err := unmarshalPattern(w.Pattern)
		if err != nil {
			return nil, err
		}
		return ast.Create{Pattern: pat}, nil
	case "Set":
		var w wireSet
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		items, err := unmarshalSetItems(w.Items)
		if err != nil {
			return nil, err
		}
		return ast.Set{Items: items}, nil
	case "Delete":
		var w wireDelete
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		items, err := unmarshalExprList(w.Items)
		if err != nil {
			return nil, err
		}
		return ast.Delete{Items: items, Detach: w.Detach}, nil
	case "With":
		var w wireWith
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		items, err := unmarshalReturnItems(w.Items)
		if err != nil {
			return nil, err
		}
		return ast.With{Items: items, Distinct: w.Distinct}, nil
	case "Unwind":
		var w wireUnwind
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		expr, err := unmarshalExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Unwind{Expr: expr, Alias: w.Alias}, nil
	default:
		return nil, fmt.Errorf("compserial: unknown clause kind %q", env.Kind)
	}
}

type wireQuery struct {
	Clauses []json.RawMessage `json:"clauses"`
}

// MarshalQuery serializes q to the self-describing kind/data encoding.
func MarshalQuery(q *ast.Query) ([]byte, error) {
	clauses := make([]json.RawMessage, len(q.Clauses))
	for i, c := range q.Clauses {
		data, err := marshalClause(c)
		if err != nil {
			return nil, err
		}
		clauses[i] = data
	}
	return json.Marshal(wireQuery{Clauses: clauses})
}

// UnmarshalQuery is the inverse of MarshalQuery; round-trip equality with
// the original Query is guaranteed for every Query produced by the parser.
func UnmarshalQuery(data []byte) (*ast.Query, error) {
	var w wireQuery
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	clauses := make([]ast.Clause, len(w.Clauses))
	for i, raw := range w.Clauses {
		c, err := unmarshalClause(raw)
		if err != nil {
			return nil, err
		}
		clauses[i] = c
	}
	return &ast.Query{Clauses: clauses}, nil
}

// ---------------------------------------------------------------------
// PlanNode / ExecutionPlan
// ---------------------------------------------------------------------

type wireNodeScan struct {
	Variable string `json:"variable"`
	Label    string `json:"label"`
}

type wireEdgeScan struct {
	Variable string `json:"variable"`
	Type     string `json:"type"`
}

type wireIndexSeek struct {
	Variable string          `json:"variable"`
	Label    string          `json:"label"`
	Property string          `json:"property"`
	Value    json.RawMessage `json:"value"`
}

type wireExpand struct {
	Input        json.RawMessage `json:"input"`
	FromVariable string          `json:"from_variable"`
	EdgeVariable string          `json:"edge_variable"`
	ToVariable   string          `json:"to_variable"`
	RelTypes     []string        `json:"rel_types"`
	Direction    ast.Direction   `json:"direction"`
	MinHops      int             `json:"min_hops"`
	MaxHops      int             `json:"max_hops"`
}

type wireFilter struct {
	Input     json.RawMessage `json:"input"`
	Predicate json.RawMessage `json:"predicate"`
}

type wireProjectItem struct {
	Expr  json.RawMessage `json:"expr"`
	Alias string          `json:"alias"`
}

type wireProject struct {
	Input json.RawMessage   `json:"input"`
	Items []wireProjectItem `json:"items"`
}

type wireSortItem struct {
	Expr      json.RawMessage `json:"expr"`
	Ascending bool            `json:"ascending"`
}

type wireSort struct {
	Input json.RawMessage `json:"input"`
	Items []wireSortItem  `json:"items"`
}

type wirePlanLimit struct {
	Input json.RawMessage `json:"input"`
	Count int             `json:"count"`
}

type wirePlanSkip struct {
	Input json.RawMessage `json:"input"`
	Count int             `json:"count"`
}

type wireDistinct struct {
	Input   json.RawMessage `json:"input"`
	Columns []string        `json:"columns"`
}

type wireAggregateItem struct {
	Alias string          `json:"alias"`
	Expr  json.RawMessage `json:"expr"`
}

type wireAggregate struct {
	Input        json.RawMessage     `json:"input"`
	GroupBy      []json.RawMessage   `json:"group_by"`
	Aggregations []wireAggregateItem `json:"aggregations"`
}

type wireJoinKey struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type wireHashJoin struct {
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
	On    []wireJoinKey   `json:"on"`
}

type wireNestedLoopJoin struct {
	Outer json.RawMessage `json:"outer"`
	Inner json.RawMessage `json:"inner"`
}

type wireUnion struct {
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
}

type wireApply struct {
	Outer json.RawMessage `json:"outer"`
	Inner json.RawMessage `json:"inner"`
	Mode  plan.ApplyMode  `json:"mode"`
}

type wirePlanCreate struct {
	Input   json.RawMessage `json:"input"`
	Pattern wirePattern     `json:"pattern"`
}

type wireSetProperty struct {
	Input json.RawMessage `json:"input"`
	Items []wireSetItem   `json:"items"`
}

type wirePlanDelete struct {
	Input  json.RawMessage   `json:"input"`
	Items  []json.RawMessage `json:"items"`
	Detach bool              `json:"detach"`
}

func marshalPlanNode(node plan.PlanNode) (json.RawMessage, error) {
	switch n := node.(type) {
	case plan.NodeScan:
		return wrap("NodeScan", wireNodeScan{Variable: n.Variable, Label: n.Label})
	case plan.EdgeScan:
		return wrap("EdgeScan", wireEdgeScan{Variable: n.Variable, Type: n.Type})
	case plan.IndexSeek:
		value, err := marshalExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return wrap("IndexSeek", wireIndexSeek{Variable: n.Variable, Label: n.Label, Property: n.Property, Value: value})
	case plan.Expand:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		return wrap("Expand", wireExpand{
			Input: input, FromVariable: n.FromVariable, EdgeVariable: n.EdgeVariable, ToVariable: n.ToVariable,
			RelTypes: n.RelTypes, Direction: n.Direction, MinHops: n.MinHops, MaxHops: n.MaxHops,
		})
	case plan.Filter:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		pred, err := marshalExpr(n.Predicate)
		if err != nil {
			return nil, err
		}
		return wrap("Filter", wireFilter{Input: input, Predicate: pred})
	case plan.Project:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		items := make([]wireProjectItem, len(n.Items))
		for i, it := range n.Items {
			data, err := marshalExpr(it.Expr)
			if err != nil {
				return nil, err
			}
			items[i] = wireProjectItem{Expr: data, Alias: it.Alias}
		}
		return wrap("Project", wireProject{Input: input, Items: items})
	case plan.Sort:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		items := make([]wireSortItem, len(n.Items))
		for i, it := range n.Items {
			data, err := marshalExpr(it.Expr)
			if err != nil {
				return nil, err
			}
			items[i] = wireSortItem{Expr: data, Ascending: it.Ascending}
		}
		return wrap("Sort", wireSort{Input: input, Items: items})
	case plan.Limit:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		return wrap("Limit", wirePlanLimit{Input: input, Count: n.Count})
	case plan.Skip:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		return wrap("Skip", wirePlanSkip{Input: input, Count: n.Count})
	case plan.Distinct:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		return wrap("Distinct", wireDistinct{Input: input, Columns: n.Columns})
	case plan.Aggregate:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		groupBy := make([]json.RawMessage, len(n.GroupBy))
		for i, e := range n.GroupBy {
			data, err := marshalExpr(e)
			if err != nil {
				return nil, err
			}
			groupBy[i] = data
		}
		aggs := make([]wireAggregateItem, len(n.Aggregations))
		for i, a := range n.Aggregations {
			data, err := marshalExpr(a.Expr)
			if err != nil {
				return nil, err
			}
			aggs[i] = wireAggregateItem{Alias: a.Alias, Expr: data}
		}
		return wrap("Aggregate", wireAggregate{Input: input, GroupBy: groupBy, Aggregations: aggs})
	case plan.HashJoin:
		left, err := marshalPlanNode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := marshalPlanNode(n.Right)
		if err != nil {
			return nil, err
		}
		on := make([]wireJoinKey, len(n.On))
		for i, k := range n.On {
			on[i] = wireJoinKey{Left: k.Left, Right: k.Right}
		}
		return wrap("HashJoin", wireHashJoin{Left: left, Right: right, On: on})
	case plan.NestedLoopJoin:
		outer, err := marshalPlanNode(n.Outer)
		if err != nil {
			return nil, err
		}
		inner, err := marshalPlanNode(n.Inner)
		if err != nil {
			return nil, err
		}
		return wrap("NestedLoopJoin", wireNestedLoopJoin{Outer: outer, Inner: inner})
	case plan.Union:
		left, err := marshalPlanNode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := marshalPlanNode(n.Right)
		if err != nil {
			return nil, err
		}
		return wrap("Union", wireUnion{Left: left, Right: right})
	case plan.Apply:
		outer, err := marshalPlanNode(n.Outer)
		if err != nil {
			return nil, err
		}
		inner, err := marshalPlanNode(n.Inner)
		if err != nil {
			return nil, err
		}
		return wrap("Apply", wireApply{Outer: outer, Inner: inner, Mode: n.Mode})
	case plan.Create:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		pat, err := marshalPattern(n.Pattern)
		if err != nil {
			return nil, err
		}
		return wrap("Create", wirePlanCreate{Input: input, Pattern: pat})
	case plan.SetProperty:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		items, err := marshalSetItems(n.Items)
		if err != nil {
			return nil, err
		}
		return wrap("SetProperty", wireSetProperty{Input: input, Items: items})
	case plan.Delete:
		input, err := marshalPlanNode(n.Input)
		if err != nil {
			return nil, err
		}
		items, err := marshalExprList(n.Items)
		if err != nil {
			return nil, err
		}
		return wrap("Delete", wirePlanDelete{Input: input, Items: items, Detach: n.Detach})
	case plan.EmptyResult:
		return wrap("EmptyResult", struct{}{})
	case plan.SingleRow:
		return wrap("SingleRow", struct{}{})
	default:
		return nil, fmt.Errorf("compserial: unsupported plan node type %T", node)
	}
}

func unmarshalPlanNode(raw json.RawMessage) (plan.PlanNode, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case "NodeScan":
		var w wireNodeScan
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		return plan.NodeScan{Variable: w.Variable, Label: w.Label}, nil
	case "EdgeScan":
		var w wireEdgeScan
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		return plan.EdgeScan{Variable: w.Variable, Type: w.Type}, nil
	case "IndexSeek":
		var w wireIndexSeek
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		value, err := unmarshalExpr(w.Value)
		if err != nil {
			return nil, err
		}
		return plan.IndexSeek{Variable: w.Variable, Label: w.Label, Property: w.Property, Value: value}, nil
	case "Expand":
		var w wireExpand
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		return plan.Expand{
			Input: input, FromVariable: w.FromVariable, EdgeVariable: w.EdgeVariable, ToVariable: w.ToVariable,
			RelTypes: w.RelTypes, Direction: w.Direction, MinHops: w.MinHops, MaxHops: w.MaxHops,
		}, nil
	case "Filter":
		var w wireFilter
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		pred, err := unmarshalExpr(w.Predicate)
		if err != nil {
			return nil, err
		}
		return plan.Filter{Input: input, Predicate: pred}, nil
	case "Project":
		var w wireProject
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		items := make([]plan.ProjectItem, len(w.Items))
		for i, it := range w.Items {
			e, err := unmarshalExpr(it.Expr)
			if err != nil {
				return nil, err
			}
			items[i] = plan.ProjectItem{Expr: e, Alias: it.Alias}
		}
		return plan.Project{Input: input, Items: items}, nil
	case "Sort":
		var w wireSort
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		items := make([]plan.SortItem, len(w.Items))
		for i, it := range w.Items {
			e, err := unmarshalExpr(it.Expr)
			if err != nil {
				return nil, err
			}
			items[i] = plan.SortItem{Expr: e, Ascending: it.Ascending}
		}
		return plan.Sort{Input: input, Items: items}, nil
	case "Limit":
		var w wirePlanLimit
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		return plan.Limit{Input: input, Count: w.Count}, nil
	case "Skip":
		var w wirePlanSkip
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		return plan.Skip{Input: input, Count: w.Count}, nil
	case "Distinct":
		var w wireDistinct
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		return plan.Distinct{Input: input, Columns: w.Columns}, nil
	case "Aggregate":
		var w wireAggregate
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		groupBy := make([]ast.Expr, len(w.GroupBy))
		for i, raw := range w.GroupBy {
			e, err := unmarshalExpr(raw)
			if err != nil {
				return nil, err
			}
			groupBy[i] = e
		}
		aggs := make([]plan.AggregateItem, len(w.Aggregations))
		for i, a := range w.Aggregations {
			e, err := unmarshalExpr(a.Expr)
			if err != nil {
				return nil, err
			}
			aggs[i] = plan.AggregateItem{Alias: a.Alias, Expr: e}
		}
		return plan.Aggregate{Input: input, GroupBy: groupBy, Aggregations: aggs}, nil
	case "HashJoin":
		var w wireHashJoin
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		left, err := unmarshalPlanNode(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := unmarshalPlanNode(w.Right)
		if err != nil {
			return nil, err
		}
		on := make([]plan.JoinKey, len(w.On))
		for i, k := range w.On {
			on[i] = plan.JoinKey{Left: k.Left, Right: k.Right}
		}
		return plan.HashJoin{Left: left, Right: right, On: on}, nil
	case "NestedLoopJoin":
		var w wireNestedLoopJoin
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		outer, err := unmarshalPlanNode(w.Outer)
		if err != nil {
			return nil, err
		}
		inner, err := unmarshalPlanNode(w.Inner)
		if err != nil {
			return nil, err
		}
		return plan.NestedLoopJoin{Outer: outer, Inner: inner}, nil
	case "Union":
		var w wireUnion
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		left, err := unmarshalPlanNode(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := unmarshalPlanNode(w.Right)
		if err != nil {
			return nil, err
		}
		return plan.Union{Left: left, Right: right}, nil
	case "Apply":
		var w wireApply
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		outer, err := unmarshalPlanNode(w.Outer)
		if err != nil {
			return nil, err
		}
		inner, err := unmarshalPlanNode(w.Inner)
		if err != nil {
			return nil, err
		}
		return plan.Apply{Outer: outer, Inner: inner, Mode: w.Mode}, nil
	case "Create":
		var w wirePlanCreate
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		pat, err := unmarshalPattern(w.Pattern)
		if err != nil {
			return nil, err
		}
		return plan.Create{Input: input, Pattern: pat}, nil
	case "SetProperty":
		var w wireSetProperty
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		items, err := unmarshalSetItems(w.Items)
		if err != nil {
			return nil, err
		}
		return plan.SetProperty{Input: input, Items: items}, nil
	case "Delete":
		var w wirePlanDelete
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
		input, err := unmarshalPlanNode(w.Input)
		if err != nil {
			return nil, err
		}
		items, err := unmarshalExprList(w.Items)
		if err != nil {
			return nil, err
		}
		return plan.Delete{Input: input, Items: items, Detach: w.Detach}, nil
	case "EmptyResult":
		return plan.EmptyResult{}, nil
	case "SingleRow":
		return plan.SingleRow{}, nil
	default:
		return nil, fmt.Errorf("compserial: unknown plan node kind %q", env.Kind)
	}
}

type wireIndexRequirement struct {
	Label    string        `json:"label"`
	Property string        `json:"property"`
	Type     plan.IndexType `json:"type"`
}

type wireExecutionPlan struct {
	Root            json.RawMessage        `json:"root"`
	EstimatedCost   float64                `json:"estimated_cost"`
	EstimatedRows   int                    `json:"estimated_rows"`
	RequiredIndexes []wireIndexRequirement `json:"required_indexes"`
}

// MarshalPlan serializes ep to the kind/data encoding.
func MarshalPlan(ep *plan.ExecutionPlan) ([]byte, error) {
	root, err := marshalPlanNode(ep.Root)
	if err != nil {
		return nil, err
	}
	var reqs []wireIndexRequirement
	if len(ep.RequiredIndexes) > 0 {
		reqs = make([]wireIndexRequirement, len(ep.RequiredIndexes))
		for i, r := range ep.RequiredIndexes {
			reqs[i] = wireIndexRequirement{Label: r.Label, Property: r.Property, Type: r.Type}
		}
	}
	return json.Marshal(wireExecutionPlan{
		Root: root, EstimatedCost: ep.EstimatedCost, EstimatedRows: ep.EstimatedRows, RequiredIndexes: reqs,
	})
}

// UnmarshalPlan is the inverse of MarshalPlan for every encoded field.
// The optimizer's unexported pass count is not part of the encoding, so
// a decoded plan always carries a zero pass count.
func UnmarshalPlan(data []byte) (*plan.ExecutionPlan, error) {
	var w wireExecutionPlan
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	root, err := unmarshalPlanNode(w.Root)
	if err != nil {
		return nil, err
	}
	var reqs []plan.IndexRequirement
	if len(w.RequiredIndexes) > 0 {
		reqs = make([]plan.IndexRequirement, len(w.RequiredIndexes))
		for i, r := range w.RequiredIndexes {
			reqs[i] = plan.IndexRequirement{Label: r.Label, Property: r.Property, Type: r.Type}
		}
	}
	return &plan.ExecutionPlan{Root: root, EstimatedCost: w.EstimatedCost, EstimatedRows: w.EstimatedRows, RequiredIndexes: reqs}, nil
}
