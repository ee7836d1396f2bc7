// Package parser implements a recursive-descent, one-token-lookahead
// parser over internal/lexer's token stream, producing an internal/ast
// tree. Every parse function returns a *cerr.ParseError carrying the
// current lexer byte position and a human-readable message; the parser
// never panics.
package parser

import (
	"fmt"

	"github.com/claude-voice/engine/internal/ast"
	"github.com/claude-voice/engine/internal/cerr"
	"github.com/claude-voice/engine/internal/lexer"
	"github.com/claude-voice/engine/internal/token"
)

// Parser consumes a token stream and builds an ast.Query.
type Parser struct {
	lex *lexer.Lexer
	cur token.Token
}

// New creates a Parser over src, priming the first lookahead token.
func New(src string) (*Parser, error) {
	p := &Parser{lex: lexer.New(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse parses a full query: a sequence of clauses until EOF.
func Parse(src string) (*ast.Query, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) errf(format string, args ...any) error {
	return cerr.NewParseError(p.cur.Pos, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur.Kind != k {
		return token.Token{}, p.errf("expected %s, got %s", k, p.cur.Kind)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

func (p *Parser) expectIdent() (string, error) {
	tok, err := p.expect(token.Ident)
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

// Parse parses the whole clause sequence.
func (p *Parser) Parse() (*ast.Query, error) {
	var clauses []ast.Clause
	for p.cur.Kind != token.EOF {
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return &ast.Query{Clauses: clauses}, nil
}

func (p *Parser) parseClause() (ast.Clause, error) {
	switch p.cur.Kind {
	case token.Optional:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Match); err != nil {
			return nil, err
		}
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return ast.Match{Pattern: pat, Optional: true}, nil

	case token.Match:
		if err := p.advance(); err != nil {
			return nil, err
		}
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return ast.Match{Pattern: pat, Optional: false}, nil

	case token.Where:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Where{Expr: e}, nil

	case token.Return:
		if err := p.advance(); err != nil {
			return nil, err
		}
		distinct := false
		if p.cur.Kind == token.Distinct {
			distinct = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		items, err := p.parseReturnItems()
		if err != nil {
			return nil, err
		}
		return ast.Return{Items: items, Distinct: distinct}, nil

	case token.Order:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.By); err != nil {
			return nil, err
		}
		items, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		return ast.OrderBy{Items: items}, nil

	case token.Limit:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Limit{Count: e}, nil

	case token.Skip:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Skip{Count: e}, nil

	case token.Create:
		if err := p.advance(); err != nil {
			return nil, err
		}
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return ast.Create{Pattern: pat}, nil

	case token.Set:
		if err := p.advance(); err != nil {
			return nil, err
		}
		items, err := p.parseSetItems()
		if err != nil {
			return nil, err
		}
		return ast.Set{Items: items}, nil

	case token.Detach:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Delete); err != nil {
			return nil, err
		}
		items, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return ast.Delete{Items: items, Detach: true}, nil

	case token.Delete:
		if err := p.advance(); err != nil {
			return nil, err
		}
		items, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return ast.Delete{Items: items, Detach: false}, nil

	case token.With:
		if err := p.advance(); err != nil {
			return nil, err
		}
		distinct := false
		if p.cur.Kind == token.Distinct {
			distinct = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		items, err := p.parseReturnItems()
		if err != nil {
			return nil, err
		}
		return ast.With{Items: items, Distinct: distinct}, nil

	case token.Unwind:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.As); err != nil {
			return nil, err
		}
		alias, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return ast.Unwind{Expr: e, Alias: alias}, nil

	default:
		return nil, p.errf("expected a clause keyword, got %s", p.cur.Kind)
	}
}

func (p *Parser) parseExprList() ([]ast.Expr, error) {
	items := []ast.Expr{}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	items = append(items, e)
	for p.cur.Kind == token.Comma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}

func (p *Parser) parseReturnItems() ([]ast.ReturnItem, error) {
	var items []ast.ReturnItem
	for {
		item, err := p.parseReturnItem(len(items))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.cur.Kind != token.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (p *Parser) parseReturnItem(index int) (ast.ReturnItem, error) {
	e, err := p.parseExpr()
	if err != nil {
		return ast.ReturnItem{}, err
	}
	alias := defaultAlias(e, index)
	if p.cur.Kind == token.As {
		if err := p.advance(); err != nil {
			return ast.ReturnItem{}, err
		}
		alias, err = p.expectIdent()
		if err != nil {
			return ast.ReturnItem{}, err
		}
	}
	return ast.ReturnItem{Expr: e, Alias: alias}, nil
}

func defaultAlias(e ast.Expr, index int) string {
	switch v := e.(type) {
	case ast.Variable:
		return v.Name
	case ast.Property_:
		return v.Name
	case ast.FunctionCall:
		return v.Name
	default:
		return fmt.Sprintf("_col%d", index)
	}
}

func (p *Parser) parseOrderItems() ([]ast.OrderItem, error) {
	var items []ast.OrderItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		asc := true
		switch p.cur.Kind {
		case token.Asc:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case token.Desc:
			asc = false
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		items = append(items, ast.OrderItem{Expr: e, Ascending: asc})
		if p.cur.Kind != token.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (p *Parser) parseSetItems() ([]ast.SetItem, error) {
	var items []ast.SetItem
	for {
		target, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Eq); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, ast.SetItem{Target: target, Value: value})
		if p.cur.Kind != token.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// --- pattern grammar ---

func (p *Parser) parsePattern() (ast.Pattern, error) {
	var paths []ast.PathPattern
	for {
		path, err := p.parsePathPattern()
		if err != nil {
			return ast.Pattern{}, err
		}
		paths = append(paths, path)
		if p.cur.Kind != token.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return ast.Pattern{}, err
		}
	}
	return ast.Pattern{Paths: paths}, nil
}

func (p *Parser) parsePathPattern() (ast.PathPattern, error) {
	node, err := p.parseNodePattern()
	if err != nil {
		return ast.PathPattern{}, err
	}
	path := ast.PathPattern{Nodes: []ast.NodePattern{node}}
	for p.cur.Kind == token.ArrowLeft || p.cur.Kind == token.Minus {
		edge, err := p.parseEdgePattern()
		if err != nil {
			return ast.PathPattern{}, err
		}
		next, err := p.parseNodePattern()
		if err != nil {
			return ast.PathPattern{}, err
		}
		path.Edges = append(path.Edges, edge)
		path.Nodes = append(path.Nodes, next)
	}
	return path, nil
}

func (p *Parser) parseNodePattern() (ast.NodePattern, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return ast.NodePattern{}, err
	}
	var n ast.NodePattern
	if p.cur.Kind == token.Ident {
		n.Variable = p.cur.Text
		if err := p.advance(); err != nil {
			return ast.NodePattern{}, err
		}
	}
	for p.cur.Kind == token.Colon {
		if err := p.advance(); err != nil {
			return ast.NodePattern{}, err
		}
		label, err := p.expectIdent()
		if err != nil {
			return ast.NodePattern{}, err
		}
		n.Labels = append(n.Labels, label)
	}
	if p.cur.Kind == token.LBrace {
		props, err := p.parsePropertyMap()
		if err != nil {
			return ast.NodePattern{}, err
		}
		n.Props = props
	}
	if _, err := p.expect(token.RParen); err != nil {
		return ast.NodePattern{}, err
	}
	return n, nil
}

func (p *Parser) parsePropertyMap() (ast.PropertyMap, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var props ast.PropertyMap
	if p.cur.Kind != token.RBrace {
		for {
			key, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Colon); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			props = append(props, ast.Property{Key: key, Value: val})
			if p.cur.Kind != token.Comma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return props, nil
}

func (p *Parser) parseEdgePattern() (ast.EdgePattern, error) {
	var e ast.EdgePattern
	leftArrow := false
	switch p.cur.Kind {
	case token.ArrowLeft:
		leftArrow = true
		if err := p.advance(); err != nil {
			return e, err
		}
	case token.Minus:
		if err := p.advance(); err != nil {
			return e, err
		}
	default:
		return e, p.errf("expected edge start '-' or '<-', got %s", p.cur.Kind)
	}

	if p.cur.Kind == token.LBracket {
		if err := p.advance(); err != nil {
			return e, err
		}
		if p.cur.Kind == token.Ident {
			e.Variable = p.cur.Text
			if err := p.advance(); err != nil {
				return e, err
			}
		}
		if p.cur.Kind == token.Colon {
			if err := p.advance(); err != nil {
				return e, err
			}
			t, err := p.expectIdent()
			if err != nil {
				return e, err
			}
			e.Types = append(e.Types, t)
			for p.cur.Kind == token.Pipe {
				if err := p.advance(); err != nil {
					return e, err
				}
				if _, err := p.expect(token.Colon); err != nil {
					return e, err
				}
				t, err := p.expectIdent()
				if err != nil {
					return e, err
				}
				e.Types = append(e.Types, t)
			}
		}
		if p.cur.Kind == token.Star {
			if err := p.advance(); err != nil {
				return e, err
			}
			length, err := p.parseLengthSpec()
			if err != nil {
				return e, err
			}
			e.Length = length
		}
		if p.cur.Kind == token.LBrace {
			props, err := p.parsePropertyMap()
			if err != nil {
				return e, err
			}
			e.Props = props
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return e, err
		}
	}

	rightArrow := false
	switch p.cur.Kind {
	case token.ArrowRight:
		rightArrow = true
		if err := p.advance(); err != nil {
			return e, err
		}
	case token.Minus:
		if err := p.advance(); err != nil {
			return e, err
		}
	default:
		return e, p.errf("expected edge end '-' or '->', got %s", p.cur.Kind)
	}

	switch {
	case leftArrow && rightArrow:
		e.Direction = ast.Both // open question: preserved per spec, not rejected
	case leftArrow && !rightArrow:
		e.Direction = ast.Incoming
	case !leftArrow && rightArrow:
		e.Direction = ast.Outgoing
	default:
		e.Direction = ast.Both
	}
	return e, nil
}

func (p *Parser) parseLengthSpec() (*ast.LengthSpec, error) {
	if p.cur.Kind == token.Int {
		n := int(p.cur.IVal)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == token.DotDot {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Kind == token.Int {
				m := int(p.cur.IVal)
				if err := p.advance(); err != nil {
					return nil, err
				}
				return &ast.LengthSpec{Min: &n, Max: &m}, nil
			}
			return &ast.LengthSpec{Min: &n}, nil
		}
		return &ast.LengthSpec{Min: &n, Max: &n}, nil
	}
	if p.cur.Kind == token.DotDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == token.Int {
			m := int(p.cur.IVal)
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &ast.LengthSpec{Max: &m}, nil
		}
		return &ast.LengthSpec{}, nil
	}
	return nil, p.errf("expected a length spec after '*', got %s", p.cur.Kind)
}

// --- expression grammar (precedence climbing, low to high) ---

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Or {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: ast.OpOr, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Xor {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: ast.OpXor, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.And {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: ast.OpAnd, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur.Kind == token.Not {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpNot, Expr: e}, nil
	}
	return p.parseComparison()
}

func compareOp(k token.Kind) (ast.BinaryOp, bool) {
	switch k {
	case token.Eq, token.EqEq:
		return ast.OpEq, true
	case token.Neq:
		return ast.OpNeq, true
	case token.Lt:
		return ast.OpLt, true
	case token.Le:
		return ast.OpLe, true
	case token.Gt:
		return ast.OpGt, true
	case token.Ge:
		return ast.OpGe, true
	default:
		return 0, false
	}
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseContainsLevel()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := compareOp(p.cur.Kind)
		if !ok {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseContainsLevel()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseContainsLevel() (ast.Expr, error) {
	left, err := p.parseIsNullLevel()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Kind {
		case token.Contains:
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseIsNullLevel()
			if err != nil {
				return nil, err
			}
			left = ast.Binary{Left: left, Op: ast.OpContains, Right: right}
		case token.Starts:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.With); err != nil {
				return nil, err
			}
			right, err := p.parseIsNullLevel()
			if err != nil {
				return nil, err
			}
			left = ast.Binary{Left: left, Op: ast.OpStartsWith, Right: right}
		case token.Ends:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.With); err != nil {
				return nil, err
			}
			right, err := p.parseIsNullLevel()
			if err != nil {
				return nil, err
			}
			left = ast.Binary{Left: left, Op: ast.OpEndsWith, Right: right}
		case token.In:
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseIsNullLevel()
			if err != nil {
				return nil, err
			}
			left = ast.Binary{Left: left, Op: ast.OpIn, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseIsNullLevel() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Is {
		if err := p.advance(); err != nil {
			return nil, err
		}
		neg := false
		if p.cur.Kind == token.Not {
			neg = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.Null); err != nil {
			return nil, err
		}
		op := ast.OpIsNull
		if neg {
			op = ast.OpIsNotNull
		}
		left = ast.Binary{Left: left, Op: op, Right: ast.LiteralExpr{Value: ast.NullValue()}}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		op := ast.OpAdd
		if p.cur.Kind == token.Minus {
			op = ast.OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.cur.Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Pct:
			op = ast.OpMod
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == token.Caret {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return ast.Binary{Left: left, Op: ast.OpPow, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur.Kind {
	case token.Plus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpPos, Expr: e}, nil
	case token.Minus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpNeg, Expr: e}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Kind {
		case token.Dot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			e = ast.Property_{Expr: e, Name: name}
		case token.LBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			e = ast.Index{Expr: e, Index: idx}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Kind {
	case token.Int:
		v := p.cur.IVal
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: ast.IntValue(v)}, nil
	case token.Float:
		v := p.cur.FVal
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: ast.FloatValue(v)}, nil
	case token.String:
		v := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: ast.StringValue(v)}, nil
	case token.Null:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: ast.NullValue()}, nil
	case token.True:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: ast.BoolValue(true)}, nil
	case token.False:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: ast.BoolValue(false)}, nil
	case token.Param:
		name := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.Parameter{Name: name}, nil
	case token.LParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBracket:
		return p.parseListOrComprehension()
	case token.LBrace:
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		return ast.Map{Entries: props}, nil
	case token.Count:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == token.LBrace {
			if err := p.advance(); err != nil {
				return nil, err
			}
			pat, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBrace); err != nil {
				return nil, err
			}
			return ast.Count{Pattern: pat}, nil
		}
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return ast.FunctionCall{Name: "COUNT", Args: args}, nil
	case token.Exists:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == token.LBrace {
			if err := p.advance(); err != nil {
				return nil, err
			}
			pat, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBrace); err != nil {
				return nil, err
			}
			return ast.Exists{Pattern: pat}, nil
		}
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return ast.FunctionCall{Name: "EXISTS", Args: args}, nil
	case token.Case:
		return p.parseCase()
	case token.Ident:
		name := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == token.LParen {
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			return ast.FunctionCall{Name: name, Args: args}, nil
		}
		return ast.Variable{Name: name}, nil
	default:
		return nil, p.errf("unexpected token %s in expression", p.cur.Kind)
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if p.cur.Kind == token.RParen {
		return nil, nil
	}
	var args []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.cur.Kind != token.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (p *Parser) parseCase() (ast.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var operand ast.Expr
	if p.cur.Kind != token.When {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		operand = e
	}
	var whens []ast.WhenClause
	for p.cur.Kind == token.When {
		if err := p.advance(); err != nil {
			return nil, err
		}
		whenExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Then); err != nil {
			return nil, err
		}
		thenExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		whens = append(whens, ast.WhenClause{When: whenExpr, Then: thenExpr})
	}
	var elseExpr ast.Expr
	if p.cur.Kind == token.Else {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elseExpr = e
	}
	if _, err := p.expect(token.End); err != nil {
		return nil, err
	}
	return ast.Case{Operand: operand, Whens: whens, Else: elseExpr}, nil
}

// parseListOrComprehension handles `[` ... `]`: either a List literal, a
// ListComprehension (`[x IN src WHERE cond | proj]`), or bare filter form
// (`[x IN src WHERE cond]`, no projection).
func (p *Parser) parseListOrComprehension() (ast.Expr, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	if p.cur.Kind == token.RBracket {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.List{}, nil
	}

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if bin, ok := first.(ast.Binary); ok && bin.Op == ast.OpIn {
		if variable, ok := bin.Left.(ast.Variable); ok {
			var where ast.Expr
			if p.cur.Kind == token.Where {
				if err := p.advance(); err != nil {
					return nil, err
				}
				where, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			var project ast.Expr
			if p.cur.Kind == token.Pipe {
				if err := p.advance(); err != nil {
					return nil, err
				}
				project, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			return ast.ListComprehension{
				Variable: variable.Name,
				Source:   bin.Right,
				Where:    where,
				Project:  project,
			}, nil
		}
	}

	items := []ast.Expr{first}
	for p.cur.Kind == token.Comma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	return ast.List{Items: items}, nil
}
