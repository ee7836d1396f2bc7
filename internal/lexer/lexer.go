// Package lexer implements the streaming tokenizer for the graph query
// language. Bare identifiers and parameters are sliced from the source
// without copying; string literals and backtick-quoted identifiers are
// copied so their escapes can be resolved. It never panics: unterminated strings or
// unrecognized characters are reported as a *cerr.ParseError carrying the
// 0-based byte position of the failure.
package lexer

import (
	"strconv"
	"strings"

	"github.com/claude-voice/engine/internal/cerr"
	"github.com/claude-voice/engine/internal/token"
)

// Lexer produces Tokens on demand from a source string.
type Lexer struct {
	src string
	pos int // byte offset of the next unread rune
}

// New returns a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next Token, or an EOF-kind Token when the source is
// exhausted. It never panics.
func (l *Lexer) Next() (token.Token, error) {
	if err := l.skipIgnorable(); err != nil {
		return token.Token{Kind: token.EOF, Pos: l.pos}, err
	}
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[start]

	switch {
	case isIdentStart(c):
		return l.lexIdent(), nil
	case c == '`':
		return l.lexBacktick()
	case c == '\'' || c == '"':
		return l.lexString(c)
	case c == '$':
		return l.lexParam()
	case isDigit(c):
		return l.lexNumber(), nil
	default:
		return l.lexPunct()
	}
}

// Tokenize consumes the entire source and returns the finite token
// sequence terminating with EOF, or the first error encountered.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var out []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out, nil
		}
	}
}

func (l *Lexer) skipIgnorable() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peek(1) == '*':
			start := l.pos
			l.pos += 2
			closed := false
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.peek(1) == '/' {
					l.pos += 2
					closed = true
					break
				}
				l.pos++
			}
			if !closed {
				// unterminated block comment at EOF is tolerated: treat
				// the rest of the source as consumed, next call yields EOF.
				_ = start
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) peek(offset int) byte {
	i := l.pos + offset
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *Lexer) lexIdent() token.Token {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if kind, ok := token.LookupKeyword(strings.ToUpper(text)); ok {
		return token.Token{Kind: kind, Text: text, Pos: start}
	}
	return token.Token{Kind: token.Ident, Text: text, Pos: start}
}

func (l *Lexer) lexBacktick() (token.Token, error) {
	start := l.pos
	l.pos++ // consume opening `
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token.Token{Kind: token.EOF, Pos: start}, cerr.NewParseError(start, "unterminated backtick identifier")
		}
		c := l.src[l.pos]
		if c == '`' {
			l.pos++
			break
		}
		if c == '\\' {
			l.pos++
			if l.pos < len(l.src) {
				l.pos++
			}
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	return token.Token{Kind: token.Ident, Text: b.String(), Pos: start}, nil
}

func (l *Lexer) lexString(quote byte) (token.Token, error) {
	start := l.pos
	l.pos++ // consume opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token.Token{Kind: token.EOF, Pos: start}, cerr.NewParseError(start, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return token.Token{Kind: token.EOF, Pos: start}, cerr.NewParseError(start, "unterminated string literal")
			}
			b.WriteByte(l.src[l.pos])
			l.pos++
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	return token.Token{Kind: token.String, Text: b.String(), Pos: start}, nil
}

func (l *Lexer) lexParam() (token.Token, error) {
	start := l.pos
	l.pos++ // consume $
	if l.pos >= len(l.src) || !isIdentStart(l.src[l.pos]) {
		return token.Token{Kind: token.EOF, Pos: start}, cerr.NewParseError(start, "expected identifier after '$'")
	}
	nameStart := l.pos
	l.pos++
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	return token.Token{Kind: token.Param, Text: l.src[nameStart:l.pos], Pos: start}, nil
}

func (l *Lexer) lexNumber() token.Token {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	isFloat := false
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peek(1)) {
		isFloat = true
		l.pos++ // consume '.'
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		j := l.pos + 1
		if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
			j++
		}
		if j < len(l.src) && isDigit(l.src[j]) {
			isFloat = true
			l.pos = j
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	text := l.src[start:l.pos]
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return token.Token{Kind: token.Float, Text: text, FVal: f, Pos: start}
	}
	i, _ := strconv.ParseInt(text, 10, 64)
	return token.Token{Kind: token.Int, Text: text, IVal: i, Pos: start}
}

func (l *Lexer) lexPunct() (token.Token, error) {
	start := l.pos
	c := l.src[l.pos]
	two := func(k token.Kind) (token.Token, error) {
		l.pos += 2
		return token.Token{Kind: k, Pos: start}, nil
	}
	one := func(k token.Kind) (token.Token, error) {
		l.pos++
		return token.Token{Kind: k, Pos: start}, nil
	}
	switch c {
	case '(':
		return one(token.LParen)
	case ')':
		return one(token.RParen)
	case '[':
		return one(token.LBracket)
	case ']':
		return one(token.RBracket)
	case '{':
		return one(token.LBrace)
	case '}':
		return one(token.RBrace)
	case ':':
		return one(token.Colon)
	case ',':
		return one(token.Comma)
	case '|':
		return one(token.Pipe)
	case '+':
		return one(token.Plus)
	case '*':
		return one(token.Star)
	case '/':
		return one(token.Slash)
	case '%':
		return one(token.Pct)
	case '^':
		return one(token.Caret)
	case '.':
		if l.peek(1) == '.' {
			return two(token.DotDot)
		}
		return one(token.Dot)
	case '-':
		if l.peek(1) == '>' {
			return two(token.ArrowRight)
		}
		return one(token.Minus)
	case '<':
		switch l.peek(1) {
		case '-':
			return two(token.ArrowLeft)
		case '=':
			return two(token.Le)
		case '>':
			return two(token.Neq)
		default:
			return one(token.Lt)
		}
	case '>':
		if l.peek(1) == '=' {
			return two(token.Ge)
		}
		return one(token.Gt)
	case '=':
		if l.peek(1) == '=' {
			return two(token.EqEq)
		}
		return one(token.Eq)
	default:
		l.pos++
		return token.Token{Kind: token.EOF, Pos: start}, cerr.NewParseError(start, "unrecognized character "+strconv.QuoteRune(rune(c)))
	}
}
