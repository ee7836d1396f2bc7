// Package token defines the lexical tokens produced by internal/lexer.
package token

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota

	Ident
	Int
	Float
	String
	Param // $name

	// keywords
	Match
	Optional
	Where
	Return
	Order
	By
	Limit
	Skip
	Create
	Set
	Delete
	Detach
	With
	Unwind
	As
	Distinct
	And
	Or
	Xor
	Not
	In
	Is
	Null
	True
	False
	Contains
	Starts
	Ends
	Case
	When
	Then
	Else
	End
	Exists
	Count
	Asc
	Desc

	// punctuation
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Colon
	Comma
	Dot
	DotDot
	Pipe
	ArrowRight // ->
	ArrowLeft  // <-
	Minus

	// operators
	Eq    // =
	EqEq  // ==
	Neq   // <>
	Lt    // <
	Le    // <=
	Gt    // >
	Ge    // >=
	Plus  // +
	Star  // *
	Slash // /
	Pct   // %
	Caret // ^
)

var keywords = map[string]Kind{
	"MATCH":      Match,
	"OPTIONAL":   Optional,
	"WHERE":      Where,
	"RETURN":     Return,
	"ORDER":      Order,
	"BY":         By,
	"LIMIT":      Limit,
	"SKIP":       Skip,
	"CREATE":     Create,
	"SET":        Set,
	"DELETE":     Delete,
	"DETACH":     Detach,
	"WITH":       With,
	"UNWIND":     Unwind,
	"AS":         As,
	"DISTINCT":   Distinct,
	"AND":        And,
	"OR":         Or,
	"XOR":        Xor,
	"NOT":        Not,
	"IN":         In,
	"IS":         Is,
	"NULL":       Null,
	"TRUE":       True,
	"FALSE":      False,
	"CONTAINS":   Contains,
	"STARTS":     Starts,
	"ENDS":       Ends,
	"CASE":       Case,
	"WHEN":       When,
	"THEN":       Then,
	"ELSE":       Else,
	"END":        End,
	"EXISTS":     Exists,
	"COUNT":      Count,
	"ASC":        Asc,
	"ASCENDING":  Asc,
	"DESC":       Desc,
	"DESCENDING": Desc,
}

// LookupKeyword returns the keyword Kind for the uppercased identifier text,
// and ok=false if upper is not a keyword.
func LookupKeyword(upper string) (Kind, bool) {
	k, ok := keywords[upper]
	return k, ok
}

// Token is a single lexical token. Ident/String/Param carry their text in
// Text: bare identifiers and parameters are slices of the source string,
// while string literals and backtick-quoted identifiers are copies with
// their backslash escapes resolved. Int/Float carry parsed values in
// IVal/FVal.
type Token struct {
	Kind Kind
	Text string
	IVal int64
	FVal float64
	Pos  int // 0-based byte offset of the token's first byte
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Param:
		return "Param"
	default:
		for text, kind := range keywords {
			if kind == k {
				return text
			}
		}
		return "?"
	}
}
