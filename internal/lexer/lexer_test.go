package lexer

import (
	"testing"

	"github.com/claude-voice/engine/internal/cerr"
	"github.com/claude-voice/engine/internal/token"
)

func Tokenize(src string) ([]token.Token, error) {
	return New(src).Tokenize()
}

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestTokenizeDeterministic(t *testing.T) {
	src := `MATCH (a:Person {name: "Ada"})-[:KNOWS]->(b) WHERE a.age > 30 RETURN a, b.name AS n`
	first := kinds(t, src)
	second := kinds(t, src)
	if len(first) != len(second) {
		t.Fatalf("token count differs across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("token %d differs across runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestKeywordsCaseInsensitive(t *testing.T) {
	variants := []string{"match", "Match", "MATCH", "mAtCh"}
	var want []token.Kind
	for i, v := range variants {
		toks, err := Tokenize(v)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", v, err)
		}
		if len(toks) != 2 { // keyword + EOF
			t.Fatalf("Tokenize(%q): got %d tokens, want 2", v, len(toks))
		}
		if toks[0].Kind != token.Match {
			t.Fatalf("Tokenize(%q): got kind %v, want Match", v, toks[0].Kind)
		}
		if i == 0 {
			want = []token.Kind{toks[0].Kind}
		} else if toks[0].Kind != want[0] {
			t.Fatalf("case variant %q lexed to a different kind", v)
		}
	}
}

func TestIdentVsKeyword(t *testing.T) {
	toks, err := Tokenize("MATCHING")
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != token.Ident || toks[0].Text != "MATCHING" {
		t.Fatalf("got %v %q, want Ident MATCHING (prefix-keyword must not match)", toks[0].Kind, toks[0].Text)
	}
}

func TestNumberLexing(t *testing.T) {
	cases := []struct {
		src      string
		wantKind token.Kind
	}{
		{"42", token.Int},
		{"3.14", token.Float},
		{"1e10", token.Float},
		{"1.5e-3", token.Float},
	}
	for _, c := range cases {
		toks, err := Tokenize(c.src)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", c.src, err)
		}
		if toks[0].Kind != c.wantKind {
			t.Errorf("Tokenize(%q): got %v, want %v", c.src, toks[0].Kind, c.wantKind)
		}
	}
}

func TestStringEscape(t *testing.T) {
	toks, err := Tokenize(`"a\"b"`)
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != token.String || toks[0].Text != `a"b` {
		t.Fatalf("got %v %q, want String a\"b", toks[0].Kind, toks[0].Text)
	}
}

func TestPunctuationDisambiguation(t *testing.T) {
	cases := []struct {
		src  string
		want []token.Kind
	}{
		{"<>", []token.Kind{token.Neq, token.EOF}},
		{"<=", []token.Kind{token.Le, token.EOF}},
		{"<-", []token.Kind{token.ArrowLeft, token.EOF}},
		{"->", []token.Kind{token.ArrowRight, token.EOF}},
		{"==", []token.Kind{token.EqEq, token.EOF}},
		{"..", []token.Kind{token.DotDot, token.EOF}},
	}
	for _, c := range cases {
		got := kinds(t, c.src)
		if len(got) != len(c.want) {
			t.Fatalf("Tokenize(%q): got %v, want %v", c.src, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("Tokenize(%q): got %v, want %v", c.src, got, c.want)
			}
		}
	}
}

func TestUnrecognizedCharIsParseError(t *testing.T) {
	_, err := Tokenize("MATCH (a) # oops")
	if err == nil {
		t.Fatal("expected error for unrecognized character")
	}
	if _, ok := err.(*cerr.ParseError); !ok {
		t.Fatalf("expected *cerr.ParseError, got %T", err)
	}
}
