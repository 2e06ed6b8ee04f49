package lexer

import (
	"testing"

	"github.com/exprlang/exprlang/internal/token"
)

func TestNextOperatorsAndPunctuators(t *testing.T) {
	src := `+ - * / % == != < <= > >= && || ! & | ^ ~ << >> . , ; ( ) [ ] { } ? : ?? = =>`
	want := []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.AND_AND, token.OR_OR, token.BANG, token.AMP, token.PIPE, token.CARET, token.TILDE,
		token.SHL, token.SHR, token.DOT, token.COMMA, token.SEMI,
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET, token.LBRACE, token.RBRACE,
		token.QUESTION, token.COLON, token.QUESTION_QUESTION, token.ASSIGN, token.ARROW,
	}

	l := New(src)
	for i, tt := range want {
		tok := l.Next()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s (literal %q)", i, tok.Type, tt, tok.Literal)
		}
	}
	if eof := l.Next(); eof.Type != token.EOF {
		t.Fatalf("expected EOF, got %s", eof.Type)
	}
}

func TestNextIdentifiersAndKeywords(t *testing.T) {
	tests := []struct {
		src  string
		typ  token.Type
		lit  string
	}{
		{"foo", token.IDENT, "foo"},
		{"_bar1", token.IDENT, "_bar1"},
		{"true", token.TRUE, "true"},
		{"false", token.FALSE, "false"},
		{"null", token.NIL, "null"},
		{"as", token.AS, "as"},
		{"is", token.IS, "is"},
		{"typeof", token.TYPEOF, "typeof"},
		{"default", token.DEFAULT, "default"},
	}
	for _, tt := range tests {
		tok := New(tt.src).Next()
		if tok.Type != tt.typ || tok.Literal != tt.lit {
			t.Errorf("%q: got (%s, %q), want (%s, %q)", tt.src, tok.Type, tok.Literal, tt.typ, tt.lit)
		}
	}
}

func TestNextNumericSuffixes(t *testing.T) {
	tests := []struct {
		src        string
		typ        token.Type
		intSuffix  token.IntSuffix
		realSuffix token.RealSuffix
	}{
		{"123", token.INT, token.IntSuffixNone, token.RealSuffixNone},
		{"123u", token.INT, token.IntSuffixU32, token.RealSuffixNone},
		{"123L", token.INT, token.IntSuffixI64, token.RealSuffixNone},
		{"123UL", token.INT, token.IntSuffixU64, token.RealSuffixNone},
		{"1.5", token.FLOAT, token.IntSuffixNone, token.RealSuffixNone},
		{"1.5f", token.FLOAT, token.IntSuffixNone, token.RealSuffixSingle},
		{"1.5d", token.FLOAT, token.IntSuffixNone, token.RealSuffixDouble},
		{"1.5m", token.FLOAT, token.IntSuffixNone, token.RealSuffixDecimal},
		{"1e10", token.FLOAT, token.IntSuffixNone, token.RealSuffixNone},
	}
	for _, tt := range tests {
		tok := New(tt.src).Next()
		if tok.Type != tt.typ {
			t.Errorf("%q: type = %s, want %s", tt.src, tok.Type, tt.typ)
			continue
		}
		if tok.Type == token.INT && tok.IntSuffix != tt.intSuffix {
			t.Errorf("%q: int suffix = %v, want %v", tt.src, tok.IntSuffix, tt.intSuffix)
		}
		if tok.Type == token.FLOAT && tok.RealSuffix != tt.realSuffix {
			t.Errorf("%q: real suffix = %v, want %v", tt.src, tok.RealSuffix, tt.realSuffix)
		}
	}
}

func TestNextStringEscapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"hello"`, "hello"},
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"quote:\""`, `quote:"`},
		{`"uni:\` + `u0041"`, "uni:A"},
		{`'single'`, "single"},
	}
	for _, tt := range tests {
		tok := New(tt.src).Next()
		if tok.Type != token.STRING {
			t.Fatalf("%q: type = %s, want STRING", tt.src, tok.Type)
		}
		if tok.Literal != tt.want {
			t.Errorf("%q: literal = %q, want %q", tt.src, tok.Literal, tt.want)
		}
	}
}

func TestNextCharLiteral(t *testing.T) {
	tok := New("#65").Next()
	if tok.Type != token.CHAR || tok.Literal != "A" {
		t.Fatalf("got (%s, %q), want (CHAR, \"A\")", tok.Type, tok.Literal)
	}
	tok = New("#$41").Next()
	if tok.Type != token.CHAR || tok.Literal != "A" {
		t.Fatalf("hex: got (%s, %q), want (CHAR, \"A\")", tok.Type, tok.Literal)
	}
}

func TestNextUnicodeIdentifierColumns(t *testing.T) {
	// Column positions count runes, not bytes — emoji and multi-byte
	// identifiers occupy a single column each, mirroring the teacher's
	// rune-counted column tracking.
	l := New("Δ + 1")
	first := l.Next()
	if first.Pos.Column != 1 {
		t.Fatalf("Δ column = %d, want 1", first.Pos.Column)
	}
	plus := l.Next()
	if plus.Pos.Column != 3 {
		t.Fatalf("+ column = %d, want 3", plus.Pos.Column)
	}
}

func TestSaveRestore(t *testing.T) {
	l := New("abc def")
	first := l.Next()
	state := l.Save()
	second := l.Next()
	l.Restore(state)
	secondAgain := l.Next()
	if second.Literal != secondAgain.Literal {
		t.Fatalf("restore mismatch: %q vs %q", second.Literal, secondAgain.Literal)
	}
	if first.Literal != "abc" {
		t.Fatalf("first literal = %q, want abc", first.Literal)
	}
}

func TestIllegalCharacterRecordsPosition(t *testing.T) {
	l := New("1 @ 2")
	l.Next()
	tok := l.Next()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
	errs := l.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 lexer error, got %d", len(errs))
	}
	if errs[0].Pos.Column != 3 {
		t.Fatalf("error column = %d, want 3", errs[0].Pos.Column)
	}
}
