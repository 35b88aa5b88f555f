package lexer_test

import (
	"testing"

	"storytell/internal/diag"
	"storytell/internal/script/lexer"
	"storytell/internal/script/token"
	"storytell/internal/source"
)

// testReporter собирает все диагностики, полученные от лексера
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes, Fixes: fixes,
	})
}

func (r *testReporter) codes() []diag.Code {
	out := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, d.Code)
	}
	return out
}

func lexAll(t *testing.T, input string) ([]token.Token, *testReporter) {
	t.Helper()
	rep := &testReporter{}
	lx := lexer.New([]byte(input), 0, lexer.Options{Reporter: rep})
	var toks []token.Token
	for i := 0; i < 1000; i++ {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return toks, rep
		}
		toks = append(toks, tok)
	}
	t.Fatalf("lexer did not reach EOF for %q", input)
	return nil, nil
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func sameKinds(a, b []token.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOperatorsLongestFirst(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
	}{
		{"a === b", []token.Kind{token.Ident, token.EqEqEq, token.Ident}},
		{"a == b", []token.Kind{token.Ident, token.EqEq, token.Ident}},
		{"a = b", []token.Kind{token.Ident, token.Assign, token.Ident}},
		{"a !== b", []token.Kind{token.Ident, token.BangEqEq, token.Ident}},
		{"a ??= b", []token.Kind{token.Ident, token.QuestionQuestionAssign, token.Ident}},
		{"a ?? b", []token.Kind{token.Ident, token.QuestionQuestion, token.Ident}},
		{"a &&= b || c", []token.Kind{token.Ident, token.AndAndAssign, token.Ident, token.OrOr, token.Ident}},
		{"a **= 2", []token.Kind{token.Ident, token.StarStarAssign, token.Number}},
		{"x++ - --y", []token.Kind{token.Ident, token.PlusPlus, token.Minus, token.MinusMinus, token.Ident}},
		{"a >>> b", []token.Kind{token.Ident, token.UShr, token.Ident}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, rep := lexAll(t, tt.input)
			if got := kinds(toks); !sameKinds(got, tt.want) {
				t.Errorf("kinds = %v, want %v", got, tt.want)
			}
			if len(rep.diagnostics) != 0 {
				t.Errorf("unexpected diagnostics: %v", rep.codes())
			}
		})
	}
}

func TestKeywordsAndLiterals(t *testing.T) {
	toks, _ := lexAll(t, `new Map() typeof x true false null 'a' "b" visits`)
	want := []token.Kind{
		token.KwNew, token.Ident, token.LParen, token.RParen, token.KwTypeof, token.Ident,
		token.KwTrue, token.KwFalse, token.KwNull, token.String, token.String, token.Ident,
	}
	if got := kinds(toks); !sameKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if toks[9].Text != "'a'" {
		t.Errorf("string text = %q", toks[9].Text)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		codes []diag.Code
	}{
		{"int", "42", nil},
		{"float", "3.14", nil},
		{"leading dot", ".5", nil},
		{"exponent", "1e-3", nil},
		{"hex", "0xFF_FF", nil},
		{"octal", "0o755", nil},
		{"binary", "0b1010", nil},
		{"separators", "1_000_000", nil},
		{"invalid binary digit", "0b102", []diag.Code{diag.LexInvalidDigit}},
		{"invalid octal digit", "0o78", []diag.Code{diag.LexInvalidDigit}},
		{"duplicate point", "1.2.3", []diag.Code{diag.LexDuplicateDecimalPoint}},
		{"trailing separator", "100_", []diag.Code{diag.LexTrailingSeparator}},
		{"consecutive separators", "1__2", []diag.Code{diag.LexTrailingSeparator}},
		{"consecutive then trailing", "1__", []diag.Code{diag.LexTrailingSeparator, diag.LexTrailingSeparator}},
		{"consecutive in hex", "0xF__F", []diag.Code{diag.LexTrailingSeparator}},
		{"empty prefix", "0x", []diag.Code{diag.LexBadNumber}},
		{"letters glued", "12abc", []diag.Code{diag.LexInvalidDigit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, rep := lexAll(t, tt.input)
			if len(toks) != 1 || toks[0].Kind != token.Number {
				t.Fatalf("expected one number token, got %v", kinds(toks))
			}
			if toks[0].Text != tt.input {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.input)
			}
			got := rep.codes()
			if len(got) != len(tt.codes) {
				t.Fatalf("codes = %v, want %v", got, tt.codes)
			}
			for i := range got {
				if got[i] != tt.codes[i] {
					t.Errorf("code[%d] = %v, want %v", i, got[i], tt.codes[i])
				}
			}
		})
	}
}

func TestNumberMemberAccess(t *testing.T) {
	toks, rep := lexAll(t, "1.toFixed")
	want := []token.Kind{token.Number, token.Dot, token.Ident}
	if got := kinds(toks); !sameKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", rep.codes())
	}
}

func TestUnterminatedStringSpansToEnd(t *testing.T) {
	toks, rep := lexAll(t, `x = "open`)
	last := toks[len(toks)-1]
	if last.Kind != token.String || last.Span.End != 9 {
		t.Fatalf("expected string token to end of input, got %v %v", last.Kind, last.Span)
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnterminatedString {
		t.Fatalf("expected one unterminated string diagnostic, got %v", rep.codes())
	}
}

func TestTemplateToken(t *testing.T) {
	toks, rep := lexAll(t, "`Hi ${name + \"}\"}!` + 1")
	want := []token.Kind{token.Template, token.Plus, token.Number}
	if got := kinds(toks); !sameKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", rep.codes())
	}
}

func TestUnknownCharacter(t *testing.T) {
	toks, rep := lexAll(t, "a # b")
	if got := kinds(toks); !sameKinds(got, []token.Kind{token.Ident, token.Invalid, token.Ident}) {
		t.Fatalf("kinds = %v", got)
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnknownChar {
		t.Fatalf("codes = %v", rep.codes())
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx := lexer.New([]byte("a b"), 0, lexer.Options{})
	if lx.Peek().Text != "a" || lx.Next().Text != "a" || lx.Next().Text != "b" {
		t.Fatal("peek/next mismatch")
	}
	if lx.Next().Kind != token.EOF || lx.Next().Kind != token.EOF {
		t.Fatal("expected sticky EOF")
	}
}
