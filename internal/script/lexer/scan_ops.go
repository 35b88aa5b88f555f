package lexer

import (
	"storytell/internal/diag"
	"storytell/internal/script/token"
)

// Жадность: сначала 4- и 3-символьные, затем 2-символьные, затем 1-символьные.
var multiOps = []struct {
	text string
	kind token.Kind
}{
	{">>>", token.UShr},
	{"===", token.EqEqEq},
	{"!==", token.BangEqEq},
	{"**=", token.StarStarAssign},
	{"??=", token.QuestionQuestionAssign},
	{"&&=", token.AndAndAssign},
	{"||=", token.OrOrAssign},
	{"...", token.DotDotDot},
	{"**", token.StarStar},
	{"++", token.PlusPlus},
	{"--", token.MinusMinus},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"??", token.QuestionQuestion},
}

var singleOps = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'=': token.Assign,
	'<': token.Lt,
	'>': token.Gt,
	'&': token.Amp,
	'|': token.Pipe,
	'^': token.Caret,
	'~': token.Tilde,
	'!': token.Bang,
	'?': token.Question,
	':': token.Colon,
	';': token.Semicolon,
	',': token.Comma,
	'.': token.Dot,
	'(': token.LParen,
	')': token.RParen,
	'[': token.LBracket,
	']': token.RBracket,
	'{': token.LBrace,
	'}': token.RBrace,
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	for _, op := range multiOps {
		if lx.try(op.text) {
			return lx.emit(op.kind, start)
		}
	}
	ch := lx.cursor.Next()
	if k, ok := singleOps[ch]; ok {
		return lx.emit(k, start)
	}
	tok := lx.emit(token.Invalid, start)
	lx.errLex(diag.LexUnknownChar, tok.Span, "unknown character '"+tok.Text+"'")
	return tok
}
