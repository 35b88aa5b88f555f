package parser

import (
	"storytell/internal/script/token"
)

// Таблица приоритетов для бинарных операторов.
// Чем больше число, тем выше приоритет.
const (
	precLowest         = 0
	precAssignment     = 2  // = += -= *= /= %= **= ??= &&= ||=, а также ?:
	precLogicalOr      = 3  // || ??
	precLogicalAnd     = 4  // &&
	precBitwiseOr      = 5  // |
	precBitwiseXor     = 6  // ^
	precBitwiseAnd     = 7  // &
	precEquality       = 8  // == != === !==
	precComparison     = 9  // < <= > >= in instanceof
	precShift          = 10 // << >> >>>
	precAdditive       = 11 // + -
	precMultiplicative = 12 // * / %
	precExponent       = 13 // **
)

// getBinaryOperatorPrec возвращает приоритет и правоассоциативность оператора.
// -1: не бинарный оператор.
func getBinaryOperatorPrec(kind token.Kind) (int, bool) {
	if kind.IsAssign() {
		return precAssignment, true
	}
	switch kind {
	case token.OrOr, token.QuestionQuestion:
		return precLogicalOr, false
	case token.AndAnd:
		return precLogicalAnd, false
	case token.Pipe:
		return precBitwiseOr, false
	case token.Caret:
		return precBitwiseXor, false
	case token.Amp:
		return precBitwiseAnd, false
	case token.EqEq, token.BangEq, token.EqEqEq, token.BangEqEq:
		return precEquality, false
	case token.Lt, token.LtEq, token.Gt, token.GtEq, token.KwIn, token.KwInstanceof:
		return precComparison, false
	case token.Shl, token.Shr, token.UShr:
		return precShift, false
	case token.Plus, token.Minus:
		return precAdditive, false
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative, false
	case token.StarStar:
		return precExponent, true
	default:
		return -1, false
	}
}

func isPrefixOp(kind token.Kind) bool {
	switch kind {
	case token.Bang, token.Minus, token.Plus, token.Tilde, token.KwTypeof, token.KwVoid,
		token.PlusPlus, token.MinusMinus:
		return true
	}
	return false
}
