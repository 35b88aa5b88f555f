package token

// Kind represents the category of a script token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	Number
	String
	Template

	KwTrue
	KwFalse
	KwNull
	KwUndefined
	KwNew
	KwTypeof
	KwVoid
	KwIn
	KwInstanceof

	Plus       // +
	Minus      // -
	Star       // *
	StarStar   // **
	Slash      // /
	Percent    // %
	PlusPlus   // ++
	MinusMinus // --

	Assign                 // =
	PlusAssign             // +=
	MinusAssign            // -=
	StarAssign             // *=
	SlashAssign            // /=
	PercentAssign          // %=
	StarStarAssign         // **=
	QuestionQuestionAssign // ??=
	AndAndAssign           // &&=
	OrOrAssign             // ||=

	EqEq             // ==
	EqEqEq           // ===
	BangEq           // !=
	BangEqEq         // !==
	Lt               // <
	LtEq             // <=
	Gt               // >
	GtEq             // >=
	Shl              // <<
	Shr              // >>
	UShr             // >>>
	Amp              // &
	Pipe             // |
	Caret            // ^
	Tilde            // ~
	Bang             // !
	AndAnd           // &&
	OrOr             // ||
	QuestionQuestion // ??
	Question         // ?

	Colon     // :
	Semicolon // ;
	Comma     // ,
	Dot       // .
	DotDotDot // ...
	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	LBrace    // {
	RBrace    // }
)

var kindNames = [...]string{
	Invalid:                "invalid",
	EOF:                    "end of script",
	Ident:                  "identifier",
	Number:                 "number",
	String:                 "string",
	Template:               "template",
	KwTrue:                 "true",
	KwFalse:                "false",
	KwNull:                 "null",
	KwUndefined:            "undefined",
	KwNew:                  "new",
	KwTypeof:               "typeof",
	KwVoid:                 "void",
	KwIn:                   "in",
	KwInstanceof:           "instanceof",
	Plus:                   "+",
	Minus:                  "-",
	Star:                   "*",
	StarStar:               "**",
	Slash:                  "/",
	Percent:                "%",
	PlusPlus:               "++",
	MinusMinus:             "--",
	Assign:                 "=",
	PlusAssign:             "+=",
	MinusAssign:            "-=",
	StarAssign:             "*=",
	SlashAssign:            "/=",
	PercentAssign:          "%=",
	StarStarAssign:         "**=",
	QuestionQuestionAssign: "??=",
	AndAndAssign:           "&&=",
	OrOrAssign:             "||=",
	EqEq:                   "==",
	EqEqEq:                 "===",
	BangEq:                 "!=",
	BangEqEq:               "!==",
	Lt:                     "<",
	LtEq:                   "<=",
	Gt:                     ">",
	GtEq:                   ">=",
	Shl:                    "<<",
	Shr:                    ">>",
	UShr:                   ">>>",
	Amp:                    "&",
	Pipe:                   "|",
	Caret:                  "^",
	Tilde:                  "~",
	Bang:                   "!",
	AndAnd:                 "&&",
	OrOr:                   "||",
	QuestionQuestion:       "??",
	Question:               "?",
	Colon:                  ":",
	Semicolon:              ";",
	Comma:                  ",",
	Dot:                    ".",
	DotDotDot:              "...",
	LParen:                 "(",
	RParen:                 ")",
	LBracket:               "[",
	RBracket:               "]",
	LBrace:                 "{",
	RBrace:                 "}",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsAssign reports whether k belongs to the assignment family.
func (k Kind) IsAssign() bool {
	return k >= Assign && k <= OrOrAssign
}
