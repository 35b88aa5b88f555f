package token

var keywords = map[string]Kind{
	"true":       KwTrue,
	"false":      KwFalse,
	"null":       KwNull,
	"undefined":  KwUndefined,
	"new":        KwNew,
	"typeof":     KwTypeof,
	"void":       KwVoid,
	"in":         KwIn,
	"instanceof": KwInstanceof,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
