package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo                  Code = 1000
	LexUnknownChar           Code = 1001
	LexUnterminatedString    Code = 1002
	LexInvalidDigit          Code = 1003
	LexDuplicateDecimalPoint Code = 1004
	LexTrailingSeparator     Code = 1005
	LexBadNumber             Code = 1006

	// Синтаксические
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynUnclosedDelimiter Code = 2002
	SynUnclosedParen     Code = 2003
	SynUnclosedBracket   Code = 2004
	SynUnclosedCodeBlock Code = 2005
	SynUnclosedScript    Code = 2006
	SynUnclosedTemplate  Code = 2007
	SynExpectExpression  Code = 2008
	SynExpectIdentifier  Code = 2009
	SynEmptyDivert       Code = 2010
	SynBadAttribute      Code = 2011
	SynEmptyChoice       Code = 2012

	// Семантические
	SemaInfo           Code = 3000
	SemaUnknownPath    Code = 3001
	SemaUnknownSubPath Code = 3002
	SemaKindConflict   Code = 3003
	SemaNotAnObject    Code = 3004

	// Проектные
	PrjInfo            Code = 5000
	PrjManifestInvalid Code = 5001
	PrjUnreadableFile  Code = 5002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:              "Unknown error",
		LexInfo:                  "Lexical information",
		LexUnknownChar:           "Unknown character",
		LexUnterminatedString:    "Unterminated string literal",
		LexInvalidDigit:          "Invalid digit for number base",
		LexDuplicateDecimalPoint: "Duplicate decimal point",
		LexTrailingSeparator:     "Trailing numeric separator",
		LexBadNumber:             "Malformed number",
		SynInfo:                  "Syntax information",
		SynUnexpectedToken:       "Unexpected token",
		SynUnclosedDelimiter:     "Missing closing symbol",
		SynUnclosedParen:         "Unclosed parenthesis",
		SynUnclosedBracket:       "Unclosed bracket",
		SynUnclosedCodeBlock:     "Unclosed code block",
		SynUnclosedScript:        "Unclosed script span",
		SynUnclosedTemplate:      "Unclosed template substitution",
		SynExpectExpression:      "Expected expression",
		SynExpectIdentifier:      "Expected identifier",
		SynEmptyDivert:           "Divert without a path",
		SynBadAttribute:          "Malformed attribute",
		SynEmptyChoice:           "Choice without text",
		SemaInfo:                 "Semantic information",
		SemaUnknownPath:          "Unknown path",
		SemaUnknownSubPath:       "Unknown sub-path",
		SemaKindConflict:         "Conflicting variable type",
		SemaNotAnObject:          "Variable is not an object",
		PrjInfo:                  "Project information",
		PrjManifestInvalid:       "Invalid project manifest",
		PrjUnreadableFile:        "Unreadable story file",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
