// Package fuzztests houses Go fuzz harnesses for the storytell front end:
// markup lexer and parser, script parser and a whole session compile.
// They guard against panics, hangs and broken span invariants on arbitrary
// input.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
