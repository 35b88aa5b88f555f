// Package diag defines the diagnostic model shared by every compiler phase.
//
// Diagnostics are plain data. Producers (markup parser, script lexer and
// parser, path resolver, variable engine) emit them through a Reporter; the
// session collects them in a Bag per file and the wire compiler or
// internal/diagfmt renders them. Nothing in this package performs IO.
//
// Code ranges:
//
//   - 1000..1999 lexical (script tokenizer)
//   - 2000..2999 syntactic (markup and script parsers)
//   - 3000..3999 semantic (diverts, inferred variable kinds)
//   - 5000..5999 project (manifest, unreadable files)
//
// A compile operation never fails because of a diagnostic: it always
// returns a best-effort result together with the full list.
package diag
