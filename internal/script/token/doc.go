// Package token defines the token kinds of the embedded script language
// found inside `{...}` spans of a story file.
// Invariants:
//   - Token.Text is the exact source slice covered by Token.Span.
//   - Spans are local to the enclosing script span.
//   - Template literals are a single Template token; the parser splits
//     their `${...}` substitutions.
package token
