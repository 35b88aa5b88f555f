package lexer

// LineEnding selects the byte sequence that terminates a line.
type LineEnding uint8

const (
	// LF is a 1-byte "\n" line ending.
	LF LineEnding = 1
	// CRLF is a 2-byte "\r\n" line ending.
	CRLF LineEnding = 2
)

func (le LineEnding) String() string {
	if le == CRLF {
		return "crlf"
	}
	return "lf"
}

// Width returns the number of bytes of one line ending.
func (le LineEnding) Width() uint32 {
	if le == CRLF {
		return 2
	}
	return 1
}

// Options configures the markup lexer.
type Options struct {
	LineEnding  LineEnding // 0 means LF
	IndentWidth int        // spaces per indentation unit; 0 means 4
}

func (o Options) normalized() Options {
	if o.LineEnding == 0 {
		o.LineEnding = LF
	}
	if o.IndentWidth <= 0 {
		o.IndentWidth = 4
	}
	return o
}
