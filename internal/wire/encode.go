package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the encoding of a document.
type Format uint8

const (
	FormatJSON Format = iota
	FormatJSONIndent
	FormatMsgpack
)

// ParseFormat accepts "json", "json-indent" and "msgpack".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "json-indent", "pretty":
		return FormatJSONIndent, nil
	case "msgpack":
		return FormatMsgpack, nil
	}
	return FormatJSON, fmt.Errorf("unknown format %q", s)
}

// Encode writes v to w. JSON output does not escape HTML characters and
// ends with a newline.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.UseCompactInts(true)
		return enc.Encode(v)
	case FormatJSONIndent:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
}

// Marshal is Encode into a byte slice, without the trailing newline for
// JSON.
func Marshal(v any, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, format); err != nil {
		return nil, err
	}
	if format == FormatMsgpack {
		return buf.Bytes(), nil
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
