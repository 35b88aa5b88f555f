package trace

import "time"

// Kind of an event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Scope is the granularity of an event; smaller is coarser.
type Scope uint8

const (
	ScopeCommand Scope = iota + 1 // CLI command or RPC request
	ScopePhase                    // scan, parse, fold, check, encode
	ScopeFile                     // one story file
	ScopeNode                     // single script or divert
)

func (s Scope) String() string {
	switch s {
	case ScopeCommand:
		return "command"
	case ScopePhase:
		return "phase"
	case ScopeFile:
		return "file"
	case ScopeNode:
		return "node"
	}
	return "unknown"
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 для корневых
	GID      uint64
	Name     string
	Detail   string
	Extra    map[string]string
}
