// Package magic infers the types of story variables ("magic variables")
// from the assignments made in script spans across every file of a
// project.
package magic

import "fmt"

// Tag is the shape of a kind. The numeric values are part of the wire
// format.
type Tag uint8

const (
	TagString Tag = iota
	TagNumber
	TagBool
	TagArray
	TagObjectRef
	TagUnknown
	TagMap
)

// ObjectID identifies an object entity. Ids start at 1 and are never
// reused; 0 means "no object".
type ObjectID uint32

// Kind is an inferred variable type. Kinds are comparable; two ObjectRef
// kinds are equal iff they point to the same object.
type Kind struct {
	Tag    Tag
	Object ObjectID
}

var (
	String  = Kind{Tag: TagString}
	Number  = Kind{Tag: TagNumber}
	Bool    = Kind{Tag: TagBool}
	Array   = Kind{Tag: TagArray}
	Map     = Kind{Tag: TagMap}
	Unknown = Kind{Tag: TagUnknown}
)

// ObjectRef returns the kind of a reference to obj.
func ObjectRef(obj ObjectID) Kind {
	return Kind{Tag: TagObjectRef, Object: obj}
}

func (k Kind) IsObject() bool {
	return k.Tag == TagObjectRef && k.Object != 0
}

func (k Kind) String() string {
	switch k.Tag {
	case TagString:
		return "string"
	case TagNumber:
		return "number"
	case TagBool:
		return "bool"
	case TagArray:
		return "array"
	case TagMap:
		return "map"
	case TagObjectRef:
		return fmt.Sprintf("object#%d", k.Object)
	}
	return "unknown"
}
