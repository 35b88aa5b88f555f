package ast

type (
	ExprID    uint32
	PayloadID uint32
)

const (
	NoExprID    ExprID    = 0
	NoPayloadID PayloadID = 0
)

func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
