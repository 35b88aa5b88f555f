package magic

import (
	"storytell/internal/script/ast"
	"storytell/internal/script/token"
	"storytell/internal/source"
)

var arrayMutators = map[string]bool{
	"push": true, "pop": true, "join": true, "slice": true,
	"splice": true, "shift": true, "unshift": true,
}

var mapMutators = map[string]bool{
	"set": true, "clear": true, "has": true, "get": true,
	"keys": true, "values": true,
}

// folder walks one fragment. Not safe to share.
type folder struct {
	s       *Store
	frag    Fragment
	exprs   *ast.Exprs
	touched []VarID
	seen    map[VarID]bool
}

func (s *Store) fold(frag Fragment) []VarID {
	if frag.Script == nil {
		return nil
	}
	f := &folder{s: s, frag: frag, exprs: frag.Script.Exprs, seen: make(map[VarID]bool)}
	for _, stmt := range frag.Script.Stmts {
		f.expr(stmt)
	}
	return f.touched
}

func (f *folder) span(local source.Span) source.Span {
	return local.Shift(f.frag.Base, f.frag.File)
}

func (f *folder) record(id VarID, k Kind, local source.Span) {
	f.s.assign(id, Assignment{Origin: f.frag.File, Kind: k, Span: f.span(local)})
	if !f.seen[id] {
		f.seen[id] = true
		f.touched = append(f.touched, id)
	}
}

// expr infers the kind of an expression, recording every assignment found
// on the way.
func (f *folder) expr(id ast.ExprID) Kind {
	if !id.IsValid() {
		return Unknown
	}
	e := f.exprs.Get(id)
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := f.exprs.Literal(id)
		switch lit.Kind {
		case ast.LitString:
			return String
		case ast.LitNumber:
			return Number
		case ast.LitBool:
			return Bool
		}
		return Unknown
	case ast.ExprTemplate:
		f.walkChildren(id)
		return String
	case ast.ExprIdent:
		ident, _ := f.exprs.Ident(id)
		if v, ok := f.s.globals[ident.Name]; ok {
			return f.s.kindOf(v)
		}
		return Unknown
	case ast.ExprArray:
		f.walkChildren(id)
		return Array
	case ast.ExprNew:
		n, _ := f.exprs.New(id)
		for _, arg := range n.Args {
			f.expr(arg)
		}
		if callee, ok := f.exprs.Ident(f.exprs.Unparen(n.Callee)); ok {
			switch callee.Name {
			case "Array":
				return Array
			case "Map":
				return Map
			case "String":
				return String
			case "Number":
				return Number
			}
		}
		return Unknown
	case ast.ExprGroup:
		g, _ := f.exprs.Group(id)
		return f.expr(g.Inner)
	case ast.ExprBinary:
		return f.binary(id)
	case ast.ExprUnary:
		return f.unary(id)
	case ast.ExprAccess:
		return f.read(id)
	case ast.ExprCall:
		f.call(id)
		return Unknown
	case ast.ExprTernary:
		t, _ := f.exprs.Ternary(id)
		f.expr(t.Cond)
		then, els := f.expr(t.Then), f.expr(t.Else)
		if then == els {
			return then
		}
		return Unknown
	}
	f.walkChildren(id)
	return Unknown
}

func (f *folder) walkChildren(id ast.ExprID) {
	for _, child := range f.exprs.Children(id) {
		f.expr(child)
	}
}

func (f *folder) binary(id ast.ExprID) Kind {
	b, _ := f.exprs.Binary(id)
	if b.Op.IsAssign() {
		return f.assignment(b)
	}
	left, right := f.expr(b.Left), f.expr(b.Right)
	switch b.Op {
	case token.EqEq, token.EqEqEq, token.BangEq, token.BangEqEq,
		token.Lt, token.LtEq, token.Gt, token.GtEq,
		token.KwIn, token.KwInstanceof:
		return Bool
	case token.Plus:
		if left == String || right == String {
			return String
		}
		if left == Number && right == Number {
			return Number
		}
	case token.Minus, token.Star, token.Slash, token.Percent, token.StarStar:
		if left == Number && right == Number {
			return Number
		}
	case token.Amp, token.Pipe, token.Caret, token.Shl, token.Shr, token.UShr:
		return Number
	case token.AndAnd, token.OrOr, token.QuestionQuestion:
		if left == right {
			return left
		}
	}
	return Unknown
}

// assignment handles the whole `=` family.
func (f *folder) assignment(b *ast.ExprBinaryData) Kind {
	var k Kind
	switch b.Op {
	case token.PlusAssign:
		if f.expr(b.Right) == String {
			k = String
		} else {
			k = Number
		}
	case token.MinusAssign, token.StarAssign, token.SlashAssign, token.PercentAssign, token.StarStarAssign:
		f.expr(b.Right)
		k = Unknown
		if lit, ok := f.exprs.Literal(f.exprs.Unparen(b.Right)); ok && lit.Kind == ast.LitNumber {
			k = Number
		}
	default:
		k = f.expr(b.Right)
	}
	f.store(b.Left, k)
	return k
}

// store records k on an assignment target. Targets that are neither an
// identifier nor a resolvable access are only walked.
func (f *folder) store(target ast.ExprID, k Kind) {
	target = f.exprs.Unparen(target)
	if ident, ok := f.exprs.Ident(target); ok {
		f.record(f.s.global(ident.Name), k, f.exprs.Get(target).Span)
		return
	}
	if _, ok := f.exprs.Access(target); ok {
		if v, sp, ok := f.resolveWrite(target); ok {
			f.record(v, k, sp)
		}
		return
	}
	f.expr(target)
}

func (f *folder) unary(id ast.ExprID) Kind {
	u, _ := f.exprs.Unary(id)
	switch u.Op {
	case token.PlusPlus, token.MinusMinus:
		f.store(u.Operand, Number)
		return Number
	case token.Bang:
		f.expr(u.Operand)
		return Bool
	case token.KwTypeof:
		f.expr(u.Operand)
		return String
	case token.Minus, token.Plus, token.Tilde:
		f.expr(u.Operand)
		return Number
	}
	f.expr(u.Operand)
	return Unknown
}

// call marks the receiver of well-known array and map methods.
func (f *folder) call(id ast.ExprID) {
	c, _ := f.exprs.Call(id)
	for _, arg := range c.Args {
		f.expr(arg)
	}
	callee := f.exprs.Unparen(c.Callee)
	acc, ok := f.exprs.Access(callee)
	if !ok || acc.Computed {
		f.expr(callee)
		return
	}
	switch {
	case arrayMutators[acc.Name]:
		f.store(acc.Base, Array)
	case mapMutators[acc.Name]:
		f.store(acc.Base, Map)
	default:
		f.expr(acc.Base)
	}
}

// accessor is one step of an access chain.
type accessor struct {
	name string
	span source.Span
	ok   bool
}

// chain flattens `root.a["b"][0]` into the root identifier and its
// accessors, outermost last. Computed accessors other than string or
// number literals are unresolvable; their index expressions are walked.
func (f *folder) chain(id ast.ExprID) (*ast.ExprIdentData, source.Span, []accessor, bool) {
	var steps []accessor
	resolvable := true
	cur := id
	for {
		acc, ok := f.exprs.Access(cur)
		if !ok {
			break
		}
		step := accessor{name: acc.Name, span: acc.NameSpan, ok: true}
		if acc.Computed {
			step = f.computedKey(acc.Index)
		}
		resolvable = resolvable && step.ok
		steps = append(steps, step)
		cur = f.exprs.Unparen(acc.Base)
	}
	root, ok := f.exprs.Ident(cur)
	if !ok {
		f.expr(cur)
		return nil, source.Span{}, nil, false
	}
	// разворачиваем: от корня наружу
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return root, f.exprs.Get(cur).Span, steps, resolvable
}

func (f *folder) computedKey(index ast.ExprID) accessor {
	index = f.exprs.Unparen(index)
	if lit, ok := f.exprs.Literal(index); ok && (lit.Kind == ast.LitString || lit.Kind == ast.LitNumber) {
		return accessor{name: lit.Value, span: f.exprs.Get(index).Span, ok: true}
	}
	f.expr(index)
	return accessor{}
}

// objectOf returns the object a variable refers to. Without a common
// object kind the variable's own object is used. Every file that writes
// through v records the reference once, so purging one file never strands
// the properties another file assigned.
func (f *folder) objectOf(v VarID, local source.Span) ObjectID {
	var obj ObjectID
	if k := f.s.kindOf(v); k.IsObject() {
		obj = k.Object
	} else {
		obj = f.s.homeObject(v)
	}
	if !f.s.refers(v, obj, f.frag.File) {
		f.record(v, ObjectRef(obj), local)
	}
	return obj
}

// resolveWrite walks an access chain for assignment, creating objects and
// properties as needed. It returns the final property.
func (f *folder) resolveWrite(id ast.ExprID) (VarID, source.Span, bool) {
	root, rootSpan, steps, ok := f.chain(id)
	if !ok || root == nil {
		return 0, source.Span{}, false
	}
	v := f.s.global(root.Name)
	span := rootSpan
	for _, step := range steps {
		obj := f.objectOf(v, span)
		v = f.s.property(obj, step.name)
		span = step.span
	}
	return v, span, true
}

// read resolves an access chain without allocating anything.
func (f *folder) read(id ast.ExprID) Kind {
	root, _, steps, ok := f.chain(id)
	if !ok || root == nil {
		return Unknown
	}
	v, found := f.s.globals[root.Name]
	for _, step := range steps {
		if !found {
			return Unknown
		}
		k := f.s.kindOf(v)
		if !k.IsObject() {
			return Unknown
		}
		v, found = f.s.objects[k.Object].props[step.name]
	}
	if !found {
		return Unknown
	}
	return f.s.kindOf(v)
}
