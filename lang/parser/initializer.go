package parser

import (
	"math"

	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

func writeFloatBits(buf []byte, v float32) {
	writeBuf(buf, uint64(math.Float32bits(v)), 4)
}

func writeDoubleBits(buf []byte, v float64) {
	writeBuf(buf, math.Float64bits(v), 8)
}

// newInitializer implements initializer.c's new_initializer: allocates the
// (possibly nested) zero-valued Initializer shape for ty, recursing into
// array elements and struct/union members so every leaf has somewhere to
// record its Expr.
func newInitializer(ty *types.Type, isFlexible bool) *ast.Initializer {
	init := &ast.Initializer{Ty: ty}

	if ty.Kind == types.ARRAY {
		if isFlexible && ty.ArrayLen < 0 {
			init.IsFlexible = true
			return init
		}
		init.Children = make([]*ast.Initializer, ty.ArrayLen)
		for i := range init.Children {
			init.Children[i] = newInitializer(ty.Base, false)
		}
	}

	if types.IsStructUnion(ty) {
		init.Children = make([]*ast.Initializer, len(ty.Members))
		for _, mem := range ty.Members {
			last := mem.Index == len(ty.Members)-1
			if isFlexible && ty.IsFlexible && last {
				init.Children[mem.Index] = &ast.Initializer{Ty: mem.Type, IsFlexible: true}
			} else {
				init.Children[mem.Index] = newInitializer(mem.Type, false)
			}
		}
	}

	return init
}

// skipExcessElement discards a brace-enclosed or scalar initializer that
// has no matching element/member left, mirroring initializer.c's
// skip_excess_element.
func (p *Parser) skipExcessElement(tok *token.Token) *token.Token {
	if equal(tok, "{") {
		tok = p.skipExcessElement(tok.Next)
		return p.skip(tok, "}")
	}
	_, rest := p.assign(tok)
	return rest
}

// stringInitializer implements initializer.c's string_initializer, widening
// the char buffer 1/2/4 bytes at a time per the target element width.
func (p *Parser) stringInitializer(tok *token.Token, init *ast.Initializer) *token.Token {
	strTy, _ := tok.NumType.(*types.Type)

	if init.IsFlexible {
		*init = *newInitializer(types.ArrayOf(init.Ty.Base, strTy.ArrayLen), false)
	}

	n := init.Ty.ArrayLen
	if strTy.ArrayLen < n {
		n = strTy.ArrayLen
	}

	switch init.Ty.Base.Size {
	case 1:
		for i := 0; i < n; i++ {
			init.Children[i].Expr = ast.NewNum(int64(int8(tok.StrVal[i])), tok)
		}
	case 2:
		for i := 0; i < n; i++ {
			lo, hi := uint16(tok.StrVal[2*i]), uint16(tok.StrVal[2*i+1])
			init.Children[i].Expr = ast.NewNum(int64(lo|hi<<8), tok)
		}
	case 4:
		for i := 0; i < n; i++ {
			var v uint32
			for b := 0; b < 4; b++ {
				v |= uint32(tok.StrVal[4*i+b]) << (8 * b)
			}
			init.Children[i].Expr = ast.NewNum(int64(v), tok)
		}
	}

	return tok.Next
}

// arrayDesignator implements initializer.c's array_designator: "[" const-expr "]".
// In the range form "[" lo "..." hi "]" only lo is returned.
func (p *Parser) arrayDesignator(tok *token.Token, ty *types.Type) (int, *token.Token) {
	start := tok
	v, tok2 := p.constExpr(tok.Next)
	if equal(tok2, "...") {
		_, tok2 = p.constExpr(tok2.Next)
	}
	i := int(v)
	if i < 0 || (ty.ArrayLen >= 0 && i >= ty.ArrayLen) {
		p.errorAt(start, "array designator index exceeds array bounds")
	}
	return i, p.skip(tok2, "]")
}

// structDesignator implements initializer.c's struct_designator: "." ident,
// including the anonymous-member search.
func (p *Parser) structDesignator(tok *token.Token, ty *types.Type) (*types.Member, *token.Token) {
	start := tok
	tok = p.skip(tok, ".")
	if !tok.IsIdentLike() {
		p.errorAt(tok, "expected a field designator")
		return nil, tok
	}

	name := tok.Text()
	for _, mem := range ty.Members {
		if mem.Name == nil && types.IsStructUnion(mem.Type) {
			if getStructMember(mem.Type, name) != nil {
				return mem, start
			}
			continue
		}
		if mem.Name != nil && mem.Name.Text() == name {
			return mem, tok.Next
		}
	}

	p.errorAt(tok, "struct has no such member")
	return nil, tok
}

// designation implements initializer.c's designation: a chain of "[n]"/"."
// designators followed by an optional "=" and the initializer itself.
func (p *Parser) designation(tok *token.Token, init *ast.Initializer) *token.Token {
	if equal(tok, "[") {
		if init.Ty.Kind != types.ARRAY {
			p.errorAt(tok, "array index in non-array initializer")
		}
		i, rest := p.arrayDesignator(tok, init.Ty)
		rest = p.designation(rest, init.Children[i])
		return p.arrayInitializer2(rest, init, i+1)
	}

	if equal(tok, ".") && init.Ty.Kind == types.STRUCT {
		mem, rest := p.structDesignator(tok, init.Ty)
		rest = p.designation(rest, init.Children[mem.Index])
		init.Expr = nil
		return p.structInitializer2(rest, init, nextMember(init.Ty, mem))
	}

	if equal(tok, ".") && init.Ty.Kind == types.UNION {
		mem, rest := p.structDesignator(tok, init.Ty)
		init.Mem = mem
		return p.designation(rest, init.Children[mem.Index])
	}

	if equal(tok, ".") {
		p.errorAt(tok, "field name not in struct or union initializer")
	}

	if equal(tok, "=") {
		tok = tok.Next
	}
	return p.initializer2(tok, init)
}

func nextMember(ty *types.Type, mem *types.Member) []*types.Member {
	if mem.Index+1 >= len(ty.Members) {
		return nil
	}
	return ty.Members[mem.Index+1:]
}

// countArrayInitElements implements initializer.c's count_array_init_elements:
// used to size `int x[] = {...}`.
func (p *Parser) countArrayInitElements(tok *token.Token, ty *types.Type) int {
	dummy := newInitializer(ty.Base, true)
	first := true
	var i, max int64
	rest := tok

	for !consumeEnd(&rest, rest) {
		if !first {
			rest = p.skip(rest, ",")
		}
		first = false

		if equal(rest, "[") {
			i, rest = p.constExpr(rest.Next)
			if equal(rest, "...") {
				i, rest = p.constExpr(rest.Next)
			}
			rest = p.skip(rest, "]")
			rest = p.designation(rest, dummy)
		} else {
			rest = p.initializer2(rest, dummy)
		}
		i++
		if i > max {
			max = i
		}
	}
	return int(max)
}

func isInitEnd(tok *token.Token) bool {
	return equal(tok, "}") || (equal(tok, ",") && equal(tok.Next, "}"))
}

// arrayInitializer1 implements initializer.c's array_initializer1: the
// brace-delimited form.
func (p *Parser) arrayInitializer1(tok *token.Token, init *ast.Initializer) *token.Token {
	tok = p.skip(tok, "{")
	first := true

	if init.IsFlexible {
		n := p.countArrayInitElements(tok, init.Ty)
		*init = *newInitializer(types.ArrayOf(init.Ty.Base, n), false)
	}

	var rest *token.Token
	for i := 0; !consumeEnd(&rest, tok); i++ {
		if !first {
			tok = p.skip(tok, ",")
		}
		first = false

		if equal(tok, "[") {
			var idx int
			idx, tok = p.arrayDesignator(tok, init.Ty)
			tok = p.designation(tok, init.Children[idx])
			i = idx
			continue
		}

		if i < init.Ty.ArrayLen {
			tok = p.initializer2(tok, init.Children[i])
		} else {
			tok = p.skipExcessElement(tok)
		}
	}
	return rest
}

// arrayInitializer2 implements initializer.c's array_initializer2: the
// brace-less continuation form used after a designator.
func (p *Parser) arrayInitializer2(tok *token.Token, init *ast.Initializer, start int) *token.Token {
	if init.IsFlexible {
		n := p.countArrayInitElements(tok, init.Ty)
		*init = *newInitializer(types.ArrayOf(init.Ty.Base, n), false)
	}

	i := start
	for ; i < init.Ty.ArrayLen && !isInitEnd(tok); i++ {
		startTok := tok
		if i > 0 {
			tok = p.skip(tok, ",")
		}
		if equal(tok, "[") || equal(tok, ".") {
			return startTok
		}
		tok = p.initializer2(tok, init.Children[i])
	}
	return tok
}

// structInitializer1 implements initializer.c's struct_initializer1.
func (p *Parser) structInitializer1(tok *token.Token, init *ast.Initializer) *token.Token {
	tok = p.skip(tok, "{")
	first := true
	members := init.Ty.Members

	var rest *token.Token
	for !consumeEnd(&rest, tok) {
		if !first {
			tok = p.skip(tok, ",")
		}
		first = false

		if equal(tok, ".") {
			var mem *types.Member
			mem, tok = p.structDesignator(tok, init.Ty)
			tok = p.designation(tok, init.Children[mem.Index])
			members = nextMember(init.Ty, mem)
			continue
		}

		if len(members) > 0 {
			tok = p.initializer2(tok, init.Children[members[0].Index])
			members = members[1:]
		} else {
			tok = p.skipExcessElement(tok)
		}
	}
	return rest
}

// structInitializer2 implements initializer.c's struct_initializer2.
func (p *Parser) structInitializer2(tok *token.Token, init *ast.Initializer, members []*types.Member) *token.Token {
	first := true
	for len(members) > 0 && !isInitEnd(tok) {
		mem := members[0]
		start := tok
		if !first {
			tok = p.skip(tok, ",")
		}
		first = false

		if equal(tok, "[") || equal(tok, ".") {
			return start
		}

		tok = p.initializer2(tok, init.Children[mem.Index])
		members = members[1:]
	}
	return tok
}

// unionInitializer implements initializer.c's union_initializer: only the
// first member initializes by default, unless a designator names another.
func (p *Parser) unionInitializer(tok *token.Token, init *ast.Initializer) *token.Token {
	parens := equal(tok, "{")

	if parens && equal(tok.Next, ".") {
		mem, rest := p.structDesignator(tok.Next, init.Ty)
		init.Mem = mem
		rest = p.designation(rest, init.Children[mem.Index])
		return p.skip(rest, "}")
	}

	if len(init.Ty.Members) > 0 {
		init.Mem = init.Ty.Members[0]
	}

	if parens {
		tok = tok.Next
	}

	tok = p.initializer2(tok, init.Children[0])

	if parens {
		consume(&tok, tok, ",")
		return p.skip(tok, "}")
	}
	return tok
}

// initializer2 implements initializer.c's initializer2, the dispatcher over
// array/struct/union/scalar shapes.
func (p *Parser) initializer2(tok *token.Token, init *ast.Initializer) *token.Token {
	if init.Ty.Kind == types.ARRAY && tok.Kind == token.STRING {
		return p.stringInitializer(tok, init)
	}

	if init.Ty.Kind == types.ARRAY {
		if equal(tok, "{") {
			return p.arrayInitializer1(tok, init)
		}
		return p.arrayInitializer2(tok, init, 0)
	}

	if init.Ty.Kind == types.STRUCT {
		if equal(tok, "{") {
			return p.structInitializer1(tok, init)
		}

		expr, rest := p.assign(tok)
		p.addType(expr)
		if expr.Ty.Kind == types.STRUCT {
			init.Expr = expr
			return rest
		}
		return p.structInitializer2(tok, init, init.Ty.Members)
	}

	if init.Ty.Kind == types.UNION {
		return p.unionInitializer(tok, init)
	}

	if equal(tok, "{") {
		rest := p.initializer2(tok.Next, init)
		return p.skip(rest, "}")
	}

	var rest *token.Token
	init.Expr, rest = p.assign(tok)
	return rest
}

// copyStructType implements initializer.c's copy_struct_type: a deep-enough
// copy (fresh Member slice) so the flexible-array-member size fixup below
// never mutates the shared declared type.
func copyStructType(ty *types.Type) *types.Type {
	cp := types.Copy(ty)
	cp.Members = make([]*types.Member, len(ty.Members))
	for i, mem := range ty.Members {
		m := *mem
		cp.Members[i] = &m
	}
	return cp
}

// initializerTop implements initializer.c's initializer: allocates the
// Initializer tree, parses it, and (for a flexible array member) patches
// the struct/union's declared size from the actual last-member size.
func (p *Parser) initializerTop(tok *token.Token, ty *types.Type) (*ast.Initializer, *types.Type, *token.Token) {
	init := newInitializer(ty, true)
	rest := p.initializer2(tok, init)

	if types.IsStructUnion(ty) && ty.IsFlexible {
		ty = copyStructType(ty)
		last := ty.Members[len(ty.Members)-1]
		last.Type = init.Children[last.Index].Ty
		ty.Size += last.Type.Size
		return init, ty, rest
	}

	return init, init.Ty, rest
}

// initDesgExpr implements initializer.c's init_desg_expr: lowers a
// Designator chain to the lvalue expression it addresses.
func (p *Parser) initDesgExpr(desg *ast.Designator, tok *token.Token) *ast.Node {
	if desg.Var != nil {
		return ast.NewVarNode(desg.Var, tok)
	}
	if desg.Member != nil {
		node := ast.NewUnary(ast.Member, p.initDesgExpr(desg.Next, tok), tok)
		node.Mem = desg.Member
		return node
	}
	lhs := p.initDesgExpr(desg.Next, tok)
	rhs := ast.NewNum(int64(desg.Idx), tok)
	// x[a] => *(x + a), scaled by newAdd the same way any other pointer
	// arithmetic is.
	return ast.NewUnary(ast.Deref, p.newAdd(lhs, rhs, tok), tok)
}

// createLVarInit implements initializer.c's create_lvar_init: lowers an
// Initializer tree into a comma-chain of assignments rooted at desg.
func (p *Parser) createLVarInit(init *ast.Initializer, ty *types.Type, desg *ast.Designator, tok *token.Token) *ast.Node {
	if ty.Kind == types.ARRAY {
		node := ast.NewNode(ast.NullExpr, tok)
		for i := 0; i < ty.ArrayLen; i++ {
			desg2 := &ast.Designator{Next: desg, Idx: i}
			rhs := p.createLVarInit(init.Children[i], ty.Base, desg2, tok)
			node = ast.NewBinary(ast.Comma, node, rhs, tok)
		}
		return node
	}

	if ty.Kind == types.STRUCT && init.Expr == nil {
		node := ast.NewNode(ast.NullExpr, tok)
		for _, mem := range ty.Members {
			desg2 := &ast.Designator{Next: desg, Member: mem}
			rhs := p.createLVarInit(init.Children[mem.Index], mem.Type, desg2, tok)
			node = ast.NewBinary(ast.Comma, node, rhs, tok)
		}
		return node
	}

	if ty.Kind == types.UNION {
		mem := init.Mem
		if mem == nil && len(ty.Members) > 0 {
			mem = ty.Members[0]
		}
		desg2 := &ast.Designator{Next: desg, Member: mem}
		return p.createLVarInit(init.Children[mem.Index], mem.Type, desg2, tok)
	}

	if init.Expr == nil {
		return ast.NewNode(ast.NullExpr, tok)
	}

	lhs := p.initDesgExpr(desg, tok)
	return ast.NewBinary(ast.Assign, lhs, init.Expr, tok)
}

// lvarInitializer implements initializer.c's lvar_initializer: zero the
// whole object, then splice in the user-supplied assignments.
func (p *Parser) lvarInitializer(tok *token.Token, v *ast.Obj) (*ast.Node, *token.Token) {
	init, ty, rest := p.initializerTop(tok, v.Ty)
	v.Ty = ty
	desg := &ast.Designator{Var: v}

	lhs := ast.NewNode(ast.Memzero, tok)
	lhs.Obj = v

	rhs := p.createLVarInit(init, v.Ty, desg, tok)
	return ast.NewBinary(ast.Comma, lhs, rhs, tok), rest
}

func writeBuf(buf []byte, val uint64, sz int) {
	switch sz {
	case 1:
		buf[0] = byte(val)
	case 2:
		buf[0], buf[1] = byte(val), byte(val>>8)
	case 4:
		for i := 0; i < 4; i++ {
			buf[i] = byte(val >> (8 * i))
		}
	case 8:
		for i := 0; i < 8; i++ {
			buf[i] = byte(val >> (8 * i))
		}
	}
}

func readBuf(buf []byte, sz int) uint64 {
	var v uint64
	for i := 0; i < sz; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}

// writeGVarData implements initializer.c's write_gvar_data: serializes an
// Initializer tree into buf, appending *ast.Reloc entries for
// pointer-valued (label-producing) constants.
func (p *Parser) writeGVarData(cur *ast.Reloc, init *ast.Initializer, ty *types.Type, buf []byte, offset int) *ast.Reloc {
	if ty.Kind == types.ARRAY {
		sz := ty.Base.Size
		for i := 0; i < ty.ArrayLen; i++ {
			cur = p.writeGVarData(cur, init.Children[i], ty.Base, buf, offset+sz*i)
		}
		return cur
	}

	if ty.Kind == types.STRUCT {
		for _, mem := range ty.Members {
			if mem.IsBitfield {
				expr := init.Children[mem.Index].Expr
				if expr == nil {
					break
				}
				loc := buf[offset+mem.Offset:]
				oldVal := readBuf(loc, mem.Type.Size)
				newVal := uint64(p.eval(expr))
				mask := uint64(1)<<uint(mem.BitWidth) - 1
				combined := oldVal | ((newVal & mask) << uint(mem.BitOffset))
				writeBuf(loc, combined, mem.Type.Size)
			} else {
				cur = p.writeGVarData(cur, init.Children[mem.Index], mem.Type, buf, offset+mem.Offset)
			}
		}
		return cur
	}

	if ty.Kind == types.UNION {
		if init.Mem == nil {
			return cur
		}
		return p.writeGVarData(cur, init.Children[init.Mem.Index], init.Mem.Type, buf, offset)
	}

	if init.Expr == nil {
		return cur
	}

	if ty.Kind == types.FLOAT {
		writeFloatBits(buf[offset:], float32(p.evalDouble(init.Expr)))
		return cur
	}
	if ty.Kind == types.DOUBLE || ty.Kind == types.LDOUBLE {
		writeDoubleBits(buf[offset:], p.evalDouble(init.Expr))
		return cur
	}

	var label string
	val := p.eval2(init.Expr, &label)

	if label == "" {
		writeBuf(buf[offset:], uint64(val), ty.Size)
		return cur
	}

	rel := &ast.Reloc{Offset: offset, Label: label, Addend: val}
	cur.Next = rel
	return rel
}

// gvarInitializer implements initializer.c's gvar_initializer: parses the
// initializer and serializes it straight into v's InitData/Rel.
func (p *Parser) gvarInitializer(tok *token.Token, v *ast.Obj) *token.Token {
	init, ty, rest := p.initializerTop(tok, v.Ty)
	v.Ty = ty

	buf := make([]byte, ty.Size)
	head := &ast.Reloc{}
	p.writeGVarData(head, init, ty, buf, 0)
	v.InitData = buf
	v.Rel = head.Next
	return rest
}
