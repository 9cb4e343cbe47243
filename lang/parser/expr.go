package parser

import (
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

// expr = assign ("," expr)?
func (p *Parser) expr(tok *token.Token) (*ast.Node, *token.Token) {
	n, rest := p.assign(tok)
	if equal(rest, ",") {
		rhs, rest2 := p.expr(rest.Next)
		return ast.NewBinary(ast.Comma, n, rhs, rest), rest2
	}
	return n, rest
}

// assign = conditional (assign-op assign)?
// assign-op = "=" | "+=" | "-=" | "*=" | "/=" | "%=" | "&=" | "|=" | "^=" | "<<=" | ">>="
func (p *Parser) assign(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.conditional(tok)

	switch {
	case equal(rest, "="):
		rhs, r := p.assign(rest.Next)
		return ast.NewBinary(ast.Assign, node, rhs, rest), r
	case equal(rest, "+="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(p.newAdd(node, rhs, rest)), r
	case equal(rest, "-="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(p.newSub(node, rhs, rest)), r
	case equal(rest, "*="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.Mul, node, rhs, rest)), r
	case equal(rest, "/="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.Div, node, rhs, rest)), r
	case equal(rest, "%="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.Mod, node, rhs, rest)), r
	case equal(rest, "&="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.BitAnd, node, rhs, rest)), r
	case equal(rest, "|="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.BitOr, node, rhs, rest)), r
	case equal(rest, "^="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.BitXor, node, rhs, rest)), r
	case equal(rest, "<<="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.Shl, node, rhs, rest)), r
	case equal(rest, ">>="):
		rhs, r := p.assign(rest.Next)
		return p.toAssign(ast.NewBinary(ast.Shr, node, rhs, rest)), r
	}
	return node, rest
}

// conditional = logor ("?" expr ":" conditional)?
func (p *Parser) conditional(tok *token.Token) (*ast.Node, *token.Token) {
	cond, rest := p.logOr(tok)
	if !equal(rest, "?") {
		return cond, rest
	}

	n := ast.NewNode(ast.Cond, rest)
	n.Cond = cond
	then, rest2 := p.expr(rest.Next)
	n.Then = then

	rest2 = p.skip(rest2, ":")
	els, rest3 := p.conditional(rest2)
	n.Els = els
	return n, rest3
}

func (p *Parser) logOr(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.logAnd(tok)
	for equal(rest, "||") {
		start := rest
		rhs, r := p.logAnd(rest.Next)
		node, rest = ast.NewBinary(ast.LogOr, node, rhs, start), r
	}
	return node, rest
}

func (p *Parser) logAnd(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.bitOr(tok)
	for equal(rest, "&&") {
		start := rest
		rhs, r := p.bitOr(rest.Next)
		node, rest = ast.NewBinary(ast.LogAnd, node, rhs, start), r
	}
	return node, rest
}

func (p *Parser) bitOr(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.bitXor(tok)
	for equal(rest, "|") {
		start := rest
		rhs, r := p.bitXor(rest.Next)
		node, rest = ast.NewBinary(ast.BitOr, node, rhs, start), r
	}
	return node, rest
}

func (p *Parser) bitXor(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.bitAnd(tok)
	for equal(rest, "^") {
		start := rest
		rhs, r := p.bitAnd(rest.Next)
		node, rest = ast.NewBinary(ast.BitXor, node, rhs, start), r
	}
	return node, rest
}

func (p *Parser) bitAnd(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.equality(tok)
	for equal(rest, "&") {
		start := rest
		rhs, r := p.equality(rest.Next)
		node, rest = ast.NewBinary(ast.BitAnd, node, rhs, start), r
	}
	return node, rest
}

func (p *Parser) equality(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.relational(tok)
	for {
		start := rest
		switch {
		case equal(rest, "=="):
			rhs, r := p.relational(rest.Next)
			node, rest = ast.NewBinary(ast.Eq, node, rhs, start), r
		case equal(rest, "!="):
			rhs, r := p.relational(rest.Next)
			node, rest = ast.NewBinary(ast.Ne, node, rhs, start), r
		default:
			return node, rest
		}
	}
}

func (p *Parser) relational(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.shift(tok)
	for {
		start := rest
		switch {
		case equal(rest, "<"):
			rhs, r := p.shift(rest.Next)
			node, rest = ast.NewBinary(ast.Lt, node, rhs, start), r
		case equal(rest, "<="):
			rhs, r := p.shift(rest.Next)
			node, rest = ast.NewBinary(ast.Le, node, rhs, start), r
		case equal(rest, ">"):
			rhs, r := p.shift(rest.Next)
			node, rest = ast.NewBinary(ast.Lt, rhs, node, start), r
		case equal(rest, ">="):
			rhs, r := p.shift(rest.Next)
			node, rest = ast.NewBinary(ast.Le, rhs, node, start), r
		default:
			return node, rest
		}
	}
}

func (p *Parser) shift(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.add(tok)
	for {
		start := rest
		switch {
		case equal(rest, "<<"):
			rhs, r := p.add(rest.Next)
			node, rest = ast.NewBinary(ast.Shl, node, rhs, start), r
		case equal(rest, ">>"):
			rhs, r := p.add(rest.Next)
			node, rest = ast.NewBinary(ast.Shr, node, rhs, start), r
		default:
			return node, rest
		}
	}
}

// newAdd implements parser.c's new_add: pointer-arithmetic scaling for "+".
func (p *Parser) newAdd(lhs, rhs *ast.Node, tok *token.Token) *ast.Node {
	p.addType(lhs)
	p.addType(rhs)

	if types.IsNumeric(lhs.Ty) && types.IsNumeric(rhs.Ty) {
		return ast.NewBinary(ast.Add, lhs, rhs, tok)
	}

	if lhs.Ty.Base != nil && rhs.Ty.Base != nil {
		p.errorAt(tok, "invalid operands")
		return ast.NewBinary(ast.Add, lhs, rhs, tok)
	}

	if lhs.Ty.Base == nil && rhs.Ty.Base != nil {
		lhs, rhs = rhs, lhs
	}

	rhs = ast.NewBinary(ast.Mul, rhs, ast.NewLong(int64(lhs.Ty.Base.Size), tok), tok)
	return ast.NewBinary(ast.Add, lhs, rhs, tok)
}

// newSub implements parser.c's new_sub: pointer-arithmetic scaling for "-".
func (p *Parser) newSub(lhs, rhs *ast.Node, tok *token.Token) *ast.Node {
	p.addType(lhs)
	p.addType(rhs)

	if types.IsNumeric(lhs.Ty) && types.IsNumeric(rhs.Ty) {
		return ast.NewBinary(ast.Sub, lhs, rhs, tok)
	}

	if lhs.Ty.Base != nil && rhs.Ty.Base != nil {
		node := ast.NewBinary(ast.Sub, lhs, rhs, tok)
		node.Ty = types.Long
		return ast.NewBinary(ast.Div, node, ast.NewNum(int64(lhs.Ty.Base.Size), tok), tok)
	}

	if lhs.Ty.Base != nil && types.IsInteger(rhs.Ty) {
		rhs = ast.NewBinary(ast.Mul, rhs, ast.NewLong(int64(lhs.Ty.Base.Size), tok), tok)
		return ast.NewBinary(ast.Sub, lhs, rhs, tok)
	}

	p.errorAt(tok, "invalid operands")
	return ast.NewBinary(ast.Sub, lhs, rhs, tok)
}

func (p *Parser) add(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.mul(tok)
	for {
		start := rest
		switch {
		case equal(rest, "+"):
			rhs, r := p.mul(rest.Next)
			node, rest = p.newAdd(node, rhs, start), r
		case equal(rest, "-"):
			rhs, r := p.mul(rest.Next)
			node, rest = p.newSub(node, rhs, start), r
		default:
			return node, rest
		}
	}
}

func (p *Parser) mul(tok *token.Token) (*ast.Node, *token.Token) {
	node, rest := p.cast(tok)
	for {
		start := rest
		switch {
		case equal(rest, "*"):
			rhs, r := p.cast(rest.Next)
			node, rest = ast.NewBinary(ast.Mul, node, rhs, start), r
		case equal(rest, "/"):
			rhs, r := p.cast(rest.Next)
			node, rest = ast.NewBinary(ast.Div, node, rhs, start), r
		case equal(rest, "%"):
			rhs, r := p.cast(rest.Next)
			node, rest = ast.NewBinary(ast.Mod, node, rhs, start), r
		default:
			return node, rest
		}
	}
}

// cast = "(" type-name ")" cast | unary
func (p *Parser) cast(tok *token.Token) (*ast.Node, *token.Token) {
	if equal(tok, "(") && p.isTypename(tok.Next) {
		start := tok
		ty, rest := p.typename(tok.Next)
		rest = p.skip(rest, ")")

		// compound literal, not a cast
		if equal(rest, "{") {
			return p.unary(start)
		}

		inner, rest2 := p.cast(rest)
		n := p.newCast(inner, ty)
		n.Tok = start
		return n, rest2
	}
	return p.unary(tok)
}

// unary = ("+" | "-" | "*" | "&" | "!" | "~") cast | ("++" | "--") unary | postfix
func (p *Parser) unary(tok *token.Token) (*ast.Node, *token.Token) {
	switch {
	case equal(tok, "+"):
		return p.cast(tok.Next)
	case equal(tok, "-"):
		n, rest := p.cast(tok.Next)
		return ast.NewUnary(ast.Neg, n, tok), rest
	case equal(tok, "&"):
		lhs, rest := p.cast(tok.Next)
		if lhs.Kind == ast.Member && lhs.Mem.IsBitfield {
			p.errorAt(tok, "cannot take address of bitfield")
		}
		return ast.NewUnary(ast.Addr, lhs, tok), rest
	case equal(tok, "*"):
		n, rest := p.cast(tok.Next)
		p.addType(n)
		if n.Ty.Kind == types.FUNC {
			return n, rest
		}
		return ast.NewUnary(ast.Deref, n, tok), rest
	case equal(tok, "!"):
		n, rest := p.cast(tok.Next)
		return ast.NewUnary(ast.Not, n, tok), rest
	case equal(tok, "~"):
		n, rest := p.cast(tok.Next)
		return ast.NewUnary(ast.BitNot, n, tok), rest
	case equal(tok, "++"):
		n, rest := p.unary(tok.Next)
		return p.toAssign(p.newAdd(n, ast.NewNum(1, tok), tok)), rest
	case equal(tok, "--"):
		n, rest := p.unary(tok.Next)
		return p.toAssign(p.newSub(n, ast.NewNum(1, tok), tok)), rest
	}
	return p.postfix(tok)
}

// toAssign implements parser.c's to_assign: desugars `A op= C` (and the
// bitfield-aware `A.x op= C` form) into an address-cached assignment pair.
func (p *Parser) toAssign(binary *ast.Node) *ast.Node {
	p.addType(binary.Lhs)
	p.addType(binary.Rhs)
	tok := binary.Tok

	if binary.Lhs.Kind == ast.Member {
		tmp := p.newLVar("", types.PointerTo(binary.Lhs.Lhs.Ty))

		expr1 := ast.NewBinary(ast.Assign, ast.NewVarNode(tmp, tok),
			ast.NewUnary(ast.Addr, binary.Lhs.Lhs, tok), tok)

		expr2 := ast.NewUnary(ast.Member, ast.NewUnary(ast.Deref, ast.NewVarNode(tmp, tok), tok), tok)
		expr2.Mem = binary.Lhs.Mem

		expr3 := ast.NewUnary(ast.Member, ast.NewUnary(ast.Deref, ast.NewVarNode(tmp, tok), tok), tok)
		expr3.Mem = binary.Lhs.Mem

		expr4 := ast.NewBinary(ast.Assign, expr2, ast.NewBinary(binary.Kind, expr3, binary.Rhs, tok), tok)
		return ast.NewBinary(ast.Comma, expr1, expr4, tok)
	}

	tmp := p.newLVar("", types.PointerTo(binary.Lhs.Ty))
	expr1 := ast.NewBinary(ast.Assign, ast.NewVarNode(tmp, tok), ast.NewUnary(ast.Addr, binary.Lhs, tok), tok)
	expr2 := ast.NewBinary(ast.Assign,
		ast.NewUnary(ast.Deref, ast.NewVarNode(tmp, tok), tok),
		ast.NewBinary(binary.Kind,
			ast.NewUnary(ast.Deref, ast.NewVarNode(tmp, tok), tok),
			binary.Rhs, tok),
		tok)
	return ast.NewBinary(ast.Comma, expr1, expr2, tok)
}

// newIncDec implements parser.c's new_inc_dec: `A++` becomes
// `(typeof A)((A += addend) - addend)`.
func (p *Parser) newIncDec(node *ast.Node, tok *token.Token, addend int64) *ast.Node {
	p.addType(node)
	added := p.newAdd(node, ast.NewNum(addend, tok), tok)
	assigned := p.toAssign(added)
	back := p.newAdd(assigned, ast.NewNum(-addend, tok), tok)
	return p.newCast(back, node.Ty)
}

// postfix = "(" type-name ")" "{" initializer-list "}"
//
//	| primary postfix-tail*
//
// postfix-tail = "[" expr "]" | "(" func-args ")" | "." ident | "->" ident
//
//	| "++" | "--"
func (p *Parser) postfix(tok *token.Token) (*ast.Node, *token.Token) {
	if equal(tok, "(") && p.isTypename(tok.Next) {
		start := tok
		ty, rest := p.typename(tok.Next)
		rest = p.skip(rest, ")")

		if p.isGlobalScope() {
			v := p.newAnonGVar(ty)
			rest = p.gvarInitializer(rest, v)
			return ast.NewVarNode(v, start), rest
		}

		v := p.newLVar("", ty)
		lhs, rest2 := p.lvarInitializer(rest, v)
		rhs := ast.NewVarNode(v, tok)
		return ast.NewBinary(ast.Comma, lhs, rhs, start), rest2
	}

	node, rest := p.primary(tok)

	for {
		switch {
		case equal(rest, "("):
			node, rest = p.funcall(rest.Next, node)
			continue
		case equal(rest, "["):
			start := rest
			idx, r := p.expr(rest.Next)
			r = p.skip(r, "]")
			node, rest = ast.NewUnary(ast.Deref, p.newAdd(node, idx, start), start), r
			continue
		case equal(rest, "."):
			node = p.structRef(node, rest.Next)
			rest = rest.Next.Next
			continue
		case equal(rest, "->"):
			node = ast.NewUnary(ast.Deref, node, rest)
			node = p.structRef(node, rest.Next)
			rest = rest.Next.Next
			continue
		case equal(rest, "++"):
			node, rest = p.newIncDec(node, rest, 1), rest.Next
			continue
		case equal(rest, "--"):
			node, rest = p.newIncDec(node, rest, -1), rest.Next
			continue
		}
		return node, rest
	}
}

// funcall = (assign ("," assign)*)? ")"
func (p *Parser) funcall(tok *token.Token, fn *ast.Node) (*ast.Node, *token.Token) {
	p.addType(fn)

	if fn.Ty.Kind != types.FUNC && (fn.Ty.Kind != types.PTR || fn.Ty.Base.Kind != types.FUNC) {
		p.errorAt(fn.Tok, "not a function")
	}

	ty := fn.Ty
	if ty.Kind != types.FUNC {
		ty = ty.Base
	}
	paramIdx := 0

	var args []*ast.Node
	for !equal(tok, ")") {
		if len(args) > 0 {
			tok = p.skip(tok, ",")
		}
		arg, rest := p.assign(tok)
		tok = rest
		p.addType(arg)

		if paramIdx >= len(ty.Params) && !ty.IsVariadic {
			p.errorAt(tok, "too many arguments")
		}

		if paramIdx < len(ty.Params) {
			pt := ty.Params[paramIdx]
			if pt.Kind != types.STRUCT && pt.Kind != types.UNION {
				arg = p.newCast(arg, pt)
			}
			paramIdx++
		} else if arg.Ty.Kind == types.FLOAT {
			arg = p.newCast(arg, types.Double)
		}

		args = append(args, arg)
	}

	if paramIdx < len(ty.Params) {
		p.errorAt(tok, "too few arguments")
	}

	rest := p.skip(tok, ")")

	node := ast.NewUnary(ast.FuncCall, fn, tok)
	if fn.Kind == ast.Var {
		node.FuncName = fn.Obj.Name
	}
	node.FuncTy = ty
	node.Ty = ty.ReturnType
	node.Args = args

	if types.IsStructUnion(node.Ty) {
		node.RetBuf = p.newLVar("", node.Ty)
	}

	return node, rest
}

// getStructMember implements parser.c's get_struct_member, promoting
// anonymous struct/union members into their enclosing member's namespace.
func getStructMember(ty *types.Type, name string) *types.Member {
	for _, mem := range ty.Members {
		if mem.Name == nil && types.IsStructUnion(mem.Type) {
			if getStructMember(mem.Type, name) != nil {
				return mem
			}
			continue
		}
		if mem.Name != nil && mem.Name.Text() == name {
			return mem
		}
	}
	return nil
}

// structRef implements parser.c's struct_ref: foo.bar, descending through
// anonymous members until it finds the named one.
func (p *Parser) structRef(node *ast.Node, tok *token.Token) *ast.Node {
	p.addType(node)
	ty := node.Ty
	if ty.Kind != types.STRUCT && ty.Kind != types.UNION {
		p.errorAt(node.Tok, "not a struct nor a union")
	}

	name := tok.Text()
	for {
		mem := getStructMember(ty, name)
		if mem == nil {
			p.errorAt(tok, "no such member")
			return node
		}

		node = ast.NewUnary(ast.Member, node, tok)
		node.Mem = mem
		if mem.Name != nil {
			break
		}
		ty = mem.Type
	}
	return node
}

// primary = "(" "{" stmt+ "}" ")" | "(" expr ")" | "sizeof" ... | "_Alignof" ...
//
//	| ident | str | num
func (p *Parser) primary(tok *token.Token) (*ast.Node, *token.Token) {
	start := tok

	if equal(tok, "(") && equal(tok.Next, "{") {
		n := ast.NewNode(ast.StmtExpr, tok)
		block, rest := p.compoundStmt(tok.Next.Next)
		n.Body = block.Body
		rest = p.skip(rest, ")")
		return n, rest
	}

	if equal(tok, "(") {
		n, rest := p.expr(tok.Next)
		rest = p.skip(rest, ")")
		return n, rest
	}

	if equal(tok, "sizeof") && equal(tok.Next, "(") && p.isTypename(tok.Next.Next) {
		ty, rest := p.typename(tok.Next.Next)
		rest = p.skip(rest, ")")
		return ast.NewLong(int64(ty.Size), start), rest
	}

	if equal(tok, "sizeof") {
		n, rest := p.unary(tok.Next)
		p.addType(n)
		return ast.NewLong(int64(n.Ty.Size), tok), rest
	}

	if equal(tok, "_Alignof") && equal(tok.Next, "(") && p.isTypename(tok.Next.Next) {
		ty, rest := p.typename(tok.Next.Next)
		rest = p.skip(rest, ")")
		return ast.NewLong(int64(ty.Align), tok), rest
	}

	if equal(tok, "_Alignof") {
		n, rest := p.unary(tok.Next)
		p.addType(n)
		return ast.NewLong(int64(n.Ty.Align), tok), rest
	}

	if builtin, rest, ok := p.tryBuiltinCall(tok); ok {
		return builtin, rest
	}

	if tok.Kind == token.IDENT || tok.Kind == token.KEYWORD {
		sc := p.findVar(tok)
		rest := tok.Next
		if sc != nil {
			if sc.Var != nil {
				return ast.NewVarNode(sc.Var, tok), rest
			}
			if sc.EnumTy != nil {
				return ast.NewNum(sc.EnumVal, tok), rest
			}
		}
		if equal(tok.Next, "(") {
			p.errorAt(tok, "implicit declaration of a function")
		} else {
			p.errorAt(tok, "undefined variable")
		}
		return ast.NewNum(0, tok), rest
	}

	if tok.Kind == token.STRING {
		ty, _ := tok.NumType.(*types.Type)
		if ty == nil {
			ty = types.ArrayOf(types.Char, len(tok.StrVal))
		}
		v := p.newStringLiteral(tok.StrVal, ty)
		return ast.NewVarNode(v, tok), tok.Next
	}

	if tok.Kind == token.NUM {
		numTy, _ := tok.NumType.(*types.Type)
		if numTy == nil {
			numTy = types.Int
		}
		var n *ast.Node
		if types.IsFloat(numTy) {
			n = &ast.Node{Kind: ast.Num, Fval: tok.FloatVal, Tok: tok}
		} else {
			n = ast.NewNum(int64(tok.IntVal), tok)
		}
		n.Ty = numTy
		return n, tok.Next
	}

	p.errorAt(tok, "expected an expression")
	return ast.NewNum(0, tok), tok.Next
}
