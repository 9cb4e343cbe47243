package parser

import (
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

// VarAttr collects the storage-class/alignment attributes a declspec call
// can observe, mirroring original_source's declarator.h struct VarAttr.
type VarAttr struct {
	IsTypedef bool
	IsStatic  bool
	IsExtern  bool
	Align     int
}

// typeSpec bitmask constants, mirroring declarator.c's declspec counter.
const (
	specVoid = 1 << 0
	specBool = 1 << 2
	specChar = 1 << 4
	specShort = 1 << 6
	specInt  = 1 << 8
	specLong = 1 << 10
	specOther = 1 << 12
	specSigned = 1 << 13
	specUnsigned = 1 << 14
	specFloat = 1 << 15
	specDouble = 1 << 16
)

var typenameKeywords = map[string]bool{
	"void": true, "_Bool": true, "char": true, "short": true, "int": true,
	"long": true, "struct": true, "union": true, "typedef": true, "enum": true,
	"static": true, "extern": true, "_Alignas": true, "signed": true, "unsigned": true,
	"float": true, "double": true,
}

// isTypename implements declarator.c's is_typename.
func (p *Parser) isTypename(tok *token.Token) bool {
	if !tok.IsIdentLike() {
		return false
	}
	if typenameKeywords[tok.Text()] {
		return true
	}
	return p.findTypedef(tok) != nil
}

// declspec = (<typename-keyword>)+, mirroring declarator.c's declspec
// bit-counter algorithm exactly.
func (p *Parser) declspec(tok *token.Token, rest **token.Token, attr *VarAttr) *types.Type {
	ty := types.Int
	counter := 0

	for p.isTypename(tok) {
		if equal(tok, "typedef") || equal(tok, "static") || equal(tok, "extern") {
			if attr == nil {
				p.errorAt(tok, "storage class specifier is not allowed in this context")
			} else {
				switch {
				case equal(tok, "typedef"):
					attr.IsTypedef = true
				case equal(tok, "static"):
					attr.IsStatic = true
				default:
					attr.IsExtern = true
				}
				if attr.IsTypedef && (attr.IsStatic || attr.IsExtern) {
					p.errorAt(tok, "typedef may not be used together with static or extern")
				}
			}
			tok = tok.Next
			continue
		}

		if equal(tok, "_Alignas") {
			if attr == nil {
				p.errorAt(tok, "_Alignas is not allowed in this context")
			}
			tok = p.skip(tok.Next, "(")

			var align int
			if p.isTypename(tok) {
				var aty *types.Type
				aty, tok = p.typename(tok)
				align = aty.Align
			} else {
				var v int64
				v, tok = p.constExpr(tok)
				align = int(v)
			}
			if attr != nil {
				attr.Align = align
			}
			tok = p.skip(tok, ")")
			continue
		}

		ty2 := p.findTypedef(tok)
		if equal(tok, "struct") || equal(tok, "union") || equal(tok, "enum") || ty2 != nil {
			if counter != 0 {
				break
			}
			switch {
			case equal(tok, "struct"):
				ty, tok = p.structDecl(tok.Next)
			case equal(tok, "union"):
				ty, tok = p.unionDecl(tok.Next)
			case equal(tok, "enum"):
				ty, tok = p.enumSpecifier(tok.Next)
			default:
				ty = ty2
				tok = tok.Next
			}
			counter += specOther
			continue
		}

		switch {
		case equal(tok, "void"):
			counter += specVoid
		case equal(tok, "_Bool"):
			counter += specBool
		case equal(tok, "char"):
			counter += specChar
		case equal(tok, "short"):
			counter += specShort
		case equal(tok, "int"):
			counter += specInt
		case equal(tok, "long"):
			counter += specLong
		case equal(tok, "signed"):
			counter |= specSigned
		case equal(tok, "unsigned"):
			counter |= specUnsigned
		case equal(tok, "float"):
			counter += specFloat
		case equal(tok, "double"):
			counter += specDouble
		}

		switch counter {
		case specVoid:
			ty = types.Void
		case specBool:
			ty = types.BoolTy
		case specChar, specSigned + specChar:
			ty = types.Char
		case specUnsigned + specChar:
			ty = types.UChar
		case specShort, specShort + specInt, specSigned + specShort, specSigned + specShort + specInt:
			ty = types.Short
		case specUnsigned + specShort, specUnsigned + specShort + specInt:
			ty = types.UShort
		case specInt, specSigned, specSigned + specInt:
			ty = types.Int
		case specUnsigned, specUnsigned + specInt:
			ty = types.UInt
		case specLong, specLong + specInt, specLong + specLong, specLong + specLong + specInt,
			specSigned + specLong, specSigned + specLong + specInt,
			specSigned + specLong + specLong, specSigned + specLong + specLong + specInt:
			ty = types.Long
		case specUnsigned + specLong, specUnsigned + specLong + specInt,
			specUnsigned + specLong + specLong, specUnsigned + specLong + specLong + specInt:
			ty = types.ULong
		case specFloat:
			ty = types.Float
		case specDouble:
			ty = types.Double
		default:
			p.errorAt(tok, "invalid type")
		}

		tok = tok.Next
	}

	*rest = tok
	return ty
}

// structMembers = (declspec declarator ("," declarator)* ";")*
// Bit-field widths (": const-expr") are not parsed.
func (p *Parser) structMembers(tok *token.Token, ty *types.Type) *token.Token {
	var members []*types.Member
	idx := 0

	for !equal(tok, "}") {
		attr := &VarAttr{}
		basety := p.declspec(tok, &tok, attr)
		first := true

		for !consume(&tok, tok, ";") {
			if !first {
				tok = p.skip(tok, ",")
			}
			first = false

			memTy := p.declaratorType(tok, &tok, basety)
			align := memTy.Align
			if attr.Align != 0 {
				align = attr.Align
			}
			members = append(members, &types.Member{
				Name:  memTy.Name,
				Type:  memTy,
				Index: idx,
				Align: align,
			})
			idx++
		}
	}

	if n := len(members); n > 0 {
		last := members[n-1]
		if last.Type.Kind == types.ARRAY && last.Type.ArrayLen < 0 {
			last.Type = types.ArrayOf(last.Type.Base, 0)
			ty.IsFlexible = true
		}
	}

	ty.Members = members
	return tok.Next
}

// structUnionDecl = ident? ("{" struct-members)?
func (p *Parser) structUnionDecl(tok *token.Token) (*types.Type, *token.Token) {
	var tag *token.Token
	if tok.IsIdentLike() {
		tag = tok
		tok = tok.Next
	}

	if tag != nil && !equal(tok, "{") {
		if ty := p.findTag(tag); ty != nil {
			return ty, tok
		}
		ty := types.StructType()
		ty.Size = -1
		p.scopes.PushTag(tag.Text(), ty)
		return ty, tok
	}

	tok = p.skip(tok, "{")
	ty := types.StructType()
	rest := p.structMembers(tok, ty)

	if tag != nil {
		if ret := p.scopes.OverwriteTag(tag.Text(), ty); ret != nil {
			return ret, rest
		}
		p.scopes.PushTag(tag.Text(), ty)
	}
	return ty, rest
}

func (p *Parser) structDecl(tok *token.Token) (*types.Type, *token.Token) {
	ty, rest := p.structUnionDecl(tok)
	ty.Kind = types.STRUCT
	if ty.Size < 0 {
		return ty, rest
	}
	types.LayoutStruct(ty)
	return ty, rest
}

func (p *Parser) unionDecl(tok *token.Token) (*types.Type, *token.Token) {
	ty, rest := p.structUnionDecl(tok)
	ty.Kind = types.UNION
	if ty.Size < 0 {
		return ty, rest
	}
	types.LayoutUnion(ty)
	return ty, rest
}

// enumSpecifier = ident? "{" enum-list? "}" | ident ("{" enum-list? "}")?
func (p *Parser) enumSpecifier(tok *token.Token) (*types.Type, *token.Token) {
	ty := types.EnumType()

	var tag *token.Token
	if tok.IsIdentLike() {
		tag = tok
		tok = tok.Next
	}

	if tag != nil && !equal(tok, "{") {
		found := p.findTag(tag)
		if found == nil {
			p.errorAt(tag, "unknown enum type")
			return ty, tok
		}
		if found.Kind != types.ENUM {
			p.errorAt(tag, "not an enum tag")
		}
		return found, tok
	}

	tok = p.skip(tok, "{")

	i := 0
	var val int64
	var rest *token.Token
	for !consumeEnd(&rest, tok) {
		if i > 0 {
			tok = p.skip(tok, ",")
		}
		i++

		name := p.getIdent(tok)
		tok = tok.Next

		if equal(tok, "=") {
			val, tok = p.constExpr(tok.Next)
		}

		sc := p.scopes.PushVar(name)
		sc.EnumTy = ty
		sc.EnumVal = val
		val++
	}

	if tag != nil {
		p.scopes.PushTag(tag.Text(), ty)
	}
	return ty, rest
}

func (p *Parser) typeSuffix(tok *token.Token, ty *types.Type) (*types.Type, *token.Token) {
	if equal(tok, "(") {
		return p.funcParams(tok.Next, ty)
	}
	if equal(tok, "[") {
		return p.arrayDimension(tok.Next, ty)
	}
	return ty, tok
}

// funcParams = ("void" | param ("," param)* ("," "...")?)? ")"
// param = declspec declarator
func (p *Parser) funcParams(tok *token.Token, ty *types.Type) (*types.Type, *token.Token) {
	if equal(tok, "void") && equal(tok.Next, ")") {
		return types.FuncType(ty), tok.Next.Next
	}

	var params []*types.Type
	variadic := false

	for !equal(tok, ")") {
		if len(params) > 0 {
			tok = p.skip(tok, ",")
		}

		if equal(tok, "...") {
			variadic = true
			tok = tok.Next
			tok = p.skip(tok, ")")
			break
		}

		basety := p.declspec(tok, &tok, nil)
		pty := p.declaratorType(tok, &tok, basety)

		if pty.Kind == types.ARRAY {
			name := pty.Name
			pty = types.PointerTo(pty.Base)
			pty.Name = name
		}
		params = append(params, types.Copy(pty))
	}

	fn := types.FuncType(ty)
	fn.Params = params
	fn.IsVariadic = variadic
	return fn, tok.Next
}

// arrayDimension = const-expr? "]" type-suffix
func (p *Parser) arrayDimension(tok *token.Token, ty *types.Type) (*types.Type, *token.Token) {
	if equal(tok, "]") {
		base, rest := p.typeSuffix(tok.Next, ty)
		return types.ArrayOf(base, -1), rest
	}

	sz, tok2 := p.constExpr(tok)
	tok2 = p.skip(tok2, "]")
	base, rest := p.typeSuffix(tok2, ty)
	return types.ArrayOf(base, int(sz)), rest
}

// declaratorType implements declarator.c's declarator, named to avoid a
// clash with declaration()'s own name.
//
// declarator = "*"* ("(" ident ")" | "(" declarator ")" | ident) type-suffix?
func (p *Parser) declaratorType(tok *token.Token, rest **token.Token, ty *types.Type) *types.Type {
	for consume(&tok, tok, "*") {
		ty = types.PointerTo(ty)
	}

	if equal(tok, "(") {
		start := tok.Next
		dummy := &types.Type{}
		var after *token.Token
		p.declaratorType(start, &after, dummy)
		after = p.skip(after, ")")

		ty, *rest = p.typeSuffix(after, ty)
		var discard *token.Token
		return p.declaratorType(start, &discard, ty)
	}

	if !tok.IsIdentLike() {
		p.errorAt(tok, "expected a variable name")
		*rest = tok
		return ty
	}

	ty, tokAfter := p.typeSuffix(tok.Next, ty)
	ty.Name = tok
	*rest = tokAfter
	return ty
}

// abstractDeclarator = "*"* ("(" abstract-declarator ")")? type-suffix
func (p *Parser) abstractDeclarator(tok *token.Token, ty *types.Type) (*types.Type, *token.Token) {
	for equal(tok, "*") {
		ty = types.PointerTo(ty)
		tok = tok.Next
	}

	if equal(tok, "(") {
		start := tok.Next
		dummy := &types.Type{}
		_, after := p.abstractDeclarator(start, dummy)
		after = p.skip(after, ")")

		ty, rest := p.typeSuffix(after, ty)
		result, _ := p.abstractDeclarator(start, ty)
		return result, rest
	}

	return p.typeSuffix(tok, ty)
}

// typename = declspec abstract-declarator
func (p *Parser) typename(tok *token.Token) (*types.Type, *token.Token) {
	basety := p.declspec(tok, &tok, nil)
	return p.abstractDeclarator(tok, basety)
}

// staticAssert implements the `_Static_assert(const-expr, "msg")` supplement
// (SPEC_FULL.md §6): evaluated at parse time, fatal if false.
func (p *Parser) staticAssert(tok *token.Token) *token.Token {
	tok = p.skip(tok.Next, "(")
	val, rest := p.constExpr(tok)
	rest = p.skip(rest, ",")
	if rest.Kind != token.STRING {
		p.errorAt(rest, "expected a string literal")
	} else {
		rest = rest.Next
	}
	rest = p.skip(rest, ")")
	rest = p.skip(rest, ";")
	if val == 0 {
		p.errorAt(tok, "static assertion failed")
	}
	return rest
}

// declaration = declspec (declarator ("=" expr)? ("," declarator ("=" expr)?)*)? ";"
func (p *Parser) declaration(tok *token.Token, basety *types.Type, attr *VarAttr) (*ast.Node, *token.Token) {
	var body []*ast.Node
	i := 0

	for !equal(tok, ";") {
		if i > 0 {
			tok = p.skip(tok, ",")
		}
		i++

		start := tok
		ty := p.declaratorType(tok, &tok, basety)
		if ty.Kind == types.VOID {
			p.errorAt(start, "variable declared void")
		}

		if attr != nil && attr.IsStatic {
			v := p.newAnonGVar(ty)
			p.scopes.PushVar(p.getIdent(ty.Name)).Var = v
			if equal(tok, "=") {
				tok = p.gvarInitializer(tok.Next, v)
			}
			continue
		}

		v := p.newLVar(p.getIdent(ty.Name), ty)
		if attr != nil && attr.Align != 0 {
			v.Align = attr.Align
		}

		if equal(tok, "=") {
			var expr *ast.Node
			expr, tok = p.lvarInitializer(tok.Next, v)
			body = append(body, ast.NewUnary(ast.ExprStmt, expr, tok))
		}

		if v.Ty.Size < 0 {
			p.errorAt(ty.Name, "variable has incomplete type")
		}
		if v.Ty.Kind == types.VOID {
			p.errorAt(ty.Name, "variable declared void")
		}
	}

	node := ast.NewNode(ast.Block, tok)
	node.Body = chainNodes(body)
	return node, tok.Next
}

func (p *Parser) parseTypedef(tok *token.Token, basety *types.Type) *token.Token {
	first := true
	for !consume(&tok, tok, ";") {
		if !first {
			tok = p.skip(tok, ",")
		}
		first = false

		ty := p.declaratorType(tok, &tok, basety)
		p.scopes.PushVar(p.getIdent(ty.Name)).Typedef = ty
	}
	return tok
}

// chainNodes links a slice of statement nodes via Next, as every C-array
// builder in original_source does with a sentinel head/cur pair.
func chainNodes(nodes []*ast.Node) *ast.Node {
	var head, cur *ast.Node
	for _, n := range nodes {
		if head == nil {
			head = n
		} else {
			cur.Next = n
		}
		cur = n
	}
	return head
}
