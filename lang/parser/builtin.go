package parser

import (
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/token"
)

// tryBuiltinCall recognizes the handful of GNU/chibicc-style pseudo-function
// forms the SUPPLEMENTED FEATURES carry over from test/builtin.c:
// __builtin_types_compatible_p(T1, T2).
//
// original_source's retrieved parser.c never implements this call form at
// all (grep confirms no "builtin" hit there) even though test/builtin.c
// exercises it. __builtin_va_start/__builtin_va_arg/__builtin_reg_class are
// not recognized here; a variadic function's register save area is reachable
// only as its __va_area__ local, through the ordinary primary()/postfix()
// grammar.
func (p *Parser) tryBuiltinCall(tok *token.Token) (*ast.Node, *token.Token, bool) {
	if !equal(tok, "__builtin_types_compatible_p") {
		return nil, tok, false
	}

	start := tok
	rest := p.skip(tok.Next, "(")

	t1, rest2 := p.typename(rest)
	rest2 = p.skip(rest2, ",")
	t2, rest3 := p.typename(rest2)
	rest3 = p.skip(rest3, ")")

	node := ast.NewNode(ast.BuiltinTypesCompatible, start)
	node.Lhs = &ast.Node{Ty: t1, Tok: start}
	node.Ty2 = t2
	return node, rest3, true
}
