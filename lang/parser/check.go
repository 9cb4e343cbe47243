package parser

import (
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/types"
)

// newCast wraps expr in a ND_CAST node to ty, mirroring declarator.c's
// new_cast: the source expression is type-checked first so its Ty is
// available, and the target type is copied so later mutation (e.g.
// IsUnsigned toggling) never aliases a shared singleton.
func (p *Parser) newCast(expr *ast.Node, ty *types.Type) *ast.Node {
	p.addType(expr)
	return ast.NewCast(expr, ty)
}

// usualArithConv implements type.c's usual_arith_conv: both operands are
// cast to get_common_type(lhs->ty, rhs->ty).
func (p *Parser) usualArithConv(lhs, rhs *ast.Node) (*ast.Node, *ast.Node) {
	ty := types.CommonType(lhs.Ty, rhs.Ty)
	return p.newCast(lhs, ty), p.newCast(rhs, ty)
}

// addType implements type.c's add_type: a post-order pass that fills in
// node.Ty for every node in the subtree rooted at node, skipping anything
// already typed (so repeated calls, e.g. via newCast, are cheap).
func (p *Parser) addType(node *ast.Node) {
	if node == nil || node.Ty != nil {
		return
	}

	p.addType(node.Lhs)
	p.addType(node.Rhs)
	p.addType(node.Cond)
	p.addType(node.Then)
	p.addType(node.Els)
	p.addType(node.Init)
	p.addType(node.Inc)
	for n := node.Body; n != nil; n = n.Next {
		p.addType(n)
	}
	for _, a := range node.Args {
		p.addType(a)
	}

	switch node.Kind {
	case ast.Num:
		if node.Ty == nil {
			node.Ty = types.Int
		}

	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod, ast.BitAnd, ast.BitOr, ast.BitXor:
		node.Lhs, node.Rhs = p.usualArithConv(node.Lhs, node.Rhs)
		node.Ty = node.Lhs.Ty

	case ast.Neg:
		ty := types.CommonType(types.Int, node.Lhs.Ty)
		node.Lhs = p.newCast(node.Lhs, ty)
		node.Ty = ty

	case ast.Assign:
		if node.Lhs.Ty.Kind == types.ARRAY {
			p.errorAt(node.Lhs.Tok, "not an lvalue")
		}
		if node.Lhs.Ty.Kind != types.STRUCT {
			node.Rhs = p.newCast(node.Rhs, node.Lhs.Ty)
		}
		node.Ty = node.Lhs.Ty

	case ast.Eq, ast.Ne, ast.Lt, ast.Le:
		node.Lhs, node.Rhs = p.usualArithConv(node.Lhs, node.Rhs)
		node.Ty = types.Int

	case ast.FuncCall:
		if node.FuncTy != nil {
			node.Ty = node.FuncTy.ReturnType
		} else {
			node.Ty = types.Int
		}

	case ast.Not, ast.LogOr, ast.LogAnd:
		node.Ty = types.Int

	case ast.BitNot, ast.Shl, ast.Shr:
		node.Ty = node.Lhs.Ty

	case ast.Var:
		node.Ty = node.Obj.Ty

	case ast.Cond:
		if node.Then.Ty.Kind == types.VOID || node.Els.Ty.Kind == types.VOID {
			node.Ty = types.Void
		} else {
			node.Then, node.Els = p.usualArithConv(node.Then, node.Els)
			node.Ty = node.Then.Ty
		}

	case ast.Comma:
		node.Ty = node.Rhs.Ty

	case ast.Member:
		node.Ty = node.Mem.Type

	case ast.Addr:
		ty := node.Lhs.Ty
		if ty.Kind == types.ARRAY {
			node.Ty = types.PointerTo(ty.Base)
		} else {
			node.Ty = types.PointerTo(ty)
		}

	case ast.Deref:
		if node.Lhs.Ty.Base == nil {
			p.errorAt(node.Tok, "invalid pointer dereference")
			node.Ty = types.Int
			break
		}
		if node.Lhs.Ty.Base.Kind == types.VOID {
			p.errorAt(node.Tok, "dereferencing a void pointer")
		}
		node.Ty = node.Lhs.Ty.Base

	case ast.StmtExpr:
		if node.Body == nil {
			p.errorAt(node.Tok, "statement expression returning void is not supported")
			node.Ty = types.Void
			break
		}
		last := node.Body
		for last.Next != nil {
			last = last.Next
		}
		if last.Kind == ast.ExprStmt {
			node.Ty = last.Lhs.Ty
		} else {
			node.Ty = types.Void
		}

	case ast.BuiltinRegClass, ast.BuiltinTypesCompatible:
		node.Ty = types.Int

	case ast.Cast:
		// Ty already set by newCast/the parser; nothing to do.

	default:
	}
}
