package parser

import (
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

// evalRval implements parser/common.c's eval_rval: the address-of form of
// constant folding, used by eval2's Addr/Member cases.
func (p *Parser) evalRval(node *ast.Node, label *string) int64 {
	switch node.Kind {
	case ast.Var:
		if node.Obj.IsLocal || label == nil {
			p.errorAt(node.Tok, "not a compile-time constant")
			return 0
		}
		*label = node.Obj.Name
		return 0
	case ast.Deref:
		return p.eval2(node.Lhs, label)
	case ast.Member:
		return p.evalRval(node.Lhs, label) + int64(node.Mem.Offset)
	default:
		p.errorAt(node.Tok, "invalid initializer")
		return 0
	}
}

// eval2 implements parser/common.c's eval2: fold node to an int64, or to
// ptr+n when label is non-nil and the constant is a global's address.
func (p *Parser) eval2(node *ast.Node, label *string) int64 {
	p.addType(node)

	switch node.Kind {
	case ast.Add:
		return p.eval2(node.Lhs, label) + p.eval(node.Rhs)
	case ast.Sub:
		return p.eval2(node.Lhs, label) - p.eval(node.Rhs)
	case ast.Mul:
		return p.eval(node.Lhs) * p.eval(node.Rhs)
	case ast.Div:
		rhs := p.eval(node.Rhs)
		if rhs == 0 {
			p.errorAt(node.Tok, "division by zero")
			return 0
		}
		return p.eval(node.Lhs) / rhs
	case ast.Neg:
		return -p.eval(node.Lhs)
	case ast.Mod:
		rhs := p.eval(node.Rhs)
		if rhs == 0 {
			p.errorAt(node.Tok, "division by zero")
			return 0
		}
		return p.eval(node.Lhs) % rhs
	case ast.BitAnd:
		return p.eval(node.Lhs) & p.eval(node.Rhs)
	case ast.BitOr:
		return p.eval(node.Lhs) | p.eval(node.Rhs)
	case ast.BitXor:
		return p.eval(node.Lhs) ^ p.eval(node.Rhs)
	case ast.Shl:
		return p.eval(node.Lhs) << uint(p.eval(node.Rhs))
	case ast.Shr:
		return p.eval(node.Lhs) >> uint(p.eval(node.Rhs))
	case ast.Eq:
		return boolInt64(p.eval(node.Lhs) == p.eval(node.Rhs))
	case ast.Ne:
		return boolInt64(p.eval(node.Lhs) != p.eval(node.Rhs))
	case ast.Lt:
		return boolInt64(p.eval(node.Lhs) < p.eval(node.Rhs))
	case ast.Le:
		return boolInt64(p.eval(node.Lhs) <= p.eval(node.Rhs))
	case ast.Cond:
		if p.eval(node.Cond) != 0 {
			return p.eval2(node.Then, label)
		}
		return p.eval2(node.Els, label)
	case ast.Comma:
		return p.eval2(node.Rhs, label)
	case ast.Not:
		return boolInt64(p.eval(node.Lhs) == 0)
	case ast.BitNot:
		return ^p.eval(node.Lhs)
	case ast.LogAnd:
		return boolInt64(p.eval(node.Lhs) != 0 && p.eval(node.Rhs) != 0)
	case ast.LogOr:
		return boolInt64(p.eval(node.Lhs) != 0 || p.eval(node.Rhs) != 0)
	case ast.Cast:
		val := p.eval2(node.Lhs, label)
		if types.IsInteger(node.Ty) {
			switch node.Ty.Size {
			case 1:
				return int64(uint8(val))
			case 2:
				return int64(uint16(val))
			case 4:
				return int64(uint32(val))
			}
		}
		return val
	case ast.Addr:
		return p.evalRval(node.Lhs, label)
	case ast.Member:
		if label == nil {
			p.errorAt(node.Tok, "not a compile-time constant")
			return 0
		}
		if node.Ty.Kind != types.ARRAY {
			p.errorAt(node.Tok, "invalid initializer")
		}
		return p.evalRval(node.Lhs, label) + int64(node.Mem.Offset)
	case ast.Var:
		if label == nil {
			p.errorAt(node.Tok, "not a compile-time constant")
			return 0
		}
		if node.Obj.Ty.Kind != types.ARRAY && node.Obj.Ty.Kind != types.FUNC {
			p.errorAt(node.Tok, "invalid initializer")
		}
		*label = node.Obj.Name
		return 0
	case ast.Num:
		return node.Val
	default:
		p.errorAt(node.Tok, "not a compile-time constant")
		return 0
	}
}

// eval implements parser/common.c's eval: fold node to a plain int64,
// rejecting any label-producing (ptr+n) result.
func (p *Parser) eval(node *ast.Node) int64 {
	return p.eval2(node, nil)
}

// evalDouble folds node to a float64. original_source declares but does not
// define eval_double anywhere in the retrieved sources (it is only called
// from parser/initializer.c's write_gvar_data); this mirrors eval2's shape
// generalized to floating point, the same way chibicc's own eval_double
// does it.
func (p *Parser) evalDouble(node *ast.Node) float64 {
	p.addType(node)

	switch node.Kind {
	case ast.Add:
		return p.evalDouble(node.Lhs) + p.evalDouble(node.Rhs)
	case ast.Sub:
		return p.evalDouble(node.Lhs) - p.evalDouble(node.Rhs)
	case ast.Mul:
		return p.evalDouble(node.Lhs) * p.evalDouble(node.Rhs)
	case ast.Div:
		return p.evalDouble(node.Lhs) / p.evalDouble(node.Rhs)
	case ast.Neg:
		return -p.evalDouble(node.Lhs)
	case ast.Cond:
		if p.eval(node.Cond) != 0 {
			return p.evalDouble(node.Then)
		}
		return p.evalDouble(node.Els)
	case ast.Comma:
		return p.evalDouble(node.Rhs)
	case ast.Cast:
		if types.IsFloat(node.Lhs.Ty) {
			return p.evalDouble(node.Lhs)
		}
		return float64(p.eval(node.Lhs))
	case ast.Num:
		if types.IsFloat(node.Ty) {
			return node.Fval
		}
		return float64(node.Val)
	default:
		p.errorAt(node.Tok, "not a compile-time constant")
		return 0
	}
}

// constExpr implements parser/common.c's const_expr: a conditional
// expression followed by eval, with no label allowed.
func (p *Parser) constExpr(tok *token.Token) (val int64, rest *token.Token) {
	node, rest := p.conditional(tok)
	return p.eval(node), rest
}

func boolInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
