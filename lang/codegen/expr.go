package codegen

import (
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/types"
)

// genAddr implements codegen.c's gen_addr: computes the address of an
// lvalue node into a0. It is an error for node not to denote a memory
// location.
func (g *Generator) genAddr(node *ast.Node) {
	switch node.Kind {
	case ast.Var:
		if node.Obj.IsLocal {
			g.printf("\tadd a0, fp, %d", node.Obj.Offset)
		} else {
			g.printf("\tla a0, %s", node.Obj.Name)
		}
		return

	case ast.Deref:
		g.genExpr(node.Lhs)
		return

	case ast.Comma:
		g.genExpr(node.Lhs)
		g.genAddr(node.Rhs)
		return

	case ast.Member:
		g.genAddr(node.Lhs)
		g.printf("\tadd a0, a0, %d", node.Mem.Offset)
		return

	case ast.FuncCall:
		// A struct/union-returning call's "value" is the hidden return
		// buffer's address, which genExpr already leaves in a0; using it
		// as an lvalue base (e.g. f().field) is valid even though the
		// call result itself is not assignable.
		if types.IsStructUnion(node.Ty) {
			g.genExpr(node)
			return
		}
	}

	g.errorAt(node, "not an lvalue")
}

// addrOfObj computes obj's address into a0, the Obj-level equivalent of
// genAddr's ast.Var case (used for the hidden struct-return buffer, which
// has no Var node of its own).
func (g *Generator) addrOfObj(obj *ast.Obj) {
	if obj.IsLocal {
		g.printf("\tadd a0, fp, %d", obj.Offset)
	} else {
		g.printf("\tla a0, %s", obj.Name)
	}
}

// genExpr implements codegen.c's gen_expr, extended with floating-point
// arithmetic/casts and the struct/variadic call conventions described in
// codegen.go's package doc.
func (g *Generator) genExpr(node *ast.Node) {
	if node.Tok != nil {
		g.printf("\t.loc 1 %d", node.Tok.Line)
	}

	switch node.Kind {
	case ast.NullExpr:
		return

	case ast.Num:
		if types.IsFloat(node.Ty) {
			g.loadFloatImm(node.Ty, node.Fval)
		} else {
			g.printf("\tli a0, %d", node.Val)
		}
		return

	case ast.Neg:
		g.genExpr(node.Lhs)
		if types.IsFloat(node.Ty) {
			if node.Ty.Size == 4 {
				g.printf("\tfneg.s fa0, fa0")
			} else {
				g.printf("\tfneg.d fa0, fa0")
			}
		} else {
			g.printf("\tneg a0, a0")
		}
		return

	case ast.Var, ast.Member:
		g.genAddr(node)
		g.load(node.Ty)
		return

	case ast.Deref:
		g.genExpr(node.Lhs)
		g.load(node.Ty)
		return

	case ast.Addr:
		g.genAddr(node.Lhs)
		return

	case ast.Assign:
		g.genAddr(node.Lhs)
		g.push("a0")
		g.genExpr(node.Rhs)
		g.store(node.Ty)
		return

	case ast.StmtExpr:
		for n := node.Body; n != nil; n = n.Next {
			g.genStmt(n)
		}
		return

	case ast.Comma:
		g.genExpr(node.Lhs)
		g.genExpr(node.Rhs)
		return

	case ast.Cast:
		g.genExpr(node.Lhs)
		g.cast(node.Lhs.Ty, node.Ty)
		return

	case ast.Memzero:
		for i := 0; i < node.Obj.Ty.Size; i++ {
			g.printf("\tsb zero, %d(fp)", node.Obj.Offset+i)
		}
		return

	case ast.Cond:
		c := g.count()
		g.genExpr(node.Cond)
		g.printf("\tbeqz a0, .L.else.%d", c)
		g.genExpr(node.Then)
		g.printf("\tj .L.end.%d", c)
		g.printf(".L.else.%d:", c)
		g.genExpr(node.Els)
		g.printf(".L.end.%d:", c)
		return

	case ast.Not:
		g.genExpr(node.Lhs)
		if types.IsFloat(node.Lhs.Ty) {
			g.castToBool(node.Lhs.Ty)
		} else {
			g.printf("\tsnez a0, a0")
		}
		g.printf("\tseqz a0, a0")
		return

	case ast.BitNot:
		g.genExpr(node.Lhs)
		g.printf("\tnot a0, a0")
		return

	case ast.LogAnd:
		c := g.count()
		g.genExpr(node.Lhs)
		g.printf("\tbeqz a0, .L.false.%d", c)
		g.genExpr(node.Rhs)
		g.printf("\tbeqz a0, .L.false.%d", c)
		g.printf("\tli a0, 1")
		g.printf("\tj .L.end.%d", c)
		g.printf(".L.false.%d:", c)
		g.printf("\tli a0, 0")
		g.printf(".L.end.%d:", c)
		return

	case ast.LogOr:
		c := g.count()
		g.genExpr(node.Lhs)
		g.printf("\tbnez a0, .L.true.%d", c)
		g.genExpr(node.Rhs)
		g.printf("\tbnez a0, .L.true.%d", c)
		g.printf("\tli a0, 0")
		g.printf("\tj .L.end.%d", c)
		g.printf(".L.true.%d:", c)
		g.printf("\tli a0, 1")
		g.printf(".L.end.%d:", c)
		return

	case ast.FuncCall:
		g.genCall(node)
		return

	case ast.BuiltinTypesCompatible:
		if types.IsCompatible(node.Lhs.Ty, node.Ty2) {
			g.printf("\tli a0, 1")
		} else {
			g.printf("\tli a0, 0")
		}
		return

	case ast.BuiltinRegClass:
		g.errorAt(node, "__builtin_reg_class is not supported")
		return
	}

	if types.IsFloat(node.Ty) || (node.Lhs != nil && types.IsFloat(node.Lhs.Ty)) {
		g.genFloatBinary(node)
		return
	}

	g.genExpr(node.Rhs)
	g.push("a0")
	g.genExpr(node.Lhs)
	g.pop("a1")

	suffix := "w"
	if node.Lhs.Ty.Kind == types.LONG || node.Lhs.Ty.Base != nil {
		suffix = ""
	}

	switch node.Kind {
	case ast.Add:
		g.printf("\tadd%s a0, a0, a1", suffix)
	case ast.Sub:
		g.printf("\tsub%s a0, a0, a1", suffix)
	case ast.Mul:
		g.printf("\tmul%s a0, a0, a1", suffix)
	case ast.Div:
		if node.Lhs.Ty.IsUnsigned {
			g.printf("\tdivu%s a0, a0, a1", suffix)
		} else {
			g.printf("\tdiv%s a0, a0, a1", suffix)
		}
	case ast.Mod:
		if node.Lhs.Ty.IsUnsigned {
			g.printf("\tremu%s a0, a0, a1", suffix)
		} else {
			g.printf("\trem%s a0, a0, a1", suffix)
		}
	case ast.BitAnd:
		g.printf("\tand a0, a0, a1")
	case ast.BitOr:
		g.printf("\tor a0, a0, a1")
	case ast.BitXor:
		g.printf("\txor a0, a0, a1")
	case ast.Eq:
		g.printf("\txor a0, a0, a1")
		g.printf("\tseqz a0, a0")
	case ast.Ne:
		g.printf("\txor a0, a0, a1")
		g.printf("\tsnez a0, a0")
	case ast.Lt:
		if node.Lhs.Ty.IsUnsigned {
			g.printf("\tsltu a0, a0, a1")
		} else {
			g.printf("\tslt a0, a0, a1")
		}
	case ast.Le:
		if node.Lhs.Ty.IsUnsigned {
			g.printf("\tsltu a0, a1, a0")
		} else {
			g.printf("\tslt a0, a1, a0")
		}
		g.printf("\tseqz a0, a0")
	case ast.Shl:
		if node.Ty.Size == 8 {
			g.printf("\tsll a0, a0, a1")
		} else {
			g.printf("\tsllw a0, a0, a1")
		}
	case ast.Shr:
		if node.Ty.Size == 8 {
			if node.Ty.IsUnsigned {
				g.printf("\tsrl a0, a0, a1")
			} else {
				g.printf("\tsra a0, a0, a1")
			}
		} else if node.Ty.IsUnsigned {
			g.printf("\tsrlw a0, a0, a1")
		} else {
			g.printf("\tsraw a0, a0, a1")
		}
	default:
		g.errorAt(node, "invalid expression")
	}
}

// genFloatBinary handles the arithmetic/comparison node kinds when the
// usual arithmetic conversion has settled on a float/double operand type;
// original_source has no floating-point path at all, so this is grounded
// directly on the RV64D instruction set rather than a retrieved source.
func (g *Generator) genFloatBinary(node *ast.Node) {
	g.genExpr(node.Rhs)
	g.pushF()
	g.genExpr(node.Lhs)
	g.popF("fa1")

	suffix := "s"
	if node.Lhs.Ty.Size == 8 {
		suffix = "d"
	}

	switch node.Kind {
	case ast.Add:
		g.printf("\tfadd.%s fa0, fa0, fa1", suffix)
	case ast.Sub:
		g.printf("\tfsub.%s fa0, fa0, fa1", suffix)
	case ast.Mul:
		g.printf("\tfmul.%s fa0, fa0, fa1", suffix)
	case ast.Div:
		g.printf("\tfdiv.%s fa0, fa0, fa1", suffix)
	case ast.Eq:
		g.printf("\tfeq.%s a0, fa0, fa1", suffix)
	case ast.Ne:
		g.printf("\tfeq.%s a0, fa0, fa1", suffix)
		g.printf("\tseqz a0, a0")
	case ast.Lt:
		g.printf("\tflt.%s a0, fa0, fa1", suffix)
	case ast.Le:
		g.printf("\tfle.%s a0, fa0, fa1", suffix)
	default:
		g.errorAt(node, "invalid floating-point expression")
	}
}

// genCall implements (and substantially extends) codegen.c's ND_FUNCALL
// case: original_source passes every argument through a0-a5 treated as raw
// integers and calls the callee by its bare symbol name. This version
// additionally supports: an indirect call through a function-pointer
// expression (jalr through a scratch register instead of "call sym");
// independent integer/floating argument register files per the RISC-V
// hardware floating-point calling convention; a variadic tail argument of
// float/double type moved into the integer domain via fmv so it lands in
// __va_area__ like every other variadic slot does; and a struct/union
// argument or return value passed by its address through an integer
// register slot (see codegen.go's package doc and DESIGN.md for why this
// compiler does not attempt the SysV packed-register struct convention).
func (g *Generator) genCall(node *ast.Node) {
	ft := node.FuncTy
	hiddenRet := types.IsStructUnion(node.Ty)

	indirect := node.Lhs.Kind != ast.Var || !node.Lhs.Obj.IsFunction
	if indirect {
		g.genExpr(node.Lhs)
		g.push("a0")
	}

	intIdx, fltIdx := 0, 0
	if hiddenRet {
		intIdx = 1
	}

	type slot struct {
		isFloat bool
		reg     string
	}
	regOf := make([]slot, len(node.Args))

	for i, arg := range node.Args {
		named := i < len(ft.Params)
		isFloat := named && types.IsFloat(arg.Ty)

		g.genExpr(arg)
		switch {
		case types.IsFloat(arg.Ty) && !isFloat:
			// Variadic tail argument: already promoted to double by the
			// parser, move its bits into a0 so it spills like any other
			// variadic slot.
			if arg.Ty.Size == 8 {
				g.printf("\tfmv.x.d a0, fa0")
			} else {
				g.printf("\tfmv.x.w a0, fa0")
			}
			g.push("a0")
			regOf[i] = slot{reg: argReg[intIdx]}
			intIdx++
		case isFloat:
			g.pushF()
			regOf[i] = slot{isFloat: true, reg: fargReg[fltIdx]}
			fltIdx++
		default:
			g.push("a0")
			regOf[i] = slot{reg: argReg[intIdx]}
			intIdx++
		}
	}

	for i := len(node.Args) - 1; i >= 0; i-- {
		if regOf[i].isFloat {
			g.popF(regOf[i].reg)
		} else {
			g.pop(regOf[i].reg)
		}
	}

	var calleeReg string
	if indirect {
		calleeReg = "t0"
		g.pop(calleeReg)
	}

	if hiddenRet {
		g.addrOfObj(node.RetBuf)
	}

	if indirect {
		g.printf("\tjalr %s", calleeReg)
	} else {
		g.printf("\tcall %s", node.Lhs.Obj.Name)
	}

	if hiddenRet {
		// The call may have clobbered a0; the expression's value is the
		// buffer's address regardless of what the callee left behind.
		g.addrOfObj(node.RetBuf)
	}
}

// loadFloatImm materializes a floating-point constant into fa0. RISC-V has
// no float load-immediate, so the bit pattern is loaded into a0 with "li"
// and moved across with fmv.w.x/fmv.d.x.
func (g *Generator) loadFloatImm(ty *types.Type, f float64) {
	if ty.Size == 4 {
		g.printf("\tli a0, %d", int64(int32(writeFloatBits(f))))
		g.printf("\tfmv.w.x fa0, a0")
		return
	}
	g.printf("\tli a0, %d", int64(writeDoubleBits(f)))
	g.printf("\tfmv.d.x fa0, a0")
}
