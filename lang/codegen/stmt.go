package codegen

import (
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/types"
)

// genStmt implements codegen.c's gen_stmt.
func (g *Generator) genStmt(node *ast.Node) {
	if node.Tok != nil {
		g.printf("\t.loc 1 %d", node.Tok.Line)
	}

	switch node.Kind {
	case ast.If:
		c := g.count()
		g.genExpr(node.Cond)
		g.printf("\tbeqz a0, else.%d", c)
		g.genStmt(node.Then)
		g.printf("\tj end.%d", c)
		g.printf("else.%d:", c)
		if node.Els != nil {
			g.genStmt(node.Els)
		}
		g.printf("end.%d:", c)
		return

	case ast.For:
		c := g.count()
		if node.Init != nil {
			g.genStmt(node.Init)
		}
		g.printf("begin.%d:", c)
		if node.Cond != nil {
			g.genExpr(node.Cond)
			g.printf("\tbeqz a0, %s", node.BrkLabel)
		}
		g.genStmt(node.Then)
		g.printf("%s:", node.ContLabel)
		if node.Inc != nil {
			g.genExpr(node.Inc)
		}
		g.printf("\tj begin.%d", c)
		g.printf("%s:", node.BrkLabel)
		return

	case ast.Do:
		c := g.count()
		g.printf("begin.%d:", c)
		g.genStmt(node.Then)
		g.printf("%s:", node.ContLabel)
		g.genExpr(node.Cond)
		g.printf("\tbnez a0, begin.%d", c)
		g.printf("%s:", node.BrkLabel)
		return

	case ast.Switch:
		g.genExpr(node.Cond)
		for n := node.CaseNext; n != nil; n = n.CaseNext {
			g.printf("\tli a1, %d", n.CaseBegin)
			g.printf("\tbeq a0, a1, %s", n.Label)
		}
		if node.DefaultCase != nil {
			g.printf("\tj %s", node.DefaultCase.Label)
		}
		g.printf("\tj %s", node.BrkLabel)
		g.genStmt(node.Then)
		g.printf("%s:", node.BrkLabel)
		return

	case ast.Case:
		g.printf("%s:", node.Label)
		g.genStmt(node.Lhs)
		return

	case ast.Block:
		for n := node.Body; n != nil; n = n.Next {
			g.genStmt(n)
		}
		return

	case ast.Goto:
		g.printf("\tj %s", node.UniqueLabel)
		return

	case ast.Label:
		g.printf("%s:", node.UniqueLabel)
		g.genStmt(node.Lhs)
		return

	case ast.Return:
		if node.Lhs != nil {
			rty := g.curFn.Ty.ReturnType
			if types.IsStructUnion(rty) {
				// Copy the result's bytes into the caller-supplied hidden
				// buffer (fn.Params[0]); the call expression's value is
				// that buffer's address, which the caller re-derives
				// itself rather than trusting whatever genCall's "call"
				// instruction leaves in a0 (see lang/codegen/expr.go).
				g.genExpr(node.Lhs)
				g.printf("\tmv t1, a0")
				g.printf("\tld t0, %d(fp)", g.curFn.Params[0].Offset)
				for i := 0; i < rty.Size; i++ {
					g.printf("\tlb t2, %d(t1)", i)
					g.printf("\tsb t2, %d(t0)", i)
				}
			} else {
				g.genExpr(node.Lhs)
			}
		}
		g.printf("\tj return.%s", g.curFn.Name)
		return

	case ast.ExprStmt:
		g.genExpr(node.Lhs)
		return
	}

	g.errorAt(node, "invalid statement")
}

// storeArgs spills one incoming argument register (integer or float) into
// its parameter's stack slot, extended from codegen.c's store_args to
// additionally handle floating and struct/union-by-address parameters;
// original_source's store_args calls unreachable() for anything but a
// 1/2/4/8-byte scalar.
func (g *Generator) storeArgs(intReg, fltReg *int, v *ast.Obj) {
	if types.IsFloat(v.Ty) {
		reg := fargReg[*fltReg]
		*fltReg++
		if v.Ty.Size == 4 {
			g.printf("\tfsw %s, %d(fp)", reg, v.Offset)
		} else {
			g.printf("\tfsd %s, %d(fp)", reg, v.Offset)
		}
		return
	}

	reg := argReg[*intReg]
	*intReg++

	if types.IsStructUnion(v.Ty) {
		// The register holds the argument's address (see genCall); copy
		// its bytes into the parameter's own storage byte by byte, the
		// same loop codegen.c's store() uses for a struct assignment.
		for i := 0; i < v.Ty.Size; i++ {
			g.printf("\tlb t0, %d(%s)", i, reg)
			g.printf("\tsb t0, %d(fp)", v.Offset+i)
		}
		return
	}

	switch v.Ty.Size {
	case 1:
		g.printf("\tsb %s, %d(fp)", reg, v.Offset)
	case 2:
		g.printf("\tsh %s, %d(fp)", reg, v.Offset)
	case 4:
		g.printf("\tsw %s, %d(fp)", reg, v.Offset)
	default:
		g.printf("\tsd %s, %d(fp)", reg, v.Offset)
	}
}

// emitText implements codegen.c's emit_text: prologue, argument spill,
// body, epilogue. Extended with the __va_area__ register spill
// original_source's retrieved codegen.c never implements despite the
// parser wiring a VaArea local for every variadic function (see
// codegen.go's package doc and DESIGN.md).
func (g *Generator) emitText(prog []*ast.Obj) {
	for _, fn := range prog {
		if !fn.IsFunction || !fn.IsDefinition {
			continue
		}

		g.printf(".text")
		if fn.IsStatic {
			g.printf(".local %s", fn.Name)
		} else {
			g.printf(".global %s", fn.Name)
		}
		g.printf("%s:", fn.Name)
		g.curFn = fn

		// Prologue.
		g.push("fp")
		g.push("ra")
		g.printf("\tmv fp, sp")

		intReg, fltReg := 0, 0
		for _, v := range fn.Params {
			g.storeArgs(&intReg, &fltReg, v)
		}
		if fn.VaArea != nil {
			// Spill every integer argument register this function's
			// named parameters did not already claim into consecutive
			// 8-byte slots starting at __va_area__'s offset, so
			// stdarg.h's "ap = __va_area__; *(type*)(ap-8)" pointer walk
			// retrieves them in argument order.
			for i := intReg; i < len(argReg); i++ {
				g.printf("\tsd %s, %d(fp)", argReg[i], fn.VaArea.Offset+8*(i-intReg))
			}
		}
		g.printf("\taddi sp, sp, -%d", fn.StackSize)

		depthAtEntry := g.depth
		g.genStmt(fn.Body)
		if g.depth != depthAtEntry {
			g.errorAt(fn.Body, "internal error: unbalanced push/pop in %q", fn.Name)
		}

		// Epilogue.
		g.printf("return.%s:", fn.Name)
		g.printf("\tmv sp, fp")
		g.pop("ra")
		g.pop("fp")
		g.printf("\tret")

		if g.depth != 0 {
			g.errorAt(fn.Body, "internal error: unbalanced push/pop in %q", fn.Name)
		}
	}
}
