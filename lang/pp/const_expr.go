package pp

import "github.com/rv64c/toycc/lang/token"

// readConstExpr isolates one #if/#elif line and resolves `defined(X)` /
// `defined X` to 1 or 0, mirroring preprocess.c's read_const_expr. The
// result is still subject to full macro expansion afterwards.
func (p *Preprocessor) readConstExpr(tok *token.Token) (expr, rest *token.Token) {
	line, rest := copyLine(tok)

	head := &token.Token{}
	cur := head
	tok = line

	for tok.Kind != token.EOF {
		if tok.Is("defined") {
			start := tok
			tok = tok.Next
			hasParen := tok.Is("(")
			if hasParen {
				tok = tok.Next
			}
			if !tok.IsIdentLike() {
				p.errorAt(start, "macro name must be an identifier")
			}
			val := 0
			if p.findMacro(tok) != nil {
				val = 1
			}
			tok = tok.Next
			if hasParen {
				if !tok.Is(")") {
					p.errorAt(tok, "expected ')'")
				} else {
					tok = tok.Next
				}
			}
			cur.Next = p.newNumToken(val, start)
			cur = cur.Next
			continue
		}
		cur.Next = tok
		cur = cur.Next
		tok = tok.Next
	}
	cur.Next = tok
	return head.Next, rest
}

// evalConstExpr reads and evaluates a #if/#elif directive's condition,
// mirroring eval_const_expr: the "defined" forms are resolved, the result
// is macro-expanded, remaining bare identifiers become 0 (per C11
// §6.10.1p4), and what's left is evaluated by the standalone integer
// constant-expression grammar below. dirTok is the "if"/"elif" token
// itself.
func (p *Preprocessor) evalConstExpr(dirTok *token.Token) (val int64, rest *token.Token) {
	expr, rest := p.readConstExpr(dirTok.Next)
	expr = p.preprocess(expr)

	if expr.Kind == token.EOF {
		p.errorAt(dirTok, "no expression")
		return 0, rest
	}

	for t := expr; t.Kind != token.EOF; t = t.Next {
		if t.Kind == token.IDENT {
			next := t.Next
			zero := p.newNumToken(0, t)
			*t = *zero
			t.Next = next
		}
	}

	e := &exprEval{p: p}
	v := e.conditional(expr)
	if e.tok.Kind != token.EOF {
		p.errorAt(e.tok, "extra token")
	}
	return v, rest
}

// exprEval is a small standalone recursive-descent evaluator for the
// integer constant-expression grammar #if/#elif restrict themselves to.
// It deliberately does not reuse lang/parser's full const_expr (parser.c's
// eval/eval2 operate on a fully type-checked *ast.Node tree built by the
// declaration/expression grammar, which needs a scope stack, typenames and
// sizeof -- none of which a #if line can reference); see DESIGN.md for the
// call.
type exprEval struct {
	p   *Preprocessor
	tok *token.Token
}

func (e *exprEval) conditional(tok *token.Token) int64 {
	e.tok = tok
	return e.condExpr()
}

func (e *exprEval) condExpr() int64 {
	cond := e.logOr()
	if e.tok.Is("?") {
		e.tok = e.tok.Next
		then := e.condExpr()
		if !e.tok.Is(":") {
			e.p.errorAt(e.tok, "expected ':'")
		} else {
			e.tok = e.tok.Next
		}
		els := e.condExpr()
		if cond != 0 {
			return then
		}
		return els
	}
	return cond
}

func (e *exprEval) logOr() int64 {
	v := e.logAnd()
	for e.tok.Is("||") {
		e.tok = e.tok.Next
		rhs := e.logAnd()
		if v != 0 || rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v
}

func (e *exprEval) logAnd() int64 {
	v := e.bitOr()
	for e.tok.Is("&&") {
		e.tok = e.tok.Next
		rhs := e.bitOr()
		if v != 0 && rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v
}

func (e *exprEval) bitOr() int64 {
	v := e.bitXor()
	for e.tok.Is("|") {
		e.tok = e.tok.Next
		v |= e.bitXor()
	}
	return v
}

func (e *exprEval) bitXor() int64 {
	v := e.bitAnd()
	for e.tok.Is("^") {
		e.tok = e.tok.Next
		v ^= e.bitAnd()
	}
	return v
}

func (e *exprEval) bitAnd() int64 {
	v := e.equality()
	for e.tok.Is("&") {
		e.tok = e.tok.Next
		v &= e.equality()
	}
	return v
}

func (e *exprEval) equality() int64 {
	v := e.relational()
	for {
		switch {
		case e.tok.Is("=="):
			e.tok = e.tok.Next
			v = boolInt(v == e.relational())
		case e.tok.Is("!="):
			e.tok = e.tok.Next
			v = boolInt(v != e.relational())
		default:
			return v
		}
	}
}

func (e *exprEval) relational() int64 {
	v := e.shift()
	for {
		switch {
		case e.tok.Is("<"):
			e.tok = e.tok.Next
			v = boolInt(v < e.shift())
		case e.tok.Is("<="):
			e.tok = e.tok.Next
			v = boolInt(v <= e.shift())
		case e.tok.Is(">"):
			e.tok = e.tok.Next
			v = boolInt(v > e.shift())
		case e.tok.Is(">="):
			e.tok = e.tok.Next
			v = boolInt(v >= e.shift())
		default:
			return v
		}
	}
}

func (e *exprEval) shift() int64 {
	v := e.add()
	for {
		switch {
		case e.tok.Is("<<"):
			e.tok = e.tok.Next
			v <<= uint(e.add())
		case e.tok.Is(">>"):
			e.tok = e.tok.Next
			v >>= uint(e.add())
		default:
			return v
		}
	}
}

func (e *exprEval) add() int64 {
	v := e.mul()
	for {
		switch {
		case e.tok.Is("+"):
			e.tok = e.tok.Next
			v += e.mul()
		case e.tok.Is("-"):
			e.tok = e.tok.Next
			v -= e.mul()
		default:
			return v
		}
	}
}

func (e *exprEval) mul() int64 {
	v := e.unary()
	for {
		switch {
		case e.tok.Is("*"):
			e.tok = e.tok.Next
			v *= e.unary()
		case e.tok.Is("/"):
			e.tok = e.tok.Next
			if d := e.unary(); d != 0 {
				v /= d
			} else {
				e.p.errorAt(e.tok, "division by zero")
			}
		case e.tok.Is("%"):
			e.tok = e.tok.Next
			if d := e.unary(); d != 0 {
				v %= d
			} else {
				e.p.errorAt(e.tok, "division by zero")
			}
		default:
			return v
		}
	}
}

func (e *exprEval) unary() int64 {
	switch {
	case e.tok.Is("+"):
		e.tok = e.tok.Next
		return e.unary()
	case e.tok.Is("-"):
		e.tok = e.tok.Next
		return -e.unary()
	case e.tok.Is("!"):
		e.tok = e.tok.Next
		return boolInt(e.unary() == 0)
	case e.tok.Is("~"):
		e.tok = e.tok.Next
		return ^e.unary()
	default:
		return e.primary()
	}
}

func (e *exprEval) primary() int64 {
	if e.tok.Is("(") {
		e.tok = e.tok.Next
		v := e.condExpr()
		if !e.tok.Is(")") {
			e.p.errorAt(e.tok, "expected ')'")
		} else {
			e.tok = e.tok.Next
		}
		return v
	}
	if e.tok.Kind == token.NUM {
		v := int64(e.tok.IntVal)
		e.tok = e.tok.Next
		return v
	}
	e.p.errorAt(e.tok, "expected a number")
	e.tok = e.tok.Next
	return 0
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
