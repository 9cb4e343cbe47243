// Package parser implements the recursive-descent, typed parser of spec
// §4.4, grounded file-for-file on original_source/parser/parser.c (the
// expression/statement/top-level grammar), original_source/parser/
// declarator.c (type specifiers and declarators) and
// original_source/parser/initializer.c (the initializer engine). It
// consumes the token stream lang/pp produces and returns the flat list of
// top-level *ast.Obj (functions and global variables) that lang/codegen
// emits assembly for.
package parser

import (
	"fmt"

	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/scope"
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

// Parser holds all state threaded through the recursive-descent grammar,
// mirroring the file-scope statics original_source/parser/scope.c keeps
// (locals, globals, scope stack) plus the goto/label bookkeeping parser.c
// keeps per function.
type Parser struct {
	Errs *diag.List

	scopes  *scope.Stack
	locals  []*ast.Obj
	globals []*ast.Obj

	uniqueID int

	curFn            *ast.Obj
	brkLabel         string
	contLabel        string
	curSwitch        *ast.Node
	gotos            []*ast.Node
	labels           []*ast.Node

	// fnUseStaticAssert-style one-shots are not needed; _Static_assert just
	// evaluates and discards.
}

// New returns a Parser ready to consume one translation unit's token
// stream.
func New(errs *diag.List) *Parser {
	return &Parser{Errs: errs, scopes: scope.NewStack()}
}

// Parse runs original_source's top-level parser() entry point: a sequence
// of typedefs, function definitions and global variable declarations,
// returning the accumulated globals list (scope.c's ret_globals, reversed
// to declaration order the way scan_globals leaves it).
func Parse(tok *token.Token, errs *diag.List) []*ast.Obj {
	p := New(errs)
	return p.parseProgram(tok)
}

func (p *Parser) parseProgram(tok *token.Token) []*ast.Obj {
	for tok.Kind != token.EOF {
		if equal(tok, "_Static_assert") {
			tok = p.staticAssert(tok)
			continue
		}

		attr := &VarAttr{}
		basety := p.declspec(tok, &tok, attr)

		// typedef
		if attr.IsTypedef {
			tok = p.parseTypedef(tok, basety)
			continue
		}

		// function
		if p.isFunction(tok) {
			tok = p.function(tok, basety, attr)
			continue
		}

		// global variable
		tok = p.globalVariable(tok, basety, attr)
	}
	return p.scanGlobals()
}

// scanGlobals drops redundant tentative definitions, mirroring
// scope.c's scan_globals.
func (p *Parser) scanGlobals() []*ast.Obj {
	out := make([]*ast.Obj, 0, len(p.globals))
	for _, v := range p.globals {
		if !v.IsTentative {
			out = append(out, v)
			continue
		}
		redundant := false
		for _, v2 := range p.globals {
			if v2 != v && v2.IsDefinition && v2.Name == v.Name {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, v)
		}
	}
	return out
}

func (p *Parser) errorAt(tok *token.Token, format string, args ...any) {
	if tok != nil && tok.File != nil {
		p.Errs.Add(tok.File, tok.Offset, format, args...)
		return
	}
	p.Errs.Add(nil, 0, format, args...)
}

// --- small token helpers, mirroring tokenize.c's equal/skip/consume ---

func equal(tok *token.Token, s string) bool { return tok.Is(s) }

func (p *Parser) skip(tok *token.Token, s string) *token.Token {
	if !equal(tok, s) {
		p.errorAt(tok, "expected '%s'", s)
		return tok
	}
	return tok.Next
}

func consume(rest **token.Token, tok *token.Token, s string) bool {
	if equal(tok, s) {
		*rest = tok.Next
		return true
	}
	*rest = tok
	return false
}

// consumeEnd accepts the end of a brace-delimited, comma-separated list:
// "}" or ",""}" , mirroring parser/common.c's consume_end.
func consumeEnd(rest **token.Token, tok *token.Token) bool {
	if equal(tok, "}") {
		*rest = tok.Next
		return true
	}
	if equal(tok, ",") && equal(tok.Next, "}") {
		*rest = tok.Next.Next
		return true
	}
	return false
}

func (p *Parser) getIdent(tok *token.Token) string {
	if !tok.IsIdentLike() {
		p.errorAt(tok, "expected an identifier")
		return ""
	}
	return tok.Text()
}

// newUniqueName mirrors parser/common.c's new_unique_name (".L..%d").
func (p *Parser) newUniqueName() string {
	name := fmt.Sprintf(".L..%d", p.uniqueID)
	p.uniqueID++
	return name
}

// --- Obj / scope plumbing, mirroring parser/scope.c ---

func (p *Parser) newVar(name string, ty *types.Type) *ast.Obj {
	v := &ast.Obj{Name: name, Ty: ty, Align: ty.Align}
	sc := p.scopes.PushVar(name)
	sc.Var = v
	return v
}

func (p *Parser) newLVar(name string, ty *types.Type) *ast.Obj {
	v := p.newVar(name, ty)
	v.IsLocal = true
	p.locals = append(p.locals, v)
	return v
}

func (p *Parser) newGVar(name string, ty *types.Type) *ast.Obj {
	v := p.newVar(name, ty)
	v.IsLocal = false
	v.IsStatic = true
	v.IsDefinition = true
	p.globals = append(p.globals, v)
	return v
}

func (p *Parser) newAnonGVar(ty *types.Type) *ast.Obj {
	return p.newGVar(p.newUniqueName(), ty)
}

func (p *Parser) newStringLiteral(data []byte, ty *types.Type) *ast.Obj {
	v := p.newAnonGVar(ty)
	v.InitData = data
	return v
}

func (p *Parser) findVar(tok *token.Token) *scope.VarScope {
	sc, ok := p.scopes.FindVar(tok.Text())
	if !ok {
		return nil
	}
	return sc
}

func (p *Parser) findTag(tok *token.Token) *types.Type {
	ty, _ := p.scopes.FindTag(tok.Text())
	return ty
}

func (p *Parser) findTypedef(tok *token.Token) *types.Type {
	if tok.Kind != token.IDENT && tok.Kind != token.KEYWORD {
		return nil
	}
	if sc := p.findVar(tok); sc != nil {
		return sc.Typedef
	}
	return nil
}

func (p *Parser) findFunc(name string) *ast.Obj {
	v, ok := p.scopes.FindFunc(name)
	if !ok {
		return nil
	}
	return v
}

func (p *Parser) isGlobalScope() bool { return p.scopes.AtFileScope() }
