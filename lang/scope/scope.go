// Package scope implements the two-namespace, stacked block scoping rules
// of spec §3/§4.4: one namespace for identifiers (variables, typedefs, enum
// constants) and one for tags (struct/union/enum). Each namespace is backed
// by github.com/dolthub/swiss, the open-addressing hashmap spec §1 treats as
// a given external collaborator rather than something to reimplement.
package scope

import (
	"github.com/dolthub/swiss"

	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/types"
)

// VarScope is a single identifier binding: exactly one of Var, Typedef or
// Enum (with EnumVal) is set, mirroring the union-by-convention in
// original_source's parser/scope.h VarScope.
type VarScope struct {
	Name    string
	Var     *ast.Obj
	Typedef *types.Type
	EnumTy  *types.Type
	EnumVal int64
}

// scope is one block's pair of namespaces.
type scope struct {
	vars *swiss.Map[string, *VarScope]
	tags *swiss.Map[string, *types.Type]
}

func newScope() *scope {
	return &scope{
		vars: swiss.NewMap[string, *VarScope](8),
		tags: swiss.NewMap[string, *types.Type](8),
	}
}

// Stack is the scope stack for one translation unit. The outermost entry
// (index 0) is file scope; Enter/Leave push and pop block scopes as the
// parser walks compound statements and function bodies. Stacks must not be
// mutated while being iterated (spec §3 Lifecycles).
type Stack struct {
	scopes []*scope
}

// NewStack returns a scope stack containing only file scope.
func NewStack() *Stack {
	return &Stack{scopes: []*scope{newScope()}}
}

// Enter pushes a new block scope.
func (s *Stack) Enter() { s.scopes = append(s.scopes, newScope()) }

// Leave pops the innermost block scope. It panics if called at file scope,
// since the parser should never leave a scope it hasn't entered.
func (s *Stack) Leave() {
	if len(s.scopes) == 1 {
		panic("scope: Leave called at file scope")
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// AtFileScope reports whether the stack is currently at its outermost
// (file/global) scope.
func (s *Stack) AtFileScope() bool { return len(s.scopes) == 1 }

// FindVar looks up name in the identifier namespace, walking from the
// innermost scope outward.
func (s *Stack) FindVar(name string) (*VarScope, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i].vars.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// FindTag looks up name in the tag namespace, walking from the innermost
// scope outward.
func (s *Stack) FindTag(name string) (*types.Type, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if ty, ok := s.scopes[i].tags.Get(name); ok {
			return ty, true
		}
	}
	return nil, false
}

// FindFunc looks up name in file scope's identifier namespace and returns
// it only if it is a function object (original_source's find_func, used by
// the parser to recognize implicit-declaration call sites).
func (s *Stack) FindFunc(name string) (*ast.Obj, bool) {
	file := s.scopes[0]
	if v, ok := file.vars.Get(name); ok && v.Var != nil && v.Var.IsFunction {
		return v.Var, true
	}
	return nil, false
}

// PushTag binds name to ty in the innermost scope's tag namespace.
func (s *Stack) PushTag(name string, ty *types.Type) {
	s.top().tags.Put(name, ty)
}

// OverwriteTag replaces the body of an existing incomplete tag binding in
// place (struct forward-declaration completion), returning the existing
// *types.Type if one was found, or nil if name has no tag binding in the
// innermost scope yet.
func (s *Stack) OverwriteTag(name string, ty *types.Type) *types.Type {
	existing, ok := s.top().tags.Get(name)
	if !ok {
		return nil
	}
	*existing = *ty
	return existing
}

// PushVar binds name to a fresh, empty *VarScope in the innermost scope and
// returns it for the caller to fill in (Var, Typedef, or Enum+EnumVal).
func (s *Stack) PushVar(name string) *VarScope {
	vs := &VarScope{Name: name}
	s.top().vars.Put(name, vs)
	return vs
}

func (s *Stack) top() *scope { return s.scopes[len(s.scopes)-1] }
