// Package ast defines the abstract syntax tree produced by lang/parser and
// consumed by lang/codegen: a single tagged-union Node type (one struct,
// one Kind field) rather than one Go type per production, mirroring
// original_source's toycc.h/codegen.c struct Node, plus the Obj/Reloc pair
// describing a variable or function's storage. The teacher's lang/ast
// package instead gives every production its own Go type connected by a
// Node interface (fmt.Formatter + Span + Walk) with a separate Visitor/Walk
// pair for traversal; we keep that Visitor/Walk idiom for the debug printer
// (see visitor.go, printer.go) but the node shape itself follows the
// teacher the compiler was actually distilled from, since the codegen and
// parser algorithms read and branch on node.Kind exactly like the C switch
// statements they are grounded on.
package ast

import (
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

// Kind discriminates Node's variant, one value per original_source
// NodeKind plus the two builtins the SUPPLEMENTED FEATURES (SPEC_FULL.md §6)
// add (BuiltinRegClass, BuiltinTypesCompatible).
type Kind int8

//nolint:revive
const (
	NullExpr Kind = iota
	Add
	Sub
	Mul
	Div
	Mod
	Neg
	BitAnd
	BitOr
	BitXor
	BitNot
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Assign
	Cond
	Comma
	Member
	Addr
	Deref
	Not
	LogAnd
	LogOr
	FuncCall
	Cast
	Memzero
	StmtExpr
	Var
	Num

	// statements
	ExprStmt
	Return
	If
	For
	Do
	Switch
	Case
	Block
	Goto
	Label

	// supplemented builtins, SPEC_FULL.md §6
	BuiltinRegClass
	BuiltinTypesCompatible
)

// Node is a single AST node. Expression and statement kinds share the one
// struct, exactly as original_source's struct Node does; which fields are
// meaningful is determined by Kind (see the corresponding lang/parser and
// lang/codegen switches).
type Node struct {
	Kind Kind
	Next *Node // next statement in a Block's body, or a Case's chain
	Ty   *types.Type
	Tok  *token.Token

	Lhs, Rhs *Node

	// If/For/Do/Cond
	Cond, Then, Els, Init, Inc *Node
	BrkLabel, ContLabel        string

	// Block
	Body *Node // first statement of the block, chained via Next

	// Switch/Case
	CaseNext    *Node
	DefaultCase *Node
	CaseBegin   int64
	CaseEnd     int64
	IsCaseRange bool

	// Goto/Label
	Label       string // original spelling
	UniqueLabel string // resolved target, filled in by the parser's goto-resolution pass

	// FuncCall
	FuncName string
	Args     []*Node
	RetBuf   *Obj // hidden return-buffer object, for struct/union returns
	FuncTy   *types.Type

	// Member
	Mem *types.Member

	// Var
	Obj *Obj

	// Num
	Val  int64
	Fval float64

	// BuiltinTypesCompatible
	Ty2 *types.Type
}

// Obj is a named entity: a local/global variable, a string-literal
// pseudo-global, or a function, following original_source's Obj union
// (parser/scope.h's VarScope.var field plus codegen.c's fn->/var->
// accesses).
type Obj struct {
	Next *Obj
	Name string
	Ty   *types.Type
	Tok  *token.Token

	IsLocal bool

	// local
	Offset int

	// global
	IsFunction   bool
	IsDefinition bool
	IsStatic     bool
	IsTentative  bool // declared but not yet initialized; may still get a definition later in the unit
	Align        int
	InitData     []byte
	Rel          *Reloc

	// function
	Params    []*Obj
	VaArea    *Obj
	AllocaBottom *Obj
	Body      *Node
	Locals    []*Obj
	StackSize int
	IsInline  bool
}

// Reloc is one relocation entry in a global's byte-buffer initializer: at
// byte offset Offset, overwrite the pointer-sized slot with the address of
// Label plus Addend (original_source's struct Relocation, codegen.c's
// emit_data).
type Reloc struct {
	Next   *Reloc
	Offset int
	Label  string
	Addend int64
}

// NewNode returns a bare node of the given kind at tok, mirroring
// original_source's parser/common.c new_node.
func NewNode(kind Kind, tok *token.Token) *Node { return &Node{Kind: kind, Tok: tok} }

// NewBinary returns a binary-operator node, mirroring new_binary.
func NewBinary(kind Kind, lhs, rhs *Node, tok *token.Token) *Node {
	return &Node{Kind: kind, Lhs: lhs, Rhs: rhs, Tok: tok}
}

// NewUnary returns a unary-operator node, mirroring new_unary.
func NewUnary(kind Kind, expr *Node, tok *token.Token) *Node {
	return &Node{Kind: kind, Lhs: expr, Tok: tok}
}

// NewNum returns an integer-literal node, mirroring new_num.
func NewNum(val int64, tok *token.Token) *Node {
	return &Node{Kind: Num, Val: val, Tok: tok}
}

// NewLong returns a long-typed integer-literal node, mirroring
// parser/common.c's new_long/new_ulong helpers.
func NewLong(val int64, tok *token.Token) *Node {
	n := &Node{Kind: Num, Val: val, Tok: tok, Ty: types.Long}
	return n
}

// NewVarNode returns a reference to obj, mirroring new_var_node.
func NewVarNode(obj *Obj, tok *token.Token) *Node {
	return &Node{Kind: Var, Obj: obj, Tok: tok}
}

// NewCast returns expr cast to ty, mirroring declarator.c's new_cast.
func NewCast(expr *Node, ty *types.Type) *Node {
	return &Node{Kind: Cast, Lhs: expr, Tok: expr.Tok, Ty: types.Copy(ty)}
}
