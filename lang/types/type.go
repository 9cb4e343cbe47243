// Package types implements the C type system described in spec §3 and §4.3:
// a constructive type library (one constructor per variant), the usual
// arithmetic conversion, and the struct/union layout algorithm that
// lang/parser invokes once a declarator's shape is known.
package types

import "github.com/rv64c/toycc/lang/token"

// Kind is the discriminant of Type's variant.
type Kind int8

const (
	VOID Kind = iota
	BOOL
	CHAR
	SHORT
	INT
	LONG
	FLOAT
	DOUBLE
	LDOUBLE
	ENUM
	PTR
	FUNC
	ARRAY
	VLA
	STRUCT
	UNION
)

func (k Kind) String() string {
	names := [...]string{
		"void", "_Bool", "char", "short", "int", "long",
		"float", "double", "long double", "enum",
		"pointer", "function", "array", "vla", "struct", "union",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Type is a variant record over every C type shape the compiler knows
// about. Fields are grouped by which kinds use them; see spec §3.
type Type struct {
	Kind       Kind
	Size       int
	Align      int
	IsUnsigned bool

	Base *Type       // PTR/ARRAY/VLA element type
	Name *token.Token // declarator name token, if any
	Origin *Type      // set by Copy, for typedef/qualifier traceability

	ArrayLen int // ARRAY: >=0, or -1 if incomplete/flexible

	Members    []*Member // STRUCT/UNION
	IsFlexible bool       // STRUCT/UNION: has a trailing flexible array member

	ReturnType *Type   // FUNC
	Params     []*Type // FUNC
	IsVariadic bool    // FUNC

	VLALen any // VLA: the AST node computing the length (opaque to avoid an import cycle; lang/parser type-asserts it)
}

// Member is one field of a struct or union type.
type Member struct {
	Name  *token.Token
	Type  *Type
	Index int // declaration order
	Offset int
	Align int

	IsFlexible bool

	IsBitfield  bool
	BitOffset   int
	BitWidth    int
}

func newType(k Kind, size, align int) *Type {
	return &Type{Kind: k, Size: size, Align: align}
}

// Singleton base types, mirroring the teacher's "one package-level value
// per primitive type" style (type.c: ty_void, ty_bool, ...).
var (
	Void    = newType(VOID, 1, 1)
	BoolTy  = newType(BOOL, 1, 1)
	Char    = newType(CHAR, 1, 1)
	Short   = newType(SHORT, 2, 2)
	Int     = newType(INT, 4, 4)
	Long    = newType(LONG, 8, 8)
	UChar   = &Type{Kind: CHAR, Size: 1, Align: 1, IsUnsigned: true}
	UShort  = &Type{Kind: SHORT, Size: 2, Align: 2, IsUnsigned: true}
	UInt    = &Type{Kind: INT, Size: 4, Align: 4, IsUnsigned: true}
	ULong   = &Type{Kind: LONG, Size: 8, Align: 8, IsUnsigned: true}
	Float   = newType(FLOAT, 4, 4)
	Double  = newType(DOUBLE, 8, 8)
	LDouble = newType(LDOUBLE, 8, 8) // long double narrowed to double size, see spec Non-goals
)

// PointerTo returns a pointer-to-base type.
func PointerTo(base *Type) *Type {
	ty := newType(PTR, 8, 8)
	ty.Base = base
	ty.IsUnsigned = true
	return ty
}

// FuncType returns a function type returning ret, with parameters to be
// filled in by the caller (parser installs Params/IsVariadic once parsed).
func FuncType(ret *Type) *Type {
	ty := newType(FUNC, 1, 1)
	ty.ReturnType = ret
	return ty
}

// ArrayOf returns an array of n elements of base, or an incomplete array if
// n < 0.
func ArrayOf(base *Type, n int) *Type {
	size := 0
	if n >= 0 {
		size = base.Size * n
	}
	ty := newType(ARRAY, size, base.Align)
	ty.Base = base
	ty.ArrayLen = n
	return ty
}

// VLAOf returns a variable-length array type of base whose length is
// computed at runtime by the lenExpr AST node (opaque here).
func VLAOf(base *Type, lenExpr any) *Type {
	ty := newType(VLA, 8, 8)
	ty.Base = base
	ty.VLALen = lenExpr
	return ty
}

// EnumType returns a fresh, empty enum shell (enum constants are all typed
// `int` in this subset).
func EnumType() *Type { return newType(ENUM, 4, 4) }

// StructType returns a fresh, empty struct/union shell for the parser to
// fill in member-by-member as it parses the body.
func StructType() *Type {
	ty := newType(STRUCT, 0, 1)
	return ty
}

// Copy returns a shallow copy of ty with Origin set to ty, so that typedef
// uses can be traced back to their underlying definition (used by
// IsCompatible and by diagnostics that want the "real" type name).
func Copy(ty *Type) *Type {
	cp := *ty
	cp.Origin = ty
	return &cp
}

// AsUnsigned returns ty with IsUnsigned set to unsigned, copying ty only when
// its flag differs; used when a
// `signed`/`unsigned` specifier needs to attach to an otherwise-shared
// singleton.
func AsUnsigned(ty *Type, unsigned bool) *Type {
	if ty.IsUnsigned == unsigned {
		return ty
	}
	cp := *ty
	cp.IsUnsigned = unsigned
	return &cp
}

// IsInteger reports whether ty is one of the integer kinds (bool/char/
// short/int/long/enum), matching spec §4.3.
func IsInteger(ty *Type) bool {
	switch ty.Kind {
	case BOOL, CHAR, SHORT, INT, LONG, ENUM:
		return true
	}
	return false
}

// IsFloat reports whether ty is float/double/long double.
func IsFloat(ty *Type) bool {
	switch ty.Kind {
	case FLOAT, DOUBLE, LDOUBLE:
		return true
	}
	return false
}

// IsNumeric reports whether ty is integer or float.
func IsNumeric(ty *Type) bool { return IsInteger(ty) || IsFloat(ty) }

// IsStructUnion reports whether ty is STRUCT or UNION.
func IsStructUnion(ty *Type) bool { return ty.Kind == STRUCT || ty.Kind == UNION }

// IsPointerLike reports whether ty decays to a pointer for arithmetic
// purposes (PTR or ARRAY/VLA).
func IsPointerLike(ty *Type) bool {
	return ty.Kind == PTR || ty.Kind == ARRAY || ty.Kind == VLA
}
