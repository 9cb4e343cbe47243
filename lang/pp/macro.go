// Package pp implements the hideset-based macro preprocessor of spec §4.2,
// grounded line-for-line on original_source/preprocess.c: object-like and
// function-like macros, #include/#define/#undef, the #if/#ifdef/#ifndef/
// #elif/#else/#endif conditional stack, stringize (#) and paste (##), and
// the hideset algorithm that guarantees termination on recursive macros.
package pp

import "github.com/rv64c/toycc/lang/token"

// Param is one formal parameter name of a function-like macro.
type Param struct {
	Name string
}

// Macro is one #define'd name: object-like macros have Params == nil;
// function-like macros (even with zero parameters, e.g. `#define F()`) are
// distinguished by IsObjLike.
type Macro struct {
	Name      string
	IsObjLike bool
	Params    []Param
	IsVariadic bool
	Body      *token.Token // EOF-terminated replacement list
	Deleted   bool          // #undef marks rather than removes, matching original_source
	// Dynamic, if set, computes the expansion on the fly (e.g. __LINE__,
	// __FILE__, __COUNTER__) instead of using Body — SUPPLEMENTED FEATURES
	// §6 of SPEC_FULL.md.
	Dynamic func(invoke *token.Token) *token.Token
}

// arg is one actual argument of a function-like macro invocation.
type arg struct {
	name string
	tok  *token.Token // EOF-terminated token list
}

func findArg(args []*arg, tok *token.Token) *arg {
	if tok == nil {
		return nil
	}
	for _, a := range args {
		if a.name == tok.Text() {
			return a
		}
	}
	return nil
}

// condIncl is one entry of the #if/#ifdef/#ifndef conditional stack.
type condIncl struct {
	ctx      condCtx
	tok      *token.Token
	included bool
}

type condCtx int

const (
	inThen condCtx = iota
	inElif
	inElse
)
