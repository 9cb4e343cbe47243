// Package token defines the lexical token representation shared by the
// scanner, preprocessor and parser.
package token

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/rv64c/toycc/lang/source"
)

// Kind identifies the lexical category of a Token.
type Kind int8

//nolint:revive
const (
	ILLEGAL Kind = iota
	EOF

	IDENT   // identifier, or a keyword before preprocessing classifies it
	KEYWORD // identifier reclassified by ConvertKeywords
	NUM     // integer or floating-point literal
	STRING  // "..."
	PUNCT   // any punctuator, e.g. + -> <<=
	PPNUM   // a preprocessing-number, before the parser re-lexes it (unused post-tokenize, kept for pp stringize fidelity)
)

func (k Kind) String() string {
	switch k {
	case ILLEGAL:
		return "illegal token"
	case EOF:
		return "end of file"
	case IDENT:
		return "identifier"
	case KEYWORD:
		return "keyword"
	case NUM:
		return "number"
	case STRING:
		return "string literal"
	case PUNCT:
		return "punctuator"
	default:
		return "ppnum"
	}
}

// NumKind distinguishes how a NUM token's value was parsed and which field
// of Token is authoritative.
type NumKind int8

const (
	NumInt NumKind = iota
	NumFloat
)

// Hideset is an ordered set of macro names that must not be re-expanded
// against a token. Membership order does not matter semantically, but it is
// kept stable (insertion order, deduplicated) so that two hidesets built the
// same way compare equal token-for-token in tests.
type Hideset []string

// Contains reports whether name is present in the hideset.
func (h Hideset) Contains(name string) bool {
	return slices.Contains(h, name)
}

// Add returns a new hideset containing h's names plus name, without
// mutating h.
func (h Hideset) Add(name string) Hideset {
	if h.Contains(name) {
		return h
	}
	out := make(Hideset, len(h), len(h)+1)
	copy(out, h)
	return append(out, name)
}

// Union returns the set union of h and o.
func (h Hideset) Union(o Hideset) Hideset {
	out := make(Hideset, len(h), len(h)+len(o))
	copy(out, h)
	for _, n := range o {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// Intersect returns the set intersection of h and o.
func (h Hideset) Intersect(o Hideset) Hideset {
	var out Hideset
	for _, n := range h {
		if o.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Token is a single lexical token. Tokens form a singly linked stream via
// Next, both as produced by the scanner and as rewritten by the
// preprocessor (splicing reassigns Next, it never mutates a token's other
// fields in place except where the algorithm explicitly calls for it, e.g.
// hideset propagation).
type Token struct {
	Kind Kind
	Next *Token

	File   *source.File
	Offset int // byte offset of the first character of this token
	Len    int // length in bytes
	Line   int // 1-based physical line number
	AtBOL  bool
	HasSpace bool

	Hideset Hideset
	Origin  *Token // the macro-invocation token this token was produced from, if any

	// NUM payload
	NumKind  NumKind
	IntVal   uint64
	FloatVal float64
	// NumType is the resolved literal type (a *types.Type); kept as `any`
	// here to avoid an import cycle between token and types, which itself
	// references *token.Token for declarator/member name tracking.
	NumType any

	// STRING payload: decoded bytes (NUL-terminated, as C string literals are)
	StrVal []byte
	IsWide bool // L"..." / wchar_t-ish; unused by the int-ABI subset but tracked

	// KEYWORD/IDENT/PUNCT spelling cache; for NUM/STRING this is the raw text.
	text string
}

// Text returns the raw spelling of the token (identifier/keyword/punctuator
// text, or the literal source text for NUM/STRING).
func (t *Token) Text() string {
	if t.text != "" {
		return t.text
	}
	if t.File == nil {
		return ""
	}
	c := t.File.Contents()
	if t.Offset+t.Len > len(c) {
		return ""
	}
	return string(c[t.Offset : t.Offset+t.Len])
}

// SetText overrides the cached spelling, used when synthesizing tokens that
// have no backing source range (macro paste results, stringize results,
// dynamic macro expansions).
func (t *Token) SetText(s string) { t.text = s }

// Is reports whether the token is a PUNCT/KEYWORD/IDENT with the given
// spelling.
func (t *Token) Is(s string) bool {
	return (t.Kind == PUNCT || t.Kind == KEYWORD || t.Kind == IDENT) && t.Text() == s
}

// IsIdentLike reports whether the token can appear as a macro parameter
// name, #define target, or identifier in general (IDENT or KEYWORD: before
// ConvertKeywords runs, keywords are still IDENT, but re-lexed included text
// can reuse already-converted tokens).
func (t *Token) IsIdentLike() bool {
	return t.Kind == IDENT || t.Kind == KEYWORD
}

// Clone returns a shallow copy of t with Next cleared, used whenever the
// preprocessor needs to attach a fresh hideset or origin to an otherwise
// identical token without mutating a shared body token.
func (t *Token) Clone() *Token {
	cp := *t
	cp.Next = nil
	return &cp
}

func (t *Token) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.Text())
}
