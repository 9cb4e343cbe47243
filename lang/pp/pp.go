package pp

import (
	"path"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/scanner"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/token"
)

// Preprocessor runs the macro/conditional-inclusion pass over a token
// stream. One Preprocessor is built per translation unit so that its macro
// table and #include search path are local to that unit (original_source
// instead keeps `macros`/`cond_incl` as process-global statics).
type Preprocessor struct {
	Fset         *source.FileSet
	Errs         *diag.List
	IncludePaths []string
	// ReadFile abstracts the filesystem so pp can be exercised without real
	// files in tests; the CLI wires this to os.ReadFile.
	ReadFile func(path string) ([]byte, bool)

	// macros is backed by the same open-addressing swiss.Map lang/scope
	// uses for identifier/tag scopes, rather than a builtin map, per
	// SPEC_FULL.md's domain stack (the "given hashmap utility" spec §1
	// treats as an external collaborator covers #define's name table too,
	// not just block scoping).
	macros  *swiss.Map[string, *Macro]
	conds   []*condIncl
	counter int
}

// NewPreprocessor returns a Preprocessor seeded with the dynamic builtin
// macros from SPEC_FULL.md §6 (__FILE__, __LINE__, __COUNTER__, __DATE__,
// __TIME__).
func NewPreprocessor(fset *source.FileSet, errs *diag.List) *Preprocessor {
	p := &Preprocessor{Fset: fset, Errs: errs, macros: swiss.NewMap[string, *Macro](8)}
	p.addBuiltinMacros()
	return p
}

// Run preprocesses tok end to end: macro expansion, directive handling,
// and finally original_source's preprocessor() entry point's trailing
// ConvertKeywords call, so the parser never sees a bare TK_IDENT that is
// really a keyword.
func (p *Preprocessor) Run(tok *token.Token) *token.Token {
	out := p.preprocess(tok)
	if len(p.conds) > 0 {
		p.errorAt(p.conds[len(p.conds)-1].tok, "unterminated conditional directive")
	}
	token.ConvertKeywords(out)
	return out
}

func (p *Preprocessor) errorAt(tok *token.Token, format string, args ...any) {
	if tok != nil && tok.File != nil {
		p.Errs.Add(tok.File, tok.Offset, format, args...)
		return
	}
	p.Errs.Add(nil, 0, format, args...)
}

func isHash(tok *token.Token) bool { return tok.AtBOL && tok.Is("#") }

// skipLine mirrors skip_line: extraneous tokens before the next
// beginning-of-line are tolerated with a diagnostic, not a hard error.
func (p *Preprocessor) skipLine(tok *token.Token) *token.Token {
	if tok.AtBOL {
		return tok
	}
	p.errorAt(tok, "extra token")
	for !tok.AtBOL {
		tok = tok.Next
	}
	return tok
}

func copyToken(tok *token.Token) *token.Token {
	cp := tok.Clone()
	return cp
}

// appendTok returns tok1 ++ tok2, splicing out tok1's EOF.
func appendTok(tok1, tok2 *token.Token) *token.Token {
	if tok1.Kind == token.EOF {
		return tok2
	}
	head := &token.Token{}
	cur := head
	for ; tok1.Kind != token.EOF; tok1 = tok1.Next {
		cur.Next = copyToken(tok1)
		cur = cur.Next
	}
	cur.Next = tok2
	return head.Next
}

func newEOF(tmpl *token.Token) *token.Token {
	t := copyToken(tmpl)
	t.Kind = token.EOF
	t.Len = 0
	return t
}

// copyLine copies tokens up to (not including) the next beginning-of-line
// token, terminating the copy with a fresh EOF (used to isolate a #if/
// #define argument list from the rest of the file).
func copyLine(tok *token.Token) (line, rest *token.Token) {
	head := &token.Token{}
	cur := head
	for !tok.AtBOL {
		cur.Next = copyToken(tok)
		cur = cur.Next
		tok = tok.Next
	}
	cur.Next = newEOF(tok)
	return head.Next, tok
}

// tokenizeString re-lexes a synthesized string (used by stringize, paste,
// and new-number-token synthesis) as its own source.File, per
// original_source's tokenize(new_file(...)).
func (p *Preprocessor) tokenizeString(tmpl *token.Token, text string) *token.Token {
	name := "<macro-expansion>"
	if tmpl.File != nil {
		name = tmpl.File.Name()
	}
	f := p.Fset.AddFile(name, []byte(text+"\n"))
	return scanner.Tokenize(f, p.Errs)
}

func (p *Preprocessor) newNumToken(val int, tmpl *token.Token) *token.Token {
	return p.tokenizeString(tmpl, strconv.Itoa(val))
}

func (p *Preprocessor) findMacro(tok *token.Token) *Macro {
	if !tok.IsIdentLike() {
		return nil
	}
	m, ok := p.macros.Get(tok.Text())
	if !ok || m.Deleted {
		return nil
	}
	return m
}

func (p *Preprocessor) addMacro(name string, objLike bool, body *token.Token) *Macro {
	m := &Macro{Name: name, IsObjLike: objLike, Body: body}
	p.macros.Put(name, m)
	return m
}

// pushCondIncl/skipCondIncl2/skipCondIncl implement the #if/#ifdef/#ifndef
// nesting-aware skip, mirroring preprocess.c exactly.
func (p *Preprocessor) pushCondIncl(tok *token.Token, included bool) *condIncl {
	ci := &condIncl{ctx: inThen, tok: tok, included: included}
	p.conds = append(p.conds, ci)
	return ci
}

func (p *Preprocessor) topCond() *condIncl {
	if len(p.conds) == 0 {
		return nil
	}
	return p.conds[len(p.conds)-1]
}

func (p *Preprocessor) popCond() { p.conds = p.conds[:len(p.conds)-1] }

func skipCondIncl2(tok *token.Token) *token.Token {
	for tok.Kind != token.EOF {
		if isHash(tok) && tok.Next.Is("if") {
			tok = skipCondIncl2(tok.Next.Next)
			continue
		}
		if isHash(tok) && tok.Next.Is("endif") {
			return tok.Next.Next
		}
		tok = tok.Next
	}
	return tok
}

func skipCondIncl(tok *token.Token) *token.Token {
	for tok.Kind != token.EOF {
		if isHash(tok) && (tok.Next.Is("if") || tok.Next.Is("ifdef") || tok.Next.Is("ifndef")) {
			tok = skipCondIncl2(tok.Next.Next)
			continue
		}
		if isHash(tok) && (tok.Next.Is("elif") || tok.Next.Is("else") || tok.Next.Is("endif")) {
			break
		}
		tok = tok.Next
	}
	return tok
}

// readMacroArgOne reads one balanced-paren argument up to the next "," or
// ")" at paren level 0, mirroring read_macro_arg_one.
func readMacroArgOne(tok *token.Token) (a *arg, rest *token.Token) {
	head := &token.Token{}
	cur := head
	level := 0

	for level > 0 || (!tok.Is(",") && !tok.Is(")")) {
		if tok.Kind == token.EOF {
			cur.Next = newEOF(tok)
			return &arg{tok: head.Next}, tok
		}
		if tok.Is("(") {
			level++
		} else if tok.Is(")") {
			level--
		}
		cur.Next = copyToken(tok)
		cur = cur.Next
		tok = tok.Next
	}
	cur.Next = newEOF(tok)
	return &arg{tok: head.Next}, tok
}

// readMacroArgs reads the actual argument list of a function-like macro
// invocation; tok must be positioned at the macro name token. rest is left
// pointing AT the closing ")" token itself (not past it), matching
// preprocess.c's read_macro_args, whose *rest assignment happens before
// the final skip(tok, ")") return value is used -- expand_macro relies on
// this to recover the ")" token for the hideset intersection.
func (p *Preprocessor) readMacroArgs(tok *token.Token, params []Param, variadic bool) (args []*arg, rest *token.Token) {
	start := tok
	tok = tok.Next.Next // skip name and "("

	for i, param := range params {
		if i > 0 {
			if !tok.Is(",") {
				p.errorAt(tok, "expected ','")
			} else {
				tok = tok.Next
			}
		}
		a, next := readMacroArgOne(tok)
		a.name = param.Name
		args = append(args, a)
		tok = next
	}

	if variadic {
		name := "__VA_ARGS__"
		if !tok.Is(")") {
			if len(params) > 0 {
				if !tok.Is(",") {
					p.errorAt(tok, "expected ','")
				} else {
					tok = tok.Next
				}
			}
			a, next := readMacroArgOne(tok)
			a.name = name
			args = append(args, a)
			tok = next
		} else {
			args = append(args, &arg{name: name, tok: newEOF(tok)})
		}
	}

	if !tok.Is(")") {
		p.errorAt(start, "too many arguments")
	}
	return args, tok
}

// joinTokens concatenates the spellings of tok..end (exclusive), honoring
// HasSpace, mirroring join_tokens.
func joinTokens(tok, end *token.Token) string {
	var sb strings.Builder
	for t := tok; t != end && t.Kind != token.EOF; t = t.Next {
		if t != tok && t.HasSpace {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text())
	}
	return sb.String()
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '"' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

func (p *Preprocessor) newStrToken(s string, tmpl *token.Token) *token.Token {
	return p.tokenizeString(tmpl, quoteString(s))
}

// stringize implements the # operator.
func (p *Preprocessor) stringize(hash, argTok *token.Token) *token.Token {
	s := joinTokens(argTok, nil)
	return p.newStrToken(s, hash)
}

// paste implements the ## operator: concatenate the spellings of lhs and
// rhs and re-tokenize, erroring if that doesn't yield exactly one token.
func (p *Preprocessor) paste(lhs, rhs *token.Token) *token.Token {
	buf := lhs.Text() + rhs.Text()
	tok := p.tokenizeString(lhs, buf)
	if tok.Next != nil && tok.Next.Kind != token.EOF {
		p.errorAt(lhs, "pasting forms %q, an invalid token", buf)
	}
	return tok
}

// subst replaces a function-like macro body's parameter references with
// the given actual arguments, implementing #, ##, and plain substitution
// exactly as preprocess.c's subst.
func (p *Preprocessor) subst(tok *token.Token, args []*arg) *token.Token {
	head := &token.Token{}
	cur := head

	for tok.Kind != token.EOF {
		if tok.Is("#") {
			a := findArg(args, tok.Next)
			if a == nil {
				p.errorAt(tok.Next, "'#' is not followed by a macro parameter")
				tok = tok.Next
				continue
			}
			cur.Next = p.stringize(tok, a.tok)
			cur = cur.Next
			tok = tok.Next.Next
			continue
		}

		if tok.Is("##") {
			if cur == head {
				p.errorAt(tok, "'##' cannot appear at start of macro expansion")
			}
			if tok.Next.Kind == token.EOF {
				p.errorAt(tok, "'##' cannot appear at end of macro expansion")
				break
			}

			a := findArg(args, tok.Next)
			if a != nil {
				if a.tok.Kind != token.EOF {
					*cur = *p.paste(cur, a.tok)
					for t := a.tok.Next; t.Kind != token.EOF; t = t.Next {
						cur.Next = copyToken(t)
						cur = cur.Next
					}
				}
				tok = tok.Next.Next
				continue
			}

			*cur = *p.paste(cur, tok.Next)
			tok = tok.Next.Next
			continue
		}

		a := findArg(args, tok)

		if a != nil && tok.Next.Is("##") {
			rhs := tok.Next.Next
			if a.tok.Kind == token.EOF {
				a2 := findArg(args, rhs)
				if a2 != nil {
					for t := a2.tok; t.Kind != token.EOF; t = t.Next {
						cur.Next = copyToken(t)
						cur = cur.Next
					}
				} else {
					cur.Next = copyToken(rhs)
					cur = cur.Next
				}
				tok = rhs.Next
				continue
			}
			for t := a.tok; t.Kind != token.EOF; t = t.Next {
				cur.Next = copyToken(t)
				cur = cur.Next
			}
			tok = tok.Next
			continue
		}

		if a != nil {
			// Macro arguments are fully macro-expanded before substitution.
			t := p.preprocess(a.tok)
			if t.Kind != token.EOF {
				t.AtBOL = tok.AtBOL
				t.HasSpace = tok.HasSpace
			}
			for ; t.Kind != token.EOF; t = t.Next {
				cur.Next = copyToken(t)
				cur = cur.Next
			}
			tok = tok.Next
			continue
		}

		cur.Next = copyToken(tok)
		cur = cur.Next
		tok = tok.Next
	}

	cur.Next = tok
	return head.Next
}

// addHideset returns a copy of tok..EOF with hs unioned into each token's
// Hideset.
func addHideset(tok *token.Token, hs token.Hideset) *token.Token {
	head := &token.Token{}
	cur := head
	for ; tok != nil; tok = tok.Next {
		t := copyToken(tok)
		t.Hideset = t.Hideset.Union(hs)
		cur.Next = t
		cur = cur.Next
	}
	return head.Next
}

// expandMacro expands tok in place if it names a live macro, returning the
// new rest-of-stream pointer and true; otherwise it returns tok unchanged
// and false, implementing expand_macro's hideset bookkeeping exactly.
func (p *Preprocessor) expandMacro(tok *token.Token) (rest *token.Token, expanded bool) {
	if tok.Hideset.Contains(tok.Text()) {
		return tok, false
	}

	m := p.findMacro(tok)
	if m == nil {
		return tok, false
	}

	if m.Dynamic != nil {
		expansion := m.Dynamic(tok)
		rest = appendTok(expansion, tok.Next)
		rest.AtBOL = tok.AtBOL
		rest.HasSpace = tok.HasSpace
		return rest, true
	}

	if m.IsObjLike {
		hs := tok.Hideset.Add(m.Name)
		body := addHideset(m.Body, hs)
		rest = appendTok(body, tok.Next)
		rest.AtBOL = tok.AtBOL
		rest.HasSpace = tok.HasSpace
		return rest, true
	}

	// Function-like macro not followed by "(" is just an identifier.
	if !tok.Next.Is("(") {
		return tok, false
	}

	macroTok := tok
	args, rparen := p.readMacroArgs(tok, m.Params, m.IsVariadic)

	hs := macroTok.Hideset.Intersect(rparen.Hideset)
	hs = hs.Add(m.Name)

	body := p.subst(m.Body, args)
	body = addHideset(body, hs)

	rest = appendTok(body, rparen.Next)
	rest.AtBOL = macroTok.AtBOL
	rest.HasSpace = macroTok.HasSpace
	return rest, true
}

// preprocess is the core directive/macro loop, mirroring preprocess.c's
// static preprocess().
func (p *Preprocessor) preprocess(tok *token.Token) *token.Token {
	head := &token.Token{}
	cur := head

	for tok.Kind != token.EOF {
		if rest, ok := p.expandMacro(tok); ok {
			tok = rest
			continue
		}

		if !isHash(tok) {
			cur.Next = tok
			cur = cur.Next
			tok = tok.Next
			continue
		}

		start := tok
		tok = tok.Next

		switch {
		case tok.Is("include"):
			tok = p.handleInclude(start, tok)
			continue

		case tok.Is("define"):
			tok = p.readMacroDefinition(tok.Next)
			continue

		case tok.Is("undef"):
			tok = tok.Next
			if !tok.IsIdentLike() {
				p.errorAt(tok, "macro name must be an identifier")
			}
			name := tok.Text()
			tok = p.skipLine(tok.Next)
			m := p.addMacro(name, true, nil)
			m.Deleted = true
			continue

		case tok.Is("if"):
			val, next := p.evalConstExpr(tok)
			p.pushCondIncl(start, val != 0)
			tok = next
			if val == 0 {
				tok = skipCondIncl(tok)
			}
			continue

		case tok.Is("ifdef"):
			defined := p.findMacro(tok.Next) != nil
			p.pushCondIncl(tok, defined)
			tok = p.skipLine(tok.Next.Next)
			if !defined {
				tok = skipCondIncl(tok)
			}
			continue

		case tok.Is("ifndef"):
			defined := p.findMacro(tok.Next) != nil
			p.pushCondIncl(tok, !defined)
			tok = p.skipLine(tok.Next.Next)
			if defined {
				tok = skipCondIncl(tok)
			}
			continue

		case tok.Is("elif"):
			ci := p.topCond()
			if ci == nil || ci.ctx == inElse {
				p.errorAt(start, "stray #elif")
			} else {
				ci.ctx = inElif
			}
			val, next := p.evalConstExpr(tok)
			tok = next
			if ci != nil && !ci.included && val != 0 {
				ci.included = true
			} else {
				tok = skipCondIncl(tok)
			}
			continue

		case tok.Is("else"):
			ci := p.topCond()
			if ci == nil || ci.ctx == inElse {
				p.errorAt(start, "stray #else")
			} else {
				ci.ctx = inElse
			}
			tok = p.skipLine(tok.Next)
			if ci != nil && ci.included {
				tok = skipCondIncl(tok)
			}
			continue

		case tok.Is("endif"):
			if p.topCond() == nil {
				p.errorAt(start, "stray #endif")
			} else {
				p.popCond()
			}
			tok = p.skipLine(tok.Next)
			continue

		case tok.Is("line"):
			tok = p.handleLineMarker(tok.Next)
			continue

		case tok.Kind == token.NUM:
			tok = p.handleLineMarker(tok)
			continue
		}

		if tok.AtBOL {
			continue // null directive
		}
		p.errorAt(tok, "invalid preprocessor directive")
		tok = p.skipLine(tok)
	}

	cur.Next = tok
	return head.Next
}

// handleLineMarker implements the SUPPLEMENTED FEATURES §6 GNU line-marker
// directive: `# linenum "filename"` (optionally with trailing flag
// numbers, which are accepted and ignored) re-points subsequent
// diagnostics at filename/linenum via source.File.SetDisplay.
func (p *Preprocessor) handleLineMarker(tok *token.Token) *token.Token {
	if tok.Kind != token.NUM {
		p.errorAt(tok, "expected line number")
		return p.skipLine(tok)
	}
	lineNo := int(tok.IntVal)
	tok = tok.Next

	name := ""
	if tok.Kind == token.STRING {
		name = string(tok.StrVal[:len(tok.StrVal)-1])
		tok = tok.Next
	}
	for !tok.AtBOL {
		tok = tok.Next // skip GCC flag digits
	}
	if name != "" && tok.File != nil {
		tok.File.SetDisplay(name, tok.Line, lineNo)
	}
	return tok
}

func (p *Preprocessor) handleInclude(start, tok *token.Token) *token.Token {
	filename, isDquote, after := p.readIncludeFilename(tok.Next)

	if !strings.HasPrefix(filename, "/") && isDquote {
		dir := "."
		if start.File != nil {
			dir = path.Dir(start.File.Name())
		}
		candidate := path.Join(dir, filename)
		if data, ok := p.readFile(candidate); ok {
			return p.includeFile(after, candidate, data, start.Next.Next)
		}
	}

	if found, data, ok := p.searchIncludePaths(filename); ok {
		return p.includeFile(after, found, data, start.Next.Next)
	}
	if data, ok := p.readFile(filename); ok {
		return p.includeFile(after, filename, data, start.Next.Next)
	}
	p.errorAt(start.Next.Next, "%s: cannot open file", filename)
	return after
}

func (p *Preprocessor) readFile(path string) ([]byte, bool) {
	if p.ReadFile == nil {
		return nil, false
	}
	return p.ReadFile(path)
}

func (p *Preprocessor) includeFile(rest *token.Token, path string, data []byte, filenameTok *token.Token) *token.Token {
	f := p.Fset.AddFile(path, data)
	header := scanner.Tokenize(f, p.Errs)
	return appendTok(header, rest)
}

func (p *Preprocessor) searchIncludePaths(filename string) (found string, data []byte, ok bool) {
	if strings.HasPrefix(filename, "/") {
		d, ok := p.readFile(filename)
		return filename, d, ok
	}
	for _, dir := range p.IncludePaths {
		candidate := path.Join(dir, filename)
		if d, ok := p.readFile(candidate); ok {
			return candidate, d, true
		}
	}
	return "", nil, false
}

// readIncludeFilename implements the three #include argument forms:
// "foo.h", <foo.h>, and a macro that expands to one of those.
func (p *Preprocessor) readIncludeFilename(tok *token.Token) (filename string, isDquote bool, rest *token.Token) {
	if tok.Kind == token.STRING {
		s := string(tok.StrVal)
		s = strings.TrimSuffix(s, "\x00")
		return s, true, p.skipLine(tok.Next)
	}

	if tok.Is("<") {
		start := tok
		for !tok.Is(">") {
			if tok.AtBOL || tok.Kind == token.EOF {
				p.errorAt(tok, "expected '>'")
				break
			}
			tok = tok.Next
		}
		return joinTokens(start.Next, tok), false, p.skipLine(tok.Next)
	}

	if tok.IsIdentLike() {
		line, after := copyLine(tok)
		expanded := p.preprocess(line)
		filename, isDquote, _ = p.readIncludeFilename(expanded)
		return filename, isDquote, after
	}

	p.errorAt(tok, "expected a filename")
	return "", false, tok
}

func (p *Preprocessor) readMacroParams(tok *token.Token) (params []Param, variadic bool, rest *token.Token) {
	for !tok.Is(")") {
		if len(params) > 0 || variadic {
			if !tok.Is(",") {
				p.errorAt(tok, "expected ','")
			} else {
				tok = tok.Next
			}
		}
		if tok.Is("...") {
			variadic = true
			tok = tok.Next
			continue
		}
		if !tok.IsIdentLike() {
			p.errorAt(tok, "expected an identifier")
		}
		params = append(params, Param{Name: tok.Text()})
		tok = tok.Next
	}
	return params, variadic, tok.Next
}

func (p *Preprocessor) readMacroDefinition(tok *token.Token) *token.Token {
	if !tok.IsIdentLike() {
		p.errorAt(tok, "macro name must be an identifier")
	}
	name := tok.Text()
	tok = tok.Next

	if !tok.HasSpace && tok.Is("(") {
		params, variadic, after := p.readMacroParams(tok.Next)
		body, rest := copyLine(after)
		m := p.addMacro(name, false, body)
		m.Params = params
		m.IsVariadic = variadic
		return rest
	}

	body, rest := copyLine(tok)
	p.addMacro(name, true, body)
	return rest
}

// addBuiltinMacros wires the dynamic macros SPEC_FULL.md §6 supplements
// beyond the distilled spec: __FILE__, __LINE__, __COUNTER__, __DATE__,
// __TIME__.
func (p *Preprocessor) addBuiltinMacros() {
	p.macros.Put("__FILE__", &Macro{Name: "__FILE__", IsObjLike: true, Dynamic: func(invoke *token.Token) *token.Token {
		name := "<unknown>"
		if invoke.File != nil {
			name = invoke.File.Name()
		}
		return p.newStrToken(name, invoke)
	}})
	p.macros.Put("__LINE__", &Macro{Name: "__LINE__", IsObjLike: true, Dynamic: func(invoke *token.Token) *token.Token {
		return p.newNumToken(invoke.Line, invoke)
	}})
	p.macros.Put("__COUNTER__", &Macro{Name: "__COUNTER__", IsObjLike: true, Dynamic: func(invoke *token.Token) *token.Token {
		n := p.counter
		p.counter++
		return p.newNumToken(n, invoke)
	}})
	p.macros.Put("__DATE__", &Macro{Name: "__DATE__", IsObjLike: true, Dynamic: func(invoke *token.Token) *token.Token {
		return p.newStrToken("??? ?? ????", invoke)
	}})
	p.macros.Put("__TIME__", &Macro{Name: "__TIME__", IsObjLike: true, Dynamic: func(invoke *token.Token) *token.Token {
		return p.newStrToken("??:??:??", invoke)
	}})
}
