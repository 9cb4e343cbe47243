package pp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/scanner"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/token"
)

func runPP(t *testing.T, src string) []string {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddFile("test.c", []byte(src))
	var errs diag.List

	tok := scanner.Tokenize(f, &errs)
	require.NoError(t, errs.Err())

	p := NewPreprocessor(fs, &errs)
	out := p.Run(tok)
	require.NoError(t, errs.Err())

	var texts []string
	for ; out != nil && out.Kind != token.EOF; out = out.Next {
		texts = append(texts, out.Text())
	}
	return texts
}

func TestObjectLikeMacro(t *testing.T) {
	got := runPP(t, "#define FOO 1 + 2\nFOO;")
	assert.Equal(t, []string{"1", "+", "2", ";"}, got)
}

func TestFunctionLikeMacro(t *testing.T) {
	got := runPP(t, "#define ADD(a, b) ((a) + (b))\nADD(1, 2);")
	assert.Equal(t, []string{"(", "(", "1", ")", "+", "(", "2", ")", ")", ";"}, got)
}

func TestUndef(t *testing.T) {
	got := runPP(t, "#define FOO 1\n#undef FOO\nFOO;")
	assert.Equal(t, []string{"FOO", ";"}, got)
}

func TestIfdefTakesBranch(t *testing.T) {
	got := runPP(t, "#define FOO\n#ifdef FOO\n1\n#else\n2\n#endif\n")
	assert.Equal(t, []string{"1"}, got)
}

func TestIfndefSkipsBranch(t *testing.T) {
	got := runPP(t, "#ifndef FOO\n1\n#else\n2\n#endif\n")
	assert.Equal(t, []string{"1"}, got)
}

func TestBuiltinLineMacro(t *testing.T) {
	got := runPP(t, "__LINE__;\n__LINE__;")
	assert.Equal(t, []string{"1", ";", "2", ";"}, got)
}

func TestSelfReferentialMacroDoesNotRecurse(t *testing.T) {
	// Hideset painting must stop FOO from re-expanding inside its own body.
	got := runPP(t, "#define FOO FOO + 1\nFOO;")
	assert.Equal(t, []string{"FOO", "+", "1", ";"}, got)
}
