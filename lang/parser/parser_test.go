package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/pp"
	"github.com/rv64c/toycc/lang/scanner"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/types"
)

// parse runs the full tokenize/preprocess/parse pipeline, the same sequence
// internal/maincmd's ParseFiles drives, and fails the test on any diagnostic.
func parse(t *testing.T, src string) []*ast.Obj {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddFile("test.c", []byte(src))
	var errs diag.List

	tok := scanner.Tokenize(f, &errs)
	require.NoError(t, errs.Err())

	p := pp.NewPreprocessor(fs, &errs)
	tok = p.Run(tok)
	require.NoError(t, errs.Err())

	objs := Parse(tok, &errs)
	require.NoError(t, errs.Err())
	return objs
}

func findFunc(t *testing.T, objs []*ast.Obj, name string) *ast.Obj {
	t.Helper()
	for _, o := range objs {
		if o.IsFunction && o.Name == name {
			return o
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func TestParseSimpleFunctionReturn(t *testing.T) {
	objs := parse(t, "int main() { return 1 + 2; }")
	main := findFunc(t, objs, "main")

	require.NotNil(t, main.Body)
	require.Equal(t, ast.Block, main.Body.Kind)
	ret := main.Body.Body
	require.NotNil(t, ret)
	assert.Equal(t, ast.Return, ret.Kind)
	// stmt's return handling always runs the result through newCast to the
	// function's return type, so the expression is wrapped in a Cast node.
	require.Equal(t, ast.Cast, ret.Lhs.Kind)
	assert.Equal(t, ast.Add, ret.Lhs.Lhs.Kind)
}

func TestParseLocalVariableDeclaration(t *testing.T) {
	objs := parse(t, "int main() { int x = 3; return x; }")
	main := findFunc(t, objs, "main")

	require.Len(t, main.Locals, 1)
	assert.Equal(t, "x", main.Locals[0].Name)
	assert.Equal(t, types.INT, main.Locals[0].Ty.Kind)
}

func TestParseGlobalVariable(t *testing.T) {
	objs := parse(t, "int counter;")
	var g *ast.Obj
	for _, o := range objs {
		if !o.IsFunction {
			g = o
		}
	}
	require.NotNil(t, g)
	assert.Equal(t, "counter", g.Name)
	assert.False(t, g.IsLocal)
}

func TestParseIfStatement(t *testing.T) {
	objs := parse(t, "int main() { if (1) return 1; else return 0; }")
	main := findFunc(t, objs, "main")

	ifNode := main.Body.Body
	require.NotNil(t, ifNode)
	assert.Equal(t, ast.If, ifNode.Kind)
	assert.NotNil(t, ifNode.Then)
	assert.NotNil(t, ifNode.Els)
}

func TestParseFunctionCall(t *testing.T) {
	objs := parse(t, "int f(int x); int main() { return f(1); }")
	main := findFunc(t, objs, "main")

	ret := main.Body.Body
	require.Equal(t, ast.Return, ret.Kind)
	call := ret.Lhs.Lhs // unwrap the return-type Cast
	require.Equal(t, ast.FuncCall, call.Kind)
	assert.Equal(t, "f", call.FuncName)
	assert.Len(t, call.Args, 1)
}
