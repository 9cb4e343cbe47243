package parser

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/ebnf"
)

// TestGrammar verifies grammar.ebnf is self-contained and that its start
// production exists and is reachable, the same shape check the teacher's
// lang/grammar package runs over its own EBNF files.
func TestGrammar(t *testing.T) {
	f, err := os.Open("grammar.ebnf")
	require.NoError(t, err)
	defer f.Close()

	g, err := ebnf.Parse("grammar.ebnf", f)
	require.NoError(t, err)
	require.NoError(t, ebnf.Verify(g, "TranslationUnit"))
}
