package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHidesetContains(t *testing.T) {
	var h Hideset
	assert.False(t, h.Contains("FOO"))

	h = h.Add("FOO")
	assert.True(t, h.Contains("FOO"))
	assert.False(t, h.Contains("BAR"))

	// Add is non-mutating and idempotent.
	h2 := h.Add("FOO")
	assert.Equal(t, h, h2)
}

func TestHidesetUnion(t *testing.T) {
	a := Hideset{"FOO", "BAR"}
	b := Hideset{"BAR", "BAZ"}

	u := a.Union(b)
	assert.True(t, u.Contains("FOO"))
	assert.True(t, u.Contains("BAR"))
	assert.True(t, u.Contains("BAZ"))
	assert.Len(t, u, 3)
}

func TestHidesetIntersect(t *testing.T) {
	a := Hideset{"FOO", "BAR"}
	b := Hideset{"BAR", "BAZ"}

	i := a.Intersect(b)
	assert.Equal(t, Hideset{"BAR"}, i)

	assert.Empty(t, Hideset{"FOO"}.Intersect(Hideset{"BAZ"}))
}
