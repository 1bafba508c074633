package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-03-01", true},
		{" 2025-03-01 ", true},
		{"2024-02-29", true},
		{"2025-02-29", false},
		{"2025-13-40", false},
		{"01-03-2025", false},
		{"2025/03/01", false},
		{"2025-3-1", false},
		{"", false},
	}
	for _, c := range cases {
		got, ok := Date(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.False(t, got.IsZero())
		}
	}
}

func TestText(t *testing.T) {
	s, ok := Text("  Fragile box ")
	assert.True(t, ok)
	assert.Equal(t, "Fragile box", s)

	_, ok = Text("   ")
	assert.False(t, ok)
}

func TestChoice(t *testing.T) {
	assert.True(t, Choice("1", "1", "2"))
	assert.False(t, Choice("1 ", "1", "2"))
	assert.False(t, Choice("01", "1", "2"))
	assert.False(t, Choice("3", "1", "2"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Paris Nord", TitleCase("paris  NORD"))
	assert.Equal(t, "Éloïse", TitleCase("éloïse"))
	assert.Equal(t, "", TitleCase("  "))
}
