package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_FirstAppearanceOrder(t *testing.T) {
	c := NewCounter[string]()
	for _, k := range []string{"b", "a", "b", "c", "a", "b"} {
		c.Add(k)
	}

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []Entry[string]{{"b", 3}, {"a", 2}, {"c", 1}}, c.Entries())
	assert.Equal(t, 2, c.Count("a"))
	assert.Equal(t, 0, c.Count("missing"))
}

func TestCounter_EntriesIsCopy(t *testing.T) {
	c := NewCounter[int]()
	c.Add(404)

	entries := c.Entries()
	entries[0].Count = 99

	assert.Equal(t, 1, c.Count(404))
}

func TestCounter_MergeKeepsInputOrder(t *testing.T) {
	whole := NewCounter[string]()
	first := NewCounter[string]()
	second := NewCounter[string]()

	input := []string{"x", "y", "x", "z", "w", "y"}
	for i, k := range input {
		whole.Add(k)
		if i < 3 {
			first.Add(k)
		} else {
			second.Add(k)
		}
	}

	first.Merge(second)
	assert.Equal(t, whole.Entries(), first.Entries())
}
