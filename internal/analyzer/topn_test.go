package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopN(t *testing.T) {
	table := []Entry[string]{{"A", 2}, {"B", 1}, {"C", 3}}

	tests := []struct {
		name string
		k    int
		want []Entry[string]
	}{
		{"top two", 2, []Entry[string]{{"C", 3}, {"A", 2}}},
		{"k larger than table", 5, []Entry[string]{{"C", 3}, {"A", 2}, {"B", 1}}},
		{"k zero", 0, []Entry[string]{}},
		{"k negative", -1, []Entry[string]{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopN(table, tt.k))
		})
	}
}

func TestTopN_EmptyTable(t *testing.T) {
	got := TopN[string](nil, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTopN_TiesKeepInsertionOrder(t *testing.T) {
	table := []Entry[string]{{"10.0.0.9", 1}, {"10.0.0.1", 2}, {"10.0.0.5", 1}, {"10.0.0.2", 2}}

	got := TopN(table, 3)
	assert.Equal(t, []Entry[string]{{"10.0.0.1", 2}, {"10.0.0.2", 2}, {"10.0.0.9", 1}}, got)
}

func TestTopN_DoesNotMutateInput(t *testing.T) {
	table := []Entry[int]{{1, 1}, {2, 5}}
	TopN(table, 2)
	assert.Equal(t, []Entry[int]{{1, 1}, {2, 5}}, table)
}
