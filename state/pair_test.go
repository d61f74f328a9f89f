package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortPairsInt(t *testing.T) {
	pairs := []Pair[int, int]{
		{V1: 3, V2: 10},
		{V1: 1, V2: 20},
		{V1: 1, V2: 5},
		{V1: 2, V2: 15},
	}
	SortPairs(pairs)
	assert.Equal(t, []Pair[int, int]{
		{V1: 1, V2: 5},
		{V1: 1, V2: 20},
		{V1: 2, V2: 15},
		{V1: 3, V2: 10},
	}, pairs)
}

func TestSortPairsNodeCounts(t *testing.T) {
	pairs := []Pair[string, int]{
		{V1: "r2", V2: 4},
		{V1: "r10", V2: 1},
		{V1: "r1", V2: 7},
	}
	SortPairs(pairs)
	assert.Equal(t, []Pair[string, int]{
		{V1: "r1", V2: 7},
		{V1: "r10", V2: 1},
		{V1: "r2", V2: 4},
	}, pairs)
}
