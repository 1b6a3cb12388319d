package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat2(t *testing.T) {
	assert := assert.New(t)

	a := maps.All(map[string]int{"a": 1})
	b := slices.All([]string{"x", "y"})

	var keys []string
	for key, val := range Concat2(a, nil, maps.All(map[string]int{"b": 2})) {
		keys = append(keys, key)
		assert.Equal(map[string]int{"a": 1, "b": 2}[key], val)
	}
	assert.Equal([]string{"a", "b"}, keys)

	var got []string
	for _, val := range Concat2(b, b) {
		got = append(got, val)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal([]string{"x", "y", "x"}, got)
}
