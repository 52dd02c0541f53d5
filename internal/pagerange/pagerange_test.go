package pagerange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want []PageRange
	}{
		{"", nil},
		{"   ", nil},
		{"3", []PageRange{{Start: 3, End: 3}}},
		{"1-3", []PageRange{{Start: 1, End: 3}}},
		{"1-3,5", []PageRange{{Start: 1, End: 3}, {Start: 5, End: 5}}},
		{" 1 - 3 , 5 , 7-9 ", []PageRange{{Start: 1, End: 3}, {Start: 5, End: 5}, {Start: 7, End: 9}}},
		{"4-4", []PageRange{{Start: 4, End: 4}}},
		{"2,,3", []PageRange{{Start: 2, End: 2}, {Start: 3, End: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	specs := []string{"abc", "1-x", "3-1", "0", "-2", "1--3"}
	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			assert.Error(t, err)
		})
	}
}

func TestExpand(t *testing.T) {
	pages := Expand([]PageRange{{Start: 1, End: 3}, {Start: 2, End: 4}, {Start: 7, End: 7}})
	assert.Equal(t, []int{1, 2, 3, 4, 7}, pages)

	assert.Empty(t, Expand(nil))
}

func TestPages(t *testing.T) {
	pages, err := Pages("5,1-2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 5}, pages)

	pages, err = Pages("")
	require.NoError(t, err)
	assert.Nil(t, pages)

	_, err = Pages("nope")
	assert.Error(t, err)
}
