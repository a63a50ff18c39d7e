package paginator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-4", 1},
		{"2", 2},
		{" 3 ", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseNumber(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNumPagesAndClamp(t *testing.T) {
	assert.Equal(t, 1, NumPages(0, 10))
	assert.Equal(t, 1, NumPages(10, 10))
	assert.Equal(t, 2, NumPages(13, 10))

	assert.Equal(t, 2, Clamp(99, 13, 10))
	assert.Equal(t, 1, Clamp(0, 13, 10))
	assert.Equal(t, 1, Clamp(5, 0, 10))
}

func TestPaginate(t *testing.T) {
	all := make([]int, 13)
	for i := range all {
		all[i] = i
	}
	fetch := func(_ context.Context, limit, offset int) ([]int, error) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], nil
	}

	first, err := Paginate(context.Background(), int64(len(all)), 10, "", fetch)
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, []int{1, 2}, first.PageRange())

	second, err := Paginate(context.Background(), int64(len(all)), 10, "2", fetch)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, 1, second.PreviousNumber())
	assert.False(t, second.HasNext())

	beyond, err := Paginate(context.Background(), int64(len(all)), 10, "40", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, beyond.Number)

	empty, err := Paginate(context.Background(), 0, 10, "3", func(context.Context, int, int) ([]int, error) {
		return nil, errors.New("must not be called")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Number)
	assert.False(t, empty.HasOtherPages())
	assert.Empty(t, empty.Items)
}
