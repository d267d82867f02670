package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: -1}.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, 0, f.Offset())
}

func TestFilter_Offset(t *testing.T) {
	f := Filter{Page: 3, PageSize: 10}

	assert.Equal(t, 20, f.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]string{"a", "b"}, 21, 1, 10)

	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(21), p.Total)
	assert.Len(t, p.Items, 2)
}
