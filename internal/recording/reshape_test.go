package recording

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReshapeOrders(t *testing.T) {
	flat := []float64{1, 2, 3, 4, 5, 6}

	rows, err := reshape([]int{2, 3}, false, flat)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, rows)

	rows, err = reshape([]int{2, 3}, true, flat)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 3, 5}, {2, 4, 6}}, rows)

	_, err = reshape([]int{6}, false, flat)
	assert.Error(t, err)
	_, err = reshape([]int{4, 2}, false, flat)
	assert.Error(t, err)
}
