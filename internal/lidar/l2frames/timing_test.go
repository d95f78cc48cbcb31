package l2frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPandar40PTiming(t *testing.T) {
	tt := Pandar40PTiming()
	require.Len(t, tt.Firing, 40)
	require.Len(t, tt.BlockSingle, 10)
	require.Len(t, tt.BlockDual, 10)
	assert.Nil(t, tt.BlockTriple)

	assert.InDelta(t, 42.22, tt.Firing[0], 1e-9)
	assert.InDelta(t, 3.62, tt.Firing[39], 1e-9)

	assert.InDelta(t, 528.62, tt.BlockSingle[0], 1e-9)
	assert.InDelta(t, 28.58, tt.BlockSingle[9], 1e-9)

	// pairs share an offset
	assert.InDelta(t, 250.82, tt.BlockDual[0], 1e-9)
	assert.InDelta(t, 250.82, tt.BlockDual[1], 1e-9)
	assert.InDelta(t, 195.26, tt.BlockDual[2], 1e-9)
	assert.InDelta(t, 28.58, tt.BlockDual[8], 1e-9)
	assert.InDelta(t, 28.58, tt.BlockDual[9], 1e-9)
}

func TestPandar40PTiming_FiringOrderIsPermutation(t *testing.T) {
	seen := make(map[int]bool)
	for _, c := range pandar40PFiringOrder {
		assert.False(t, seen[c], "channel %d repeated", c)
		seen[c] = true
	}
	assert.Len(t, seen, 40)
	assert.Equal(t, 7, pandar40PFiringOrder[0])
	assert.Equal(t, 3, pandar40PFiringOrder[39])
}

func TestPandarXT32Timing(t *testing.T) {
	tt := PandarXT32Timing()
	require.Len(t, tt.Firing, 32)
	require.Len(t, tt.BlockSingle, 8)
	require.Len(t, tt.BlockDual, 8)
	require.Len(t, tt.BlockTriple, 8)

	assert.InDelta(t, 0.368, tt.Firing[0], 1e-9)
	assert.InDelta(t, 88.904, tt.Firing[31], 1e-9)

	assert.Equal(t, []float64{-244.368, -194.368, -144.368, -94.368, -44.368, 5.632, 5.632, 5.632}, roundAll(tt.BlockSingle))
	assert.Equal(t, []float64{-94.368, -94.368, -44.368, -44.368, 5.632, 5.632, 5.632, 5.632}, roundAll(tt.BlockDual))
	assert.Equal(t, []float64{-44.368, -44.368, -44.368, 5.632, 5.632, 5.632, 5.632, 5.632}, roundAll(tt.BlockTriple))
}

func TestTimingTables_Independent(t *testing.T) {
	a := Pandar40PTiming()
	a.Firing[0] = 999
	assert.InDelta(t, 42.22, Pandar40PTiming().Firing[0], 1e-9)
}

func roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(int64(x*1000+sign(x)*0.5)) / 1000
	}
	return out
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
