package l2frames

// TimingTables holds firing-time corrections in microseconds: one entry per
// channel and, per return mode, one entry per block.
type TimingTables struct {
	Firing      []float64
	BlockSingle []float64
	BlockDual   []float64
	BlockTriple []float64 // PandarXT32 only
}

// Pandar40P timing: points are stamped at the end of the packet, so these
// offsets lie in the past and are subtracted.
var pandar40PFiringOffsets = [40]float64{
	42.22, 28.47, 16.04, 3.62, 45.49, 31.74, 47.46, 54.67, 20.62, 33.71,
	40.91, 8.19, 20.62, 27.16, 50.73, 8.19, 14.74, 36.98, 45.49, 52.7,
	23.89, 31.74, 38.95, 11.47, 18.65, 25.19, 48.76, 6.23, 12.77, 35.01,
	21.92, 9.5, 43.52, 29.77, 17.35, 4.92, 42.22, 28.47, 16.04, 3.62,
}

// pandar40PFiringOrder lists channel ids in the order the lasers fire.
var pandar40PFiringOrder = [40]int{
	7, 19, 14, 26, 6, 18, 4, 32, 36, 0, 10, 22, 17, 29, 9, 21, 5, 33, 37, 1,
	13, 25, 20, 30, 12, 8, 24, 34, 38, 2, 16, 28, 23, 31, 15, 11, 27, 35, 39, 3,
}

const (
	pandar40PBlockPeriod = 55.56
	pandar40PBlockBase   = 28.58
)

// Pandar40PTiming builds the Pandar40P tables.
func Pandar40PTiming() TimingTables {
	const blocks = 10
	t := TimingTables{
		Firing:      append([]float64(nil), pandar40PFiringOffsets[:]...),
		BlockSingle: make([]float64, blocks),
		BlockDual:   make([]float64, blocks),
	}
	for b := 0; b < blocks; b++ {
		t.BlockSingle[b] = pandar40PBlockPeriod*float64(blocks-b-1) + pandar40PBlockBase
		t.BlockDual[b] = pandar40PBlockPeriod*float64((blocks-b-1)/2) + pandar40PBlockBase
	}
	return t
}

// PandarXT32 timing: points are stamped at a reference in the past and the
// offsets project forward, so they are added.
const (
	pandarXT32FiringPeriod = 2.856
	pandarXT32FiringBase   = 0.368
	pandarXT32BlockPeriod  = 50.0
	pandarXT32BlockBase    = 5.632
)

// PandarXT32Timing builds the PandarXT32 tables.
func PandarXT32Timing() TimingTables {
	const channels = 32
	t := TimingTables{Firing: make([]float64, channels)}
	for c := 0; c < channels; c++ {
		t.Firing[c] = pandarXT32FiringPeriod*float64(c) + pandarXT32FiringBase
	}
	t.BlockSingle = xt32BlockOffsets(5, 4, 3, 2, 1, 0, 0, 0)
	t.BlockDual = xt32BlockOffsets(2, 2, 1, 1, 0, 0, 0, 0)
	t.BlockTriple = xt32BlockOffsets(1, 1, 1, 0, 0, 0, 0, 0)
	return t
}

func xt32BlockOffsets(periods ...float64) []float64 {
	out := make([]float64, len(periods))
	for i, k := range periods {
		out[i] = pandarXT32BlockBase - pandarXT32BlockPeriod*k
	}
	return out
}
