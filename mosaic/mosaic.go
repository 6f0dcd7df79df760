// Package mosaic - the overlap-aware stitching engine.
//
// The engine turns independently predicted, overlapping label tiles into one
// label-consistent whole-slide mask in four array-level stages: confidence
// reduction discards border-truncated instances and makes ids globally
// unique, the overlap density map counts per pixel how many trusted tiles
// claimed it, the coverage scorer folds each instance's density statistics
// into a scalar trust score, and the recombiner arbitrates conflicting tile
// claims pixel by pixel with a strict-greater score comparison.
//
// A sibling path blends continuous (non-label) tiles by Hann-window weighted
// averaging instead of label arbitration.
package mosaic

// Config holds the stitching parameters.
type Config struct {
	// TileSize is the side length of every tile.
	TileSize int
	// Stride is the step between tile origins.
	Stride int
	// AverageWeight weights the mean overlap density in the coverage score.
	AverageWeight float32
	// SumWeight weights the summed overlap density in the coverage score.
	SumWeight float32
	// MinPixels is the minimum instance size to receive a coverage score.
	// Smaller instances never win arbitration.
	MinPixels int
}

// DefaultConfig returns the stitching defaults. AverageWeight and SumWeight
// favor instances that are both densely agreed upon and spatially large,
// deliberately penalizing small high-density slivers.
func DefaultConfig() Config {
	return Config{
		TileSize:      512,
		Stride:        256,
		AverageWeight: 0.7,
		SumWeight:     0.3,
		MinPixels:     5,
	}
}

// Stats carries diagnostic counters from a recombination run. They do not
// affect correctness.
type Stats struct {
	// CellsBefore is the number of distinct instances across all
	// confidence-reduced tiles, before arbitration.
	CellsBefore int
	// PixelsOverwritten counts pixels where a tile overwrote an
	// already-claimed pixel (the contention metric).
	PixelsOverwritten int
	// CellsAfter is the number of distinct instances in the final mosaic.
	CellsAfter int
}
