package regions

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
)

// Connectivity selects which neighbors join pixels into one component.
type Connectivity int

const (
	// Conn4 joins pixels sharing an edge.
	Conn4 Connectivity = 4
	// Conn8 also joins pixels sharing only a corner.
	Conn8 Connectivity = 8
)

// Components labels the connected components of the raster's non-background
// pixels. The input's label values are ignored beyond zero/non-zero; the
// output assigns each component a fresh id starting at 1, in scan order of
// the component's first pixel.
//
// Returns the component raster and the number of components found.
func Components(src *raster.Labels, conn Connectivity) (*raster.Labels, int, error) {
	if conn != Conn4 && conn != Conn8 {
		return nil, 0, errors.Errorf("regions: connectivity %d, want 4 or 8", conn)
	}
	height, width := src.Dims()
	pix := src.Pix()
	out := raster.NewLabels(height, width)
	dst := out.Pix()

	var next int32
	queue := make([]int, 0, 256)
	for start, v := range pix {
		if v == 0 || dst[start] != 0 {
			continue
		}
		next++
		dst[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			r, c := i/width, i%width
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					if conn == Conn4 && dr != 0 && dc != 0 {
						continue
					}
					nr, nc := r+dr, c+dc
					if nr < 0 || nr >= height || nc < 0 || nc >= width {
						continue
					}
					j := nr*width + nc
					if pix[j] != 0 && dst[j] == 0 {
						dst[j] = next
						queue = append(queue, j)
					}
				}
			}
		}
	}
	return out, int(next), nil
}
