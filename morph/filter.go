package morph

// Separable square min/max filters. A 2D min (or max) over a (2r+1)^2 window
// factors into a horizontal pass followed by a vertical pass, so each filter
// is two 1D sweeps instead of one quadratic window scan. Windows are clipped
// at the raster border.

func maxFilter(src []int32, height, width, radius int) []int32 {
	return sweepFilter(sweepRows(src, height, width, radius, true), height, width, radius, true)
}

func minFilter(src []int32, height, width, radius int) []int32 {
	return sweepFilter(sweepRows(src, height, width, radius, false), height, width, radius, false)
}

// sweepRows filters each row with a clipped 1D window.
func sweepRows(src []int32, height, width, radius int, max bool) []int32 {
	dst := make([]int32, len(src))
	for r := 0; r < height; r++ {
		row := src[r*width : (r+1)*width]
		out := dst[r*width : (r+1)*width]
		for c := 0; c < width; c++ {
			lo := c - radius
			if lo < 0 {
				lo = 0
			}
			hi := c + radius
			if hi >= width {
				hi = width - 1
			}
			best := row[lo]
			for i := lo + 1; i <= hi; i++ {
				if max && row[i] > best || !max && row[i] < best {
					best = row[i]
				}
			}
			out[c] = best
		}
	}
	return dst
}

// sweepFilter filters each column with a clipped 1D window.
func sweepFilter(src []int32, height, width, radius int, max bool) []int32 {
	dst := make([]int32, len(src))
	for c := 0; c < width; c++ {
		for r := 0; r < height; r++ {
			lo := r - radius
			if lo < 0 {
				lo = 0
			}
			hi := r + radius
			if hi >= height {
				hi = height - 1
			}
			best := src[lo*width+c]
			for i := lo + 1; i <= hi; i++ {
				if v := src[i*width+c]; max && v > best || !max && v < best {
					best = v
				}
			}
			dst[r*width+c] = best
		}
	}
	return dst
}
