package raster

import "gonum.org/v1/gonum/stat"

// Normalize standardizes each channel in place to zero mean and unit
// variance. Channels are normalized independently so that a dim membrane
// stain does not inherit the nuclear channel's statistics. A constant
// channel is left centered at zero (the variance guard substitutes 1 for a
// zero standard deviation instead of propagating NaN).
func (c *Channels) Normalize() {
	height, width, channels := c.Dims()
	pix := c.Pix()
	plane := make([]float64, height*width)
	for ch := 0; ch < channels; ch++ {
		for i := range plane {
			plane[i] = float64(pix[i*channels+ch])
		}
		mean := stat.Mean(plane, nil)
		std := stat.StdDev(plane, nil)
		if std == 0 {
			std = 1
		}
		for i := range plane {
			pix[i*channels+ch] = float32((plane[i] - mean) / std)
		}
	}
}
