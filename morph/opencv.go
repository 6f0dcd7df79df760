package morph

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// opencvOp applies one OpenCV morphology operation to a {0,1} plane using an
// elliptical structuring element of side 2*radius+1.
func opencvOp(src []int32, height, width, radius int, op gocv.MorphType) ([]int32, error) {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	defer mat.Close()
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			mat.SetUCharAt(r, c, uint8(src[r*width+c]))
		}
	}

	side := 2*radius + 1
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(side, side))
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	switch op {
	case gocv.MorphDilate:
		gocv.Dilate(mat, &dst, kernel)
	case gocv.MorphErode:
		gocv.Erode(mat, &dst, kernel)
	case gocv.MorphClose:
		gocv.MorphologyEx(mat, &dst, gocv.MorphClose, kernel)
	default:
		return nil, errors.Errorf("morph: unsupported OpenCV operation %d", op)
	}

	out := make([]int32, height*width)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			out[r*width+c] = int32(dst.GetUCharAt(r, c))
		}
	}
	return out, nil
}
