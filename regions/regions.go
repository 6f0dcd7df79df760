// Package regions - per-instance geometric properties of a label raster.
//
// Compute walks a label raster once and derives, for every instance id, the
// measurements downstream cleanup steps key on: centroid, area, bounding
// box, principal axis lengths, eccentricity, orientation, extent and
// solidity. Axis measurements come from the eigen decomposition of the
// instance's second central moment matrix; solidity compares the instance
// area against the area of its convex hull.
package regions

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/iddryg/seg-flow/raster"
)

// Point is a sub-pixel position in (row, col) order.
type Point struct {
	Row, Col float64
}

// BBox is a half-open bounding box: rows [MinRow, MaxRow), cols
// [MinCol, MaxCol).
type BBox struct {
	MinRow, MinCol, MaxRow, MaxCol int
}

// Height returns the box's row extent.
func (b BBox) Height() int { return b.MaxRow - b.MinRow }

// Width returns the box's column extent.
func (b BBox) Width() int { return b.MaxCol - b.MinCol }

// Props holds the measurements of one instance.
type Props struct {
	Label    int32
	Area     int
	Centroid Point
	BBox     BBox
	// MajorAxisLength and MinorAxisLength are the axes of the ellipse with
	// the same second moments as the instance.
	MajorAxisLength float64
	MinorAxisLength float64
	// Eccentricity is 0 for a circle, approaching 1 for a line.
	Eccentricity float64
	// Orientation is the angle in radians between the row axis and the
	// major axis, in (-Pi/2, Pi/2].
	Orientation float64
	// Extent is area over bounding-box area.
	Extent float64
	// Solidity is area over convex hull area.
	Solidity float64
}

// Table holds the computed properties of every instance in a raster.
type Table struct {
	props map[int32]Props
	ids   []int32
}

// Has reports whether the instance id was measured. Instances dropped by
// upstream filtering are queried through Has before any cleanup acts on
// them; a missing id is an answer, not an error.
func (t Table) Has(id int32) bool {
	_, ok := t.props[id]
	return ok
}

// Get returns the measurements of one instance.
func (t Table) Get(id int32) (Props, bool) {
	p, ok := t.props[id]
	return p, ok
}

// IDs returns the measured instance ids in ascending order.
func (t Table) IDs() []int32 {
	out := make([]int32, len(t.ids))
	copy(out, t.ids)
	return out
}

// Len returns the number of measured instances.
func (t Table) Len() int { return len(t.ids) }

// Compute measures every non-background instance in the raster.
//
// Returns:
//   - a Table with one Props entry per instance id present in labels.
//   - an error only when an instance's moment matrix cannot be factorized,
//     which indicates a corrupt raster rather than an unusual instance.
func Compute(labels *raster.Labels) (Table, error) {
	height, width := labels.Dims()
	pix := labels.Pix()

	type accum struct {
		area           int
		sumR, sumC     float64
		bbox           BBox
		pts            [][2]int
	}
	acc := make(map[int32]*accum)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			id := pix[r*width+c]
			if id == 0 {
				continue
			}
			a, ok := acc[id]
			if !ok {
				a = &accum{bbox: BBox{MinRow: r, MinCol: c, MaxRow: r + 1, MaxCol: c + 1}}
				acc[id] = a
			}
			a.area++
			a.sumR += float64(r)
			a.sumC += float64(c)
			if r < a.bbox.MinRow {
				a.bbox.MinRow = r
			}
			if r+1 > a.bbox.MaxRow {
				a.bbox.MaxRow = r + 1
			}
			if c < a.bbox.MinCol {
				a.bbox.MinCol = c
			}
			if c+1 > a.bbox.MaxCol {
				a.bbox.MaxCol = c + 1
			}
			a.pts = append(a.pts, [2]int{r, c})
		}
	}

	props := make(map[int32]Props, len(acc))
	ids := make([]int32, 0, len(acc))
	for id, a := range acc {
		n := float64(a.area)
		centroid := Point{Row: a.sumR / n, Col: a.sumC / n}

		// Second central moments, normalized per pixel. The 1/12 term is the
		// moment of a unit pixel about its own center, which keeps the
		// ellipse of a single-pixel instance non-degenerate.
		var mrr, mcc, mrc float64
		for _, pt := range a.pts {
			dr := float64(pt[0]) - centroid.Row
			dc := float64(pt[1]) - centroid.Col
			mrr += dr * dr
			mcc += dc * dc
			mrc += dr * dc
		}
		mrr = mrr/n + 1.0/12.0
		mcc = mcc/n + 1.0/12.0
		mrc /= n

		sym := mat.NewSymDense(2, []float64{mrr, mrc, mrc, mcc})
		var eig mat.EigenSym
		if !eig.Factorize(sym, true) {
			return Table{}, errors.Errorf("regions: eigen decomposition failed for instance %d", id)
		}
		vals := eig.Values(nil)
		var vecs mat.Dense
		eig.VectorsTo(&vecs)
		// gonum returns eigenvalues in ascending order.
		minEig, maxEig := vals[0], vals[1]
		if minEig < 0 {
			minEig = 0
		}

		major := 4 * math.Sqrt(maxEig)
		minor := 4 * math.Sqrt(minEig)
		ecc := 0.0
		if maxEig > 0 {
			ecc = math.Sqrt(1 - minEig/maxEig)
		}

		vr, vc := vecs.At(0, 1), vecs.At(1, 1)
		orientation := math.Atan2(vc, vr)
		if orientation <= -math.Pi/2 {
			orientation += math.Pi
		} else if orientation > math.Pi/2 {
			orientation -= math.Pi
		}

		extent := n / float64(a.bbox.Height()*a.bbox.Width())
		hullArea := hullArea(a.pts)
		solidity := 1.0
		if hullArea > 0 {
			solidity = n / hullArea
			if solidity > 1 {
				solidity = 1
			}
		}

		props[id] = Props{
			Label:           id,
			Area:            a.area,
			Centroid:        centroid,
			BBox:            a.bbox,
			MajorAxisLength: major,
			MinorAxisLength: minor,
			Eccentricity:    ecc,
			Orientation:     orientation,
			Extent:          extent,
			Solidity:        solidity,
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return Table{props: props, ids: ids}, nil
}
