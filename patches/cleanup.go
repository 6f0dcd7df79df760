package patches

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
	"github.com/iddryg/seg-flow/regions"
)

// IsolateCenterLabels returns a set where each patch keeps only its own
// anchor instance; every other label is zeroed.
func (s *Set) IsolateCenterLabels() *Set {
	out := s.clone()
	for _, p := range out.patches {
		pix := p.Data.Pix()
		for i, v := range pix {
			if v != p.Label {
				pix[i] = 0
			}
		}
	}
	return out
}

// RemoveDisjointedPixels returns a set where, per patch and per label, only
// the largest 8-connected component survives; stray fragments of a label are
// zeroed. Also returns the total number of pixels removed.
func (s *Set) RemoveDisjointedPixels() (*Set, int, error) {
	out := s.clone()
	removed := 0
	for _, p := range out.patches {
		height, width := p.Data.Dims()
		pix := p.Data.Pix()
		for _, id := range p.Data.Unique() {
			plane := make([]int32, len(pix))
			for i, v := range pix {
				if v == id {
					plane[i] = 1
				}
			}
			mask, err := raster.LabelsFromSlice(height, width, plane)
			if err != nil {
				return nil, 0, err
			}
			components, n, err := regions.Components(mask, regions.Conn8)
			if err != nil {
				return nil, 0, err
			}
			if n <= 1 {
				continue
			}
			// Find the largest component, then zero the rest.
			counts := make([]int, n+1)
			for _, c := range components.Pix() {
				counts[c]++
			}
			largest := int32(1)
			for c := int32(2); c <= int32(n); c++ {
				if counts[c] > counts[largest] {
					largest = c
				}
			}
			for i, c := range components.Pix() {
				if c != 0 && c != largest {
					pix[i] = 0
					removed++
				}
			}
		}
	}
	return out, removed, nil
}

// SmallLabels returns, in ascending order, every label that claims fewer
// than minArea pixels in at least one patch where it appears.
func (s *Set) SmallLabels(minArea int) []int32 {
	small := make(map[int32]struct{})
	for _, p := range s.patches {
		counts := make(map[int32]int)
		for _, v := range p.Data.Pix() {
			if v != 0 {
				counts[v]++
			}
		}
		for id, n := range counts {
			if n < minArea {
				small[id] = struct{}{}
			}
		}
	}
	return sortedIDs(small)
}

// MissingLabels returns the anchor labels of patches that no longer contain
// any pixel of their own instance, in patch order.
func (s *Set) MissingLabels() []int32 {
	var missing []int32
	for _, p := range s.patches {
		if !p.Data.Contains(p.Label) {
			missing = append(missing, p.Label)
		}
	}
	return missing
}

// CircumscribedLabels returns, in ascending order, every label that overlaps
// the hole-filled mask of some patch's anchor instance: cells living inside
// another cell's interior. Run this before IsolateCenterLabels, which
// removes the neighbors this check inspects.
func (s *Set) CircumscribedLabels() []int32 {
	circumscribed := make(map[int32]struct{})
	for _, p := range s.patches {
		height, width := p.Data.Dims()
		pix := p.Data.Pix()

		region := make([]bool, len(pix))
		for i, v := range pix {
			region[i] = v == p.Label
		}
		filled := fillHoles(region, height, width)

		for i, v := range pix {
			if v != 0 && v != p.Label && filled[i] {
				circumscribed[v] = struct{}{}
			}
		}
	}
	return sortedIDs(circumscribed)
}

// DropLabels removes the given instances from the set: patches anchored on a
// dropped label are omitted entirely, and dropped labels appearing inside
// surviving patches are zeroed. Dropping every patch is an error.
func (s *Set) DropLabels(drop []int32) (*Set, error) {
	dropSet := make(map[int32]struct{}, len(drop))
	for _, id := range drop {
		dropSet[id] = struct{}{}
	}

	out := &Set{
		imageHeight: s.imageHeight,
		imageWidth:  s.imageWidth,
		boxHeight:   s.boxHeight,
		boxWidth:    s.boxWidth,
	}
	for _, p := range s.patches {
		if _, gone := dropSet[p.Label]; gone {
			continue
		}
		p.Data = p.Data.Clone()
		pix := p.Data.Pix()
		for i, v := range pix {
			if _, gone := dropSet[v]; gone {
				pix[i] = 0
			}
		}
		out.patches = append(out.patches, p)
	}
	if len(out.patches) == 0 {
		return nil, errors.New("patches: dropping the given labels removes every patch")
	}
	return out, nil
}

// fillHoles fills background enclosed by the mask: background reachable from
// the patch border stays background, everything else becomes foreground.
func fillHoles(mask []bool, height, width int) []bool {
	outside := make([]bool, len(mask))
	queue := make([]int, 0, 2*(height+width))

	visit := func(i int) {
		if !mask[i] && !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for c := 0; c < width; c++ {
		visit(c)
		visit((height-1)*width + c)
	}
	for r := 0; r < height; r++ {
		visit(r * width)
		visit(r*width + width - 1)
	}
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		r, c := i/width, i%width
		if r > 0 {
			visit(i - width)
		}
		if r < height-1 {
			visit(i + width)
		}
		if c > 0 {
			visit(i - 1)
		}
		if c < width-1 {
			visit(i + 1)
		}
	}

	filled := make([]bool, len(mask))
	for i := range filled {
		filled[i] = mask[i] || !outside[i]
	}
	return filled
}
