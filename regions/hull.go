package regions

import "sort"

// hullArea returns the area of the convex hull of the given pixels, treating
// each pixel as a unit square. Working on pixel corners rather than centers
// keeps the hull area comparable to the pixel-count area, so solidity of a
// convex instance comes out near 1 instead of systematically above it.
func hullArea(pixels [][2]int) float64 {
	corners := make([][2]int, 0, 4*len(pixels))
	for _, p := range pixels {
		corners = append(corners,
			[2]int{p[0], p[1]},
			[2]int{p[0] + 1, p[1]},
			[2]int{p[0], p[1] + 1},
			[2]int{p[0] + 1, p[1] + 1},
		)
	}
	hull := convexHull(corners)
	if len(hull) < 3 {
		return 0
	}
	// Shoelace.
	area := 0.0
	for i := range hull {
		j := (i + 1) % len(hull)
		area += float64(hull[i][0]*hull[j][1] - hull[j][0]*hull[i][1])
	}
	if area < 0 {
		area = -area
	}
	return area / 2
}

// convexHull is the monotone chain algorithm over integer points. The
// returned hull is in counter-clockwise order without the closing point.
func convexHull(pts [][2]int) [][2]int {
	if len(pts) < 3 {
		return pts
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	// Dedup after sorting; pixel corners repeat heavily.
	uniq := pts[:1]
	for _, p := range pts[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b [2]int) int {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	var lower [][2]int
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper [][2]int
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}
