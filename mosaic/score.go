package mosaic

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
	"github.com/iddryg/seg-flow/tiling"
)

// CoverageScores computes one trust score per surviving instance per tile.
//
// The density map is re-tiled with the same grid so each confidence tile is
// paired with its aligned density sub-raster. For every instance with at
// least cfg.MinPixels pixels:
//
//	score = AverageWeight*mean(density over instance pixels)
//	      + SumWeight*sum(density over instance pixels)
//
// Instances below MinPixels get no entry. During recombination an absent
// entry behaves as minus infinity: the instance can never win a pixel
// against any claimed region, while never-claimed background stays open to
// other tiles.
//
// Returns one id->score map per tile, in tile order.
func CoverageScores(tiles []*raster.Labels, density *raster.Labels, positions []tiling.Position, grid tiling.Grid, cfg Config) ([]map[int32]float32, error) {
	densityTiles, densityPositions := tiling.ExtractLabels(density, grid)
	if len(densityTiles) != len(tiles) {
		return nil, errors.Errorf("mosaic: density re-tiling produced %d tiles for %d confidence tiles", len(densityTiles), len(tiles))
	}
	if len(positions) != len(tiles) {
		return nil, errors.Errorf("mosaic: %d tiles with %d positions", len(tiles), len(positions))
	}
	for i := range positions {
		if positions[i] != densityPositions[i] {
			return nil, errors.Errorf("mosaic: density tile %d at %+v, confidence tile at %+v", i, densityPositions[i], positions[i])
		}
	}

	scores := make([]map[int32]float32, len(tiles))
	for i, tile := range tiles {
		src := tile.Pix()
		counts := densityTiles[i].Pix()

		pixels := make(map[int32]int)
		sums := make(map[int32]int64)
		for j, id := range src {
			if id == 0 {
				continue
			}
			pixels[id]++
			sums[id] += int64(counts[j])
		}

		tileScores := make(map[int32]float32, len(pixels))
		for id, n := range pixels {
			if n < cfg.MinPixels {
				continue
			}
			sum := float32(sums[id])
			avg := sum / float32(n)
			tileScores[id] = cfg.AverageWeight*avg + cfg.SumWeight*sum
		}
		scores[i] = tileScores
	}
	return scores, nil
}
