// Command segflow prints the tiling plan a configuration produces for a
// given image size, and optionally verifies that an ONNX segmentation model
// loads. The stitching pipeline itself is a library; this tool answers the
// operational questions (how many tiles, how much padding, how many batches)
// before a multi-hour whole-slide run is launched.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/iddryg/seg-flow/config"
	"github.com/iddryg/seg-flow/predict"
	"github.com/iddryg/seg-flow/tiling"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults apply when empty or missing)")
	height := flag.Int("height", 0, "source image height in pixels")
	width := flag.Int("width", 0, "source image width in pixels")
	checkModel := flag.Bool("check-model", false, "load the configured ONNX model and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if *checkModel {
		if err := verifyModel(cfg); err != nil {
			log.Fatalf("model check failed: %v", err)
		}
		fmt.Printf("model %s loads\n", cfg.Predict.ModelPath)
		return
	}

	if *height <= 0 || *width <= 0 {
		fmt.Fprintln(os.Stderr, "usage: segflow -height H -width W [-config cfg.yaml], or segflow -check-model -config cfg.yaml")
		os.Exit(2)
	}

	grid := tiling.Grid{TileSize: cfg.Stitch.TileSize, Stride: cfg.Stitch.Stride}
	if err := grid.Validate(); err != nil {
		log.Fatalf("invalid grid: %v", err)
	}

	pad := grid.PadAmounts(*height, *width)
	paddedH := *height + pad.Top + pad.Bottom
	paddedW := *width + pad.Left + pad.Right
	positions := grid.Positions(paddedH, paddedW)

	batches := (len(positions) + cfg.Predict.BatchSize - 1) / cfg.Predict.BatchSize

	fmt.Printf("image:   %dx%d @ %.3f mpp\n", *height, *width, cfg.Predict.ImageMPP)
	fmt.Printf("grid:    tile %d, stride %d (overlap %d)\n", grid.TileSize, grid.Stride, grid.TileSize-grid.Stride)
	fmt.Printf("padding: top %d, bottom %d, left %d, right %d -> %dx%d\n", pad.Top, pad.Bottom, pad.Left, pad.Right, paddedH, paddedW)
	fmt.Printf("tiles:   %d (%d batches of up to %d)\n", len(positions), batches, cfg.Predict.BatchSize)
}

func verifyModel(cfg *config.Config) error {
	p, err := predict.NewONNXPredictor(predict.ONNXConfig{
		ModelPath:   cfg.Predict.ModelPath,
		LibraryPath: cfg.Predict.LibraryPath,
	})
	if err != nil {
		return err
	}
	return p.Close()
}
