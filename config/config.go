// Package config loads and saves the stitching pipeline configuration from
// YAML, providing sensible defaults for every parameter.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the pipeline configuration loaded from YAML.
type Config struct {
	// Stitch holds the mosaic stitching parameters.
	Stitch struct {
		// TileSize is the square tile side in pixels.
		TileSize int `yaml:"tileSize"`

		// Stride is the step between tile origins; must not exceed TileSize.
		Stride int `yaml:"stride"`

		// AverageWeight scales the mean-density term of the coverage score.
		AverageWeight float32 `yaml:"averageWeight"`

		// SumWeight scales the summed-density term of the coverage score.
		SumWeight float32 `yaml:"sumWeight"`

		// MinPixels is the minimum instance size eligible for a coverage
		// score; smaller instances never claim mosaic pixels.
		MinPixels int `yaml:"minPixels"`
	} `yaml:"stitch"`

	// Predict holds the segmentation predictor parameters.
	Predict struct {
		// BatchSize is the number of tiles per predictor call.
		BatchSize int `yaml:"batchSize"`

		// ImageMPP is the source image's microns-per-pixel scale.
		ImageMPP float64 `yaml:"imageMPP"`

		// ModelPath points at the ONNX segmentation model, when one is used.
		ModelPath string `yaml:"modelPath"`

		// LibraryPath optionally points at the onnxruntime shared library.
		LibraryPath string `yaml:"libraryPath"`
	} `yaml:"predict"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Stitch.TileSize = 512
	cfg.Stitch.Stride = 256
	cfg.Stitch.AverageWeight = 0.7
	cfg.Stitch.SumWeight = 0.3
	cfg.Stitch.MinPixels = 5

	cfg.Predict.BatchSize = 64
	cfg.Predict.ImageMPP = 0.28

	return cfg
}

// LoadConfig loads configuration from a YAML file, starting from defaults so
// a partial file only overrides what it names. A missing file returns the
// defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "config: reading file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "config: parsing file")
	}
	return cfg, nil
}

// SaveConfig writes the configuration to a YAML file, creating the directory
// if needed.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.Wrap(err, "config: creating directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: marshaling")
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "config: writing file")
	}
	return nil
}
