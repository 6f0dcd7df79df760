package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 512, cfg.Stitch.TileSize)
	assert.Equal(t, 256, cfg.Stitch.Stride)
	assert.Equal(t, float32(0.7), cfg.Stitch.AverageWeight)
	assert.Equal(t, float32(0.3), cfg.Stitch.SumWeight)
	assert.Equal(t, 5, cfg.Stitch.MinPixels)
	assert.Equal(t, 64, cfg.Predict.BatchSize)
	assert.Equal(t, 0.28, cfg.Predict.ImageMPP)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

// TestLoadConfigPartialOverride verifies a file naming only some keys keeps
// defaults for the rest.
func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stitch:\n  tileSize: 256\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Stitch.TileSize, "named key overridden")
	assert.Equal(t, 256, cfg.Stitch.Stride, "unnamed keys keep defaults")
	assert.Equal(t, 5, cfg.Stitch.MinPixels)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stitch.MinPixels = 12
	cfg.Predict.ModelPath = "models/cells.onnx"

	path := filepath.Join(t.TempDir(), "sub", "cfg.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stitch: ["), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
