package vke

import (
	"github.com/cockroachdb/errors"
)

// Config holds the knobs an application passes when bringing up a window
// and device.
type Config struct {
	// Title is used both for the window and the Vulkan application info
	Title  string
	Width  int
	Height int

	// EnableValidation turns on VK_LAYER_KHRONOS_validation and routes its
	// messages to Logger()
	EnableValidation bool

	// Multisampling renders into the highest sample count the device
	// supports for both color and depth
	Multisampling bool

	// ShaderDir holds compiled <name>.vert.spv / <name>.frag.spv files
	ShaderDir string
	// AssetDir holds models and textures
	AssetDir string
}

func DefaultConfig() Config {
	return Config{
		Title:         "arc",
		Width:         800,
		Height:        600,
		Multisampling: true,
		ShaderDir:     "shaders",
		AssetDir:      "assets",
	}
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("invalid window size %dx%d", c.Width, c.Height)
	}
	if c.ShaderDir == "" {
		return errors.New("shader directory must be set")
	}
	return nil
}
