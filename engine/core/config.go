package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

/** @brief Top level engine configuration, loaded from a TOML or YAML file. */
type Config struct {
	Engine   EngineConfig   `toml:"engine" yaml:"engine"`
	Renderer RendererConfig `toml:"renderer" yaml:"renderer"`
	Assets   AssetsConfig   `toml:"assets" yaml:"assets"`
}

type EngineConfig struct {
	/** @brief The application name, used for labels and the window-less device. */
	Name string `toml:"name" yaml:"name"`
	/** @brief One of debug, info, warn, error, fatal. */
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

type RendererConfig struct {
	/** @brief The backend to create: headless, vulkan or webgpu. */
	Backend string `toml:"backend" yaml:"backend"`
	Width   uint32 `toml:"width" yaml:"width"`
	Height  uint32 `toml:"height" yaml:"height"`
	/** @brief solid, wireframe or lines. */
	FillMode string `toml:"fill_mode" yaml:"fill_mode"`
	/** @brief less_equal or always. */
	DepthTest string `toml:"depth_test" yaml:"depth_test"`
	/** @brief Directory holding compiled SPIR-V programs, relative to the asset root. */
	ShaderDir string `toml:"shader_dir" yaml:"shader_dir"`
	/** @brief Draws each program can record per frame on the GPU backends, 0 for the backend default. */
	MaxDrawsPerFrame uint32 `toml:"max_draws_per_frame" yaml:"max_draws_per_frame"`
	/** @brief Enable the Vulkan validation layer when it is installed. */
	Validation bool `toml:"validation" yaml:"validation"`
}

type AssetsConfig struct {
	Root string `toml:"root" yaml:"root"`
	/** @brief Flip decoded images vertically before uploading them. */
	FlipTextures bool `toml:"flip_textures" yaml:"flip_textures"`
}

var (
	validBackends   = []string{"headless", "vulkan", "webgpu"}
	validFillModes  = []string{"solid", "wireframe", "lines"}
	validDepthTests = []string{"less_equal", "always"}
)

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:     "gef",
			LogLevel: "info",
		},
		Renderer: RendererConfig{
			Backend:   "headless",
			Width:     960,
			Height:    544,
			FillMode:  "solid",
			DepthTest: "less_equal",
			ShaderDir: "shaders/gef",
		},
		Assets: AssetsConfig{
			Root: "assets",
		},
	}
}

// LoadConfig reads path on top of DefaultConfig. The decoder is picked by
// extension: .toml, .yaml or .yml.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format '%s'", ErrConfig, filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !oneOf(c.Renderer.Backend, validBackends) {
		return fmt.Errorf("%w: renderer.backend '%s' must be one of %v", ErrConfig, c.Renderer.Backend, validBackends)
	}
	if !oneOf(c.Renderer.FillMode, validFillModes) {
		return fmt.Errorf("%w: renderer.fill_mode '%s' must be one of %v", ErrConfig, c.Renderer.FillMode, validFillModes)
	}
	if !oneOf(c.Renderer.DepthTest, validDepthTests) {
		return fmt.Errorf("%w: renderer.depth_test '%s' must be one of %v", ErrConfig, c.Renderer.DepthTest, validDepthTests)
	}
	if c.Renderer.Width == 0 || c.Renderer.Height == 0 {
		return fmt.Errorf("%w: renderer size must be non-zero", ErrConfig)
	}
	return nil
}

func oneOf(value string, options []string) bool {
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}
