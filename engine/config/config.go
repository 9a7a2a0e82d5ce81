package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/voxels/engine/renderer"
	"github.com/Carmen-Shannon/voxels/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxels/engine/renderer/shader"
	"github.com/Carmen-Shannon/voxels/engine/window"
	"gopkg.in/yaml.v3"
)

// maxConfigSize bounds the size of a configuration file.
const maxConfigSize = 1 << 20

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the file configuration of the voxels program.
type Config struct {
	Window     WindowConfig   `yaml:"window"`
	Renderer   RendererConfig `yaml:"renderer"`
	Shaders    ShadersConfig  `yaml:"shaders"`
	Pipeline   PipelineConfig `yaml:"pipeline"`
	Profiling  bool           `yaml:"profiling"`
	FrameLimit float64        `yaml:"frame_limit"` // frames per second, 0 = uncapped
	LogLevel   string         `yaml:"log_level"`   // debug, info, warn, error
}

// WindowConfig configures the native window.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	MinWidth  int    `yaml:"min_width"`
	MinHeight int    `yaml:"min_height"`
	MaxWidth  int    `yaml:"max_width"`
	MaxHeight int    `yaml:"max_height"`
	Resizable bool   `yaml:"resizable"`
}

// RendererConfig configures the graphics context and frame renderer.
type RendererConfig struct {
	PresentMode          string `yaml:"present_mode"` // vsync or uncapped
	MSAA                 uint32 `yaml:"msaa"`         // 1, 4, 8 or 16
	ClearColor           Color  `yaml:"clear_color"`
	ForceFallbackAdapter bool   `yaml:"force_fallback_adapter"`
	MutationQueueSize    int    `yaml:"mutation_queue_size"`
}

// ShadersConfig holds the shader pair of the render pipeline.
type ShadersConfig struct {
	Vertex   shader.ShaderConfig `yaml:"vertex"`
	Fragment shader.ShaderConfig `yaml:"fragment"`
}

// PipelineConfig holds the fixed-function state of the render pipeline as names.
type PipelineConfig struct {
	Topology    string `yaml:"topology"`     // point-list, line-list, line-strip, triangle-list, triangle-strip
	FrontFace   string `yaml:"front_face"`   // ccw, cw
	CullMode    string `yaml:"cull_mode"`    // none, front, back
	PolygonMode string `yaml:"polygon_mode"` // fill, line, point
	BlendMode   string `yaml:"blend_mode"`   // replace, alpha
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:     window.DefaultTitle,
			Width:     800,
			Height:    600,
			MinWidth:  200,
			MinHeight: 150,
			MaxWidth:  3840,
			MaxHeight: 2160,
			Resizable: true,
		},
		Renderer: RendererConfig{
			PresentMode:       "vsync",
			MSAA:              1,
			ClearColor:        Color(renderer.DefaultClearColor),
			MutationQueueSize: 64,
		},
		Shaders: ShadersConfig{
			Vertex:   shader.ShaderConfig{Path: "assets/shaders/vertex.wgsl", Label: "Vertex Shader", EntryPoint: "vs_main"},
			Fragment: shader.ShaderConfig{Path: "assets/shaders/fragment.wgsl", Label: "Fragment Shader", EntryPoint: "fs_main"},
		},
		Pipeline: PipelineConfig{
			Topology:    "triangle-list",
			FrontFace:   "ccw",
			CullMode:    "none",
			PolygonMode: "fill",
			BlendMode:   "replace",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path over the default configuration and validates the result.
// Relative shader paths are resolved against the directory of the file.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("config file %s is %d bytes, limit is %d", path, info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for _, sc := range []*shader.ShaderConfig{&cfg.Shaders.Vertex, &cfg.Shaders.Fragment} {
		if sc.Path != "" && !filepath.IsAbs(sc.Path) {
			sc.Path = filepath.Join(dir, sc.Path)
		}
	}
	return cfg, nil
}

// Parse decodes YAML over the default configuration and validates the result. Unknown keys are rejected.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the parsed configuration
//   - error: an error if the document cannot be decoded or validated
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML to path. Relative shader paths, which are relative to the
// working directory in memory, are rewritten relative to the directory of path so that Load
// resolves them to the same files.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: an error if a shader path cannot be resolved or the file cannot be written
func (c Config) Save(path string) (err error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	for _, sc := range []*shader.ShaderConfig{&c.Shaders.Vertex, &c.Shaders.Fragment} {
		if sc.Path, err = relativeTo(dir, sc.Path); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&c); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// relativeTo rewrites a working-directory relative path relative to dir. Empty and absolute
// paths are returned unchanged.
func relativeTo(dir, path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve shader path %s: %w", path, err)
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return abs, nil
	}
	return rel, nil
}

// Validate checks every field that can be checked without touching the filesystem or GPU.
//
// Returns:
//   - error: the joined validation errors, each wrapping ErrInvalid
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	w := c.Window
	if w.Width <= 0 || w.Height <= 0 {
		invalid("window size %dx%d must be positive", w.Width, w.Height)
	}
	if w.MinWidth > w.MaxWidth || w.MinHeight > w.MaxHeight {
		invalid("window minimum size %dx%d exceeds maximum %dx%d", w.MinWidth, w.MinHeight, w.MaxWidth, w.MaxHeight)
	}
	if _, err := c.PresentMode(); err != nil {
		errs = append(errs, err)
	}
	switch c.Renderer.MSAA {
	case 1, 4, 8, 16:
	default:
		invalid("msaa must be 1, 4, 8 or 16, got %d", c.Renderer.MSAA)
	}
	if c.Renderer.MutationQueueSize < 1 {
		invalid("mutation_queue_size must be at least 1, got %d", c.Renderer.MutationQueueSize)
	}
	if c.Shaders.Vertex.Path == "" || c.Shaders.Fragment.Path == "" {
		invalid("both shaders.vertex.path and shaders.fragment.path are required")
	}
	if _, err := c.PipelineOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.FrameLimit < 0 {
		invalid("frame_limit must not be negative, got %g", c.FrameLimit)
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PresentMode returns the configured renderer.PresentMode.
//
// Returns:
//   - renderer.PresentMode: the present mode
//   - error: an error wrapping ErrInvalid for unknown names
func (c Config) PresentMode() (renderer.PresentMode, error) {
	return lookup("present_mode", c.Renderer.PresentMode, presentModes)
}

// SlogLevel returns the configured log level.
//
// Returns:
//   - slog.Level: the level
//   - error: an error wrapping ErrInvalid for unknown names
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	return level, nil
}

// WindowOptions converts the window section into window builder options.
//
// Returns:
//   - []window.WindowBuilderOption: the options
func (c Config) WindowOptions() []window.WindowBuilderOption {
	w := c.Window
	return []window.WindowBuilderOption{
		window.WithTitle(w.Title),
		window.WithSize(w.Width, w.Height),
		window.WithMinSize(w.MinWidth, w.MinHeight),
		window.WithMaxSize(w.MaxWidth, w.MaxHeight),
		window.WithResizable(w.Resizable),
	}
}

// GraphicsContextOptions converts the renderer section into graphics context options.
//
// Returns:
//   - []renderer.GraphicsContextOption: the options
//   - error: an error for an unknown present mode
func (c Config) GraphicsContextOptions() ([]renderer.GraphicsContextOption, error) {
	mode, err := c.PresentMode()
	if err != nil {
		return nil, err
	}
	return []renderer.GraphicsContextOption{
		renderer.WithPresentMode(mode),
		renderer.WithMSAA(renderer.MSAASampleCount(c.Renderer.MSAA)),
		renderer.WithForceFallbackAdapter(c.Renderer.ForceFallbackAdapter),
	}, nil
}

// RendererOptions converts the renderer section into renderer builder options.
//
// Returns:
//   - []renderer.RendererBuilderOption: the options
func (c Config) RendererOptions() []renderer.RendererBuilderOption {
	return []renderer.RendererBuilderOption{
		renderer.WithClearColor(c.Renderer.ClearColor.WGPU()),
		renderer.WithMutationQueueSize(c.Renderer.MutationQueueSize),
	}
}

// PipelineOptions converts the pipeline section into pipeline builder options. The sample
// count is taken from the renderer's MSAA setting.
//
// Returns:
//   - []pipeline.PipelineBuilderOption: the options
//   - error: the joined errors for unknown names, each wrapping ErrInvalid
func (c Config) PipelineOptions() ([]pipeline.PipelineBuilderOption, error) {
	p := c.Pipeline
	topology, topologyErr := lookup("pipeline.topology", p.Topology, topologies)
	frontFace, frontFaceErr := lookup("pipeline.front_face", p.FrontFace, frontFaces)
	cullMode, cullModeErr := lookup("pipeline.cull_mode", p.CullMode, cullModes)
	polygonMode, polygonModeErr := lookup("pipeline.polygon_mode", p.PolygonMode, polygonModes)
	blendMode, blendModeErr := lookup("pipeline.blend_mode", p.BlendMode, blendModes)
	if err := errors.Join(topologyErr, frontFaceErr, cullModeErr, polygonModeErr, blendModeErr); err != nil {
		return nil, err
	}
	return []pipeline.PipelineBuilderOption{
		pipeline.WithTopology(topology),
		pipeline.WithFrontFace(frontFace),
		pipeline.WithCullMode(cullMode),
		pipeline.WithPolygonMode(polygonMode),
		pipeline.WithBlendMode(blendMode),
		pipeline.WithSampleCount(c.Renderer.MSAA),
	}, nil
}
