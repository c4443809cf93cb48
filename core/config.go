// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Window backends
const (
	WindowSDL  = "sdl"
	WindowGLFW = "glfw"
)

// Configuration defines a global renderer configuration setting
type Configuration struct {
	Time     TimeConfiguration     `toml:"time"`
	Renderer RendererConfiguration `toml:"renderer"`
	Window   WindowConfiguration   `toml:"window"`
	Log      LogConfiguration      `toml:"log"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"frames_per_second"`

	// StatsInterval is how often frame statistics are reported,
	// 0 disables reporting
	StatsInterval Duration `toml:"stats_interval"`
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ApplicationName  string   `toml:"application_name"`
	DeviceExtensions []string `toml:"device_extensions"`

	ScreenWidth  uint32 `toml:"screen_width"`
	ScreenHeight uint32 `toml:"screen_height"`

	// FramesInFlight is the number of frames the CPU may
	// record ahead of the GPU
	FramesInFlight int `toml:"frames_in_flight"`

	// FrameTimeout bounds fence waits and image acquisition,
	// 0 waits forever
	FrameTimeout Duration `toml:"frame_timeout"`

	Validation       bool     `toml:"validation"`
	ValidationLayers []string `toml:"validation_layers"`

	// ShaderDirectory is used unless ShaderArchive names a kar bundle
	ShaderDirectory string `toml:"shader_directory"`
	ShaderArchive   string `toml:"shader_archive"`
	VertexShader    string `toml:"vertex_shader"`
	FragmentShader  string `toml:"fragment_shader"`

	ClearColor mgl32.Vec4 `toml:"clear_color"`
}

// WindowConfiguration selects and sets up the window
type WindowConfiguration struct {
	Backend   string `toml:"backend"`
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

// LogConfiguration configures the logger
type LogConfiguration struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration that reads from strings like "1.5s"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfiguration returns the stock setup: an 800x600 window,
// two frames in flight and unbounded waits.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 0,
			StatsInterval:   Duration{time.Second},
		},
		Renderer: RendererConfiguration{
			ApplicationName: "Vulkan Deferred Renderer",
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			ScreenWidth:      800,
			ScreenHeight:     600,
			FramesInFlight:   2,
			Validation:       DefaultValidation,
			ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
			ShaderDirectory:  "shaders",
			VertexShader:     "vert.spv",
			FragmentShader:   "frag.spv",
			ClearColor:       mgl32.Vec4{0, 0, 0, 1},
		},
		Window: WindowConfiguration{
			Backend:   WindowSDL,
			Title:     "Vulkan Deferred Renderer",
			Resizable: true,
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfiguration layers the defaults, an optional TOML file
// and the environment (including .env files) in that order.
func LoadConfiguration(path string, envFiles ...string) (Configuration, error) {
	cfg := DefaultConfiguration()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "configuration")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "configuration %s", path)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrapf(err, "env file %s", f)
		}
	}
	envy.Reload()

	if err := cfg.applyEnvironment(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Configuration) applyEnvironment() error {
	if err := envUint32("DRENDER_WIDTH", &c.Renderer.ScreenWidth); err != nil {
		return err
	}
	if err := envUint32("DRENDER_HEIGHT", &c.Renderer.ScreenHeight); err != nil {
		return err
	}
	if err := envInt("DRENDER_FPS", &c.Time.FramesPerSecond); err != nil {
		return err
	}
	if err := envInt("DRENDER_FRAMES_IN_FLIGHT", &c.Renderer.FramesInFlight); err != nil {
		return err
	}
	if v := envy.Get("DRENDER_FRAME_TIMEOUT", ""); v != "" {
		if err := c.Renderer.FrameTimeout.UnmarshalText([]byte(v)); err != nil {
			return errors.Wrap(err, "DRENDER_FRAME_TIMEOUT")
		}
	}
	if v := envy.Get("DRENDER_VALIDATION", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "DRENDER_VALIDATION")
		}
		c.Renderer.Validation = b
	}
	c.Window.Backend = envy.Get("DRENDER_WINDOW", c.Window.Backend)
	c.Renderer.ShaderDirectory = envy.Get("DRENDER_SHADERS", c.Renderer.ShaderDirectory)
	c.Renderer.ShaderArchive = envy.Get("DRENDER_SHADER_ARCHIVE", c.Renderer.ShaderArchive)
	c.Log.Level = envy.Get("DRENDER_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envy.Get("DRENDER_LOG_FORMAT", c.Log.Format)
	return nil
}

func envUint32(key string, dst *uint32) error {
	v := envy.Get(key, "")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = uint32(n)
	return nil
}

func envInt(key string, dst *int) error {
	v := envy.Get(key, "")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = n
	return nil
}

// Validate checks the configuration for values the renderer can't work with
func (c Configuration) Validate() error {
	r := c.Renderer
	switch {
	case r.ScreenWidth == 0 || r.ScreenHeight == 0:
		return errors.Newf("invalid window size %dx%d", r.ScreenWidth, r.ScreenHeight)
	case r.FramesInFlight < 1:
		return errors.Newf("frames in flight must be at least 1, got %d", r.FramesInFlight)
	case r.VertexShader == "" || r.FragmentShader == "":
		return errors.New("both vertex and fragment shaders must be named")
	case r.FrameTimeout.Duration < 0:
		return errors.New("frame timeout can't be negative")
	}
	switch strings.ToLower(c.Window.Backend) {
	case WindowSDL, WindowGLFW:
	default:
		return errors.Newf("unknown window backend %q", c.Window.Backend)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// Apply sets the level and formatter of logger
func (c LogConfiguration) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	logger.SetLevel(level)
	switch strings.ToLower(c.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return errors.Newf("unknown log format %q", c.Format)
	}
	logger.SetOutput(os.Stderr)
	return nil
}
