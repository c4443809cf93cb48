// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/packr"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/drender/core"
	"github.com/devblok/drender/core/renderer"
	"github.com/devblok/drender/utility/kar"
	"github.com/devblok/drender/window"
)

func init() {
	runtime.LockOSThread()
}

var (
	configFile = flag.String("config", "", "TOML configuration file")
	debug      = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	backend    = flag.String("window", "", "Window backend, sdl or glfw")
)

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.WithError(err).Error("drender exited")
		if details := errors.FlattenDetails(err); details != "" {
			log.Error(details)
		}
		if hints := errors.FlattenHints(err); hints != "" {
			log.Info(hints)
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := core.LoadConfiguration(*configFile)
	if err != nil {
		return err
	}
	if *debug {
		cfg.Renderer.Validation = true
	}
	if *backend != "" {
		cfg.Window.Backend = *backend
	}
	if err := cfg.Log.Apply(log.StandardLogger()); err != nil {
		return err
	}
	logger := log.WithField("session", uuid.New().String())

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := trace.Start(f); err != nil {
			return err
		}
		defer trace.Stop()
	}

	shaders, closeShaders, err := shaderSource(cfg.Renderer, logger)
	if err != nil {
		return err
	}
	defer closeShaders()
	if err := renderer.CheckShaders(shaders, renderer.ShaderNames{
		Vertex:   cfg.Renderer.VertexShader,
		Fragment: cfg.Renderer.FragmentShader,
	}); err != nil {
		return err
	}

	win, err := window.New(cfg.Window, cfg.Renderer.ScreenWidth, cfg.Renderer.ScreenHeight)
	if err != nil {
		return err
	}
	defer win.Destroy()

	r, err := renderer.NewRenderer(win, shaders, cfg.Renderer, logger)
	if err != nil {
		return err
	}

	loopErr := loop(win, r, core.NewTime(cfg.Time), logger)
	if err := r.Close(); err != nil {
		logger.WithError(err).Warn("device did not idle before teardown")
	}
	if loopErr != nil {
		return loopErr
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return err
		}
	}
	return nil
}

// loop polls events and draws frames until the window is closed
// or the renderer hits an unrecoverable fault
func loop(win core.Window, r core.Renderer, timeService *core.Time, logger *log.Entry) error {
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return timeService.Report(gctx, func(stats core.FrameStats) {
			logger.WithFields(log.Fields{
				"frames": stats.Frames,
				"mean":   stats.Mean,
				"cgo":    runtime.NumCgoCall(),
			}).Info("frame stats")
		})
	})

	counter := timeService.Counter()
	var drawErr error
	for {
		win.PollEvents()
		if win.ShouldClose() {
			break
		}
		if err := timeService.Pace(ctx); err != nil {
			break
		}

		start := counter.Start()
		err := r.DrawFrame()
		counter.Stop(start)
		if err == nil {
			continue
		}
		if renderer.IsRecoverable(err) {
			logger.WithError(err).Warn("frame dropped")
			continue
		}
		drawErr = err
		break
	}

	cancel()
	if err := g.Wait(); err != nil && drawErr == nil {
		drawErr = err
	}
	return drawErr
}

// shaderSource picks a kar archive when configured, the shader
// directory when present, and the embedded box otherwise
func shaderSource(cfg core.RendererConfiguration, logger *log.Entry) (renderer.ShaderSource, func(), error) {
	if cfg.ShaderArchive != "" {
		archive, err := kar.OpenFile(cfg.ShaderArchive)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "shader archive %s", cfg.ShaderArchive)
		}
		logger.WithField("archive", cfg.ShaderArchive).Debug("loading shaders from archive")
		return renderer.ArchiveSource{Archive: archive.Archive}, func() { archive.Close() }, nil
	}

	if info, err := os.Stat(cfg.ShaderDirectory); err == nil && info.IsDir() {
		logger.WithField("directory", cfg.ShaderDirectory).Debug("loading shaders from directory")
		return renderer.DirSource(cfg.ShaderDirectory), func() {}, nil
	}

	logger.Debug("loading packed shaders")
	return renderer.BoxSource{Box: packr.NewBox("../../shaders")}, func() {}, nil
}
