// Command voxels opens a window and renders a cube with WebGPU.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/voxels/common"
	"github.com/Carmen-Shannon/voxels/engine"
	"github.com/Carmen-Shannon/voxels/engine/config"
	"github.com/Carmen-Shannon/voxels/engine/mesh"
)

func init() {
	// GLFW and the wgpu surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	var (
		configPath  = flag.String("config", "", "YAML configuration file (built-in defaults when empty)")
		writeConfig = flag.String("write-config", "", "write the effective configuration to this file and exit")
		logLevel    = flag.String("log-level", "", "override the configured log level (debug, info, warn, error)")
		profile     = flag.Bool("profile", false, "log frame rate and memory statistics once per second")
	)
	flag.Parse()

	if err := run(*configPath, *writeConfig, *logLevel, *profile); err != nil {
		fmt.Fprintf(os.Stderr, "voxels: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, writeConfig, logLevel string, profile bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.Profiling = cfg.Profiling || profile
	if err := cfg.Validate(); err != nil {
		return err
	}

	if writeConfig != "" {
		return cfg.Save(writeConfig)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	if err := eng.Renderer().Meshes().Add(mesh.Cube()); err != nil {
		eng.Close()
		return err
	}

	common.Logger().Info("starting", "title", cfg.Window.Title, "config", configPath)
	return eng.Run()
}
