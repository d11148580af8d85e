/*
gef loads a configuration, creates the selected rendering backend and draws
an OBJ model with the default shaders for a number of frames.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/disintegration/imaging"
	"github.com/spaghettifunk/gef/engine"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/testbed"
)

var (
	configPath = flag.String("config", "gef.toml", "Configuration file (.toml, .yaml)")
	backend    = flag.String("backend", "", "Override the renderer backend: headless, vulkan or webgpu")
	modelPath  = flag.String("model", "", "OBJ model to draw")
	fontPath   = flag.String("font", "", "Bitmap font (.fnt) used for the overlay")
	frames     = flag.Uint64("frames", 1, "Frames to draw, 0 runs until interrupted")
	output     = flag.String("out", "", "Write the last frame to this image file when the backend can read it back")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(); err != nil {
		core.LogFatal("%s", err)
	}
}

func run() error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *backend != "" {
		cfg.Renderer.Backend = *backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	tb := testbed.NewTestGame(cfg, testbed.Options{ModelPath: *modelPath, FontPath: *fontPath})

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
	}()

	if err := e.Initialize(); err != nil {
		return err
	}

	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Run(ctx, *frames); err != nil {
		return err
	}
	core.LogInfo("drew %d frames, %d draws in the last one", e.Metrics().Frames(), e.Metrics().LastDraws())

	if *output != "" {
		return writeFrame(e, *output)
	}
	return nil
}

// loadConfig falls back to the defaults when the default config file is absent.
func loadConfig(path string) (*core.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "gef.toml" {
		core.LogWarn("'%s' not found, using the default configuration", path)
		return core.DefaultConfig(), nil
	}
	return core.LoadConfig(path)
}

func writeFrame(e *engine.Engine, path string) error {
	reader, ok := e.Platform().Device().(gpu.FrameReader)
	if !ok {
		return fmt.Errorf("the %s backend cannot read frames back", e.Platform().Device().Backend())
	}
	frame, err := reader.ReadFrame()
	if err != nil {
		return err
	}
	img := &image.NRGBA{
		Pix:    frame.Pixels,
		Stride: int(frame.Width) * 4,
		Rect:   image.Rect(0, 0, int(frame.Width), int(frame.Height)),
	}
	if err := imaging.Save(img, path); err != nil {
		return err
	}
	core.LogInfo("frame written to '%s'", path)
	return nil
}
