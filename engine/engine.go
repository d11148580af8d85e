package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/gef/engine/assets"
	"github.com/spaghettifunk/gef/engine/assets/loaders"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/platform"
	"github.com/spaghettifunk/gef/engine/renderer"
	"github.com/spaghettifunk/gef/engine/renderer/components"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/spaghettifunk/gef/engine/renderer/shaders"
	"github.com/spaghettifunk/gef/engine/renderer/views"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine created its platform and renderers
	EngineStageBootComplete
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

/**
 * @brief Owns the platform, the asset manager, both renderers and their
 * views, and drives the frame loop of a Game.
 */
type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *core.Config

	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer3D
	sprites      *renderer.SpriteRenderer
	world        *views.RenderViewWorld
	ui           *views.RenderViewUI
	images       *loaders.TextureLoader

	clock       *core.Clock
	metrics     *core.Metrics
	isRunning   atomic.Bool
	isSuspended bool
	width       uint32
	height      uint32
	lastTime    float64
}

// New creates the device described by the game config and everything that
// draws on it.
func New(g *Game) (*Engine, error) {
	if g == nil {
		g = &Game{}
	}
	cfg := g.Config
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	core.SetLogLevel(cfg.Engine.LogLevel)

	caps, err := platform.CapabilitiesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := platform.New(caps)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		platform:     p,
		images:       &loaders.TextureLoader{FlipY: cfg.Assets.FlipTextures},
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        caps.Width,
		height:       caps.Height,
	}
	if err := e.boot(); err != nil {
		_ = e.release()
		return nil, err
	}
	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) boot() error {
	am, err := assets.NewAssetManager(assets.Options{
		Textures:     e.platform,
		FlipTextures: e.config.Assets.FlipTextures,
	})
	if err != nil {
		return err
	}
	e.assetManager = am

	sources := shaders.SourceChain{
		&loaders.ShaderLoader{Dir: filepath.Join(e.config.Assets.Root, e.config.Renderer.ShaderDir)},
		shaders.EmbeddedSources(),
	}
	opts, err := renderer.OptionsFromConfig(e.config, sources)
	if err != nil {
		return err
	}
	if e.renderer, err = renderer.NewRenderer3D(e.platform, opts); err != nil {
		return err
	}
	if e.sprites, err = renderer.NewSpriteRenderer(e.platform, opts); err != nil {
		return err
	}

	e.world = views.NewRenderViewWorld(components.NewCamera(float32(e.width) / float32(e.height)))
	e.ui = &views.RenderViewUI{}
	return nil
}

// Initialize indexes the asset root, when it exists, and initializes the game.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return fmt.Errorf("engine initialized twice")
	}

	root := e.config.Assets.Root
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		if err := e.assetManager.Initialize(root); err != nil {
			return err
		}
	} else {
		core.LogWarn("asset root '%s' not found, assets are not indexed", root)
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	e.OnResize(e.width, e.height)

	e.currentStage = EngineStageInitialized
	return nil
}

/**
 * @brief Runs frames until ctx is done, Stop is called or maxFrames frames
 * were drawn. A maxFrames of 0 runs without limit.
 */
func (e *Engine) Run(ctx context.Context, maxFrames uint64) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	defer func() { e.currentStage = EngineStageInitialized }()

	e.isRunning.Store(true)
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var frames uint64
	for e.isRunning.Load() {
		select {
		case <-ctx.Done():
			e.isRunning.Store(false)
			continue
		default:
		}

		e.dispatchAssetEvents()
		if e.isSuspended {
			time.Sleep(time.Millisecond)
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e, delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				return err
			}
		}

		draws, err := e.DrawFrame(delta)
		if err != nil {
			core.LogError("frame %d failed, shutting down: %s", frames, err)
			return err
		}

		e.metrics.Update(time.Since(frameStart).Seconds(), draws)
		e.lastTime = currentTime

		frames++
		if maxFrames > 0 && frames >= maxFrames {
			e.isRunning.Store(false)
		}
	}
	return nil
}

/**
 * @brief Draws one frame: the world view, then the UI view, then the
 * game's Render callback, all in a single device frame. Returns the number
 * of draws issued.
 */
func (e *Engine) DrawFrame(delta float64) (uint32, error) {
	opts := gpu.ClearOptions{
		Flags:  gpu.ClearColour | gpu.ClearDepth | gpu.ClearStencil,
		Colour: metadata.NewColour(0.1, 0.1, 0.12, 1),
		Depth:  1,
	}
	if err := e.platform.BeginFrame(opts); err != nil {
		return 0, err
	}

	worldDraws, worldErr := e.world.OnRender(e.renderer, false)
	uiDraws, uiErr := e.ui.OnRender(e.sprites, false)
	var renderErr error
	if e.gameInstance.FnRender != nil {
		renderErr = e.gameInstance.FnRender(e, delta)
	}
	extra := e.renderer.GetAndResetDrawCount() + e.sprites.GetAndResetDrawCount()

	endErr := e.platform.EndFrame()
	if err := errors.Join(worldErr, uiErr, renderErr, endErr); err != nil {
		return 0, err
	}
	return worldDraws + uiDraws + extra, nil
}

func (e *Engine) dispatchAssetEvents() {
	for {
		select {
		case event := <-e.assetManager.Events():
			if e.gameInstance.FnAssetChanged != nil {
				e.gameInstance.FnAssetChanged(e, event)
			}
		default:
			return
		}
	}
}

// Stop ends Run after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

/**
 * @brief Resizes the views. A zero size suspends the frame loop until a
 * non-zero size arrives.
 */
func (e *Engine) OnResize(width, height uint32) {
	if width == 0 || height == 0 {
		core.LogInfo("target minimized, suspending application")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("target restored, resuming application")
		e.isSuspended = false
	}
	e.width = width
	e.height = height
	e.world.OnResize(width, height)
	e.ui.OnResize(e.sprites, width, height)

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("game resize failed: %s", err)
		}
	}
}

// LoadModel loads an OBJ model. Paths indexed by the asset manager go
// through it, any other path is read directly.
func (e *Engine) LoadModel(path string) (*metadata.Model, error) {
	if rel, err := filepath.Rel(e.config.Assets.Root, path); err == nil {
		if _, ok := e.assetManager.Lookup(filepath.ToSlash(rel)); ok {
			res, err := e.assetManager.LoadAsset(rel, nil)
			if err != nil {
				return nil, err
			}
			if model, ok := res.Data.(*metadata.Model); ok {
				return model, nil
			}
			return nil, fmt.Errorf("asset '%s' is a %s, not a model: %w", rel, res.Type, core.ErrModelLoad)
		}
	}
	return (&loaders.OBJLoader{Textures: e.platform, Images: e.images}).LoadModel(path)
}

// Shutdown releases everything New created.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown(e))
	}
	errs = append(errs, e.release())
	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

func (e *Engine) release() error {
	var errs []error
	if e.world != nil {
		e.world.Reset()
	}
	if e.ui != nil {
		e.ui.Reset()
	}
	if e.sprites != nil {
		e.sprites.Destroy()
		e.sprites = nil
	}
	if e.renderer != nil {
		e.renderer.Destroy()
		e.renderer = nil
	}
	if e.assetManager != nil {
		errs = append(errs, e.assetManager.Close())
		e.assetManager = nil
	}
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
		e.platform = nil
	}
	return errors.Join(errs...)
}

func (e *Engine) Config() *core.Config { return e.config }

func (e *Engine) Stage() Stage { return e.currentStage }

func (e *Engine) Platform() *platform.Platform { return e.platform }

func (e *Engine) Assets() *assets.AssetManager { return e.assetManager }

func (e *Engine) Renderer() *renderer.Renderer3D { return e.renderer }

func (e *Engine) SpriteRenderer() *renderer.SpriteRenderer { return e.sprites }

func (e *Engine) World() *views.RenderViewWorld { return e.world }

func (e *Engine) UI() *views.RenderViewUI { return e.ui }

func (e *Engine) Metrics() *core.Metrics { return e.metrics }

func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}
