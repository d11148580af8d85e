package engine

import (
	"github.com/spaghettifunk/gef/engine/assets"
	"github.com/spaghettifunk/gef/engine/core"
)

/**
 * @brief The callbacks an application hands to the engine. Every callback
 * is optional.
 */
type Game struct {
	// Config defaults to core.DefaultConfig when nil.
	Config *core.Config
	State  interface{}

	FnInitialize   Initialize
	FnUpdate       Update
	FnRender       Render
	FnOnResize     OnResize
	FnShutdown     Shutdown
	FnAssetChanged AssetChanged
}

type Initialize func(e *Engine) error

type Update func(e *Engine, deltaTime float64) error

// Render runs inside the frame, after the world and UI views were drawn.
type Render func(e *Engine, deltaTime float64) error

type OnResize func(width uint32, height uint32) error

type Shutdown func(e *Engine) error

// AssetChanged is called from the frame loop for every change below the
// asset root.
type AssetChanged func(e *Engine, event assets.AssetEvent)
