package testbed

import (
	"fmt"
	"path/filepath"

	"github.com/spaghettifunk/gef/engine"
	"github.com/spaghettifunk/gef/engine/assets"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/spaghettifunk/gef/engine/renderer/views"
)

// Options selects what the test game shows.
type Options struct {
	// ModelPath is an OBJ file placed at the origin and spun around y.
	ModelPath string
	// FontPath is a .fnt file used for the statistics line.
	FontPath string
	// Speed of the spin in radians per second.
	Speed float32
}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	options Options

	model *metadata.Model
	angle float32
	font  *renderer.Font
}

func NewTestGame(cfg *core.Config, opts Options) *TestGame {
	if opts.Speed == 0 {
		opts.Speed = 0.5
	}
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &gameState{options: opts},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown
	tg.FnAssetChanged = tg.OnAssetChanged

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.state()

	lights := e.World().Lights
	lights.SetAmbientColour(math.NewVec3(0.2, 0.2, 0.2))
	sun := metadata.NewLight()
	sun.Position = math.NewVec4(5, 10, 10, 1)
	sun.Radius = 100
	lights.AddLight(sun)

	if state.options.ModelPath != "" {
		if err := g.loadModel(e); err != nil {
			return err
		}
	}

	if state.options.FontPath != "" {
		font, err := renderer.LoadFont(e.Platform(), state.options.FontPath)
		if err != nil {
			return err
		}
		state.font = font
		title := "gef"
		if state.options.ModelPath != "" {
			title = filepath.Base(state.options.ModelPath)
		}
		e.UI().AddText(views.Text{
			Font:     font,
			Position: math.NewVec3(8, 8, 0),
			Colour:   0xffffffff,
			Value:    title,
		})
	}
	return nil
}

func (g *TestGame) loadModel(e *engine.Engine) error {
	state := g.state()
	model, err := e.LoadModel(state.options.ModelPath)
	if err != nil {
		return err
	}
	if state.model != nil {
		e.Platform().ReleaseModel(state.model)
	}
	state.model = model
	g.frameModel(e)
	core.LogInfo("model '%s' loaded: %d vertices, %d primitives",
		model.Name, model.Mesh.VertexCount, len(model.Mesh.Primitives))
	return nil
}

// frameModel points the camera at the model's bounding sphere.
func (g *TestGame) frameModel(e *engine.Engine) {
	sphere := g.state().model.Mesh.Sphere
	distance := sphere.Radius * 2.5
	if distance <= 0 {
		distance = 5
	}
	camera := e.World().Camera
	camera.SetPosition(sphere.Position.Add(math.NewVec3(0, 0, distance)))
	camera.FarClip = max(1000, distance*4)
}

func (g *TestGame) Update(e *engine.Engine, deltaTime float64) error {
	state := g.state()
	state.angle += state.options.Speed * float32(deltaTime)

	e.World().Reset()
	if state.model != nil {
		centre := state.model.Mesh.Sphere.Position
		transform := math.NewMat4Translation(centre.MulScalar(-1)).
			Mul(math.NewMat4EulerY(state.angle)).
			Mul(math.NewMat4Translation(centre))
		e.World().Add(state.model, transform, true)
	}
	return nil
}

func (g *TestGame) Render(e *engine.Engine, deltaTime float64) error {
	state := g.state()
	if state.font == nil {
		return nil
	}
	fps, frameMS := e.Metrics().FPS(), e.Metrics().FrameTime()
	stats := fmt.Sprintf("FPS: %.0f  %.2fms  draws: %d", fps, frameMS, e.Metrics().LastDraws())
	width, _ := e.GetFramebufferSize()
	state.font.RenderText(e.SpriteRenderer(), math.NewVec3(float32(width)-8, 8, 0), 1, 0xffffffff, renderer.TextJustificationRight, stats)
	return nil
}

// OnAssetChanged reloads the model when its file changes below the asset root.
func (g *TestGame) OnAssetChanged(e *engine.Engine, event assets.AssetEvent) {
	state := g.state()
	if event.Removed || event.Asset.Type != metadata.ResourceTypeModel || state.options.ModelPath == "" {
		return
	}
	want, err := filepath.Abs(state.options.ModelPath)
	if err != nil || want != event.Asset.Path {
		return
	}
	if err := g.loadModel(e); err != nil {
		core.LogError("unable to reload '%s': %s", event.Asset.Path, err)
	}
}

func (g *TestGame) Shutdown(e *engine.Engine) error {
	state := g.state()
	if state.model != nil {
		e.Platform().ReleaseModel(state.model)
		state.model = nil
	}
	if state.font != nil {
		state.font.Destroy()
		state.font = nil
	}
	return nil
}

// Model returns the model currently shown.
func (g *TestGame) Model() *metadata.Model {
	return g.state().model
}
