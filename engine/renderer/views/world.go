package views

import (
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer"
	"github.com/spaghettifunk/gef/engine/renderer/components"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/** @brief A model placed in the world. */
type WorldObject struct {
	Model     *metadata.Model
	Transform math.Mat4
	Lit       bool
}

/**
 * @brief The 3D view: a camera, a light set and the models drawn every
 * frame by a Renderer3D.
 */
type RenderViewWorld struct {
	Camera  *components.Camera
	Lights  *metadata.LightData
	objects []WorldObject
}

func NewRenderViewWorld(camera *components.Camera) *RenderViewWorld {
	if camera == nil {
		camera = components.NewCamera(0)
	}
	return &RenderViewWorld{
		Camera: camera,
		Lights: metadata.NewLightData(),
	}
}

func (vw *RenderViewWorld) Add(model *metadata.Model, transform math.Mat4, lit bool) {
	vw.objects = append(vw.objects, WorldObject{Model: model, Transform: transform, Lit: lit})
}

func (vw *RenderViewWorld) Objects() []WorldObject { return vw.objects }

// Reset removes every object.
func (vw *RenderViewWorld) Reset() { vw.objects = nil }

func (vw *RenderViewWorld) OnResize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	vw.Camera.Aspect = float32(width) / float32(height)
}

// OnRender draws every object in one frame and returns the draw count.
func (vw *RenderViewWorld) OnRender(r *renderer.Renderer3D, clear bool) (uint32, error) {
	r.SetCamera(vw.Camera)
	r.SetLightData(vw.Lights)
	if err := r.Begin(clear); err != nil {
		return 0, err
	}
	for _, o := range vw.objects {
		r.DrawModel(o.Model, o.Transform, o.Lit)
	}
	if err := r.End(); err != nil {
		return 0, err
	}
	return r.GetAndResetDrawCount(), nil
}
