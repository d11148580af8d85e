package views

import (
	"testing"

	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/platform"
	"github.com/spaghettifunk/gef/engine/renderer"
	"github.com/spaghettifunk/gef/engine/renderer/components"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/headless"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlatform(t *testing.T) (*platform.Platform, *headless.Device) {
	t.Helper()
	device := headless.NewDevice(headless.Options{})
	p, err := platform.NewWithDevice(platform.Capabilities{Backend: gpu.BackendHeadless, Width: 200, Height: 100}, device)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })
	return p, device
}

func triangleModel() *metadata.Model {
	mesh := metadata.NewMesh(make([]metadata.Vertex, 3))
	mesh.Primitives = []*metadata.Primitive{{Indices: []uint32{0, 1, 2}}}
	return &metadata.Model{Name: "triangle", Mesh: mesh}
}

func TestRenderViewWorld(t *testing.T) {
	p, device := newPlatform(t)
	r, err := renderer.NewRenderer3D(p, renderer.Options{})
	require.NoError(t, err)
	defer r.Destroy()

	vw := NewRenderViewWorld(nil)
	vw.OnResize(200, 100)
	assert.Equal(t, float32(2), vw.Camera.Aspect)
	vw.OnResize(0, 100)
	assert.Equal(t, float32(2), vw.Camera.Aspect)

	vw.Camera.SetPosition(math.NewVec3(0, 0, 3))
	vw.Add(triangleModel(), math.NewMat4Identity(), true)
	vw.Add(triangleModel(), math.NewMat4Translation(math.NewVec3(1, 0, 0)), false)
	vw.Add(nil, math.NewMat4Identity(), true)
	assert.Len(t, vw.Objects(), 3)

	draws, err := vw.OnRender(r, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), draws)
	assert.Equal(t, uint64(1), device.Frames())
	assert.Same(t, vw.Lights, r.LightData())
	assert.True(t, r.ViewMatrix().Compare(vw.Camera.GetView(), 1e-6))

	vw.Reset()
	draws, err = vw.OnRender(r, true)
	require.NoError(t, err)
	assert.Zero(t, draws)
}

func TestRenderViewUI(t *testing.T) {
	p, device := newPlatform(t)
	sr, err := renderer.NewSpriteRenderer(p, renderer.Options{})
	require.NoError(t, err)
	defer sr.Destroy()

	vu := &RenderViewUI{}
	vu.OnResize(sr, 400, 300)
	assert.Equal(t, renderer.ScreenProjection(400, 300), sr.ProjectionMatrix())

	vu.AddSprite(metadata.NewSprite(nil, math.NewVec3(10, 10, 0), math.NewVec2(5, 5)))
	vu.AddSprite(metadata.NewSprite(nil, math.NewVec3(20, 10, 0), math.NewVec2(5, 5)))
	vu.AddText(Text{Value: "no font"})

	draws, err := vu.OnRender(sr, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), draws)
	assert.Equal(t, uint64(1), device.Frames())

	vu.Reset()
	draws, err = vu.OnRender(sr, false)
	require.NoError(t, err)
	assert.Zero(t, draws)
}

func TestWorldAndUIShareFrame(t *testing.T) {
	p, device := newPlatform(t)
	r, err := renderer.NewRenderer3D(p, renderer.Options{})
	require.NoError(t, err)
	defer r.Destroy()
	sr, err := renderer.NewSpriteRenderer(p, renderer.Options{})
	require.NoError(t, err)
	defer sr.Destroy()

	vw := NewRenderViewWorld(components.NewCamera(2))
	vw.Add(triangleModel(), math.NewMat4Identity(), true)
	vu := &RenderViewUI{}
	vu.AddSprite(metadata.NewSprite(nil, math.NewVec3Zero(), math.NewVec2(1, 1)))

	require.NoError(t, p.BeginFrame(gpu.ClearOptions{Flags: gpu.ClearColour | gpu.ClearDepth, Depth: 1}))
	_, err = vw.OnRender(r, false)
	require.NoError(t, err)
	_, err = vu.OnRender(sr, false)
	require.NoError(t, err)
	require.NoError(t, p.EndFrame())

	assert.Equal(t, uint64(1), device.Frames())
	assert.False(t, p.InFrame())
}
