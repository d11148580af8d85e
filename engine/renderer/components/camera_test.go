package components

import (
	"testing"

	"github.com/spaghettifunk/gef/engine/math"
	"github.com/stretchr/testify/assert"
)

func TestNewCamera(t *testing.T) {
	c := NewCamera(0)
	assert.Equal(t, float32(16.0/9.0), c.Aspect)
	assert.Equal(t, math.DegToRad(45), c.FOV)
	assert.Equal(t, float32(0.1), c.NearClip)
	assert.Equal(t, float32(1000), c.FarClip)
	assert.Equal(t, math.NewMat4Identity(), c.GetView())

	assert.Equal(t, float32(2), NewCamera(2).Aspect)
}

func TestCameraView(t *testing.T) {
	c := NewCamera(1)
	c.SetPosition(math.NewVec3(1, 2, 5))
	assert.True(t, c.IsDirty)

	view := c.GetView()
	assert.False(t, c.IsDirty)
	assert.True(t, view.Compare(math.NewMat4Translation(math.NewVec3(-1, -2, -5)), 1e-6))

	// the camera position lands on the origin
	assert.True(t, math.NewVec3(1, 2, 5).Transform(view).Compare(math.NewVec3Zero(), 1e-6))
}

func TestCameraMovement(t *testing.T) {
	c := NewCamera(1)
	assert.True(t, c.Forward().Compare(math.NewVec3(0, 0, -1), 1e-6))
	assert.True(t, c.Right().Compare(math.NewVec3(1, 0, 0), 1e-6))

	c.MoveForward(2)
	c.MoveRight(1)
	c.MoveUp(3)
	assert.True(t, c.GetPosition().Compare(math.NewVec3(1, 3, -2), 1e-6))

	c.MoveBackward(2)
	c.MoveLeft(1)
	c.MoveDown(3)
	assert.True(t, c.GetPosition().Compare(math.NewVec3Zero(), 1e-6))
}

func TestCameraRotation(t *testing.T) {
	c := NewCamera(1)
	c.Yaw(math.DegToRad(90))
	forward := c.Forward()
	assert.InDelta(t, 1, forward.Length(), 1e-5)
	assert.InDelta(t, 0, forward.Z, 1e-5)

	c.Pitch(10)
	assert.InDelta(t, 1.55334306, c.GetEulerRotation().X, 1e-6)
	c.Pitch(-20)
	assert.InDelta(t, -1.55334306, c.GetEulerRotation().X, 1e-6)

	c.Reset()
	assert.Equal(t, math.NewVec3Zero(), c.GetEulerRotation())
}
