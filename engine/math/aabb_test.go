package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAabbUpdate(t *testing.T) {
	box := NewAabb()
	assert.True(t, box.IsEmpty())

	box.Update(NewVec3(0, 0, 0))
	box.Update(NewVec3(1, 0, 0))
	box.Update(NewVec3(0, 1, 0))

	assert.False(t, box.IsEmpty())
	assert.Equal(t, NewVec3(0, 0, 0), box.Min)
	assert.Equal(t, NewVec3(1, 1, 0), box.Max)
	assert.Equal(t, NewVec3(0.5, 0.5, 0), box.Centre())
}

func TestAabbCorners(t *testing.T) {
	box := NewAabbFromMinMax(NewVec3(-1, -2, -3), NewVec3(1, 2, 3))
	corners := box.Corners()
	assert.Equal(t, NewVec3(-1, -2, -3), corners[0])
	assert.Equal(t, NewVec3(1, -2, -3), corners[1])
	assert.Equal(t, NewVec3(-1, 2, -3), corners[2])
	assert.Equal(t, NewVec3(-1, -2, 3), corners[4])
	assert.Equal(t, NewVec3(1, 2, 3), corners[7])
}

func TestAabbTransform(t *testing.T) {
	box := NewAabbFromMinMax(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	moved := box.Transform(NewMat4Translation(NewVec3(10, 0, 0)))
	assert.True(t, moved.Min.Compare(NewVec3(9, -1, -1), tolerance))
	assert.True(t, moved.Max.Compare(NewVec3(11, 1, 1), tolerance))

	// a 45 degree turn about y widens the box in x and z
	turned := box.Transform(NewMat4EulerY(K_PI * 0.25))
	assert.InDelta(t, 1.41421, turned.Max.X, 1e-4)
	assert.InDelta(t, 1.41421, turned.Max.Z, 1e-4)
	assert.InDelta(t, 1, turned.Max.Y, 1e-5)
}

func TestSphereFromAabb(t *testing.T) {
	box := NewAabbFromMinMax(NewVec3(0, 0, 0), NewVec3(2, 2, 2))
	sphere := NewSphereFromAabb(box)
	assert.Equal(t, NewVec3(1, 1, 1), sphere.Position)
	assert.InDelta(t, 1.7320508, sphere.Radius, 1e-5)
}
