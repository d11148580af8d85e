package components

import (
	"github.com/spaghettifunk/gef/engine/math"
)

/**
 * @brief A perspective camera. The view matrix is rebuilt lazily from the
 * position and the Euler rotation, the projection from the field of view,
 * aspect ratio and clip planes.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	/**
	 * @brief The rotation of this camera using Euler angles (pitch, yaw, roll).
	 * NOTE: Do not set this directly, use SetEulerRotation() instead.
	 */
	EulerRotation math.Vec3
	/** @brief Vertical field of view in radians. */
	FOV float32
	/** @brief Width over height of the target. */
	Aspect   float32
	NearClip float32
	FarClip  float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead.
	 */
	ViewMatrix math.Mat4
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

func NewCamera(aspect float32) *Camera {
	camera := &Camera{}
	camera.Reset()
	if aspect > 0 {
		camera.Aspect = aspect
	}
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = math.NewVec3Zero()
	c.Position = math.NewVec3Zero()
	c.FOV = math.DegToRad(45.0)
	c.Aspect = 16.0 / 9.0
	c.NearClip = 0.1
	c.FarClip = 1000.0
	c.IsDirty = false
	c.ViewMatrix = math.NewMat4Identity()
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) GetEulerRotation() math.Vec3 {
	return c.EulerRotation
}

func (c *Camera) SetEulerRotation(rotation math.Vec3) {
	c.EulerRotation = rotation
	c.IsDirty = true
}

func (c *Camera) rotation() math.Mat4 {
	return math.NewMat4EulerXYZ(c.EulerRotation.X, c.EulerRotation.Y, c.EulerRotation.Z)
}

// GetView returns the inverse of the camera's rotation followed by its
// translation.
func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		translation := math.NewMat4Translation(c.Position)

		c.ViewMatrix = c.rotation().Mul(translation)
		c.ViewMatrix = c.ViewMatrix.Inverse()

		c.IsDirty = false
	}
	return c.ViewMatrix
}

func (c *Camera) Projection() math.Mat4 {
	return math.NewMat4Perspective(c.FOV, c.Aspect, c.NearClip, c.FarClip)
}

// Forward points down the camera's -Z axis.
func (c *Camera) Forward() math.Vec3 {
	return math.NewVec3(0, 0, -1).Transform(c.rotation()).Normalized()
}

func (c *Camera) Right() math.Vec3 {
	return math.NewVec3(1, 0, 0).Transform(c.rotation()).Normalized()
}

func (c *Camera) MoveForward(amount float32) {
	c.move(c.Forward().MulScalar(amount))
}

func (c *Camera) MoveBackward(amount float32) {
	c.move(c.Forward().MulScalar(-amount))
}

func (c *Camera) MoveLeft(amount float32) {
	c.move(c.Right().MulScalar(-amount))
}

func (c *Camera) MoveRight(amount float32) {
	c.move(c.Right().MulScalar(amount))
}

func (c *Camera) MoveUp(amount float32) {
	c.move(math.NewVec3(0, amount, 0))
}

func (c *Camera) MoveDown(amount float32) {
	c.move(math.NewVec3(0, -amount, 0))
}

func (c *Camera) move(delta math.Vec3) {
	c.Position = c.Position.Add(delta)
	c.IsDirty = true
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation.Y += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation.X += amount

	// Clamp to avoid Gimbal lock.
	limit := float32(1.55334306) // 89 degrees
	c.EulerRotation.X = math.Clamp(c.EulerRotation.X, -limit, limit)

	c.IsDirty = true
}
