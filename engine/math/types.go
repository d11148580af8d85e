package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief a 4x4 matrix stored row-major. Vectors are treated as rows,
 * so a transform applies as v*M and the translation lives in row 3.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief An axis aligned bounding box.
 */
type Aabb struct {
	/** @brief The minimum extents of the box. */
	Min Vec3
	/** @brief The maximum extents of the box. */
	Max Vec3
}

/**
 * @brief A bounding sphere.
 */
type Sphere struct {
	Position Vec3
	Radius   float32
}
