package math

// NewAabb returns an empty box that any Update will snap to the first point.
func NewAabb() Aabb {
	return Aabb{
		Min: Vec3{X: K_INFINITY, Y: K_INFINITY, Z: K_INFINITY},
		Max: Vec3{X: -K_INFINITY, Y: -K_INFINITY, Z: -K_INFINITY},
	}
}

func NewAabbFromMinMax(min, max Vec3) Aabb {
	return Aabb{Min: min, Max: max}
}

// Update grows the box to contain point.
func (a *Aabb) Update(point Vec3) {
	a.Min = a.Min.Min(point)
	a.Max = a.Max.Max(point)
}

// IsEmpty reports whether no point was ever added.
func (a Aabb) IsEmpty() bool {
	return a.Min.X > a.Max.X || a.Min.Y > a.Max.Y || a.Min.Z > a.Max.Z
}

func (a Aabb) Centre() Vec3 {
	return a.Min.Add(a.Max).MulScalar(0.5)
}

func (a Aabb) Size() Vec3 {
	return a.Max.Sub(a.Min)
}

/**
 * @brief Returns the eight corners of the box. Bit 0 of the corner index
 * selects max x, bit 1 max y and bit 2 max z.
 */
func (a Aabb) Corners() [8]Vec3 {
	var corners [8]Vec3
	for i := 0; i < 8; i++ {
		corners[i].X = a.Min.X
		if i&1 != 0 {
			corners[i].X = a.Max.X
		}
		corners[i].Y = a.Min.Y
		if i&2 != 0 {
			corners[i].Y = a.Max.Y
		}
		corners[i].Z = a.Min.Z
		if i&4 != 0 {
			corners[i].Z = a.Max.Z
		}
	}
	return corners
}

/**
 * @brief Returns the box enclosing this box after transformation by m.
 * Corners are divided by w.
 */
func (a Aabb) Transform(m Mat4) Aabb {
	out := NewAabb()
	for _, corner := range a.Corners() {
		p := corner.TransformW(m)
		if p.W != 0 && p.W != 1 {
			p = p.MulScalar(1.0 / p.W)
		}
		out.Update(p.ToVec3())
	}
	return out
}

// NewSphereFromAabb returns the sphere centred on the box, touching its corners.
func NewSphereFromAabb(a Aabb) Sphere {
	return Sphere{
		Position: a.Centre(),
		Radius:   a.Size().Length() * 0.5,
	}
}
