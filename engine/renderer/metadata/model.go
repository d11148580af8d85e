package metadata

/**
 * @brief A loaded model. The model owns its materials and textures, the
 * mesh primitives only point into them.
 */
type Model struct {
	ID        string
	Name      string
	Mesh      *Mesh
	Materials map[string]*Material
	Textures  map[string]*Texture
}

// Release drops every reference held by the model and hands each texture to
// destroy, if not nil, so the backend can free it.
func (m *Model) Release(destroy func(t *Texture)) {
	if destroy != nil {
		for _, t := range m.Textures {
			destroy(t)
		}
	}
	m.Textures = nil
	m.Materials = nil
	if m.Mesh != nil {
		for _, p := range m.Mesh.Primitives {
			p.Material = nil
		}
		m.Mesh = nil
	}
}
