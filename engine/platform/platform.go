package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

const (
	defaultTextureSize       = 64
	defaultTextureCheckers   = 8
	defaultNormalTextureSize = 4
)

/**
 * @brief Owns the rendering device, the fallback textures every sampler
 * slot can resolve to and the list of live textures released on shutdown.
 */
type Platform struct {
	mu   sync.Mutex
	caps Capabilities

	device gpu.Device

	defaultTexture       *metadata.Texture
	defaultNormalTexture *metadata.Texture
	textures             map[*metadata.Texture]struct{}

	// frameDepth counts the open BeginFrame calls.
	frameDepth int
	frames     uint64

	startTime time.Time
}

// New creates the device described by caps and the default textures.
func New(caps Capabilities) (*Platform, error) {
	device, err := NewDevice(caps)
	if err != nil {
		return nil, err
	}
	p, err := NewWithDevice(caps, device)
	if err != nil {
		_ = device.Shutdown()
		return nil, err
	}
	return p, nil
}

// NewWithDevice wraps a device created elsewhere. The platform takes
// ownership and shuts it down in Shutdown.
func NewWithDevice(caps Capabilities, device gpu.Device) (*Platform, error) {
	if device == nil {
		return nil, fmt.Errorf("platform needs a device: %w", core.ErrBackendUnavailable)
	}
	p := &Platform{
		caps:      caps,
		device:    device,
		textures:  make(map[*metadata.Texture]struct{}),
		startTime: time.Now(),
	}

	checker := metadata.NewCheckerImage(defaultTextureSize, defaultTextureCheckers)
	checker.Name = metadata.DEFAULT_TEXTURE_NAME
	tex, err := p.CreateTexture(checker)
	if err != nil {
		return nil, fmt.Errorf("default texture: %w", err)
	}
	p.defaultTexture = tex

	flat := metadata.NewSolidImage(defaultNormalTextureSize, metadata.NewColourFromABGR(0xffff8080))
	flat.Name = metadata.DEFAULT_NORMAL_TEXTURE_NAME
	if tex, err = p.CreateTexture(flat); err != nil {
		p.RemoveTexture(p.defaultTexture)
		return nil, fmt.Errorf("default normal texture: %w", err)
	}
	p.defaultNormalTexture = tex

	core.LogInfo("platform ready: %s backend, %dx%d", device.Backend(), caps.Width, caps.Height)
	return p, nil
}

func (p *Platform) Device() gpu.Device { return p.device }

func (p *Platform) Capabilities() Capabilities { return p.caps }

func (p *Platform) Width() uint32 { return p.caps.Width }

func (p *Platform) Height() uint32 { return p.caps.Height }

// Time returns the seconds elapsed since the platform started.
func (p *Platform) Time() float64 {
	return time.Since(p.startTime).Seconds()
}

func (p *Platform) DefaultTexture() *metadata.Texture { return p.defaultTexture }

func (p *Platform) DefaultNormalTexture() *metadata.Texture { return p.defaultNormalTexture }

/**
 * @brief Uploads img and tracks the new texture. The texture gets a fresh
 * id and takes the image name, or a generated one when the image has none.
 */
func (p *Platform) CreateTexture(img *metadata.Image) (*metadata.Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image: %w", core.ErrInvalidTexture)
	}
	id := uuid.NewString()
	name := img.Name
	if name == "" {
		name = "texture_" + id
	}
	tex := &metadata.Texture{ID: id, Name: name}
	if err := p.device.CreateTexture(img, tex); err != nil {
		core.LogError("unable to create texture '%s': %s", name, err)
		return nil, err
	}
	p.AddTexture(tex)
	return tex, nil
}

// AddTexture starts tracking a texture so Shutdown releases it.
func (p *Platform) AddTexture(texture *metadata.Texture) {
	if texture == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textures[texture] = struct{}{}
}

// RemoveTexture stops tracking texture and frees its backend data.
// Untracked textures are ignored.
func (p *Platform) RemoveTexture(texture *metadata.Texture) {
	if texture == nil {
		return
	}
	p.mu.Lock()
	_, ok := p.textures[texture]
	delete(p.textures, texture)
	p.mu.Unlock()
	if ok {
		p.device.DestroyTexture(texture)
	}
}

// LiveTextureCount returns the number of tracked textures, defaults included.
func (p *Platform) LiveTextureCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.textures)
}

/**
 * @brief Starts a frame on the device. Frames nest so that several
 * renderers can share one: only the outermost call clears, later calls
 * join the open frame.
 */
func (p *Platform) BeginFrame(clear gpu.ClearOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frameDepth > 0 {
		if clear.Flags != 0 {
			core.LogDebug("frame %d already open, clear ignored", p.frames)
		}
		p.frameDepth++
		return nil
	}
	if err := p.device.BeginFrame(clear); err != nil {
		return err
	}
	p.frameDepth = 1
	return nil
}

// EndFrame closes the frame opened by the matching BeginFrame and submits it
// when it was the outermost one.
func (p *Platform) EndFrame() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.frameDepth {
	case 0:
		return fmt.Errorf("no frame in progress")
	case 1:
		p.frameDepth = 0
		p.frames++
		return p.device.EndFrame()
	default:
		p.frameDepth--
		return nil
	}
}

// InFrame reports whether a frame is open.
func (p *Platform) InFrame() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameDepth > 0
}

// Frames returns the number of frames submitted.
func (p *Platform) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// ReleaseModel frees the textures of model and drops its references.
func (p *Platform) ReleaseModel(model *metadata.Model) {
	if model == nil {
		return
	}
	if model.Mesh != nil {
		p.device.DestroyMeshBuffers(model.Mesh)
	}
	model.Release(p.RemoveTexture)
}

// Shutdown releases every tracked texture and then the device.
func (p *Platform) Shutdown() error {
	p.mu.Lock()
	live := make([]*metadata.Texture, 0, len(p.textures))
	for t := range p.textures {
		live = append(live, t)
	}
	p.textures = make(map[*metadata.Texture]struct{})
	p.mu.Unlock()

	if n := len(live) - 2; n > 0 {
		core.LogDebug("releasing %d textures still alive at shutdown", n)
	}
	for _, t := range live {
		p.device.DestroyTexture(t)
	}
	p.defaultTexture = nil
	p.defaultNormalTexture = nil
	return p.device.Shutdown()
}
