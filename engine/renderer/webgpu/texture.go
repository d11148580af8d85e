package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

type textureResources struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (t *textureResources) release() {
	if t.sampler != nil {
		t.sampler.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

func textureData(tex *metadata.Texture) (*textureResources, bool) {
	if tex == nil {
		return nil, false
	}
	data, ok := tex.InternalData.(*textureResources)
	return data, ok && data.view != nil
}

// CreateTexture uploads an RGBA image and stores the texture, its view and a
// repeating linear sampler in texture.InternalData.
//
// Parameters:
//   - img: the source pixels, four bytes per pixel
//   - texture: the texture receiving the GPU resources
//
// Returns:
//   - error: core.ErrInvalidTexture for empty or malformed images
func (d *Device) CreateTexture(img *metadata.Image, texture *metadata.Texture) error {
	if img == nil || texture == nil {
		return fmt.Errorf("nil image or texture: %w", core.ErrInvalidTexture)
	}
	if img.Width == 0 || img.Height == 0 || uint32(len(img.Pixels)) != img.Width*img.Height*4 {
		return fmt.Errorf("image '%s' is %dx%d with %d bytes: %w", img.Name, img.Width, img.Height, len(img.Pixels), core.ErrInvalidTexture)
	}

	size := wgpu.Extent3D{Width: img.Width, Height: img.Height, DepthOrArrayLayers: 1}
	res := &textureResources{}
	var err error
	res.texture, err = d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         img.Name,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	if err := d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: res.texture, Aspect: wgpu.TextureAspectAll},
		img.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: img.Width * 4, RowsPerImage: img.Height},
		&size,
	); err != nil {
		res.release()
		return err
	}
	if res.view, err = res.texture.CreateView(nil); err != nil {
		res.release()
		return err
	}
	res.sampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         img.Name + " Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		res.release()
		return err
	}

	d.DestroyTexture(texture)
	texture.Width = img.Width
	texture.Height = img.Height
	texture.ChannelCount = 4
	texture.Generation++
	texture.InternalData = res
	return nil
}

func (d *Device) DestroyTexture(texture *metadata.Texture) {
	if texture == nil {
		return
	}
	if res, ok := texture.InternalData.(*textureResources); ok {
		res.release()
	}
	texture.InternalData = nil
}
