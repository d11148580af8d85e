package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

/**
 * @brief Decodes png, jpeg, bmp, tiff and webp files into tightly packed
 * RGBA images.
 */
type TextureLoader struct {
	/** @brief Flip every image on the y-axis unless the params say otherwise. */
	FlipY bool
}

func (tl *TextureLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	flip := tl.FlipY
	if p, ok := params.(*metadata.ImageResourceParams); ok && p != nil {
		flip = p.FlipY
	}
	img, err := tl.load(path, flip)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeImage,
		Name:     img.Name,
		FullPath: path,
		DataSize: uint64(len(img.Pixels)),
		Data:     img,
	}, nil
}

func (tl *TextureLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return nil
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// LoadImage decodes the file at path with the loader's flip setting.
func (tl *TextureLoader) LoadImage(path string) (*metadata.Image, error) {
	return tl.load(path, tl.FlipY)
}

func (tl *TextureLoader) load(path string, flip bool) (*metadata.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding image '%s': %w", path, err)
	}
	if flip {
		src = imaging.FlipV(src)
	}
	img := ToImage(src)
	img.Name = filepath.Base(path)
	return img, nil
}

// ToImage converts any decoded image to the engine's RGBA layout.
func ToImage(src image.Image) *metadata.Image {
	b := src.Bounds()
	rgba, ok := src.(*image.NRGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}
	return &metadata.Image{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Pixels: rgba.Pix,
	}
}
