package vke

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

const textureFormat = vk.FormatR8g8b8a8Srgb

// Texture is a sampled RGBA image with its sampler.
type Texture struct {
	device  vk.Device
	image   *Image
	Sampler vk.Sampler
}

func NewTextureFromFile(d *Device, path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open texture")
	}
	defer f.Close()

	t, err := NewTexture(d, f)
	if err != nil {
		return nil, errors.Wrapf(err, "texture %s", path)
	}
	return t, nil
}

// NewTexture decodes a PNG, JPEG, BMP or TIFF image from r and uploads it.
func NewTexture(d *Device, r io.Reader) (*Texture, error) {
	rgba, err := decodeRGBA(r, d.Limits().MaxImageDimension2D)
	if err != nil {
		return nil, err
	}
	return NewTextureFromRGBA(d, rgba)
}

// decodeRGBA decodes r and converts it to tightly packed RGBA, scaling it
// down so neither side exceeds maxDim.
func decodeRGBA(r io.Reader, maxDim uint32) (*image.RGBA, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode texture")
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, errors.Newf("empty %s image", format)
	}

	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && (w > int(maxDim) || h > int(maxDim)) {
		scale := float64(maxDim) / float64(max(w, h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
		Logger().Warn("texture exceeds device limit, downscaling",
			"from", b.Size(), "to", image.Pt(w, h))
		m := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(m, m.Bounds(), src, b, draw.Src, nil)
		return m, nil
	}

	m := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)
	return m, nil
}

// NewTextureFromRGBA uploads img through a staging buffer into an optimal
// tiled image ready for sampling.
func NewTextureFromRGBA(d *Device, img *image.RGBA) (*Texture, error) {
	width, height := uint32(img.Rect.Dx()), uint32(img.Rect.Dy())
	size := vk.DeviceSize(width) * vk.DeviceSize(height) * 4

	staging, err := NewBuffer(d, size, 1,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, errors.Wrap(err, "texture staging buffer")
	}
	defer staging.Destroy()

	if err := staging.Map(WholeSize, 0); err != nil {
		return nil, err
	}
	if err := staging.WriteToBuffer(packedPixels(img), WholeSize, 0); err != nil {
		return nil, err
	}

	texImage, err := NewImage(d, ImageOptions{
		Width:            width,
		Height:           height,
		Format:           textureFormat,
		Tiling:           vk.ImageTilingOptimal,
		Usage:            vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		MemoryProperties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	})
	if err != nil {
		return nil, err
	}

	t := &Texture{device: d.VKDevice, image: texImage}
	if err := t.upload(staging); err != nil {
		texImage.Destroy()
		return nil, err
	}
	if err := texImage.CreateImageView(vk.ImageAspectFlags(vk.ImageAspectColorBit)); err != nil {
		texImage.Destroy()
		return nil, err
	}
	if t.Sampler, err = createSampler(d); err != nil {
		texImage.Destroy()
		return nil, err
	}
	return t, nil
}

func (t *Texture) upload(staging *Buffer) error {
	if err := t.image.TransitionImageLayout(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}
	if err := staging.WriteToImage(t.image, t.image.Width, t.image.Height); err != nil {
		return err
	}
	return t.image.TransitionImageLayout(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
}

// packedPixels returns the pixel rows of img without stride padding.
func packedPixels(img *image.RGBA) []byte {
	w := img.Rect.Dx() * 4
	if img.Stride == w {
		return img.Pix[:w*img.Rect.Dy()]
	}
	out := make([]byte, 0, w*img.Rect.Dy())
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		out = append(out, row[:w]...)
	}
	return out
}

func createSampler(d *Device) (vk.Sampler, error) {
	var samplerInfo = vk.SamplerCreateInfo{}
	samplerInfo.SType = vk.StructureTypeSamplerCreateInfo
	samplerInfo.MagFilter = vk.FilterLinear
	samplerInfo.MinFilter = vk.FilterLinear
	samplerInfo.MipmapMode = vk.SamplerMipmapModeLinear
	samplerInfo.AddressModeU = vk.SamplerAddressModeRepeat
	samplerInfo.AddressModeV = vk.SamplerAddressModeRepeat
	samplerInfo.AddressModeW = vk.SamplerAddressModeRepeat
	samplerInfo.AnisotropyEnable = vk.True
	samplerInfo.MaxAnisotropy = d.Limits().MaxSamplerAnisotropy
	samplerInfo.CompareEnable = vk.False
	samplerInfo.CompareOp = vk.CompareOpAlways
	samplerInfo.BorderColor = vk.BorderColorIntOpaqueBlack
	samplerInfo.UnnormalizedCoordinates = vk.False

	var sampler vk.Sampler
	err := vkError(vk.CreateSampler(d.VKDevice, &samplerInfo, nil, &sampler), "create sampler")
	return sampler, err
}

func (t *Texture) Width() uint32 {
	return t.image.Width
}

func (t *Texture) Height() uint32 {
	return t.image.Height
}

func (t *Texture) ImageView() vk.ImageView {
	return t.image.VKImageView
}

func (t *Texture) DescriptorInfo() vk.DescriptorImageInfo {
	return t.image.DescriptorInfo(t.Sampler)
}

// Destroy releases the sampler, then the image.
func (t *Texture) Destroy() {
	vk.DestroySampler(t.device, t.Sampler, nil)
	t.image.Destroy()
}
