package vke

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func testImage(t *testing.T, d *fakeDevice, format vk.Format) *Image {
	t.Helper()
	img, err := newImage(d, ImageOptions{
		Width:  64,
		Height: 32,
		Format: format,
		Tiling: vk.ImageTilingOptimal,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
	})
	if err != nil {
		t.Fatalf("newImage: %v", err)
	}
	return img
}

func TestTransitionTable(t *testing.T) {
	layouts := []vk.ImageLayout{
		vk.ImageLayoutUndefined,
		vk.ImageLayoutGeneral,
		vk.ImageLayoutColorAttachmentOptimal,
		vk.ImageLayoutTransferSrcOptimal,
		vk.ImageLayoutTransferDstOptimal,
		vk.ImageLayoutShaderReadOnlyOptimal,
	}
	for _, from := range layouts {
		for _, to := range layouts {
			_, err := transitionFor(from, to)
			supported := (from == vk.ImageLayoutUndefined && to == vk.ImageLayoutTransferDstOptimal) ||
				(from == vk.ImageLayoutTransferDstOptimal && to == vk.ImageLayoutShaderReadOnlyOptimal)
			if supported && err != nil {
				t.Errorf("%d -> %d rejected: %v", from, to, err)
			}
			if !supported && !errors.Is(err, ErrUnsupportedLayoutTransition) {
				t.Errorf("%d -> %d: got %v, want ErrUnsupportedLayoutTransition", from, to, err)
			}
		}
	}
}

func TestTransitionMasks(t *testing.T) {
	tr, err := transitionFor(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if tr.srcAccess != 0 || tr.dstAccess != vk.AccessFlags(vk.AccessTransferWriteBit) {
		t.Errorf("upload access masks %v -> %v", tr.srcAccess, tr.dstAccess)
	}
	if tr.srcStage != vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit) ||
		tr.dstStage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) {
		t.Errorf("upload stages %v -> %v", tr.srcStage, tr.dstStage)
	}

	tr, err = transitionFor(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if tr.srcAccess != vk.AccessFlags(vk.AccessTransferWriteBit) || tr.dstAccess != vk.AccessFlags(vk.AccessShaderReadBit) {
		t.Errorf("sample access masks %v -> %v", tr.srcAccess, tr.dstAccess)
	}
	if tr.dstStage != vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit) {
		t.Errorf("sample dst stage %v", tr.dstStage)
	}
}

func TestImageTransitionTracksLayout(t *testing.T) {
	d := newFakeDevice()
	img := testImage(t, d, vk.FormatR8g8b8a8Srgb)

	if img.Layout() != vk.ImageLayoutUndefined {
		t.Fatalf("initial layout %d", img.Layout())
	}
	if err := img.TransitionImageLayout(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err == nil {
		t.Error("transition from a layout the image is not in accepted")
	}
	if err := img.TransitionImageLayout(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		t.Fatal(err)
	}
	if err := img.TransitionImageLayout(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		t.Fatal(err)
	}
	if img.Layout() != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("layout %d after upload", img.Layout())
	}
	if len(d.barriers) != 2 {
		t.Fatalf("%d barriers recorded", len(d.barriers))
	}
	b := d.barriers[1]
	if b.OldLayout != vk.ImageLayoutTransferDstOptimal || b.NewLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("barrier layouts %d -> %d", b.OldLayout, b.NewLayout)
	}
	if b.SubresourceRange.AspectMask != vk.ImageAspectFlags(vk.ImageAspectColorBit) {
		t.Errorf("barrier aspect %v", b.SubresourceRange.AspectMask)
	}

	if err := img.TransitionImageLayout(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutGeneral); !errors.Is(err, ErrUnsupportedLayoutTransition) {
		t.Errorf("got %v", err)
	}
	if img.Layout() != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Error("failed transition changed the tracked layout")
	}
}

func TestImageSingleView(t *testing.T) {
	d := newFakeDevice()
	img := testImage(t, d, vk.FormatR8g8b8a8Srgb)

	if err := img.CreateImageView(vk.ImageAspectFlags(vk.ImageAspectColorBit)); err != nil {
		t.Fatal(err)
	}
	err := img.CreateImageView(vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if !errors.Is(err, ErrViewExists) || !errors.HasAssertionFailure(err) {
		t.Errorf("second view: %v", err)
	}
}

func TestImageDestroyOrder(t *testing.T) {
	d := newFakeDevice()
	img := testImage(t, d, vk.FormatD32Sfloat)
	if err := img.CreateImageView(aspectFor(img.Format)); err != nil {
		t.Fatal(err)
	}

	d.calls = nil
	img.Destroy()
	img.Destroy()
	want := []string{"destroyImageView", "destroyImage", "freeMemory"}
	if strings.Join(d.calls, ",") != strings.Join(want, ",") {
		t.Errorf("destroy calls %v, want %v", d.calls, want)
	}
	if leaks := d.leaks(); len(leaks) != 0 {
		t.Errorf("leaked %v", leaks)
	}
}

func TestAspectFor(t *testing.T) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	stencil := vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	cases := map[vk.Format]vk.ImageAspectFlags{
		vk.FormatD32Sfloat:       depth,
		vk.FormatD32SfloatS8Uint: depth | stencil,
		vk.FormatD24UnormS8Uint:  depth | stencil,
		vk.FormatB8g8r8a8Srgb:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
		vk.FormatR8g8b8a8Srgb:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}
	for f, want := range cases {
		if got := aspectFor(f); got != want {
			t.Errorf("aspectFor(%d) = %v, want %v", f, got, want)
		}
		if hasStencilComponent(f) != (want&stencil != 0) {
			t.Errorf("hasStencilComponent(%d) wrong", f)
		}
	}
}
