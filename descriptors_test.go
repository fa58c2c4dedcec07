package vke

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var allGraphics = vk.ShaderStageFlags(vk.ShaderStageAllGraphics)

func TestLayoutBuilderDuplicateBinding(t *testing.T) {
	b := NewDescriptorSetLayoutBuilder().
		AddBinding(0, vk.DescriptorTypeUniformBuffer, allGraphics, 1).
		AddBinding(0, vk.DescriptorTypeCombinedImageSampler, allGraphics, 1)

	_, err := b.layout()
	if !errors.Is(err, ErrDuplicateBinding) {
		t.Errorf("got %v, want ErrDuplicateBinding", err)
	}
	if !errors.HasAssertionFailure(err) {
		t.Error("duplicate binding not marked as misuse")
	}
}

func TestLayoutBuilderSortsBindings(t *testing.T) {
	layout, err := NewDescriptorSetLayoutBuilder().
		AddBinding(2, vk.DescriptorTypeCombinedImageSampler, allGraphics, 1).
		AddBinding(0, vk.DescriptorTypeUniformBuffer, allGraphics, 1).
		AddBinding(1, vk.DescriptorTypeStorageBuffer, allGraphics, 4).
		layout()
	if err != nil {
		t.Fatal(err)
	}
	list := layout.sortedBindings()
	for i, b := range list {
		if b.Binding != uint32(i) {
			t.Errorf("position %d holds binding %d", i, b.Binding)
		}
	}
	if list[1].DescriptorCount != 4 {
		t.Errorf("binding 1 count %d", list[1].DescriptorCount)
	}
}

func testLayout(t *testing.T) *DescriptorSetLayout {
	t.Helper()
	layout, err := NewDescriptorSetLayoutBuilder().
		AddBinding(0, vk.DescriptorTypeUniformBuffer, allGraphics, 1).
		AddBinding(1, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 1).
		AddBinding(2, vk.DescriptorTypeSampledImage, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 3).
		layout()
	if err != nil {
		t.Fatal(err)
	}
	return layout
}

func TestWriterUnknownBinding(t *testing.T) {
	w := NewDescriptorWriter(testLayout(t), nil).
		WriteBuffer(0, vk.DescriptorBufferInfo{Range: 64}).
		WriteImage(7, vk.DescriptorImageInfo{})

	_, err := w.Build()
	if !errors.Is(err, ErrUnknownBinding) {
		t.Errorf("got %v, want ErrUnknownBinding", err)
	}
	if err := w.Overwrite(nil); !errors.Is(err, ErrUnknownBinding) {
		t.Errorf("Overwrite: got %v", err)
	}
}

func TestWriterArrayBinding(t *testing.T) {
	w := NewDescriptorWriter(testLayout(t), nil).
		WriteImage(2, vk.DescriptorImageInfo{})
	if _, err := w.Build(); err == nil || !errors.HasAssertionFailure(err) {
		t.Errorf("write to array binding: %v", err)
	}
}

func TestWriterRecordsTypes(t *testing.T) {
	w := NewDescriptorWriter(testLayout(t), nil).
		WriteBuffer(0, vk.DescriptorBufferInfo{Range: 64}).
		WriteImage(1, vk.DescriptorImageInfo{ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal})
	if w.err != nil {
		t.Fatal(w.err)
	}
	if len(w.writes) != 2 {
		t.Fatalf("%d writes", len(w.writes))
	}
	if w.writes[0].DescriptorType != vk.DescriptorTypeUniformBuffer || len(w.writes[0].PBufferInfo) != 1 {
		t.Errorf("buffer write %+v", w.writes[0])
	}
	if w.writes[1].DescriptorType != vk.DescriptorTypeCombinedImageSampler || len(w.writes[1].PImageInfo) != 1 {
		t.Errorf("image write %+v", w.writes[1])
	}
}

func TestPoolBuilder(t *testing.T) {
	b := NewDescriptorPoolBuilder().
		AddPoolSize(vk.DescriptorTypeUniformBuffer, MaxFramesInFlight).
		AddPoolSize(vk.DescriptorTypeCombinedImageSampler, 4)

	info := b.createInfo()
	if info.MaxSets != 1000 {
		t.Errorf("default max sets %d", info.MaxSets)
	}
	if info.PoolSizeCount != 2 || info.PPoolSizes[1].DescriptorCount != 4 {
		t.Errorf("pool sizes %+v", info.PPoolSizes)
	}

	info = b.SetMaxSets(MaxFramesInFlight).
		SetPoolFlags(vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit)).
		createInfo()
	if info.MaxSets != MaxFramesInFlight || info.Flags == 0 {
		t.Errorf("create info %+v", info)
	}
}
