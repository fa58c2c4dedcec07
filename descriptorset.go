package vke

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorWriter accumulates writes for a set with a known layout. The
// first invalid write is reported by Build or Overwrite.
type DescriptorWriter struct {
	layout *DescriptorSetLayout
	pool   *DescriptorPool
	writes []vk.WriteDescriptorSet
	err    error
}

func NewDescriptorWriter(layout *DescriptorSetLayout, pool *DescriptorPool) *DescriptorWriter {
	return &DescriptorWriter{layout: layout, pool: pool}
}

func (w *DescriptorWriter) binding(binding uint32) (vk.DescriptorSetLayoutBinding, bool) {
	if w.err != nil {
		return vk.DescriptorSetLayoutBinding{}, false
	}
	desc, ok := w.layout.Bindings[binding]
	if !ok {
		w.err = misuse(errors.Wrapf(ErrUnknownBinding, "binding %d", binding))
		return desc, false
	}
	if desc.DescriptorCount != 1 {
		w.err = misuse(errors.Newf("binding %d expects %d descriptors, writer handles single descriptors", binding, desc.DescriptorCount))
		return desc, false
	}
	return desc, true
}

func (w *DescriptorWriter) WriteBuffer(binding uint32, info vk.DescriptorBufferInfo) *DescriptorWriter {
	desc, ok := w.binding(binding)
	if !ok {
		return w
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  desc.DescriptorType,
		PBufferInfo:     []vk.DescriptorBufferInfo{info},
	})
	return w
}

func (w *DescriptorWriter) WriteImage(binding uint32, info vk.DescriptorImageInfo) *DescriptorWriter {
	desc, ok := w.binding(binding)
	if !ok {
		return w
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  desc.DescriptorType,
		PImageInfo:      []vk.DescriptorImageInfo{info},
	})
	return w
}

// Build allocates a set from the pool and applies the pending writes.
func (w *DescriptorWriter) Build() (vk.DescriptorSet, error) {
	if w.err != nil {
		return nil, w.err
	}
	set, err := w.pool.AllocateDescriptor(w.layout)
	if err != nil {
		return nil, err
	}
	if err := w.Overwrite(set); err != nil {
		return nil, err
	}
	return set, nil
}

// Overwrite applies the pending writes to an existing set.
func (w *DescriptorWriter) Overwrite(set vk.DescriptorSet) error {
	if w.err != nil {
		return w.err
	}
	for i := range w.writes {
		w.writes[i].DstSet = set
	}
	if len(w.writes) == 0 {
		return nil
	}
	vk.UpdateDescriptorSets(w.pool.device, uint32(len(w.writes)), w.writes, 0, nil)
	return nil
}
