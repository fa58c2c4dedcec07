package vke

import (
	"io"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Normal))},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.UV))},
	}
}

// ModelBuilder holds mesh data on the CPU until it is uploaded by NewModel.
type ModelBuilder struct {
	Vertices []Vertex
	Indices  []uint32
}

// LoadOBJ replaces the builder contents with the mesh in r. Polygons are
// fan triangulated and identical vertices share an index.
func (b *ModelBuilder) LoadOBJ(r io.Reader) error {
	decoder, err := obj.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return errors.Wrap(err, "decode obj")
	}

	b.Vertices = b.Vertices[:0]
	b.Indices = b.Indices[:0]
	unique := make(map[Vertex]uint32)

	add := func(face obj.Face, i int) {
		v := objVertex(decoder, face, i)
		index, ok := unique[v]
		if !ok {
			index = uint32(len(b.Vertices))
			b.Vertices = append(b.Vertices, v)
			unique[v] = index
		}
		b.Indices = append(b.Indices, index)
	}

	for _, o := range decoder.Objects {
		for _, face := range o.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				add(face, 0)
				add(face, i-1)
				add(face, i)
			}
		}
	}
	return nil
}

func objVertex(decoder *obj.Decoder, face obj.Face, i int) Vertex {
	v := Vertex{Color: mgl32.Vec3{1, 1, 1}}

	if vi := face.Vertices[i]; vi >= 0 && vi*3+2 < len(decoder.Vertices) {
		v.Position = mgl32.Vec3{
			decoder.Vertices[vi*3],
			decoder.Vertices[vi*3+1],
			decoder.Vertices[vi*3+2],
		}
	}
	if i < len(face.Normals) {
		if ni := face.Normals[i]; ni >= 0 && ni*3+2 < len(decoder.Normals) {
			v.Normal = mgl32.Vec3{
				decoder.Normals[ni*3],
				decoder.Normals[ni*3+1],
				decoder.Normals[ni*3+2],
			}
		}
	}
	if i < len(face.Uvs) {
		if ui := face.Uvs[i]; ui >= 0 && ui*2+1 < len(decoder.Uvs) {
			v.UV = mgl32.Vec2{
				decoder.Uvs[ui*2],
				decoder.Uvs[ui*2+1],
			}
		}
	}
	return v
}

// NewCubeBuilder returns a unit cube centered on offset with one color per
// face.
func NewCubeBuilder(offset mgl32.Vec3) *ModelBuilder {
	face := func(color mgl32.Vec3, corners ...mgl32.Vec3) []Vertex {
		out := make([]Vertex, len(corners))
		for i, c := range corners {
			out[i] = Vertex{Position: c.Add(offset), Color: color}
		}
		return out
	}

	var b ModelBuilder
	// left, right, top, bottom, nose, tail; y points down
	b.Vertices = append(b.Vertices, face(mgl32.Vec3{.9, .9, .9},
		mgl32.Vec3{-.5, -.5, -.5}, mgl32.Vec3{-.5, .5, .5}, mgl32.Vec3{-.5, -.5, .5}, mgl32.Vec3{-.5, .5, -.5})...)
	b.Vertices = append(b.Vertices, face(mgl32.Vec3{.8, .9, .1},
		mgl32.Vec3{.5, -.5, -.5}, mgl32.Vec3{.5, .5, .5}, mgl32.Vec3{.5, -.5, .5}, mgl32.Vec3{.5, .5, -.5})...)
	b.Vertices = append(b.Vertices, face(mgl32.Vec3{.9, .6, .1},
		mgl32.Vec3{-.5, -.5, -.5}, mgl32.Vec3{.5, -.5, .5}, mgl32.Vec3{-.5, -.5, .5}, mgl32.Vec3{.5, -.5, -.5})...)
	b.Vertices = append(b.Vertices, face(mgl32.Vec3{.8, .1, .1},
		mgl32.Vec3{-.5, .5, -.5}, mgl32.Vec3{.5, .5, .5}, mgl32.Vec3{-.5, .5, .5}, mgl32.Vec3{.5, .5, -.5})...)
	b.Vertices = append(b.Vertices, face(mgl32.Vec3{.1, .1, .8},
		mgl32.Vec3{-.5, -.5, .5}, mgl32.Vec3{.5, .5, .5}, mgl32.Vec3{-.5, .5, .5}, mgl32.Vec3{.5, -.5, .5})...)
	b.Vertices = append(b.Vertices, face(mgl32.Vec3{.1, .8, .1},
		mgl32.Vec3{-.5, -.5, -.5}, mgl32.Vec3{.5, .5, -.5}, mgl32.Vec3{-.5, .5, -.5}, mgl32.Vec3{.5, -.5, -.5})...)

	for f := uint32(0); f < 6; f++ {
		base := f * 4
		b.Indices = append(b.Indices, base, base+1, base+2, base, base+3, base+1)
	}
	return &b
}

// Model is a mesh resident in device local memory.
type Model struct {
	vertexBuffer *Buffer
	vertexCount  uint32
	indexBuffer  *Buffer
	indexCount   uint32
}

func NewModel(d *Device, b *ModelBuilder) (*Model, error) {
	if len(b.Vertices) < 3 {
		return nil, misuse(errors.Newf("model needs at least 3 vertices, got %d", len(b.Vertices)))
	}

	m := &Model{vertexCount: uint32(len(b.Vertices))}
	var err error
	m.vertexBuffer, err = uploadBuffer(d, SliceBytes(b.Vertices), vk.DeviceSize(unsafe.Sizeof(Vertex{})), m.vertexCount,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, errors.Wrap(err, "vertex buffer")
	}

	if len(b.Indices) > 0 {
		m.indexCount = uint32(len(b.Indices))
		m.indexBuffer, err = uploadBuffer(d, SliceBytes(b.Indices), 4, m.indexCount,
			vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
		if err != nil {
			m.vertexBuffer.Destroy()
			return nil, errors.Wrap(err, "index buffer")
		}
	}
	return m, nil
}

// uploadBuffer copies data into a new device local buffer through a
// host visible staging buffer.
func uploadBuffer(d *Device, data []byte, instanceSize vk.DeviceSize, count uint32, usage vk.BufferUsageFlags) (*Buffer, error) {
	staging, err := NewBuffer(d, instanceSize, count,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := staging.Map(WholeSize, 0); err != nil {
		return nil, err
	}
	if err := staging.WriteToBuffer(data, WholeSize, 0); err != nil {
		return nil, err
	}

	dst, err := NewBuffer(d, instanceSize, count,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 1)
	if err != nil {
		return nil, err
	}
	if err := d.CopyBuffer(staging.VKBuffer, dst.VKBuffer, staging.Size()); err != nil {
		dst.Destroy()
		return nil, err
	}
	return dst, nil
}

func (m *Model) Bind(cb vk.CommandBuffer) {
	vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{m.vertexBuffer.VKBuffer}, []vk.DeviceSize{0})
	if m.indexBuffer != nil {
		vk.CmdBindIndexBuffer(cb, m.indexBuffer.VKBuffer, 0, vk.IndexTypeUint32)
	}
}

func (m *Model) Draw(cb vk.CommandBuffer) {
	if m.indexBuffer != nil {
		vk.CmdDrawIndexed(cb, m.indexCount, 1, 0, 0, 0)
		return
	}
	vk.CmdDraw(cb, m.vertexCount, 1, 0, 0)
}

func (m *Model) VertexCount() uint32 {
	return m.vertexCount
}

func (m *Model) IndexCount() uint32 {
	return m.indexCount
}

func (m *Model) Destroy() {
	m.vertexBuffer.Destroy()
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
	}
}
