package systems

import (
	"fmt"
	"image"
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	vke "github.com/DaneLin/VulkanEngine"
)

// MouseSource is the pointer state the overlay reads every frame.
type MouseSource interface {
	CursorPos() (float64, float64)
	MouseButtonDown(button glfw.MouseButton) bool
}

var uiMouseButtons = [...]glfw.MouseButton{
	glfw.MouseButtonLeft,
	glfw.MouseButtonRight,
	glfw.MouseButtonMiddle,
}

type uiPushConstants struct {
	Scale     mgl32.Vec2
	Translate mgl32.Vec2
}

// uiTransform maps imgui's pixel coordinates onto clip space.
func uiTransform(width, height float32) uiPushConstants {
	return uiPushConstants{
		Scale:     mgl32.Vec2{2 / width, 2 / height},
		Translate: mgl32.Vec2{-1, -1},
	}
}

const minUIBufferSize = 4096

// UIOverlaySystem renders a Dear ImGui window showing frame times and the
// UISettings controls. NewFrame must be called once before each Draw.
type UIOverlaySystem struct {
	Settings *UISettings
	// Title is the first line of the window, usually the GPU name
	Title string

	device  *vke.Device
	context *imgui.Context
	io      imgui.IO
	extent  vk.Extent2D

	font      *vke.Texture
	setLayout *vke.DescriptorSetLayout
	pool      *vke.DescriptorPool
	fontSet   vk.DescriptorSet

	builder  *PipelineBuilder
	pipeline *vke.Pipeline

	vertexBuffers [vke.MaxFramesInFlight]*vke.Buffer
	indexBuffers  [vke.MaxFramesInFlight]*vke.Buffer
}

func NewUIOverlaySystem(t Target, settings *UISettings) (*UIOverlaySystem, error) {
	if settings == nil {
		settings = DefaultUISettings()
	}
	context := imgui.CreateContext(nil)
	io := imgui.CurrentIO()
	io.SetIniFilename("")

	s := &UIOverlaySystem{
		Settings: settings,
		device:   t.Device,
		context:  context,
		io:       io,
	}

	if err := s.createFontTexture(); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.createDescriptors(); err != nil {
		s.Destroy()
		return nil, err
	}

	// the overlay has no use for the global set
	t.GlobalSetLayout = nil
	var err error
	s.builder, err = NewPipelineBuilder(t, uint32(unsafe.Sizeof(uiPushConstants{})), s.setLayout)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.pipeline, err = s.builder.Build("ui", uiPipelineConfig(s.builder.Config()))
	if err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *UIOverlaySystem) createFontTexture() error {
	data := s.io.Fonts().TextureDataRGBA32()
	if data == nil || data.Width == 0 || data.Height == 0 {
		return errors.New("imgui font atlas is empty")
	}
	img := image.NewRGBA(image.Rect(0, 0, data.Width, data.Height))
	copy(img.Pix, unsafe.Slice((*byte)(data.Pixels), data.Width*data.Height*4))

	font, err := vke.NewTextureFromRGBA(s.device, img)
	if err != nil {
		return errors.Wrap(err, "upload imgui font")
	}
	s.font = font
	s.io.Fonts().SetTextureID(imgui.TextureID(1))
	return nil
}

func (s *UIOverlaySystem) createDescriptors() error {
	var err error
	s.setLayout, err = vke.NewDescriptorSetLayoutBuilder().
		AddBinding(0, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 1).
		Build(s.device)
	if err != nil {
		return err
	}
	s.pool, err = vke.NewDescriptorPoolBuilder().
		SetMaxSets(1).
		AddPoolSize(vk.DescriptorTypeCombinedImageSampler, 1).
		Build(s.device)
	if err != nil {
		return err
	}
	s.fontSet, err = vke.NewDescriptorWriter(s.setLayout, s.pool).
		WriteImage(0, s.font.DescriptorInfo()).
		Build()
	return err
}

func uiPipelineConfig(cfg vke.PipelineConfig) vke.PipelineConfig {
	size, posOffset, uvOffset, colOffset := imgui.VertexBufferLayout()
	cfg.BindingDescriptions = []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(size),
		InputRate: vk.VertexInputRateVertex,
	}}
	cfg.AttributeDescriptions = []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(posOffset)},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(uvOffset)},
		{Location: 2, Binding: 0, Format: vk.FormatR8g8b8a8Unorm, Offset: uint32(colOffset)},
	}
	cfg.EnableAlphaBlending()
	cfg.ColorBlendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
	cfg.DepthStencil.DepthTestEnable = vk.False
	cfg.DepthStencil.DepthWriteEnable = vk.False
	cfg.Rasterization.CullMode = vk.CullModeFlags(vk.CullModeNone)
	return cfg
}

// WantsMouse reports whether the overlay consumed the pointer last frame.
func (s *UIOverlaySystem) WantsMouse() bool {
	return s.io.WantCaptureMouse()
}

// NewFrame feeds input to imgui and builds this frame's widgets.
func (s *UIOverlaySystem) NewFrame(mouse MouseSource, extent vk.Extent2D, dt float32) {
	s.extent = extent
	s.io.SetDisplaySize(imgui.Vec2{X: float32(extent.Width), Y: float32(extent.Height)})
	if dt > 0 {
		s.io.SetDeltaTime(dt)
	}

	x, y := mouse.CursorPos()
	s.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	for i, b := range uiMouseButtons {
		s.io.SetMouseButtonDown(i, mouse.MouseButtonDown(b))
	}

	imgui.NewFrame()
	s.buildWindow()
	imgui.Render()
}

func (s *UIOverlaySystem) buildWindow() {
	st := s.Settings
	imgui.SetNextWindowPosV(imgui.Vec2{X: 10, Y: 10}, imgui.ConditionFirstUseEver, imgui.Vec2{})
	imgui.Begin("arc")
	if s.Title != "" {
		imgui.Text(s.Title)
	}
	imgui.Text(fmt.Sprintf("%.2f ms/frame (%.1f fps)", st.LastFrameTime(), fps(st.LastFrameTime())))
	imgui.PlotLinesV("Frame times", st.FrameTimes[:], 0, "", st.FrameTimeMin, st.FrameTimeMax, imgui.Vec2{X: 0, Y: 80})
	imgui.Checkbox("Display models", &st.DisplayModels)
	imgui.Checkbox("Animate light", &st.AnimateLight)
	imgui.SliderFloat("Light speed", &st.LightSpeed, 0.1, 1.0)
	imgui.End()
}

func fps(ms float32) float32 {
	if ms <= 0 {
		return 0
	}
	return 1000 / ms
}

// growCapacity rounds n up to a power of two of at least minUIBufferSize.
func growCapacity(n int) int {
	c := minUIBufferSize
	for c < n {
		c *= 2
	}
	return c
}

// ensureBuffer makes *slot a mapped host-visible buffer of at least size
// bytes. The slot's previous frame has finished by the time it is reused,
// so replacing the buffer needs no extra synchronization.
func (s *UIOverlaySystem) ensureBuffer(slot **vke.Buffer, size int, usage vk.BufferUsageFlagBits) (*vke.Buffer, error) {
	if b := *slot; b != nil && b.Size() >= vk.DeviceSize(size) {
		return b, nil
	}
	if *slot != nil {
		(*slot).Destroy()
		*slot = nil
	}
	b, err := vke.NewBuffer(s.device, 1, uint32(growCapacity(size)),
		vk.BufferUsageFlags(usage),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, err
	}
	if err := b.Map(vke.WholeSize, 0); err != nil {
		b.Destroy()
		return nil, err
	}
	*slot = b
	return b, nil
}

// uiScissor converts an imgui clip rectangle into a scissor clamped to the
// framebuffer. ok is false when nothing of the rectangle is visible.
func uiScissor(clip imgui.Vec4, extent vk.Extent2D) (vk.Rect2D, bool) {
	x0 := math.Max(float64(clip.X), 0)
	y0 := math.Max(float64(clip.Y), 0)
	x1 := math.Min(float64(clip.Z), float64(extent.Width))
	y1 := math.Min(float64(clip.W), float64(extent.Height))
	if x1 <= x0 || y1 <= y0 {
		return vk.Rect2D{}, false
	}
	return vk.Rect2D{
		Offset: vk.Offset2D{X: int32(x0), Y: int32(y0)},
		Extent: vk.Extent2D{Width: uint32(x1 - x0), Height: uint32(y1 - y0)},
	}, true
}

func (s *UIOverlaySystem) Draw(frame *FrameInfo) error {
	if frame == nil || frame.CommandBuffer == nil {
		return errors.AssertionFailedf("incomplete frame info")
	}
	drawData := imgui.RenderedDrawData()
	if !drawData.Valid() || s.extent.Width == 0 || s.extent.Height == 0 {
		return nil
	}
	lists := drawData.CommandLists()

	var vertexBytes, indexBytes int
	for _, list := range lists {
		_, vs := list.VertexBuffer()
		_, is := list.IndexBuffer()
		vertexBytes += vs
		indexBytes += is
	}
	if vertexBytes == 0 || indexBytes == 0 {
		return nil
	}

	vb, err := s.ensureBuffer(&s.vertexBuffers[frame.FrameIndex], vertexBytes, vk.BufferUsageVertexBufferBit)
	if err != nil {
		return errors.Wrap(err, "ui vertex buffer")
	}
	ib, err := s.ensureBuffer(&s.indexBuffers[frame.FrameIndex], indexBytes, vk.BufferUsageIndexBufferBit)
	if err != nil {
		return errors.Wrap(err, "ui index buffer")
	}

	var vOffset, iOffset int
	for _, list := range lists {
		vp, vs := list.VertexBuffer()
		ip, is := list.IndexBuffer()
		copy(vb.Mapped()[vOffset:], unsafe.Slice((*byte)(vp), vs))
		copy(ib.Mapped()[iOffset:], unsafe.Slice((*byte)(ip), is))
		vOffset += vs
		iOffset += is
	}

	indexType := vk.IndexTypeUint16
	if imgui.IndexBufferLayout() == 4 {
		indexType = vk.IndexTypeUint32
	}
	vertexSize, _, _, _ := imgui.VertexBufferLayout()

	cb := frame.CommandBuffer
	s.pipeline.Bind(cb)
	s.builder.bindSets(cb, s.fontSet)
	pc := uiTransform(float32(s.extent.Width), float32(s.extent.Height))
	push(s.builder, cb, &pc)
	vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{vb.VKBuffer}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb, ib.VKBuffer, 0, indexType)

	var vertexBase, indexBase int
	for _, list := range lists {
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
			} else if scissor, ok := uiScissor(cmd.ClipRect(), s.extent); ok {
				vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{scissor})
				vk.CmdDrawIndexed(cb, uint32(cmd.ElementCount()), 1, uint32(indexBase), int32(vertexBase), 0)
			}
			indexBase += cmd.ElementCount()
		}
		_, vs := list.VertexBuffer()
		vertexBase += vs / vertexSize
	}

	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{{Extent: s.extent}})
	return nil
}

func (s *UIOverlaySystem) Destroy() {
	for i := range s.vertexBuffers {
		if s.vertexBuffers[i] != nil {
			s.vertexBuffers[i].Destroy()
		}
		if s.indexBuffers[i] != nil {
			s.indexBuffers[i].Destroy()
		}
	}
	if s.pipeline != nil {
		s.pipeline.Destroy()
	}
	if s.builder != nil {
		s.builder.Destroy()
	}
	if s.pool != nil {
		s.pool.Destroy()
	}
	if s.setLayout != nil {
		s.setLayout.Destroy()
	}
	if s.font != nil {
		s.font.Destroy()
	}
	if s.context != nil {
		s.context.Destroy()
		s.context = nil
	}
}
