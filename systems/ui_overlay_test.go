package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
	vk "github.com/vulkan-go/vulkan"
)

func TestUISettingsFrameTimes(t *testing.T) {
	s := DefaultUISettings()
	if !s.DisplayModels || !s.AnimateLight || s.LightSpeed != 0.25 || s.FrameTimeMin != 9999 || s.FrameTimeMax != 0 {
		t.Fatalf("defaults = %+v", s)
	}

	s.PushFrameTime(16)
	s.PushFrameTime(8)
	s.PushFrameTime(33)

	n := len(s.FrameTimes)
	if s.FrameTimes[n-3] != 16 || s.FrameTimes[n-2] != 8 || s.FrameTimes[n-1] != 33 {
		t.Fatalf("history tail = %v", s.FrameTimes[n-3:])
	}
	if s.FrameTimes[0] != 0 {
		t.Fatalf("history head = %v", s.FrameTimes[0])
	}
	if s.FrameTimeMin != 8 || s.FrameTimeMax != 33 {
		t.Fatalf("min/max = %v/%v", s.FrameTimeMin, s.FrameTimeMax)
	}
	if s.LastFrameTime() != 33 {
		t.Fatalf("last = %v", s.LastFrameTime())
	}
}

func TestUISettingsHistoryScrolls(t *testing.T) {
	s := DefaultUISettings()
	for i := 1; i <= frameTimeHistory+5; i++ {
		s.PushFrameTime(float32(i))
	}
	if s.FrameTimes[0] != 6 || s.LastFrameTime() != frameTimeHistory+5 {
		t.Fatalf("history = %v", s.FrameTimes)
	}
}

func TestUITransform(t *testing.T) {
	pc := uiTransform(800, 600)
	corner := func(x, y float32) mgl32.Vec2 {
		return mgl32.Vec2{x*pc.Scale.X() + pc.Translate.X(), y*pc.Scale.Y() + pc.Translate.Y()}
	}
	if got := corner(0, 0); !got.ApproxEqual(mgl32.Vec2{-1, -1}) {
		t.Errorf("top left = %v", got)
	}
	if got := corner(800, 600); !got.ApproxEqual(mgl32.Vec2{1, 1}) {
		t.Errorf("bottom right = %v", got)
	}
}

func TestUIScissor(t *testing.T) {
	extent := vk.Extent2D{Width: 800, Height: 600}

	r, ok := uiScissor(imgui.Vec4{X: 10, Y: 20, Z: 110, W: 70}, extent)
	if !ok || r.Offset.X != 10 || r.Offset.Y != 20 || r.Extent.Width != 100 || r.Extent.Height != 50 {
		t.Errorf("inside = %+v, %v", r, ok)
	}

	r, ok = uiScissor(imgui.Vec4{X: -5, Y: 590, Z: 30, W: 700}, extent)
	if !ok || r.Offset.X != 0 || r.Offset.Y != 590 || r.Extent.Width != 30 || r.Extent.Height != 10 {
		t.Errorf("clamped = %+v, %v", r, ok)
	}

	if _, ok := uiScissor(imgui.Vec4{X: 900, Y: 0, Z: 950, W: 10}, extent); ok {
		t.Error("offscreen rectangle reported visible")
	}
	if _, ok := uiScissor(imgui.Vec4{X: 10, Y: 10, Z: 10, W: 20}, extent); ok {
		t.Error("empty rectangle reported visible")
	}
}

func TestGrowCapacity(t *testing.T) {
	cases := map[int]int{0: 4096, 1: 4096, 4096: 4096, 4097: 8192, 20000: 32768}
	for n, want := range cases {
		if got := growCapacity(n); got != want {
			t.Errorf("growCapacity(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestUIPipelineConfig(t *testing.T) {
	cfg := uiPipelineConfig(testConfig())
	size, _, _, colOffset := imgui.VertexBufferLayout()

	if len(cfg.BindingDescriptions) != 1 || cfg.BindingDescriptions[0].Stride != uint32(size) {
		t.Fatalf("bindings = %+v", cfg.BindingDescriptions)
	}
	if len(cfg.AttributeDescriptions) != 3 {
		t.Fatalf("attributes = %+v", cfg.AttributeDescriptions)
	}
	col := cfg.AttributeDescriptions[2]
	if col.Format != vk.FormatR8g8b8a8Unorm || col.Offset != uint32(colOffset) {
		t.Errorf("color attribute = %+v", col)
	}
	if cfg.DepthStencil.DepthTestEnable != vk.False || cfg.DepthStencil.DepthWriteEnable != vk.False {
		t.Error("ui pipeline uses depth")
	}
	if cfg.ColorBlendAttachment.BlendEnable != vk.True {
		t.Error("ui pipeline does not blend")
	}
}

func TestFPS(t *testing.T) {
	if fps(0) != 0 || fps(20) != 50 {
		t.Fatalf("fps(0)=%v fps(20)=%v", fps(0), fps(20))
	}
}
