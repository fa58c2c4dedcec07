package systems

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/DaneLin/VulkanEngine/scene"
)

func TestUpdateFillsUBO(t *testing.T) {
	s := scene.New()
	s.NewGameObject()
	red := s.NewPointLight(2, 0.1, mgl32.Vec3{1, 0, 0})
	red.Transform.Translation = mgl32.Vec3{1, -1, 0}
	blue := s.NewPointLight(5, 0.2, mgl32.Vec3{0, 0, 1})
	blue.Transform.Translation = mgl32.Vec3{0, 0, 3}

	sys := &PointLightSystem{Animate: false}
	ubo := DefaultGlobalUBO()
	if err := sys.Update(&FrameInfo{Scene: s, FrameTime: 1}, &ubo); err != nil {
		t.Fatal(err)
	}

	if ubo.NumLights != 2 {
		t.Fatalf("NumLights = %d", ubo.NumLights)
	}
	if ubo.PointLights[0].Position != (mgl32.Vec4{1, -1, 0, 1}) || ubo.PointLights[0].Color != (mgl32.Vec4{1, 0, 0, 2}) {
		t.Errorf("light 0 = %+v", ubo.PointLights[0])
	}
	if ubo.PointLights[1].Position != (mgl32.Vec4{0, 0, 3, 1}) || ubo.PointLights[1].Color != (mgl32.Vec4{0, 0, 1, 5}) {
		t.Errorf("light 1 = %+v", ubo.PointLights[1])
	}
}

func TestUpdateRotatesAroundNegativeY(t *testing.T) {
	s := scene.New()
	l := s.NewDefaultPointLight()
	l.Transform.Translation = mgl32.Vec3{1, -2, 0}

	sys := &PointLightSystem{Animate: true, Speed: math.Pi / 2}
	ubo := DefaultGlobalUBO()
	if err := sys.Update(&FrameInfo{Scene: s, FrameTime: 1}, &ubo); err != nil {
		t.Fatal(err)
	}

	want := mgl32.Vec3{0, -2, 1}
	if !l.Transform.Translation.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("translation = %v, want %v", l.Transform.Translation, want)
	}
	if !ubo.PointLights[0].Position.Vec3().ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("ubo position = %v", ubo.PointLights[0].Position)
	}
}

func TestUpdateRejectsTooManyLights(t *testing.T) {
	s := scene.New()
	for i := 0; i < MaxLights+1; i++ {
		s.NewDefaultPointLight()
	}
	ubo := DefaultGlobalUBO()
	if err := (&PointLightSystem{}).Update(&FrameInfo{Scene: s}, &ubo); err == nil {
		t.Fatal("expected an error for too many lights")
	}
}

func TestBackToFront(t *testing.T) {
	s := scene.New()
	near := s.NewDefaultPointLight()
	near.Transform.Translation = mgl32.Vec3{0, 0, 1}
	far := s.NewDefaultPointLight()
	far.Transform.Translation = mgl32.Vec3{0, 0, 10}
	mid := s.NewDefaultPointLight()
	mid.Transform.Translation = mgl32.Vec3{3, 0, 0}

	lights := s.Lights()
	got := backToFront(lights, mgl32.Vec3{0, 0, -1})
	if got[0] != far || got[1] != mid || got[2] != near {
		t.Fatalf("order = %d %d %d", got[0].ID, got[1].ID, got[2].ID)
	}
	if lights[0] != near {
		t.Fatal("backToFront reordered its input")
	}
}

func TestPointLightConfig(t *testing.T) {
	cfg := pointLightConfig(baseConfig(vk.PipelineLayout(vk.NullHandle), vk.NullRenderPass, 0))
	if cfg.BindingDescriptions != nil || cfg.AttributeDescriptions != nil {
		t.Error("point light pipeline has vertex input")
	}
	if cfg.ColorBlendAttachment.BlendEnable != vk.True {
		t.Error("blending disabled")
	}
}
