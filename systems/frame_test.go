package systems

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/DaneLin/VulkanEngine/scene"
)

func TestGlobalUBOLayout(t *testing.T) {
	var u GlobalUBO
	offsets := map[string]uintptr{
		"Projection":        unsafe.Offsetof(u.Projection),
		"View":              unsafe.Offsetof(u.View),
		"InverseView":       unsafe.Offsetof(u.InverseView),
		"AmbientLightColor": unsafe.Offsetof(u.AmbientLightColor),
		"PointLights":       unsafe.Offsetof(u.PointLights),
		"NumLights":         unsafe.Offsetof(u.NumLights),
	}
	want := map[string]uintptr{
		"Projection":        0,
		"View":              64,
		"InverseView":       128,
		"AmbientLightColor": 192,
		"PointLights":       208,
		"NumLights":         528,
	}
	for name, off := range want {
		if offsets[name] != off {
			t.Errorf("%s at offset %d, want %d", name, offsets[name], off)
		}
	}
	if size := unsafe.Sizeof(u); size != 544 || size%16 != 0 {
		t.Errorf("sizeof(GlobalUBO) = %d, want 544", size)
	}
}

func TestSetCamera(t *testing.T) {
	c := scene.NewCamera()
	c.SetPerspectiveProjection(1, 2, 0.1, 10)
	c.SetViewTarget(mgl32.Vec3{0, -1, -3}, mgl32.Vec3{}, mgl32.Vec3{0, -1, 0})

	u := DefaultGlobalUBO()
	u.SetCamera(c)
	if u.Projection != c.Projection() || u.View != c.View() || u.InverseView != c.InverseView() {
		t.Fatal("camera matrices not copied")
	}
	if u.AmbientLightColor != (mgl32.Vec4{1, 1, 1, 0.02}) {
		t.Fatalf("ambient = %v", u.AmbientLightColor)
	}
}

func TestPushConstantSizes(t *testing.T) {
	sizes := map[string]uintptr{
		"mesh":        unsafe.Sizeof(MeshPushConstants{}),
		"point light": unsafe.Sizeof(pointLightPushConstants{}),
		"outline":     unsafe.Sizeof(outlinePushConstants{}),
		"ui":          unsafe.Sizeof(uiPushConstants{}),
	}
	for name, size := range sizes {
		// 128 bytes is the minimum maxPushConstantsSize every device supports.
		if size > 128 || size%4 != 0 {
			t.Errorf("%s push constants are %d bytes", name, size)
		}
	}
	var o outlinePushConstants
	if unsafe.Offsetof(o.Color) != 64 || unsafe.Offsetof(o.Width) != 76 {
		t.Errorf("outline layout: color at %d, width at %d", unsafe.Offsetof(o.Color), unsafe.Offsetof(o.Width))
	}
}

func TestPushRejectsOversizedBlock(t *testing.T) {
	b := &PipelineBuilder{pushSize: 16}
	defer func() {
		if recover() == nil {
			t.Fatal("oversized push did not panic")
		}
	}()
	pc := MeshPushConstants{}
	push(b, nil, &pc)
}

func TestMeshesFilter(t *testing.T) {
	s := scene.New()
	s.NewGameObject()
	s.NewDefaultPointLight()
	// a non-nil model pointer is enough, meshes never dereferences it
	a := s.NewGameObject()
	a.Model = new(vke.Model)
	b := s.NewGameObject()
	b.Model = new(vke.Model)

	all := meshes(s, nil)
	if len(all) != 2 || all[0] != a || all[1] != b {
		t.Fatalf("meshes = %v", all)
	}
	some := meshes(s, func(o *scene.GameObject) bool { return o.ID != a.ID })
	if len(some) != 1 || some[0] != b {
		t.Fatalf("filtered meshes = %v", some)
	}
}

func TestCheckFrame(t *testing.T) {
	if err := checkFrame(nil); err == nil {
		t.Error("nil frame accepted")
	}
	if err := checkFrame(&FrameInfo{Scene: scene.New()}); err == nil {
		t.Error("frame without command buffer accepted")
	}
}
