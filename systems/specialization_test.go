package systems

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cockroachdb/errors"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/DaneLin/VulkanEngine/scene"
)

func TestSpecializationEntries(t *testing.T) {
	entries := specializationEntries()
	if len(entries) != 2 {
		t.Fatalf("len = %d", len(entries))
	}
	if e := entries[0]; e.ConstantID != 0 || e.Offset != 0 || e.Size != 4 {
		t.Errorf("entry 0 = %+v", e)
	}
	if e := entries[1]; e.ConstantID != 1 || e.Offset != 4 || e.Size != 4 {
		t.Errorf("entry 1 = %+v", e)
	}
}

func TestSpecializationData(t *testing.T) {
	for _, m := range []LightingModel{Phong, Toon, Textured} {
		data := specializationData(m, 0.5)
		if len(data) != 8 {
			t.Fatalf("%s: len = %d", m, len(data))
		}
		if got := int32(binary.LittleEndian.Uint32(data[0:4])); got != int32(m) {
			t.Errorf("%s: lighting model = %d", m, got)
		}
		if got := math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])); got != 0.5 {
			t.Errorf("%s: desaturation = %v", m, got)
		}
	}
}

func TestLightingModelString(t *testing.T) {
	want := map[LightingModel]string{Phong: "phong", Toon: "toon", Textured: "textured", 7: "unknown"}
	for m, s := range want {
		if m.String() != s {
			t.Errorf("%d.String() = %q, want %q", m, m.String(), s)
		}
	}
}

func TestAssignAndGroup(t *testing.T) {
	sc := scene.New()
	objs := make([]*scene.GameObject, 4)
	for i := range objs {
		objs[i] = sc.NewGameObject()
		objs[i].Model = new(vke.Model)
	}

	s := &SpecializationSystem{variants: make(map[scene.ID]LightingModel)}
	if err := s.Assign(objs[0].ID, Toon); err != nil {
		t.Fatal(err)
	}
	if err := s.Assign(objs[1].ID, Phong); err != nil {
		t.Fatal(err)
	}
	if err := s.Assign(objs[2].ID, Toon); err != nil {
		t.Fatal(err)
	}
	if err := s.Assign(objs[3].ID, LightingModel(9)); !errors.HasAssertionFailure(err) {
		t.Fatalf("Assign(9) = %v, want assertion failure", err)
	}

	groups := s.byVariant(sc)
	if len(groups[Phong]) != 1 || groups[Phong][0] != objs[1] {
		t.Errorf("phong = %v", groups[Phong])
	}
	if len(groups[Toon]) != 2 || groups[Toon][0] != objs[0] || groups[Toon][1] != objs[2] {
		t.Errorf("toon = %v", groups[Toon])
	}
	if len(groups[Textured]) != 0 {
		t.Errorf("textured = %v", groups[Textured])
	}

	s.Unassign(objs[0].ID)
	if _, ok := s.Variant(objs[0].ID); ok {
		t.Error("unassigned object still has a variant")
	}
	if m, ok := s.Variant(objs[2].ID); !ok || m != Toon {
		t.Errorf("Variant = %s, %v", m, ok)
	}
}
