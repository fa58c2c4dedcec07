package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestIDsAreUniqueAndIncreasing(t *testing.T) {
	s := New()
	a := s.NewGameObject()
	b := s.NewGameObject()
	s.Remove(a.ID)
	c := s.NewGameObject()

	if a.ID != 0 || b.ID != 1 || c.ID != 2 {
		t.Fatalf("ids = %d %d %d, want 0 1 2", a.ID, b.ID, c.ID)
	}
	if _, ok := s.Get(a.ID); ok {
		t.Fatal("removed object still present")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestNewGameObjectHasUnitScale(t *testing.T) {
	obj := New().NewGameObject()
	if obj.Transform.Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("scale = %v", obj.Transform.Scale)
	}
	if obj.PointLight != nil || obj.Model != nil {
		t.Fatal("plain object has components")
	}
}

func TestPointLight(t *testing.T) {
	s := New()
	s.NewGameObject()
	l := s.NewPointLight(4, 0.25, mgl32.Vec3{1, 0, 0})

	if l.PointLight == nil || l.PointLight.Intensity != 4 {
		t.Fatalf("light component = %+v", l.PointLight)
	}
	if l.Transform.Scale.X() != 0.25 {
		t.Fatalf("radius = %v, want 0.25", l.Transform.Scale.X())
	}
	if l.Color != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("color = %v", l.Color)
	}

	d := s.NewDefaultPointLight()
	if d.PointLight.Intensity != 10 || d.Transform.Scale.X() != 0.1 || d.Color != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("default light = %+v %+v", d.PointLight, d.Transform)
	}

	lights := s.Lights()
	if len(lights) != 2 || lights[0] != l || lights[1] != d {
		t.Fatalf("Lights = %v", lights)
	}
}

func TestObjectsOrderedByID(t *testing.T) {
	s := New()
	for i := 0; i < 20; i++ {
		s.NewGameObject()
	}
	s.Remove(7)
	objs := s.Objects()
	if len(objs) != 19 {
		t.Fatalf("len = %d", len(objs))
	}
	for i := 1; i < len(objs); i++ {
		if objs[i-1].ID >= objs[i].ID {
			t.Fatalf("objects out of order at %d: %d >= %d", i, objs[i-1].ID, objs[i].ID)
		}
	}
}
