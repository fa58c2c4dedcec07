package scene

import (
	"sort"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/go-gl/mathgl/mgl32"
)

type ID uint32

// IDAllocator hands out increasing IDs and never reuses one.
type IDAllocator struct {
	next ID
}

func (a *IDAllocator) Next() ID {
	id := a.next
	a.next++
	return id
}

type PointLight struct {
	Intensity float32
}

// GameObject is anything placed in the scene. Objects with a Model are
// drawn by the mesh systems, objects with a PointLight by the light system.
type GameObject struct {
	ID         ID
	Model      *vke.Model
	Color      mgl32.Vec3
	Transform  Transform
	PointLight *PointLight
}

// Scene owns the game objects and the allocator for their IDs.
type Scene struct {
	ids     IDAllocator
	objects map[ID]*GameObject
}

func New() *Scene {
	return &Scene{objects: make(map[ID]*GameObject)}
}

func (s *Scene) NewGameObject() *GameObject {
	obj := &GameObject{
		ID:        s.ids.Next(),
		Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}},
	}
	s.objects[obj.ID] = obj
	return obj
}

// NewPointLight adds a light; radius is stored in the X scale.
func (s *Scene) NewPointLight(intensity, radius float32, color mgl32.Vec3) *GameObject {
	obj := s.NewGameObject()
	obj.Color = color
	obj.Transform.Scale[0] = radius
	obj.PointLight = &PointLight{Intensity: intensity}
	return obj
}

// NewDefaultPointLight adds a white light of intensity 10 and radius 0.1.
func (s *Scene) NewDefaultPointLight() *GameObject {
	return s.NewPointLight(10, 0.1, mgl32.Vec3{1, 1, 1})
}

func (s *Scene) Get(id ID) (*GameObject, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

func (s *Scene) Remove(id ID) {
	delete(s.objects, id)
}

func (s *Scene) Len() int {
	return len(s.objects)
}

// Objects returns every object ordered by ID.
func (s *Scene) Objects() []*GameObject {
	out := make([]*GameObject, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lights returns the objects carrying a point light, ordered by ID.
func (s *Scene) Lights() []*GameObject {
	var out []*GameObject
	for _, obj := range s.Objects() {
		if obj.PointLight != nil {
			out = append(out, obj)
		}
	}
	return out
}
