package vke

import (
	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// GLFWWindow is a GLFW window without a client API, set up for Vulkan
// rendering. It must only be used from the main thread.
type GLFWWindow struct {
	Window *glfw.Window

	resized bool
}

// NewGLFWWindow initializes GLFW, loads the Vulkan entry points through it
// and opens a resizable window.
func NewGLFWWindow(cfg Config) (*GLFWWindow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "initialize glfw")
	}

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "initialize vulkan")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}

	w := &GLFWWindow{Window: window}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized = true
	})
	return w, nil
}

func (w *GLFWWindow) Extent() vk.Extent2D {
	width, height := w.Window.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(width), Height: uint32(height)}
}

func (w *GLFWWindow) WasResized() bool {
	return w.resized
}

func (w *GLFWWindow) ResetResizedFlag() {
	w.resized = false
}

func (w *GLFWWindow) WaitEvents() {
	glfw.WaitEvents()
}

func (w *GLFWWindow) PollEvents() {
	glfw.PollEvents()
}

func (w *GLFWWindow) ShouldClose() bool {
	return w.Window.ShouldClose()
}

// Pressed reports whether key is currently held down.
func (w *GLFWWindow) Pressed(key glfw.Key) bool {
	return w.Window.GetKey(key) == glfw.Press
}

func (w *GLFWWindow) CursorPos() (float64, float64) {
	return w.Window.GetCursorPos()
}

func (w *GLFWWindow) MouseButtonDown(button glfw.MouseButton) bool {
	return w.Window.GetMouseButton(button) == glfw.Press
}

// RequiredInstanceExtensions lists the instance extensions GLFW needs to
// create a surface.
func (w *GLFWWindow) RequiredInstanceExtensions() []string {
	return w.Window.GetRequiredInstanceExtensions()
}

func (w *GLFWWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	addr, err := w.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "create window surface")
	}
	return vk.SurfaceFromPointer(addr), nil
}

func (w *GLFWWindow) Destroy() {
	w.Window.Destroy()
	glfw.Terminate()
}
