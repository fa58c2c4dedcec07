package vke

import (
	"os"
	"path/filepath"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type ShaderModule struct {
	device         vk.Device
	Path           string
	VKShaderModule vk.ShaderModule
}

// ShaderPaths returns the compiled vertex and fragment shader files for
// name inside dir.
func ShaderPaths(dir, name string) (vert, frag string) {
	return filepath.Join(dir, name+".vert.spv"), filepath.Join(dir, name+".frag.spv")
}

func (d *Device) LoadShaderModuleFromFile(file string) (*ShaderModule, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	code, err := spirvWords(data)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", file)
	}

	var module vk.ShaderModule
	err = vkError(vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    code,
	}, nil, &module), "create shader module")
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", file)
	}

	return &ShaderModule{device: d.VKDevice, Path: file, VKShaderModule: module}, nil
}

// spirvWords reinterprets SPIR-V bytecode as the 32-bit words Vulkan
// expects.
func spirvWords(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Newf("invalid SPIR-V size %d", len(data))
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4), nil
}

func (s *ShaderModule) stageInfo(stage vk.ShaderStageFlagBits, spec *vk.SpecializationInfo) vk.PipelineShaderStageCreateInfo {
	info := vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: s.VKShaderModule,
		PName:  safeString("main"),
	}
	if spec != nil {
		info.PSpecializationInfo = []vk.SpecializationInfo{*spec}
	}
	return info
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.device, s.VKShaderModule, nil)
}
