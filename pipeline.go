package vke

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type PipelineCache struct {
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache

	err := vkError(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache), "create pipeline cache")
	if err != nil {
		return nil, err
	}

	return &PipelineCache{VKPipelineCache: pipelineCache}, nil
}

func (p *PipelineCache) Destroy(d *Device) {
	vk.DestroyPipelineCache(d.VKDevice, p.VKPipelineCache, nil)
	p.VKPipelineCache = vk.PipelineCache(vk.NullHandle)
}

// PipelineConfig holds the fixed function state of a graphics pipeline.
// Start from DefaultPipelineConfig and adjust what differs.
type PipelineConfig struct {
	BindingDescriptions   []vk.VertexInputBindingDescription
	AttributeDescriptions []vk.VertexInputAttributeDescription

	InputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	Rasterization        vk.PipelineRasterizationStateCreateInfo
	Multisample          vk.PipelineMultisampleStateCreateInfo
	ColorBlendAttachment vk.PipelineColorBlendAttachmentState
	DepthStencil         vk.PipelineDepthStencilStateCreateInfo
	DynamicStates        []vk.DynamicState

	PipelineLayout vk.PipelineLayout
	RenderPass     vk.RenderPass
	Subpass        uint32

	// SpecializationEntries and SpecializationData are applied to the
	// fragment stage when present.
	SpecializationEntries []vk.SpecializationMapEntry
	SpecializationData    []byte
}

func DefaultPipelineConfig() PipelineConfig {
	var cfg PipelineConfig

	cfg.InputAssembly.SType = vk.StructureTypePipelineInputAssemblyStateCreateInfo
	cfg.InputAssembly.Topology = vk.PrimitiveTopologyTriangleList
	cfg.InputAssembly.PrimitiveRestartEnable = vk.False

	cfg.Rasterization.SType = vk.StructureTypePipelineRasterizationStateCreateInfo
	cfg.Rasterization.DepthClampEnable = vk.False
	cfg.Rasterization.RasterizerDiscardEnable = vk.False
	cfg.Rasterization.PolygonMode = vk.PolygonModeFill
	cfg.Rasterization.LineWidth = 1.0
	cfg.Rasterization.CullMode = vk.CullModeFlags(vk.CullModeNone)
	cfg.Rasterization.FrontFace = vk.FrontFaceCounterClockwise
	cfg.Rasterization.DepthBiasEnable = vk.False

	cfg.Multisample.SType = vk.StructureTypePipelineMultisampleStateCreateInfo
	cfg.Multisample.SampleShadingEnable = vk.False
	cfg.Multisample.RasterizationSamples = vk.SampleCount1Bit
	cfg.Multisample.MinSampleShading = 1.0

	cfg.ColorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		ColorWriteMask:      vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}

	cfg.DepthStencil = vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.True,
		DepthWriteEnable:      vk.True,
		DepthCompareOp:        vk.CompareOpLessOrEqual,
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0.0,
		MaxDepthBounds:        1.0,
		StencilTestEnable:     vk.False,
	}

	cfg.DynamicStates = []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}

	cfg.BindingDescriptions = VertexBindingDescriptions()
	cfg.AttributeDescriptions = VertexAttributeDescriptions()

	return cfg
}

// EnableAlphaBlending turns on standard "over" blending.
func (c *PipelineConfig) EnableAlphaBlending() {
	c.ColorBlendAttachment.BlendEnable = vk.True
	c.ColorBlendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
	c.ColorBlendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
	c.ColorBlendAttachment.ColorBlendOp = vk.BlendOpAdd
	c.ColorBlendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOne
	c.ColorBlendAttachment.DstAlphaBlendFactor = vk.BlendFactorZero
	c.ColorBlendAttachment.AlphaBlendOp = vk.BlendOpAdd
}

// EnableMultisampling must match the sample count of the render pass the
// pipeline is used with.
func (c *PipelineConfig) EnableMultisampling(samples vk.SampleCountFlagBits) {
	c.Multisample.RasterizationSamples = samples
}

// EnableStencil turns on the stencil test with the same state for front and
// back faces.
func (c *PipelineConfig) EnableStencil(op vk.StencilOpState) {
	c.DepthStencil.StencilTestEnable = vk.True
	c.DepthStencil.Front = op
	c.DepthStencil.Back = op
}

func (c *PipelineConfig) validate() error {
	if c.PipelineLayout == vk.PipelineLayout(vk.NullHandle) {
		return errors.AssertionFailedf("pipeline config has no pipeline layout")
	}
	if c.RenderPass == vk.NullRenderPass {
		return errors.AssertionFailedf("pipeline config has no render pass")
	}
	if len(c.SpecializationEntries) > 0 && len(c.SpecializationData) == 0 {
		return errors.AssertionFailedf("pipeline config has specialization entries without data")
	}
	return nil
}

func (c *PipelineConfig) specialization() *vk.SpecializationInfo {
	if len(c.SpecializationEntries) == 0 {
		return nil
	}
	return &vk.SpecializationInfo{
		MapEntryCount: uint32(len(c.SpecializationEntries)),
		PMapEntries:   c.SpecializationEntries,
		DataSize:      uint(len(c.SpecializationData)),
		PData:         unsafe.Pointer(&c.SpecializationData[0]),
	}
}

// Pipeline is a graphics pipeline built from a vertex and a fragment
// shader.
type Pipeline struct {
	device     vk.Device
	VKPipeline vk.Pipeline
}

func NewPipeline(d *Device, vertPath, fragPath string, cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	vert, err := d.LoadShaderModuleFromFile(vertPath)
	if err != nil {
		return nil, err
	}
	defer vert.Destroy()
	frag, err := d.LoadShaderModuleFromFile(fragPath)
	if err != nil {
		return nil, err
	}
	defer frag.Destroy()

	var pinner runtime.Pinner
	defer pinner.Unpin()
	spec := cfg.specialization()
	if spec != nil {
		pinner.Pin(&cfg.SpecializationData[0])
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		vert.stageInfo(vk.ShaderStageVertexBit, nil),
		frag.stageInfo(vk.ShaderStageFragmentBit, spec),
	}

	var vertexInputState = vk.PipelineVertexInputStateCreateInfo{}
	vertexInputState.SType = vk.StructureTypePipelineVertexInputStateCreateInfo
	vertexInputState.VertexBindingDescriptionCount = uint32(len(cfg.BindingDescriptions))
	vertexInputState.PVertexBindingDescriptions = cfg.BindingDescriptions
	vertexInputState.VertexAttributeDescriptionCount = uint32(len(cfg.AttributeDescriptions))
	vertexInputState.PVertexAttributeDescriptions = cfg.AttributeDescriptions

	// viewport and scissor are dynamic
	var viewportState = vk.PipelineViewportStateCreateInfo{}
	viewportState.SType = vk.StructureTypePipelineViewportStateCreateInfo
	viewportState.ViewportCount = 1
	viewportState.ScissorCount = 1

	var colorBlendState = vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cfg.ColorBlendAttachment},
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		PDynamicStates:    cfg.DynamicStates,
		DynamicStateCount: uint32(len(cfg.DynamicStates)),
	}

	pipelineCreateInfos := []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &cfg.InputAssembly,
		PDepthStencilState:  &cfg.DepthStencil,
		PViewportState:      &viewportState,
		PRasterizationState: &cfg.Rasterization,
		PMultisampleState:   &cfg.Multisample,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              cfg.PipelineLayout,
		RenderPass:          cfg.RenderPass,
		Subpass:             cfg.Subpass,
		BasePipelineIndex:   -1,
	}}

	cache := vk.PipelineCache(vk.NullHandle)
	if d.PipelineCache != nil {
		cache = d.PipelineCache.VKPipelineCache
	}

	pipelines := make([]vk.Pipeline, 1)
	err = vkError(vk.CreateGraphicsPipelines(d.VKDevice, cache, 1, pipelineCreateInfos, nil, pipelines), "create graphics pipeline")
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %s + %s", vertPath, fragPath)
	}
	Logger().Debug("created graphics pipeline", "vert", vertPath, "frag", fragPath)

	return &Pipeline{device: d.VKDevice, VKPipeline: pipelines[0]}, nil
}

func (p *Pipeline) Bind(cb vk.CommandBuffer) {
	vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, p.VKPipeline)
}

func (p *Pipeline) Destroy() {
	if p.VKPipeline == vk.Pipeline(vk.NullHandle) {
		return
	}
	vk.DestroyPipeline(p.device, p.VKPipeline, nil)
	p.VKPipeline = vk.Pipeline(vk.NullHandle)
}
