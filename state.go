package main

import (
	"math"

	"go_engine/camera"

	"github.com/EngoEngine/glm"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
	wgpuext_glfw "github.com/rajveermalviya/go-webgpu/wgpuext/glfw"

	_ "embed"
)

//go:embed shader.wgsl
var shader string

// clipCorrection maps the OpenGL style [-1, 1] clip depth glm produces onto
// the [0, 1] range wgpu expects.
var clipCorrection = glm.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type State struct {
	surface      *wgpu.Surface
	swapChain    *wgpu.SwapChain
	depth        *wgpu.RenderPassDepthStencilAttachment
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	device       *wgpu.Device
	queue        *wgpu.Queue
	config       *wgpu.SwapChainDescriptor
	uniformBuf   *wgpu.Buffer
	pipeline     *wgpu.RenderPipeline
	textureView  *wgpu.TextureView
	renderers    []*Renderer
	camera       *camera.Perspective
}

func createDepthAttachment(device *wgpu.Device, config *wgpu.SwapChainDescriptor) (*wgpu.Texture, error) {
	return device.CreateTexture(&wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              config.Width,
			Height:             config.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        wgpu.TextureFormat_Depth32Float,
		Usage:         wgpu.TextureUsage_RenderAttachment,
	})
}

func (s *State) createRenderPassDepthAttachmentView() (*wgpu.RenderPassDepthStencilAttachment, error) {
	if s.depthTexture != nil {
		s.depthTexture.Release()
	}
	if s.depthView != nil {
		s.depthView.Release()
	}
	depth, err := createDepthAttachment(s.device, s.config)
	if err != nil {
		return nil, err
	}
	s.depthTexture = depth
	depthView, err := depth.CreateView(nil)
	if err != nil {
		return nil, err
	}
	s.depthView = depthView
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            depthView,
		DepthLoadOp:     wgpu.LoadOp_Clear,
		DepthStoreOp:    wgpu.StoreOp_Store,
		DepthClearValue: 1.0,
		StencilLoadOp:   wgpu.LoadOp_Clear,
		StencilStoreOp:  wgpu.StoreOp_Store,
	}, nil
}

func InitState(window *glfw.Window) (s *State, err error) {
	defer func() {
		if err != nil {
			s.Destroy()
			s = nil
		}
	}()
	s = &State{}

	width, height := window.GetSize()
	s.camera, err = camera.NewPerspective(math.Pi/4, float32(width)/float32(max(height, 1)), 0.1, 1_000)
	if err != nil {
		return s, err
	}

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	s.surface = instance.CreateSurface(wgpuext_glfw.GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    s.surface,
		PowerPreference:      wgpu.PowerPreference_HighPerformance,
	})
	if err != nil {
		return s, err
	}
	defer adapter.Release()

	s.device, err = adapter.RequestDevice(nil)
	if err != nil {
		return s, err
	}
	s.queue = s.device.GetQueue()

	caps := s.surface.GetCapabilities(adapter)
	s.config = &wgpu.SwapChainDescriptor{
		Usage:       wgpu.TextureUsage_RenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentMode_Fifo,
		AlphaMode:   caps.AlphaModes[0],
	}

	s.swapChain, err = s.device.CreateSwapChain(s.surface, s.config)
	if err != nil {
		return s, err
	}
	s.depth, err = s.createRenderPassDepthAttachmentView()
	if err != nil {
		return s, err
	}

	if err = s.createTexture(); err != nil {
		return s, err
	}

	viewProjection := s.clipViewProjection()
	s.uniformBuf, err = s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Camera Uniform Buffer",
		Contents: wgpu.ToBytes(viewProjection[:]),
		Usage:    wgpu.BufferUsage_Uniform | wgpu.BufferUsage_CopyDst,
	})
	if err != nil {
		return s, err
	}

	if err = s.createPipeline(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *State) createTexture() error {
	texels := createTexels()
	textureExtent := wgpu.Extent3D{
		Width:              texelsSize,
		Height:             texelsSize,
		DepthOrArrayLayers: 1,
	}
	texture, err := s.device.CreateTexture(&wgpu.TextureDescriptor{
		Size:          textureExtent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        wgpu.TextureFormat_R8Uint,
		Usage:         wgpu.TextureUsage_TextureBinding | wgpu.TextureUsage_CopyDst,
	})
	if err != nil {
		return err
	}
	defer texture.Release()

	s.textureView, err = texture.CreateView(nil)
	if err != nil {
		return err
	}

	s.queue.WriteTexture(
		texture.AsImageCopy(),
		wgpu.ToBytes(texels[:]),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  texelsSize,
			RowsPerImage: wgpu.CopyStrideUndefined,
		},
		&textureExtent,
	)
	return nil
}

func (s *State) createPipeline() error {
	module, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "shader.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	s.pipeline, err = s.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{VertexBufferLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    s.config.Format,
					WriteMask: wgpu.ColorWriteMask_All,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopology_TriangleList,
			FrontFace: wgpu.FrontFace_CCW,
			CullMode:  wgpu.CullMode_Back,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormat_Depth32Float,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunction_Less,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunction_Always,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunction_Always,
			},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	return err
}

// clipViewProjection is the camera's view-projection in wgpu clip space.
func (s *State) clipViewProjection() glm.Mat4 {
	viewProjection := s.camera.ViewProjection()
	return clipCorrection.Mul4(&viewProjection)
}

func (s *State) AddRenderer(name string, capacity int) (*Renderer, error) {
	r, err := createRenderer(s, name, cubeVertexData[:], cubeIndexData[:], capacity)
	if err != nil {
		r.Release()
		return nil, err
	}
	s.renderers = append(s.renderers, r)
	return r, nil
}

func (s *State) Resize(width, height int) {
	if width > 0 && height > 0 {
		s.config.Width = uint32(width)
		s.config.Height = uint32(height)
		s.camera.AdjustToViewport(width, height)

		if s.swapChain != nil {
			s.swapChain.Release()
		}
		var err error
		s.swapChain, err = s.device.CreateSwapChain(s.surface, s.config)
		if err != nil {
			panic(err)
		}
		s.depth, err = s.createRenderPassDepthAttachmentView()
		if err != nil {
			panic(err)
		}
	}
}

func (s *State) Render() error {
	nextTexture, err := s.swapChain.GetCurrentTextureView()
	if err != nil {
		return err
	}
	defer nextTexture.Release()

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	viewProjection := s.clipViewProjection()
	s.queue.WriteBuffer(s.uniformBuf, 0, wgpu.ToBytes(viewProjection[:]))

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       nextTexture,
				LoadOp:     wgpu.LoadOp_Clear,
				StoreOp:    wgpu.StoreOp_Store,
				ClearValue: wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0},
			},
		},
		DepthStencilAttachment: s.depth,
	})
	defer renderPass.Release()

	for _, r := range s.renderers {
		r.Draw(s, renderPass)
	}
	renderPass.End()

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer cmdBuffer.Release()

	s.queue.Submit(cmdBuffer)
	s.swapChain.Present()

	return nil
}

func (s *State) Destroy() {
	for _, r := range s.renderers {
		r.Release()
	}
	s.renderers = nil
	if s.textureView != nil {
		s.textureView.Release()
		s.textureView = nil
	}
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
	if s.uniformBuf != nil {
		s.uniformBuf.Release()
		s.uniformBuf = nil
	}
	if s.swapChain != nil {
		s.swapChain.Release()
		s.swapChain = nil
	}
	s.config = nil
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	if s.surface != nil {
		s.surface.Release()
		s.surface = nil
	}
	if s.depthView != nil {
		s.depthView.Release()
		s.depthView = nil
	}
	if s.depthTexture != nil {
		s.depthTexture.Release()
		s.depthTexture = nil
	}
}
