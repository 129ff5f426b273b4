package main

import (
	"unsafe"

	"github.com/EngoEngine/glm"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// Renderer draws one mesh many times, one model matrix per instance.
type Renderer struct {
	vertexBuf    *wgpu.Buffer
	indexBuf     *wgpu.Buffer
	indexBufLen  int
	instanceBuf  *wgpu.Buffer
	bindGroup    *wgpu.BindGroup
	instances    []glm.Mat4
	numInstances int
}

func (r *Renderer) Release() {
	if r.vertexBuf != nil {
		r.vertexBuf.Release()
	}
	if r.indexBuf != nil {
		r.indexBuf.Release()
	}
	if r.instanceBuf != nil {
		r.instanceBuf.Release()
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
	}
}

func createRenderer(s *State, name string, vertexData []Vertex, indexData []uint16, capacity int) (*Renderer, error) {
	r := &Renderer{instances: make([]glm.Mat4, capacity)}
	var err error
	r.vertexBuf, err = s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name + " Vertex Buffer",
		Contents: wgpu.ToBytes(vertexData),
		Usage:    wgpu.BufferUsage_Vertex,
	})
	if err != nil {
		return r, err
	}

	r.indexBuf, err = s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name + " Index Buffer",
		Contents: wgpu.ToBytes(indexData),
		Usage:    wgpu.BufferUsage_Index,
	})
	if err != nil {
		return r, err
	}
	r.indexBufLen = len(indexData)

	r.instanceBuf, err = s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name + " Instance Buffer",
		Size:  uint64(unsafe.Sizeof(glm.Mat4{})) * uint64(capacity),
		Usage: wgpu.BufferUsage_Storage | wgpu.BufferUsage_CopyDst,
	})
	if err != nil {
		return r, err
	}

	bindGroupLayout := s.pipeline.GetBindGroupLayout(0)
	defer bindGroupLayout.Release()

	r.bindGroup, err = s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  s.uniformBuf,
				Size:    wgpu.WholeSize,
			},
			{
				Binding:     1,
				TextureView: s.textureView,
				Size:        wgpu.WholeSize,
			},
			{
				Binding: 2,
				Buffer:  r.instanceBuf,
				Size:    wgpu.WholeSize,
			},
		},
	})
	return r, err
}

// SetInstances replaces the instance list, dropping anything past capacity.
func (r *Renderer) SetInstances(models []glm.Mat4) {
	r.numInstances = copy(r.instances, models)
}

func (r *Renderer) Draw(s *State, renderPass *wgpu.RenderPassEncoder) {
	if r.numInstances == 0 {
		return
	}
	s.queue.WriteBuffer(r.instanceBuf, 0, wgpu.ToBytes(r.instances[:r.numInstances]))

	renderPass.SetPipeline(s.pipeline)
	renderPass.SetBindGroup(0, r.bindGroup, nil)
	renderPass.SetIndexBuffer(r.indexBuf, wgpu.IndexFormat_Uint16, 0, wgpu.WholeSize)
	renderPass.SetVertexBuffer(0, r.vertexBuf, 0, wgpu.WholeSize)
	renderPass.DrawIndexed(uint32(r.indexBufLen), uint32(r.numInstances), 0, 0, 0)
}
