// Package gpu defines the rendering device used by the vegetation
// subsystems and a host-memory implementation for tests and headless tools.
package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/engine/texture"
)

// ErrCapacity is returned when an upload exceeds a buffer's capacity.
var ErrCapacity = errors.New("gpu: upload exceeds buffer capacity")

// InstanceLayout identifies the per-instance vertex stream format.
type InstanceLayout int

const (
	// GrassInstances is position, rotationY, scale, windPhase.
	GrassInstances InstanceLayout = iota
	// RockInstances is position, rotationY, scale.
	RockInstances
)

// Per-instance record sizes in bytes.
const (
	GrassInstanceStride = 24
	RockInstanceStride  = 20
)

// Stride returns the byte size of one instance record.
func (l InstanceLayout) Stride() int {
	if l == RockInstances {
		return RockInstanceStride
	}
	return GrassInstanceStride
}

// String returns the layout name.
func (l InstanceLayout) String() string {
	if l == RockInstances {
		return "rock"
	}
	return "grass"
}

// PipelineKind selects a shader program and its fixed state.
type PipelineKind int

const (
	GrassPipeline PipelineKind = iota
	RockPipeline
	TerrainPipeline
)

// String returns the pipeline name.
func (k PipelineKind) String() string {
	switch k {
	case GrassPipeline:
		return "grass"
	case RockPipeline:
		return "rock"
	case TerrainPipeline:
		return "terrain"
	default:
		return "unknown"
	}
}

// Mesh is uploaded vertex and index data.
type Mesh interface {
	IndexCount() int
	Release()
}

// Texture is an uploaded RGBA image.
type Texture interface {
	Release()
}

// Pipeline is a compiled shader program with its fixed-function state.
type Pipeline interface {
	Kind() PipelineKind
	Release()
}

// Buffer is a host-visible per-instance vertex buffer. Upload overwrites
// the buffer from offset zero.
type Buffer interface {
	Layout() InstanceLayout
	// Capacity is the number of instance records the buffer holds.
	Capacity() int
	Upload(data []byte) error
	Release()
}

// CommandList records draw state and draw calls for the current frame.
type CommandList interface {
	SetPipeline(p Pipeline)
	SetMat4(name string, m mgl32.Mat4)
	SetVec4(name string, v mgl32.Vec4)
	BindTexture(t Texture)
	// BindMesh binds per-vertex data to slot 0 and the index buffer.
	BindMesh(m Mesh)
	// BindInstances binds per-instance data to slot 1.
	BindInstances(b Buffer)
	DrawIndexed(indexCount int)
	DrawIndexedInstanced(indexCount, instanceCount int)
}

// Device creates GPU resources and hands out the frame's command list.
type Device interface {
	CreateMesh(d *mesh.Data) (Mesh, error)
	CreateTexture(img *texture.Image) (Texture, error)
	CreateInstanceBuffer(layout InstanceLayout, capacity int) (Buffer, error)
	CreatePipeline(kind PipelineKind) (Pipeline, error)
	CommandList() CommandList
}
