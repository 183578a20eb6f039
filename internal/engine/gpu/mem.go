package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/engine/texture"
)

// DrawCall is one recorded draw.
type DrawCall struct {
	Pipeline      PipelineKind
	Mesh          *MemMesh
	Texture       *MemTexture
	Instances     *MemBuffer
	IndexCount    int
	InstanceCount int
}

// MemDevice is a Device backed by host memory. It records uploads and draw
// calls so that rendering code can run without a graphics context.
type MemDevice struct {
	// FailBuffer, when set, makes CreateInstanceBuffer fail for matching calls.
	FailBuffer func(layout InstanceLayout, capacity int) bool

	Meshes    []*MemMesh
	Textures  []*MemTexture
	Buffers   []*MemBuffer
	Pipelines []*MemPipeline

	cmd memCommandList
}

// NewMemDevice creates an empty host-memory device.
func NewMemDevice() *MemDevice {
	d := &MemDevice{}
	d.cmd.dev = d
	return d
}

// MemMesh is a recorded mesh upload.
type MemMesh struct {
	ID       int
	Data     *mesh.Data
	Released bool
}

// IndexCount returns the number of indices.
func (m *MemMesh) IndexCount() int { return len(m.Data.Indices) }

// Release marks the mesh released.
func (m *MemMesh) Release() { m.Released = true }

// MemTexture is a recorded texture upload.
type MemTexture struct {
	ID       int
	Width    int
	Height   int
	Released bool
}

// Release marks the texture released.
func (t *MemTexture) Release() { t.Released = true }

// MemPipeline is a recorded pipeline.
type MemPipeline struct {
	kind     PipelineKind
	Released bool
}

// Kind returns the pipeline kind.
func (p *MemPipeline) Kind() PipelineKind { return p.kind }

// Release marks the pipeline released.
func (p *MemPipeline) Release() { p.Released = true }

// MemBuffer is a host-memory instance buffer.
type MemBuffer struct {
	ID       int
	layout   InstanceLayout
	capacity int
	Data     []byte
	Uploads  int
	Released bool
}

// Layout returns the instance layout.
func (b *MemBuffer) Layout() InstanceLayout { return b.layout }

// Capacity returns the number of records the buffer holds.
func (b *MemBuffer) Capacity() int { return b.capacity }

// Upload copies data into the buffer.
func (b *MemBuffer) Upload(data []byte) error {
	if b.Released {
		return errors.New("gpu: upload to released buffer")
	}
	if len(data) > len(b.Data) {
		return fmt.Errorf("%w: %d > %d bytes", ErrCapacity, len(data), len(b.Data))
	}
	copy(b.Data, data)
	b.Uploads++
	return nil
}

// Release marks the buffer released.
func (b *MemBuffer) Release() { b.Released = true }

// CreateMesh records a mesh upload.
func (d *MemDevice) CreateMesh(data *mesh.Data) (Mesh, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	m := &MemMesh{ID: len(d.Meshes), Data: data}
	d.Meshes = append(d.Meshes, m)
	return m, nil
}

// CreateTexture records a texture upload.
func (d *MemDevice) CreateTexture(img *texture.Image) (Texture, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, errors.New("gpu: empty texture")
	}
	t := &MemTexture{ID: len(d.Textures), Width: img.Width, Height: img.Height}
	d.Textures = append(d.Textures, t)
	return t, nil
}

// CreateInstanceBuffer allocates capacity records of the given layout.
func (d *MemDevice) CreateInstanceBuffer(layout InstanceLayout, capacity int) (Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("gpu: invalid buffer capacity %d", capacity)
	}
	if d.FailBuffer != nil && d.FailBuffer(layout, capacity) {
		return nil, errors.New("gpu: buffer allocation failed")
	}
	b := &MemBuffer{
		ID:       len(d.Buffers),
		layout:   layout,
		capacity: capacity,
		Data:     make([]byte, capacity*layout.Stride()),
	}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

// CreatePipeline records a pipeline.
func (d *MemDevice) CreatePipeline(kind PipelineKind) (Pipeline, error) {
	p := &MemPipeline{kind: kind}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

// CommandList returns the recording command list.
func (d *MemDevice) CommandList() CommandList {
	return &d.cmd
}

// Draws returns the draw calls recorded since the last Reset.
func (d *MemDevice) Draws() []DrawCall {
	return d.cmd.draws
}

// Uniform returns the last value set for a vec4 uniform.
func (d *MemDevice) Uniform(name string) (mgl32.Vec4, bool) {
	v, ok := d.cmd.vec4[name]
	return v, ok
}

// Matrix returns the last value set for a mat4 uniform.
func (d *MemDevice) Matrix(name string) (mgl32.Mat4, bool) {
	m, ok := d.cmd.mat4[name]
	return m, ok
}

// Reset clears recorded draw calls and bound state.
func (d *MemDevice) Reset() {
	d.cmd = memCommandList{dev: d}
}

type memCommandList struct {
	dev       *MemDevice
	pipeline  *MemPipeline
	mesh      *MemMesh
	texture   *MemTexture
	instances *MemBuffer
	vec4      map[string]mgl32.Vec4
	mat4      map[string]mgl32.Mat4
	draws     []DrawCall
}

func (c *memCommandList) SetPipeline(p Pipeline) {
	c.pipeline, _ = p.(*MemPipeline)
}

func (c *memCommandList) SetMat4(name string, m mgl32.Mat4) {
	if c.mat4 == nil {
		c.mat4 = make(map[string]mgl32.Mat4)
	}
	c.mat4[name] = m
}

func (c *memCommandList) SetVec4(name string, v mgl32.Vec4) {
	if c.vec4 == nil {
		c.vec4 = make(map[string]mgl32.Vec4)
	}
	c.vec4[name] = v
}

func (c *memCommandList) BindTexture(t Texture) {
	c.texture, _ = t.(*MemTexture)
}

func (c *memCommandList) BindMesh(m Mesh) {
	c.mesh, _ = m.(*MemMesh)
}

func (c *memCommandList) BindInstances(b Buffer) {
	c.instances, _ = b.(*MemBuffer)
}

func (c *memCommandList) DrawIndexed(indexCount int) {
	c.DrawIndexedInstanced(indexCount, 1)
}

func (c *memCommandList) DrawIndexedInstanced(indexCount, instanceCount int) {
	call := DrawCall{
		Mesh:          c.mesh,
		Texture:       c.texture,
		Instances:     c.instances,
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
	}
	if c.pipeline != nil {
		call.Pipeline = c.pipeline.kind
	}
	c.draws = append(c.draws, call)
}
