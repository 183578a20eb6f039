// Package glgpu implements gpu.Device on OpenGL 4.1 core.
// All calls must happen on the thread that owns the GL context.
package glgpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/engine/shader"
	"github.com/Faultbox/verdant/internal/engine/texture"
	"github.com/Faultbox/verdant/internal/logger"
)

// Vertex attribute locations shared by every program.
const (
	attrPosition = iota
	attrNormal
	attrTexCoord
	attrInstancePos
	attrInstanceRot
	attrInstanceScale
	attrInstanceWind

	// AttributeCount is the number of vertex attributes the programs use.
	AttributeCount
)

// Device is an OpenGL gpu.Device. It owns one vertex array object that is
// reconfigured on every BindMesh/BindInstances.
type Device struct {
	vao uint32
	cmd commandList
}

// New creates a device. The GL context must be current and gl.Init called.
func New() *Device {
	d := &Device{}
	gl.GenVertexArrays(1, &d.vao)
	d.cmd.dev = d
	return d
}

// Close releases the vertex array object.
func (d *Device) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

type glMesh struct {
	vbo, ebo   uint32
	indexCount int
}

func (m *glMesh) IndexCount() int { return m.indexCount }

func (m *glMesh) Release() {
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
}

// CreateMesh uploads vertex and index data to static buffers.
func (d *Device) CreateMesh(data *mesh.Data) (gpu.Mesh, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	m := &glMesh{indexCount: len(data.Indices)}

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*mesh.VertexSize, unsafe.Pointer(&data.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, unsafe.Pointer(&data.Indices[0]), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		m.Release()
		return nil, fmt.Errorf("glgpu: mesh upload failed: 0x%x", e)
	}
	return m, nil
}

type glTexture struct {
	id uint32
}

func (t *glTexture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// CreateTexture uploads an RGBA image with mipmaps.
func (d *Device) CreateTexture(img *texture.Image) (gpu.Texture, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pixels) < img.Width*img.Height*4 {
		return nil, errors.New("glgpu: empty texture")
	}
	t := &glTexture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Width), int32(img.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pixels[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t, nil
}

type glBuffer struct {
	id       uint32
	layout   gpu.InstanceLayout
	capacity int
}

func (b *glBuffer) Layout() gpu.InstanceLayout { return b.layout }
func (b *glBuffer) Capacity() int              { return b.capacity }

// Upload maps the buffer with invalidation, copies data and unmaps.
func (b *glBuffer) Upload(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	size := b.capacity * b.layout.Stride()
	if len(data) > size {
		return fmt.Errorf("%w: %d > %d bytes", gpu.ErrCapacity, len(data), size)
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	ptr := gl.MapBufferRange(gl.ARRAY_BUFFER, 0, len(data), gl.MAP_WRITE_BIT|gl.MAP_INVALIDATE_BUFFER_BIT)
	if ptr == nil {
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
		return errors.New("glgpu: map instance buffer failed")
	}
	copy(unsafe.Slice((*byte)(ptr), len(data)), data)
	gl.UnmapBuffer(gl.ARRAY_BUFFER)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

func (b *glBuffer) Release() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

// CreateInstanceBuffer allocates a dynamic buffer of capacity records.
func (d *Device) CreateInstanceBuffer(layout gpu.InstanceLayout, capacity int) (gpu.Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("glgpu: invalid buffer capacity %d", capacity)
	}
	b := &glBuffer{layout: layout, capacity: capacity}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	gl.BufferData(gl.ARRAY_BUFFER, capacity*layout.Stride(), nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		b.Release()
		return nil, fmt.Errorf("glgpu: instance buffer allocation failed: 0x%x", e)
	}
	return b, nil
}

type glPipeline struct {
	kind    gpu.PipelineKind
	program *shader.Program
}

func (p *glPipeline) Kind() gpu.PipelineKind { return p.kind }

func (p *glPipeline) Release() {
	p.program.Release()
}

// CreatePipeline compiles the embedded program for kind.
func (d *Device) CreatePipeline(kind gpu.PipelineKind) (gpu.Pipeline, error) {
	prog, err := shader.Load(kind.String())
	if err != nil {
		return nil, err
	}
	logger.Debug("pipeline created", zap.Stringer("kind", kind), zap.Uint32("program", prog.ID))
	return &glPipeline{kind: kind, program: prog}, nil
}

// CommandList returns the immediate-mode command list.
func (d *Device) CommandList() gpu.CommandList {
	return &d.cmd
}

type commandList struct {
	dev      *Device
	pipeline *glPipeline
	mesh     *glMesh
}

func (c *commandList) SetPipeline(p gpu.Pipeline) {
	gp, ok := p.(*glPipeline)
	if !ok {
		return
	}
	c.pipeline = gp
	gp.program.Use()
	gl.BindVertexArray(c.dev.vao)

	if gp.kind == gpu.GrassPipeline {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	if loc := gp.program.Uniform("tex"); loc >= 0 {
		gl.Uniform1i(loc, 0)
	}
}

func (c *commandList) SetMat4(name string, m mgl32.Mat4) {
	if c.pipeline == nil {
		return
	}
	if loc := c.pipeline.program.Uniform(name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

func (c *commandList) SetVec4(name string, v mgl32.Vec4) {
	if c.pipeline == nil {
		return
	}
	if loc := c.pipeline.program.Uniform(name); loc >= 0 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

func (c *commandList) BindTexture(t gpu.Texture) {
	gt, ok := t.(*glTexture)
	if !ok {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, gt.id)
}

func (c *commandList) BindMesh(m gpu.Mesh) {
	gm, ok := m.(*glMesh)
	if !ok {
		return
	}
	c.mesh = gm
	gl.BindVertexArray(c.dev.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)

	gl.EnableVertexAttribArray(attrPosition)
	gl.VertexAttribPointerWithOffset(attrPosition, 3, gl.FLOAT, false, mesh.VertexSize, 0)
	gl.EnableVertexAttribArray(attrNormal)
	gl.VertexAttribPointerWithOffset(attrNormal, 3, gl.FLOAT, false, mesh.VertexSize, 12)
	gl.EnableVertexAttribArray(attrTexCoord)
	gl.VertexAttribPointerWithOffset(attrTexCoord, 2, gl.FLOAT, false, mesh.VertexSize, 24)

	// Non-instanced draws must not read stale instance streams.
	for a := uint32(attrInstancePos); a <= attrInstanceWind; a++ {
		gl.DisableVertexAttribArray(a)
	}
}

func (c *commandList) BindInstances(b gpu.Buffer) {
	gb, ok := b.(*glBuffer)
	if !ok {
		return
	}
	stride := int32(gb.layout.Stride())
	gl.BindBuffer(gl.ARRAY_BUFFER, gb.id)

	gl.EnableVertexAttribArray(attrInstancePos)
	gl.VertexAttribPointerWithOffset(attrInstancePos, 3, gl.FLOAT, false, stride, 0)
	gl.VertexAttribDivisor(attrInstancePos, 1)
	gl.EnableVertexAttribArray(attrInstanceRot)
	gl.VertexAttribPointerWithOffset(attrInstanceRot, 1, gl.FLOAT, false, stride, 12)
	gl.VertexAttribDivisor(attrInstanceRot, 1)
	gl.EnableVertexAttribArray(attrInstanceScale)
	gl.VertexAttribPointerWithOffset(attrInstanceScale, 1, gl.FLOAT, false, stride, 16)
	gl.VertexAttribDivisor(attrInstanceScale, 1)

	if gb.layout == gpu.GrassInstances {
		gl.EnableVertexAttribArray(attrInstanceWind)
		gl.VertexAttribPointerWithOffset(attrInstanceWind, 1, gl.FLOAT, false, stride, 20)
		gl.VertexAttribDivisor(attrInstanceWind, 1)
	} else {
		gl.DisableVertexAttribArray(attrInstanceWind)
	}
}

func (c *commandList) DrawIndexed(indexCount int) {
	gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil)
}

func (c *commandList) DrawIndexedInstanced(indexCount, instanceCount int) {
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil, int32(instanceCount))
}
