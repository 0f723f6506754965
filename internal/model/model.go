// Package model uploads a fixed vertex list to the GPU and draws it.
package model

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/breakable-toy/internal/device"
)

// MinVertexCount is the smallest vertex list New accepts.
const MinVertexCount = 3

type Vertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
}

func BindingDescriptions() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func AttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
	}
}

// Model is immutable: build a new one to change the geometry.
type Model struct {
	vertexBuffer       core1_0.Buffer
	vertexBufferMemory core1_0.DeviceMemory
	vertexCount        int
}

func checkVertices(vertices []Vertex) error {
	if len(vertices) < MinVertexCount {
		return errors.Newf("vertex count must be at least %d, have %d", MinVertexCount, len(vertices))
	}
	return nil
}

// New copies vertices into host visible, coherent memory.
func New(dev *device.Device, vertices []Vertex) (*Model, error) {
	err := checkVertices(vertices)
	if err != nil {
		return nil, err
	}

	bufferSize := binary.Size(vertices)

	buffer, memory, err := dev.CreateBuffer(bufferSize, core1_0.BufferUsageVertexBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}

	m := &Model{
		vertexBuffer:       buffer,
		vertexBufferMemory: memory,
		vertexCount:        len(vertices),
	}

	err = writeData(memory, 0, vertices)
	if err != nil {
		m.Destroy()
		return nil, errors.Wrap(err, "failed to upload vertices")
	}

	return m, nil
}

func encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeData(memory core1_0.DeviceMemory, offset int, data any) error {
	encoded, err := encode(data)
	if err != nil {
		return err
	}

	memoryPtr, _, err := memory.Map(offset, len(encoded), 0)
	if err != nil {
		return err
	}
	defer memory.Unmap()

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), len(encoded))
	copy(dataBuffer, encoded)
	return nil
}

func (m *Model) VertexCount() int { return m.vertexCount }

func (m *Model) Bind(buffer core1_0.CommandBuffer) {
	buffer.CmdBindVertexBuffers(0, []core1_0.Buffer{m.vertexBuffer}, []int{0})
}

func (m *Model) Draw(buffer core1_0.CommandBuffer) {
	buffer.CmdDraw(m.vertexCount, 1, 0, 0)
}

func (m *Model) Destroy() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy(nil)
		m.vertexBuffer = nil
	}
	if m.vertexBufferMemory != nil {
		m.vertexBufferMemory.Free(nil)
		m.vertexBufferMemory = nil
	}
}
