package mocks

import (
	"context"
	"image"
	"sync/atomic"

	"github.com/BaSui01/cartoonprint/mesh"
	"github.com/BaSui01/cartoonprint/preview"
)

// MockRenderer 预览渲染 Mock，默认返回 4×4 的空图
type MockRenderer struct {
	err       error
	panicWith any
	calls     atomic.Int32
	lastMesh  atomic.Pointer[mesh.Mesh]
}

// NewMockRenderer 创建 MockRenderer
func NewMockRenderer() *MockRenderer {
	return &MockRenderer{}
}

// WithError 让每次调用都返回 err
func (m *MockRenderer) WithError(err error) *MockRenderer {
	m.err = err
	return m
}

// WithPanic 让每次调用都以 v panic
func (m *MockRenderer) WithPanic(v any) *MockRenderer {
	m.panicWith = v
	return m
}

func (m *MockRenderer) Render(_ context.Context, msh *mesh.Mesh, _ preview.Camera) (image.Image, error) {
	m.calls.Add(1)
	m.lastMesh.Store(msh)
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if m.err != nil {
		return nil, m.err
	}
	return image.NewNRGBA(image.Rect(0, 0, 4, 4)), nil
}

// Calls 返回调用次数
func (m *MockRenderer) Calls() int { return int(m.calls.Load()) }

// LastMesh 返回最近一次渲染的网格
func (m *MockRenderer) LastMesh() *mesh.Mesh { return m.lastMesh.Load() }

var _ preview.Renderer = (*MockRenderer)(nil)
