// Package mocks 提供流水线外部依赖的 Mock 实现。
package mocks

import (
	"context"
	"image"
	"sync/atomic"
)

// MockRemover 背景去除 Mock，默认原样返回输入
type MockRemover struct {
	err   error
	calls atomic.Int32
}

// NewMockRemover 创建 MockRemover
func NewMockRemover() *MockRemover {
	return &MockRemover{}
}

// WithError 让每次调用都返回 err
func (m *MockRemover) WithError(err error) *MockRemover {
	m.err = err
	return m
}

func (m *MockRemover) Name() string { return "mock" }

func (m *MockRemover) Remove(_ context.Context, img image.Image) (image.Image, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return img, nil
}

// Calls 返回调用次数
func (m *MockRemover) Calls() int { return int(m.calls.Load()) }
