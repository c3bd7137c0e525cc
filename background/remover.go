package background

import (
	"context"
	"fmt"
	"image"

	"github.com/BaSui01/cartoonprint/config"
)

// Remover 去除图像背景，返回带透明背景的栅格。
type Remover interface {
	Name() string
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Provider 名称
const (
	ProviderNone  = "none"
	ProviderRembg = "rembg"
)

// NoneRemover 直通实现。
type NoneRemover struct{}

func (NoneRemover) Name() string { return ProviderNone }

func (NoneRemover) Remove(_ context.Context, img image.Image) (image.Image, error) {
	return img, nil
}

// New 根据配置创建 Remover。
func New(cfg config.BackgroundConfig) (Remover, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return NoneRemover{}, nil
	case ProviderRembg:
		return NewRembgRemover(cfg), nil
	default:
		return nil, fmt.Errorf("unknown background provider %q", cfg.Provider)
	}
}
