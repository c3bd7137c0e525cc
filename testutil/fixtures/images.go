// Package fixtures 提供测试用的图片样例。
package fixtures

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

var (
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.NRGBA{A: 255}
)

// Blank 纯白图片，素描后没有任何轮廓
func Blank(w, h int) *image.NRGBA {
	return imaging.New(w, h, White)
}

// Square 白底上 [lo, hi) 区间的黑色方块
func Square(size, lo, hi int) *image.NRGBA {
	img := Blank(size, size)
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			img.SetNRGBA(x, y, Black)
		}
	}
	return img
}

// PNG 编码为 PNG 字节
func PNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// SquarePNG 64×64 方块图的 PNG 字节
func SquarePNG(t *testing.T) []byte {
	t.Helper()
	return PNG(t, Square(64, 22, 42))
}
