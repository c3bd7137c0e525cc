package sketch

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Decode 解码上传的图像字节。非图像数据返回错误。
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return imaging.Clone(img), nil
}

// Thumbnail 在任一边超过 maxDim 时等比缩小到 maxDim 以内，否则原样返回。
func Thumbnail(img *image.NRGBA, maxDim int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// luma 按 ITU-R 601-2 计算亮度。
func luma(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// meanLuma 返回整幅图的平均亮度（四舍五入到整数，忽略 alpha）。
func meanLuma(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += math.Floor(luma(img.NRGBAAt(x, y)) + 0.5)
		}
	}
	return math.Floor(sum/float64(n) + 0.5)
}

// EnhanceContrast 以平均亮度 m 为中心做线性对比度调整：
// out = m + factor·(in − m)，逐通道截断到 [0,255]；alpha 不变
// （后续灰度与素描阶段都不读取 alpha）。
// factor 为 1 时返回原图副本，为 0 时得到纯灰图。
func EnhanceContrast(img *image.NRGBA, factor float64) *image.NRGBA {
	m := meanLuma(img)
	adjust := func(v uint8) uint8 {
		return clamp(m + factor*(float64(v)-m))
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: adjust(c.R), G: adjust(c.G), B: adjust(c.B), A: c.A}
	})
}

// BlurSigma 按 OpenCV 的约定由核尺寸推导高斯 σ。
func BlurSigma(kernel int) float64 {
	return 0.3*(float64(kernel-1)*0.5-1) + 0.8
}

// gaussianKernel 返回 size 个抽头的归一化一维高斯核，σ 取 BlurSigma(size)。
func gaussianKernel(size int) []float64 {
	sigma := BlurSigma(size)
	half := size / 2
	k := make([]float64, size)
	var sum float64
	for i := range k {
		x := float64(i - half)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect101 把越界下标按 BORDER_REFLECT_101（dcb|abcd|cba）折回 [0, n)。
func reflect101(i, n int) int {
	if n <= 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// GaussianBlur 用 size×size 的可分离高斯核模糊灰度图，边界按 BORDER_REFLECT_101 延拓。
// size 必须为正奇数。
func GaussianBlur(src *image.Gray, size int) (*image.Gray, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("blur kernel must be a positive odd size, got %d", size)
	}
	k := gaussianKernel(size)
	half := size / 2
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	at := func(x, y int) float64 {
		return float64(src.Pix[y*src.Stride+x])
	}

	// 水平
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			for i, kv := range k {
				v += kv * at(reflect101(x+i-half, w), y)
			}
			tmp[y*w+x] = v
		}
	}

	// 垂直
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			for i, kv := range k {
				v += kv * tmp[reflect101(y+i-half, h)*w+x]
			}
			out.Pix[y*out.Stride+x] = clamp(v)
		}
	}
	return out, nil
}

// Sketch 生成素描图：gray·256/(255−blur(255−gray))，结果截断到 255，
// 分母为 0 时取 0。灰度计算忽略 alpha。
func Sketch(img *image.NRGBA, kernel int) (*image.Gray, error) {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	inv := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			inv.Pix[y*inv.Stride+x] = 255 - gray.Pix[y*gray.Stride+x*4]
		}
	}
	blur, err := GaussianBlur(inv, kernel)
	if err != nil {
		return nil, err
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := float64(gray.Pix[y*gray.Stride+x*4])
			d := 255 - float64(blur.Pix[y*blur.Stride+x])
			var v uint8
			if d != 0 {
				v = clamp(math.RoundToEven(g * 256 / d))
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out, nil
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
