package sketch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ===== 📦 Decode =====

func TestDecode_PNG(t *testing.T) {
	data := encodePNG(t, solid(10, 6, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))

	img, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, img.NRGBAAt(3, 3))
}

func TestDecode_NotAnImage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not an image")))
	assert.Error(t, err)
}

// ===== 📦 Thumbnail =====

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"small unchanged", 100, 50, 100, 50},
		{"exact limit unchanged", 512, 512, 512, 512},
		{"wide", 1024, 512, 512, 256},
		{"tall", 300, 1200, 128, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Thumbnail(solid(tt.w, tt.h, color.NRGBA{A: 255}), 512)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

// ===== 📦 EnhanceContrast =====

func TestEnhanceContrast_Identity(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 128})

	out := EnhanceContrast(img, 1)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestEnhanceContrast_StretchesAroundMean(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 140, G: 140, B: 140, A: 7})

	// mean = 120；factor 2 → 80 / 160
	out := EnhanceContrast(img, 2)
	assert.Equal(t, color.NRGBA{R: 80, G: 80, B: 80, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 160, G: 160, B: 160, A: 7}, out.NRGBAAt(1, 0))
}

func TestEnhanceContrast_ZeroFactorFlattens(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := EnhanceContrast(img, 0)
	assert.Equal(t, out.NRGBAAt(0, 0), out.NRGBAAt(1, 0))
}

func TestEnhanceContrast_Clips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := uint8(rapid.IntRange(0, 255).Draw(t, "a"))
		b := uint8(rapid.IntRange(0, 255).Draw(t, "b"))
		f := rapid.Float64Range(0, 10).Draw(t, "factor")

		img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		img.SetNRGBA(0, 0, color.NRGBA{R: a, G: a, B: a, A: 255})
		img.SetNRGBA(1, 0, color.NRGBA{R: b, G: b, B: b, A: 99})

		out := EnhanceContrast(img, f)
		if out.NRGBAAt(1, 0).A != 99 {
			t.Fatalf("alpha changed: %d", out.NRGBAAt(1, 0).A)
		}
		// 单调性：亮的仍不暗于暗的
		if a <= b && out.NRGBAAt(0, 0).R > out.NRGBAAt(1, 0).R {
			t.Fatalf("order flipped for a=%d b=%d f=%v", a, b, f)
		}
	})
}

// ===== 📦 Sketch =====

func TestBlurSigma(t *testing.T) {
	assert.InDelta(t, 3.5, BlurSigma(21), 1e-9)
	assert.InDelta(t, 0.8, BlurSigma(3), 1e-9)
}

func TestSketch_UniformIsWhite(t *testing.T) {
	// 均匀图像：blur = 255-g，gray·256/g ≥ 255
	out, err := Sketch(solid(16, 16, color.NRGBA{R: 120, G: 120, B: 120, A: 255}), 21)
	require.NoError(t, err)
	for _, v := range out.Pix {
		require.Equal(t, uint8(255), v)
	}
}

func TestSketch_BlackIsBlack(t *testing.T) {
	out, err := Sketch(solid(8, 8, color.NRGBA{A: 255}), 21)
	require.NoError(t, err)
	for _, v := range out.Pix {
		require.Equal(t, uint8(0), v)
	}
}

func TestSketch_IgnoresAlpha(t *testing.T) {
	a, err := Sketch(solid(8, 8, color.NRGBA{R: 90, G: 90, B: 90, A: 255}), 21)
	require.NoError(t, err)
	b, err := Sketch(solid(8, 8, color.NRGBA{R: 90, G: 90, B: 90, A: 0}), 21)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestSketch_DarkLineStaysDark(t *testing.T) {
	img := solid(32, 32, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	for y := 0; y < 32; y++ {
		img.SetNRGBA(16, y, color.NRGBA{A: 255})
	}
	out, err := Sketch(img, 21)
	require.NoError(t, err)
	assert.Equal(t, 32, out.Bounds().Dx())
	assert.Equal(t, uint8(0), out.GrayAt(16, 16).Y)
	assert.Equal(t, uint8(255), out.GrayAt(2, 16).Y)
}

func TestSketch_InvalidKernel(t *testing.T) {
	for _, k := range []int{0, -3, 20} {
		_, err := Sketch(solid(4, 4, color.NRGBA{A: 255}), k)
		assert.Error(t, err, "kernel %d", k)
	}
}

func TestEnhanceContrast_AlphaDoesNotReachSketch(t *testing.T) {
	img := solid(24, 24, color.NRGBA{R: 230, G: 230, B: 230, A: 255})
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}
	translucent := solid(24, 24, color.NRGBA{})
	for i := 0; i < len(img.Pix); i += 4 {
		copy(translucent.Pix[i:i+3], img.Pix[i:i+3])
		translucent.Pix[i+3] = uint8(i / 4 % 256)
	}

	a, err := Sketch(EnhanceContrast(img, 1.8), 21)
	require.NoError(t, err)
	b, err := Sketch(EnhanceContrast(translucent, 1.8), 21)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

// ===== 📦 GaussianBlur =====

func TestGaussianKernel(t *testing.T) {
	k := gaussianKernel(21)
	require.Len(t, k, 21)

	var sum float64
	for i, v := range k {
		sum += v
		assert.InDelta(t, v, k[len(k)-1-i], 1e-15, "symmetric at %d", i)
		if i < 10 {
			assert.Less(t, v, k[i+1])
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestReflect101(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{i: 0, n: 5, want: 0},
		{i: 4, n: 5, want: 4},
		{i: -1, n: 5, want: 1},
		{i: -2, n: 5, want: 2},
		{i: 5, n: 5, want: 3},
		{i: 6, n: 5, want: 2},
		{i: -10, n: 2, want: 0},
		{i: 7, n: 1, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reflect101(tt.i, tt.n), "reflect101(%d, %d)", tt.i, tt.n)
	}
}

func TestGaussianBlur(t *testing.T) {
	t.Run("uniform stays uniform", func(t *testing.T) {
		g := image.NewGray(image.Rect(0, 0, 7, 5))
		for i := range g.Pix {
			g.Pix[i] = 135
		}
		out, err := GaussianBlur(g, 21)
		require.NoError(t, err)
		for _, v := range out.Pix {
			require.Equal(t, uint8(135), v)
		}
	})

	t.Run("reflected border keeps symmetry", func(t *testing.T) {
		// 1 行 21 列，只有中间一列为 255；越界抽头按 REFLECT_101 折回后左右仍对称
		g := image.NewGray(image.Rect(0, 0, 21, 1))
		g.Pix[10] = 255
		out, err := GaussianBlur(g, 21)
		require.NoError(t, err)
		for d := 1; d <= 10; d++ {
			assert.Equal(t, out.Pix[10-d], out.Pix[10+d], "offset %d", d)
		}
		assert.Greater(t, out.Pix[10], out.Pix[11])
	})

	t.Run("even kernel rejected", func(t *testing.T) {
		_, err := GaussianBlur(image.NewGray(image.Rect(0, 0, 3, 3)), 20)
		assert.Error(t, err)
	})
}

// ===== 📦 Mask =====

func TestNewMask(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			g.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	m := NewMask(g, 32, 0.5)
	assert.Equal(t, 32, m.Size)
	assert.Len(t, m.Cells, 32*32)
	assert.True(t, m.At(16, 16))
	assert.False(t, m.At(0, 0))
	assert.False(t, m.At(31, 31))
	assert.InDelta(t, 16*16, m.Count(), 40)
}

func TestNewMask_AllWhite(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	assert.Zero(t, NewMask(g, 256, 0.5).Count())
}
