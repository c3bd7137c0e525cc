package sketch

import (
	"image"

	"github.com/disintegration/imaging"
)

// Mask 行优先存储的 Size×Size 布尔网格，true 表示暗部（墨线）。
type Mask struct {
	Size  int
	Cells []bool
}

// At reports whether the cell at (row, col) is set.
func (m *Mask) At(row, col int) bool {
	return m.Cells[row*m.Size+col]
}

// Count 返回为 true 的单元数。
func (m *Mask) Count() int {
	n := 0
	for _, on := range m.Cells {
		if on {
			n++
		}
	}
	return n
}

// NewMask 把素描图双线性缩放到 size×size，归一化到 [0,1] 后
// 取小于 threshold 的单元为 true。
func NewMask(sketch *image.Gray, size int, threshold float64) *Mask {
	small := imaging.Resize(sketch, size, size, imaging.Linear)
	m := &Mask{Size: size, Cells: make([]bool, size*size)}
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			v := float64(small.Pix[r*small.Stride+c*4]) / 255
			m.Cells[r*size+c] = v < threshold
		}
	}
	return m
}
