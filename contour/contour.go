package contour

import (
	"errors"
	"fmt"
)

// Point 轮廓点，(Row, Col) 为网格坐标，可以是小数。
type Point struct {
	Row float64
	Col float64
}

// Contour 有序点列。闭合轮廓的最后一个点与第一个点相同。
type Contour []Point

// Closed reports whether the contour ends where it starts.
func (c Contour) Closed() bool {
	return len(c) > 1 && c[0] == c[len(c)-1]
}

// Field 行优先存储的标量网格。
type Field struct {
	Rows   int
	Cols   int
	Values []float64
}

// ErrFieldSize is returned when a field's dimensions do not match its data.
var ErrFieldSize = errors.New("contour: field dimensions do not match values")

// NewField 创建全零网格。
func NewField(rows, cols int) *Field {
	return &Field{Rows: rows, Cols: cols, Values: make([]float64, rows*cols)}
}

// At 返回 (r, c) 处的值。
func (f *Field) At(r, c int) float64 {
	return f.Values[r*f.Cols+c]
}

// Set 设置 (r, c) 处的值。
func (f *Field) Set(r, c int, v float64) {
	f.Values[r*f.Cols+c] = v
}

// FieldFromMask 将布尔掩码转换为 0/1 网格。
func FieldFromMask(rows, cols int, mask []bool) (*Field, error) {
	if rows*cols != len(mask) {
		return nil, fmt.Errorf("%w: %dx%d vs %d cells", ErrFieldSize, rows, cols, len(mask))
	}
	f := NewField(rows, cols)
	for i, on := range mask {
		if on {
			f.Values[i] = 1
		}
	}
	return f, nil
}

// Find 追踪 level 等值线，返回按创建顺序排列的全部轮廓。
// 小于 2×2 的网格没有单元，返回空结果。
func Find(f *Field, level float64) ([]Contour, error) {
	if f == nil || f.Rows < 0 || f.Cols < 0 || f.Rows*f.Cols != len(f.Values) {
		return nil, ErrFieldSize
	}
	return assemble(segments(f, level)), nil
}

type segment struct {
	from, to Point
}

// interp 返回 from→to 之间 level 所在的比例位置。
func interp(from, to, level float64) float64 {
	if to == from {
		return 0
	}
	return (level - from) / (to - from)
}

// segments 逐个单元生成等值线段（行优先扫描）。
func segments(f *Field, level float64) []segment {
	var out []segment
	for r := 0; r < f.Rows-1; r++ {
		for c := 0; c < f.Cols-1; c++ {
			ul := f.At(r, c)
			ur := f.At(r, c+1)
			ll := f.At(r+1, c)
			lr := f.At(r+1, c+1)

			square := 0
			if ul > level {
				square |= 1
			}
			if ur > level {
				square |= 2
			}
			if ll > level {
				square |= 4
			}
			if lr > level {
				square |= 8
			}
			if square == 0 || square == 15 {
				continue
			}

			top := Point{Row: float64(r), Col: float64(c) + interp(ul, ur, level)}
			bottom := Point{Row: float64(r + 1), Col: float64(c) + interp(ll, lr, level)}
			left := Point{Row: float64(r) + interp(ul, ll, level), Col: float64(c)}
			right := Point{Row: float64(r) + interp(ur, lr, level), Col: float64(c + 1)}

			switch square {
			case 1:
				out = append(out, segment{top, left})
			case 2:
				out = append(out, segment{right, top})
			case 3:
				out = append(out, segment{right, left})
			case 4:
				out = append(out, segment{left, bottom})
			case 5:
				out = append(out, segment{top, bottom})
			case 6:
				out = append(out, segment{right, top}, segment{left, bottom})
			case 7:
				out = append(out, segment{right, bottom})
			case 8:
				out = append(out, segment{bottom, right})
			case 9:
				out = append(out, segment{top, left}, segment{bottom, right})
			case 10:
				out = append(out, segment{bottom, top})
			case 11:
				out = append(out, segment{bottom, left})
			case 12:
				out = append(out, segment{left, right})
			case 13:
				out = append(out, segment{top, right})
			case 14:
				out = append(out, segment{left, top})
			}
		}
	}
	return out
}
