package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/spatial/r3"
)

// stlHeaderSize 二进制 STL 文件头长度
const stlHeaderSize = 80

// stlFacet 二进制 STL 中一个面的布局（50 字节）。
type stlFacet struct {
	Normal    [3]float32
	Vertices  [3][3]float32
	Attribute uint16
}

// Triangles 把网格转换为 model3d 三角形列表（保持面顺序，包括退化面）。
func (m *Mesh) Triangles() []*model3d.Triangle {
	if m == nil {
		return nil
	}
	out := make([]*model3d.Triangle, len(m.Faces))
	for i := range m.Faces {
		t := m.Triangle(i)
		out[i] = &model3d.Triangle{toCoord(t[0]), toCoord(t[1]), toCoord(t[2])}
	}
	return out
}

// Model3D 返回等价的 model3d.Mesh，供渲染使用。
func (m *Mesh) Model3D() *model3d.Mesh {
	return model3d.NewMeshTriangles(m.Triangles())
}

// WriteSTL 以二进制 STL 格式写出网格。空网格写出只含文件头的 STL。
// 退化面（零面积）的法向量写为 (0,0,0)。
func (m *Mesh) WriteSTL(w io.Writer) error {
	var count int
	if m != nil {
		count = len(m.Faces)
	}
	if uint64(count) > math.MaxUint32 {
		return fmt.Errorf("write stl: too many faces: %d", count)
	}

	bw := bufio.NewWriter(w)
	var header [stlHeaderSize]byte
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write stl header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(count)); err != nil {
		return fmt.Errorf("write stl count: %w", err)
	}
	for i := 0; i < count; i++ {
		t := m.Triangle(i)
		f := stlFacet{Normal: toFloat32(FacetNormal(t))}
		for j, v := range t {
			f.Vertices[j] = toFloat32(v)
		}
		if err := binary.Write(bw, binary.LittleEndian, &f); err != nil {
			return fmt.Errorf("write stl facet %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}
	return nil
}

// FacetNormal 返回三角形的单位法向量（右手定则）；零面积时返回零向量。
func FacetNormal(t [3]r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

func toFloat32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func toCoord(v r3.Vec) model3d.Coord3D {
	return model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
}
