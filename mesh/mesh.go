package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BaSui01/cartoonprint/contour"
)

// Face 是三角面的三个顶点索引。
type Face [3]int

// Mesh 三角网格（顶点 + 面索引）。
type Mesh struct {
	Vertices []r3.Vec
	Faces    []Face
}

// Empty reports whether the mesh has no faces.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Faces) == 0
}

// Triangle 返回第 i 个面的三个顶点。
func (m *Mesh) Triangle(i int) [3]r3.Vec {
	f := m.Faces[i]
	return [3]r3.Vec{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
}

// Extrude 将一条隐式闭合的轮廓拉伸为高度为 height 的侧壁网格。
//
// 顶点 0..N-1 位于 z=0，N..2N-1 位于 z=height；对每条边 i→j
// （j = (i+1) mod N）生成面 {i, j, N+j} 与 {i, N+j, N+i}。
// 顶点坐标取 x = col、y = row。不生成顶/底面；退化轮廓产生退化三角形，不报错。
func Extrude(c contour.Contour, height float64) *Mesh {
	n := len(c)
	m := &Mesh{
		Vertices: make([]r3.Vec, 2*n),
		Faces:    make([]Face, 0, 2*n),
	}
	for i, p := range c {
		m.Vertices[i] = r3.Vec{X: p.Col, Y: p.Row, Z: 0}
		m.Vertices[n+i] = r3.Vec{X: p.Col, Y: p.Row, Z: height}
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		m.Faces = append(m.Faces,
			Face{i, j, n + j},
			Face{i, n + j, n + i},
		)
	}
	return m
}

// Concat 拼接多个网格，后续网格的面索引按已累计的顶点数偏移。
// 重叠几何不做去重。
func Concat(meshes ...*Mesh) *Mesh {
	var nv, nf int
	for _, m := range meshes {
		if m == nil {
			continue
		}
		nv += len(m.Vertices)
		nf += len(m.Faces)
	}
	out := &Mesh{
		Vertices: make([]r3.Vec, 0, nv),
		Faces:    make([]Face, 0, nf),
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		offset := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, f := range m.Faces {
			out.Faces = append(out.Faces, Face{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	return out
}

// Area 返回全部三角面的面积之和。
func (m *Mesh) Area() float64 {
	var total float64
	for i := range m.Faces {
		total += triangleArea(m.Triangle(i))
	}
	return total
}

// Centroid 返回以三角形面积加权的重心。总面积为零时退化为顶点均值，
// 空网格返回原点。
func (m *Mesh) Centroid() r3.Vec {
	if m == nil || len(m.Vertices) == 0 {
		return r3.Vec{}
	}

	var (
		sum   r3.Vec
		total float64
	)
	for i := range m.Faces {
		t := m.Triangle(i)
		a := triangleArea(t)
		c := r3.Scale(1.0/3.0, r3.Add(r3.Add(t[0], t[1]), t[2]))
		sum = r3.Add(sum, r3.Scale(a, c))
		total += a
	}
	if total > 0 {
		return r3.Scale(1/total, sum)
	}

	var mean r3.Vec
	for _, v := range m.Vertices {
		mean = r3.Add(mean, v)
	}
	return r3.Scale(1/float64(len(m.Vertices)), mean)
}

// Bounds 返回包围盒的最小/最大角点。空网格返回两个零向量。
func (m *Mesh) Bounds() (lo, hi r3.Vec) {
	if m == nil || len(m.Vertices) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = r3.Vec{X: min(lo.X, v.X), Y: min(lo.Y, v.Y), Z: min(lo.Z, v.Z)}
		hi = r3.Vec{X: max(hi.X, v.X), Y: max(hi.Y, v.Y), Z: max(hi.Z, v.Z)}
	}
	return lo, hi
}

func triangleArea(t [3]r3.Vec) float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0])))
}

// ExtrudeAll 拉伸每条轮廓并拼接为一个网格。
func ExtrudeAll(contours []contour.Contour, height float64) *Mesh {
	parts := make([]*Mesh, len(contours))
	for i, c := range contours {
		parts[i] = Extrude(c, height)
	}
	return Concat(parts...)
}
