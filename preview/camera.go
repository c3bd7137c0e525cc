package preview

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BaSui01/cartoonprint/config"
	"github.com/BaSui01/cartoonprint/mesh"
)

// Camera 透视相机。FOV 为垂直视场角（弧度）。
type Camera struct {
	Eye    r3.Vec
	Target r3.Vec
	Up     r3.Vec
	FOV    float64
}

// Angles 欧拉角（弧度），按 X → Y → Z 的顺序应用于静止坐标轴。
type Angles struct {
	X, Y, Z float64
}

// AnglesFromDegrees converts degrees to Angles.
func AnglesFromDegrees(x, y, z float64) Angles {
	return Angles{X: radians(x), Y: radians(y), Z: radians(z)}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func (a Angles) rotate(v r3.Vec) r3.Vec {
	v = r3.NewRotation(a.X, r3.Vec{X: 1}).Rotate(v)
	v = r3.NewRotation(a.Y, r3.Vec{Y: 1}).Rotate(v)
	return r3.NewRotation(a.Z, r3.Vec{Z: 1}).Rotate(v)
}

// CameraFor 计算看向网格重心的相机。
func CameraFor(m *mesh.Mesh, distance float64, angles Angles, fov float64) Camera {
	target := m.Centroid()
	offset := angles.rotate(r3.Vec{Z: distance})
	return Camera{
		Eye:    r3.Add(target, offset),
		Target: target,
		Up:     angles.rotate(r3.Vec{Y: 1}),
		FOV:    fov,
	}
}

// CameraFromConfig 按预览配置为网格放置相机。
func CameraFromConfig(m *mesh.Mesh, cfg config.PreviewConfig) Camera {
	return CameraFor(m, cfg.Distance,
		AnglesFromDegrees(cfg.AngleX, cfg.AngleY, cfg.AngleZ),
		radians(cfg.FieldOfView))
}
