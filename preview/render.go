package preview

import (
	"context"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BaSui01/cartoonprint/mesh"
)

// Renderer 把网格渲染成图像。
type Renderer interface {
	Render(ctx context.Context, m *mesh.Mesh, cam Camera) (image.Image, error)
}

// RayCaster 基于 render3d 的光线投射渲染器。
type RayCaster struct {
	Width      int
	Height     int
	Background color.NRGBA
}

// NewRayCaster creates a renderer producing width×height images on black.
func NewRayCaster(width, height int) *RayCaster {
	return &RayCaster{
		Width:      width,
		Height:     height,
		Background: color.NRGBA{A: 0xff},
	}
}

// Render 渲染网格。空网格返回纯背景图。
func (r *RayCaster) Render(ctx context.Context, m *mesh.Mesh, cam Camera) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Empty() {
		return imaging.New(r.Width, r.Height, r.Background), nil
	}

	camera := render3d.NewCameraAt(coord(cam.Eye), coord(cam.Target), cam.FOV)
	caster := &render3d.RayCaster{
		Camera: camera,
		Lights: []*render3d.PointLight{
			{
				Origin: coord(cam.Eye),
				Color:  render3d.NewColor(1),
			},
		},
	}
	img := render3d.NewImage(r.Width, r.Height)
	caster.Render(img, render3d.Objectify(m.Model3D(), nil))
	return img.RGBA(), nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

func coord(v r3.Vec) model3d.Coord3D {
	return model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
}
