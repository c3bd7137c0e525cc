package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/cartoonprint/background"
	"github.com/BaSui01/cartoonprint/config"
	"github.com/BaSui01/cartoonprint/contour"
	"github.com/BaSui01/cartoonprint/internal/ctxkeys"
	"github.com/BaSui01/cartoonprint/internal/metrics"
	"github.com/BaSui01/cartoonprint/internal/telemetry"
	"github.com/BaSui01/cartoonprint/mesh"
	"github.com/BaSui01/cartoonprint/preview"
	"github.com/BaSui01/cartoonprint/sketch"
	"github.com/BaSui01/cartoonprint/storage"
	"github.com/BaSui01/cartoonprint/types"
)

// 阶段名称，用于 span、指标标签与日志
const (
	StageUpload     = "upload"
	StageDecode     = "decode"
	StageEnhance    = "enhance"
	StageBackground = "background"
	StageSketch     = "sketch"
	StageContour    = "contour"
	StageMesh       = "mesh"
	StageExport     = "export"
	StageRender     = "render"
)

// Result 一次成功生成的产物。
type Result struct {
	BaseName   string `json:"-"`
	STLURL     string `json:"stl_url"`
	PreviewURL string `json:"preview_url"`
	Contours   int    `json:"-"`
	Triangles  int    `json:"-"`
}

// Generator 把上传的图像转换为 STL 与预览图。
type Generator struct {
	cfg      config.PipelineConfig
	preview  config.PreviewConfig
	store    *storage.Store
	remover  background.Remover
	renderer preview.Renderer
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Option 配置 Generator。
type Option func(*Generator)

// WithRemover 设置背景去除实现，默认直通。
func WithRemover(r background.Remover) Option {
	return func(g *Generator) { g.remover = r }
}

// WithRenderer 设置预览渲染器，默认按预览尺寸创建 RayCaster。
func WithRenderer(r preview.Renderer) Option {
	return func(g *Generator) { g.renderer = r }
}

// WithMetrics 设置指标收集器。
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Generator) { g.metrics = c }
}

// WithLogger 设置日志记录器。
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator 创建生成器。
func NewGenerator(cfg config.PipelineConfig, previewCfg config.PreviewConfig, store *storage.Store, opts ...Option) *Generator {
	g := &Generator{
		cfg:     cfg,
		preview: previewCfg,
		store:   store,
		remover: background.NoneRemover{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.renderer == nil {
		g.renderer = preview.NewRayCaster(previewCfg.Width, previewCfg.Height)
	}
	g.logger = g.logger.With(zap.String("component", "pipeline"))
	return g
}

// Generate 执行完整流水线。filename 只用于推导输出文件名。
func (g *Generator) Generate(ctx context.Context, filename string, upload io.Reader) (res *Result, err error) {
	start := time.Now()
	base := storage.BaseName(filename)

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.generate",
		trace.WithAttributes(attribute.String("cartoonprint.base_name", base)))

	defer func() {
		if p := recover(); p != nil {
			g.logger.Error("pipeline panic", zap.Any("panic", p), zap.Stack("stack"))
			res, err = nil, types.NewError(types.ErrInternalError, fmt.Sprint(p))
		}
		telemetry.EndSpan(span, err)
		g.finish(ctx, base, res, err, time.Since(start))
	}()

	var data []byte
	if err := g.stage(ctx, StageUpload, types.ErrInvalidUpload, "failed to read upload", func(context.Context) error {
		var rerr error
		data, rerr = io.ReadAll(upload)
		return rerr
	}); err != nil {
		return nil, err
	}

	var img *image.NRGBA
	if err := g.stage(ctx, StageDecode, types.ErrDecodeFailed, "cannot identify image file", func(context.Context) error {
		var derr error
		img, derr = sketch.Decode(bytes.NewReader(data))
		return derr
	}); err != nil {
		return nil, err
	}

	if err := g.stage(ctx, StageEnhance, types.ErrSketchFailed, "contrast enhancement failed", func(context.Context) error {
		img = sketch.EnhanceContrast(sketch.Thumbnail(img, g.cfg.MaxDimension), g.cfg.ContrastFactor)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := g.stage(ctx, StageBackground, types.ErrBackgroundFailed, "background removal failed", func(ctx context.Context) error {
		out, rerr := g.remover.Remove(ctx, img)
		if g.metrics != nil {
			g.metrics.RecordBackground(g.remover.Name(), rerr)
		}
		if rerr != nil {
			return rerr
		}
		img = imaging.Clone(out)
		return nil
	}); err != nil {
		return nil, err
	}

	var mask *sketch.Mask
	if err := g.stage(ctx, StageSketch, types.ErrSketchFailed, "sketch extraction failed", func(context.Context) error {
		drawn, serr := sketch.Sketch(img, g.cfg.BlurKernel)
		if serr != nil {
			return serr
		}
		mask = sketch.NewMask(drawn, g.cfg.MaskSize, g.cfg.Threshold)
		return nil
	}); err != nil {
		return nil, err
	}

	var contours []contour.Contour
	if err := g.stage(ctx, StageContour, types.ErrContourFailed, "contour tracing failed", func(context.Context) error {
		field, ferr := contour.FieldFromMask(mask.Size, mask.Size, mask.Cells)
		if ferr != nil {
			return ferr
		}
		contours, ferr = contour.Find(field, g.cfg.ContourLevel)
		return ferr
	}); err != nil {
		return nil, err
	}

	var m *mesh.Mesh
	if err := g.stage(ctx, StageMesh, types.ErrInternalError, "extrusion failed", func(context.Context) error {
		m = mesh.ExtrudeAll(contours, g.cfg.ExtrudeHeight)
		return nil
	}); err != nil {
		return nil, err
	}

	stlName := storage.STLName(base)
	if err := g.stage(ctx, StageExport, types.ErrExportFailed, "failed to export STL", func(context.Context) error {
		return g.store.Write(stlName, m.WriteSTL)
	}); err != nil {
		return nil, err
	}

	previewName := storage.PreviewName(base)
	if err := g.stage(ctx, StageRender, types.ErrRenderFailed, "failed to render preview", func(ctx context.Context) error {
		shot, rerr := g.renderer.Render(ctx, m, preview.CameraFromConfig(m, g.preview))
		if rerr != nil {
			return rerr
		}
		return g.store.Write(previewName, func(w io.Writer) error {
			return preview.Encode(w, shot)
		})
	}); err != nil {
		return nil, err
	}

	return &Result{
		BaseName:   base,
		STLURL:     g.store.URL(stlName),
		PreviewURL: g.store.URL(previewName),
		Contours:   len(contours),
		Triangles:  len(m.Faces),
	}, nil
}

// stage 在子 span 中执行 fn，记录耗时，并把错误包装为带阶段码的 *types.Error。
func (g *Generator) stage(ctx context.Context, name string, code types.ErrorCode, message string, fn func(context.Context) error) error {
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline."+name)
	start := time.Now()

	err := fn(ctx)
	if g.metrics != nil {
		g.metrics.RecordStage(name, time.Since(start))
	}
	if err != nil {
		err = types.WrapError(err, code, message).WithStage(name)
	}
	telemetry.EndSpan(span, err)
	return err
}

func (g *Generator) finish(ctx context.Context, base string, res *Result, err error, elapsed time.Duration) {
	logger := g.logger
	if id, ok := ctxkeys.RequestID(ctx); ok {
		logger = logger.With(zap.String("request_id", id))
	}

	if err != nil {
		code := types.GetErrorCode(err)
		if code == "" {
			code = types.ErrInternalError
		}
		if g.metrics != nil {
			g.metrics.RecordGeneration(string(code), elapsed)
		}
		logger.Error("generation failed",
			zap.String("base_name", base),
			zap.String("code", string(code)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}

	if g.metrics != nil {
		g.metrics.RecordGeneration("success", elapsed)
		g.metrics.RecordMesh(res.Contours, res.Triangles)
	}
	logger.Info("stl generated",
		zap.String("base_name", base),
		zap.Int("contours", res.Contours),
		zap.Int("triangles", res.Triangles),
		zap.Duration("duration", elapsed),
	)
}
