package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/cartoonprint/api"
	"github.com/BaSui01/cartoonprint/pipeline"
	"github.com/BaSui01/cartoonprint/types"
)

// =============================================================================
// 🧊 STL 生成 Handler
// =============================================================================

// uploadField multipart 表单中的文件字段名
const uploadField = "file"

// multipart 解析时驻留内存的上限，超出部分落盘
const maxFormMemory = 8 << 20

// Generator 生成流水线
type Generator interface {
	Generate(ctx context.Context, filename string, upload io.Reader) (*pipeline.Result, error)
}

// GenerateResponse 成功响应
type GenerateResponse = api.GenerateResponse

// GenerateHandler 处理 POST /generate-stl/
type GenerateHandler struct {
	gen       Generator
	maxUpload int64
	logger    *zap.Logger
}

// NewGenerateHandler 创建生成处理器。maxUpload <= 0 表示不限制。
func NewGenerateHandler(gen Generator, maxUpload int64, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		gen:       gen,
		maxUpload: maxUpload,
		logger:    logger.With(zap.String("component", "generate")),
	}
}

// HandleGenerate 读取 multipart 字段 file 并运行流水线。
// 流水线的任何失败都以 HTTP 200 + {"error": msg} 返回。
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.rejectUpload(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.rejectUpload(w, err)
		return
	}
	defer file.Close()

	res, err := h.gen.Generate(r.Context(), header.Filename, file)
	if err != nil {
		WriteError(w, http.StatusOK, types.PublicMessage(err))
		return
	}

	WriteJSON(w, http.StatusOK, GenerateResponse{
		STLURL:     res.STLURL,
		PreviewURL: res.PreviewURL,
	})
}

// rejectUpload 处理请求体本身不合法的情况（超限、缺少字段、非 multipart）
func (h *GenerateHandler) rejectUpload(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	message := `missing multipart field "file"`

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		message = "upload exceeds size limit"
	}

	h.logger.Warn("upload rejected",
		zap.String("code", string(types.ErrInvalidUpload)),
		zap.Int("status", status),
		zap.Error(err),
	)
	WriteError(w, status, message)
}
