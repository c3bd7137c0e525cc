package background

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/BaSui01/cartoonprint/config"
	"github.com/BaSui01/cartoonprint/internal/tlsutil"
)

// RembgRemover 调用 rembg HTTP 服务去除背景。
// API: POST {base}/api/remove，multipart 字段 file，响应为 PNG。
type RembgRemover struct {
	baseURL string
	client  *http.Client
}

// NewRembgRemover creates a rembg client.
func NewRembgRemover(cfg config.BackgroundConfig) *RembgRemover {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &RembgRemover{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  tlsutil.SecureHTTPClient(timeout),
	}
}

func (r *RembgRemover) Name() string { return ProviderRembg }

// Remove 上传 PNG 编码的图像并解码返回的结果。
func (r *RembgRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, err
	}
	if err := imaging.Encode(part, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/remove", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "image/png")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rembg request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rembg error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	out, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rembg returned undecodable image: %w", err)
	}
	return out, nil
}

// ===== 📦 HealthCheck =====

func (r *RembgRemover) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("rembg unreachable: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("rembg unhealthy: status=%d", resp.StatusCode)
	}
	return nil
}
