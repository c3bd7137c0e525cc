package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/cartoonprint/config"
	"github.com/BaSui01/cartoonprint/internal/metrics"
	"github.com/BaSui01/cartoonprint/internal/pool"
	"github.com/BaSui01/cartoonprint/testutil"
	"github.com/BaSui01/cartoonprint/testutil/fixtures"
	"github.com/BaSui01/cartoonprint/types"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.HTTPPort = 0
	cfg.Server.MetricsPort = 0
	cfg.Storage.OutputDir = t.TempDir()
	cfg.Preview.Width = 32
	cfg.Preview.Height = 32
	cfg.Pipeline.MaxDimension = 128
	cfg.Background.Provider = "none"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, namespace string) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	s := NewServer(cfg, logger, metrics.NewCollector(namespace, logger), nil)
	require.NoError(t, s.initHandlers())

	ts := httptest.NewServer(s.routes())
	t.Cleanup(func() {
		ts.Close()
		s.rateLimiterCancel()
		if s.workers != nil {
			s.workers.Close()
		}
	})
	return ts
}

func postUpload(t *testing.T, url, field, filename string, content []byte) *http.Response {
	t.Helper()
	body, contentType := testutil.MultipartBody(t, field, filename, content)
	resp, err := http.Post(url+"/generate-stl/", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

// =============================================================================
// 🧪 路由测试
// =============================================================================

func TestServer_Root(t *testing.T) {
	ts := newTestServer(t, testConfig(t), "srv_root")

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CartoonPrint API is live.", decodeJSON(t, resp.Body)["message"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServer_HealthAndVersion(t *testing.T) {
	ts := newTestServer(t, testConfig(t), "srv_health")

	for _, p := range []string{"/health", "/healthz", "/ready"} {
		resp, err := http.Get(ts.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
	}

	resp, err := http.Get(ts.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, Version, decodeJSON(t, resp.Body)["version"])
}

func TestServer_GenerateAndServeOutputs(t *testing.T) {
	ts := newTestServer(t, testConfig(t), "srv_generate")

	resp := postUpload(t, ts.URL, "file", "square.png", fixtures.PNG(t, fixtures.Square(96, 32, 64)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp.Body)
	assert.Equal(t, "/outputs/square.stl", body["stl_url"])
	assert.Equal(t, "/outputs/square_preview.png", body["preview_url"])

	stl, err := http.Get(ts.URL + "/outputs/square.stl")
	require.NoError(t, err)
	defer stl.Body.Close()
	require.Equal(t, http.StatusOK, stl.StatusCode)
	data, err := io.ReadAll(stl.Body)
	require.NoError(t, err)
	assert.Greater(t, len(data), 84)

	prev, err := http.Get(ts.URL + "/outputs/square_preview.png")
	require.NoError(t, err)
	defer prev.Body.Close()
	require.Equal(t, http.StatusOK, prev.StatusCode)
	img, err := png.Decode(prev.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
}

func TestServer_GenerateThroughPool(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.MaxConcurrent = 1
	ts := newTestServer(t, cfg, "srv_pool")

	resp := postUpload(t, ts.URL, "file", "pooled.png", fixtures.SquarePNG(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/outputs/pooled.stl", decodeJSON(t, resp.Body)["stl_url"])

	ready, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	defer ready.Body.Close()
	checks := decodeJSON(t, ready.Body)["checks"].(map[string]any)
	assert.Contains(t, checks, "generation_pool")
	assert.Contains(t, checks, "output_dir")
}

func TestServer_GenerateInvalidImage(t *testing.T) {
	ts := newTestServer(t, testConfig(t), "srv_invalid")

	resp := postUpload(t, ts.URL, "file", "notes.txt", []byte("not an image"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decodeJSON(t, resp.Body)["error"], "cannot identify image file")
}

func TestServer_GenerateMissingField(t *testing.T) {
	ts := newTestServer(t, testConfig(t), "srv_missing")

	resp := postUpload(t, ts.URL, "image", "square.png", fixtures.PNG(t, fixtures.Square(96, 32, 64)))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_OutputsNoDirectoryListing(t *testing.T) {
	ts := newTestServer(t, testConfig(t), "srv_listing")

	resp, err := http.Get(ts.URL + "/outputs/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_OutputsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Serve = false
	ts := newTestServer(t, cfg, "srv_noserve")

	postUpload(t, ts.URL, "file", "square.png", fixtures.PNG(t, fixtures.Square(96, 32, 64)))

	resp, err := http.Get(ts.URL + "/outputs/square.stl")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_APIKeyRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.APIKeys = []string{"k1"}
	ts := newTestServer(t, cfg, "srv_apikey")

	resp := postUpload(t, ts.URL, "file", "square.png", fixtures.PNG(t, fixtures.Square(96, 32, 64)))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_HealthNotRateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimitRPS = 1
	cfg.Server.RateLimitBurst = 1
	ts := newTestServer(t, cfg, "srv_ratelimit")

	for i := 0; i < 10; i++ {
		for _, path := range []string{"/", "/health", "/healthz"} {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode, "%s request %d", path, i)
		}
	}
}

func TestBuildPipeline_BackgroundProvider(t *testing.T) {
	t.Run("none warns", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		_, remover, _, err := buildPipeline(testConfig(t), zap.New(core), nil)
		require.NoError(t, err)
		assert.Equal(t, "none", remover.Name())
		assert.Equal(t, 1, logs.FilterMessageSnippet("background removal disabled").Len())
	})

	t.Run("default uses rembg", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Storage.OutputDir = t.TempDir()
		core, logs := observer.New(zapcore.WarnLevel)
		_, remover, _, err := buildPipeline(cfg, zap.New(core), nil)
		require.NoError(t, err)
		assert.Equal(t, "rembg", remover.Name())
		assert.Zero(t, logs.Len())
	})
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, testConfig(t), "srv_method")

	resp, err := http.Get(ts.URL + "/generate-stl/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// =============================================================================
// 🧪 生命周期测试
// =============================================================================

func TestServer_StartWaitShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.MaxConcurrent = 2
	logger := zaptest.NewLogger(t)
	s := NewServer(cfg, logger, metrics.NewCollector("srv_lifecycle", logger), nil)
	require.NoError(t, s.Start())
	assert.NotEmpty(t, s.httpManager.ListenAddr())
	assert.Nil(t, s.metricsManager)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Wait(ctx))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	assert.NoError(t, s.Shutdown(shutdownCtx))
	assert.ErrorIs(t, s.workers.Check(context.Background()), pool.ErrPoolClosed)
}

func TestPooledGenerator_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	logger := zaptest.NewLogger(t)
	_, _, gen, err := buildPipeline(cfg, logger, nil)
	require.NoError(t, err)

	workers := pool.New(pool.Config{Workers: 1})
	defer workers.Close()
	pg := &pooledGenerator{gen: gen, workers: workers}

	upload := bytes.NewReader(fixtures.PNG(t, fixtures.Square(96, 32, 64)))
	res, err := pg.Generate(testutil.CancelledContext(), "square.png", upload)

	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, types.ErrInternalError, types.GetErrorCode(err))
	assert.Contains(t, types.PublicMessage(err), "generation aborted")
	// 上传内容在入队前已读完，之后 handler 关闭文件不影响 worker
	assert.Zero(t, upload.Len())
}

func TestPooledGenerator_UploadReadError(t *testing.T) {
	cfg := testConfig(t)
	_, _, gen, err := buildPipeline(cfg, zaptest.NewLogger(t), nil)
	require.NoError(t, err)

	workers := pool.New(pool.Config{Workers: 1})
	defer workers.Close()
	pg := &pooledGenerator{gen: gen, workers: workers}

	_, err = pg.Generate(context.Background(), "square.png", io.MultiReader(bytes.NewReader([]byte{0x89}), failingReader{}))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidUpload, types.GetErrorCode(err))
	assert.Zero(t, workers.Stats().Submitted)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("multipart file closed") }
