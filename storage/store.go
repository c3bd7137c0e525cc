package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/BaSui01/cartoonprint/config"
)

const defaultBaseName = "untitled"

// Store 输出目录的所有者。
type Store struct {
	dir       string
	urlPrefix string
}

// New 创建 Store 并确保输出目录存在。
func New(cfg config.StorageConfig) (*Store, error) {
	s := &Store{
		dir:       cfg.OutputDir,
		urlPrefix: "/" + strings.Trim(cfg.URLPrefix, "/"),
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// Ensure 创建输出目录（已存在时不做任何事）。
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", s.dir, err)
	}
	return nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// URLPrefix returns the public URL prefix, always with a leading slash.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// BaseName 取上传文件名的最后一个路径元素，并截断到第一个 '.' 之前。
// 结果为空时返回 "untitled"。
func BaseName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	if i := strings.IndexByte(filename, '.'); i >= 0 {
		filename = filename[:i]
	}
	if filename == "" {
		return defaultBaseName
	}
	return filename
}

// STLName returns "<base>.stl".
func STLName(base string) string { return base + ".stl" }

// PreviewName returns "<base>_preview.png".
func PreviewName(base string) string { return base + "_preview.png" }

// Write 截断/覆盖写入 name，内容由 fill 产生。
func (s *Store) Write(name string, fill func(io.Writer) error) (err error) {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()
	if err := fill(f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// URL 返回产物的公开路径 "<prefix>/<name>"。
func (s *Store) URL(name string) string {
	return path.Join(s.urlPrefix, name)
}

// ===== 📦 HealthCheck =====

func (s *Store) Name() string { return "output_dir" }

// Check 通过创建并删除探针文件确认输出目录可写。
func (s *Store) Check(_ context.Context) error {
	probe := filepath.Join(s.dir, ".probe-"+uuid.NewString())
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("output dir not writable: %w", err)
	}
	f.Close()
	return os.Remove(probe)
}
