// Package file persists the match dataset as a pretty-printed JSON
// document, replaced atomically so readers never observe a partial write.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
	"github.com/clubgpt/clubsync/internal/platform/logging"
)

type DatasetRepository struct {
	path   string
	logger *logging.Logger
}

func NewDatasetRepository(path string, logger *logging.Logger) *DatasetRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &DatasetRepository{path: path, logger: logger}
}

func (r *DatasetRepository) Path() string {
	return r.path
}

// Save writes the dataset to a sibling temp file, fsyncs it, and renames
// it over the target. Map keys are sorted so consecutive syncs diff
// cleanly. A failed save leaves any previous document untouched.
func (r *DatasetRepository) Save(ctx context.Context, dataset *matchdata.Dataset) error {
	if dataset == nil {
		return crerr.New("dataset is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := sonic.ConfigStd.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return crerr.Wrap(err, "encode dataset")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(encoded)
	_ = buf.WriteByte('\n')

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return crerr.Wrap(err, "create dataset directory")
		}
	}

	tmpPath := fmt.Sprintf("%s.tmp.%d", r.path, os.Getpid())
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return crerr.Wrap(err, "create temp dataset file")
	}

	if _, err := f.Write(buf.B); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return crerr.Wrap(err, "write temp dataset file")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return crerr.Wrap(err, "sync temp dataset file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return crerr.Wrap(err, "close temp dataset file")
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return crerr.Wrap(err, "replace dataset file")
	}

	r.logger.InfoContext(ctx, "dataset written",
		"path", r.path,
		"bytes", buf.Len(),
		"matches", len(dataset.Matches),
	)
	return nil
}

func (r *DatasetRepository) Load(ctx context.Context) (*matchdata.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, crerr.Wrap(err, "read dataset file")
	}

	var dataset matchdata.Dataset
	if err := sonic.Unmarshal(raw, &dataset); err != nil {
		return nil, crerr.Wrap(err, "decode dataset file")
	}
	return &dataset, nil
}
