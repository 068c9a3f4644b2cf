// Package filestore abstracts blob storage for backup archives. Backends
// register themselves at init time and are selected by config.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shelfmark/shelfmark/internal/config"
)

// ReadSeekCloser is what Save consumes. Seekability lets a backend rewind
// and retry the upload without buffering the whole blob again.
type ReadSeekCloser = io.ReadSeekCloser

type Store interface {
	Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Factory func(args interface{}) (Store, error)

// Backends register from init, before any New call, so no locking is needed.
var backends = map[string]Factory{}

func Register(name string, factory Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || factory == nil {
		return
	}
	backends[name] = factory
}

func New(cfg config.FileStoreConfig) (Store, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Type))
	if name == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	factory, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

// decodeConfig round-trips the untyped config blob into a backend's own
// config struct.
func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}
