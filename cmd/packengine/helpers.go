package main

import (
	"fmt"
	"path/filepath"

	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/engineconfig"
	"github.com/nivl-labs/packengine/internal/cache"
	"github.com/nivl-labs/packengine/packstore"
	"github.com/spf13/afero"
)

// engine bundles the collaborators every subcommand wires together:
// a codec/hasher pair sized by engineconfig, and (when a repo root is
// given) a FileStore backed by it.
type engine struct {
	fs     afero.Fs
	cfg    *engineconfig.Config
	codec  codec.Codec
	hasher codec.Hasher
}

func newEngine(fs afero.Fs, repoRoot string) (*engine, error) {
	cfg, err := engineconfig.Load(fs, filepath.Join(repoRoot, "packengine.ini"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &engine{
		fs:     fs,
		cfg:    cfg,
		codec:  codec.NewZlibCodec(cfg.CompressionLevel),
		hasher: codec.SHA1Hasher{},
	}, nil
}

func (e *engine) store(repoRoot string) (*packstore.FileStore, error) {
	return packstore.NewFileStore(e.fs, repoRoot, e.codec)
}

func (e *engine) resolverCache() (*cache.LRU, error) {
	return cache.NewLRU(e.cfg.ResolverCacheSize)
}
