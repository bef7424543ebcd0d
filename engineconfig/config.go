// Package engineconfig loads the engine's own tunables (compression
// level, resolver cache size, payload-release behavior) from an INI
// file, aggregating a built-in default with an optional override file
// the same way the teacher's git-config loader layers global/local
// files.
package engineconfig

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// defaultLoadOption mirrors ginternals/config's loader: unrecognized
// lines in a hand-edited file shouldn't abort the whole load.
//nolint:gochecknoglobals // treated as a const, never mutated.
var defaultLoadOption = ini.LoadOptions{
	SkipUnrecognizableLines: true,
}

// Config holds the engine's own tunables. None of this governs
// repository data (that's out of scope); it only shapes how the
// engine itself behaves while parsing, resolving, and building packs.
type Config struct {
	// CompressionLevel is passed to codec.NewZlibCodec for Deflate.
	// 0 selects the codec's own default.
	CompressionLevel int
	// ResolverCacheSize bounds the number of entries kept in the
	// Resolver's LRU memoization cache.
	ResolverCacheSize int
	// ReleasePayloadAfterResolve is loaded from pack.releasePayloadAfterResolve
	// but nothing in this repository reads it: neither pack.Resolver
	// nor the CLI calls Entry.Release, so every resolved Entry keeps its
	// Payload whatever this is set to.
	ReleasePayloadAfterResolve bool
}

// defaultConfig returns the engine's built-in defaults.
func defaultConfig() *Config {
	return &Config{
		CompressionLevel:           0,
		ResolverCacheSize:          1024,
		ReleasePayloadAfterResolve: false,
	}
}

// Load reads path (if it exists) through fs and layers its values over
// the built-in defaults. A missing file is not an error: Load returns
// the defaults unchanged.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := defaultConfig()

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return cfg, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		//nolint:errcheck // read error, if any, already surfaced below
		f.(io.Closer).Close()
	}()

	file, err := ini.LoadSources(defaultLoadOption, f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	section := file.Section("pack")
	if section.HasKey("compressionLevel") {
		v, err := section.Key("compressionLevel").Int()
		if err != nil {
			return nil, fmt.Errorf("%s: pack.compressionLevel: %w", path, err)
		}
		cfg.CompressionLevel = v
	}
	if section.HasKey("resolverCacheSize") {
		v, err := section.Key("resolverCacheSize").Int()
		if err != nil {
			return nil, fmt.Errorf("%s: pack.resolverCacheSize: %w", path, err)
		}
		cfg.ResolverCacheSize = v
	}
	if section.HasKey("releasePayloadAfterResolve") {
		v, err := section.Key("releasePayloadAfterResolve").Bool()
		if err != nil {
			return nil, fmt.Errorf("%s: pack.releasePayloadAfterResolve: %w", path, err)
		}
		cfg.ReleasePayloadAfterResolve = v
	}

	return cfg, nil
}
