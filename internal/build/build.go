package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goplus/llink/internal/emit"
	"github.com/goplus/llink/internal/linkgraph"
	"github.com/goplus/llink/pkgs/toolchain"
)

// Options configures a Builder.
type Options struct {
	Toolchain toolchain.Toolchain
	// Emitter receives change-tracking registrations and link directives.
	Emitter emit.Emitter
	// RootDir is the directory unit paths are relative to.
	RootDir string
	// CacheDir holds the build manifest. Empty disables it.
	CacheDir string
	Logger   *log.Logger
}

// Builder compiles the archives of a plan and emits its link graph.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Toolchain == nil {
		return nil, errors.New("build: no toolchain")
	}
	if opts.Emitter == nil {
		return nil, errors.New("build: no emitter")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Builder{opts: opts}, nil
}

// Build compiles every archive of plan in order, then writes the link
// graph. Each unit is registered for change tracking before its archive is
// compiled. The first compilation failure aborts the build; directives are
// only written once every archive exists.
func (b *Builder) Build(ctx context.Context, plan *linkgraph.Plan) ([]toolchain.Archive, error) {
	e := b.opts.Emitter
	for _, name := range plan.Env {
		if err := e.RerunIfEnvChanged(name); err != nil {
			return nil, err
		}
	}

	cache := b.loadCache()
	archives := make([]toolchain.Archive, 0, len(plan.Archives))
	for _, spec := range plan.Archives {
		for _, u := range spec.Units {
			if err := e.RerunIfChanged(string(u)); err != nil {
				return nil, err
			}
		}
		start := time.Now()
		archive, err := b.opts.Toolchain.Compile(ctx, spec.Name, spec.Units)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", spec.Name, err)
		}
		b.opts.Logger.Info("built", "archive", archive.Name, "units", len(spec.Units), "elapsed", time.Since(start).Round(time.Millisecond))
		archives = append(archives, archive)

		if cache != nil {
			sum, err := fingerprint(b.opts.RootDir, spec.Units)
			if err != nil {
				b.opts.Logger.Warn("cannot fingerprint archive", "archive", spec.Name, "err", err)
				continue
			}
			cache.set(spec.Name, &cacheEntry{
				Path:        archive.Path,
				Units:       spec.Units.Paths(),
				Fingerprint: sum,
				BuildTime:   time.Now(),
			})
		}
	}

	if err := emit.WriteGraph(e, plan.Graph); err != nil {
		return nil, err
	}
	if cache != nil {
		if err := saveCache(b.opts.CacheDir, cache); err != nil {
			b.opts.Logger.Warn("cannot save build manifest", "dir", b.opts.CacheDir, "err", err)
		}
	}
	return archives, nil
}

func (b *Builder) loadCache() *buildCache {
	if b.opts.CacheDir == "" {
		return nil
	}
	cache, err := loadCache(b.opts.CacheDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.opts.Logger.Warn("ignoring unreadable build manifest", "dir", b.opts.CacheDir, "err", err)
		}
		return &buildCache{}
	}
	return cache
}
