package catalog

import (
	"context"
	"fmt"
	"strings"

	"duel-lite/battle"

	"go.uber.org/zap"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

// Options selects and configures the content backend.
type Options struct {
	Mode string
	// Files are extra JSON/YAML content files loaded in memory mode.
	Files      []string
	SQLitePath string
	DSN        string
	// Seed imports the built-in content into an SQL store on open.
	Seed      bool
	CacheSize int
}

// NormalizeMode maps the accepted spellings onto the mode constants.
func NormalizeMode(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", ModeMemory, "mem":
		return ModeMemory
	case ModeSQLite, "sqlite3", "local":
		return ModeSQLite
	case ModePostgres, "postgresql", "pg", "db":
		return ModePostgres
	default:
		return raw
	}
}

// Open builds the content source for opts. The returned close function is
// never nil.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (battle.Source, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nop := func() error { return nil }
	mode := NormalizeMode(opts.Mode)

	switch mode {
	case ModeMemory:
		reg, err := defaultsWithFiles(opts.Files)
		if err != nil {
			return nil, nop, err
		}
		chars, locs := reg.Count()
		logger.Info("catalog opened", zap.String("mode", mode), zap.Int("characters", chars), zap.Int("locations", locs))
		return reg, nop, nil

	case ModeSQLite, ModePostgres:
		src, closeFn, err := openSQL(ctx, mode, opts)
		if err != nil {
			return nil, nop, err
		}
		logger.Info("catalog opened", zap.String("mode", mode), zap.Bool("seeded", opts.Seed), zap.Int("cache_size", opts.CacheSize))
		return src, closeFn, nil

	default:
		return nil, nop, fmt.Errorf("invalid catalog mode %q (supported: %s, %s, %s)", mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}

// defaultsWithFiles loads the built-in content, then each file on top.
func defaultsWithFiles(files []string) (*Registry, error) {
	reg, err := Defaults()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := reg.LoadFromFile(f); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
	}
	return reg, nil
}
