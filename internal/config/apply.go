package config

import (
	"log/slog"

	"github.com/Sumatoshi-tech/memtree/pkg/rbtree"
)

// TreeOptions converts the tree section into rbtree options.
// A nil logger keeps the tree's default discard logger.
func (c *Config) TreeOptions(logger *slog.Logger) []rbtree.Option {
	opts := []rbtree.Option{
		rbtree.WithAllocatedOnInsert(c.Tree.AllocatedOnInsert),
	}

	if logger != nil {
		opts = append(opts, rbtree.WithLogger(logger))
	}

	return opts
}

// SlogLevel maps logging.level onto a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
