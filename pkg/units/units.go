// Package units provides binary size multipliers (1024-based) and
// human-readable size parsing for memory settings.
package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Binary size multipliers.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// ErrInvalidSize is returned when a size string cannot be parsed.
var ErrInvalidSize = errors.New("invalid size")

// ParseSize parses a byte count such as "100", "4KiB" or "1 MB".
// A bare number is a count of bytes.
func ParseSize(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}

	size, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidSize, raw, err)
	}

	return size, nil
}

// FormatSize renders a byte count with binary units, e.g. "4.0 KiB".
func FormatSize(size uint64) string {
	return humanize.IBytes(size)
}
