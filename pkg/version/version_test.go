package version_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/memtree/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	got := version.String()

	assert.Contains(t, got, "memtree "+version.Version)
	assert.Contains(t, got, "commit "+version.Commit)
	assert.Contains(t, got, runtime.Version())
}
