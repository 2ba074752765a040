package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuildTime
	})

	Version, GitCommit, BuildTime = "1.2.3", "abc123def", "2026-01-15T10:30:00Z"

	s := String()
	assert.Contains(t, s, "janusgraph-lab 1.2.3")
	assert.Contains(t, s, "abc123def")
	assert.Contains(t, s, "2026-01-15T10:30:00Z")
	assert.Contains(t, s, runtime.Version())
}

func TestInfo(t *testing.T) {
	info := Info()
	assert.Equal(t, Name, info.Name)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
