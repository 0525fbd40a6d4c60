package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_DefaultValues(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "dev", Commit)
	assert.Equal(t, "unknown", BuildTime)
}

func TestGet(t *testing.T) {
	info := Get("campusvoice")

	assert.Equal(t, "campusvoice", info.Service)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.Equal(t, "campusvoice dev (commit dev, built unknown)", info.String())
}

func TestGet_LinkerOverrides(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	Version = "v1.2.0"
	Commit = "abc1234"

	info := Get("campusvoice-adm")
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, "abc1234", info.Commit)
}
