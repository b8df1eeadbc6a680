package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultHasSaneToolchain(t *testing.T) {
	c := Default()
	assert.Equal(t, "cc", c.Build.CC)
	assert.NotZero(t, c.Run.NumThreads)
	assert.False(t, c.Run.FailFast)
}

func TestLoadAppliesRepoConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	contents := "[build]\ncc = clang\ncflags = -O2\n\n[run]\nfailfast = true\n"
	assert.NoError(t, os.WriteFile(filepath.Join(dir, RepoConfigName), []byte(contents), 0644))

	c, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, "clang", c.Build.CC)
	assert.Equal(t, "-O2", c.Build.CFlags)
	assert.True(t, c.Run.FailFast)
	// Fields untouched by the file keep Default()'s values.
	assert.Equal(t, "c++", c.Build.CXX)
}

func TestLoadLocalOverridesRepo(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, RepoConfigName), []byte("[build]\ncc = clang\n"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, LocalConfigName), []byte("[build]\ncc = gcc-12\n"), 0644))

	c, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, "gcc-12", c.Build.CC)
}

func TestLoadMissingFilesIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, Default().Build.CC, c.Build.CC)
}

func TestEnvOverridesWinOverFiles(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, RepoConfigName), []byte("[build]\ncc = clang\n"), 0644))
	t.Setenv("PYJAM_CC", "zig-cc")

	c, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, "zig-cc", c.Build.CC)
}
