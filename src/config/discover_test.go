package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindRootLocatesMarkerInAncestor(t *testing.T) {
	root := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(root, RepoConfigName), []byte(""), 0644))
	nested := filepath.Join(root, "a", "b", "c")
	assert.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindRoot(nested)
	assert.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindRootErrorsWhenNoMarkerFound(t *testing.T) {
	// A temp dir's ancestry up to / should have no .pyjamconfig, barring
	// an extremely unusual test host.
	dir := t.TempDir()
	_, err := FindRoot(dir)
	assert.Error(t, err)
}
