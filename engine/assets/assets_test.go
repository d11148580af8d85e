package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newManager(t *testing.T, root string) *AssetManager {
	t.Helper()
	am, err := NewAssetManager(Options{})
	require.NoError(t, err)
	require.NoError(t, am.Initialize(root))
	t.Cleanup(func() { _ = am.Close() })
	return am
}

func TestDetermineAssetType(t *testing.T) {
	cases := map[string]metadata.ResourceType{
		"a/model.obj":      metadata.ResourceTypeModel,
		"model.mtl":        metadata.ResourceTypeMaterial,
		"stone.PNG":        metadata.ResourceTypeImage,
		"stone.jpeg":       metadata.ResourceTypeImage,
		"stone.webp":       metadata.ResourceTypeImage,
		"arial.fnt":        metadata.ResourceTypeBitmapFont,
		"lit_vs.spv":       metadata.ResourceTypeBinary,
		"lit_vs.wgsl":      metadata.ResourceTypeShader,
		"docs/readme.md":   -1,
		"no_extension_xyz": -1,
	}
	for path, want := range cases {
		got, ok := determineAssetType(path)
		if want < 0 {
			assert.False(t, ok, path)
			continue
		}
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
}

func TestAssetManagerIndexesAndLoads(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "models", "tri.obj"), triangleOBJ)
	writeFile(t, filepath.Join(root, "shaders", "lit_vs.wgsl"), "@vertex fn vs_main() {}")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")

	am := newManager(t, root)
	assert.Equal(t, 2, am.Count())

	info, ok := am.Lookup("models/tri.obj")
	require.True(t, ok)
	assert.Equal(t, metadata.ResourceTypeModel, info.Type)
	assert.Len(t, am.List(metadata.ResourceTypeShader), 1)

	res, err := am.LoadAsset("models/tri.obj", nil)
	require.NoError(t, err)
	model := res.Data.(*metadata.Model)
	assert.Equal(t, uint32(3), model.Mesh.VertexCount)

	info, _ = am.Lookup("models/tri.obj")
	assert.False(t, info.LastLoaded.IsZero())

	require.NoError(t, am.UnloadAsset(res))
	assert.Nil(t, res.Data)

	_, err = am.LoadAsset("models/none.obj", nil)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestAssetManagerLoadErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.obj"), "f 1 2 3\n")
	am := newManager(t, root)

	_, err := am.LoadAsset("broken.obj", nil)
	assert.ErrorIs(t, err, core.ErrModelLoad)
}

func TestAssetManagerWatchesChanges(t *testing.T) {
	root := t.TempDir()
	am := newManager(t, root)
	assert.Zero(t, am.Count())

	path := filepath.Join(root, "late.obj")
	writeFile(t, path, triangleOBJ)
	assert.Eventually(t, func() bool {
		_, ok := am.Lookup("late.obj")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "fonts"), 0o755))
	// give the watcher a moment to pick up the new directory
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(root, "fonts", "mono.fnt"), "")
	assert.Eventually(t, func() bool {
		_, ok := am.Lookup("fonts/mono.fnt")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		_, ok := am.Lookup("late.obj")
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAssetManagerEventsOnlyForChanges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "models", "tri.obj"), triangleOBJ)
	writeFile(t, filepath.Join(root, "fonts", "mono.fnt"), "")

	am := newManager(t, root)
	assert.Equal(t, 2, am.Count())
	assert.Zero(t, len(am.Events()))

	path := filepath.Join(root, "late.obj")
	writeFile(t, path, triangleOBJ)

	var got AssetEvent
	assert.Eventually(t, func() bool {
		select {
		case got = <-am.Events():
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, got.Removed)
	assert.Equal(t, metadata.ResourceTypeModel, got.Asset.Type)
	assert.Equal(t, "late.obj", filepath.Base(got.Asset.Path))
}

func TestAssetManagerClose(t *testing.T) {
	am, err := NewAssetManager(Options{})
	require.NoError(t, err)
	require.NoError(t, am.Close())
	require.NoError(t, am.Close())
	assert.Error(t, am.Initialize(t.TempDir()))
}
