package testbed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/gef/engine"
	"github.com/spaghettifunk/gef/engine/assets"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
f 1 2 3 4
`

func TestTestGame(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Renderer.Width = 64
	cfg.Renderer.Height = 64
	cfg.Assets.Root = t.TempDir()
	path := filepath.Join(cfg.Assets.Root, "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0o644))

	tg := NewTestGame(cfg, Options{ModelPath: path})
	e, err := engine.New(tg.Game)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	first := tg.Model()
	require.NotNil(t, first)
	assert.Len(t, first.Mesh.Primitives, 1)
	assert.Greater(t, e.World().Camera.GetPosition().Z, float32(0))

	require.NoError(t, e.Run(context.Background(), 2))
	assert.Len(t, e.World().Objects(), 1)
	assert.Equal(t, uint32(1), e.Metrics().LastDraws())

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	tg.OnAssetChanged(e, assets.AssetEvent{Asset: assets.AssetInfo{Path: abs, Type: metadata.ResourceTypeImage}})
	assert.Same(t, first, tg.Model())
	tg.OnAssetChanged(e, assets.AssetEvent{Asset: assets.AssetInfo{Path: abs, Type: metadata.ResourceTypeModel}})
	assert.NotSame(t, first, tg.Model())

	require.NoError(t, e.Shutdown())
	assert.Nil(t, tg.Model())
}
