package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/gef/engine/assets/loaders"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

var ErrAssetNotFound = errors.New("asset not found")

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetEvent reports a change to an indexed asset.
type AssetEvent struct {
	Asset   AssetInfo
	Removed bool
}

/** @brief Options used to create an AssetManager. */
type Options struct {
	/** @brief Uploads textures referenced by models and materials. May be nil. */
	Textures loaders.TextureCreator
	/** @brief Flip images on the y-axis when loaded. */
	FlipTextures bool
}

/**
 * @brief Indexes every known asset below a root directory and keeps the
 * index current while files change. Assets are keyed by their slash
 * separated path relative to the root.
 */
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	events   chan AssetEvent
}

func NewAssetManager(opts Options) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		events:   make(chan AssetEvent, 64),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	images := &loaders.TextureLoader{FlipY: opts.FlipTextures}
	am.RegisterLoader(metadata.ResourceTypeImage, images)
	am.RegisterLoader(metadata.ResourceTypeModel, &loaders.OBJLoader{Textures: opts.Textures, Images: images})
	am.RegisterLoader(metadata.ResourceTypeMaterial, &loaders.MaterialLoader{Textures: opts.Textures, Images: images})
	am.RegisterLoader(metadata.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})
	am.RegisterLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})
	am.RegisterLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})

	return am, nil
}

// Initialize indexes assetsDir and starts watching it.
func (am *AssetManager) Initialize(assetsDir string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root
	go am.start()

	// files already on disk are indexed without events
	if err := am.watchRecursive(root, false); err != nil {
		return err
	}

	core.LogInfo("indexed %d assets under '%s'", am.Count(), assetsDir)
	return nil
}

// RegisterLoader sets the loader used for assetType.
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// Events delivers index changes. Events are dropped when nobody reads them.
func (am *AssetManager) Events() <-chan AssetEvent {
	return am.events
}

// Count returns the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Lookup returns the index entry of name.
func (am *AssetManager) Lookup(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.ToSlash(name)]
	return info, ok
}

// List returns the indexed assets of the given type.
func (am *AssetManager) List(resourceType metadata.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var out []AssetInfo
	for _, a := range am.assets {
		if a.Type == resourceType {
			out = append(out, a)
		}
	}
	return out
}

// LoadAsset loads the indexed asset name, a path relative to the root.
func (am *AssetManager) LoadAsset(name string, params interface{}) (*metadata.Resource, error) {
	key := filepath.ToSlash(name)

	am.mutex.Lock()
	asset, exists := am.assets[key]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[key] = asset
	}
	loader, loaderExists := am.loaders[asset.Type]
	am.mutex.Unlock()

	if !exists {
		return nil, fmt.Errorf("%s: %w", name, ErrAssetNotFound)
	}
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}

	res, err := loader.Load(asset.Path, asset.Type, params)
	if err != nil {
		core.LogError("unable to load %s asset '%s': %s", asset.Type, name, err)
		return nil, err
	}
	if res.Name == "" {
		res.Name = key
	}
	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return nil
	}
	am.mutex.RLock()
	loader, ok := am.loaders[asset.Type]
	am.mutex.RUnlock()
	if !ok {
		return nil
	}
	return loader.Unload(asset)
}

// Close stops watching and waits for the event loop to exit.
func (am *AssetManager) Close() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	if am.root == "" {
		return am.fsnotify.Close()
	}
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, true); err != nil {
						core.LogWarn("unable to watch '%s': %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name, true)
			}
			// a removed path cannot be stat'ed, so it is dropped from the
			// index and the watch list whatever it was
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", e)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under path to the watch list and
// indexes the files it finds, reporting them on Events when notify is set.
func (am *AssetManager) watchRecursive(path string, notify bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath, notify)
		return nil
	})
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string, notify bool) {
	assetType, ok := determineAssetType(path)
	if !ok {
		return
	}
	key, ok := am.relative(path)
	if !ok {
		return
	}

	am.mutex.Lock()
	info := AssetInfo{Path: path, Type: assetType}
	if previous, exists := am.assets[key]; exists {
		info.LastLoaded = previous.LastLoaded
	}
	am.assets[key] = info
	am.mutex.Unlock()

	if notify {
		am.notify(AssetEvent{Asset: info})
	}
}

// Remove the asset, or everything below a removed directory, from the index
func (am *AssetManager) removeAsset(path string) {
	key, ok := am.relative(path)
	if !ok {
		return
	}
	var removed []AssetInfo
	am.mutex.Lock()
	for k, info := range am.assets {
		if k == key || strings.HasPrefix(k, key+"/") {
			removed = append(removed, info)
			delete(am.assets, k)
		}
	}
	am.mutex.Unlock()

	for _, info := range removed {
		am.notify(AssetEvent{Asset: info, Removed: true})
	}
}

func (am *AssetManager) notify(e AssetEvent) {
	select {
	case am.events <- e:
	default:
	}
}

func determineAssetType(path string) (metadata.ResourceType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return metadata.ResourceTypeModel, true
	case ".mtl":
		return metadata.ResourceTypeMaterial, true
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage, true
	case ".fnt":
		return metadata.ResourceTypeBitmapFont, true
	case ".spv":
		return metadata.ResourceTypeBinary, true
	case ".wgsl":
		return metadata.ResourceTypeShader, true
	default:
		return 0, false
	}
}
