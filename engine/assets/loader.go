package assets

import "github.com/spaghettifunk/gef/engine/renderer/metadata"

// Loader turns a file into a resource. params is loader specific and may be nil.
type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
