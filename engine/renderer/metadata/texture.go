package metadata

const (
	/** @brief The default texture name. */
	DEFAULT_TEXTURE_NAME string = "default"
	/** @brief The default normal texture name. */
	DEFAULT_NORMAL_TEXTURE_NAME string = "default_NORM"
)

/** @brief The role a texture plays in a material, also the role of a sampler slot. */
type TextureUse int

const (
	/** @brief A generic sampler with no material role. */
	TextureUseUnknown TextureUse = 0x00
	/** @brief The texture is used as a diffuse map. */
	TextureUseMapDiffuse TextureUse = 0x01
	/** @brief The texture is used as a specular map. */
	TextureUseMapSpecular TextureUse = 0x02
	/** @brief The texture is used as a normal map. */
	TextureUseMapNormal TextureUse = 0x03
)

func (u TextureUse) String() string {
	switch u {
	case TextureUseMapDiffuse:
		return "diffuse"
	case TextureUseMapSpecular:
		return "specular"
	case TextureUseMapNormal:
		return "normal"
	default:
		return "generic"
	}
}

/**
 * @brief Represents a texture living on a renderer backend.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID string
	/** @brief The texture Name, typically the file it was loaded from. */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief Backend specific handle. */
	InternalData interface{}
}
