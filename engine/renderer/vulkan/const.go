package vulkan

/**
 * @brief Uniform blocks occupy bindings 0 to 2 of a program's descriptor
 * set, one per stage. Samplers follow from here.
 */
const VULKAN_SAMPLER_BINDING_START uint32 = 3

/** @brief Upper bound on samplers a single program may declare. */
const VULKAN_MAX_SAMPLERS = 16

/**
 * @brief Draws a program can record in one frame when Options leaves
 * MaxDrawsPerFrame unset. Every draw takes one uniform slot per stage and
 * one descriptor set.
 */
const VULKAN_DEFAULT_MAX_DRAWS uint32 = 256

const spirvMagic uint32 = 0x07230203

/**
 * @brief Entry points of the vertex and fragment SPIR-V modules. They match
 * the WGSL programs the modules are translated from.
 */
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)
