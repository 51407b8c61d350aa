package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// ProgramID is an opaque handle to a compiled compute program.
type ProgramID uint64

// BufferID is an opaque handle to a GPU constant buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// SamplingMode selects how a program reads its input when the input and
// output extents differ.
type SamplingMode uint32

// Sampling modes.
const (
	// SamplingPoint reads the nearest input texel.
	SamplingPoint SamplingMode = iota

	// SamplingLinear blends the four nearest input texels.
	SamplingLinear
)

func (m SamplingMode) String() string {
	switch m {
	case SamplingPoint:
		return "point"
	case SamplingLinear:
		return "linear"
	default:
		return fmt.Sprintf("SamplingMode(%d)", uint32(m))
	}
}

// Define is a compile-time constant injected into a program's source.
type Define struct {
	Name  string
	Value string
}

// ProgramDesc describes a compute program to compile.
type ProgramDesc struct {
	// SourcePath locates the program source within the device's shader
	// file system.
	SourcePath string

	// EntryPoint is the name of the compute entry point function.
	EntryPoint string

	// Label is an optional debug label.
	Label string

	// Defines are injected ahead of the source, in order.
	Defines []Define
}

// TextureDesc describes the layout of a texture.
type TextureDesc struct {
	// Label is an optional debug label.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// Layers is the number of array layers. Single images use 1.
	Layers uint32

	// Array marks the texture as an array texture (stereo/VPRT), even
	// when it carries a single layer.
	Array bool
}

// Texture is a texture handle together with its layout.
type Texture struct {
	ID TextureID
	TextureDesc
}

// IsArray reports whether t is an array texture.
func (t Texture) IsArray() bool { return t.Array }

// LayerCount returns the number of addressable slices, at least 1.
func (t Texture) LayerCount() uint32 {
	if t.Layers == 0 {
		return 1
	}
	return t.Layers
}

// HasSlice reports whether slice addresses a layer of t.
func (t Texture) HasSlice(slice uint32) bool {
	return slice < t.LayerCount()
}
