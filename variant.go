package colorgrade

import (
	"fmt"

	"github.com/gogpu/colorgrade/gpucore"
)

// Variant is one of the fixed program selections. Values are produced by
// SelectVariant; the processor holds exactly one program per variant.
type Variant uint8

// Program variants.
const (
	// VariantPassThrough copies input to output unchanged.
	VariantPassThrough Variant = iota

	// VariantSingle grades a single (non-array) image.
	VariantSingle

	// VariantArray grades one slice of an array (stereo/VPRT) texture.
	VariantArray

	numVariants
)

// SelectVariant picks the program for a dispatch.
func SelectVariant(mode Mode, inputIsArray bool) Variant {
	switch {
	case !mode.Enabled():
		return VariantPassThrough
	case inputIsArray:
		return VariantArray
	default:
		return VariantSingle
	}
}

func (v Variant) String() string {
	switch v {
	case VariantPassThrough:
		return "pass-through"
	case VariantSingle:
		return "single"
	case VariantArray:
		return "array"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// Shader entry points and the define that switches array addressing.
const (
	entryPassThrough = "passthrough_main"
	entryGrade       = "grade_main"
	defineArray      = "TEXTURE_ARRAY"
)

// programDesc returns the descriptor compiled for v.
func (v Variant) programDesc(sourcePath string) *gpucore.ProgramDesc {
	desc := &gpucore.ProgramDesc{
		SourcePath: sourcePath,
		EntryPoint: entryGrade,
		Label:      "colorgrade_" + v.String(),
	}
	switch v {
	case VariantPassThrough:
		desc.EntryPoint = entryPassThrough
		desc.Label = "colorgrade_passthrough"
		desc.Defines = []gpucore.Define{{Name: defineArray, Value: "true"}}
	case VariantSingle:
		desc.Defines = []gpucore.Define{{Name: defineArray, Value: "false"}}
	case VariantArray:
		desc.Defines = []gpucore.Define{{Name: defineArray, Value: "true"}}
	}
	return desc
}
