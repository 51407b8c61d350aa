package halgpu

import (
	"encoding/binary"

	"github.com/gogpu/colorgrade/gpucore"
)

// Bind group layout of every program.
const (
	bindingParams = 0
	bindingInfo   = 1
	bindingInput  = 2
	bindingOutput = 3
)

// workgroupSize matches @workgroup_size(8, 8, 1) in the grading programs.
const workgroupSize = 8

// dispatchInfoSize is the byte size of the DispatchInfo uniform.
const dispatchInfoSize = 32

// dispatchInfo mirrors the WGSL DispatchInfo struct.
type dispatchInfo struct {
	InWidth, InHeight   uint32
	OutWidth, OutHeight uint32
	InBase, OutBase     uint32
	Sampling            uint32
}

// newDispatchInfo returns the per-dispatch uniform for slice of in and out.
// Bases are pixel offsets into the layer-packed buffers.
func newDispatchInfo(in, out gpucore.TextureDesc, inSlice, outSlice uint32, sampling gpucore.SamplingMode) dispatchInfo {
	return dispatchInfo{
		InWidth:   in.Width,
		InHeight:  in.Height,
		OutWidth:  out.Width,
		OutHeight: out.Height,
		InBase:    inSlice * in.Width * in.Height,
		OutBase:   outSlice * out.Width * out.Height,
		Sampling:  uint32(sampling),
	}
}

func (di dispatchInfo) bytes() []byte {
	b := make([]byte, dispatchInfoSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], di.InWidth)
	le.PutUint32(b[4:], di.InHeight)
	le.PutUint32(b[8:], di.OutWidth)
	le.PutUint32(b[12:], di.OutHeight)
	le.PutUint32(b[16:], di.InBase)
	le.PutUint32(b[20:], di.OutBase)
	le.PutUint32(b[24:], di.Sampling)
	return b
}

// workgroups returns the number of workgroups covering n invocations.
func workgroups(n uint32) uint32 {
	return (n + workgroupSize - 1) / workgroupSize
}

// textureSize returns the byte size of a layer-packed RGBA8 texture.
func textureSize(desc gpucore.TextureDesc) uint64 {
	layers := desc.Layers
	if layers == 0 {
		layers = 1
	}
	return uint64(desc.Width) * uint64(desc.Height) * uint64(layers) * 4
}

// sliceSize returns the byte size of one layer.
func sliceSize(desc gpucore.TextureDesc) uint64 {
	return uint64(desc.Width) * uint64(desc.Height) * 4
}

// alignUniform rounds n up to the 16 byte uniform alignment.
func alignUniform(n uint64) uint64 {
	return (n + 15) &^ 15
}
