// Package halgpu implements gpucore.Device on gogpu/wgpu HAL.
//
// Program sources are WGSL files read from an fs.FS (the embedded
// shaders/ directory by default). Defines are prepended as WGSL const
// declarations and the result is compiled to SPIR-V with naga before the
// shader module is created.
//
// There are no native texture objects: a texture is a storage buffer of
// packed RGBA8 pixels with its layers stored back to back, and the slice a
// dispatch reads or writes is passed as a pixel offset in a per-dispatch
// uniform. CreateTexture, WriteTexture and ReadTexture move pixels between
// the CPU and those buffers.
package halgpu
