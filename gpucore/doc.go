// Package gpucore defines the GPU abstractions the colour grading stage
// is written against.
//
// The [Device] interface is the dispatch adapter: it compiles programs,
// allocates and uploads constant buffers, binds textures and issues
// dispatches. The grading processor depends only on this interface, so
// the same control logic runs on the wgpu HAL backend and on the
// recording device used in tests.
//
//	           +------------------+
//	           | colorgrade       |
//	           | (Processor)      |
//	           +--------+---------+
//	                    |
//	           +--------v---------+
//	           | gpucore.Device   |
//	           +--------+---------+
//	                    |
//	      +-------------+-------------+
//	      |                           |
//	+-----v------+            +-------v-------+
//	| hal device |            | gputest       |
//	| (wgpu/hal) |            | (recording)   |
//	+------------+            +---------------+
//
// # Resource Management
//
// Resources are referenced through opaque IDs ([ProgramID], [BufferID],
// [TextureID]). Devices own the mapping from IDs to backend objects and
// release them in the matching Destroy* call.
//
// # Parameter Block
//
// [Params] is the CPU mirror of the shader constant buffer: three
// 16-byte aligned vec4<f32> rows, [ParamsSize] bytes in total.
package gpucore
