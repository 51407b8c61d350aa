package gpucore

// Device abstracts over GPU backend implementations.
//
// The grading processor drives a Device from a single render thread.
// Binding calls accumulate state that the next Dispatch consumes; the
// bound state persists across dispatches until rebound.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// === Programs ===

	// CreateProgram compiles a compute program.
	// Returns an error if the source cannot be loaded or compiled.
	CreateProgram(desc *ProgramDesc) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// === Constant Buffers ===

	// CreateConstantBuffer allocates a constant buffer of size bytes.
	// Returns an error if allocation fails.
	CreateConstantBuffer(size int, label string) (BufferID, error)

	// DestroyBuffer releases a constant buffer.
	DestroyBuffer(id BufferID)

	// UploadBuffer copies data into the buffer. len(data) must not
	// exceed the buffer size.
	UploadBuffer(id BufferID, data []byte)

	// === Binding ===

	// BindProgram selects the program and sampling mode for the next
	// dispatch.
	BindProgram(id ProgramID, sampling SamplingMode)

	// BindConstantBuffer binds a constant buffer to a slot.
	BindConstantBuffer(slot uint32, id BufferID)

	// BindInputTexture binds one slice of a texture for reading.
	BindInputTexture(slot uint32, tex Texture, slice uint32)

	// BindOutputTexture binds one slice of a texture for writing.
	BindOutputTexture(slot uint32, tex Texture, slice uint32)

	// === Execution ===

	// Dispatch runs the bound program over the bound output slice.
	Dispatch() error
}
