package halgpu

import (
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/colorgrade/gpucore"
)

// fenceTimeout bounds every wait for GPU completion.
const fenceTimeout = 5 * time.Second

// Device implements gpucore.Device on a wgpu HAL device.
//
// Programs are compute pipelines sharing one bind group layout:
//
//	@binding(0) uniform GradeParams   (constant buffer, slot 0)
//	@binding(1) uniform DispatchInfo  (per dispatch)
//	@binding(2) storage, read         (input texture, slot 0)
//	@binding(3) storage, read_write   (output texture, slot 0)
//
// Textures are layer-packed RGBA8 storage buffers. Each Dispatch encodes a
// single compute pass, submits it and waits on a fence.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool // true when using shared device (don't destroy on Close)

	shaders fs.FS

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	nextID   uint64
	programs map[gpucore.ProgramID]*program
	buffers  map[gpucore.BufferID]*constantBuffer
	textures map[gpucore.TextureID]*texture

	bound  boundState
	closed bool
}

var _ gpucore.Device = (*Device)(nil)

type program struct {
	label    string
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

type constantBuffer struct {
	label string
	buf   hal.Buffer
	size  uint64
}

// texture descs always carry Layers >= 1.
type texture struct {
	desc gpucore.TextureDesc
	buf  hal.Buffer
	size uint64
}

// textureBinding is a texture bound at a slice.
type textureBinding struct {
	id    gpucore.TextureID
	slice uint32
}

// boundState accumulates Bind* calls. err holds the first binding error,
// reported by the next Dispatch.
type boundState struct {
	program   gpucore.ProgramID
	sampling  gpucore.SamplingMode
	constants gpucore.BufferID
	input     textureBinding
	output    textureBinding
	err       error
}

func (b *boundState) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// newDevice returns a device with empty resource tables. The HAL device and
// layouts are attached by Open or NewFromHAL.
func newDevice(shaders fs.FS) *Device {
	if shaders == nil {
		shaders = defaultShaders
	}
	return &Device{
		shaders:  shaders,
		programs: make(map[gpucore.ProgramID]*program),
		buffers:  make(map[gpucore.BufferID]*constantBuffer),
		textures: make(map[gpucore.TextureID]*texture),
	}
}

// Open creates a Vulkan instance, selects a discrete or integrated GPU when
// one exists and opens it. Program sources are read from shaders, or from
// DefaultShaders when shaders is nil.
func Open(shaders fs.FS) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrNoBackend
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: open device: %w", err)
	}

	d := newDevice(shaders)
	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	if err := d.createLayouts(); err != nil {
		d.device.Destroy()
		instance.Destroy()
		return nil, err
	}
	slogger().Info("halgpu: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// NewFromHAL wraps a HAL device and queue owned by someone else. Close
// releases the resources created through this Device but not the device
// itself.
func NewFromHAL(device hal.Device, queue hal.Queue, shaders fs.FS) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("halgpu: shared device and queue are required")
	}
	d := newDevice(shaders)
	d.device = device
	d.queue = queue
	d.external = true
	if err := d.createLayouts(); err != nil {
		return nil, err
	}
	slogger().Info("halgpu: using shared device")
	return d, nil
}

// SetLogger installs l for this package. colorgrade.NewProcessor calls it
// with the processor's logger.
func (d *Device) SetLogger(l *slog.Logger) {
	setLogger(l)
}

func (d *Device) createLayouts() error {
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "colorgrade_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: bindingParams, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: bindingInfo, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: bindingInput, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: bindingOutput, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("halgpu: create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "colorgrade_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
		return fmt.Errorf("halgpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return nil
}

func (d *Device) id() uint64 {
	d.nextID++
	return d.nextID
}

// CreateProgram loads desc.SourcePath, prepends the defines, compiles the
// result to SPIR-V and creates a compute pipeline for desc.EntryPoint.
func (d *Device) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	src, err := loadSource(d.shaders, desc.SourcePath)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: %w", err)
	}
	src, err = injectDefines(src, desc.Defines)
	if err != nil {
		return gpucore.InvalidID, err
	}
	spirv, err := compileSPIRV(src)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: %s: %w", desc.Label, err)
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create shader module %s: %w", desc.Label, err)
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: desc.Label, Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: desc.EntryPoint},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return gpucore.InvalidID, fmt.Errorf("halgpu: create compute pipeline %s: %w", desc.Label, err)
	}

	id := gpucore.ProgramID(d.id())
	d.programs[id] = &program{label: desc.Label, module: module, pipeline: pipeline}
	slogger().Debug("halgpu: program created",
		"label", desc.Label,
		"entry", desc.EntryPoint,
		"spirv_words", len(spirv))
	return id, nil
}

// DestroyProgram releases a program. Unknown IDs are ignored.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[id]
	if !ok {
		return
	}
	delete(d.programs, id)
	d.destroyProgram(p)
}

func (d *Device) destroyProgram(p *program) {
	d.device.DestroyComputePipeline(p.pipeline)
	d.device.DestroyShaderModule(p.module)
}

// CreateConstantBuffer allocates a uniform buffer of at least size bytes.
func (d *Device) CreateConstantBuffer(size int, label string) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("halgpu: constant buffer %s: size %d", label, size)
	}
	n := alignUniform(uint64(size))
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label, Size: n,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create constant buffer %s: %w", label, err)
	}
	id := gpucore.BufferID(d.id())
	d.buffers[id] = &constantBuffer{label: label, buf: buf, size: n}
	return id, nil
}

// DestroyBuffer releases a constant buffer. Unknown IDs are ignored.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	d.device.DestroyBuffer(cb.buf)
}

// UploadBuffer writes data at offset 0 of the buffer. It panics if id is
// unknown or data does not fit.
func (d *Device) UploadBuffer(id gpucore.BufferID, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.buffers[id]
	if !ok {
		panic(fmt.Sprintf("halgpu: upload to unknown buffer %d", id))
	}
	if uint64(len(data)) > cb.size {
		panic(fmt.Sprintf("halgpu: upload of %d bytes into %d byte buffer %s", len(data), cb.size, cb.label))
	}
	d.queue.WriteBuffer(cb.buf, 0, data)
}

// BindProgram selects the program and sampling mode for the next dispatch.
func (d *Device) BindProgram(id gpucore.ProgramID, sampling gpucore.SamplingMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.programs[id]; !ok {
		d.bound.fail(fmt.Errorf("%w: program %d", ErrUnknownResource, id))
	}
	d.bound.program = id
	d.bound.sampling = sampling
}

// BindConstantBuffer binds a constant buffer. Only slot 0 exists.
func (d *Device) BindConstantBuffer(slot uint32, id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot != 0 {
		d.bound.fail(fmt.Errorf("%w: constant buffer slot %d", ErrUnsupportedSlot, slot))
	}
	if _, ok := d.buffers[id]; !ok {
		d.bound.fail(fmt.Errorf("%w: buffer %d", ErrUnknownResource, id))
	}
	d.bound.constants = id
}

// BindInputTexture binds one slice of a texture for reading. Only slot 0
// exists.
func (d *Device) BindInputTexture(slot uint32, tex gpucore.Texture, slice uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bound.input = d.bindTexture("input", slot, tex, slice)
}

// BindOutputTexture binds one slice of a texture for writing. Only slot 0
// exists.
func (d *Device) BindOutputTexture(slot uint32, tex gpucore.Texture, slice uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bound.output = d.bindTexture("output", slot, tex, slice)
}

func (d *Device) bindTexture(role string, slot uint32, tex gpucore.Texture, slice uint32) textureBinding {
	if slot != 0 {
		d.bound.fail(fmt.Errorf("%w: %s texture slot %d", ErrUnsupportedSlot, role, slot))
	}
	t, ok := d.textures[tex.ID]
	switch {
	case !ok:
		d.bound.fail(fmt.Errorf("%w: %s texture %d", ErrUnknownResource, role, tex.ID))
	case slice >= t.desc.Layers:
		d.bound.fail(fmt.Errorf("%w: %s slice %d of %d", ErrSliceOutOfRange, role, slice, t.desc.Layers))
	}
	return textureBinding{id: tex.ID, slice: slice}
}

// dispatchResources tracks per-dispatch GPU resources for cleanup.
type dispatchResources struct {
	device     hal.Device
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

// cleanup destroys all tracked per-dispatch resources.
func (r *dispatchResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
	for _, g := range r.bindGroups {
		r.device.DestroyBindGroup(g)
	}
	for _, b := range r.buffers {
		r.device.DestroyBuffer(b)
	}
}

// resolved is a bound state whose IDs were looked up.
type resolved struct {
	program   *program
	constants *constantBuffer
	input     *texture
	output    *texture
	info      dispatchInfo

	// aliased is set when input and output share a buffer. The input
	// slice is then copied to a scratch buffer at srcOffset before the
	// pass, and info.InBase addresses the scratch copy.
	aliased   bool
	srcOffset uint64
}

// resolve validates the bound state. The binding error, if any, is
// consumed.
func (d *Device) resolve() (*resolved, error) {
	b := d.bound
	d.bound.err = nil
	if b.err != nil {
		return nil, b.err
	}
	r := &resolved{
		program:   d.programs[b.program],
		constants: d.buffers[b.constants],
		input:     d.textures[b.input.id],
		output:    d.textures[b.output.id],
	}
	switch {
	case r.program == nil:
		return nil, fmt.Errorf("%w: no program", ErrNotBound)
	case r.constants == nil:
		return nil, fmt.Errorf("%w: no constant buffer", ErrNotBound)
	case r.input == nil:
		return nil, fmt.Errorf("%w: no input texture", ErrNotBound)
	case r.output == nil:
		return nil, fmt.Errorf("%w: no output texture", ErrNotBound)
	}
	r.info = newDispatchInfo(r.input.desc, r.output.desc, b.input.slice, b.output.slice, b.sampling)
	if b.input.id == b.output.id {
		r.aliased = true
		r.srcOffset = uint64(r.info.InBase) * 4
		r.info.InBase = 0
	}
	return r, nil
}

// Dispatch runs the bound program over the bound output slice and waits
// for completion.
func (d *Device) Dispatch() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	r, err := d.resolve()
	if err != nil {
		return err
	}

	res := &dispatchResources{device: d.device}
	defer res.cleanup()

	if err := d.encodeDispatch(res, r); err != nil {
		return err
	}
	if err := d.submitAndWait(res); err != nil {
		return err
	}
	slogger().Debug("halgpu: dispatched",
		"program", r.program.label,
		"width", r.info.OutWidth,
		"height", r.info.OutHeight,
		"out_base", r.info.OutBase)
	return nil
}

func (d *Device) encodeDispatch(res *dispatchResources, r *resolved) error {
	infoBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "colorgrade_dispatch_info", Size: dispatchInfoSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("halgpu: create dispatch info buffer: %w", err)
	}
	res.buffers = append(res.buffers, infoBuf)
	d.queue.WriteBuffer(infoBuf, 0, r.info.bytes())

	src, srcSize := r.input.buf, r.input.size
	if r.aliased {
		srcSize = sliceSize(r.input.desc)
		scratch, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "colorgrade_scratch", Size: srcSize,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("halgpu: create scratch buffer: %w", err)
		}
		res.buffers = append(res.buffers, scratch)
		src = scratch
	}

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "colorgrade_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: bindingParams, Resource: gputypes.BufferBinding{Buffer: r.constants.buf.NativeHandle(), Offset: 0, Size: r.constants.size}},
			{Binding: bindingInfo, Resource: gputypes.BufferBinding{Buffer: infoBuf.NativeHandle(), Offset: 0, Size: dispatchInfoSize}},
			{Binding: bindingInput, Resource: gputypes.BufferBinding{Buffer: src.NativeHandle(), Offset: 0, Size: srcSize}},
			{Binding: bindingOutput, Resource: gputypes.BufferBinding{Buffer: r.output.buf.NativeHandle(), Offset: 0, Size: r.output.size}},
		},
	})
	if err != nil {
		return fmt.Errorf("halgpu: create bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bg)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "colorgrade_encoder"})
	if err != nil {
		return fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("colorgrade"); err != nil {
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	if r.aliased {
		encoder.CopyBufferToBuffer(r.input.buf, src, []hal.BufferCopy{
			{SrcOffset: r.srcOffset, DstOffset: 0, Size: srcSize},
		})
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: r.program.label})
	pass.SetPipeline(r.program.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(workgroups(r.info.OutWidth), workgroups(r.info.OutHeight), 1)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf
	return nil
}

// submitAndWait submits the command buffer and waits for GPU completion.
func (d *Device) submitAndWait(res *dispatchResources) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("halgpu: create fence: %w", err)
	}
	res.fence = fence

	if err := d.queue.Submit([]hal.CommandBuffer{res.cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("halgpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("halgpu: GPU timeout after %v", fenceTimeout)
	}
	return nil
}

// Close releases every resource created through d, then the HAL device and
// instance if d owns them. Close is idempotent.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.device == nil {
		return
	}

	for id, p := range d.programs {
		d.destroyProgram(p)
		delete(d.programs, id)
	}
	for id, cb := range d.buffers {
		d.device.DestroyBuffer(cb.buf)
		delete(d.buffers, id)
	}
	for id, t := range d.textures {
		d.device.DestroyBuffer(t.buf)
		delete(d.textures, id)
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}

	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}
