// Package gputest provides a recording gpucore.Device for tests.
package gputest

import (
	"fmt"

	"github.com/gogpu/colorgrade/gpucore"
)

// Binding is a texture bound at a slot and slice.
type Binding struct {
	Texture gpucore.Texture
	Slice   uint32
}

// Dispatch is the bound state captured by one Dispatch call.
type Dispatch struct {
	Program  gpucore.ProgramID
	Label    string
	Sampling gpucore.SamplingMode
	Constant gpucore.BufferID
	Input    Binding
	Output   Binding
}

// Recorder implements gpucore.Device without a GPU. It records every
// resource creation, upload and dispatch so tests can assert on them.
type Recorder struct {
	// FailProgram, when set, is returned by CreateProgram for descriptors
	// whose label matches FailProgramLabel (any label when empty).
	FailProgram      error
	FailProgramLabel string

	// FailBuffer, when set, is returned by CreateConstantBuffer.
	FailBuffer error

	// FailDispatch, when set, is returned by Dispatch.
	FailDispatch error

	nextID uint64

	Programs map[gpucore.ProgramID]gpucore.ProgramDesc
	Buffers  map[gpucore.BufferID][]byte

	ProgramsCreated   int
	ProgramsDestroyed int
	BuffersCreated    int
	BuffersDestroyed  int

	Uploads    int
	LastUpload []byte

	Dispatches []Dispatch

	bound Dispatch
}

var _ gpucore.Device = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Programs: make(map[gpucore.ProgramID]gpucore.ProgramDesc),
		Buffers:  make(map[gpucore.BufferID][]byte),
	}
}

func (r *Recorder) id() uint64 {
	r.nextID++
	return r.nextID
}

func (r *Recorder) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if r.FailProgram != nil && (r.FailProgramLabel == "" || r.FailProgramLabel == desc.Label) {
		return gpucore.InvalidID, r.FailProgram
	}
	id := gpucore.ProgramID(r.id())
	r.Programs[id] = *desc
	r.ProgramsCreated++
	return id, nil
}

func (r *Recorder) DestroyProgram(id gpucore.ProgramID) {
	if _, ok := r.Programs[id]; !ok {
		panic(fmt.Sprintf("gputest: destroy of unknown program %d", id))
	}
	delete(r.Programs, id)
	r.ProgramsDestroyed++
}

func (r *Recorder) CreateConstantBuffer(size int, _ string) (gpucore.BufferID, error) {
	if r.FailBuffer != nil {
		return gpucore.InvalidID, r.FailBuffer
	}
	id := gpucore.BufferID(r.id())
	r.Buffers[id] = make([]byte, size)
	r.BuffersCreated++
	return id, nil
}

func (r *Recorder) DestroyBuffer(id gpucore.BufferID) {
	if _, ok := r.Buffers[id]; !ok {
		panic(fmt.Sprintf("gputest: destroy of unknown buffer %d", id))
	}
	delete(r.Buffers, id)
	r.BuffersDestroyed++
}

func (r *Recorder) UploadBuffer(id gpucore.BufferID, data []byte) {
	buf, ok := r.Buffers[id]
	if !ok {
		panic(fmt.Sprintf("gputest: upload to unknown buffer %d", id))
	}
	if len(data) > len(buf) {
		panic(fmt.Sprintf("gputest: upload of %d bytes into %d byte buffer", len(data), len(buf)))
	}
	copy(buf, data)
	r.Uploads++
	r.LastUpload = append(r.LastUpload[:0], data...)
}

func (r *Recorder) BindProgram(id gpucore.ProgramID, sampling gpucore.SamplingMode) {
	r.bound.Program = id
	r.bound.Label = r.Programs[id].Label
	r.bound.Sampling = sampling
}

func (r *Recorder) BindConstantBuffer(_ uint32, id gpucore.BufferID) {
	r.bound.Constant = id
}

func (r *Recorder) BindInputTexture(_ uint32, tex gpucore.Texture, slice uint32) {
	r.bound.Input = Binding{Texture: tex, Slice: slice}
}

func (r *Recorder) BindOutputTexture(_ uint32, tex gpucore.Texture, slice uint32) {
	r.bound.Output = Binding{Texture: tex, Slice: slice}
}

func (r *Recorder) Dispatch() error {
	if r.FailDispatch != nil {
		return r.FailDispatch
	}
	if _, ok := r.Programs[r.bound.Program]; !ok {
		return fmt.Errorf("gputest: dispatch with unknown program %d", r.bound.Program)
	}
	r.Dispatches = append(r.Dispatches, r.bound)
	return nil
}

// LastDispatch returns the most recent dispatch.
func (r *Recorder) LastDispatch() (Dispatch, bool) {
	if len(r.Dispatches) == 0 {
		return Dispatch{}, false
	}
	return r.Dispatches[len(r.Dispatches)-1], true
}

// Params decodes the most recent upload as a parameter block.
func (r *Recorder) Params() (gpucore.Params, bool) {
	return gpucore.ParamsFromBytes(r.LastUpload)
}
