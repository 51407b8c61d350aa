package colorgrade

import (
	"errors"
	"fmt"

	"github.com/gogpu/colorgrade/gpucore"
	"github.com/gogpu/colorgrade/settings"
)

// Sentinel errors returned by NewProcessor.
var (
	ErrNilDevice = errors.New("colorgrade: device is required")
	ErrNilSource = errors.New("colorgrade: setting source is required")
)

// Constant buffer and texture slots used by every program.
const (
	paramsSlot = 0
	inputSlot  = 0
	outputSlot = 0
)

// Stats counts the work a Processor has issued.
type Stats struct {
	// Recomputes is the number of parameter block recomputations.
	Recomputes int

	// Uploads is the number of constant buffer uploads.
	Uploads int

	// Dispatches counts dispatches per variant.
	Dispatches [numVariants]int

	// DispatchErrors counts dispatches the device rejected.
	DispatchErrors int
}

// Processor is the grading stage state holder. It owns the current mode,
// the last computed parameter block, one program per Variant and the
// constant buffer the programs read.
//
// A Processor is driven from a single render thread: Update once per
// frame, then Process once per slice. It is not safe for concurrent use.
type Processor struct {
	device   gpucore.Device
	source   settings.Source
	detector *ChangeDetector
	opts     options

	mode   Mode
	params gpucore.Params

	programs  [numVariants]gpucore.ProgramID
	constants gpucore.BufferID
	built     bool

	stats Stats
}

// NewProcessor creates a processor and builds its GPU resources.
//
// Returns an error if device or source is nil or if any program or buffer
// cannot be created; no partially built processor is returned.
func NewProcessor(device gpucore.Device, source settings.Source, opts ...Option) (*Processor, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if source == nil {
		return nil, ErrNilSource
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	propagateLogger(device, Logger())

	p := &Processor{
		device:   device,
		source:   source,
		detector: NewChangeDetector(source),
		opts:     o,
		mode:     ModeOff,
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload rebuilds every program and the constant buffer from scratch,
// then recomputes and uploads the parameter block unconditionally. Use it
// after a device reset or shader change.
//
// On error all resources are released and the processor stays unbuilt
// until a later Reload succeeds.
func (p *Processor) Reload() error {
	p.release()

	for v := Variant(0); v < numVariants; v++ {
		id, err := p.device.CreateProgram(v.programDesc(p.opts.shaderPath))
		if err != nil {
			p.release()
			return fmt.Errorf("colorgrade: create %s program: %w", v, err)
		}
		p.programs[v] = id
	}

	constants, err := p.device.CreateConstantBuffer(gpucore.ParamsSize, "colorgrade_params")
	if err != nil {
		p.release()
		return fmt.Errorf("colorgrade: create constant buffer: %w", err)
	}
	p.constants = constants
	p.built = true

	// Flags raised before the rebuild are folded into this recompute.
	p.detector.HasRelevantChange(p.mode)
	p.recompute()

	slogger().Info("colorgrade: resources built",
		"shader", p.opts.shaderPath,
		"mode", p.mode.String())
	return nil
}

// Update adopts the current mode and, when grading is enabled and the
// mode or a relevant setting changed, recomputes and uploads the
// parameter block. Frames with nothing changed do no work.
func (p *Processor) Update() {
	p.mustBeBuilt("Update")

	mode := readMode(p.source)
	modeChanged := mode != p.mode
	if modeChanged {
		slogger().Debug("colorgrade: mode changed", "from", p.mode.String(), "to", mode.String())
		p.mode = mode
	}
	if !mode.Enabled() {
		return
	}

	relevant := p.detector.HasRelevantChange(mode)
	if modeChanged || relevant {
		p.recompute()
	}
}

// Process runs one dispatch from slice of in to slice of out with the
// program chosen by SelectVariant. Exactly one dispatch is issued per call;
// with grading off the pass-through program keeps out populated.
//
// Update must have run for the current frame before the first Process.
// Process panics if slice addresses no layer of in or out.
func (p *Processor) Process(in, out gpucore.Texture, slice uint32) {
	p.mustBeBuilt("Process")
	if !in.HasSlice(slice) || !out.HasSlice(slice) {
		panic(fmt.Sprintf("colorgrade: slice %d out of range (input %d, output %d layers)",
			slice, in.LayerCount(), out.LayerCount()))
	}

	v := SelectVariant(p.mode, in.IsArray())
	p.device.BindProgram(p.programs[v], p.opts.sampling)
	p.device.BindConstantBuffer(paramsSlot, p.constants)
	p.device.BindInputTexture(inputSlot, in, slice)
	p.device.BindOutputTexture(outputSlot, out, slice)
	if err := p.device.Dispatch(); err != nil {
		p.stats.DispatchErrors++
		slogger().Warn("colorgrade: dispatch failed",
			"variant", v.String(),
			"slice", slice,
			"err", err)
		return
	}
	p.stats.Dispatches[v]++
}

// Close releases every GPU resource. The processor may be rebuilt with
// Reload.
func (p *Processor) Close() {
	p.release()
}

// Mode returns the mode adopted by the most recent Update.
func (p *Processor) Mode() Mode { return p.mode }

// Params returns the most recently computed parameter block.
func (p *Processor) Params() gpucore.Params { return p.params }

// Stats returns a copy of the work counters.
func (p *Processor) Stats() Stats { return p.stats }

// IsBuilt reports whether GPU resources exist.
func (p *Processor) IsBuilt() bool { return p.built }

// recompute normalizes the settings of the current profile and uploads
// the result.
func (p *Processor) recompute() {
	preset := readPreset(p.source)
	p.params = NormalizeProfile(p.source, p.mode.Profile(), preset)
	p.stats.Recomputes++

	p.device.UploadBuffer(p.constants, p.params.Bytes())
	p.stats.Uploads++

	slogger().Debug("colorgrade: parameters uploaded",
		"mode", p.mode.String(),
		"preset", preset.String(),
		"tone", p.params.Tone,
		"color_gain", p.params.ColorGain,
		"detail", p.params.Detail)
}

func (p *Processor) release() {
	for v, id := range p.programs {
		if id != gpucore.InvalidID {
			p.device.DestroyProgram(id)
			p.programs[v] = gpucore.InvalidID
		}
	}
	if p.constants != gpucore.InvalidID {
		p.device.DestroyBuffer(p.constants)
		p.constants = gpucore.InvalidID
	}
	p.built = false
}

func (p *Processor) mustBeBuilt(op string) {
	if !p.built {
		panic("colorgrade: " + op + " called before resources were built")
	}
}
