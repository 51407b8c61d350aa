package colorgrade

import (
	"errors"
	"testing"

	"github.com/gogpu/colorgrade/gpucore"
	"github.com/gogpu/colorgrade/internal/gputest"
	"github.com/gogpu/colorgrade/settings"
)

var (
	singleTex = gpucore.Texture{ID: 1, TextureDesc: gpucore.TextureDesc{Width: 64, Height: 32, Layers: 1}}
	arrayTex  = gpucore.Texture{ID: 2, TextureDesc: gpucore.TextureDesc{Width: 64, Height: 32, Layers: 2, Array: true}}
	outTex    = gpucore.Texture{ID: 3, TextureDesc: gpucore.TextureDesc{Width: 64, Height: 32, Layers: 2, Array: true}}
)

func newTestProcessor(t *testing.T, opts ...Option) (*Processor, *gputest.Recorder, *settings.Store) {
	t.Helper()
	dev := gputest.NewRecorder()
	store := settings.NewStore()
	p, err := NewProcessor(dev, store, opts...)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	return p, dev, store
}

func TestNewProcessorBuildsResources(t *testing.T) {
	p, dev, _ := newTestProcessor(t)

	if !p.IsBuilt() {
		t.Error("IsBuilt() = false after NewProcessor")
	}
	if got := len(dev.Programs); got != int(numVariants) {
		t.Errorf("live programs = %d, want %d", got, numVariants)
	}
	if got := len(dev.Buffers); got != 1 {
		t.Errorf("live buffers = %d, want 1", got)
	}
	for _, buf := range dev.Buffers {
		if len(buf) != gpucore.ParamsSize {
			t.Errorf("constant buffer size = %d, want %d", len(buf), gpucore.ParamsSize)
		}
	}
	if dev.Uploads != 1 {
		t.Errorf("uploads after build = %d, want 1", dev.Uploads)
	}
	if p.Mode() != ModeOff {
		t.Errorf("initial Mode() = %v, want off", p.Mode())
	}
}

func TestNewProcessorNilArguments(t *testing.T) {
	if _, err := NewProcessor(nil, settings.NewStore()); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewProcessor(nil device) error = %v, want ErrNilDevice", err)
	}
	if _, err := NewProcessor(gputest.NewRecorder(), nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("NewProcessor(nil source) error = %v, want ErrNilSource", err)
	}
}

func TestNewProcessorFailureReleasesEverything(t *testing.T) {
	errBoom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*gputest.Recorder)
	}{
		{"first program", func(r *gputest.Recorder) {
			r.FailProgram = errBoom
			r.FailProgramLabel = "colorgrade_passthrough"
		}},
		{"last program", func(r *gputest.Recorder) {
			r.FailProgram = errBoom
			r.FailProgramLabel = "colorgrade_array"
		}},
		{"constant buffer", func(r *gputest.Recorder) {
			r.FailBuffer = errBoom
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.NewRecorder()
			tt.setup(dev)

			p, err := NewProcessor(dev, settings.NewStore())
			if !errors.Is(err, errBoom) {
				t.Fatalf("NewProcessor() error = %v, want %v", err, errBoom)
			}
			if p != nil {
				t.Error("NewProcessor() returned a processor on failure")
			}
			if len(dev.Programs) != 0 || len(dev.Buffers) != 0 {
				t.Errorf("leaked %d programs, %d buffers", len(dev.Programs), len(dev.Buffers))
			}
			if dev.ProgramsCreated != dev.ProgramsDestroyed {
				t.Errorf("programs created %d, destroyed %d", dev.ProgramsCreated, dev.ProgramsDestroyed)
			}
		})
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	store.Set(settings.KeyMode, int(ModeOn))
	store.SetTunable(settings.TunableSaturation, settings.ProfileDefault, 800)

	base := dev.Uploads
	p.Update()
	if got := dev.Uploads - base; got != 1 {
		t.Fatalf("first Update uploads = %d, want 1", got)
	}
	p.Update()
	p.Update()
	if got := dev.Uploads - base; got != 1 {
		t.Errorf("unchanged Updates uploaded %d more times", got-1)
	}
}

func TestUpdateOffToOnRecomputesOnce(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	// Stale edits made while off fold into the transition recompute.
	store.SetTunable(settings.TunableContrast, settings.ProfileDefault, 700)
	store.Set(settings.KeyPreset, int(PresetSunglassesDark))

	before := p.Stats().Recomputes
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()
	if got := p.Stats().Recomputes - before; got != 1 {
		t.Errorf("Off->On recomputes = %d, want 1", got)
	}
	p.Update()
	if got := p.Stats().Recomputes - before; got != 1 {
		t.Errorf("recomputes after settle = %d, want 1", got)
	}
	want := NormalizeProfile(store, settings.ProfileDefault, PresetSunglassesDark)
	if got, ok := dev.Params(); !ok || got != want {
		t.Errorf("uploaded params = %+v, want %+v", got, want)
	}
}

func TestUpdateOffDoesNoWork(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	base := dev.Uploads

	store.SetTunable(settings.TunableExposure, settings.ProfileDefault, 900)
	store.Set(settings.KeyPreset, int(PresetSunglassesLight))
	for i := 0; i < 3; i++ {
		p.Update()
	}
	if dev.Uploads != base {
		t.Errorf("uploads while off = %d, want 0", dev.Uploads-base)
	}
}

func TestUpdateOnToOffStopsUploads(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()

	store.Set(settings.KeyMode, int(ModeOff))
	base := dev.Uploads
	p.Update()
	store.SetTunable(settings.TunableVibrance, settings.ProfileDefault, 100)
	p.Update()
	if dev.Uploads != base {
		t.Errorf("uploads after switching off = %d, want 0", dev.Uploads-base)
	}
	if p.Mode() != ModeOff {
		t.Errorf("Mode() = %v, want off", p.Mode())
	}
}

func TestUpdateTunableChange(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()
	base := dev.Uploads

	store.SetTunable(settings.TunableHighlights, settings.ProfileDefault, 250)
	p.Update()
	if got := dev.Uploads - base; got != 1 {
		t.Fatalf("uploads after edit = %d, want 1", got)
	}
	got, _ := dev.Params()
	if got.Detail[0] != 0.25*gains.Detail[0] {
		t.Errorf("Detail[0] = %v, want %v", got.Detail[0], 0.25*gains.Detail[0])
	}

	// Writing the same value again raises no flag.
	store.SetTunable(settings.TunableHighlights, settings.ProfileDefault, 250)
	p.Update()
	if got := dev.Uploads - base; got != 1 {
		t.Errorf("uploads after same-value write = %d, want 1", got)
	}
}

func TestUpdatePresetChange(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()
	neutral := p.Params()
	base := dev.Uploads

	store.Set(settings.KeyPreset, int(PresetDeepNight))
	p.Update()
	if got := dev.Uploads - base; got != 1 {
		t.Fatalf("uploads after preset change = %d, want 1", got)
	}
	if p.Params() == neutral {
		t.Error("preset change did not alter params")
	}
}

func TestUpdateProfileSwitch(t *testing.T) {
	p, _, store := newTestProcessor(t)
	store.SetTunable(settings.TunableBrightness, settings.Profile3, 1000)
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()
	if p.Params().Tone[1] != 0 {
		t.Fatalf("default profile brightness = %v, want 0", p.Params().Tone[1])
	}

	before := p.Stats().Recomputes
	store.Set(settings.KeyMode, int(ModeProfile3))
	p.Update()
	if got := p.Stats().Recomputes - before; got != 1 {
		t.Errorf("profile switch recomputes = %d, want 1", got)
	}
	if got := p.Params().Tone[1]; got != gains.Tone[1] {
		t.Errorf("profile3 brightness = %v, want %v", got, gains.Tone[1])
	}

	// Edits to an inactive profile are ignored.
	store.SetTunable(settings.TunableBrightness, settings.Profile1, 0)
	before = p.Stats().Recomputes
	p.Update()
	if got := p.Stats().Recomputes - before; got != 0 {
		t.Errorf("inactive profile edit recomputes = %d, want 0", got)
	}
}

func TestProcessSelectsVariant(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		in    gpucore.Texture
		label string
	}{
		{"off single", ModeOff, singleTex, "colorgrade_passthrough"},
		{"off array", ModeOff, arrayTex, "colorgrade_passthrough"},
		{"on single", ModeOn, singleTex, "colorgrade_single"},
		{"on array", ModeOn, arrayTex, "colorgrade_array"},
		{"profile array", ModeProfile2, arrayTex, "colorgrade_array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, dev, store := newTestProcessor(t)
			store.Set(settings.KeyMode, int(tt.mode))
			p.Update()
			p.Process(tt.in, outTex, 0)

			if len(dev.Dispatches) != 1 {
				t.Fatalf("dispatches = %d, want 1", len(dev.Dispatches))
			}
			d, _ := dev.LastDispatch()
			if d.Label != tt.label {
				t.Errorf("dispatched %q, want %q", d.Label, tt.label)
			}
		})
	}
}

func TestProcessBindsSliceAndConstants(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()

	for slice := uint32(0); slice < arrayTex.LayerCount(); slice++ {
		p.Process(arrayTex, outTex, slice)
		d, _ := dev.LastDispatch()
		if d.Input.Slice != slice || d.Output.Slice != slice {
			t.Errorf("slice %d bound as in=%d out=%d", slice, d.Input.Slice, d.Output.Slice)
		}
		if d.Input.Texture.ID != arrayTex.ID || d.Output.Texture.ID != outTex.ID {
			t.Errorf("slice %d bound textures %d -> %d", slice, d.Input.Texture.ID, d.Output.Texture.ID)
		}
		if _, ok := dev.Buffers[d.Constant]; !ok {
			t.Errorf("slice %d bound unknown constant buffer %d", slice, d.Constant)
		}
	}
	if got := p.Stats().Dispatches[VariantArray]; got != 2 {
		t.Errorf("array dispatches = %d, want 2", got)
	}
}

func TestProcessInPlace(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()

	p.Process(arrayTex, arrayTex, 1)
	d, ok := dev.LastDispatch()
	if !ok {
		t.Fatal("in-place Process issued no dispatch")
	}
	if d.Input.Texture.ID != arrayTex.ID || d.Output.Texture.ID != arrayTex.ID {
		t.Errorf("bound textures %d -> %d, want %d -> %d", d.Input.Texture.ID, d.Output.Texture.ID, arrayTex.ID, arrayTex.ID)
	}
	if got := p.Stats().DispatchErrors; got != 0 {
		t.Errorf("DispatchErrors = %d, want 0", got)
	}
}

func TestProcessDispatchError(t *testing.T) {
	p, dev, _ := newTestProcessor(t)
	dev.FailDispatch = errors.New("device lost")

	p.Update()
	p.Process(singleTex, outTex, 0)

	s := p.Stats()
	if s.DispatchErrors != 1 {
		t.Errorf("DispatchErrors = %d, want 1", s.DispatchErrors)
	}
	if s.Dispatches[VariantPassThrough] != 0 {
		t.Errorf("failed dispatch counted as success")
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	p, dev, store := newTestProcessor(t)
	store.Set(settings.KeyMode, int(ModeOn))
	p.Update()
	params := p.Params()

	for i := 0; i < 2; i++ {
		if err := p.Reload(); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
	}
	if got := len(dev.Programs); got != int(numVariants) {
		t.Errorf("live programs after reload = %d, want %d", got, numVariants)
	}
	if got := len(dev.Buffers); got != 1 {
		t.Errorf("live buffers after reload = %d, want 1", got)
	}
	if p.Params() != params {
		t.Errorf("Params() after reload = %+v, want %+v", p.Params(), params)
	}
	if got, _ := dev.Params(); got != params {
		t.Errorf("uploaded params after reload = %+v, want %+v", got, params)
	}

	// Reload folds pending edits in; the next Update has nothing to do.
	store.SetTunable(settings.TunableShadows, settings.ProfileDefault, 100)
	if err := p.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	before := p.Stats().Recomputes
	p.Update()
	if got := p.Stats().Recomputes - before; got != 0 {
		t.Errorf("Update after Reload recomputes = %d, want 0", got)
	}
}

func TestReloadFailureLeavesUnbuilt(t *testing.T) {
	p, dev, _ := newTestProcessor(t)
	dev.FailBuffer = errors.New("out of memory")

	if err := p.Reload(); err == nil {
		t.Fatal("Reload() error = nil, want failure")
	}
	if p.IsBuilt() {
		t.Error("IsBuilt() = true after failed Reload")
	}
	if len(dev.Programs) != 0 {
		t.Errorf("leaked %d programs", len(dev.Programs))
	}

	dev.FailBuffer = nil
	if err := p.Reload(); err != nil {
		t.Fatalf("Reload() after recovery error = %v", err)
	}
	if !p.IsBuilt() {
		t.Error("IsBuilt() = false after recovery")
	}
}

func TestUnbuiltProcessorPanics(t *testing.T) {
	ops := map[string]func(*Processor){
		"Update":  func(p *Processor) { p.Update() },
		"Process": func(p *Processor) { p.Process(singleTex, outTex, 0) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			p, dev, _ := newTestProcessor(t)
			p.Close()
			if len(dev.Programs) != 0 || len(dev.Buffers) != 0 {
				t.Fatalf("Close leaked %d programs, %d buffers", len(dev.Programs), len(dev.Buffers))
			}
			defer func() {
				if recover() == nil {
					t.Errorf("%s after Close did not panic", name)
				}
			}()
			op(p)
		})
	}
}

func TestOptions(t *testing.T) {
	p, dev, _ := newTestProcessor(t,
		WithShaderPath("custom/grade.wgsl"),
		WithSamplingMode(gpucore.SamplingPoint))

	for _, desc := range dev.Programs {
		if desc.SourcePath != "custom/grade.wgsl" {
			t.Errorf("program %s source = %q, want custom/grade.wgsl", desc.Label, desc.SourcePath)
		}
	}
	p.Update()
	p.Process(singleTex, outTex, 0)
	d, _ := dev.LastDispatch()
	if d.Sampling != gpucore.SamplingPoint {
		t.Errorf("sampling = %v, want point", d.Sampling)
	}
}

func TestDefaultOptions(t *testing.T) {
	p, dev, _ := newTestProcessor(t)
	for _, desc := range dev.Programs {
		if desc.SourcePath != DefaultShaderPath {
			t.Errorf("program %s source = %q, want %q", desc.Label, desc.SourcePath, DefaultShaderPath)
		}
	}
	p.Update()
	p.Process(singleTex, outTex, 0)
	d, _ := dev.LastDispatch()
	if d.Sampling != gpucore.SamplingLinear {
		t.Errorf("sampling = %v, want linear", d.Sampling)
	}
}

func TestProcessPanicsOnSliceOutOfRange(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	p.Update()
	defer func() {
		if recover() == nil {
			t.Error("Process with slice 2 of a 2-layer texture did not panic")
		}
	}()
	p.Process(arrayTex, outTex, 2)
}
