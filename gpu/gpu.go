// Package gpu opens the HAL-backed grading device.
//
// The returned *Device implements gpucore.Device and can be handed straight
// to colorgrade.NewProcessor. It runs on Vulkan through gogpu/wgpu; when no
// GPU is available NewDevice returns an error and the caller decides how to
// degrade.
//
// Usage:
//
//	dev, err := gpu.NewDevice()
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//	proc, err := colorgrade.NewProcessor(dev, store)
//
// To share a device with a gogpu application, pass its DeviceProvider to
// NewDeviceFromProvider instead. The provider keeps ownership of the device.
package gpu

import (
	"errors"
	"io/fs"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/colorgrade/internal/halgpu"
)

// Device is the HAL-backed grading device.
type Device = halgpu.Device

// ErrNoHAL is returned when a provider does not expose HAL types.
var ErrNoHAL = errors.New("gpu: provider does not expose HAL types")

// Option configures device creation.
type Option func(*options)

type options struct {
	shaders fs.FS
}

// WithShaders reads program sources from fsys instead of the embedded
// shaders. Paths are looked up exactly as colorgrade passes them, e.g.
// "shaders/grade.wgsl".
func WithShaders(fsys fs.FS) Option {
	return func(o *options) {
		o.shaders = fsys
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewDevice opens a dedicated GPU device.
func NewDevice(opts ...Option) (*Device, error) {
	o := buildOptions(opts)
	return halgpu.Open(o.shaders)
}

// NewDeviceFromProvider wraps the device of an external provider (e.g.
// gogpu). The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errors.Join(ErrNoHAL, errors.New("gpu: HalDevice is not hal.Device"))
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.Join(ErrNoHAL, errors.New("gpu: HalQueue is not hal.Queue"))
	}
	o := buildOptions(opts)
	return halgpu.NewFromHAL(device, queue, o.shaders)
}
