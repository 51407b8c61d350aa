package halgpu

import "errors"

// Sentinel errors returned by Device operations.
var (
	// ErrNoBackend is returned when the Vulkan HAL backend is not registered.
	ErrNoBackend = errors.New("halgpu: vulkan backend not available")

	// ErrNoAdapter is returned when no GPU adapter is found.
	ErrNoAdapter = errors.New("halgpu: no GPU adapters found")

	// ErrInvalidDefine is returned for a define that is not a WGSL
	// identifier or has no value.
	ErrInvalidDefine = errors.New("halgpu: invalid define")

	// ErrInvalidTexture is returned for zero-sized texture descriptors.
	ErrInvalidTexture = errors.New("halgpu: invalid texture descriptor")

	// ErrUnknownResource is returned when an ID does not name a live
	// resource of this device.
	ErrUnknownResource = errors.New("halgpu: unknown resource")

	// ErrNotBound is returned by Dispatch when a program, constant buffer
	// or texture has not been bound.
	ErrNotBound = errors.New("halgpu: incomplete binding")

	// ErrUnsupportedSlot is returned by Dispatch when a resource was bound
	// to a slot other than 0.
	ErrUnsupportedSlot = errors.New("halgpu: only slot 0 is supported")

	// ErrSliceOutOfRange is returned for a slice index past the last layer.
	ErrSliceOutOfRange = errors.New("halgpu: slice out of range")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("halgpu: device closed")
)
