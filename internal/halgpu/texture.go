package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/colorgrade/gpucore"
)

// CreateTexture allocates a layer-packed RGBA8 texture. A zero Layers count
// is treated as one layer.
func (d *Device) CreateTexture(desc gpucore.TextureDesc) (gpucore.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.Texture{}, ErrClosed
	}
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.Texture{}, fmt.Errorf("%w: %s is %dx%d", ErrInvalidTexture, desc.Label, desc.Width, desc.Height)
	}
	if desc.Layers == 0 {
		desc.Layers = 1
	}
	size := textureSize(desc)
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label, Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.Texture{}, fmt.Errorf("halgpu: create texture %s: %w", desc.Label, err)
	}
	id := gpucore.TextureID(d.id())
	d.textures[id] = &texture{desc: desc, buf: buf, size: size}
	return gpucore.Texture{ID: id, TextureDesc: desc}, nil
}

// DestroyTexture releases a texture. Unknown IDs are ignored.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	d.device.DestroyBuffer(t.buf)
}

// WriteTexture uploads one slice of RGBA8 pixels, row-major without
// padding. RGBA bytes already match the shader's little-endian u32 layout.
func (d *Device) WriteTexture(id gpucore.TextureID, slice uint32, pix []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, offset, err := d.lookupSlice(id, slice)
	if err != nil {
		return err
	}
	if want := sliceSize(t.desc); uint64(len(pix)) != want {
		return fmt.Errorf("halgpu: write texture %s: got %d bytes, want %d", t.desc.Label, len(pix), want)
	}
	d.queue.WriteBuffer(t.buf, offset, pix)
	return nil
}

// ReadTexture copies one slice back to the CPU through a staging buffer.
func (d *Device) ReadTexture(id gpucore.TextureID, slice uint32) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, offset, err := d.lookupSlice(id, slice)
	if err != nil {
		return nil, err
	}
	n := sliceSize(t.desc)

	res := &dispatchResources{device: d.device}
	defer res.cleanup()

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "colorgrade_staging", Size: n,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create staging buffer: %w", err)
	}
	res.buffers = append(res.buffers, staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "colorgrade_readback"})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("colorgrade_readback"); err != nil {
		return nil, fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(t.buf, staging, []hal.BufferCopy{
		{SrcOffset: offset, DstOffset: 0, Size: n},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("halgpu: end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf

	if err := d.submitAndWait(res); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := d.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("halgpu: readback: %w", err)
	}
	return out, nil
}

// lookupSlice returns the texture and the byte offset of slice.
func (d *Device) lookupSlice(id gpucore.TextureID, slice uint32) (*texture, uint64, error) {
	if d.closed {
		return nil, 0, ErrClosed
	}
	t, ok := d.textures[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	if slice >= t.desc.Layers {
		return nil, 0, fmt.Errorf("%w: slice %d of %d", ErrSliceOutOfRange, slice, t.desc.Layers)
	}
	return t, uint64(slice) * sliceSize(t.desc), nil
}
