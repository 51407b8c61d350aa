// Package colorgrade is the colour grading stage of a real-time stereo
// image post-processing pipeline.
//
// # Overview
//
// The stage turns user-facing controls (contrast, brightness, exposure,
// saturation, per-channel colour gain, highlights, shadows, vibrance and a
// discrete bias preset) into a packed parameter block for a compute
// program, and dispatches that program from an input texture slice to an
// output texture slice.
//
// # Quick Start
//
//	store := settings.NewStore()
//	dev, err := gpu.NewDevice()
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	p, err := colorgrade.NewProcessor(dev, store)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	// Per frame:
//	p.Update()
//	p.Process(eyes, graded, 0)
//	p.Process(eyes, graded, 1)
//
// # Parameter Mapping
//
// Each raw setting (0..1000) is biased by the active [Preset], divided by
// 1000 and saturated to [0, 1]. Tone and colour gain values are remapped
// to [-1, 1]; every group is then scaled by a fixed [GainTable]. See
// [Normalize].
//
// # Change Detection
//
// [Processor.Update] recomputes and uploads the block only when the mode
// changed or the [ChangeDetector] saw an edit to the preset or to a
// tunable of the active profile. Steady frames upload nothing.
//
// # Program Variants
//
// Three programs are built per processor: pass-through (grading off),
// single image, and array/stereo. [SelectVariant] picks one from the mode
// and the input texture layout. Every [Processor.Process] call issues
// exactly one dispatch.
package colorgrade
