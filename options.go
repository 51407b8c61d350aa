package colorgrade

import "github.com/gogpu/colorgrade/gpucore"

// DefaultShaderPath is the program source compiled for every variant.
const DefaultShaderPath = "shaders/grade.wgsl"

// Option configures a Processor during creation.
//
// Example:
//
//	p, err := colorgrade.NewProcessor(device, store,
//	    colorgrade.WithSamplingMode(gpucore.SamplingPoint))
type Option func(*options)

// options holds optional configuration for Processor creation.
type options struct {
	shaderPath string
	sampling   gpucore.SamplingMode
}

// defaultOptions returns the default processor options.
func defaultOptions() options {
	return options{
		shaderPath: DefaultShaderPath,
		sampling:   gpucore.SamplingLinear,
	}
}

// WithShaderPath overrides the program source path handed to the device.
func WithShaderPath(path string) Option {
	return func(o *options) {
		o.shaderPath = path
	}
}

// WithSamplingMode sets the sampling mode bound with every program.
// The default is [gpucore.SamplingLinear].
func WithSamplingMode(m gpucore.SamplingMode) Option {
	return func(o *options) {
		o.sampling = m
	}
}
