package halgpu

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/colorgrade/gpucore"
)

// defaultShaders holds the programs compiled when no shader file system is
// supplied. Paths are relative to this package, e.g. "shaders/grade.wgsl".
//
//go:embed shaders/*.wgsl
var defaultShaders embed.FS

// DefaultShaders returns the embedded program sources.
func DefaultShaders() fs.FS { return defaultShaders }

// loadSource reads a program source from fsys.
func loadSource(fsys fs.FS, path string) (string, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("load shader %q: %w", path, err)
	}
	return string(data), nil
}

// injectDefines prepends one WGSL const declaration per define, in order.
func injectDefines(src string, defines []gpucore.Define) (string, error) {
	if len(defines) == 0 {
		return src, nil
	}
	var b strings.Builder
	for _, def := range defines {
		if !validIdent(def.Name) {
			return "", fmt.Errorf("%w: %q", ErrInvalidDefine, def.Name)
		}
		if def.Value == "" {
			return "", fmt.Errorf("%w: %s has no value", ErrInvalidDefine, def.Name)
		}
		fmt.Fprintf(&b, "const %s = %s;\n", def.Name, def.Value)
	}
	b.WriteString(src)
	return b.String(), nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	return spirvWords(spirvBytes)
}

// spirvWords converts little-endian SPIR-V bytes to 32-bit words.
func spirvWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}
