package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources.

//go:embed shaders/resample.wgsl
var resampleShaderSource string

//go:embed shaders/resize.wgsl
var resizeEntrySource string

//go:embed shaders/tensorize.wgsl
var tensorizeEntrySource string

// resizeShaderSource is the complete resize module. WGSL has no includes,
// so each entry file is appended to the shared resampling code.
var resizeShaderSource = resampleShaderSource + "\n" + resizeEntrySource

// tensorizeShaderSource is the complete tensorize module.
var tensorizeShaderSource = resampleShaderSource + "\n" + tensorizeEntrySource

// ShaderSources returns the complete WGSL modules keyed by engine name.
func ShaderSources() map[string]string {
	return map[string]string{
		"resize":    resizeShaderSource,
		"tensorize": tensorizeShaderSource,
	}
}

// ValidateShaders compiles every shader module to SPIR-V with naga. It
// needs no GPU and reports the first module that fails.
func ValidateShaders() error {
	for _, name := range []string{"resize", "tensorize"} {
		if _, err := naga.Compile(ShaderSources()[name]); err != nil {
			return fmt.Errorf("compile %s shader: %w", name, err)
		}
	}
	return nil
}
