// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

//go:generate glslc ../../shaders/shader.vert -o ../../shaders/vert.spv
//go:generate glslc ../../shaders/shader.frag -o ../../shaders/frag.spv

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/packr"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/core"
	"github.com/devblok/drender/utility/kar"
)

const spirvMagic = 0x07230203

// ShaderSource loads compiled SPIR-V by name
type ShaderSource interface {
	Load(name string) ([]byte, error)
}

// DirSource loads shaders from a directory on disk
type DirSource string

// Load implements ShaderSource
func (d DirSource) Load(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), name))
}

// BoxSource loads shaders from a packr box
type BoxSource struct {
	Box packr.Box
}

// Load implements ShaderSource
func (b BoxSource) Load(name string) ([]byte, error) {
	return b.Box.Find(name)
}

// ArchiveSource loads shaders from a kar bundle
type ArchiveSource struct {
	Archive *kar.Archive
}

// Load implements ShaderSource
func (a ArchiveSource) Load(name string) ([]byte, error) {
	return a.Archive.ReadAll(name)
}

// ValidateSPIRV checks that code looks like a SPIR-V module:
// whole 32 bit words led by the magic number
func ValidateSPIRV(code []byte) error {
	switch {
	case len(code) == 0:
		return errors.Wrap(ErrInvalidShader, "empty")
	case len(code)%4 != 0:
		return errors.Wrapf(ErrInvalidShader, "size %d is not a multiple of 4", len(code))
	case binary.LittleEndian.Uint32(code) != spirvMagic:
		return errors.Wrap(ErrInvalidShader, "bad magic number")
	}
	return nil
}

// ShaderHint tells how to produce the SPIR-V binaries a source lacks
const ShaderHint = "compile the shaders with `go generate ./core/renderer` (requires glslc on PATH)"

// LoadShader reads and validates a shader from src
func LoadShader(src ShaderSource, name string) ([]byte, error) {
	code, err := src.Load(name)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "shader %s", name), ShaderHint)
	}
	if err := ValidateSPIRV(code); err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "shader %s", name), ShaderHint)
	}
	return code, nil
}

// CheckShaders loads every named shader once, so a missing binary is
// reported before any window or device exists
func CheckShaders(src ShaderSource, names ShaderNames) error {
	for _, name := range []string{names.Vertex, names.Fragment} {
		if _, err := LoadShader(src, name); err != nil {
			return setupFault(err)
		}
	}
	return nil
}

func createShaderModule(device vk.Device, code []byte, shaderType core.ShaderType) (vk.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}

	var module vk.ShaderModule
	if err := vkError("CreateShaderModule", vk.CreateShaderModule(device, &smci, nil, &module)); err != nil {
		return nil, errors.Wrapf(err, "%s shader", shaderType)
	}
	return module, nil
}
