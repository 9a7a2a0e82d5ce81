package shader

import (
	"fmt"
	"hash"
	"math"
	"slices"
	"strconv"
)

// ShaderConfig describes how to load one shader stage: where the WGSL source lives, how to
// label the resulting GPU module, which entry point to use, and which override constants to
// bake into the source.
type ShaderConfig struct {
	// Path is the WGSL source file path.
	Path string `yaml:"path"`

	// Label is the GPU debug label. Defaults to the file path when empty.
	Label string `yaml:"label"`

	// EntryPoint is the entry function name. When empty, the first entry point of the
	// requested stage is used.
	EntryPoint string `yaml:"entry_point"`

	// Constants assigns values to WGSL override declarations, keyed by name or numeric @id.
	Constants map[string]float64 `yaml:"constants"`

	// ZeroInitializeWorkgroupMemory requests zeroed workgroup memory. It only affects compute
	// stages and is carried so that it participates in pipeline cache keys.
	ZeroInitializeWorkgroupMemory bool `yaml:"zero_initialize_workgroup_memory"`
}

// DisplayLabel returns the label used for GPU objects created from this config.
//
// Returns:
//   - string: the configured label, or the source path when no label is set
func (c ShaderConfig) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Path
}

// WriteKey writes a canonical encoding of the config to h. Constants are written in sorted
// key order so that equal configs always produce equal hashes.
//
// Parameters:
//   - h: the hash to write into
func (c ShaderConfig) WriteKey(h hash.Hash) {
	fmt.Fprintf(h, "path=%q;label=%q;entry=%q;zero=%t;", c.Path, c.Label, c.EntryPoint, c.ZeroInitializeWorkgroupMemory)
	keys := make([]string, 0, len(c.Constants))
	for k := range c.Constants {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%q=%s;", k, strconv.FormatUint(math.Float64bits(c.Constants[k]), 16))
	}
}
