package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"gopkg.in/yaml.v3"
)

// Color is an RGBA clear color. In YAML it is either a list of three or four numbers in [0, 1]
// or a "#rrggbb" / "#rrggbbaa" hex string.
type Color wgpu.Color

// WGPU returns the color as a wgpu.Color.
func (c Color) WGPU() wgpu.Color {
	return wgpu.Color(c)
}

// UnmarshalYAML implements yaml.Unmarshaler for Color.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		parsed, err := parseHexColor(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case yaml.SequenceNode:
		var rgba []float64
		if err := value.Decode(&rgba); err != nil {
			return err
		}
		if len(rgba) != 3 && len(rgba) != 4 {
			return fmt.Errorf("%w: color needs 3 or 4 components, got %d", ErrInvalid, len(rgba))
		}
		for _, v := range rgba {
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: color component %g is outside [0, 1]", ErrInvalid, v)
			}
		}
		if len(rgba) == 3 {
			rgba = append(rgba, 1)
		}
		*c = Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
		return nil
	default:
		return fmt.Errorf("%w: color must be a list or a hex string (line %d)", ErrInvalid, value.Line)
	}
}

// MarshalYAML implements yaml.Marshaler for Color.
func (c Color) MarshalYAML() (any, error) {
	return []float64{c.R, c.G, c.B, c.A}, nil
}

func parseHexColor(s string) (Color, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return Color{}, fmt.Errorf("%w: color %q is not #rrggbb or #rrggbbaa", ErrInvalid, s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, s, err)
	}
	channel := func(shift uint) float64 {
		return float64((v>>shift)&0xff) / 255
	}
	return Color{R: channel(24), G: channel(16), B: channel(8), A: channel(0)}, nil
}
