// Package format implements the FlowBench/ClassBench textual rule and trace
// encodings (spec §6 "Input/output formats"), the protocol field presets
// ("-p/--protocol"), and the YAML run-configuration loader.
package format

import (
	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
)

// Preset returns the field layout for one of spec §6's built-in protocol
// presets. The second return is false for an unrecognized name.
func Preset(name string) ([]engine.FieldConfig, bool) {
	switch name {
	case "ipv4":
		return []engine.FieldConfig{
			{Name: "src", Kind: field.LPM, Width: bitint.Width32, Weight: 1, Address: true},
			{Name: "dst", Kind: field.LPM, Width: bitint.Width32, Weight: 1, Address: true},
			{Name: "srcport", Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Name: "dstport", Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Name: "proto", Kind: field.EM, Width: bitint.Width32, Weight: 0.2},
		}, true
	case "ipv6":
		return []engine.FieldConfig{
			{Name: "src", Kind: field.LPM, Width: bitint.Width128, Weight: 1},
			{Name: "dst", Kind: field.LPM, Width: bitint.Width128, Weight: 1},
			{Name: "srcport", Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Name: "dstport", Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Name: "proto", Kind: field.EM, Width: bitint.Width32, Weight: 0.2},
		}, true
	case "openflow1.0":
		return []engine.FieldConfig{
			{Name: "in_port", Kind: field.EM, Width: bitint.Width32, Weight: 0.2},
			{Name: "eth_src", Kind: field.EM, Width: bitint.Width64, Weight: 0.2},
			{Name: "eth_dst", Kind: field.EM, Width: bitint.Width64, Weight: 0.2},
			{Name: "eth_type", Kind: field.EM, Width: bitint.Width32, Weight: 0.2},
			{Name: "ip_src", Kind: field.LPM, Width: bitint.Width32, Weight: 1, Address: true},
			{Name: "ip_dst", Kind: field.LPM, Width: bitint.Width32, Weight: 1, Address: true},
			{Name: "ip_proto", Kind: field.EM, Width: bitint.Width32, Weight: 0.2},
			{Name: "tp_src", Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Name: "tp_dst", Kind: field.RM, Width: bitint.Width32, Weight: 1},
		}, true
	}
	return nil, false
}
