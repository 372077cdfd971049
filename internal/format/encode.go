package format

import (
	"fmt"
	"strings"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// Style selects which of spec §6's two textual encodings to use.
type Style int

const (
	FlowBench Style = iota
	ClassBench
)

func linePrefix(style Style) string {
	if style == ClassBench {
		return "@"
	}
	return "R "
}

// EncodeRule renders one rule as a single line (spec §6 "Rules are
// serialized one per line; fields space-separated").
func EncodeRule(r *rule.Rule, cfgs []engine.FieldConfig, style Style) string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = encodeField(f, cfgs[i], style)
	}
	return linePrefix(style) + strings.Join(parts, " ")
}

// EncodeFlow renders one trace flow: the same per-field encoding as a rule,
// but for a concrete value, followed by the matched rule's index.
func EncodeFlow(values []bitint.Int, ruleIndex int, cfgs []engine.FieldConfig, style Style) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = encodeValue(v, cfgs[i], style)
	}
	return fmt.Sprintf("%s%s %d", linePrefix(style), strings.Join(parts, " "), ruleIndex)
}

func encodeField(f field.Field, cfg engine.FieldConfig, style Style) string {
	switch f.Kind {
	case field.EM:
		if f.Wildcard {
			if style == ClassBench {
				return "0x0/0x0"
			}
			return "*"
		}
		return encodeValue(f.Value, cfg, style)
	case field.LPM:
		if f.PrefixLen == 0 {
			if cfg.Address && cfg.Width == bitint.Width32 {
				return "0.0.0.0/0"
			}
			return "*"
		}
		if cfg.Address && cfg.Width == bitint.Width32 {
			return encodeIPv4Prefix(f.Prefix, f.PrefixLen)
		}
		return f.Prefix.Text(2, f.PrefixLen) + "*"
	case field.RM:
		lo, hi := f.Range()
		return lo.String() + " : " + hi.String()
	}
	return ""
}

func encodeValue(v bitint.Int, cfg engine.FieldConfig, style Style) string {
	switch cfg.Kind {
	case field.EM:
		if style == ClassBench {
			return fmt.Sprintf("0x%s/0x%s", v.Text(16, int(cfg.Width)), bitint.MaxOf(cfg.Width).Text(16, int(cfg.Width)))
		}
		return "0x" + v.Text(16, int(cfg.Width))
	case field.LPM:
		if cfg.Address && cfg.Width == bitint.Width32 {
			return encodeIPv4Prefix(v, int(cfg.Width))
		}
		return v.Text(2, int(cfg.Width))
	case field.RM:
		return v.String() + " : " + v.String()
	}
	return ""
}

func encodeIPv4Prefix(prefix bitint.Int, length int) string {
	v := prefix.Uint64()
	a := byte(v >> 24)
	b := byte(v >> 16)
	c := byte(v >> 8)
	d := byte(v)
	return fmt.Sprintf("%d.%d.%d.%d/%d", a, b, c, d, length)
}
