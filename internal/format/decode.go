package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// DecodeRuleLine parses one rule line produced by EncodeRule. RM fields
// occupy three whitespace tokens ("start", ":", "end"); every other field
// kind occupies one.
func DecodeRuleLine(line string, cfgs []engine.FieldConfig, style Style) (*rule.Rule, error) {
	rest, err := stripPrefix(line, style)
	if err != nil {
		return nil, err
	}
	tokens := strings.Fields(rest)

	typ := &rule.Type{Kind: rule.UserDefined}
	for _, c := range cfgs {
		typ.Fields = append(typ.Fields, rule.FieldSpec{Kind: c.Kind, Width: c.Width, Weight: c.Weight})
	}
	r := rule.NewWildcard(typ)

	pos := 0
	for i, c := range cfgs {
		if c.Kind == field.RM {
			lo, hi, n, err := decodeRangeTokens(tokens[pos:], c.Width)
			if err != nil {
				return nil, err
			}
			r.Fields[i] = field.NewRM(c.Width, lo, hi)
			pos += n
			continue
		}
		if pos >= len(tokens) {
			return nil, fmt.Errorf("format: truncated rule line at field %d", i)
		}
		f, err := decodeField(tokens[pos], c)
		if err != nil {
			return nil, err
		}
		r.Fields[i] = f
		pos++
	}
	return r, nil
}

// DecodeFlowLine parses one trace line: the same field encoding as a rule,
// plus a trailing matched-rule index.
func DecodeFlowLine(line string, cfgs []engine.FieldConfig, style Style) ([]bitint.Int, int, error) {
	rest, err := stripPrefix(line, style)
	if err != nil {
		return nil, 0, err
	}
	tokens := strings.Fields(rest)
	values := make([]bitint.Int, len(cfgs))

	pos := 0
	for i, c := range cfgs {
		if c.Kind == field.RM {
			lo, _, n, err := decodeRangeTokens(tokens[pos:], c.Width)
			if err != nil {
				return nil, 0, err
			}
			values[i] = lo
			pos += n
			continue
		}
		if pos >= len(tokens) {
			return nil, 0, fmt.Errorf("format: truncated flow line at field %d", i)
		}
		f, err := decodeField(tokens[pos], c)
		if err != nil {
			return nil, 0, err
		}
		lo, _ := f.Range()
		values[i] = lo
		pos++
	}
	if pos >= len(tokens) {
		return nil, 0, fmt.Errorf("format: flow line missing rule index")
	}
	ruleIdx, err := strconv.Atoi(tokens[pos])
	if err != nil {
		return nil, 0, fmt.Errorf("format: invalid rule index %q: %w", tokens[pos], err)
	}
	return values, ruleIdx, nil
}

func stripPrefix(line string, style Style) (string, error) {
	prefix := linePrefix(style)
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("format: line %q does not start with %q", line, prefix)
	}
	return strings.TrimPrefix(line, prefix), nil
}

func decodeField(tok string, cfg engine.FieldConfig) (field.Field, error) {
	switch cfg.Kind {
	case field.EM:
		if tok == "*" || tok == "0x0/0x0" {
			return field.NewEM(cfg.Width, bitint.Zero(cfg.Width), true), nil
		}
		v := strings.TrimPrefix(tok, "0x")
		if idx := strings.Index(v, "/"); idx >= 0 {
			v = v[:idx]
		}
		val, err := parseHexValue(v, cfg.Width)
		if err != nil {
			return field.Field{}, err
		}
		return field.NewEM(cfg.Width, val, false), nil
	case field.LPM:
		if tok == "*" || tok == "0.0.0.0/0" {
			return field.NewLPM(cfg.Width, bitint.Zero(cfg.Width), 0), nil
		}
		if cfg.Address && cfg.Width == bitint.Width32 {
			return decodeIPv4Prefix(tok)
		}
		bits := strings.TrimSuffix(tok, "*")
		prefix, plen, err := parseBinaryPrefix(bits, cfg.Width)
		if err != nil {
			return field.Field{}, err
		}
		return field.NewLPM(cfg.Width, prefix, plen), nil
	}
	return field.Field{}, fmt.Errorf("format: unexpected single-token field kind for %q", cfg.Name)
}

// decodeRangeTokens consumes exactly 3 tokens ("start", ":", "end") and
// returns how many it ate.
func decodeRangeTokens(tokens []string, w bitint.Width) (lo, hi bitint.Int, consumed int, err error) {
	if len(tokens) < 3 || tokens[1] != ":" {
		return bitint.Int{}, bitint.Int{}, 0, fmt.Errorf("format: malformed range field")
	}
	loVal, err := strconv.ParseUint(tokens[0], 10, 64)
	if err != nil {
		return bitint.Int{}, bitint.Int{}, 0, err
	}
	hiVal, err := strconv.ParseUint(tokens[2], 10, 64)
	if err != nil {
		return bitint.Int{}, bitint.Int{}, 0, err
	}
	return bitint.FromUint64(w, loVal), bitint.FromUint64(w, hiVal), 3, nil
}

func decodeIPv4Prefix(tok string) (field.Field, error) {
	parts := strings.SplitN(tok, "/", 2)
	if len(parts) != 2 {
		return field.Field{}, fmt.Errorf("format: malformed IPv4 prefix %q", tok)
	}
	var a, b, c, d int
	n, err := fmt.Sscanf(parts[0], "%d.%d.%d.%d", &a, &b, &c, &d)
	if err != nil || n != 4 {
		return field.Field{}, fmt.Errorf("format: malformed IPv4 address %q", parts[0])
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return field.Field{}, err
	}
	v := uint64(a)<<24 | uint64(b)<<16 | uint64(c)<<8 | uint64(d)
	prefix := bitint.FromUint64(bitint.Width32, v)
	return field.NewLPM(bitint.Width32, prefix, length), nil
}

// parseBinaryPrefix reads a string of '0'/'1' characters as a left-aligned
// prefix at width w, without truncating through a 64-bit intermediate (so
// it works for the 128-bit IPv6 field width too).
func parseBinaryPrefix(s string, w bitint.Width) (bitint.Int, int, error) {
	v := bitint.Zero(w)
	for i := 0; i < len(s); i++ {
		v = v.Shl(1)
		switch s[i] {
		case '1':
			v = v.Add(bitint.FromUint64(w, 1))
		case '0':
		default:
			return bitint.Int{}, 0, fmt.Errorf("format: invalid LPM bit %q", s[i])
		}
	}
	plen := len(s)
	v = v.Shl(uint(int(w) - plen))
	return v, plen, nil
}

// parseHexValue reads a hex string digit by digit at width w, avoiding a
// 64-bit intermediate overflow for wide EM fields.
func parseHexValue(s string, w bitint.Width) (bitint.Int, error) {
	v := bitint.Zero(w)
	for i := 0; i < len(s); i++ {
		d, err := strconv.ParseUint(string(s[i]), 16, 8)
		if err != nil {
			return bitint.Int{}, fmt.Errorf("format: invalid hex digit %q", s[i])
		}
		v = v.Shl(4).Add(bitint.FromUint64(w, d))
	}
	return v, nil
}
