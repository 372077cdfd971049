package quaddag

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// Load deserializes a profile-file stream (spec §6 "Profile file").
//
//	DAG <edgestring>
//	D=<int> E=<int> W=<int> F=<int> W=<w0> <w1> <w2>
//	SR
//	<rule line>
//	d=<int> e=<int> s=<0|1>
//	... (4 SR blocks, then N VR blocks)
//	END
//	...
//	EOF
func Load(r io.Reader) (*Pool, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	pool := &Pool{}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "EOF" {
			break
		}
		if !strings.HasPrefix(line, "DAG ") {
			return nil, fmt.Errorf("quaddag: expected DAG record, got %q", line)
		}
		prof, err := loadRecord(sc, strings.TrimSpace(strings.TrimPrefix(line, "DAG ")))
		if err != nil {
			return nil, err
		}
		pool.Profiles = append(pool.Profiles, prof)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pool, nil
}

func loadRecord(sc *bufio.Scanner, edgeStr string) (*Profile, error) {
	dag, err := Parse(edgeStr)
	if err != nil {
		return nil, err
	}
	prof := &Profile{Dag: dag}

	if !sc.Scan() {
		return nil, fmt.Errorf("quaddag: truncated record for %s", edgeStr)
	}
	aggLine := strings.TrimSpace(sc.Text())
	if err := parseAggregateLine(aggLine, prof); err != nil {
		return nil, err
	}

	solidIdx := 0
	for sc.Scan() {
		tok := strings.TrimSpace(sc.Text())
		switch tok {
		case "END":
			return prof, nil
		case "SR":
			r, stat, err := readRuleBlock(sc, prof.FieldWidths)
			if err != nil {
				return nil, err
			}
			if solidIdx >= 4 {
				return nil, fmt.Errorf("quaddag: more than 4 SR blocks in %s", edgeStr)
			}
			prof.SolidRules[solidIdx] = r
			stat.Rule = r
			prof.SolidStats[solidIdx] = stat
			solidIdx++
		case "VR":
			r, stat, err := readRuleBlock(sc, prof.FieldWidths)
			if err != nil {
				return nil, err
			}
			stat.Rule = r
			prof.VirtualRules = append(prof.VirtualRules, stat)
		default:
			return nil, fmt.Errorf("quaddag: unexpected token %q in %s", tok, edgeStr)
		}
	}
	return nil, fmt.Errorf("quaddag: missing END for %s", edgeStr)
}

func parseAggregateLine(line string, prof *Profile) error {
	// D=<int> E=<int> W=<int> F=<int> W=<w0> <w1> <w2>
	fields := strings.Fields(line)
	widthsSeen := 0
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "D="):
			v, err := strconv.Atoi(strings.TrimPrefix(f, "D="))
			if err != nil {
				return err
			}
			prof.TotalDependencyLength = v
		case strings.HasPrefix(f, "E="):
			v, err := strconv.Atoi(strings.TrimPrefix(f, "E="))
			if err != nil {
				return err
			}
			prof.TotalEdgeCount = v
		case strings.HasPrefix(f, "F="):
			v, err := strconv.Atoi(strings.TrimPrefix(f, "F="))
			if err != nil {
				return err
			}
			prof.ActualFieldCount = v
		case strings.HasPrefix(f, "W="):
			v, err := strconv.Atoi(strings.TrimPrefix(f, "W="))
			if err != nil {
				return err
			}
			if widthsSeen == 0 {
				prof.TotalBitWidth = v
			} else {
				prof.FieldWidths = append(prof.FieldWidths, v)
			}
			widthsSeen++
		default:
			// bare per-field width continuing the last W= token
			v, err := strconv.Atoi(f)
			if err == nil {
				prof.FieldWidths = append(prof.FieldWidths, v)
			}
		}
	}
	prof.ExistWildcard = true // rule 0 is wildcard, per profile invariant (§4.1)
	return nil
}

func readRuleBlock(sc *bufio.Scanner, widths []int) (*rule.Rule, RuleStat, error) {
	if !sc.Scan() {
		return nil, RuleStat{}, fmt.Errorf("quaddag: missing rule line")
	}
	r, err := parseRuleLine(strings.TrimSpace(sc.Text()), widths)
	if err != nil {
		return nil, RuleStat{}, err
	}
	if !sc.Scan() {
		return nil, RuleStat{}, fmt.Errorf("quaddag: missing stat line")
	}
	stat, err := parseStatLine(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, RuleStat{}, err
	}
	return r, stat, nil
}

func parseStatLine(line string) (RuleStat, error) {
	var stat RuleStat
	for _, f := range strings.Fields(line) {
		switch {
		case strings.HasPrefix(f, "d="):
			v, err := strconv.Atoi(strings.TrimPrefix(f, "d="))
			if err != nil {
				return stat, err
			}
			stat.DependencyLength = v
		case strings.HasPrefix(f, "e="):
			v, err := strconv.Atoi(strings.TrimPrefix(f, "e="))
			if err != nil {
				return stat, err
			}
			stat.EdgeCount = v
		case strings.HasPrefix(f, "s="):
			stat.Solid = strings.TrimPrefix(f, "s=") == "1"
		}
	}
	return stat, nil
}

// parseRuleLine parses a candidate rule line: len(widths) space-separated
// LPM fields, each rendered as a binary prefix left-justified with '*'
// padding (e.g. "101*****" for an 8-bit field with a 3-bit prefix "101").
func parseRuleLine(line string, widths []int) (*rule.Rule, error) {
	toks := strings.Fields(line)
	ct := rule.NewCandidateType()
	if len(widths) == len(toks) {
		// Profile declared explicit per-field widths; honor them.
		ct = &rule.Type{Kind: rule.Candidate}
		for _, w := range widths {
			ct.Fields = append(ct.Fields, rule.FieldSpec{Kind: field.LPM, Width: bitint.Width(w), Weight: 1})
		}
	}
	if len(toks) != len(ct.Fields) {
		return nil, fmt.Errorf("quaddag: rule line %q has %d fields, want %d", line, len(toks), len(ct.Fields))
	}
	r := &rule.Rule{Type: ct, Fields: make([]field.Field, len(toks))}
	for i, tok := range toks {
		w := ct.Fields[i].Width
		length := 0
		for length < len(tok) && (tok[length] == '0' || tok[length] == '1') {
			length++
		}
		var prefix uint64
		if length > 0 {
			v, err := strconv.ParseUint(tok[:length], 2, 64)
			if err != nil {
				return nil, err
			}
			prefix = v << (uint(w) - uint(length))
		}
		r.Fields[i] = field.NewLPM(w, bitint.FromUint64(w, prefix), length)
	}
	return r, nil
}

// FormatRuleLine is the inverse of parseRuleLine: it renders a rule as one
// profile-file rule line.
func FormatRuleLine(r *rule.Rule) string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		if f.Kind != field.LPM {
			parts[i] = "?"
			continue
		}
		w := int(f.Width)
		s := f.Prefix.Text(2, f.PrefixLen)
		parts[i] = s + strings.Repeat("*", w-f.PrefixLen)
	}
	return strings.Join(parts, " ")
}
