// Package checkpoint persists a partially- or fully-generated rule set to
// disk (spec §9 "resume support" — a supplement over the distilled spec;
// see SPEC_FULL.md), gob-encoded the way the teacher's pkg/result package
// checkpoints a long-running enumeration.
package checkpoint

import (
	"encoding/gob"
	"os"

	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// Checkpoint captures enough state to resume a rulegen run: the rules
// committed so far, and the global-problem target that produced them.
type Checkpoint struct {
	Rules           []*rule.Rule
	RuleCount       int
	TargetKind      paramcalc.Kind
	TargetParameter int
}

// Save writes ckpt to path.
func Save(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ckpt)
}

// Load reads a Checkpoint previously written by Save.
func Load(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, err
	}
	return &ckpt, nil
}
