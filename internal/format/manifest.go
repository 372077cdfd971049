package format

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunManifest is the JSON summary written alongside a rulegen run's textual
// rule-set output. It mirrors the teacher's intent to persist a run's
// parameters and outcome as a small machine-readable sidecar file, the way
// its result package was meant to do for optimization runs.
type RunManifest struct {
	RuleCount       int           `json:"rule_count"`
	TargetKind      string        `json:"target_kind"`
	TargetParameter int           `json:"target_parameter"`
	Seed            uint64        `json:"seed"`
	Protocol        string        `json:"protocol,omitempty"`
	ArbitraryRange  bool          `json:"arbitrary_range"`
	DenseProfiles   bool          `json:"dense_profiles"`
	OutputPath      string        `json:"output_path,omitempty"`
	RulesWritten    int           `json:"rules_written"`
	Duration        time.Duration `json:"duration_ns"`
}

// WriteManifest serializes m to path as indented JSON.
func WriteManifest(path string, m RunManifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("format: creating manifest file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("format: encoding manifest: %w", err)
	}
	return nil
}
