package format

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteManifestRoundTripsThroughJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := RunManifest{
		RuleCount:       100,
		TargetKind:      "E",
		TargetParameter: 42,
		Seed:            5489,
		Protocol:        "ipv4",
		RulesWritten:    100,
		Duration:        1500 * time.Millisecond,
	}
	require.NoError(t, WriteManifest(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got RunManifest
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, m, got)
}

func TestWriteManifestFailsOnUnwritablePath(t *testing.T) {
	err := WriteManifest("/nonexistent-dir/manifest.json", RunManifest{})
	require.Error(t, err)
}
