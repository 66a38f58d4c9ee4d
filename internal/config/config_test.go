package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nesai/digitmlp/internal/net"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestDefaultMatchesReferenceArchitecture tests the built-in constants.
func TestDefaultMatchesReferenceArchitecture(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	if diff := cmp.Diff(net.DefaultArchitecture(), cfg.Architecture()); diff != "" {
		t.Errorf("architecture mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 50, cfg.Epochs)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, int64(42), cfg.Seed)
}

// TestLoad tests YAML decoding on top of defaults.
func TestLoad(t *testing.T) {
	path := writeConfig(t, `
input_resolution: 14
hidden_width: 32
hidden2: 16
dropout_rate: 0
epochs: 3
data_dir: /tmp/mnist
history_csv: history.csv
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := net.Architecture{InputSide: 14, Hidden1: 32, Hidden2: 16, NumClasses: 10, DropoutRate: 0}
	assert.Equal(t, want, cfg.Architecture())
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, "/tmp/mnist", cfg.DataDir)
	assert.Equal(t, "history.csv", cfg.HistoryCSV)
	assert.Equal(t, "weights.txt", cfg.Output)
}

// TestLoadEmptyFile tests that an empty file yields the defaults.
func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoadErrors tests rejected files.
func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"unknown key", "epoch: 3\n", "epoch"},
		{"bad type", "epochs: many\n", "cannot unmarshal"},
		{"invalid value", "batch_size: 0\n", "batch_size"},
		{"dropout", "dropout_rate: 1.5\n", "dropout"},
		{"log interval", "log_every: 0\n", "log_every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.msg), "error %q lacks %q", err, tt.msg)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestApplyOverrides tests that only set overrides apply.
func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.Hidden1 = 50

	zero := 0.0
	seed := int64(0)
	cfg.ApplyOverrides(Overrides{
		HiddenWidth: 16,
		DropoutRate: &zero,
		Seed:        &seed,
		Output:      "out.txt",
	})

	assert.Equal(t, 16, cfg.Architecture().Hidden1)
	assert.Equal(t, 16, cfg.Architecture().Hidden2)
	assert.Equal(t, 0.0, cfg.DropoutRate)
	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, "out.txt", cfg.Output)
	assert.Equal(t, 50, cfg.Epochs)
	assert.Equal(t, "data", cfg.DataDir)
}

// TestValidateLeavesConfigUnchanged tests that Validate reports instead of repairing.
func TestValidateLeavesConfigUnchanged(t *testing.T) {
	cfg := Default()
	cfg.LogEvery = -1
	before := *cfg
	require.Error(t, cfg.Validate())
	assert.Equal(t, before, *cfg)
}
