package config

import (
	"os"
	"path/filepath"
	"testing"

	"hrrnet/internal/graph"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Dimension != 30 || cfg.NeuronsPerDimension != 25 || cfg.VocabularySeed != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.VectorSimilarityThreshold != 1.0 || !cfg.SplitDimensions || !cfg.ProbesEnabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Mode != graph.Simulated {
		t.Fatalf("unexpected default mode: %s", cfg.Mode)
	}
	if cfg.Capacity() != 750 {
		t.Fatalf("unexpected capacity: %d", cfg.Capacity())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrr.json")
	body := `{
  "dimension": 16,
  "neurons_per_dimension": 40,
  "vocabulary_seed": 7,
  "vector_similarity_threshold": 0.35,
  "split_dimensions": false,
  "execution_mode": "direct",
  "probes_enabled": false,
  "max_relaxations": 3,
  "unknown": "ignored"
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Dimension != 16 || cfg.NeuronsPerDimension != 40 || cfg.VocabularySeed != 7 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.VectorSimilarityThreshold != 0.35 || cfg.SplitDimensions || cfg.ProbesEnabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Mode != graph.Idealized || cfg.MaxRelaxations != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SynapticTau != DefaultSynapticTau {
		t.Fatalf("expected default tau, got %f", cfg.SynapticTau)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "syntax", body: `{"dimension":`},
		{name: "dimension", body: `{"dimension": 0}`},
		{name: "capacity", body: `{"neurons_per_dimension": -1}`},
		{name: "mode", body: `{"execution_mode": "quantum"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got: %v", err)
	}
}
