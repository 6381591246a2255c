package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hrrnet/internal/vocab"
)

func runCapture(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() {
		stdout = orig
	})
	err := run(context.Background(), args)
	stdout = orig
	return buf.String(), err
}

func field(t *testing.T, out, key string) string {
	t.Helper()
	for _, f := range strings.Fields(out) {
		if v, ok := strings.CutPrefix(f, key+"="); ok {
			return v
		}
	}
	t.Fatalf("no %s= in output:\n%s", key, out)
	return ""
}

func writeConfigFile(t *testing.T, path string, values map[string]any) {
	t.Helper()
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if _, err := runCapture(t); err == nil || !strings.Contains(err.Error(), "usage: hrrctl") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if _, err := runCapture(t, "evolve"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestVocabCommandsSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hrrnet.db")

	out, err := runCapture(t, "vocab", "--db-path", dbPath, "--words", "20", "--out", dir, "--log-json")
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	if field(t, out, "catalog") != "rpm20" || field(t, out, "dimension") != "30" {
		t.Fatalf("unexpected vocab output:\n%s", out)
	}
	file := field(t, out, "file")
	if filepath.Base(file) != "RPMvocab_20x30_100.txt" {
		t.Fatalf("unexpected file name %s", file)
	}
	id := field(t, out, "vocabulary")

	out, err = runCapture(t, "vocabs", "--db-path", dbPath)
	if err != nil {
		t.Fatalf("vocabs: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "name=rpm20") {
		t.Fatalf("listing misses vocabulary %s:\n%s", id, out)
	}

	out, err = runCapture(t, "show-vocab", "--file", file, "--limit", "3")
	if err != nil {
		t.Fatalf("show-vocab file: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Fatalf("expected 3 symbols, got %d:\n%s", len(lines), out)
	}

	out, err = runCapture(t, "show-vocab", "--db-path", dbPath, "--id", id, "--limit", "2")
	if err != nil {
		t.Fatalf("show-vocab id: %v", err)
	}
	if !strings.Contains(out, "catalog=rpm20") {
		t.Fatalf("unexpected show-vocab output:\n%s", out)
	}

	if _, err := runCapture(t, "show-vocab", "--db-path", dbPath); err == nil {
		t.Fatal("expected show-vocab without --id or --file to fail")
	}
}

func TestCompileAndShowNetwork(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hrrnet.db")

	out, err := runCapture(t, "compile", "--db-path", dbPath, "--kind", "convolution", "--dim", "4", "--probes=false", "--log-json")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if field(t, out, "kind") != "convolution" || field(t, out, "dimension") != "4" {
		t.Fatalf("unexpected compile output:\n%s", out)
	}
	id := field(t, out, "network")

	out, err = runCapture(t, "networks", "--db-path", dbPath)
	if err != nil {
		t.Fatalf("networks: %v", err)
	}
	if !strings.Contains(out, id) {
		t.Fatalf("listing misses network %s:\n%s", id, out)
	}

	out, err = runCapture(t, "show-network", "--db-path", dbPath, "--id", id)
	if err != nil {
		t.Fatalf("show-network: %v", err)
	}
	var rec struct {
		ID      string `json:"id"`
		Kind    string `json:"kind"`
		Outputs []struct {
			Name string `json:"name"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode show-network output: %v", err)
	}
	if rec.ID != id || rec.Kind != "convolution" || len(rec.Outputs) != 1 || rec.Outputs[0].Name != "X" {
		t.Fatalf("unexpected network record: %+v", rec)
	}
}

func TestCheckCommand(t *testing.T) {
	out, err := runCapture(t, "check", "--store", "memory", "--dim", "8", "--log-json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if field(t, out, "dimension") != "8" || field(t, out, "split") != "true" {
		t.Fatalf("unexpected check output:\n%s", out)
	}
	if _, err := runCapture(t, "check", "--store", "memory", "--dim", "8", "--min-cosine", "1.5", "--log-json"); err == nil {
		t.Fatal("expected check to fail for an unreachable cosine")
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "hrrnet.json")
	writeConfigFile(t, cfgPath, map[string]any{
		"dimension":       12,
		"vocabulary_seed": 7,
	})

	out, err := runCapture(t, "vocab", "--store", "memory", "--config", cfgPath, "--words", "20", "--log-json")
	if err != nil {
		t.Fatalf("vocab with config: %v", err)
	}
	if field(t, out, "dimension") != "12" || field(t, out, "seed") != "7" {
		t.Fatalf("config file not applied:\n%s", out)
	}

	out, err = runCapture(t, "vocab", "--store", "memory", "--config", cfgPath, "--dim", "10", "--words", "20", "--log-json")
	if err != nil {
		t.Fatalf("vocab with override: %v", err)
	}
	if field(t, out, "dimension") != "10" || field(t, out, "seed") != "7" {
		t.Fatalf("flag did not override config file:\n%s", out)
	}

	if _, err := runCapture(t, "vocab", "--store", "memory", "--config", filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected missing config error")
	}
}

func TestListEmpty(t *testing.T) {
	out, err := runCapture(t, "networks", "--store", "memory", "--log-json")
	if err != nil {
		t.Fatalf("networks: %v", err)
	}
	if strings.TrimSpace(out) != "no networks" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRemoveNetworkCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hrrnet.db")
	out, err := runCapture(t, "compile", "--db-path", dbPath, "--kind", "ensemble", "--dim", "2", "--log-json")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	id := field(t, out, "network")

	out, err = runCapture(t, "rm-network", "--db-path", dbPath, "--id", id, "--log-json")
	if err != nil {
		t.Fatalf("rm-network: %v", err)
	}
	if field(t, out, "network") != id {
		t.Fatalf("unexpected rm-network output:\n%s", out)
	}

	out, err = runCapture(t, "networks", "--db-path", dbPath, "--log-json")
	if err != nil {
		t.Fatalf("networks: %v", err)
	}
	if strings.TrimSpace(out) != "no networks" {
		t.Fatalf("network still listed:\n%s", out)
	}
	if _, err := runCapture(t, "rm-network", "--db-path", dbPath, "--id", id, "--log-json"); err == nil {
		t.Fatal("expected removing a missing network to fail")
	}
}

func TestFeaturesCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hrrnet.db")
	out, err := runCapture(t, "vocab", "--db-path", dbPath, "--words", "20", "--log-json")
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	id := field(t, out, "vocabulary")
	name := vocab.Catalog20().Names[0]

	out, err = runCapture(t, "features", "--db-path", dbPath, "--vocab", id, "--first", name, "--second", name, "--log-json")
	if err != nil {
		t.Fatalf("features: %v", err)
	}
	if field(t, out, "diff") != "" {
		t.Fatalf("a symbol has no distinguishing features from itself:\n%s", out)
	}
	if !strings.Contains(out, "same=") {
		t.Fatalf("unexpected features output:\n%s", out)
	}

	if _, err := runCapture(t, "features", "--db-path", dbPath, "--vocab", id, "--first", name, "--second", "no-such-word", "--log-json"); err == nil {
		t.Fatal("expected unknown symbol error")
	}
	if _, err := runCapture(t, "features", "--db-path", dbPath, "--log-json"); err == nil {
		t.Fatal("expected missing flag error")
	}
}
