package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hrrnet/internal/model"
)

func sampleVocabulary(id string, created time.Time) model.VocabularyRecord {
	return model.VocabularyRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		Catalog:         "rpm20",
		Dimension:       3,
		Seed:            100,
		Threshold:       1.1,
		Relaxations:     1,
		CreatedAt:       created,
		Symbols: []model.SymbolRecord{
			{Name: "a", Vector: []float64{0.5, -0.25, 0.125}},
			{Name: "b", Vector: []float64{0, 1, 0}},
		},
	}
}

func sampleNetwork(id string, created time.Time) model.NetworkRecord {
	return model.NetworkRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		Name:            "cconv",
		Kind:            "convolution",
		Dimension:       2,
		CreatedAt:       created,
		Nodes: []model.NodeRecord{{
			Path:      "A",
			Kind:      "relay",
			Mode:      "direct",
			Dimension: 2,
			Inputs:    []model.InputPortRecord{{Name: "input", Tau: 0.0001, Weights: [][]float64{{1, 0}, {0, 1}}}},
			Outputs:   []model.OutputPortRecord{{Name: "X"}},
		}},
		Inputs:  []model.ExposedPortRecord{{Name: "A", Node: "A", Port: "input"}},
		Outputs: []model.ExposedPortRecord{{Name: "X", Node: "A", Port: "X"}},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.SaveVocabulary(ctx, sampleVocabulary("v2", base.Add(time.Minute))); err != nil {
		t.Fatalf("save vocabulary: %v", err)
	}
	if err := store.SaveVocabulary(ctx, sampleVocabulary("v1", base)); err != nil {
		t.Fatalf("save vocabulary: %v", err)
	}

	loaded, ok, err := store.GetVocabulary(ctx, "v1")
	if err != nil {
		t.Fatalf("get vocabulary: %v", err)
	}
	if !ok {
		t.Fatal("expected vocabulary v1")
	}
	if loaded.Catalog != "rpm20" || len(loaded.Symbols) != 2 || loaded.Symbols[0].Vector[2] != 0.125 {
		t.Fatalf("unexpected vocabulary loaded: %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(base) {
		t.Fatalf("created_at changed: %v", loaded.CreatedAt)
	}

	if _, ok, err := store.GetVocabulary(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing vocabulary, ok=%t err=%v", ok, err)
	}

	vocabs, err := store.ListVocabularies(ctx)
	if err != nil {
		t.Fatalf("list vocabularies: %v", err)
	}
	if len(vocabs) != 2 || vocabs[0].ID != "v1" || vocabs[1].ID != "v2" {
		t.Fatalf("unexpected vocabulary listing: %+v", vocabs)
	}
	if vocabs[0].Kind != "vocabulary" || vocabs[0].Name != "rpm20" || vocabs[0].Size <= 0 {
		t.Fatalf("unexpected summary: %+v", vocabs[0])
	}

	network := sampleNetwork("n1", base)
	if err := store.SaveNetwork(ctx, network); err != nil {
		t.Fatalf("save network: %v", err)
	}
	network.Name = "cconv-renamed"
	if err := store.SaveNetwork(ctx, network); err != nil {
		t.Fatalf("overwrite network: %v", err)
	}

	loadedNetwork, ok, err := store.GetNetwork(ctx, "n1")
	if err != nil {
		t.Fatalf("get network: %v", err)
	}
	if !ok {
		t.Fatal("expected network n1")
	}
	if loadedNetwork.Name != "cconv-renamed" || len(loadedNetwork.Nodes) != 1 || loadedNetwork.Nodes[0].Inputs[0].Weights[1][1] != 1 {
		t.Fatalf("unexpected network loaded: %+v", loadedNetwork)
	}

	networks, err := store.ListNetworks(ctx)
	if err != nil {
		t.Fatalf("list networks: %v", err)
	}
	if len(networks) != 1 || networks[0].Kind != "convolution" || networks[0].Dimension != 2 {
		t.Fatalf("unexpected network listing: %+v", networks)
	}

	if err := store.DeleteNetwork(ctx, "n1"); err != nil {
		t.Fatalf("delete network: %v", err)
	}
	if _, ok, err := store.GetNetwork(ctx, "n1"); err != nil || ok {
		t.Fatalf("expected deleted network, ok=%t err=%v", ok, err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	err := store.SaveNetwork(context.Background(), sampleNetwork("n1", time.Now()))
	if err == nil {
		t.Fatal("expected save before init to fail")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "hrrnet.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "hrrnet.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveVocabulary(ctx, sampleVocabulary("v1", time.Unix(100, 0).UTC())); err != nil {
		t.Fatalf("save vocabulary: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	summaries, err := second.ListVocabularies(ctx)
	if err != nil {
		t.Fatalf("list vocabularies: %v", err)
	}
	if len(summaries) != 1 || !summaries[0].CreatedAt.Equal(time.Unix(100, 0)) {
		t.Fatalf("unexpected summaries after reopen: %+v", summaries)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected missing path error")
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	_, _, err := NewSQLiteStore("unused.db").GetNetwork(context.Background(), "n1")
	if !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not-initialized error, got %v", err)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	vocab := sampleVocabulary("v1", time.Now())
	vocab.CodecVersion = CurrentCodecVersion + 1
	payload, err := EncodeVocabulary(vocab)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeVocabulary(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}

	network := sampleNetwork("n1", time.Now())
	network.SchemaVersion = 0
	payload, err = EncodeNetwork(network)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeNetwork(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeRejectsUncompressedPayload(t *testing.T) {
	if _, err := DecodeNetwork([]byte(`{"id":"n1"}`)); err == nil {
		t.Fatal("expected decode error for raw JSON payload")
	}
}

func TestNewStore(t *testing.T) {
	for _, kind := range []string{"", "memory", "sqlite"} {
		store, err := NewStore(kind, filepath.Join(t.TempDir(), "x.db"))
		if err != nil {
			t.Fatalf("new store %q: %v", kind, err)
		}
		if store == nil {
			t.Fatalf("expected non-nil store for %q", kind)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close %q: %v", kind, err)
		}
	}
	if _, err := NewStore("unknown", ""); err == nil {
		t.Fatal("expected unsupported store error")
	}
}
