// Package hrrnet is the library facade: it generates vocabularies, compiles
// HRR networks into persistable descriptions and checks compiled networks
// against the vector algebra they implement.
package hrrnet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"hrrnet/internal/config"
	"hrrnet/internal/engine"
	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
	"hrrnet/internal/model"
	"hrrnet/internal/networks"
	"hrrnet/internal/storage"
	"hrrnet/internal/vocab"
)

const defaultDBPath = "hrrnet.db"

// Network kinds accepted by CompileNetwork.
const (
	KindEnsemble    = "ensemble"
	KindProduct     = "product"
	KindConvolution = "convolution"
	KindTransform   = "transform"
	KindSimilarity  = "similarity"
	KindAnalogy     = "analogy"
)

var ErrNotFound = errors.New("record not found")

type Options struct {
	StoreKind string
	DBPath    string
	// Config overrides config.Default() when set.
	Config *config.Config
}

type Client struct {
	store storage.Store
	cfg   config.Config
	now   func() time.Time
}

type VocabularyRequest struct {
	// Words selects the catalog: 80, 50 or 20.
	Words int
	// OutDir, when set, receives the vocabulary file.
	OutDir string
}

type VocabularySummary struct {
	ID          string
	Catalog     string
	Symbols     int
	Dimension   int
	Seed        int64
	Threshold   float64
	Relaxations int
	Crowding    float64
	File        string
}

type CompileRequest struct {
	Kind string
	// Name defaults to Kind.
	Name      string
	Dimension int
	// Capacity is the neuron budget; zero means the configured capacity.
	Capacity int
	// Mode overrides the configured execution mode ("simulated", "idealized").
	Mode string
	// VocabularyID supplies the candidates of similarity and analogy networks.
	VocabularyID string
}

type NetworkSummary struct {
	ID        string
	Name      string
	Kind      string
	Dimension int
	Stats     graph.Stats
}

type CheckRequest struct {
	Dimension int
	Seed      int64
	// Split overrides the configured dimension splitting when set.
	Split *bool
}

type CheckResult struct {
	Dimension int
	Cosine    float64
	MaxError  float64
}

func New(opts Options) (*Client, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, cfg: cfg, now: time.Now}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Config() config.Config {
	return c.cfg
}

// GenerateVocabulary generates the catalog for req.Words, stores it and
// optionally writes the vocabulary file.
func (c *Client) GenerateVocabulary(ctx context.Context, req VocabularyRequest) (VocabularySummary, error) {
	cat, err := vocab.CatalogFor(req.Words)
	if err != nil {
		return VocabularySummary{}, err
	}
	res, err := vocab.Generate(c.cfg, cat)
	if err != nil {
		return VocabularySummary{}, err
	}

	rec := vocab.ToRecord(res)
	rec.VersionedRecord = storage.CurrentVersion()
	rec.ID = uuid.NewString()
	rec.CreatedAt = c.now().UTC()
	if err := c.store.SaveVocabulary(ctx, rec); err != nil {
		return VocabularySummary{}, err
	}

	summary := VocabularySummary{
		ID:          rec.ID,
		Catalog:     res.Catalog,
		Symbols:     res.Vocabulary.Len(),
		Dimension:   res.Vocabulary.Dimension(),
		Seed:        res.Seed,
		Threshold:   res.Threshold,
		Relaxations: res.Relaxations,
		Crowding:    vocab.Crowding(res.Vocabulary, vocab.CrowdingThreshold),
	}
	if req.OutDir != "" {
		path := filepath.Join(req.OutDir, vocab.FileName(c.cfg.Dimension, req.Words, c.cfg.VocabularySeed))
		if err := vocab.SaveFile(path, res.Vocabulary); err != nil {
			return VocabularySummary{}, err
		}
		summary.File = path
	}
	return summary, nil
}

func (c *Client) Vocabulary(ctx context.Context, id string) (*vocab.Vocabulary, model.VocabularyRecord, error) {
	rec, ok, err := c.store.GetVocabulary(ctx, id)
	if err != nil {
		return nil, model.VocabularyRecord{}, err
	}
	if !ok {
		return nil, model.VocabularyRecord{}, fmt.Errorf("%w: vocabulary %s", ErrNotFound, id)
	}
	v, err := vocab.FromRecord(rec)
	if err != nil {
		return nil, model.VocabularyRecord{}, err
	}
	return v, rec, nil
}

func (c *Client) Vocabularies(ctx context.Context) ([]model.RecordSummary, error) {
	return c.store.ListVocabularies(ctx)
}

// CompileNetwork builds the requested network and stores its description.
func (c *Client) CompileNetwork(ctx context.Context, req CompileRequest) (NetworkSummary, error) {
	if req.Dimension <= 0 {
		req.Dimension = c.cfg.Dimension
	}
	if req.Name == "" {
		req.Name = req.Kind
	}
	cfg := c.cfg
	if req.Capacity <= 0 {
		req.Capacity = cfg.NeuronsPerDimension * req.Dimension
	}
	if req.Mode != "" {
		mode, err := graph.ParseMode(req.Mode)
		if err != nil {
			return NetworkSummary{}, err
		}
		cfg.Mode = mode
	}

	var candidates []hrr.Vector
	if req.VocabularyID != "" {
		v, _, err := c.Vocabulary(ctx, req.VocabularyID)
		if err != nil {
			return NetworkSummary{}, err
		}
		if v.Dimension() != req.Dimension {
			return NetworkSummary{}, fmt.Errorf("%w: vocabulary has dimension %d, network %d",
				hrr.ErrDimensionMismatch, v.Dimension(), req.Dimension)
		}
		candidates = v.Vectors()
	}

	net, err := build(cfg, req, candidates)
	if err != nil {
		return NetworkSummary{}, err
	}

	rec := graph.Describe(net)
	rec.VersionedRecord = storage.CurrentVersion()
	rec.ID = uuid.NewString()
	rec.Kind = req.Kind
	rec.Dimension = req.Dimension
	rec.CreatedAt = c.now().UTC()
	if err := c.store.SaveNetwork(ctx, rec); err != nil {
		return NetworkSummary{}, err
	}
	cfg.Logger.V(1).Info("network compiled", "id", rec.ID, "kind", req.Kind, "nodes", len(rec.Nodes))

	return NetworkSummary{
		ID:        rec.ID,
		Name:      rec.Name,
		Kind:      rec.Kind,
		Dimension: rec.Dimension,
		Stats:     net.Stats(),
	}, nil
}

func build(cfg config.Config, req CompileRequest, candidates []hrr.Vector) (*graph.Network, error) {
	d := req.Dimension
	switch req.Kind {
	case KindEnsemble:
		return networks.BuildEnsemble(cfg, networks.EnsembleSpec{
			Name:       req.Name,
			Capacity:   req.Capacity,
			Transforms: []graph.Transform{graph.Identity(d, 1)},
		})
	case KindProduct:
		return networks.BuildProduct(cfg, networks.ProductSpec{
			Name:      req.Name,
			Capacity:  req.Capacity,
			Dimension: d,
		})
	case KindConvolution:
		return networks.BuildConvolution(cfg, req.Name, req.Capacity, d)
	case KindTransform:
		return networks.BuildTransform(cfg, req.Name, req.Capacity, d)
	case KindSimilarity:
		if len(candidates) == 0 {
			return nil, errors.New("similarity network needs a vocabulary")
		}
		return networks.BuildSimilarity(cfg, req.Name, req.Capacity, d, candidates)
	case KindAnalogy:
		return networks.BuildAnalogy(cfg, req.Name, req.Capacity, d, networks.AnalogySignals{}, candidates)
	default:
		return nil, fmt.Errorf("unsupported network kind: %s", req.Kind)
	}
}

func (c *Client) Network(ctx context.Context, id string) (model.NetworkRecord, error) {
	rec, ok, err := c.store.GetNetwork(ctx, id)
	if err != nil {
		return model.NetworkRecord{}, err
	}
	if !ok {
		return model.NetworkRecord{}, fmt.Errorf("%w: network %s", ErrNotFound, id)
	}
	return rec, nil
}

func (c *Client) Networks(ctx context.Context) ([]model.RecordSummary, error) {
	return c.store.ListNetworks(ctx)
}

func (c *Client) DeleteNetwork(ctx context.Context, id string) error {
	if _, err := c.Network(ctx, id); err != nil {
		return err
	}
	return c.store.DeleteNetwork(ctx, id)
}

type FeatureRequest struct {
	VocabularyID string
	First        string
	Second       string
	// Threshold defaults to vocab.CrowdingThreshold.
	Threshold float64
	// W1 and W2 weigh the two symbols; zero means 1.
	W1 float64
	W2 float64
}

type FeatureResult struct {
	// Same and Diff name the vocabulary words more than Threshold similar to
	// the common and distinguishing feature vectors.
	Same       []string
	Diff       []string
	SameVector hrr.Vector
	DiffVector hrr.Vector
}

// Features compares two symbols of a stored vocabulary: the words both
// share and the words that tell them apart.
func (c *Client) Features(ctx context.Context, req FeatureRequest) (FeatureResult, error) {
	if req.Threshold == 0 {
		req.Threshold = vocab.CrowdingThreshold
	}
	if req.W1 == 0 {
		req.W1 = 1
	}
	if req.W2 == 0 {
		req.W2 = 1
	}
	v, _, err := c.Vocabulary(ctx, req.VocabularyID)
	if err != nil {
		return FeatureResult{}, err
	}
	first, err := v.Lookup(req.First)
	if err != nil {
		return FeatureResult{}, err
	}
	second, err := v.Lookup(req.Second)
	if err != nil {
		return FeatureResult{}, err
	}

	words := v.Vectors()
	same := hrr.Same(first, second, words, req.Threshold, req.W1, req.W2)
	diff := hrr.Diff(first, second, words, req.Threshold, req.W1, req.W2)
	return FeatureResult{
		Same:       cleanup(v, same, req.Threshold),
		Diff:       cleanup(v, diff, req.Threshold),
		SameVector: same,
		DiffVector: diff,
	}, nil
}

// cleanup names the symbols more than threshold similar to x.
func cleanup(v *vocab.Vocabulary, x hrr.Vector, threshold float64) []string {
	var names []string
	for _, sym := range v.Symbols() {
		if hrr.Dot(x, sym.Vector) > threshold {
			names = append(names, sym.Name)
		}
	}
	return names
}

// CheckConvolution compiles an idealized convolution network and compares
// its output for two random unit vectors with direct binding.
func (c *Client) CheckConvolution(ctx context.Context, req CheckRequest) (CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return CheckResult{}, err
	}
	if req.Dimension <= 0 {
		req.Dimension = c.cfg.Dimension
	}
	cfg := c.cfg
	cfg.Mode = graph.Idealized
	cfg.ProbesEnabled = false
	if req.Split != nil {
		cfg.SplitDimensions = *req.Split
	}

	net, err := networks.BuildConvolution(cfg, "check", cfg.NeuronsPerDimension*req.Dimension, req.Dimension)
	if err != nil {
		return CheckResult{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	a := hrr.RandomUnit(rng, req.Dimension)
	b := hrr.RandomUnit(rng, req.Dimension)
	res, err := engine.Evaluate(net, map[string]hrr.Vector{"A": a, "B": b}, engine.Options{})
	if err != nil {
		return CheckResult{}, err
	}
	got, err := res.Output(graph.RawOutput)
	if err != nil {
		return CheckResult{}, err
	}

	want := hrr.Bind(a, b)
	maxErr := 0.0
	for i := range want {
		maxErr = math.Max(maxErr, math.Abs(got[i]-want[i]))
	}
	return CheckResult{
		Dimension: req.Dimension,
		Cosine:    hrr.Cosine(got, want),
		MaxError:  maxErr,
	}, nil
}
