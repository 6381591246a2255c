package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"hrrnet/internal/hrr"
	"hrrnet/internal/model"
	"hrrnet/internal/vocab"
	api "hrrnet/pkg/hrrnet"
)

const listTimeFormat = "%Y-%m-%d %H:%M:%S"

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "vocab":
		return runVocab(ctx, args[1:])
	case "show-vocab":
		return runShowVocab(ctx, args[1:])
	case "compile":
		return runCompile(ctx, args[1:])
	case "show-network":
		return runShowNetwork(ctx, args[1:])
	case "rm-network":
		return runRemoveNetwork(ctx, args[1:])
	case "features":
		return runFeatures(ctx, args[1:])
	case "check":
		return runCheck(ctx, args[1:])
	case "vocabs":
		return runList(ctx, "vocabs", args[1:])
	case "networks":
		return runList(ctx, "networks", args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runVocab(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("vocab", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	words := fs.Int("words", 80, "catalog size: 80|50|20")
	outDir := fs.String("out", "", "directory receiving the vocabulary file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.client(ctx, fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.GenerateVocabulary(ctx, api.VocabularyRequest{Words: *words, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "vocabulary=%s catalog=%s symbols=%d dimension=%d seed=%d\n",
		summary.ID, summary.Catalog, summary.Symbols, summary.Dimension, summary.Seed)
	fmt.Fprintf(stdout, "threshold=%.2f relaxations=%d crowding=%.4f\n",
		summary.Threshold, summary.Relaxations, summary.Crowding)
	if summary.File != "" {
		fmt.Fprintf(stdout, "file=%s\n", summary.File)
	}
	return nil
}

func runShowVocab(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show-vocab", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	id := fs.String("id", "", "stored vocabulary id")
	file := fs.String("file", "", "vocabulary file to read instead of the store")
	limit := fs.Int("limit", 0, "number of symbols to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*id == "") == (*file == "") {
		return errors.New("exactly one of --id or --file is required")
	}

	var v *vocab.Vocabulary
	if *file != "" {
		loaded, err := vocab.LoadFile(*file)
		if err != nil {
			return err
		}
		v = loaded
	} else {
		client, err := common.client(ctx, fs)
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Close()
		}()
		loaded, rec, err := client.Vocabulary(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "vocabulary=%s catalog=%s seed=%d threshold=%.2f created=%s\n",
			rec.ID, rec.Catalog, rec.Seed, rec.Threshold, strftime.Format(listTimeFormat, rec.CreatedAt))
		v = loaded
	}

	for i, sym := range v.Symbols() {
		if *limit > 0 && i >= *limit {
			break
		}
		fmt.Fprintf(stdout, "%-12s |v|=%.4f %s\n", sym.Name, hrr.Length(sym.Vector), formatVector(sym.Vector, 6))
	}
	return nil
}

func runCompile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	kind := fs.String("kind", api.KindConvolution, "network kind: ensemble|product|convolution|transform|similarity|analogy")
	name := fs.String("name", "", "network name (defaults to kind)")
	capacity := fs.Int("capacity", 0, "neuron budget (0 = neurons-per-dim * dim)")
	mode := fs.String("mode", "", "execution mode override: simulated|idealized")
	vocabID := fs.String("vocab", "", "vocabulary id providing candidates")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.client(ctx, fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.CompileNetwork(ctx, api.CompileRequest{
		Kind:         *kind,
		Name:         *name,
		Dimension:    client.Config().Dimension,
		Capacity:     *capacity,
		Mode:         *mode,
		VocabularyID: *vocabID,
	})
	if err != nil {
		return err
	}
	s := summary.Stats
	fmt.Fprintf(stdout, "network=%s name=%s kind=%s dimension=%d\n", summary.ID, summary.Name, summary.Kind, summary.Dimension)
	fmt.Fprintf(stdout, "nodes=%s ensembles=%s relays=%s signals=%s connections=%s neurons=%s\n",
		humanize.Comma(int64(s.Nodes)), humanize.Comma(int64(s.Ensembles)), humanize.Comma(int64(s.Relays)),
		humanize.Comma(int64(s.Signals)), humanize.Comma(int64(s.Connections)), humanize.Comma(int64(s.Capacity)))
	return nil
}

func runShowNetwork(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show-network", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	id := fs.String("id", "", "stored network id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("show-network requires --id")
	}

	client, err := common.client(ctx, fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	rec, err := client.Network(ctx, *id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func runRemoveNetwork(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rm-network", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	id := fs.String("id", "", "stored network id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("rm-network requires --id")
	}

	client, err := common.client(ctx, fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.DeleteNetwork(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "removed network=%s\n", *id)
	return nil
}

func runFeatures(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("features", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	vocabID := fs.String("vocab", "", "stored vocabulary id")
	first := fs.String("first", "", "first symbol")
	second := fs.String("second", "", "second symbol")
	threshold := fs.Float64("feature-threshold", vocab.CrowdingThreshold, "similarity a word needs to count as a feature")
	w1 := fs.Float64("w1", 1, "weight of the first symbol")
	w2 := fs.Float64("w2", 1, "weight of the second symbol")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *vocabID == "" || *first == "" || *second == "" {
		return errors.New("features requires --vocab, --first and --second")
	}

	client, err := common.client(ctx, fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	res, err := client.Features(ctx, api.FeatureRequest{
		VocabularyID: *vocabID,
		First:        *first,
		Second:       *second,
		Threshold:    *threshold,
		W1:           *w1,
		W2:           *w2,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "same=%s\n", strings.Join(res.Same, ","))
	fmt.Fprintf(stdout, "diff=%s\n", strings.Join(res.Diff, ","))
	return nil
}

func runCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	seed := fs.Int64("check-seed", 1, "seed of the random operands")
	minCosine := fs.Float64("min-cosine", 0.999, "fail below this cosine")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.client(ctx, fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	split := client.Config().SplitDimensions
	res, err := client.CheckConvolution(ctx, api.CheckRequest{Dimension: client.Config().Dimension, Seed: *seed, Split: &split})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "dimension=%d split=%t cosine=%.9f max_error=%.3g\n", res.Dimension, split, res.Cosine, res.MaxError)
	if res.Cosine < *minCosine {
		return fmt.Errorf("convolution network cosine %.6f below %.6f", res.Cosine, *minCosine)
	}
	return nil
}

func runList(ctx context.Context, what string, args []string) error {
	fs := flag.NewFlagSet(what, flag.ContinueOnError)
	common := bindCommonFlags(fs)
	limit := fs.Int("limit", 20, "max records to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.client(ctx, fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var items []model.RecordSummary
	if what == "vocabs" {
		items, err = client.Vocabularies(ctx)
	} else {
		items, err = client.Networks(ctx)
	}
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(stdout, "no %s\n", what)
		return nil
	}
	if *limit > 0 && len(items) > *limit {
		items = items[len(items)-*limit:]
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "%s %s kind=%s name=%s dimension=%d size=%s\n",
			strftime.Format(listTimeFormat, item.CreatedAt), item.ID, item.Kind, item.Name, item.Dimension,
			humanize.Bytes(uint64(item.Size)))
	}
	return nil
}

func formatVector(v hrr.Vector, maxComponents int) string {
	parts := make([]string, 0, maxComponents+1)
	for i, x := range v {
		if i == maxComponents {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%+.4f", x))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: hrrctl <vocab|show-vocab|compile|show-network|rm-network|features|check|vocabs|networks> [flags]", msg)
}
