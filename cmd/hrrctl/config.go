package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/mattn/go-isatty"

	"hrrnet/internal/config"
	api "hrrnet/pkg/hrrnet"
)

// commonFlags are accepted by every subcommand. Explicit flags override the
// configuration file, which overrides the defaults.
type commonFlags struct {
	storeKind  *string
	dbPath     *string
	configPath *string
	dimension  *int
	neurons    *int
	seed       *int64
	threshold  *float64
	split      *bool
	probes     *bool
	verbosity  *int
	logJSON    *bool
}

func bindCommonFlags(fs *flag.FlagSet) *commonFlags {
	defaults := config.Default()
	return &commonFlags{
		storeKind:  fs.String("store", "sqlite", "store backend: memory|sqlite"),
		dbPath:     fs.String("db-path", "hrrnet.db", "sqlite database path"),
		configPath: fs.String("config", "", "JSON configuration file"),
		dimension:  fs.Int("dim", defaults.Dimension, "vector dimension"),
		neurons:    fs.Int("neurons-per-dim", defaults.NeuronsPerDimension, "neurons per dimension"),
		seed:       fs.Int64("seed", defaults.VocabularySeed, "vocabulary seed"),
		threshold:  fs.Float64("threshold", defaults.VectorSimilarityThreshold, "vector similarity threshold"),
		split:      fs.Bool("split", defaults.SplitDimensions, "split ensembles into one population per dimension"),
		probes:     fs.Bool("probes", defaults.ProbesEnabled, "attach probes to convolution networks"),
		verbosity:  fs.Int("v", 0, "log verbosity"),
		logJSON:    fs.Bool("log-json", !isatty.IsTerminal(os.Stderr.Fd()), "log JSON lines to stderr"),
	}
}

// resolveConfig layers the configuration file and the flags set on fs over
// the defaults.
func (c *commonFlags) resolveConfig(fs *flag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if *c.configPath != "" {
		loaded, err := config.Load(*c.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config %s: %w", *c.configPath, err)
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dim":
			cfg.Dimension = *c.dimension
		case "neurons-per-dim":
			cfg.NeuronsPerDimension = *c.neurons
		case "seed":
			cfg.VocabularySeed = *c.seed
		case "threshold":
			cfg.VectorSimilarityThreshold = *c.threshold
		case "split":
			cfg.SplitDimensions = *c.split
		case "probes":
			cfg.ProbesEnabled = *c.probes
		}
	})
	cfg = cfg.WithLogger(newLogger(*c.verbosity, *c.logJSON))
	return cfg, cfg.Validate()
}

func (c *commonFlags) client(ctx context.Context, fs *flag.FlagSet) (*api.Client, error) {
	cfg, err := c.resolveConfig(fs)
	if err != nil {
		return nil, err
	}
	client, err := api.New(api.Options{StoreKind: *c.storeKind, DBPath: *c.dbPath, Config: &cfg})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func newLogger(verbosity int, asJSON bool) logr.Logger {
	opts := funcr.Options{Verbosity: verbosity, LogTimestamp: true}
	if asJSON {
		return funcr.NewJSON(func(obj string) {
			fmt.Fprintln(os.Stderr, obj)
		}, opts)
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintln(os.Stderr, prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, opts)
}
