// Command mnist-forward loads an MNIST batch, shows one sample, builds the
// 784→128→64→10 classifier, optionally re-initializes one layer and prints the
// class probabilities of the shown sample.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/born-ml/feedforward/internal/backend/cpu"
	"github.com/born-ml/feedforward/internal/config"
	"github.com/born-ml/feedforward/internal/dataset"
	"github.com/born-ml/feedforward/internal/model"
	"github.com/born-ml/feedforward/internal/viz"
	"github.com/pkg/errors"
)

const version = "v0.1.0"

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	dataDir := flag.String("data", "", "Directory with MNIST IDX files (empty uses synthetic digits)")
	csvPath := flag.String("csv", "", "MNIST CSV file instead of IDX")
	batchSize := flag.Int("batch-size", 64, "Batch size")
	seed := flag.Uint64("seed", 42, "Shuffle and initialization seed")
	reinitLayer := flag.Int("reinit-layer", 1, "Layer to overwrite with N(0, 0.01) weights and zero bias (0 = none)")
	pngPath := flag.String("png", "", "Also write the displayed sample to this PNG file")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mnist-forward %s\n", version)
		return
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fatal(err)
		}
	}

	// Only flags given on the command line override the file.
	var o config.Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			o.DataDir = dataDir
		case "csv":
			o.CSVPath = csvPath
		case "batch-size":
			o.BatchSize = batchSize
		case "seed":
			o.Seed = seed
		case "reinit-layer":
			o.ReinitLayer = reinitLayer
		case "png":
			o.PNGPath = pngPath
		case "log-level":
			o.LogLevel = logLevel
		}
	})
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		fatal(errors.Wrap(err, "invalid config"))
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, os.Stdout, logger); err != nil {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "mnist-forward: %v\n", err)
	os.Exit(1)
}

// run executes the walkthrough: data, sample display, model, optional
// re-initialization, forward pass and probability display.
func run(cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	ds, source, err := loadDataset(cfg)
	if err != nil {
		return errors.Wrap(err, "load dataset")
	}
	ds = ds.Head(cfg.MaxSamples)
	logger.Info("dataset loaded", "source", source, "samples", ds.Len(), "rows", ds.Rows(), "cols", ds.Cols())
	logger.Debug("class balance", "counts", dataset.LabelCounts(ds))

	backend := cpu.New()
	logger.Debug("backend", "name", backend.Name(), "info", backend.Info())

	norm := normalization(cfg, ds)
	logger.Info("normalization", "mode", cfg.Normalize, "mean", norm.Mean, "std", norm.Std)
	loader, err := dataset.NewLoader(ds, backend, dataset.LoaderOptions{
		BatchSize:     cfg.BatchSize,
		Shuffle:       cfg.Shuffle,
		Seed:          cfg.Seed,
		Normalization: &norm,
	})
	if err != nil {
		return errors.Wrap(err, "create loader")
	}
	batch, ok := loader.Next()
	if !ok {
		return errors.New("loader produced no batch")
	}
	logger.Info("batch ready", "size", batch.Size, "batches_per_epoch", loader.NumBatches(), "shape", batch.Images.Shape())

	sample := ds.At(batch.Indices[0])
	fmt.Fprintf(out, "sample %d, label %d\n", batch.Indices[0], sample.Label)
	if err := viz.RenderImage(out, sample.Pixels, ds.Rows(), ds.Cols()); err != nil {
		return err
	}
	if cfg.PNGPath != "" {
		if err := viz.WritePNG(cfg.PNGPath, sample.Pixels, ds.Rows(), ds.Cols()); err != nil {
			return err
		}
		logger.Info("sample written", "path", cfg.PNGPath)
	}

	net := model.New(backend, model.WithSeed(cfg.Seed))
	logger.Info("model built", "parameters", net.NumParameters())

	if cfg.ReinitLayer > 0 {
		name := fmt.Sprintf("fc%d", cfg.ReinitLayer)
		ri := model.SmallNormal(cfg.Seed)
		ri.WeightStd = cfg.ReinitStd
		if err := net.Reinit(name, ri); err != nil {
			return errors.Wrap(err, "reinit")
		}
		logger.Info("layer re-initialized", "layer", name, "weight_std", ri.WeightStd, "bias", ri.Bias)
	}

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		trace, err := net.Trace(batch.Images)
		if err != nil {
			return err
		}
		for i, pre := range trace.PreActivations {
			logger.Debug("pre-activation", "layer", fmt.Sprintf("fc%d", i+1), "shape", pre.Shape())
		}
	}

	probs, err := net.Predict(batch.Images)
	if err != nil {
		return errors.Wrap(err, "predict")
	}

	fmt.Fprintln(out)
	return viz.RenderProbabilities(out, probs.Row(0), int(sample.Label))
}

func loadDataset(cfg *config.Config) (*dataset.InMemory, string, error) {
	switch {
	case cfg.CSVPath != "":
		ds, err := dataset.LoadCSV(cfg.CSVPath, cfg.MaxSamples)
		return ds, cfg.CSVPath, err
	case cfg.DataDir != "":
		ds, err := dataset.LoadIDX(cfg.DataDir, dataset.Split(cfg.Split))
		return ds, cfg.DataDir, err
	default:
		n := cfg.MaxSamples
		if n == 0 {
			n = 1000
		}
		ds, err := dataset.Synthetic(n, cfg.Seed)
		return ds, "synthetic", err
	}
}

func normalization(cfg *config.Config, ds dataset.Dataset) dataset.Normalization {
	switch cfg.Normalize {
	case config.NormalizeAuto:
		return dataset.ComputeStats(ds)
	case config.NormalizeMNIST:
		return dataset.MNISTNormalization
	default:
		return dataset.Normalization{Mean: cfg.NormalizeMean, Std: cfg.NormalizeStd}
	}
}
