package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mnohosten/paperfind/pkg/barrel"
	"github.com/mnohosten/paperfind/pkg/compression"
	"github.com/mnohosten/paperfind/pkg/engine"
)

func main() {
	corpusPath := flag.String("corpus", "", "Path to the cleaned corpus CSV (required)")
	dataDir := flag.String("data-dir", "./data", "Output directory for the built indexes")
	barrelSize := flag.Int("barrel-size", barrel.DefaultTargetSize, "Target barrel size in bytes")
	compressionAlgo := flag.String("compression", "snappy", "Container compression: none, snappy, zstd, gzip")
	flag.Parse()

	if *corpusPath == "" {
		fmt.Fprintln(os.Stderr, "usage: indexer -corpus <corpus.csv> [-data-dir <dir>]")
		os.Exit(2)
	}

	algo, err := compression.ParseAlgorithm(*compressionAlgo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := engine.DefaultConfig(*dataDir, *corpusPath)
	cfg.BarrelTargetSize = *barrelSize
	cfg.Compression = algo
	cfg.Logger = logger

	eng, err := engine.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "index build failed: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	stats := eng.Stats()
	fmt.Printf("indexed %d documents, %d terms, %d barrels\n",
		stats.Documents, stats.Terms, stats.Barrels)
	fmt.Printf("average document length: %.1f tokens\n", stats.AvgDocLength)
}
