// Command optimize runs the Greedy Allocator end to end: load a scenario
// fixture and engine config, build the Distance Fabric, bind the WalkScore
// Evaluator, and run the allocator to completion, writing the resulting
// Solution as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"walkability/internal/allocator"
	"walkability/internal/config"
	"walkability/internal/fabric"
	"walkability/internal/graph"
	"walkability/internal/ingestio"
	"walkability/internal/model"
	"walkability/internal/progress"
	"walkability/internal/resultio"
	"walkability/internal/walkscore"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Path to scenario JSON fixture")
	configPath := flag.String("config", "", "Path to engine config YAML")
	outputPath := flag.String("output", "", "Path to write the resulting solution JSON (default: stdout)")
	verbose := flag.Bool("verbose", false, "Enable debug-level logging")
	flag.Parse()

	if *scenarioPath == "" || *configPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: optimize --scenario <scenario.json> --config <config.yaml> [--output solution.json] [--verbose]")
		os.Exit(1)
	}

	log := newLogger(*verbose)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, *scenarioPath, *configPath, *outputPath); err != nil {
		log.Fatalw("optimize failed", "error", err)
	}
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

func run(ctx context.Context, log *zap.SugaredLogger, scenarioPath, configPath, outputPath string) error {
	start := time.Now()

	log.Infow("loading scenario", "path", scenarioPath)
	scenario, err := ingestio.Load(scenarioPath)
	if err != nil {
		return err
	}

	log.Infow("loading config", "path", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	nodes, edges, buildings, amenities, candidates, _ := scenario.ToModel()
	log.Infow("scenario loaded",
		"nodes", len(nodes), "edges", len(edges), "buildings", len(buildings),
		"amenities", len(amenities), "candidates", len(candidates))

	log.Infow("building graph")
	g, err := graph.Build(nodes, edges)
	if err != nil {
		return err
	}
	log.Infow("graph built", "nodes", g.NumNodes, "edges", g.NumEdges)

	residents := residentIndices(g, buildings)
	sinks := sinkIndices(g, candidates, amenities)

	log.Infow("building distance fabric", "residents", len(residents), "sinks", len(sinks))
	sink := progress.ZapSink{Log: log}
	fab, err := fabric.Build(g, residents, sinks, fabric.BuildOptions{
		DInfinity:   cfg.Optimization.DInfinityM,
		Parallelism: cfg.Optimization.Parallelism,
		Logger:      log,
		Progress:    sink,
	})
	if err != nil {
		return err
	}

	weightings := cfg.Weightings()
	table, err := walkscore.NewWeightingTable(weightings)
	if err != nil {
		return err
	}
	pwl, err := walkscore.NewPWL(cfg.Scoring.Breakpoints, cfg.Scoring.Values)
	if err != nil {
		return err
	}
	existing := ingestio.ExistingByCategory(amenities)
	eval := walkscore.NewEvaluator(fab, table, pwl, existing)

	alloc, err := allocator.New(fab, eval, buildings, candidates, allocator.Options{
		K:                     cfg.Optimization.K,
		Categories:            cfg.ActiveCategories(),
		NeighborhoodRadiusM:   cfg.Optimization.NeighborhoodRadiusM,
		DeterministicTiebreak: cfg.Optimization.DeterministicTiebreak,
		Parallelism:           cfg.Optimization.Parallelism,
		Logger:                log,
		Progress:              sink,
	})
	if err != nil {
		return err
	}

	log.Infow("running allocator", "k", cfg.Optimization.K, "categories", cfg.Optimization.Categories)
	result, err := alloc.Optimize(ctx)
	if err != nil {
		return err
	}
	log.Infow("allocator done", "iterations", len(result.Trace), "final_average", result.FinalAverage, "elapsed", time.Since(start))

	solution := resultio.FromResult(result)

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return resultio.WriteJSON(out, solution)
}

func residentIndices(g *graph.Graph, buildings []model.Building) []uint32 {
	seen := make(map[uint32]struct{}, len(buildings))
	var out []uint32
	for _, b := range buildings {
		idx, ok := g.Index(b.Node)
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

func sinkIndices(g *graph.Graph, candidates []model.Candidate, amenities []model.Amenity) []uint32 {
	seen := make(map[uint32]struct{}, len(candidates)+len(amenities))
	var out []uint32
	add := func(id model.NodeID) {
		idx, ok := g.Index(id)
		if !ok {
			return
		}
		if _, dup := seen[idx]; dup {
			return
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	for _, c := range candidates {
		add(c.Node)
	}
	for _, a := range amenities {
		add(a.Node)
	}
	return out
}
