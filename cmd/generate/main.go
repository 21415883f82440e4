// Command generate renders every document listed in a batch manifest.
//
//	generate -manifest batch.yaml [-env .env] [-json]
//
// Output paths are printed one per line in manifest order. When any item
// fails, every failure is reported on stderr and the exit status is 1.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"docgen"
	"docgen/internal/batch"
	"docgen/internal/generate"
	"docgen/internal/render"
	"docgen/internal/source"
	"docgen/pkg"
)

type itemReport struct {
	Index      int    `json:"index"`
	Template   string `json:"template"`
	OutputPath string `json:"outputPath,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
}

func main() {
	manifestPath := flag.String("manifest", "", "batch manifest (.yaml, .yml or .json)")
	envFile := flag.String("env", ".env", "env file to load (optional)")
	workers := flag.Int("workers", 0, "maximum parallel renders (default MAX_WORKERS or GOMAXPROCS)")
	asJSON := flag.Bool("json", false, "print a JSON report instead of plain paths")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "missing -manifest")
		flag.Usage()
		os.Exit(2)
	}

	cfg := docgen.LoadEnv(*envFile)
	if *workers > 0 {
		cfg.MaxWorkers = *workers
	}

	manifest, err := LoadManifest(*manifestPath)
	if err != nil {
		docgen.Logger.Fatal().Err(err).Str("manifest", *manifestPath).Msg("Cannot load manifest")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderer := render.NewOffice(cfg.SofficePath, render.WithFontDir(cfg.FontDir))
	pipeline := generate.New(source.NewDir(cfg.TemplateDir), renderer, cfg.OutputDir)
	coordinator := batch.New(pipeline, batch.WithMaxWorkers(cfg.MaxWorkers))

	requests := manifest.GenerateRequests()
	results, err := coordinator.Run(ctx, requests)
	os.Exit(report(os.Stdout, os.Stderr, requests, results, err, *asJSON))
}

// report prints the outcome of a batch and returns the exit status.
func report(stdout, stderr io.Writer, requests []generate.Request, results []generate.Result, err error, asJSON bool) int {
	batchErr, partial := batch.AsBatchError(err)
	if err != nil && !partial {
		fmt.Fprintf(stderr, "batch failed: %v\n", err)
		return 1
	}

	if asJSON {
		items := make([]itemReport, len(requests))
		for i, req := range requests {
			items[i] = itemReport{Index: i, Template: req.TemplateName}
			if i < len(results) {
				items[i].OutputPath = results[i].OutputPath
			}
		}
		if partial {
			for _, f := range batchErr.Failures {
				items[f.Index].Kind = f.Kind.String()
				items[f.Index].Error = f.Err.Error()
			}
		}
		if perr := pkg.PrettyPrint(stdout, items); perr != nil {
			fmt.Fprintf(stderr, "failed to print report: %v\n", perr)
			return 1
		}
	} else {
		for _, res := range results {
			if res.OutputPath != "" {
				fmt.Fprintln(stdout, res.OutputPath)
			}
		}
	}

	if !partial {
		return 0
	}
	fmt.Fprintf(stderr, "%d of %d documents failed:\n", len(batchErr.Failures), batchErr.Total)
	for _, f := range batchErr.Failures {
		fmt.Fprintf(stderr, "  #%d %s -> %s: %s: %v\n", f.Index, f.Request.TemplateName, f.Request.OutputName, f.Kind, f.Err)
	}
	return 1
}
