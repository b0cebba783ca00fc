// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docsearch"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/source"
	"github.com/urfave/cli/v2"
)

const noResults = "No results. Try rewording or updating your filters."

// driveViewURL links a result to its Drive document.
const driveViewURL = "https://drive.google.com/file/d/%s/view"

// openSystem is replaced in tests to inject fakes.
var openSystem = func(ctx context.Context, cfg *docsearch.Config, opts ...docsearch.Option) (*docsearch.System, error) {
	return docsearch.Open(ctx, cfg, opts...)
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "docsearch",
		Usage:     "Permission-aware semantic search over organizational documents",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "docsearch.yaml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file with secrets",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the index snapshot (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides config)",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return loadEnv(c.String("env-file"))
		},
		Commands: []*cli.Command{
			{
				Name:   "refresh",
				Usage:  "Rebuild the index from a document manifest or directory",
				Action: refreshCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "manifest",
						Aliases: []string{"m"},
						Usage:   "JSON-lines manifest of documents",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory of documents to index",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report embedding progress on stderr",
						Value: true,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the index as a reader identity",
				ArgsUsage: "query...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "identity",
						Aliases:  []string{"i"},
						Usage:    "Email of the reader whose permissions apply",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results (0 uses config)",
					},
					&cli.IntFlag{
						Name:  "candidates",
						Usage: "Nearest chunks fetched before filtering (0 uses config)",
					},
					&cli.BoolFlag{
						Name:  "exact",
						Usage: "Keep only passages containing the query text",
					},
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Keep only documents whose name contains this keyword",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show what the index holds",
				Action: statsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed the stored index with the configured model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report embedding progress on stderr",
						Value: true,
					},
				},
			},
		},
	}
}

func refreshCommand(c *cli.Context) error {
	manifest, dir := c.String("manifest"), c.String("dir")
	if (manifest == "") == (dir == "") {
		return errors.New("exactly one of --manifest or --dir is required")
	}

	var (
		docs []core.SourceDocument
		err  error
	)
	if manifest != "" {
		docs, err = readManifestFile(manifest)
	} else {
		docs, err = source.WalkDir(dir)
	}
	if err != nil {
		return err
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	var opts []docsearch.Option
	if c.Bool("progress") {
		opts = append(opts, docsearch.WithProgress(c.App.ErrWriter))
	}
	sys, _, err := open(ctx, c, opts...)
	if err != nil {
		return err
	}
	defer sys.Close()

	summary, err := sys.Refresh(ctx, docs)
	if err != nil {
		return describe(err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Indexed %d documents (%d skipped) into %d chunks\n", summary.Documents, summary.Skipped, summary.Chunks)
	fmt.Fprintf(out, "Model: %s, dimension %d, took %s\n", summary.Model, summary.Dimension, summary.Elapsed.Round(time.Millisecond))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx, stop := signalContext(c.Context)
	defer stop()

	sys, cfg, err := open(ctx, c)
	if err != nil {
		return err
	}
	defer sys.Close()

	resp, err := sys.Search(ctx, core.Query{
		Text:          strings.Join(c.Args().Slice(), " "),
		Identity:      c.String("identity"),
		TopK:          c.Int("top-k"),
		CandidatePool: c.Int("candidates"),
		Filters: core.Filters{
			ExactMatchOnly:  c.Bool("exact"),
			FilenameKeyword: c.String("filename"),
		},
	})
	if err != nil {
		return describe(err)
	}

	printResults(c.App.Writer, resp, cfg.Access.Provider == docsearch.AccessProviderDrive)
	return nil
}

func statsCommand(c *cli.Context) error {
	sys, _, err := open(c.Context, c)
	if err != nil {
		return err
	}
	defer sys.Close()

	stats, err := sys.Stats()
	if err != nil {
		return describe(err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Documents indexed: %d\n", stats.Documents)
	fmt.Fprintf(out, "Chunks:            %d\n", stats.Chunks)
	fmt.Fprintf(out, "Dimension:         %d\n", stats.Dimension)
	fmt.Fprintf(out, "Model:             %s\n", stats.Model)
	fmt.Fprintf(out, "Built at:          %s\n", stats.BuiltAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx, stop := signalContext(c.Context)
	defer stop()

	var opts []docsearch.Option
	if c.Bool("progress") {
		opts = append(opts, docsearch.WithProgress(c.App.ErrWriter))
	}
	sys, _, err := open(ctx, c, opts...)
	if err != nil {
		return err
	}
	defer sys.Close()

	summary, err := sys.Reembed(ctx)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.App.Writer, "Re-embedded %d chunks with %s (dimension %d)\n",
		summary.Chunks, summary.Model, summary.Dimension)
	return nil
}

// printResults renders a search response. Results the reader may not open
// show only a placeholder naming the document.
func printResults(w io.Writer, resp *core.SearchResponse, links bool) {
	if resp.AccessErr != nil {
		fmt.Fprintf(w, "Warning: %s\n", core.Describe(resp.AccessErr))
	}
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, noResults)
		return
	}

	fmt.Fprintf(w, "Found %d results for %q\n\n", len(resp.Results), resp.Query)
	for i, r := range resp.Results {
		if !r.Accessible {
			fmt.Fprintf(w, "%d. No access to %s\n\n", i+1, r.SourceLabel)
			continue
		}
		fmt.Fprintf(w, "%d. %s [%.3f]\n", i+1, r.SourceLabel, r.Distance)
		fmt.Fprintf(w, "   %s...\n", r.Excerpt)
		if links {
			fmt.Fprintf(w, "   "+driveViewURL+"\n", r.FileID)
		}
		fmt.Fprintln(w)
	}
}

func open(ctx context.Context, c *cli.Context, opts ...docsearch.Option) (*docsearch.System, *docsearch.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	sys, err := openSystem(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}
	return sys, cfg, nil
}

// loadConfig applies, in order: config file, environment, command-line flags.
func loadConfig(c *cli.Context) (*docsearch.Config, error) {
	cfg, err := docsearch.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := c.String("embedding-host"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := c.String("embedding-model"); v != "" {
		cfg.Embedding.Model = v
	}
	return cfg, nil
}

func readManifestFile(path string) ([]core.SourceDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return source.ReadManifest(f)
}

// describe turns err into its user-facing form. The full error is logged.
func describe(err error) error {
	slog.Debug("command failed", "err", err)
	return errors.New(core.Describe(err).String())
}

// loadEnv loads path into the environment. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
