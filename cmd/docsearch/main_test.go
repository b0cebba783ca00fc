package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docsearch"
	accessmock "github.com/poiesic/docsearch/access/mock"
	"github.com/poiesic/docsearch/ai/mock"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var testDocs = []core.SourceDocument{
	{
		RawText:     "Employees accrue vacation days monthly. Vacation days must be approved by a manager.",
		SourceLabel: "HR / Vacation Policy.pdf",
		FileID:      "hr-1",
	},
	{
		RawText:     "Install the VPN client before travel. The VPN requires two factor authentication.",
		SourceLabel: "IT / VPN Setup.pdf",
		FileID:      "it-1",
	},
}

// useFakes makes every command open the system with a mock embedder and
// the given grants.
func useFakes(t *testing.T, grants *accessmock.Provider) {
	t.Helper()
	orig := openSystem
	openSystem = func(ctx context.Context, cfg *docsearch.Config, opts ...docsearch.Option) (*docsearch.System, error) {
		opts = append(opts,
			docsearch.WithAIProvider(mock.NewMockProvider()),
			docsearch.WithAccessProvider(grants))
		return docsearch.Open(ctx, cfg, opts...)
	}
	t.Cleanup(func() { openSystem = orig })
}

// run executes the CLI against dataDir and returns its stdout.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	base := []string{"docsearch",
		"--config", filepath.Join(dataDir, "missing.yaml"),
		"--env-file", "",
		"--data-dir", dataDir,
	}
	err := newApp(&stdout, &stderr).Run(append(base, args...))
	return stdout.String(), err
}

func writeManifest(t *testing.T, docs []core.SourceDocument) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, source.WriteManifest(f, docs))
	return path
}

func TestRefreshCommand(t *testing.T) {
	useFakes(t, accessmock.NewProvider())

	t.Run("manifest", func(t *testing.T) {
		dataDir := t.TempDir()
		out, err := run(t, dataDir, "refresh", "--progress=false", "--manifest", writeManifest(t, testDocs))
		require.NoError(t, err)
		assert.Contains(t, out, "Indexed 2 documents (0 skipped)")
		assert.Contains(t, out, mock.MockModel)
	})

	t.Run("directory", func(t *testing.T) {
		docs := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(docs, "HR"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(docs, "HR", "policy.txt"),
			[]byte("Vacation days must be approved by a manager."), 0644))

		out, err := run(t, t.TempDir(), "refresh", "--progress=false", "--dir", docs)
		require.NoError(t, err)
		assert.Contains(t, out, "Indexed 1 documents")
	})

	t.Run("needs exactly one source", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "refresh")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one of --manifest or --dir")

		_, err = run(t, t.TempDir(), "refresh", "--manifest", "a.jsonl", "--dir", "docs")
		require.Error(t, err)
	})

	t.Run("empty manifest keeps nothing and reports index category", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "refresh", "--progress=false", "--manifest", writeManifest(t, nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), core.CategoryIndex)
	})
}

func TestSearchCommand(t *testing.T) {
	grants := accessmock.NewProvider()
	grants.Grant("ana@example.com", "hr-1")
	useFakes(t, grants)

	dataDir := t.TempDir()
	_, err := run(t, dataDir, "refresh", "--progress=false", "--manifest", writeManifest(t, testDocs))
	require.NoError(t, err)

	t.Run("accessible result shows excerpt", func(t *testing.T) {
		out, err := run(t, dataDir, "search", "--identity", "ana@example.com", "--top-k", "1", "vacation", "days")
		require.NoError(t, err)
		assert.Contains(t, out, `for "vacation days"`)
		assert.Contains(t, out, "1. HR / Vacation Policy.pdf")
		assert.Contains(t, out, "Vacation days must be approved")
	})

	t.Run("unreadable result shows placeholder", func(t *testing.T) {
		out, err := run(t, dataDir, "search", "--identity", "ana@example.com", "--top-k", "1", "vpn client")
		require.NoError(t, err)
		assert.Contains(t, out, "No access to IT / VPN Setup.pdf")
		assert.NotContains(t, out, "two factor")
	})

	t.Run("filters leave nothing", func(t *testing.T) {
		out, err := run(t, dataDir, "search", "--identity", "ana@example.com", "--exact", "quarterly budget")
		require.NoError(t, err)
		assert.Contains(t, out, noResults)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := run(t, dataDir, "search", "--identity", "ana@example.com")
		require.Error(t, err)
		assert.Equal(t, "invalid query: Enter a search query.", err.Error())
	})

	t.Run("identity is required", func(t *testing.T) {
		_, err := run(t, dataDir, "search", "vpn")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "identity")
	})
}

func TestStatsCommand(t *testing.T) {
	useFakes(t, accessmock.NewProvider())
	dataDir := t.TempDir()

	_, err := run(t, dataDir, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), core.CategoryNotInitialized)

	_, err = run(t, dataDir, "refresh", "--progress=false", "--manifest", writeManifest(t, testDocs))
	require.NoError(t, err)

	out, err := run(t, dataDir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents indexed: 2")
	assert.Contains(t, out, "Model:             "+mock.MockModel)
}

func TestReembedCommand(t *testing.T) {
	useFakes(t, accessmock.NewProvider())
	dataDir := t.TempDir()

	_, err := run(t, dataDir, "reembed", "--progress=false")
	require.Error(t, err)

	_, err = run(t, dataDir, "refresh", "--progress=false", "--manifest", writeManifest(t, testDocs))
	require.NoError(t, err)

	out, err := run(t, dataDir, "reembed", "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Re-embedded")
	assert.Contains(t, out, mock.MockModel)
}

func TestPrintResults(t *testing.T) {
	t.Run("access warning and link", func(t *testing.T) {
		var buf bytes.Buffer
		printResults(&buf, &core.SearchResponse{
			Query: "vpn",
			Results: []core.QueryResult{
				{SourceLabel: "IT / VPN Setup.pdf", FileID: "it-1", Excerpt: "Install the VPN", Accessible: true},
				{SourceLabel: "HR / Salaries.xlsx", FileID: "hr-9"},
			},
			AccessErr: core.Fail("access", core.ErrAccessCheckTimeout, "Permission check timed out; results are shown without access.", errors.New("deadline")),
		}, true)

		out := buf.String()
		assert.Contains(t, out, "Warning: access check: Permission check timed out")
		assert.Contains(t, out, "https://drive.google.com/file/d/it-1/view")
		assert.Contains(t, out, "2. No access to HR / Salaries.xlsx")
		assert.NotContains(t, out, "hr-9")
	})

	t.Run("no results", func(t *testing.T) {
		var buf bytes.Buffer
		printResults(&buf, &core.SearchResponse{Query: "x"}, false)
		assert.Equal(t, noResults+"\n", buf.String())
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("variables are loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("DOCSEARCH_TEST_TOKEN=abc\n"), 0644))
		t.Cleanup(func() { os.Unsetenv("DOCSEARCH_TEST_TOKEN") })

		require.NoError(t, loadEnv(path))
		assert.Equal(t, "abc", os.Getenv("DOCSEARCH_TEST_TOKEN"))
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						assert.True(t, slog.Default().Enabled(context.Background(), tc.expected))
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "--log-level", "invalid", "stats")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newApp(&bytes.Buffer{}, &bytes.Buffer{})
		var flag *cli.StringFlag
		for _, f := range app.Flags {
			if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "log-level" {
				flag = sf
			}
		}
		require.NotNil(t, flag)
		assert.Equal(t, []string{"l"}, flag.Aliases)
		assert.Equal(t, "info", flag.Value)
	})
}
