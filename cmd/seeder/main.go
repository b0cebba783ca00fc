// Command seeder writes a JSON-lines document manifest for local testing.
//
// Without -src it emits a small built-in corpus of policy documents. With
// -src every group of -per-doc lines of the file becomes one document.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/source"
)

type seedDoc struct {
	folder, file string
	lines        []string
}

var corpus = []seedDoc{
	{"HR", "Vacation Policy.pdf", []string{
		"Employees accrue vacation days monthly.",
		"Vacation days must be approved by a manager at least two weeks in advance.",
		"Unused vacation days roll over into the next year, up to ten days.",
	}},
	{"HR", "Parental Leave.docx", []string{
		"Parents receive sixteen weeks of paid leave.",
		"Leave can start up to two weeks before the expected birth date.",
	}},
	{"HR", "Expense Reimbursement.pdf", []string{
		"Submit receipts within thirty days of purchase.",
		"Meals during travel are reimbursed up to the daily limit.",
		"Expenses above five hundred dollars need director approval.",
	}},
	{"IT", "VPN Setup.pdf", []string{
		"Install the VPN client before travel.",
		"The VPN requires two factor authentication.",
		"Contact the help desk if the VPN disconnects repeatedly.",
	}},
	{"IT", "Password Rules.md", []string{
		"Passwords must have at least fourteen characters.",
		"Never reuse a password across services.",
		"Rotate shared service passwords every ninety days.",
	}},
	{"IT", "Laptop Returns.txt", []string{
		"Return laptops to the service desk on your last day.",
		"Data on returned laptops is wiped after thirty days.",
	}},
	{"Finance", "Quarterly Budget.pptx", []string{
		"The quarterly budget review happens in the first week of each quarter.",
		"Department heads present spending against plan.",
	}},
	{"Finance", "Purchase Orders.pdf", []string{
		"Purchase orders are required for vendors paid more than once.",
		"Finance approves purchase orders within three business days.",
	}},
}

var (
	seedFileName = flag.String("src", "", "file of seed data, one sentence per line")
	outFileName  = flag.String("out", "", "manifest to write (default stdout)")
	perDoc       = flag.Int("per-doc", 3, "lines per document when reading -src")
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], func() error, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}

	var scanErr error
	seq := func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
		scanErr = scanner.Err()
	}
	return seq, func() error { return scanErr }, nil
}

// groupLines turns every n lines into one document in the "Seed" folder.
func groupLines(lines iter.Seq[string], n int) []core.SourceDocument {
	if n < 1 {
		n = 1
	}
	var (
		docs  []core.SourceDocument
		batch []string
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		id := len(docs) + 1
		docs = append(docs, document(seedDoc{
			folder: "Seed",
			file:   fmt.Sprintf("seed-%04d.txt", id),
			lines:  batch,
		}, id))
		batch = nil
	}
	for line := range lines {
		batch = append(batch, line)
		if len(batch) == n {
			flush()
		}
	}
	// Process any remaining lines
	flush()
	return docs
}

func builtinDocs() []core.SourceDocument {
	docs := make([]core.SourceDocument, len(corpus))
	for i, d := range corpus {
		docs[i] = document(d, i+1)
	}
	return docs
}

func document(d seedDoc, id int) core.SourceDocument {
	return core.SourceDocument{
		RawText:     strings.Join(d.lines, "\n"),
		SourceLabel: core.JoinLabel(d.folder, d.file),
		FileID:      fmt.Sprintf("seed-%04d", id),
	}
}

func run(out io.Writer) error {
	docs := builtinDocs()
	if *seedFileName != "" {
		lines, scanErr, err := linesFromFile(*seedFileName)
		if err != nil {
			return err
		}
		docs = groupLines(lines, *perDoc)
		if err := scanErr(); err != nil {
			return err
		}
	}

	if err := source.WriteManifest(out, docs); err != nil {
		return err
	}
	slog.Info("wrote manifest", "documents", len(docs))
	return nil
}

func main() {
	flag.Parse()

	out := io.Writer(os.Stdout)
	if *outFileName != "" {
		f, err := os.Create(*outFileName)
		if err != nil {
			slog.Error("cannot create manifest", "err", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(out); err != nil {
		slog.Error("seeding failed", "err", err)
		os.Exit(1)
	}
}
