package source

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/docsearch/core"
)

// ErrUnsupportedFormat is returned for files with no extractor.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type extractFunc func(path string) (string, error)

var extractors = map[string]extractFunc{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".pptx": extractPPTX,
	".txt":  readPlain,
	".md":   readPlain,
}

// Supported reports whether path has an extractor.
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract returns the text of doc's local file.
// Without a local path it returns doc.RawText.
func Extract(doc core.SourceDocument) (string, error) {
	if doc.LocalPath == "" {
		return doc.RawText, nil
	}
	fn, ok := extractors[strings.ToLower(filepath.Ext(doc.LocalPath))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(doc.LocalPath))
	}
	return fn(doc.LocalPath)
}

// Load resolves the text of every document. A document whose file is
// missing, unsupported or unreadable keeps its rawText.
func Load(ctx context.Context, docs []core.SourceDocument, logger *slog.Logger) ([]core.SourceDocument, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]core.SourceDocument, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = doc
		if doc.LocalPath == "" {
			continue
		}

		text, err := Extract(doc)
		switch {
		case err == nil:
			out[i].RawText = text
		case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, fs.ErrNotExist):
			logger.Debug("using raw text", "file_id", doc.FileID, "reason", err)
		default:
			logger.Warn("extraction failed, using raw text", "file_id", doc.FileID, "path", doc.LocalPath, "err", err)
		}
	}
	return out, nil
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractPDF reads the plain text layer. The parser panics on some
// malformed files, so panics become errors.
func extractPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf %s: malformed document: %v", filepath.Base(path), r)
		}
	}()

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDOCX joins the paragraphs of word/document.xml.
func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return xmlText(f)
		}
	}
	return "", fmt.Errorf("docx %s: missing word/document.xml", filepath.Base(path))
}

// extractPPTX joins the text of every slide in slide order.
func extractPPTX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		name, ok := strings.CutPrefix(f.Name, "ppt/slides/slide")
		if !ok || strings.Contains(name, "/") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{n: n, f: f})
	}
	slices.SortFunc(slides, func(a, b slide) int { return a.n - b.n })

	parts := make([]string, 0, len(slides))
	for _, s := range slides {
		text, err := xmlText(s.f)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// xmlText collects the character data of <t> runs, one line per <p>.
// Word and DrawingML both use these local names.
func xmlText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		out  strings.Builder
		line strings.Builder
		inT  bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inT = t.Name.Local == "t"
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "p":
				if s := strings.TrimSpace(line.String()); s != "" {
					out.WriteString(s)
					out.WriteByte('\n')
				}
				line.Reset()
			}
		case xml.CharData:
			if inT {
				line.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(line.String()); s != "" {
		out.WriteString(s)
	}
	return strings.TrimSpace(out.String()), nil
}
