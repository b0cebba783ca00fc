package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/poiesic/docsearch/core"
)

// maxLineSize bounds one manifest line; rawText can be a whole document.
const maxLineSize = 64 << 20

// ReadManifest decodes a JSON-lines manifest. Blank lines are ignored.
// Unknown keys are ignored; a malformed line fails the whole read.
func ReadManifest(r io.Reader) ([]core.SourceDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs []core.SourceDocument
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var doc core.SourceDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("manifest line %d: %w", line+1, err)
	}
	return docs, nil
}

// WriteManifest encodes docs as JSON lines.
func WriteManifest(w io.Writer, docs []core.SourceDocument) error {
	enc := json.NewEncoder(w)
	for i := range docs {
		if err := enc.Encode(&docs[i]); err != nil {
			return fmt.Errorf("manifest entry %d: %w", i, err)
		}
	}
	return nil
}
