package source

import (
	"io/fs"
	"path/filepath"

	"github.com/poiesic/docsearch/core"
)

// WalkDir returns a document for every supported file under root.
// The label is "<parent directory> / <file name>" and the file ID is the
// slash-separated path relative to root. Text is left for Load to extract.
func WalkDir(root string) ([]core.SourceDocument, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var docs []core.SourceDocument
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !Supported(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		docs = append(docs, core.SourceDocument{
			SourceLabel: core.JoinLabel(filepath.Base(filepath.Dir(path)), d.Name()),
			FileID:      filepath.ToSlash(rel),
			LocalPath:   path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
