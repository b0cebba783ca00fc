package core

import (
	"strings"
	"time"
)

// LabelSeparator joins folder and file name in a source label.
const LabelSeparator = " / "

// ChunkKind distinguishes body text from injected identity chunks.
type ChunkKind int

const (
	// ChunkKindText is a chunk of extracted document text.
	ChunkKindText ChunkKind = iota + 1
	// ChunkKindFileName is the identity chunk holding the file name.
	ChunkKindFileName
	// ChunkKindFolderName is the identity chunk holding the folder name.
	ChunkKindFolderName
)

// String returns the kind's name.
func (k ChunkKind) String() string {
	switch k {
	case ChunkKindText:
		return "text"
	case ChunkKindFileName:
		return "file"
	case ChunkKindFolderName:
		return "folder"
	default:
		return "unknown"
	}
}

// IsIdentity reports whether the chunk kind is a file or folder name.
func (k ChunkKind) IsIdentity() bool {
	return k == ChunkKindFileName || k == ChunkKindFolderName
}

// Chunk is the atomic retrieval unit. Immutable once created.
type Chunk struct {
	Text        string
	SourceLabel string // "folder / file" or just "file"
	FileID      string
	Sequence    int // position within its source document
	Kind        ChunkKind
}

// SourceDocument is one ingestion tuple handed over by the storage connector.
type SourceDocument struct {
	RawText     string `json:"rawText"`
	SourceLabel string `json:"sourceLabel"`
	FileID      string `json:"fileId"`
	LocalPath   string `json:"localPath,omitempty"`
}

// SplitLabel splits a source label into folder and file name at the first
// separator. Labels without a folder return an empty folder.
func SplitLabel(label string) (folder, file string) {
	label = strings.TrimSpace(label)
	folder, file, found := strings.Cut(label, LabelSeparator)
	if !found {
		return "", label
	}
	return strings.TrimSpace(folder), strings.TrimSpace(file)
}

// JoinLabel builds a source label from folder and file name.
func JoinLabel(folder, file string) string {
	if folder == "" {
		return file
	}
	return folder + LabelSeparator + file
}

// Snapshot is the persisted corpus: a vector matrix plus three index-aligned
// sequences. Position i in every collection describes the same chunk.
type Snapshot struct {
	Vectors      [][]float32
	SourceLabels []string
	FileIDs      []string
	Texts        []string
	Model        string
	Dimension    int
	BuiltAt      time.Time
}

// Len returns the number of chunks in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Vectors)
}

// DocumentCount returns the number of distinct file IDs in the snapshot.
func (s *Snapshot) DocumentCount() int {
	if s == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(s.FileIDs))
	for _, id := range s.FileIDs {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// Filters narrow the candidate pool after vector search.
type Filters struct {
	ExactMatchOnly  bool   // keep only chunks containing the query text
	FilenameKeyword string // keep only chunks whose label contains the keyword
}

// Query is a search request. Zero TopK and CandidatePool take engine defaults.
type Query struct {
	Text          string
	Identity      string
	TopK          int
	CandidatePool int
	Filters       Filters
}

// QueryResult is one ranked, access-checked result.
type QueryResult struct {
	SourceLabel string
	FileID      string
	Excerpt     string
	Distance    float32
	Position    int // chunk position in the snapshot
	Accessible  bool
}

// SearchResponse carries results plus any recoverable access error.
type SearchResponse struct {
	Query     string
	Results   []QueryResult
	AccessErr error
}

// Stats summarizes the live corpus.
type Stats struct {
	Documents int
	Chunks    int
	Dimension int
	Model     string
	BuiltAt   time.Time
}
