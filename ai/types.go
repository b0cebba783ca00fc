package ai

import "strings"

// DefaultEmbeddingModel is a small sentence-embedding model producing
// 384-dimensional vectors.
const DefaultEmbeddingModel = "all-minilm"

// knownDimensions lists output sizes of common embedding models.
var knownDimensions = map[string]int{
	"all-minilm":             384,
	"all-minilm-l6-v2":       384,
	"all-minilm:l6-v2":       384,
	"embeddinggemma":         768,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"bge-m3":                 1024,
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// KnownDimension returns the output size of a well-known model, or 0.
// Matching ignores case and a ":latest" tag.
func KnownDimension(model string) int {
	m := strings.ToLower(strings.TrimSpace(model))
	m = strings.TrimSuffix(m, ":latest")
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	return knownDimensions[m]
}
