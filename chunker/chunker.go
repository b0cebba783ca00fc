package chunker

import (
	"errors"
	"strings"

	"github.com/poiesic/docsearch/core"
)

// DefaultMaxWords is the default word limit per chunk.
const DefaultMaxWords = 200

const sentenceSeparator = ". "

// ErrInvalidMaxWords indicates a non-positive word limit.
var ErrInvalidMaxWords = errors.New("max words must be positive")

// Chunker turns source documents into ordered chunks. Safe for concurrent use.
type Chunker struct {
	maxWords int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMaxWords sets the word limit per chunk.
// Default is DefaultMaxWords.
func WithMaxWords(n int) Option {
	return func(c *Chunker) error {
		if n < 1 {
			return ErrInvalidMaxWords
		}
		c.maxWords = n
		return nil
	}
}

// New creates a Chunker.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{maxWords: DefaultMaxWords}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MaxWords returns the configured word limit.
func (c *Chunker) MaxWords() int {
	return c.maxWords
}

// Chunk splits doc into text chunks followed by its identity chunks.
// Blank text yields identity chunks only.
func (c *Chunker) Chunk(doc core.SourceDocument) []core.Chunk {
	texts := c.Split(doc.RawText)
	folder, file := core.SplitLabel(doc.SourceLabel)

	chunks := make([]core.Chunk, 0, len(texts)+2)
	add := func(text string, kind core.ChunkKind) {
		seq := len(chunks)
		chunks = append(chunks, core.Chunk{
			Text:        text,
			SourceLabel: doc.SourceLabel,
			FileID:      doc.FileID,
			Sequence:    seq,
			Kind:        kind,
		})
	}

	for _, text := range texts {
		add(text, core.ChunkKindText)
	}
	if file != "" {
		add(file, core.ChunkKindFileName)
	}
	if folder != "" {
		add(folder, core.ChunkKindFolderName)
	}
	return chunks
}

// Split returns the text chunks of text without identity chunks.
func (c *Chunker) Split(text string) []string {
	var (
		chunks  []string
		current []string
		words   int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, sentenceSeparator)+".")
		current = current[:0]
		words = 0
	}

	for _, sentence := range Sentences(text) {
		n := WordCount(sentence)
		if n > c.maxWords {
			flush()
			chunks = append(chunks, c.splitLong(sentence)...)
			continue
		}
		if words+n > c.maxWords {
			flush()
		}
		current = append(current, sentence)
		words += n
	}
	flush()

	return chunks
}

// splitLong breaks a single oversized sentence into word windows. Only the
// final window carries the sentence terminator.
func (c *Chunker) splitLong(sentence string) []string {
	fields := strings.Fields(sentence)
	pieces := make([]string, 0, len(fields)/c.maxWords+1)
	for start := 0; start < len(fields); start += c.maxWords {
		end := min(start+c.maxWords, len(fields))
		pieces = append(pieces, strings.Join(fields[start:end], " "))
	}
	pieces[len(pieces)-1] += "."
	return pieces
}

// Sentences splits text on ". " and normalizes each sentence by trimming
// surrounding whitespace and one trailing period. Blank sentences are dropped.
func Sentences(text string) []string {
	parts := strings.Split(text, sentenceSeparator)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		s := strings.TrimSpace(part)
		s = strings.TrimSpace(strings.TrimSuffix(s, "."))
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// WordCount returns the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
