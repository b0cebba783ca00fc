package chunker

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/poiesic/docsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxWords, c.MaxWords())
	})

	t.Run("custom limit", func(t *testing.T) {
		c, err := New(WithMaxWords(12))
		require.NoError(t, err)
		assert.Equal(t, 12, c.MaxWords())
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := New(WithMaxWords(0))
		assert.ErrorIs(t, err, ErrInvalidMaxWords)
	})
}

func TestSplit_Greedy(t *testing.T) {
	c, err := New(WithMaxWords(5))
	require.NoError(t, err)

	got := c.Split("a b c. d e. f g h. i")
	assert.Equal(t, []string{"a b c. d e.", "f g h. i."}, got)
}

func TestSplit_LastChunkAlwaysEmitted(t *testing.T) {
	c, err := New(WithMaxWords(100))
	require.NoError(t, err)

	got := c.Split("Only one short sentence")
	assert.Equal(t, []string{"Only one short sentence."}, got)
}

func TestSplit_BlankText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t", ". . "} {
		assert.Empty(t, c.Split(text), "text %q", text)
	}
}

func TestSplit_OversizedSentence(t *testing.T) {
	c, err := New(WithMaxWords(3))
	require.NoError(t, err)

	got := c.Split("one two. three four five six seven. eight")
	assert.Equal(t, []string{"one two.", "three four five", "six seven.", "eight."}, got)
	for _, chunk := range got {
		assert.LessOrEqual(t, WordCount(chunk), 3)
	}
}

// words returns the words of text with sentence periods dropped.
func words(text string) []string {
	return strings.Fields(strings.ReplaceAll(text, ".", " "))
}

func TestSplit_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	vocab := []string{"policy", "vacation", "days", "employee", "request", "approval", "manager", "network", "vpn", "setup"}

	for trial := range 40 {
		limit := 1 + rng.IntN(40)
		// Every third trial allows sentences up to three times the limit.
		maxLen := limit
		if trial%3 == 0 {
			maxLen = 3 * limit
		}

		var sentences []string
		oversized := false
		for range 1 + rng.IntN(60) {
			ws := make([]string, 1+rng.IntN(maxLen))
			for i := range ws {
				ws[i] = vocab[rng.IntN(len(vocab))]
			}
			oversized = oversized || len(ws) > limit
			sentences = append(sentences, strings.Join(ws, " "))
		}
		text := strings.Join(sentences, ". ") + "."

		t.Run(fmt.Sprintf("trial %d limit %d", trial, limit), func(t *testing.T) {
			c, err := New(WithMaxWords(limit))
			require.NoError(t, err)

			chunks := c.Split(text)
			require.NotEmpty(t, chunks)

			var rebuiltWords, rebuiltSentences []string
			for _, chunk := range chunks {
				assert.LessOrEqual(t, WordCount(chunk), limit)
				assert.NotEmpty(t, strings.TrimSpace(chunk))
				rebuiltWords = append(rebuiltWords, words(chunk)...)
				rebuiltSentences = append(rebuiltSentences, Sentences(chunk)...)
			}
			assert.Equal(t, words(text), rebuiltWords)

			// Oversized sentences come back as word windows, so sentence
			// boundaries only survive when none was split.
			if !oversized {
				assert.Equal(t, Sentences(text), rebuiltSentences)
			}
		})
	}
}

func TestChunk_IdentityChunks(t *testing.T) {
	c, err := New(WithMaxWords(4))
	require.NoError(t, err)

	doc := core.SourceDocument{
		RawText:     "Employees get twenty days. Requests need manager approval.",
		SourceLabel: "HR / Vacation Policy.pdf",
		FileID:      "file-hr",
	}

	chunks := c.Chunk(doc)
	require.Len(t, chunks, 4)

	assert.Equal(t, "Employees get twenty days.", chunks[0].Text)
	assert.Equal(t, "Requests need manager approval.", chunks[1].Text)
	assert.Equal(t, "Vacation Policy.pdf", chunks[2].Text)
	assert.Equal(t, core.ChunkKindFileName, chunks[2].Kind)
	assert.Equal(t, "HR", chunks[3].Text)
	assert.Equal(t, core.ChunkKindFolderName, chunks[3].Kind)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Sequence)
		assert.Equal(t, "file-hr", ch.FileID)
		assert.Equal(t, "HR / Vacation Policy.pdf", ch.SourceLabel)
	}
}

func TestChunk_EmptyText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	t.Run("with folder", func(t *testing.T) {
		chunks := c.Chunk(core.SourceDocument{RawText: "  ", SourceLabel: "IT / VPN Setup.pdf", FileID: "f"})
		require.Len(t, chunks, 2)
		assert.Equal(t, "VPN Setup.pdf", chunks[0].Text)
		assert.Equal(t, "IT", chunks[1].Text)
	})

	t.Run("without folder", func(t *testing.T) {
		chunks := c.Chunk(core.SourceDocument{SourceLabel: "readme.md", FileID: "f"})
		require.Len(t, chunks, 1)
		assert.Equal(t, "readme.md", chunks[0].Text)
		assert.True(t, chunks[0].Kind.IsIdentity())
	})
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "simple", text: "One. Two. Three.", want: []string{"One", "Two", "Three"}},
		{name: "no trailing period", text: "One. Two", want: []string{"One", "Two"}},
		{name: "period without space stays", text: "v1.2 is out. Update", want: []string{"v1.2 is out", "Update"}},
		{name: "blank", text: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.text))
		})
	}
}
