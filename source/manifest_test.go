package source

import (
	"bytes"
	"strings"
	"testing"

	"github.com/poiesic/docsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadManifest(t *testing.T) {
	input := `{"rawText":"Vacation days accrue monthly.","sourceLabel":"HR / Vacation Policy.pdf","fileId":"hr-1"}

{"rawText":"","sourceLabel":"IT / VPN Setup.pdf","fileId":"it-1","localPath":"/tmp/vpn.pdf","mimeType":"application/pdf"}
`
	docs, err := ReadManifest(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, core.SourceDocument{
		RawText:     "Vacation days accrue monthly.",
		SourceLabel: "HR / Vacation Policy.pdf",
		FileID:      "hr-1",
	}, docs[0])
	assert.Equal(t, "/tmp/vpn.pdf", docs[1].LocalPath)
	assert.Empty(t, docs[1].RawText)
}

func TestReadManifest_Malformed(t *testing.T) {
	input := "{\"fileId\":\"a\"}\n{not json}\n"
	_, err := ReadManifest(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadManifest_Empty(t *testing.T) {
	docs, err := ReadManifest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	docs := []core.SourceDocument{
		{RawText: "line one\nline two", SourceLabel: "A / b.txt", FileID: "1"},
		{SourceLabel: "C / d.pdf", FileID: "2", LocalPath: "/data/d.pdf"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, docs))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	got, err := ReadManifest(&buf)
	require.NoError(t, err)
	assert.Equal(t, docs, got)
}
