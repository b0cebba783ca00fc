// Package source turns fetched files into core.SourceDocument values.
//
// Documents arrive as a JSON-lines manifest, one object per line with the
// keys rawText, sourceLabel, fileId and an optional localPath. When
// localPath points at a supported file its text is extracted and replaces
// rawText; otherwise rawText is used as is. Supported formats are PDF,
// Word (.docx), PowerPoint (.pptx), plain text and Markdown.
//
// WalkDir builds the same documents from a local directory tree, which is
// convenient for development corpora.
package source
