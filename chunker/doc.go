// Package chunker splits extracted document text into bounded retrieval units.
//
// Text is split into sentences on ". " and sentences are accumulated greedily
// into chunks of at most MaxWords words. A sentence longer than the limit is
// split on word boundaries so that no chunk exceeds it. After the text
// chunks, identity chunks holding the file name and, when the source label
// carries one, the folder name are appended so that filename searches match
// even when body text scores poorly.
package chunker
