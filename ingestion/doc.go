// Package ingestion rebuilds the searchable corpus.
//
// A Refresher takes the full set of source documents and:
//   - Splits each document into chunks, plus file and folder name chunks
//   - Generates embeddings in batches on a worker pool, with retry and backoff
//   - Assembles an aligned snapshot in chunk order
//   - Builds a new index from it
//   - Persists the snapshot and publishes the index
//
// Any failure before publication leaves the previous index serving queries.
// Only one refresh runs at a time.
package ingestion
