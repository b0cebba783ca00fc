package ingestion

// batch is a contiguous run of chunk texts starting at offset.
type batch struct {
	offset int
	texts  []string
}

// makeBatches splits texts into batches of at most size, preserving order.
func makeBatches(texts []string, size int) []batch {
	if size < 1 {
		size = 1
	}
	batches := make([]batch, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batches = append(batches, batch{offset: start, texts: texts[start:end]})
	}
	return batches
}
