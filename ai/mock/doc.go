// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder and ai.AIProvider
// for use in unit tests. The mocks allow tests to run without an embedding
// service and give controlled, deterministic vectors.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("model offline")
//	}
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns a normalized hashed bag of words, so texts that share
// words are near each other. Identical text always yields the identical vector.
package mock
