package core

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error categories shown to end users.
const (
	CategoryInvalidQuery   = "invalid query"
	CategoryAccess         = "access check"
	CategoryNotInitialized = "search not initialized"
	CategoryIndex          = "index build"
	CategoryInternal       = "internal error"
)

// UserError is the short category plus human message rendering of an error.
type UserError struct {
	Category string
	Message  string
}

// String formats the error as "category: message".
func (u UserError) String() string {
	return u.Category + ": " + u.Message
}

// Fail wraps sentinel and an optional cause with a stable code and a message
// that is safe to show to end users. Both stay visible to errors.Is.
// kv are attached as structured context.
func Fail(domain string, sentinel error, public string, cause error, kv ...any) error {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return oops.
		In(domain).
		Code(codeFor(sentinel)).
		With(kv...).
		Public(public).
		Wrap(err)
}

// Describe renders err for end users. Internal error text is never exposed;
// only public messages attached with Fail or a per-category default.
func Describe(err error) UserError {
	if err == nil {
		return UserError{}
	}

	var category, fallback string
	switch {
	case errors.Is(err, ErrInvalidQuery):
		category, fallback = CategoryInvalidQuery, "Enter a search query."
	case errors.Is(err, ErrAccessCheckTimeout):
		category, fallback = CategoryAccess, "Permission check timed out; results are shown without access."
	case errors.Is(err, ErrAccessCheckFailed):
		category, fallback = CategoryAccess, "Could not verify document permissions; results are shown without access."
	case errors.Is(err, ErrEmbeddingUnavailable), errors.Is(err, ErrIndexNotLoaded), errors.Is(err, ErrModelMismatch):
		category, fallback = CategoryNotInitialized, "Search not initialized. Run a refresh first."
	case errors.Is(err, ErrInvalidIndexInput), errors.Is(err, ErrInvalidSnapshot):
		category, fallback = CategoryIndex, "The index could not be rebuilt; the previous index is still in use."
	default:
		category, fallback = CategoryInternal, "Something went wrong. Please try again."
	}

	return UserError{
		Category: category,
		Message:  oops.GetPublic(err, fallback),
	}
}

func codeFor(sentinel error) string {
	switch {
	case errors.Is(sentinel, ErrInvalidQuery):
		return "invalid_query"
	case errors.Is(sentinel, ErrAccessCheckTimeout):
		return "access_check_timeout"
	case errors.Is(sentinel, ErrAccessCheckFailed):
		return "access_check_failed"
	case errors.Is(sentinel, ErrIndexNotLoaded):
		return "index_not_loaded"
	case errors.Is(sentinel, ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(sentinel, ErrInvalidIndexInput):
		return "invalid_index_input"
	default:
		return "internal"
	}
}
