package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/docsearch/access"
	"github.com/poiesic/docsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fileList struct {
	NextPageToken string `json:"nextPageToken,omitempty"`
	Files         []struct {
		ID string `json:"id"`
	} `json:"files"`
}

func listOf(next string, ids ...string) fileList {
	l := fileList{NextPageToken: next}
	for _, id := range ids {
		l.Files = append(l.Files, struct {
			ID string `json:"id"`
		}{ID: id})
	}
	return l
}

func newTestProvider(t *testing.T, handler http.HandlerFunc, opts ...Option) access.Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithClientOptions(
		option.WithEndpoint(server.URL+"/drive/v3/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)}, opts...)

	p, err := New(context.Background(), opts...)
	require.NoError(t, err)
	return p
}

func TestReadersQuery(t *testing.T) {
	assert.Equal(t, "'ana@example.com' in readers and trashed = false", ReadersQuery("ana@example.com"))
	assert.Equal(t, `'o\'brien@example.com' in readers and trashed = false`, ReadersQuery("o'brien@example.com"))
	assert.Equal(t, `'a\\b' in readers and trashed = false`, ReadersQuery(`a\b`))
}

func TestProvider_Pagination(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"), r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "'ana@example.com' in readers and trashed = false", q.Get("q"))
		assert.Equal(t, "nextPageToken, files(id)", q.Get("fields"))
		assert.Equal(t, "50", q.Get("pageSize"))

		var body fileList
		switch q.Get("pageToken") {
		case "":
			body = listOf("tok-2", "hr-1", "hr-2")
		case "tok-2":
			body = listOf("", "it-1")
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	}, WithPageSize(50))

	filter, err := access.NewFilter(p)
	require.NoError(t, err)

	set, err := filter.ResolveAccessibleFiles(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains("hr-1"))
	assert.True(t, set.Contains("it-1"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestProvider_AllDrives(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("supportsAllDrives"))
		assert.Equal(t, "true", q.Get("includeItemsFromAllDrives"))
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(listOf("", "shared-1")))
	}, WithAllDrives(true))

	page, err := p.ListReadable(context.Background(), "ana@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"shared-1"}, page.FileIDs)
	assert.Empty(t, page.NextPageToken)
}

func TestProvider_ServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"rate limit exceeded"}}`))
	})

	filter, err := access.NewFilter(p)
	require.NoError(t, err)

	set, err := filter.ResolveAccessibleFiles(context.Background(), "ana@example.com")
	assert.ErrorIs(t, err, core.ErrAccessCheckFailed)
	assert.Zero(t, set.Len())
}

func TestWithCredentialsFile_Empty(t *testing.T) {
	_, err := New(context.Background(), WithCredentialsFile(""))
	assert.Error(t, err)
}
