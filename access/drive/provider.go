// Package drive implements access.Provider on the Google Drive v3 API.
//
// The permission query is "'<identity>' in readers and trashed = false",
// listing only file IDs.
// Authentication uses a service account credentials file with the read-only
// metadata scope; bootstrapping those credentials is outside this package.
package drive

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/docsearch/access"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DefaultPageSize is the number of files requested per page.
const DefaultPageSize = 1000

// ErrServiceRequired is returned when no Drive service could be built.
var ErrServiceRequired = errors.New("drive service required")

// Provider lists readable files through the Drive API.
type Provider struct {
	files     *gdrive.FilesService
	pageSize  int64
	allDrives bool
	logger    *slog.Logger
}

type settings struct {
	clientOptions []option.ClientOption
	pageSize      int64
	allDrives     bool
	logger        *slog.Logger
}

// Option configures a Provider.
type Option func(*settings) error

// WithCredentialsFile authenticates with a service account key file.
func WithCredentialsFile(path string) Option {
	return func(s *settings) error {
		if path == "" {
			return errors.New("drive: credentials file path is empty")
		}
		s.clientOptions = append(s.clientOptions,
			option.WithCredentialsFile(path),
			option.WithScopes(gdrive.DriveMetadataReadonlyScope),
		)
		return nil
	}
}

// WithClientOptions passes raw client options to the Drive service.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *settings) error {
		s.clientOptions = append(s.clientOptions, opts...)
		return nil
	}
}

// WithPageSize sets the number of files requested per page.
// Default is DefaultPageSize.
func WithPageSize(n int) Option {
	return func(s *settings) error {
		if n < 1 {
			n = DefaultPageSize
		}
		s.pageSize = int64(n)
		return nil
	}
}

// WithAllDrives includes files on shared drives.
func WithAllDrives(enabled bool) Option {
	return func(s *settings) error {
		s.allDrives = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a Provider backed by a new Drive service.
//
// Returns access.Provider interface to enforce abstraction.
func New(ctx context.Context, opts ...Option) (access.Provider, error) {
	s := &settings{pageSize: DefaultPageSize, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	srv, err := gdrive.NewService(ctx, s.clientOptions...)
	if err != nil {
		return nil, err
	}
	if srv == nil || srv.Files == nil {
		return nil, ErrServiceRequired
	}

	return &Provider{
		files:     srv.Files,
		pageSize:  s.pageSize,
		allDrives: s.allDrives,
		logger:    s.logger.With("component", "drive-access"),
	}, nil
}

// ListReadable returns one page of files identity can read.
func (p *Provider) ListReadable(ctx context.Context, identity, pageToken string) (access.Page, error) {
	call := p.files.List().
		Q(ReadersQuery(identity)).
		Fields("nextPageToken, files(id)").
		PageSize(p.pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	if p.allDrives {
		call = call.SupportsAllDrives(true).IncludeItemsFromAllDrives(true)
	}

	resp, err := call.Do()
	if err != nil {
		return access.Page{}, err
	}

	ids := make([]string, 0, len(resp.Files))
	for _, f := range resp.Files {
		if f != nil && f.Id != "" {
			ids = append(ids, f.Id)
		}
	}
	p.logger.Debug("listed readable files", "count", len(ids), "more", resp.NextPageToken != "")

	return access.Page{FileIDs: ids, NextPageToken: resp.NextPageToken}, nil
}

// ReadersQuery builds the Drive search query matching untrashed files
// identity can read. Backslashes and single quotes in identity are escaped.
func ReadersQuery(identity string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(identity)
	return "'" + escaped + "' in readers and trashed = false"
}
