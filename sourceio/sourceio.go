// Package sourceio loads source bytes for callers that hand the core a
// location instead of in-memory bytes. Backed by afs, so the same call
// reads local files and any other scheme the caller's environment mounts.
package sourceio

import (
	"context"
	"fmt"

	"github.com/viant/afs"
)

// Service reads source bytes from afs-addressable locations.
type Service struct {
	fs afs.Service
}

// New creates a Service over the default afs service.
func New() *Service {
	return &Service{fs: afs.New()}
}

// ReadSource downloads the source at URL. An empty file is an error: the
// core rejects empty source anyway, and failing here gives the caller the
// location in the message.
func (s *Service) ReadSource(ctx context.Context, URL string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read source %v: %w", URL, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("source %v is empty", URL)
	}
	return data, nil
}
