// Package afs implements a crawler store over github.com/viant/afs storage
// (file://, mem://, gs://, s3:// and other registered schemes).
package afs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/casebot/crawler"
	"github.com/viant/casebot/extractor"
	"github.com/viant/casebot/matching"
)

// Store lists afs locations; container ids are location URLs.
type Store struct {
	fs      afs.Service
	matcher *matching.Manager
	mux     sync.Mutex
	root    string
}

// Option configures the store.
type Option func(*Store)

// WithMatcher sets the exclusion matcher.
func WithMatcher(m *matching.Manager) Option {
	return func(s *Store) { s.matcher = m }
}

// WithService sets the afs service.
func WithService(fs afs.Service) Option {
	return func(s *Store) { s.fs = fs }
}

// WithRoot sets the crawl root that match patterns are relative to.
// Without it the first listed container is used.
func WithRoot(location string) Option {
	return func(s *Store) { s.root = location }
}

// New creates an afs backed store.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	return s
}

// Normalize converts a relative or absolute OS path into an afs URL.
func Normalize(location string) (string, error) {
	norm := location
	if url.Scheme(norm, "") == "" && url.IsRelative(norm) {
		abs, err := filepath.Abs(norm)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for %s: %w", location, err)
		}
		norm = abs
	}
	if url.Scheme(norm, "") == "" && !url.IsRelative(norm) {
		norm = url.ToFileURL(norm)
	}
	return norm, nil
}

// List returns children of the container URL.
func (s *Store) List(ctx context.Context, containerID string) ([]*crawler.Entry, error) {
	location, err := Normalize(containerID)
	if err != nil {
		return nil, err
	}
	objects, err := s.fs.List(ctx, location)
	if err != nil {
		return nil, err
	}
	base := url.Path(location)
	root := s.rootPath(location)
	var entries []*crawler.Entry
	for _, object := range objects {
		objectPath := url.Path(object.URL())
		if object.IsDir() && url.Equals(objectPath, base) {
			continue
		}
		if s.isExcluded(relative(root, objectPath), object) {
			continue
		}
		entry := &crawler.Entry{
			ID:   url.Join(location, object.Name()),
			Name: object.Name(),
			Size: object.Size(),
		}
		if object.IsDir() {
			entry.Kind = crawler.KindFolder
		} else {
			entry.Ext = extractor.Ext(object.Name())
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) isExcluded(location string, object storage.Object) bool {
	if s.matcher == nil {
		return false
	}
	if object.IsDir() {
		return s.matcher.IsFolderExcluded(location)
	}
	return s.matcher.IsExcluded(location, int(object.Size()))
}

func (s *Store) rootPath(location string) string {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.root == "" {
		s.root = location
	}
	root, err := Normalize(s.root)
	if err != nil {
		root = s.root
	}
	return strings.TrimRight(url.Path(root), "/")
}

// relative returns objectPath relative to root, or objectPath itself when it lies outside root.
func relative(root, objectPath string) string {
	rel, ok := strings.CutPrefix(objectPath, root+"/")
	if !ok {
		return objectPath
	}
	return rel
}

// Download returns file content.
func (s *Store) Download(ctx context.Context, entry *crawler.Entry) ([]byte, error) {
	return s.fs.DownloadWithURL(ctx, entry.ID)
}
