// Package ingest runs the crawl, extract, chunk, embed and index pipeline.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/casebot/chunker"
	"github.com/viant/casebot/crawler"
	"github.com/viant/casebot/credential"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/embeddings"
	"github.com/viant/casebot/extractor"
	"github.com/viant/casebot/lock"
	"github.com/viant/casebot/logger"
	"github.com/viant/casebot/vectordb"
)

var (
	// ErrConfig is returned for missing or invalid pipeline settings.
	ErrConfig = errors.New("ingest: invalid configuration")
	// ErrNothingToIngest is returned when no chunk was produced.
	ErrNothingToIngest = errors.New("ingest: no documents to ingest")
	// ErrEmbedding is returned when any embedding batch fails; nothing is written.
	ErrEmbedding = errors.New("ingest: embedding failed")
)

// DefaultBatchSize is the number of chunk texts sent per embedding call.
const DefaultBatchSize = 64

// StoreFactory opens the document store for an authenticated session.
type StoreFactory func(ctx context.Context, session *credential.Session) (crawler.Store, error)

// Reason classifies a skipped file.
type Reason string

const (
	ReasonUnsupported Reason = "unsupported"
	ReasonCorrupt     Reason = "corrupt"
	ReasonDownload    Reason = "download"
	ReasonEmpty       Reason = "empty"
	ReasonSubtree     Reason = "subtree"
)

// Skip describes a file (or failed container) left out of the index.
type Skip struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Summary reports a completed ingestion run.
type Summary struct {
	DocumentsLoaded int           `json:"documentsLoaded"`
	ChunksCreated   int           `json:"chunksCreated"`
	VectorsIndexed  int           `json:"vectorsIndexed"`
	FilesSkipped    int           `json:"filesSkipped"`
	Skipped         []Skip        `json:"skipped,omitempty"`
	Generation      string        `json:"generation,omitempty"`
	Superseded      int           `json:"superseded"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Service ingests a store subtree into a vector index.
type Service struct {
	newStore   StoreFactory
	provider   credential.Provider
	extractors *extractor.Factory
	chunker    *chunker.Chunker
	embedder   embeddings.Embedder
	index      vectordb.Index
	lockPath   string
	batchSize  int
	logger     *logger.Logger
}

// Option configures the service.
type Option func(*Service)

// WithCredentials sets the credential provider; without one the store
// factory receives a nil session.
func WithCredentials(p credential.Provider) Option {
	return func(s *Service) { s.provider = p }
}

// WithExtractors overrides the extractor registry.
func WithExtractors(f *extractor.Factory) Option {
	return func(s *Service) { s.extractors = f }
}

// WithChunker overrides the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(s *Service) { s.chunker = c }
}

// WithLockPath serializes runs through an exclusive lock file.
func WithLockPath(path string) Option {
	return func(s *Service) { s.lockPath = path }
}

// WithBatchSize sets the embedding batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) { s.batchSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates an ingestion service.
func New(newStore StoreFactory, embedder embeddings.Embedder, index vectordb.Index, opts ...Option) (*Service, error) {
	s := &Service{
		newStore:  newStore,
		embedder:  embedder,
		index:     index,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newStore == nil || s.embedder == nil || s.index == nil {
		return nil, fmt.Errorf("%w: store, embedder and index are required", ErrConfig)
	}
	if s.extractors == nil {
		s.extractors = extractor.NewFactory()
	}
	if s.chunker == nil {
		c, err := chunker.New(chunker.DefaultSize, chunker.DefaultOverlap)
		if err != nil {
			return nil, err
		}
		s.chunker = c
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	s.logger = logger.OrNop(s.logger)
	return s, nil
}

// Ingest indexes every supported file under rootID. Per-file failures are
// skipped; credential, root listing, embedding and index failures abort the
// run before anything is written.
func (s *Service) Ingest(ctx context.Context, rootID string) (*Summary, error) {
	started := time.Now()
	rootID = strings.TrimSpace(rootID)
	if rootID == "" {
		return nil, fmt.Errorf("%w: root folder id is required", ErrConfig)
	}
	if s.lockPath != "" {
		held, err := lock.Acquire(s.lockPath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = held.Release() }()
	}
	var session *credential.Session
	if s.provider != nil {
		var err error
		if session, err = s.provider.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	store, err := s.newStore(ctx, session)
	if err != nil {
		return nil, err
	}

	log := s.logger.With("root", rootID)
	crawled, err := crawler.New(store, crawler.WithLogger(log)).Crawl(ctx, rootID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{}
	for _, failure := range crawled.Failures {
		summary.skip(failure.Path, ReasonSubtree, failure.Err)
	}
	log.Info("crawl completed", "files", len(crawled.Files), "containers", crawled.Containers, "failedContainers", len(crawled.Failures))

	var units document.Units
	for _, entry := range crawled.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		extracted, reason, err := s.load(ctx, store, entry)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			summary.skip(entry.Path, reason, err)
			log.Warn("file skipped", "path", entry.Path, "reason", reason, "error", err)
			continue
		}
		summary.DocumentsLoaded++
		units = append(units, extracted...)
	}

	chunks := s.chunker.SplitAll(units)
	summary.ChunksCreated = len(chunks)
	log.Info("documents chunked", "documents", summary.DocumentsLoaded, "units", len(units), "chunks", len(chunks), "skipped", summary.FilesSkipped)
	if len(chunks) == 0 {
		return summary, ErrNothingToIngest
	}

	vectors, err := embeddings.Batch(ctx, s.embedder, chunks.Texts(), s.batchSize)
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	result, err := s.index.Upsert(ctx, chunks, vectors)
	if err != nil {
		return summary, err
	}
	summary.VectorsIndexed = result.Written
	summary.Generation = result.Generation
	summary.Superseded = result.Superseded
	summary.Elapsed = time.Since(started)
	log.Info("index updated", "vectors", result.Written, "generation", result.Generation, "superseded", result.Superseded, "elapsed", summary.Elapsed)
	return summary, nil
}

func (s *Service) load(ctx context.Context, store crawler.Store, entry *crawler.Entry) (document.Units, Reason, error) {
	ext := entry.Ext
	if ext == "" {
		ext = extractor.Ext(entry.Name)
	}
	if !s.extractors.Supports(ext) {
		return nil, ReasonUnsupported, fmt.Errorf("%w: %s", extractor.ErrUnsupported, entry.MimeType)
	}
	data, err := store.Download(ctx, entry)
	if err != nil {
		return nil, ReasonDownload, err
	}
	units, err := s.extractors.Extract(entry.Name, ext, data)
	if err != nil {
		if errors.Is(err, extractor.ErrUnsupported) {
			return nil, ReasonUnsupported, err
		}
		return nil, ReasonCorrupt, err
	}
	if len(units) == 0 {
		return nil, ReasonEmpty, fmt.Errorf("ingest: no text extracted")
	}
	return units, "", nil
}

func (s *Summary) skip(path string, reason Reason, err error) {
	item := Skip{Path: path, Reason: reason}
	if err != nil {
		item.Error = err.Error()
	}
	s.Skipped = append(s.Skipped, item)
	s.FilesSkipped++
}
