package crawler

import (
	"context"
	"fmt"
	"path"

	"github.com/viant/casebot/logger"
)

// SubtreeError records a nested container whose listing failed.
type SubtreeError struct {
	ContainerID string
	Path        string
	Err         error
}

func (e *SubtreeError) Error() string {
	return fmt.Sprintf("crawler: list %s (%s): %v", e.Path, e.ContainerID, e.Err)
}

func (e *SubtreeError) Unwrap() error { return e.Err }

// Result holds the outcome of a crawl.
type Result struct {
	Files    []*Entry
	Failures []*SubtreeError
	// Containers counts listed containers including the root.
	Containers int
}

// Crawler walks a Store recursively.
type Crawler struct {
	store  Store
	logger *logger.Logger
}

// Option configures a crawler.
type Option func(*Crawler)

// WithLogger sets the crawler logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// New creates a crawler over store.
func New(store Store, opts ...Option) *Crawler {
	c := &Crawler{store: store}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrNop(c.logger)
	return c
}

// Crawl lists rootID and every nested container. A root listing failure is
// returned as an error; nested failures are recorded in Result.Failures and
// do not affect siblings. Each container and file is visited at most once.
func (c *Crawler) Crawl(ctx context.Context, rootID string) (*Result, error) {
	entries, err := c.store.List(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootListing, rootID, err)
	}
	w := &walk{
		crawler:    c,
		result:     &Result{Containers: 1},
		containers: map[string]bool{rootID: true},
		files:      map[string]bool{},
	}
	if err := w.visit(ctx, "", entries); err != nil {
		return nil, err
	}
	return w.result, nil
}

type walk struct {
	crawler    *Crawler
	result     *Result
	containers map[string]bool
	files      map[string]bool
}

func (w *walk) visit(ctx context.Context, parent string, entries []*Entry) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry.Path = path.Join(parent, entry.Name)
		if !entry.IsFolder() {
			if w.files[entry.ID] {
				continue
			}
			w.files[entry.ID] = true
			w.result.Files = append(w.result.Files, entry)
			continue
		}
		if w.containers[entry.ID] {
			w.crawler.logger.Debug("container already visited", "id", entry.ID, "path", entry.Path)
			continue
		}
		w.containers[entry.ID] = true
		children, err := w.crawler.store.List(ctx, entry.ID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failure := &SubtreeError{ContainerID: entry.ID, Path: entry.Path, Err: err}
			w.result.Failures = append(w.result.Failures, failure)
			w.crawler.logger.Warn("container listing failed", "id", entry.ID, "path", entry.Path, "error", err)
			continue
		}
		w.result.Containers++
		if err := w.visit(ctx, entry.Path, children); err != nil {
			return err
		}
	}
	return nil
}
