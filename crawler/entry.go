// Package crawler walks a hierarchical file store and yields every file entry.
package crawler

import (
	"context"
	"errors"
)

// Kind distinguishes files from containers.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// Entry represents an item discovered in a store listing.
type Entry struct {
	ID       string
	Name     string
	Kind     Kind
	MimeType string
	Size     int64
	// Ext is the normalized extension of the content returned by Download.
	Ext string
	// Path is the slash separated location relative to the crawl root.
	Path string
}

// IsFolder reports whether the entry is a container.
func (e *Entry) IsFolder() bool { return e.Kind == KindFolder }

// Store lists containers and downloads file content.
type Store interface {
	// List returns the direct children of containerID.
	List(ctx context.Context, containerID string) ([]*Entry, error)
	// Download returns the content of a file entry, exported into Entry.Ext format when needed.
	Download(ctx context.Context, entry *Entry) ([]byte, error)
}

// ErrRootListing is returned when the crawl root cannot be listed.
var ErrRootListing = errors.New("crawler: root listing failed")
