// Package option holds the skip rules applied to crawled entries.
package option

import (
	"bufio"
	"io"
	"strings"
)

// Options configures which crawled entries are skipped. Patterns are
// gitignore-style and are evaluated against the path relative to the crawl root.
type Options struct {
	// Exclusions prune files and whole folders; a "!" pattern re-admits a path.
	Exclusions []string `yaml:"exclude,omitempty"`

	// Inclusions restrict which files are kept. Folders are never tested
	// against them, so a nested file matching "**/*.pdf" is still reached.
	Inclusions []string `yaml:"include,omitempty"`

	// MaxFileSize skips files larger than this many bytes; zero disables it.
	MaxFileSize int `yaml:"maxFileSize,omitempty"`
}

// Rules returns the inclusion and exclusion patterns that apply to a folder
// (dir true) or a file.
func (o *Options) Rules(dir bool) (inclusions, exclusions []string) {
	if dir {
		return nil, o.Exclusions
	}
	return o.Inclusions, o.Exclusions
}

// Oversized reports whether a file of size bytes exceeds MaxFileSize.
// Folder sizes are storage specific and never checked.
func (o *Options) Oversized(size int, dir bool) bool {
	return !dir && o.MaxFileSize > 0 && size > o.MaxFileSize
}

// Options converts configured fields back into Option functions.
func (o *Options) Options() []Option {
	var result []Option
	if o.MaxFileSize > 0 {
		result = append(result, WithMaxFileSize(o.MaxFileSize))
	}
	if o.Exclusions != nil {
		result = append(result, WithExclusionPatterns(o.Exclusions...))
	}
	if o.Inclusions != nil {
		result = append(result, WithInclusionPatterns(o.Inclusions...))
	}
	return result
}

// NewOptions applies opts; DefaultExclusions are used when no exclusion was given.
func NewOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Exclusions == nil {
		options.Exclusions = append([]string(nil), DefaultExclusions...)
	}
	return options
}

// Option is a function that modifies Options
type Option func(*Options)

// WithExclusionPatterns appends exclusion patterns.
func WithExclusionPatterns(patterns ...string) Option {
	return func(o *Options) {
		o.Exclusions = append(o.Exclusions, patterns...)
	}
}

// WithInclusionPatterns appends file inclusion patterns.
func WithInclusionPatterns(patterns ...string) Option {
	return func(o *Options) {
		o.Inclusions = append(o.Inclusions, patterns...)
	}
}

// WithMaxFileSize sets the largest file size kept, in bytes.
func WithMaxFileSize(size int) Option {
	return func(o *Options) {
		o.MaxFileSize = size
	}
}

// WithIgnoreFile appends exclusion patterns read from an ignore file.
func WithIgnoreFile(reader io.Reader) Option {
	return func(o *Options) {
		o.Exclusions = append(o.Exclusions, ReadPatterns(reader)...)
	}
}

// WithDefaultExclusionPatterns appends DefaultExclusions.
func WithDefaultExclusionPatterns() Option {
	return func(o *Options) {
		o.Exclusions = append(o.Exclusions, DefaultExclusions...)
	}
}

// DefaultExclusions skips version control folders, trash and office lock files.
var DefaultExclusions = []string{
	".git/",
	".trash/",
	"__MACOSX/",
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"~$*",
	".~lock.*",
	"*.tmp",
	"*.bak",
	"*.swp",
}

// ReadPatterns returns the non-blank, non-comment lines of an ignore file.
func ReadPatterns(reader io.Reader) []string {
	var patterns []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
