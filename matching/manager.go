// Package matching decides which crawled entries are skipped before download.
package matching

import (
	"path"
	"strings"

	"github.com/viant/afs/url"
	"github.com/viant/casebot/matching/option"
)

// Manager handles gitignore-style exclusion and inclusion rules.
type Manager struct {
	options *option.Options
	files   rules
	folders rules
}

type rules struct {
	inclusions []*pattern
	exclusions []*pattern
}

// New creates a new exclusion manager with the given options
func New(opts ...option.Option) *Manager {
	options := option.NewOptions(opts...)
	return &Manager{
		options: options,
		files:   newRules(options, false),
		folders: newRules(options, true),
	}
}

func newRules(options *option.Options, dir bool) rules {
	inclusions, exclusions := options.Rules(dir)
	return rules{inclusions: compile(inclusions), exclusions: compile(exclusions)}
}

// IsExcluded checks if a file should be skipped. Exclusion patterns are
// evaluated in order and the last matching one wins, "!" negating it.
func (m *Manager) IsExcluded(location string, size int) bool {
	return m.skip(location, size, false)
}

// IsFolderExcluded checks if a folder should be pruned from the crawl.
// Only exclusion patterns apply to folders.
func (m *Manager) IsFolderExcluded(location string) bool {
	return m.skip(location, 0, true)
}

func (m *Manager) skip(location string, size int, dir bool) bool {
	if m.options.Oversized(size, dir) {
		return true
	}
	segments := splitPath(location)
	if len(segments) == 0 {
		return false
	}
	set := m.files
	if dir {
		set = m.folders
	}
	if len(set.inclusions) > 0 && !set.isIncluded(segments, dir) {
		return true
	}
	excluded := false
	for _, p := range set.exclusions {
		if p.match(segments, dir) {
			excluded = !p.negate
		}
	}
	return excluded
}

func (r rules) isIncluded(segments []string, dir bool) bool {
	for _, p := range r.inclusions {
		if p.match(segments, dir) {
			return true
		}
	}
	return false
}

func splitPath(location string) []string {
	p := location
	if strings.Contains(p, "://") {
		p = url.Path(p)
	}
	p = strings.ReplaceAll(p, `\`, "/")
	var segments []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

type pattern struct {
	segments []string
	negate   bool
	anchored bool
	dirOnly  bool
}

func compile(patterns []string) []*pattern {
	var out []*pattern
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		// Skip comments or empty lines
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		p := &pattern{}
		if strings.HasPrefix(raw, "!") {
			p.negate = true
			raw = raw[1:]
		}
		if strings.HasPrefix(raw, "/") {
			p.anchored = true
			raw = strings.TrimLeft(raw, "/")
		}
		if strings.HasSuffix(raw, "/") {
			p.dirOnly = true
			raw = strings.TrimRight(raw, "/")
		}
		if raw == "" {
			continue
		}
		p.segments = strings.Split(raw, "/")
		out = append(out, p)
	}
	return out
}

// match reports whether the pattern matches the location or one of its
// ancestors. The last segment names a folder only when dir is set.
func (p *pattern) match(segments []string, dir bool) bool {
	starts := len(segments)
	if p.anchored {
		starts = 1
	}
	for start := 0; start < starts; start++ {
		rest := segments[start:]
		for end := 1; end <= len(rest); end++ {
			if p.dirOnly && !dir && end == len(rest) {
				break
			}
			if matchSegments(p.segments, rest[:end]) {
				return true
			}
		}
	}
	return false
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(segments); i++ {
			if matchSegments(pattern[1:], segments[i:]) {
				return true
			}
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	if ok, _ := path.Match(pattern[0], segments[0]); !ok {
		return false
	}
	return matchSegments(pattern[1:], segments[1:])
}
