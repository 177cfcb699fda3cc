// Package chunker splits extracted units into overlapping fixed-size windows.
package chunker

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/viant/casebot/document"
)

const (
	// DefaultSize is the default chunk size in runes.
	DefaultSize = 1500
	// DefaultOverlap is the default overlap between consecutive chunks in runes.
	DefaultOverlap = 250
)

// ErrInvalidConfig is returned for non-positive size or out of range overlap.
var ErrInvalidConfig = errors.New("chunker: invalid configuration")

// Chunker splits text into windows of at most Size runes, consecutive windows
// sharing Overlap runes.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker; overlap must satisfy 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0,%d)", ErrInvalidConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the window overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }

// Split splits a unit into chunks; blank units yield none.
func (c *Chunker) Split(unit *document.Unit) document.Chunks {
	if unit.IsBlank() {
		return nil
	}
	runes := []rune(unit.Text)
	total := len(runes)
	step := c.size - c.overlap
	chunks := make(document.Chunks, 0, c.Count(total))
	for start := 0; ; start += step {
		end := start + c.size
		if end > total {
			end = total
		}
		text := string(runes[start:end])
		meta := make(map[string]string, len(unit.Meta)+1)
		for k, v := range unit.Meta {
			meta[k] = v
		}
		index := len(chunks)
		meta[document.ChunkKey] = strconv.Itoa(index)
		chunks = append(chunks, &document.Chunk{
			Text:     text,
			Index:    index,
			Start:    start,
			End:      end,
			Checksum: checksum(text),
			Meta:     meta,
		})
		if end == total {
			break
		}
	}
	return chunks
}

// SplitAll splits every unit in order.
func (c *Chunker) SplitAll(units document.Units) document.Chunks {
	var out document.Chunks
	for _, unit := range units {
		out = append(out, c.Split(unit)...)
	}
	return out
}

// Count returns the number of chunks produced for a text of length runes.
func (c *Chunker) Count(length int) int {
	if length <= 0 {
		return 0
	}
	if length <= c.size {
		return 1
	}
	step := c.size - c.overlap
	return (length - c.overlap + step - 1) / step
}

func checksum(text string) int {
	sum := sha256.Sum256([]byte(text))
	return int(binary.BigEndian.Uint32(sum[:4]))
}
