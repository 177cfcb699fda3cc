package document

// Metadata keys carried from extraction through retrieval.
const (
	SourceKey   = "source"
	PageKey     = "page"
	SheetKey    = "sheet"
	KindKey     = "kind"
	ChunkKey    = "chunk"
	EntryIDKey  = "entryId"
	RowRangeKey = "row_range"
)

// GetString returns a string metadata value or empty string.
func GetString(metadata map[string]any, key string) string {
	if value, ok := metadata[key]; ok {
		text, _ := value.(string)
		return text
	}
	return ""
}
