package chunker

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/domain"
)

const (
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 100
)

// chunkNamespace seeds the UUIDv5 chunk identifiers.
var chunkNamespace = uuid.MustParse("6f0c3b1e-2a41-4d8e-9b57-0d3c8e7a5f21")

// WindowChunker splits page text into fixed-size character windows.
// Consecutive windows of a page share exactly overlap characters. Chunk
// drops windows holding only whitespace, so the chunks on either side of
// a long blank stretch do not overlap.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &WindowChunker{size: size, overlap: overlap}
}

// Span is a half-open rune range [Start, End) of the split text.
type Span struct {
	Start int
	End   int
}

// Split returns the window boundaries for text, measured in runes.
func (c *WindowChunker) Split(text string) []Span {
	n := len([]rune(text))
	if n == 0 {
		return nil
	}
	step := c.size - c.overlap
	var spans []Span
	for start := 0; ; start += step {
		end := start + c.size
		if end > n {
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
		if end == n {
			break
		}
	}
	return spans
}

// Chunk splits every page of the document. Windows holding only
// whitespace are skipped; blank pages produce no chunks.
func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	idx := 0
	for _, page := range document.Pages {
		runes := []rune(page.Text)
		for _, sp := range c.Split(page.Text) {
			text := string(runes[sp.Start:sp.End])
			if strings.TrimSpace(text) == "" {
				continue
			}
			meta := page.Metadata.Clone()
			meta["chunk_index"] = idx
			meta["start_index"] = sp.Start
			chunks = append(chunks, domain.Chunk{
				DocumentID: document.ID,
				ChunkID:    ChunkID(document.ID, idx),
				Text:       text,
				Index:      idx,
				Metadata:   meta,
			})
			idx++
		}
	}
	return chunks, nil
}

// ChunkID derives a stable UUID for the idx-th chunk of a document.
func ChunkID(documentID string, idx int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+":"+strconv.Itoa(idx))).String()
}
