package chunker

import (
	"regexp"
	"strings"

	"docqa/internal/domain"
)

// SentenceChunker groups a fixed number of sentences per chunk, repeating
// overlapSentences sentences at the start of the next chunk. A group longer
// than maxRunes is cut into rune windows, so no chunk exceeds maxRunes.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	maxRunes          int
	splitter          *regexp.Regexp
}

// NewSentenceChunker falls back to DefaultSize when maxRunes is not positive.
func NewSentenceChunker(sentencesPerChunk, overlapSentences, maxRunes int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	if maxRunes <= 0 {
		maxRunes = DefaultSize
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		maxRunes:          maxRunes,
		splitter:          regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`),
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var sentences []string
	for _, s := range c.splitter.FindAllString(document.Content, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	for start := 0; start < len(sentences); {
		end := min(start+c.sentencesPerChunk, len(sentences))
		for _, text := range c.bound(strings.Join(sentences[start:end], " ")) {
			chunks = append(chunks, domain.Chunk{Text: text, SourceID: document.ID})
		}
		if end == len(sentences) {
			break
		}
		start = end - c.overlapSentences
	}
	return chunks, nil
}

func (c *SentenceChunker) bound(group string) []string {
	if runeLen(group) <= c.maxRunes {
		return []string{group}
	}
	return window(group, c.maxRunes, c.maxRunes/6)
}
