package service

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// DefaultMaxContextRunes bounds how much of each chunk is shown to the model.
const DefaultMaxContextRunes = 1000

// MissingAnswer is the reply the model is told to give when the chunks do not
// contain the answer.
func MissingAnswer(title string) string {
	return fmt.Sprintf("I don't have enough information from %s.", title)
}

// BuildMessages renders the grounded system prompt followed by the question.
// Contexts are numbered from 1 in the order given; only the prompt copy of a
// chunk is truncated.
func BuildMessages(title, question string, contexts []domain.RetrievedContext, maxContextRunes int) []domain.Message {
	if maxContextRunes <= 0 {
		maxContextRunes = DefaultMaxContextRunes
	}
	blocks := make([]string, len(contexts))
	for i, c := range contexts {
		blocks[i] = fmt.Sprintf("CHUNK %d (%.3f):\n%s", i+1, c.Score, truncateRunes(c.Text, maxContextRunes))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert on %s. Answer STRICTLY from the context below.\n\n", title)
	sb.WriteString("RULES:\n")
	sb.WriteString("1. ONLY use the CONTEXT CHUNKS provided (ignore external knowledge)\n")
	fmt.Fprintf(&sb, "2. If the answer is not in the context, say: %q\n", MissingAnswer(title))
	sb.WriteString("3. Cite the chunks you used: [Chunk 1], [Chunk 2], etc.\n\n")
	sb.WriteString("CONTEXT CHUNKS:\n")
	sb.WriteString(strings.Join(blocks, "\n\n"))

	return []domain.Message{
		{Role: domain.RoleSystem, Content: sb.String()},
		{Role: domain.RoleUser, Content: question},
	}
}

// Confidence is the mean score of the contexts, 0 for none.
func Confidence(contexts []domain.RetrievedContext) float64 {
	if len(contexts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range contexts {
		sum += c.Score
	}
	return sum / float64(len(contexts))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
