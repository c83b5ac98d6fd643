// Package summarizer builds the short extractive overview shown for the loaded document.
package summarizer

import (
	"math"
	"regexp"
	"slices"
	"strings"
)

// DefaultMaxSentences is used when the caller passes a non-positive limit.
const DefaultMaxSentences = 3

var (
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]+|[^.!?\n]+$`)
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// FrequencySummarizer picks the sentences whose content words are most
// frequent across the whole document and returns them in document order.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
	// sentences shorter than this many words are never picked
	minWords int
}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: stopwords(), minWords: 4}
}

type scored struct {
	pos   int
	score float64
}

func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	sentences := sentencePattern.FindAllString(text, -1)
	for i := range sentences {
		sentences[i] = strings.Join(strings.Fields(sentences[i]), " ")
	}

	tokenized := make([][]string, len(sentences))
	freq := make(map[string]float64)
	for i, sent := range sentences {
		tokenized[i] = s.contentWords(sent)
		for _, w := range tokenized[i] {
			freq[w]++
		}
	}
	var top float64
	for _, f := range freq {
		top = max(top, f)
	}
	if top == 0 {
		return firstN(sentences, maxSentences), nil
	}

	candidates := make([]scored, 0, len(sentences))
	for i, words := range tokenized {
		if len(strings.Fields(sentences[i])) < s.minWords || len(words) == 0 {
			continue
		}
		var sum float64
		for _, w := range words {
			sum += freq[w] / top
		}
		candidates = append(candidates, scored{pos: i, score: sum / math.Sqrt(float64(len(words)))})
	}
	if len(candidates) == 0 {
		return firstN(sentences, maxSentences), nil
	}
	slices.SortStableFunc(candidates, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	candidates = candidates[:min(maxSentences, len(candidates))]
	slices.SortFunc(candidates, func(a, b scored) int { return a.pos - b.pos })

	picked := make([]string, len(candidates))
	for i, c := range candidates {
		picked[i] = sentences[c.pos]
	}
	return strings.Join(picked, " "), nil
}

func (s *FrequencySummarizer) contentWords(sentence string) []string {
	words := wordPattern.FindAllString(strings.ToLower(sentence), -1)
	out := words[:0]
	for _, w := range words {
		if _, stop := s.stopwords[w]; stop || len([]rune(w)) < 2 {
			continue
		}
		out = append(out, w)
	}
	return out
}

func firstN(sentences []string, n int) string {
	return strings.Join(sentences[:min(n, len(sentences))], " ")
}

func stopwords() map[string]struct{} {
	words := strings.Fields(`a an the and or but if then else for to of in on at by with as is are
		was were be been being it its this that these those from up down over under again further
		than so such into about between through during before after above below out off own same
		too very can will just should now not no nor we you he she they them their our your his her
		i me my do does did has have had which who whom what when where why how all any each also`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
