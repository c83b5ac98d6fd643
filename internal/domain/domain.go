package domain

import "context"

// Document is the single source text the pipeline answers questions about.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a contiguous slice of the document used as the unit of retrieval.
type Chunk struct {
	Text     string
	SourceID string
}

// Hit is a raw nearest-neighbour match. Distance is squared Euclidean.
type Hit struct {
	Position int
	Chunk    Chunk
	Distance float64
}

// RetrievedContext is a chunk returned for a query together with its similarity score.
type RetrievedContext struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Role of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the generation service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Result is the answer to one question.
type Result struct {
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Contexts   []RetrievedContext `json:"contexts"`
	Confidence float64            `json:"confidence"`
	Timestamp  string             `json:"timestamp"`
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Generator produces a completion for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message, model string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Answerer defines the query side of the application core.
type Answerer interface {
	Answer(ctx context.Context, question string) (Result, error)
}
