package entity

import (
	"strings"
	"time"

	"listingassist/internal/dialogue"
	"listingassist/internal/product"
)

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// TurnType tells who produced a turn.
type TurnType string

const (
	TurnAIQuestion   TurnType = "ai_question"
	TurnUserResponse TurnType = "user_response"
)

// Turn is one immutable exchange in a conversation.
type Turn struct {
	ID             string    `json:"id"`
	Type           TurnType  `json:"type"`
	Content        string    `json:"content"`
	Language       string    `json:"language"`
	Timestamp      time.Time `json:"timestamp"`
	ProcessingTime int64     `json:"processingTime,omitempty"` // milliseconds
	Confidence     *float64  `json:"confidence,omitempty"`
	AudioURL       string    `json:"audioUrl,omitempty"`
}

// Conversation is the aggregate persisted by the session store.
type Conversation struct {
	ID            string                `json:"id"`
	UserID        UserID                `json:"userId"`
	Language      string                `json:"language"`
	Turns         []Turn                `json:"turns"`
	ExtractedInfo product.Info          `json:"extractedInfo"`
	Confidence    product.ConfidenceMap `json:"confidence,omitempty"`
	Status        Status                `json:"status"`
	Stage         dialogue.Stage        `json:"conversationStage"`
	StartedAt     time.Time             `json:"startedAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
	CompletedAt   *time.Time            `json:"completedAt,omitempty"`
	Summary       string                `json:"summary,omitempty"`
	Version       int64                 `json:"version"`
}

// NormalizeLanguage lowercases a language tag and defaults to "en".
func NormalizeLanguage(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "en"
	}
	return v
}

// Questions returns the content of every AI question turn, oldest first.
func (c Conversation) Questions() []string {
	out := make([]string, 0, len(c.Turns)/2+1)
	for _, t := range c.Turns {
		if t.Type == TurnAIQuestion {
			out = append(out, t.Content)
		}
	}
	return out
}

// Responses returns the content of every user turn, oldest first.
func (c Conversation) Responses() []string {
	out := make([]string, 0, len(c.Turns)/2+1)
	for _, t := range c.Turns {
		if t.Type == TurnUserResponse {
			out = append(out, t.Content)
		}
	}
	return out
}

// Clone deep-copies the conversation so cached values cannot be mutated.
func (c Conversation) Clone() Conversation {
	out := c
	out.Turns = make([]Turn, len(c.Turns))
	for i, t := range c.Turns {
		if t.Confidence != nil {
			v := *t.Confidence
			t.Confidence = &v
		}
		out.Turns[i] = t
	}
	out.ExtractedInfo = c.ExtractedInfo.Clone()
	out.Confidence = c.Confidence.Clone()
	if c.CompletedAt != nil {
		at := *c.CompletedAt
		out.CompletedAt = &at
	}
	return out
}
