package api

import (
	"time"

	"github.com/csheth/eduforge/internal/assessment"
	"github.com/csheth/eduforge/internal/conversations"
)

// GenerationRequest starts or continues a thread for one feature.
type GenerationRequest struct {
	ThreadID   string         `json:"thread_id,omitempty"`
	Model      string         `json:"model,omitempty"`
	Language   string         `json:"language,omitempty"`
	Message    string         `json:"message,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Reference  string         `json:"reference_material,omitempty"`
}

// GenerationResult is a generated thread: markdown for most features and a
// structured assessment for the assessment generator.
type GenerationResult struct {
	ThreadID         string                 `json:"thread_id"`
	ConversationType conversations.Type     `json:"conversation_type"`
	Title            string                 `json:"title"`
	Markdown         string                 `json:"markdown"`
	Assessment       *assessment.Assessment `json:"assessment,omitempty"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Conversation converts the result into a sidebar entry.
func (r GenerationResult) Conversation() conversations.SavedConversation {
	return conversations.SavedConversation{
		ThreadID:  r.ThreadID,
		Type:      r.ConversationType,
		Title:     r.Title,
		UpdatedAt: r.UpdatedAt,
	}
}

type listResponse struct {
	Conversations []conversations.SavedConversation `json:"conversations"`
}

type exportRequest struct {
	Markdown string `json:"markdown"`
	Filename string `json:"filename"`
}

type versionResponse struct {
	Version string `json:"version"`
}
