package model

import "time"

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatTurn struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestFields are the request fields the assistant may infer. Coordinates are
// deliberately absent: they only arrive from a map pick.
type RequestFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Merge overlays the non-empty fields of other onto f.
func (f RequestFields) Merge(other RequestFields) RequestFields {
	if other.Title != "" {
		f.Title = other.Title
	}
	if other.Description != "" {
		f.Description = other.Description
	}
	if other.Category != "" {
		f.Category = other.Category
	}
	if other.Address != "" {
		f.Address = other.Address
	}
	return f
}

// RequestDraft is the partially collected request during a chat.
type RequestDraft struct {
	RequestFields
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Complete reports whether the draft can be submitted: every text field and a map pick.
func (d RequestDraft) Complete() bool {
	return d.Title != "" && d.Description != "" && d.Category != "" && d.Address != "" && d.Coordinates != nil
}

type AssistantReply struct {
	Message     string        `json:"message"`
	RequestData RequestFields `json:"requestData"`
	IsComplete  bool          `json:"isComplete"`
}

// Request/Response DTOs
type ChatMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ChatLocationRequest struct {
	Coordinates *Coordinates `json:"coordinates" binding:"required"`
	Address     string       `json:"address" binding:"required"`
}

type ChatCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

type ChatStateResponse struct {
	Messages  []ChatTurn   `json:"messages"`
	Draft     RequestDraft `json:"draft"`
	Busy      bool         `json:"busy"`
	Submitted *Request     `json:"submitted,omitempty"`
}
