package models

import "time"

// ChatSession is one conversation in the append-only chat store.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageContent is the structured body of a chat message. Only the fields
// relevant to the message type are populated.
type MessageContent struct {
	Text             string         `json:"text,omitempty"`
	SQL              string         `json:"sql,omitempty"`
	Steps            []any          `json:"steps,omitempty"`
	Result           map[string]any `json:"result,omitempty"`
	OriginalQuestion string         `json:"original_question,omitempty"`
}

// ChatMessage is one entry in a session's message log.
type ChatMessage struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Role      string         `json:"role"`
	Type      string         `json:"type"`
	Content   MessageContent `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

// AddMessageRequest for POST /api/v1/chats/{chat_id}/messages
type AddMessageRequest struct {
	Role    string         `json:"role"`
	Type    string         `json:"type"`
	Content MessageContent `json:"content"`
}

// RenameChatRequest for POST /api/v1/chats/{chat_id}/rename
type RenameChatRequest struct {
	Title string `json:"title"`
}
