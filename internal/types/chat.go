package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation owned by a single user. Besides the title it is
// never structurally mutated; messages are appended to it.
type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

// Message is immutable once written. Ordering within a chat is by CreatedAt.
// Content holds either raw text (user turns) or a serialized array of
// ContentBlock (assistant and tool turns).
type Message struct {
	ID        uuid.UUID   `json:"id"`
	ChatID    uuid.UUID   `json:"chat_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolCall   BlockType = "tool-call"
	BlockToolResult BlockType = "tool-result"
)

// ContentBlock is one typed element of an assistant or tool turn.
type ContentBlock struct {
	Type       BlockType       `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// FormatMessageContent renders the stored content column for a turn.
// User turns store raw text; assistant and tool turns store the block array.
func FormatMessageContent(role MessageRole, text string, blocks []ContentBlock) (string, error) {
	if role == RoleUser || role == RoleSystem {
		return text, nil
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s content blocks: %w", role, err)
	}
	return string(data), nil
}

// ParseMessageContent is the inverse of FormatMessageContent. For user and
// system turns it returns a single text block.
func ParseMessageContent(role MessageRole, content string) ([]ContentBlock, error) {
	if role == RoleUser || role == RoleSystem {
		return []ContentBlock{{Type: BlockText, Text: content}}, nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal([]byte(content), &blocks); err != nil {
		return nil, fmt.Errorf("failed to parse %s content blocks: %w", role, err)
	}
	return blocks, nil
}

// IncomingMessage is one turn of the wire payload POSTed to /api/chat.
// Content may be a JSON string or an array of content blocks.
type IncomingMessage struct {
	ID      string          `json:"id"`
	Role    MessageRole     `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Text extracts the plain-text view of an incoming turn. Block arrays are
// flattened to their text blocks joined in order.
func (m IncomingMessage) Text() (string, error) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s, nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return "", fmt.Errorf("message content is neither a string nor a block array: %w", err)
	}
	text := ""
	for _, b := range blocks {
		if b.Type == BlockText {
			text += b.Text
		}
	}
	return text, nil
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	ID       uuid.UUID         `json:"id"`
	Messages []IncomingMessage `json:"messages"`
	ModelID  string            `json:"modelId"`
}

// OutgoingMessage is one element of the buffered JSON response returned to
// native mobile clients.
type OutgoingMessage struct {
	ID      string      `json:"id"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// MessageAnnotation maps a client-visible message id to the id the server
// assigned on persist. The streaming transport uses it to reconcile ids.
type MessageAnnotation struct {
	MessageIDFromServer string `json:"messageIdFromServer"`
}
