package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AttachmentKind discriminates the two supported upload payloads.
type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "image"
	AttachmentKindDocument AttachmentKind = "document"
)

// KindForMediaType derives the attachment kind from a declared media type.
// The kind is derived once, at message construction, and never changes.
func KindForMediaType(mediaType string) AttachmentKind {
	if strings.HasPrefix(mediaType, "image/") {
		return AttachmentKindImage
	}
	return AttachmentKindDocument
}

// AttachmentContent carries the upload-specific fields of an attachment
// message. Ref is a transient local handle to the payload (typically the
// source path); it is not guaranteed to resolve across sessions.
type AttachmentContent struct {
	Kind AttachmentKind `json:"kind"`
	Name string         `json:"name"`
	Ref  string         `json:"ref,omitempty"`
}

// Message is a single turn in a conversation. Messages are immutable once
// created; the manager only ever appends them to a chat.
type Message struct {
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content"`
	Role    Role      `json:"role"`
	Time    time.Time `json:"time"`

	// Attachment is set only for upload messages.
	Attachment *AttachmentContent `json:"attachment,omitempty"`
}

type MessageOption func(*Message)

func WithID(id uuid.UUID) MessageOption {
	return func(m *Message) {
		m.ID = id
	}
}

func WithTime(t time.Time) MessageOption {
	return func(m *Message) {
		m.Time = t
	}
}

// NewMessage creates a message with a fresh ID and the current time. The
// content is stored verbatim.
func NewMessage(content string, role Role, options ...MessageOption) *Message {
	ret := &Message{
		ID:      uuid.New(),
		Content: content,
		Role:    role,
		Time:    time.Now(),
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

// NewAttachmentMessage creates a user message describing an uploaded payload.
// When content is empty, a caption is generated from the kind and name.
func NewAttachmentMessage(ref string, kind AttachmentKind, name string, content string, options ...MessageOption) *Message {
	if content == "" {
		content = fmt.Sprintf("Uploaded %s: %s", kind, name)
	}

	ret := NewMessage(content, RoleUser, options...)
	ret.Attachment = &AttachmentContent{
		Kind: kind,
		Name: name,
		Ref:  ref,
	}

	return ret
}

// SentinelTitle is the placeholder title assigned to a chat before a title
// has been derived from its first user message.
const SentinelTitle = "New Chat"

// Chat is an ordered conversation thread. The message sequence is
// append-only; insertion order is conversation order.
type Chat struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewChat creates an empty chat with the sentinel title and a fresh ID.
func NewChat() *Chat {
	now := time.Now()
	return &Chat{
		ID:        uuid.New(),
		Title:     SentinelTitle,
		Messages:  []*Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FirstUserMessage returns the first user-authored message of the chat.
func (c *Chat) FirstUserMessage() (*Message, bool) {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg, true
		}
	}
	return nil, false
}
