package chat

// Package chat implements the conversation state manager for a Gemini chat
// client.
//
// The Manager owns the chat collection, the active-chat pointer, the API
// credential and the busy flag. All mutations go through it; other
// components only read snapshots and invoke operations.
//
// Send operations perform an optimistic local update (the user message is
// appended and persisted before any network activity), then call the
// generation client. On success the assistant reply is appended and the
// chat title is derived from the first user message; on failure the
// optimistic message is kept, no assistant message is appended, and the
// error is returned to the caller. The busy flag is cleared on both paths.
//
// At most one send may be in flight at a time; a concurrent send is
// rejected with ErrBusy rather than queued.
//
// Persistence is fire-and-forget: store write failures are logged and
// dropped, never propagated. Malformed persisted state is discarded by the
// store layer, so a manager always starts from a consistent (possibly
// empty) collection.

import (
	"context"

	"github.com/google/uuid"
)

// Store is the key-value persistence collaborator, holding the serialized
// chat collection and the credential. Implementations live in pkg/store.
type Store interface {
	LoadChats() ([]*Chat, error)
	SaveChats(chats []*Chat) error
	LoadCredential() (string, error)
	SaveCredential(credential string) error
}

// GenerationClient is the boundary to the remote generation API. The
// credential is passed per call because the manager owns it and it can be
// replaced at runtime.
type GenerationClient interface {
	GenerateContent(ctx context.Context, apiKey string, prompt string) (string, error)
	GenerateContentWithFile(ctx context.Context, apiKey string, prompt string, mimeType string, base64Data string) (string, error)
}

// FileUpload describes a payload handed to SendFileMessage. The caller is
// expected to have validated media type and size at the boundary (see
// pkg/attachments); Ref is an optional transient handle such as the source
// path.
type FileUpload struct {
	Name      string
	MediaType string
	Data      []byte
	Ref       string
}

// Manager defines the high-level conversation management operations.
type Manager interface {
	CreateChat() *Chat
	SelectChat(id uuid.UUID) error
	DeleteChat(id uuid.UUID) error
	ClearChats()

	SendMessage(ctx context.Context, content string) error
	SendFileMessage(ctx context.Context, file FileUpload, description string) error

	SetCredential(credential string)
	Credential() string

	Chats() []*Chat
	ActiveChat() (*Chat, bool)
	IsBusy() bool
}
