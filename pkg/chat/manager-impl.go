package chat

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gemchat/pkg/events"
)

const (
	defaultImagePrompt    = "Analyze this image and describe what you see in detail."
	defaultDocumentPrompt = "Analyze the content of this document and provide a detailed summary."
)

// ManagerImpl is the canonical Manager implementation. The chat collection
// is kept ordered, newly created chats first; the zero UUID means no chat
// is selected.
type ManagerImpl struct {
	mu sync.Mutex

	chats    []*Chat
	activeID uuid.UUID

	credential        string
	defaultCredential string
	busy              bool

	store     Store
	client    GenerationClient
	publisher *events.PublisherManager
}

var _ Manager = (*ManagerImpl)(nil)

type ManagerOption func(*ManagerImpl)

func WithStore(s Store) ManagerOption {
	return func(m *ManagerImpl) {
		m.store = s
	}
}

func WithGenerationClient(c GenerationClient) ManagerOption {
	return func(m *ManagerImpl) {
		m.client = c
	}
}

func WithPublisherManager(p *events.PublisherManager) ManagerOption {
	return func(m *ManagerImpl) {
		m.publisher = p
	}
}

// WithDefaultCredential sets an externally supplied credential (for example
// from build-time or environment configuration). It takes precedence over a
// persisted credential, and SetCredential will not persist a value equal to
// it.
func WithDefaultCredential(credential string) ManagerOption {
	return func(m *ManagerImpl) {
		m.defaultCredential = credential
	}
}

// NewManager creates a manager and, when a store is configured, loads the
// persisted chat collection and credential. The most-recently-updated chat
// becomes the active one. Malformed persisted state has already been
// discarded by the store layer, so loading never fails the constructor.
func NewManager(options ...ManagerOption) *ManagerImpl {
	ret := &ManagerImpl{}

	for _, option := range options {
		option(ret)
	}

	ret.credential = ret.defaultCredential

	if ret.store != nil {
		chats, err := ret.store.LoadChats()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load persisted chats")
		} else {
			ret.chats = chats
		}

		if c := ret.mostRecentlyUpdatedLocked(); c != nil {
			ret.activeID = c.ID
		}

		// Only fall back to the persisted credential when no external
		// default was supplied.
		if ret.credential == "" {
			credential, err := ret.store.LoadCredential()
			if err != nil {
				log.Warn().Err(err).Msg("failed to load persisted credential")
			} else {
				ret.credential = credential
			}
		}
	}

	log.Debug().
		Int("chat_count", len(ret.chats)).
		Bool("has_credential", ret.credential != "").
		Msg("conversation manager initialized")

	return ret
}

// CreateChat creates an empty chat, inserts it at the front of the
// collection and makes it the active chat.
func (m *ManagerImpl) CreateChat() *Chat {
	m.mu.Lock()
	c := NewChat()
	m.chats = append([]*Chat{c}, m.chats...)
	m.activeID = c.ID
	m.persistChatsLocked()
	m.mu.Unlock()

	log.Debug().Str("chat_id", c.ID.String()).Msg("created chat")
	m.publisher.PublishBlind(events.NewEvent(events.EventTypeChatCreated).WithChatID(c.ID.String()))

	return c
}

// SelectChat makes the chat with the given ID the active one.
func (m *ManagerImpl) SelectChat(id uuid.UUID) error {
	m.mu.Lock()
	if _, c := m.findChatLocked(id); c == nil {
		m.mu.Unlock()
		return errors.Wrapf(ErrChatNotFound, "select %s", id)
	}
	m.activeID = id
	m.mu.Unlock()

	m.publisher.PublishBlind(events.NewEvent(events.EventTypeChatSelected).WithChatID(id.String()))
	return nil
}

// DeleteChat removes a chat from the collection. When the active chat is
// deleted, the most-recently-updated remaining chat is selected, or the
// selection is cleared if none remain.
func (m *ManagerImpl) DeleteChat(id uuid.UUID) error {
	m.mu.Lock()
	idx, c := m.findChatLocked(id)
	if c == nil {
		m.mu.Unlock()
		return errors.Wrapf(ErrChatNotFound, "delete %s", id)
	}

	m.chats = append(m.chats[:idx], m.chats[idx+1:]...)

	if m.activeID == id {
		m.activeID = uuid.Nil
		if next := m.mostRecentlyUpdatedLocked(); next != nil {
			m.activeID = next.ID
		}
	}

	m.persistChatsLocked()
	m.mu.Unlock()

	log.Debug().Str("chat_id", id.String()).Msg("deleted chat")
	m.publisher.PublishBlind(events.NewEvent(events.EventTypeChatDeleted).WithChatID(id.String()))
	return nil
}

// ClearChats empties the collection and clears the active selection.
func (m *ManagerImpl) ClearChats() {
	m.mu.Lock()
	m.chats = nil
	m.activeID = uuid.Nil
	m.persistChatsLocked()
	m.mu.Unlock()

	m.publisher.PublishBlind(events.NewEvent(events.EventTypeChatsCleared))
}

// SendMessage appends a user message to the active chat (creating one if
// needed), then requests a reply from the generation API and appends it.
//
// Only the latest message content is sent to the API, not the accumulated
// conversation history.
func (m *ManagerImpl) SendMessage(ctx context.Context, content string) error {
	userMsg := NewMessage(content, RoleUser)
	return m.send(ctx, userMsg, func(ctx context.Context, apiKey string) (string, error) {
		return m.client.GenerateContent(ctx, apiKey, content)
	})
}

// SendFileMessage appends an attachment message describing the upload, then
// asks the generation API to analyze the payload. The attachment kind is
// derived from the declared media type; description, when given, doubles as
// both the message caption and the analysis prompt.
func (m *ManagerImpl) SendFileMessage(ctx context.Context, file FileUpload, description string) error {
	kind := KindForMediaType(file.MediaType)
	fileMsg := NewAttachmentMessage(file.Ref, kind, file.Name, description)

	prompt := description
	if prompt == "" {
		prompt = defaultDocumentPrompt
		if kind == AttachmentKindImage {
			prompt = defaultImagePrompt
		}
	}

	data := base64.StdEncoding.EncodeToString(file.Data)

	return m.send(ctx, fileMsg, func(ctx context.Context, apiKey string) (string, error) {
		return m.client.GenerateContentWithFile(ctx, apiKey, prompt, file.MediaType, data)
	})
}

// send is the shared core of both send operations: guard checks, the
// optimistic update, the remote call, and the confirmed update.
func (m *ManagerImpl) send(ctx context.Context, userMsg *Message, call func(ctx context.Context, apiKey string) (string, error)) error {
	m.mu.Lock()
	if m.credential == "" {
		m.mu.Unlock()
		return ErrMissingCredential
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.client == nil {
		m.mu.Unlock()
		return errors.New("no generation client configured")
	}

	c := m.ensureActiveChatLocked()
	c.Messages = append(c.Messages, userMsg)
	c.UpdatedAt = userMsg.Time
	m.persistChatsLocked()

	m.busy = true
	apiKey := m.credential
	chatID := c.ID
	m.mu.Unlock()

	m.publisher.PublishBlind(events.NewEvent(events.EventTypeMessageAppended).
		WithChatID(chatID.String()).
		WithMessageID(userMsg.ID.String()).
		WithRole(string(userMsg.Role)))
	m.publisher.PublishBlind(events.NewEvent(events.EventTypeSendStarted).WithChatID(chatID.String()))

	log.Debug().
		Str("chat_id", chatID.String()).
		Str("message_id", userMsg.ID.String()).
		Msg("sending message to generation API")

	reply, err := call(ctx, apiKey)

	m.mu.Lock()
	m.busy = false
	if err != nil {
		m.mu.Unlock()
		log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("generation request failed")
		m.publisher.PublishBlind(events.NewEvent(events.EventTypeSendFailed).
			WithChatID(chatID.String()).
			WithError(err))
		return errors.Wrap(err, "generation request failed")
	}

	assistantMsg := NewMessage(reply, RoleAssistant)
	c.Messages = append(c.Messages, assistantMsg)
	c.UpdatedAt = assistantMsg.Time
	*c = DeriveTitle(*c)

	// The chat may have been deleted while the request was in flight; put
	// it back so the confirmed reply is never lost.
	if _, existing := m.findChatLocked(chatID); existing == nil {
		m.chats = append([]*Chat{c}, m.chats...)
	}
	m.activeID = chatID
	m.persistChatsLocked()
	m.mu.Unlock()

	m.publisher.PublishBlind(events.NewEvent(events.EventTypeMessageAppended).
		WithChatID(chatID.String()).
		WithMessageID(assistantMsg.ID.String()).
		WithRole(string(assistantMsg.Role)))
	m.publisher.PublishBlind(events.NewEvent(events.EventTypeSendCompleted).WithChatID(chatID.String()))

	return nil
}

// SetCredential replaces the credential. The value is only persisted when
// it differs from the externally supplied default, so an environment-
// provided key is never overwritten in the store.
func (m *ManagerImpl) SetCredential(credential string) {
	m.mu.Lock()
	m.credential = credential
	if credential != m.defaultCredential || m.defaultCredential == "" {
		m.persistCredentialLocked()
	}
	m.mu.Unlock()

	m.publisher.PublishBlind(events.NewEvent(events.EventTypeCredentialUpdated))
}

func (m *ManagerImpl) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential
}

// Chats returns a snapshot of the ordered chat collection.
func (m *ManagerImpl) Chats() []*Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]*Chat, len(m.chats))
	copy(ret, m.chats)
	return ret
}

// ActiveChat returns the currently selected chat, if any.
func (m *ManagerImpl) ActiveChat() (*Chat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == uuid.Nil {
		return nil, false
	}
	_, c := m.findChatLocked(m.activeID)
	return c, c != nil
}

func (m *ManagerImpl) IsBusy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// ensureActiveChatLocked returns the active chat, creating and selecting a
// new one when there is no selection.
func (m *ManagerImpl) ensureActiveChatLocked() *Chat {
	if m.activeID != uuid.Nil {
		if _, c := m.findChatLocked(m.activeID); c != nil {
			return c
		}
	}

	c := NewChat()
	m.chats = append([]*Chat{c}, m.chats...)
	m.activeID = c.ID
	return c
}

func (m *ManagerImpl) findChatLocked(id uuid.UUID) (int, *Chat) {
	for i, c := range m.chats {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

func (m *ManagerImpl) mostRecentlyUpdatedLocked() *Chat {
	var ret *Chat
	for _, c := range m.chats {
		if ret == nil || c.UpdatedAt.After(ret.UpdatedAt) {
			ret = c
		}
	}
	return ret
}

// Persistence is fire-and-forget: failures are logged, never propagated.
func (m *ManagerImpl) persistChatsLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.SaveChats(m.chats); err != nil {
		log.Warn().Err(err).Msg("failed to persist chats")
	}
}

func (m *ManagerImpl) persistCredentialLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.SaveCredential(m.credential); err != nil {
		log.Warn().Err(err).Msg("failed to persist credential")
	}
}
