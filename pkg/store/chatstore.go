package store

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gemchat/pkg/chat"
)

// Keys under which the two pieces of state are persisted.
const (
	ChatsKey      = "gemini-chats"
	CredentialKey = "gemini-api-key"
)

// ChatStore is the typed persistence layer over a key-value Store. It
// serializes the chat collection as a JSON array, preserving order.
//
// Malformed stored data is discarded with a warning and replaced by empty
// state; it is never surfaced to the caller.
type ChatStore struct {
	kv Store
}

var _ chat.Store = (*ChatStore)(nil)

func NewChatStore(kv Store) *ChatStore {
	return &ChatStore{kv: kv}
}

func (s *ChatStore) LoadChats() ([]*chat.Chat, error) {
	value, err := s.kv.Get(ChatsKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load chats")
	}

	var chats []*chat.Chat
	if err := json.Unmarshal(value, &chats); err != nil {
		log.Warn().Err(err).Msg("discarding malformed persisted chats")
		return nil, nil
	}

	return chats, nil
}

func (s *ChatStore) SaveChats(chats []*chat.Chat) error {
	if chats == nil {
		chats = []*chat.Chat{}
	}

	value, err := json.Marshal(chats)
	if err != nil {
		return errors.Wrap(err, "failed to encode chats")
	}

	return errors.Wrap(s.kv.Set(ChatsKey, value), "failed to save chats")
}

func (s *ChatStore) LoadCredential() (string, error) {
	value, err := s.kv.Get(CredentialKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to load credential")
	}
	return string(value), nil
}

func (s *ChatStore) SaveCredential(credential string) error {
	return errors.Wrap(s.kv.Set(CredentialKey, []byte(credential)), "failed to save credential")
}
