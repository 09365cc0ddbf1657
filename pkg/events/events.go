package events

import (
	"time"
)

type EventType string

const (
	EventTypeChatCreated       EventType = "chat-created"
	EventTypeChatSelected      EventType = "chat-selected"
	EventTypeChatDeleted       EventType = "chat-deleted"
	EventTypeChatsCleared      EventType = "chats-cleared"
	EventTypeSendStarted       EventType = "send-started"
	EventTypeMessageAppended   EventType = "message-appended"
	EventTypeSendCompleted     EventType = "send-completed"
	EventTypeSendFailed        EventType = "send-failed"
	EventTypeCredentialUpdated EventType = "credential-updated"
)

// Topic is the watermill topic on which conversation lifecycle events are
// distributed.
const Topic = "chat-events"

// Event describes a single conversation state change. MessageID and Error
// are only set for the event types they apply to.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

func NewEvent(type_ EventType) Event {
	return Event{
		Type: type_,
		Time: time.Now(),
	}
}

func (e Event) WithChatID(id string) Event {
	e.ChatID = id
	return e
}

func (e Event) WithMessageID(id string) Event {
	e.MessageID = id
	return e
}

func (e Event) WithRole(role string) Event {
	e.Role = role
	return e
}

func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
