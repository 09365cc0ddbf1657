package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherManagerDistributesEvents(t *testing.T) {
	pubSub := NewGoChannelPubSub()
	defer func() {
		_ = pubSub.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, Topic)
	require.NoError(t, err)

	manager := NewPublisherManager()
	manager.SubscribePublisher(Topic, pubSub)

	e := NewEvent(EventTypeChatCreated).WithChatID("chat-1")
	require.NoError(t, manager.Publish(Topic, e))

	select {
	case msg := <-messages:
		msg.Ack()

		var got Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, EventTypeChatCreated, got.Type)
		assert.Equal(t, "chat-1", got.ChatID)
		assert.Equal(t, "0", msg.Metadata.Get("sequence_number"))
		assert.Equal(t, "chat-created", msg.Metadata.Get("event_type"))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublisherManagerSequenceNumbersIncrease(t *testing.T) {
	pubSub := NewGoChannelPubSub()
	defer func() {
		_ = pubSub.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, Topic)
	require.NoError(t, err)

	manager := NewPublisherManager()
	manager.SubscribePublisher(Topic, pubSub)

	require.NoError(t, manager.Publish(Topic, NewEvent(EventTypeSendStarted)))
	require.NoError(t, manager.Publish(Topic, NewEvent(EventTypeSendCompleted)))

	first := <-messages
	first.Ack()
	second := <-messages
	second.Ack()

	// gochannel delivery order is not guaranteed across messages.
	assert.ElementsMatch(t,
		[]string{"0", "1"},
		[]string{first.Metadata.Get("sequence_number"), second.Metadata.Get("sequence_number")})
}

func TestPublishBlindOnNilManagerIsSafe(t *testing.T) {
	var manager *PublisherManager
	manager.PublishBlind(NewEvent(EventTypeSendFailed))
}

func TestPublishWithoutSubscribersSucceeds(t *testing.T) {
	manager := NewPublisherManager()
	require.NoError(t, manager.Publish(Topic, NewEvent(EventTypeChatsCleared)))
}

func TestEventWithError(t *testing.T) {
	e := NewEvent(EventTypeSendFailed).WithError(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), e.Error)

	e = NewEvent(EventTypeSendFailed).WithError(nil)
	assert.Equal(t, "", e.Error)
}
