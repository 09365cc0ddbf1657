package chat_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/gemchat/pkg/chat"
	"github.com/go-go-golems/gemchat/pkg/events"
	"github.com/go-go-golems/gemchat/pkg/store"
)

type stubClient struct {
	reply string
	err   error

	lastPrompt   string
	lastMimeType string
	lastData     string
	textCalls    int
	fileCalls    int
}

func (s *stubClient) GenerateContent(_ context.Context, _ string, prompt string) (string, error) {
	s.textCalls++
	s.lastPrompt = prompt
	return s.reply, s.err
}

func (s *stubClient) GenerateContentWithFile(_ context.Context, _ string, prompt string, mimeType string, base64Data string) (string, error) {
	s.fileCalls++
	s.lastPrompt = prompt
	s.lastMimeType = mimeType
	s.lastData = base64Data
	return s.reply, s.err
}

func newTestManager(t *testing.T, client chat.GenerationClient) (*chat.ManagerImpl, *store.ChatStore) {
	t.Helper()
	chatStore := store.NewChatStore(store.NewInMemoryStore())
	manager := chat.NewManager(
		chat.WithStore(chatStore),
		chat.WithGenerationClient(client),
		chat.WithDefaultCredential("test-key"),
	)
	return manager, chatStore
}

func TestCreateChatSelectsAndPrepends(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{})

	first := manager.CreateChat()
	second := manager.CreateChat()

	chats := manager.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, second.ID, chats[0].ID)
	assert.Equal(t, first.ID, chats[1].ID)

	active, ok := manager.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
}

func TestSendMessageCreatesChatAndAppendsReply(t *testing.T) {
	client := &stubClient{reply: "Hi there"}
	manager, _ := newTestManager(t, client)

	err := manager.SendMessage(context.Background(), "Hello")
	require.NoError(t, err)

	chats := manager.Chats()
	require.Len(t, chats, 1)

	c := chats[0]
	assert.Equal(t, "Hello", c.Title)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, chat.RoleUser, c.Messages[0].Role)
	assert.Equal(t, "Hello", c.Messages[0].Content)
	assert.Equal(t, chat.RoleAssistant, c.Messages[1].Role)
	assert.Equal(t, "Hi there", c.Messages[1].Content)

	assert.False(t, manager.IsBusy())
	assert.Equal(t, 1, client.textCalls)

	active, ok := manager.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, c.ID, active.ID)
}

func TestSendMessageAppendsExactlyTwoMessages(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{reply: "ok"})

	require.NoError(t, manager.SendMessage(context.Background(), "one"))

	active, _ := manager.ActiveChat()
	before := len(active.Messages)
	updatedBefore := active.UpdatedAt

	require.NoError(t, manager.SendMessage(context.Background(), "two"))

	active, _ = manager.ActiveChat()
	require.Len(t, active.Messages, before+2)
	assert.Equal(t, chat.RoleUser, active.Messages[before].Role)
	assert.Equal(t, chat.RoleAssistant, active.Messages[before+1].Role)
	assert.False(t, active.UpdatedAt.Before(updatedBefore))
}

func TestSendMessageMissingCredential(t *testing.T) {
	chatStore := store.NewChatStore(store.NewInMemoryStore())
	manager := chat.NewManager(
		chat.WithStore(chatStore),
		chat.WithGenerationClient(&stubClient{reply: "nope"}),
	)

	err := manager.SendMessage(context.Background(), "Hello")
	require.ErrorIs(t, err, chat.ErrMissingCredential)

	assert.Empty(t, manager.Chats())
	assert.False(t, manager.IsBusy())
}

func TestSendMessageFailureKeepsOptimisticMessage(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	manager, _ := newTestManager(t, client)

	err := manager.SendMessage(context.Background(), "Hello")
	require.Error(t, err)

	chats := manager.Chats()
	require.Len(t, chats, 1)
	require.Len(t, chats[0].Messages, 1)
	assert.Equal(t, chat.RoleUser, chats[0].Messages[0].Role)
	assert.Equal(t, "Hello", chats[0].Messages[0].Content)
	assert.Equal(t, chat.SentinelTitle, chats[0].Title)
	assert.False(t, manager.IsBusy())
}

func TestMessageTimestampsNonDecreasing(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{reply: "ok"})

	require.NoError(t, manager.SendMessage(context.Background(), "one"))
	require.NoError(t, manager.SendMessage(context.Background(), "two"))

	active, _ := manager.ActiveChat()
	require.Len(t, active.Messages, 4)
	for i := 1; i < len(active.Messages); i++ {
		assert.False(t, active.Messages[i].Time.Before(active.Messages[i-1].Time))
	}
}

func TestSelectChatNotFound(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{})

	err := manager.SelectChat(uuid.New())
	require.ErrorIs(t, err, chat.ErrChatNotFound)
}

func TestDeleteActiveChatReselectsMostRecentlyUpdated(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{reply: "ok"})

	oldest := manager.CreateChat()
	middle := manager.CreateChat()
	newest := manager.CreateChat()

	// Make the oldest chat the most recently updated one.
	middle.UpdatedAt = time.Now().Add(-2 * time.Hour)
	newest.UpdatedAt = time.Now().Add(-1 * time.Hour)
	oldest.UpdatedAt = time.Now()

	require.NoError(t, manager.SelectChat(newest.ID))
	require.NoError(t, manager.DeleteChat(newest.ID))

	active, ok := manager.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, oldest.ID, active.ID)
	assert.Len(t, manager.Chats(), 2)
}

func TestDeleteLastChatClearsSelection(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{})

	c := manager.CreateChat()
	require.NoError(t, manager.DeleteChat(c.ID))

	_, ok := manager.ActiveChat()
	assert.False(t, ok)
	assert.Empty(t, manager.Chats())
}

func TestDeleteInactiveChatKeepsSelection(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{})

	first := manager.CreateChat()
	second := manager.CreateChat()

	require.NoError(t, manager.DeleteChat(first.ID))

	active, ok := manager.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
}

func TestDeleteChatNotFound(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{})

	err := manager.DeleteChat(uuid.New())
	require.ErrorIs(t, err, chat.ErrChatNotFound)
}

func TestClearChats(t *testing.T) {
	manager, _ := newTestManager(t, &stubClient{})

	manager.CreateChat()
	manager.CreateChat()
	manager.ClearChats()

	assert.Empty(t, manager.Chats())
	_, ok := manager.ActiveChat()
	assert.False(t, ok)
}

func TestSendFileMessageDefaultPromptAndCaption(t *testing.T) {
	client := &stubClient{reply: "a cat on a sofa"}
	manager, _ := newTestManager(t, client)

	err := manager.SendFileMessage(context.Background(), chat.FileUpload{
		Name:      "cat.png",
		MediaType: "image/png",
		Data:      []byte{0x89, 0x50, 0x4e, 0x47},
		Ref:       "/tmp/cat.png",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, client.fileCalls)
	assert.Equal(t, "Analyze this image and describe what you see in detail.", client.lastPrompt)
	assert.Equal(t, "image/png", client.lastMimeType)
	assert.Equal(t, "iVBORw==", client.lastData)

	active, _ := manager.ActiveChat()
	require.Len(t, active.Messages, 2)

	fileMsg := active.Messages[0]
	assert.Equal(t, "Uploaded image: cat.png", fileMsg.Content)
	require.NotNil(t, fileMsg.Attachment)
	assert.Equal(t, chat.AttachmentKindImage, fileMsg.Attachment.Kind)
	assert.Equal(t, "cat.png", fileMsg.Attachment.Name)

	assert.Equal(t, "a cat on a sofa", active.Messages[1].Content)
}

func TestSendFileMessageDocumentDefaultPrompt(t *testing.T) {
	client := &stubClient{reply: "a summary"}
	manager, _ := newTestManager(t, client)

	err := manager.SendFileMessage(context.Background(), chat.FileUpload{
		Name:      "report.pdf",
		MediaType: "application/pdf",
		Data:      []byte("%PDF"),
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "Analyze the content of this document and provide a detailed summary.", client.lastPrompt)

	active, _ := manager.ActiveChat()
	require.NotNil(t, active.Messages[0].Attachment)
	assert.Equal(t, chat.AttachmentKindDocument, active.Messages[0].Attachment.Kind)
}

func TestSendFileMessageDescriptionIsPromptAndCaption(t *testing.T) {
	client := &stubClient{reply: "done"}
	manager, _ := newTestManager(t, client)

	err := manager.SendFileMessage(context.Background(), chat.FileUpload{
		Name:      "cat.png",
		MediaType: "image/png",
		Data:      []byte{1, 2, 3},
	}, "what breed is this?")
	require.NoError(t, err)

	assert.Equal(t, "what breed is this?", client.lastPrompt)

	active, _ := manager.ActiveChat()
	assert.Equal(t, "what breed is this?", active.Messages[0].Content)
}

type blockingClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingClient) GenerateContent(_ context.Context, _ string, _ string) (string, error) {
	close(b.started)
	<-b.release
	return "done", nil
}

func (b *blockingClient) GenerateContentWithFile(_ context.Context, _ string, _ string, _ string, _ string) (string, error) {
	return "", errors.New("not used")
}

func TestConcurrentSendIsRejected(t *testing.T) {
	client := &blockingClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	manager, _ := newTestManager(t, client)

	done := make(chan error, 1)
	go func() {
		done <- manager.SendMessage(context.Background(), "first")
	}()

	<-client.started
	assert.True(t, manager.IsBusy())

	err := manager.SendMessage(context.Background(), "second")
	require.ErrorIs(t, err, chat.ErrBusy)

	close(client.release)
	require.NoError(t, <-done)
	assert.False(t, manager.IsBusy())

	active, _ := manager.ActiveChat()
	require.Len(t, active.Messages, 2)
}

func TestSetCredentialSkipsPersistingExternalDefault(t *testing.T) {
	manager, chatStore := newTestManager(t, &stubClient{})

	manager.SetCredential("test-key")

	persisted, err := chatStore.LoadCredential()
	require.NoError(t, err)
	assert.Equal(t, "", persisted)

	manager.SetCredential("user-key")

	persisted, err = chatStore.LoadCredential()
	require.NoError(t, err)
	assert.Equal(t, "user-key", persisted)
	assert.Equal(t, "user-key", manager.Credential())
}

func TestNewManagerLoadsPersistedState(t *testing.T) {
	chatStore := store.NewChatStore(store.NewInMemoryStore())

	older := chat.NewChat()
	older.Title = "older"
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := chat.NewChat()
	newer.Title = "newer"

	require.NoError(t, chatStore.SaveChats([]*chat.Chat{older, newer}))
	require.NoError(t, chatStore.SaveCredential("stored-key"))

	manager := chat.NewManager(
		chat.WithStore(chatStore),
		chat.WithGenerationClient(&stubClient{}),
	)

	require.Len(t, manager.Chats(), 2)
	assert.Equal(t, "stored-key", manager.Credential())

	active, ok := manager.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, "newer", active.Title)
}

func TestNewManagerDefaultCredentialWinsOverPersisted(t *testing.T) {
	chatStore := store.NewChatStore(store.NewInMemoryStore())
	require.NoError(t, chatStore.SaveCredential("stored-key"))

	manager := chat.NewManager(
		chat.WithStore(chatStore),
		chat.WithGenerationClient(&stubClient{}),
		chat.WithDefaultCredential("env-key"),
	)

	assert.Equal(t, "env-key", manager.Credential())
}

func TestSendMessagePublishesLifecycleEvents(t *testing.T) {
	pubSub := events.NewGoChannelPubSub()
	defer func() {
		_ = pubSub.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, events.Topic)
	require.NoError(t, err)

	publisher := events.NewPublisherManager()
	publisher.SubscribePublisher(events.Topic, pubSub)

	manager := chat.NewManager(
		chat.WithGenerationClient(&stubClient{reply: "Hi there"}),
		chat.WithDefaultCredential("test-key"),
		chat.WithPublisherManager(publisher),
	)

	require.NoError(t, manager.SendMessage(context.Background(), "Hello"))

	var got []events.EventType
	for i := 0; i < 4; i++ {
		select {
		case msg := <-messages:
			msg.Ack()
			var e events.Event
			require.NoError(t, json.Unmarshal(msg.Payload, &e))
			got = append(got, e.Type)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	// gochannel delivery order is not guaranteed across messages, so only
	// the set of published events is asserted.
	assert.ElementsMatch(t, []events.EventType{
		events.EventTypeMessageAppended,
		events.EventTypeSendStarted,
		events.EventTypeMessageAppended,
		events.EventTypeSendCompleted,
	}, got)
}
