package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog/log"
)

// PublisherManager distributes conversation events to a set of watermill
// publishers. Publishers are subscribed per topic; Publish serializes the
// event to JSON and hands it to every publisher registered for that topic.
//
// The manager keeps a sequence number for outgoing messages, in the order
// they are handled by Publish.
type PublisherManager struct {
	Publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mutex          sync.Mutex
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		Publishers: make(map[string][]message.Publisher),
	}
}

// NewGoChannelPubSub returns an in-process pub/sub suitable for wiring a UI
// subscriber to a PublisherManager.
func NewGoChannelPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

func (s *PublisherManager) SubscribePublisher(topic string, pub message.Publisher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Publishers[topic] = append(s.Publishers[topic], pub)
}

// Publish distributes an event to all publishers subscribed to its topic.
func (s *PublisherManager) Publish(topic string, e Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), b)
	msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", s.sequenceNumber))
	msg.Metadata.Set("event_type", string(e.Type))
	s.sequenceNumber++

	for _, pub := range s.Publishers[topic] {
		if err := pub.Publish(topic, msg); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
		}
	}

	return nil
}

// PublishBlind publishes an event and drops any error after logging it.
// State changes must never fail because a subscriber does.
func (s *PublisherManager) PublishBlind(e Event) {
	if s == nil {
		return
	}
	if err := s.Publish(Topic, e); err != nil {
		log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("failed to publish event")
	}
}
