// Package events is an in-process publish/subscribe broker for tenant event
// streams. Topics are scoped to the tenant's derived namespace, so a
// subscriber can only ever see events published under its own namespace.
package events

import (
	"encoding/base64"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/logging"
	"github.com/matchid-dev/appgate/pkg/namespace"
)

// Envelope is one delivered event. Data is base64 so arbitrary payload bytes
// survive the JSON framing.
type Envelope struct {
	Topic     string `json:"topic"`
	Data      string `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Subscription is one subscriber's receive side. Events arrive on C; the
// channel is closed when the subscription or the broker shuts down.
type Subscription struct {
	C chan Envelope

	ns     namespace.Namespace
	topic  string
	broker *Broker
	once   sync.Once
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
		close(s.C)
	})
}

// Broker fans events out to per-namespace topic subscribers.
type Broker struct {
	logger *logging.ColoredLogger

	mu     sync.RWMutex
	subs   map[namespace.Namespace]map[string]map[*Subscription]struct{}
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker(logger *logging.ColoredLogger) *Broker {
	return &Broker{
		logger: logger,
		subs:   make(map[namespace.Namespace]map[string]map[*Subscription]struct{}),
	}
}

// Subscribe attaches a subscriber to a topic within ns. buffer bounds the
// subscriber's queue; a full queue drops events rather than blocking the
// publisher. Returns nil when the broker is shut down.
func (b *Broker) Subscribe(ns namespace.Namespace, topic string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 128
	}
	sub := &Subscription{
		C:      make(chan Envelope, buffer),
		ns:     ns,
		topic:  topic,
		broker: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	topics, ok := b.subs[ns]
	if !ok {
		topics = make(map[string]map[*Subscription]struct{})
		b.subs[ns] = topics
	}
	set, ok := topics[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		topics[topic] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers data to every subscriber of the topic within ns and
// returns how many subscribers received it. Slow subscribers are skipped.
func (b *Broker) Publish(ns namespace.Namespace, topic string, data []byte) int {
	env := Envelope{
		Topic:     topic,
		Data:      base64.StdEncoding.EncodeToString(data),
		Timestamp: time.Now().UnixMilli(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}

	delivered := 0
	for sub := range b.subs[ns][topic] {
		select {
		case sub.C <- env:
			delivered++
		default:
			b.logger.ComponentWarn(logging.ComponentEvents, "subscriber slow, dropping event",
				zap.String("namespace", ns.String()),
				zap.String("topic", topic))
		}
	}
	return delivered
}

// Topics lists the topics within ns that currently have subscribers.
func (b *Broker) Topics(ns namespace.Namespace) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]string, 0, len(b.subs[ns]))
	for topic, set := range b.subs[ns] {
		if len(set) > 0 {
			topics = append(topics, topic)
		}
	}
	return topics
}

// Close shuts the broker down and closes every subscriber channel.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[namespace.Namespace]map[string]map[*Subscription]struct{})
	b.mu.Unlock()

	for _, topics := range subs {
		for _, set := range topics {
			for sub := range set {
				sub.once.Do(func() { close(sub.C) })
			}
		}
	}
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.ns][sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs[sub.ns], sub.topic)
			if len(b.subs[sub.ns]) == 0 {
				delete(b.subs, sub.ns)
			}
		}
	}
}
