// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sink forwards bus events to external streams. A Sink is registered
// on the event bus like any other subscriber and writes from its own worker,
// so a slow or unreachable broker never holds up a committed operation.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/metavault/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultQueueSize      = 1000
	DefaultPublishTimeout = 5 * time.Second
)

// Envelope is the wire form of an event
type Envelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      event.EventType `json:"type"`
	Data      any             `json:"data"`
}

func Encode(evt event.Event) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      evt.Type,
		Timestamp: evt.Timestamp.UTC(),
		Data:      evt.Data,
	})
}

// Publisher writes one encoded event to an external system
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

type Config struct {
	Publisher    Publisher
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Name labels logs and metrics, e.g. "redis" or "kafka"
	Name           string
	QueueSize      int
	PublishTimeout time.Duration
}

// Sink implements event.Subscriber on top of a Publisher
type Sink struct {
	publisher Publisher
	logger    *slog.Logger
	queue     chan event.Event
	published prometheus.Counter
	failed    prometheus.Counter
	dropped   prometheus.Counter
	name      string
	timeout   time.Duration
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closeOnce sync.Once
	closed    bool
}

func New(cfg Config) *Sink {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	s := &Sink{
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With("component", "sink", "sink", cfg.Name),
		queue:     make(chan event.Event, cfg.QueueSize),
		name:      cfg.Name,
		timeout:   cfg.PublishTimeout,
	}
	if cfg.PromRegistry != nil {
		promautoFactory := promauto.With(cfg.PromRegistry)
		labels := prometheus.Labels{"sink": cfg.Name}
		s.published = promautoFactory.NewCounter(prometheus.CounterOpts{
			Name:        "metavault_sink_published_total",
			Help:        "events written to an external sink",
			ConstLabels: labels,
		})
		s.failed = promautoFactory.NewCounter(prometheus.CounterOpts{
			Name:        "metavault_sink_failures_total",
			Help:        "events an external sink failed to write",
			ConstLabels: labels,
		})
		s.dropped = promautoFactory.NewCounter(prometheus.CounterOpts{
			Name:        "metavault_sink_dropped_total",
			Help:        "events dropped because the sink queue was full",
			ConstLabels: labels,
		})
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Register subscribes the sink to every domain event type
func (s *Sink) Register(bus *event.EventBus) []event.EventSubscriberId {
	types := event.DomainEventTypes()
	ret := make([]event.EventSubscriberId, 0, len(types))
	for _, evtType := range types {
		ret = append(ret, bus.RegisterSubscriber(evtType, s))
	}
	return ret
}

// Deliver queues evt for the worker. It drops the event when the queue is
// full
func (s *Sink) Deliver(evt event.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.queue <- evt:
	default:
		s.logger.Warn("sink queue full, dropping event", "type", evt.Type)
		if s.dropped != nil {
			s.dropped.Inc()
		}
	}
	return nil
}

// Close drains queued events and closes the publisher. It is safe to call
// more than once
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
		s.wg.Wait()
		if err := s.publisher.Close(); err != nil {
			s.logger.Warn("failed to close sink publisher", "error", err)
		}
	})
}

func (s *Sink) run() {
	defer s.wg.Done()
	for evt := range s.queue {
		if err := s.publish(evt); err != nil {
			s.logger.Warn(
				"failed to publish event",
				"type", evt.Type,
				"error", err,
			)
			if s.failed != nil {
				s.failed.Inc()
			}
			continue
		}
		if s.published != nil {
			s.published.Inc()
		}
	}
}

func (s *Sink) publish(evt event.Event) error {
	payload, err := Encode(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.publisher.Publish(ctx, string(evt.Type), payload)
}
