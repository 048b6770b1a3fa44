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

package event

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/metavault/internal/test/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var testTime = time.Unix(1700000000, 0)

type mockSubscriber struct {
	err       error
	delivered atomic.Int32
	closed    atomic.Bool
}

func (m *mockSubscriber) Deliver(Event) error {
	m.delivered.Add(1)
	return m.err
}

func (m *mockSubscriber) Close() {
	m.closed.Store(true)
}

func TestSubscribePublish(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := NewEventBus(prometheus.NewRegistry(), nil)
	defer eb.Stop()
	_, ch := eb.Subscribe(TokensClaimedEventType)
	eb.Publish(
		TokensClaimedEventType,
		NewEvent(TokensClaimedEventType, testTime, TokensClaimedEvent{ScheduleID: 3}),
	)
	select {
	case evt := <-ch:
		assert.Equal(t, TokensClaimedEventType, evt.Type)
		assert.Equal(t, testTime, evt.Timestamp)
		data, ok := evt.Data.(TokensClaimedEvent)
		require.True(t, ok)
		assert.Equal(t, uint64(3), data.ScheduleID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeFuncAndUnsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	got := make(chan Event, 1)
	subId := eb.SubscribeFunc(CratesOpenedEventType, func(evt Event) {
		got <- evt
	})
	eb.Publish(CratesOpenedEventType, NewEvent(CratesOpenedEventType, testTime, nil))
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler")
	}
	eb.Unsubscribe(CratesOpenedEventType, subId)
	eb.Publish(CratesOpenedEventType, NewEvent(CratesOpenedEventType, testTime, nil))
	select {
	case <-got:
		t.Fatal("handler called after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeliverFailureUnregisters(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	sub := &mockSubscriber{err: errors.New("deliver failed")}
	subId := eb.RegisterSubscriber("test.fail", sub)
	require.NotZero(t, subId)
	eb.Publish("test.fail", NewEvent("test.fail", testTime, "x"))
	eb.Publish("test.fail", NewEvent("test.fail", testTime, "y"))
	assert.Equal(t, int32(1), sub.delivered.Load())
	assert.True(t, sub.closed.Load())
}

func TestChannelSubscriberDropsWhenFull(t *testing.T) {
	const bufferSize = 2
	sub := newChannelSubscriber(bufferSize, nil)
	for i := range bufferSize + 3 {
		require.NoError(t, sub.Deliver(NewEvent("test", testTime, i)))
	}
	assert.Len(t, sub.ch, bufferSize)
	sub.Close()
	sub.Close()
	require.NoError(t, sub.Deliver(NewEvent("test", testTime, "after-close")))
}

func TestPublishAsync(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := NewEventBus(nil, nil)
	sub := &mockSubscriber{}
	eb.RegisterSubscriber(ItemsCreditedEventType, sub)
	require.True(t, eb.PublishAsync(ItemsCreditedEventType, NewEvent(ItemsCreditedEventType, testTime, nil)))
	testutil.WaitForCondition(t, func() bool {
		return sub.delivered.Load() == 1
	}, time.Second, "async event delivered")
	eb.Stop()
	assert.True(t, sub.closed.Load())
	assert.False(t, eb.PublishAsync(ItemsCreditedEventType, NewEvent(ItemsCreditedEventType, testTime, nil)))
	// Stop is idempotent
	eb.Stop()
}

func TestDomainEventTypesUnique(t *testing.T) {
	seen := make(map[EventType]bool)
	for _, evtType := range DomainEventTypes() {
		assert.False(t, seen[evtType], "duplicate %s", evtType)
		seen[evtType] = true
	}
}
