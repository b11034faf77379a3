// Package events carries typed job-lifecycle notifications out of the
// Job Queue (spec §4.7) onto NATS, grounded on the teacher's own
// pkg/events package: the reflect-based event-type naming and
// per-event Unmarshal idiom are kept, but the transport goes straight
// through github.com/nats-io/nats.go instead of the teacher's
// go-micro.dev/v4/events wrapper, since no other go-micro component is
// in scope here and a single-subject publish/subscribe doesn't need a
// service-mesh abstraction on top of it.
package events

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/filez-project/filez/pkg/log"
)

var logger = log.New("events")

// Subject is the single NATS subject every job event is published to;
// subscribers distinguish event kinds by the eventtype header, matching
// the teacher's MetadatakeyEventType idiom.
const Subject = "filez.jobs"

const headerEventType = "eventtype"

// Unmarshaler is implemented by every event type so a generic consumer
// can turn a subject payload back into its concrete type once the type
// name has been read from the message header.
type Unmarshaler interface {
	Unmarshal(v []byte) (interface{}, error)
}

var registry = map[string]Unmarshaler{}

// register associates an event's reflect type name with a zero value
// capable of unmarshaling it; called from each event type's init().
func register(ev Unmarshaler) {
	registry[reflect.TypeOf(ev).String()] = ev
}

// Publisher publishes job lifecycle events. A nil *Publisher is a valid
// no-op (spec: JOBQUEUE_NATS_URL is optional; with it unset, events are
// simply not published).
type Publisher struct {
	conn *nats.Conn
}

// Connect dials the NATS server at url. Pass an empty url to get a
// nil, no-op Publisher.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, errors.Wrap(err, "events: connecting to nats")
	}
	return &Publisher{conn: conn}, nil
}

// Publish emits ev on Subject, tagging the message with its type name
// so a Subscriber can dispatch it back to the right struct.
func (p *Publisher) Publish(ev Unmarshaler) error {
	if p == nil || p.conn == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "events: marshaling event")
	}
	msg := nats.NewMsg(Subject)
	msg.Data = payload
	msg.Header.Set(headerEventType, reflect.TypeOf(ev).String())
	if err := p.conn.PublishMsg(msg); err != nil {
		return errors.Wrap(err, "events: publishing")
	}
	logger.Debug().Str("type", reflect.TypeOf(ev).String()).Msg("published job event")
	return nil
}

func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// Subscribe registers fn to be called with each decoded event received
// on Subject under the given queue group (one copy of each event per
// group, matching the teacher's Consume semantics).
func (p *Publisher) Subscribe(ctx context.Context, group string, fn func(interface{})) error {
	if p == nil || p.conn == nil {
		return nil
	}
	sub, err := p.conn.QueueSubscribe(Subject, group, func(msg *nats.Msg) {
		typeName := msg.Header.Get(headerEventType)
		unmarshaler, ok := registry[typeName]
		if !ok {
			logger.Warn().Str("type", typeName).Msg("received event of unknown type")
			return
		}
		ev, err := unmarshaler.Unmarshal(msg.Data)
		if err != nil {
			logger.Warn().Err(err).Str("type", typeName).Msg("failed to unmarshal event")
			return
		}
		fn(ev)
	})
	if err != nil {
		return errors.Wrap(err, "events: subscribing")
	}
	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}
