package clipsync

import (
	"context"
	"log/slog"

	"github.com/clipwave/clipwave/internal/envelope"
)

// Transport is the slice of the broadcast router the engine consumes:
// topic-addressed publish plus a view of how many remote peers are
// subscribed to a topic.
type Transport interface {
	Publish(ctx context.Context, topic string, data []byte) error
	PeerCount(topic string) int
}

// Broadcaster serialises detected envelopes and hands them to the transport.
type Broadcaster struct {
	transport Transport
	topic     string
}

// NewBroadcaster returns a Broadcaster publishing on the given topic.
func NewBroadcaster(transport Transport, topic string) *Broadcaster {
	return &Broadcaster{transport: transport, topic: topic}
}

// Broadcast publishes env unless no remote peer is subscribed to the topic,
// in which case the send is skipped as a no-op. Skipping saves the bandwidth
// of serialising clipboard content nobody will receive; it is a policy, not
// a transport guarantee.
func (b *Broadcaster) Broadcast(ctx context.Context, env envelope.Envelope) error {
	peers := b.transport.PeerCount(b.topic)
	if peers == 0 {
		slog.Debug("no peers subscribed, skipping publish", "topic", b.topic, "kind", env.Kind)
		return nil
	}
	data, err := env.Encode()
	if err != nil {
		return err
	}
	if err := b.transport.Publish(ctx, b.topic, data); err != nil {
		return err
	}
	slog.Info("clipboard content published", "topic", b.topic, "kind", env.Kind, "peers", peers)
	return nil
}
