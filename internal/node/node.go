// Package node assembles a running clipwave process: the broadcast router,
// the chat loop, and (optionally) the clipboard sync engine. It owns topic
// separation — chat bytes never reach the clipboard applier and vice versa.
package node

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/clipwave/clipwave/internal/chat"
	"github.com/clipwave/clipwave/internal/clip"
	"github.com/clipwave/clipwave/internal/clipsync"
	"github.com/clipwave/clipwave/internal/envelope"
	"github.com/clipwave/clipwave/internal/router"
)

// Config holds everything needed to run a node.
type Config struct {
	ListenIP    string
	Port        int
	Connect     []string // multiaddrs to dial at startup
	Clipboard   bool     // enable clipboard sync
	Interval    time.Duration
	TopicPrefix string

	Stdin  io.Reader
	Stdout io.Writer
}

// envelopeApplier is what the inbound clipboard path needs from the engine.
type envelopeApplier interface {
	Apply(envelope.Envelope) error
}

// Run starts the node and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	r, err := router.New(ctx, router.Config{
		ListenIP:   cfg.ListenIP,
		Port:       cfg.Port,
		ServiceTag: cfg.TopicPrefix,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	chatTopic := cfg.TopicPrefix + "/chat"
	clipTopic := cfg.TopicPrefix + "/clipboard"

	if err := r.Join(chatTopic); err != nil {
		return err
	}
	chatLoop := chat.New(r, chatTopic, cfg.Stdin, cfg.Stdout)
	chatMsgs, err := r.Messages(ctx, chatTopic)
	if err != nil {
		return err
	}
	go chatLoop.Run(ctx)

	// Clipboard sync is opt-in; chat works standalone.
	var (
		clipMsgs <-chan router.Inbound
		applier  *clipsync.Applier
	)
	if cfg.Clipboard {
		adapter, err := clip.New()
		if err != nil {
			return fmt.Errorf("%w: %v", clipsync.ErrAdapterUnavailable, err)
		}
		if err := r.Join(clipTopic); err != nil {
			return err
		}
		clipMsgs, err = r.Messages(ctx, clipTopic)
		if err != nil {
			return err
		}

		state := clipsync.NewState()
		applier = clipsync.NewApplier(adapter, state)
		bc := clipsync.NewBroadcaster(r, clipTopic)
		det := clipsync.NewDetector(adapter, state, cfg.Interval, func(env envelope.Envelope) {
			if err := bc.Broadcast(ctx, env); err != nil {
				slog.Error("clipboard publish failed", "err", err)
			}
		})
		go det.Run(ctx)
		slog.Info("clipboard sync enabled", "topic", clipTopic)
	}

	r.Connect(ctx, cfg.Connect)

	// Inbound dispatch. Each clipboard apply runs in its own goroutine so a
	// slow clipboard write never stalls chat delivery.
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-chatMsgs:
			if !ok {
				chatMsgs = nil
				continue
			}
			chatLoop.HandleInbound(m.From.String(), m.Data)
		case m, ok := <-clipMsgs:
			if !ok {
				clipMsgs = nil
				continue
			}
			go applyInbound(applier, m)
		}
	}
}

// applyInbound decodes one clipboard message and writes it to the local
// clipboard. Malformed bytes are expected background noise on a broadcast
// network: dropped with a log line, never fatal.
func applyInbound(a envelopeApplier, m router.Inbound) {
	env, err := envelope.Decode(m.Data)
	if err != nil {
		slog.Debug("dropping malformed clipboard message", "from", m.From, "err", err)
		return
	}
	slog.Info("clipboard content received", "from", m.From, "kind", env.Kind)
	if err := a.Apply(env); err != nil {
		slog.Error("clipboard apply failed", "err", err)
	}
}
