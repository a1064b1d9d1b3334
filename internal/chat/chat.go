// Package chat implements the interactive free-text side channel: stdin
// lines go out on the chat topic, inbound chat lines are printed.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

// Transport is the slice of the broadcast router chat consumes.
type Transport interface {
	Publish(ctx context.Context, topic string, data []byte) error
	PeerCount(topic string) int
}

// Loop reads lines from in and publishes them to the chat topic.
type Loop struct {
	transport Transport
	topic     string
	in        io.Reader
	out       io.Writer
}

// New returns a chat loop reading from in and printing inbound lines to out.
func New(transport Transport, topic string, in io.Reader, out io.Writer) *Loop {
	return &Loop{transport: transport, topic: topic, in: in, out: out}
}

// Run consumes input lines until EOF or ctx cancellation. Empty lines are
// ignored. When no peers are subscribed the line is echoed locally instead
// of being published.
func (l *Loop) Run(ctx context.Context) {
	slog.Info("enter messages to send to peers")
	sc := bufio.NewScanner(l.in)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := sc.Text()
		if line == "" {
			continue
		}
		if l.transport.PeerCount(l.topic) == 0 {
			fmt.Fprintf(l.out, "[local] %s\n", line)
			slog.Info("no peers connected, message not broadcast")
			continue
		}
		if err := l.transport.Publish(ctx, l.topic, []byte(line)); err != nil {
			slog.Error("chat publish failed", "err", err)
			continue
		}
		slog.Debug("chat message sent", "bytes", len(line))
	}
	if err := sc.Err(); err != nil {
		slog.Error("stdin read failed", "err", err)
	}
}

// HandleInbound prints one chat message received from a peer. Non-UTF-8
// payloads are dropped.
func (l *Loop) HandleInbound(from string, data []byte) {
	if !utf8.Valid(data) {
		slog.Debug("dropping non-UTF-8 chat message", "from", from)
		return
	}
	fmt.Fprintf(l.out, "[%s] %s\n", from, data)
}
