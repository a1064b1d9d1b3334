// Package router implements the broadcast transport: a libp2p host with
// gossipsub topics and mDNS peer discovery on the local network. The sync
// engine and chat consume it through topic-addressed publish/subscribe; all
// delivery, security, and peering concerns live here and below.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
)

const (
	// MaxMessageSize bounds a single gossipsub message. Large enough for
	// uncompressed screenshots (100 MiB).
	MaxMessageSize = 100 * 1024 * 1024

	connectTimeout = 10 * time.Second
)

// Config configures the libp2p host.
type Config struct {
	// ListenIP is the interface address to listen on.
	ListenIP string
	// Port is the TCP listen port; 0 lets the OS assign one.
	Port int
	// ServiceTag names this application in mDNS announcements. Hosts with
	// the same tag discover and dial each other automatically.
	ServiceTag string
}

// Inbound is one message delivered from a subscribed topic.
type Inbound struct {
	Topic string
	From  peer.ID
	Data  []byte
}

// Router is a gossipsub node. Topics must be joined before publishing or
// receiving on them.
type Router struct {
	host host.Host
	ps   *pubsub.PubSub
	mdns mdns.Service

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// New creates the libp2p host, attaches gossipsub, and starts mDNS discovery.
func New(ctx context.Context, cfg Config) (*Router, error) {
	addr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", cfg.ListenIP, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("router: listen address: %w", err)
	}

	h, err := libp2p.New(libp2p.ListenAddrs(addr))
	if err != nil {
		return nil, fmt.Errorf("router: host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h, pubsub.WithMaxMessageSize(MaxMessageSize))
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("router: gossipsub: %w", err)
	}

	r := &Router{
		host:   h,
		ps:     ps,
		topics: make(map[string]*pubsub.Topic),
	}

	svc := mdns.NewMdnsService(h, cfg.ServiceTag, &discoveryNotifee{h: h})
	if err := svc.Start(); err != nil {
		slog.Warn("mDNS discovery unavailable", "err", err)
	} else {
		r.mdns = svc
	}

	slog.Info("node started", "peer", h.ID())
	for _, a := range h.Addrs() {
		slog.Info("listening", "addr", fmt.Sprintf("%s/p2p/%s", a, h.ID()))
	}
	return r, nil
}

// ID returns this node's peer ID.
func (r *Router) ID() peer.ID { return r.host.ID() }

// Join subscribes the host to a topic so it can publish and receive on it.
func (r *Router) Join(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.topics[name]; ok {
		return nil
	}
	t, err := r.ps.Join(name)
	if err != nil {
		return fmt.Errorf("router: join %s: %w", name, err)
	}
	r.topics[name] = t
	return nil
}

func (r *Router) topic(name string) (*pubsub.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[name]
	if !ok {
		return nil, fmt.Errorf("router: topic %s not joined", name)
	}
	return t, nil
}

// Publish sends data to every peer subscribed to the topic.
func (r *Router) Publish(ctx context.Context, name string, data []byte) error {
	t, err := r.topic(name)
	if err != nil {
		return err
	}
	return t.Publish(ctx, data)
}

// PeerCount reports how many remote peers are currently subscribed to the
// topic. The local host is never counted.
func (r *Router) PeerCount(name string) int {
	t, err := r.topic(name)
	if err != nil {
		return 0
	}
	return len(t.ListPeers())
}

// Messages returns a channel of inbound messages on the topic. The pump
// runs until ctx is cancelled; messages this host published are filtered
// out (gossipsub loops local publishes back to local subscribers). A slow
// consumer drops messages rather than stalling the pump.
func (r *Router) Messages(ctx context.Context, name string) (<-chan Inbound, error) {
	t, err := r.topic(name)
	if err != nil {
		return nil, err
	}
	sub, err := t.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("router: subscribe %s: %w", name, err)
	}

	ch := make(chan Inbound, 64)
	go func() {
		defer close(ch)
		defer sub.Cancel()
		for {
			m, err := sub.Next(ctx)
			if err != nil {
				return
			}
			if m.GetFrom() == r.host.ID() || m.ReceivedFrom == r.host.ID() {
				continue
			}
			select {
			case ch <- Inbound{Topic: name, From: m.GetFrom(), Data: m.Data}:
			default:
				slog.Warn("inbound channel full, dropping message", "topic", name)
			}
		}
	}()
	return ch, nil
}

// Connect dials a set of peer multiaddrs. Failures are logged, not fatal —
// mDNS discovery keeps working regardless.
func (r *Router) Connect(ctx context.Context, addrs []string) {
	for _, s := range addrs {
		pi, err := peer.AddrInfoFromString(s)
		if err != nil {
			slog.Error("invalid peer address", "addr", s, "err", err)
			continue
		}
		slog.Info("dialing", "addr", s)
		dctx, cancel := context.WithTimeout(ctx, connectTimeout)
		if err := r.host.Connect(dctx, *pi); err != nil {
			slog.Error("dial failed", "peer", pi.ID, "err", err)
		}
		cancel()
	}
}

// Close shuts down discovery and the host. In-flight subscriptions end when
// their contexts are cancelled.
func (r *Router) Close() error {
	if r.mdns != nil {
		_ = r.mdns.Close()
	}
	return r.host.Close()
}

// discoveryNotifee dials every peer mDNS finds on the local network.
type discoveryNotifee struct {
	h host.Host
}

func (n *discoveryNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == n.h.ID() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := n.h.Connect(ctx, pi); err != nil {
		slog.Debug("mDNS peer dial failed", "peer", pi.ID, "err", err)
		return
	}
	slog.Info("mDNS discovered peer", "peer", pi.ID)
}
