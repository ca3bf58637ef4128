package sse

import (
	"crypto/rand"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Client is one registered stream.
type Client struct {
	id          string
	userID      string
	sessionID   string
	metadata    map[string]any
	connectedAt time.Time

	sink      Sink
	connected atomic.Bool
	// relayed clients are touched by their transport, not on enqueue.
	relayed bool

	mu       sync.Mutex
	lastPing time.Time

	// stopWatch detaches the context teardown trigger.
	stopWatch func() bool
}

// ClientOption configures a client at connect time.
type ClientOption func(*Client)

// WithUserID indexes the client under a user id.
func WithUserID(userID string) ClientOption {
	return func(c *Client) { c.userID = userID }
}

// WithSessionID indexes the client under a session id.
func WithSessionID(sessionID string) ClientOption {
	return func(c *Client) { c.sessionID = sessionID }
}

// WithMetadata stores a metadata value on the client.
func WithMetadata(key string, value any) ClientOption {
	return func(c *Client) {
		if c.metadata == nil {
			c.metadata = make(map[string]any)
		}
		c.metadata[key] = value
	}
}

// WithMetadataMap copies every entry of m into the client metadata.
func WithMetadataMap(m map[string]any) ClientOption {
	return func(c *Client) {
		if len(m) == 0 {
			return
		}
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(m))
		}
		maps.Copy(c.metadata, m)
	}
}

func (c *Client) ID() string        { return c.id }
func (c *Client) UserID() string    { return c.userID }
func (c *Client) SessionID() string { return c.sessionID }

// Connected reports whether the client is still registered.
func (c *Client) Connected() bool { return c.connected.Load() }

// ConnectedAt returns when the client was registered.
func (c *Client) ConnectedAt() time.Time { return c.connectedAt }

// Metadata returns a copy of the connect-time metadata.
func (c *Client) Metadata() map[string]any {
	return maps.Clone(c.metadata)
}

// LastPing returns the time of the last successful write. For a Connect
// stream that is the last frame its transport relayed.
func (c *Client) LastPing() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPing
}

func (c *Client) touch(now time.Time) {
	c.mu.Lock()
	c.lastPing = now
	c.mu.Unlock()
}

func (c *Client) info() ConnectionInfo {
	return ConnectionInfo{
		ClientID:    c.id,
		UserID:      c.userID,
		SessionID:   c.sessionID,
		LastPing:    c.LastPing(),
		Connected:   c.Connected(),
		ConnectedAt: c.connectedAt,
		Metadata:    c.Metadata(),
	}
}

// ConnectionInfo is a read-only summary of one client.
type ConnectionInfo struct {
	ClientID    string         `json:"client_id"`
	UserID      string         `json:"user_id,omitempty"`
	SessionID   string         `json:"session_id,omitempty"`
	LastPing    time.Time      `json:"last_ping"`
	Connected   bool           `json:"connected"`
	ConnectedAt time.Time      `json:"connected_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// newClientID returns a ULID: a millisecond timestamp plus 80 random bits.
func newClientID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
