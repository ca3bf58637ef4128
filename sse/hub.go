package sse

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	apperrors "github.com/kbukum/pushhub/errors"
	"github.com/kbukum/pushhub/logger"
)

// Hub is the connection registry and dispatcher.
//
// The primary map and the user/session indexes are guarded by one lock and
// always change together. Delivery takes a snapshot under the read lock and
// writes to sinks without holding it.
type Hub struct {
	cfg      Config
	clock    clockwork.Clock
	log      *logger.Logger
	recorder Recorder

	mu        sync.RWMutex
	clients   map[string]*Client
	byUser    map[string]map[string]struct{}
	bySession map[string]map[string]struct{}
	destroyed bool

	startedAt        time.Time
	totalConnections atomic.Int64
	totalEventsSent  atomic.Int64
	totalErrors      atomic.Int64

	done     chan struct{}
	stopOnce sync.Once
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) HubOption {
	return func(h *Hub) { h.clock = clock }
}

// WithLogger sets the base logger. It is ignored when logging is disabled.
func WithLogger(l *logger.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) HubOption {
	return func(h *Hub) {
		if r != nil {
			h.recorder = r
		}
	}
}

// NewHub creates a hub. Zero config fields take their defaults.
func NewHub(cfg Config, opts ...HubOption) *Hub {
	cfg.ApplyDefaults()
	h := &Hub{
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
		recorder:  nopRecorder{},
		clients:   make(map[string]*Client),
		byUser:    make(map[string]map[string]struct{}),
		bySession: make(map[string]map[string]struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	switch {
	case !cfg.LoggingEnabled():
		h.log = logger.NewNop()
	case h.log == nil:
		h.log = logger.WithComponent("sse.hub")
	default:
		h.log = h.log.WithComponent("sse.hub")
	}
	h.startedAt = h.clock.Now()
	return h
}

// Config returns the effective configuration.
func (h *Hub) Config() Config { return h.cfg }

// Connect registers a client backed by a bounded frame queue and returns
// the stream the transport should relay. Cancelling ctx disconnects the
// client. Its last ping only advances when the transport calls
// Stream.Delivered, so a stream nobody drains times out.
func (h *Hub) Connect(ctx context.Context, opts ...ClientOption) (*Stream, error) {
	sink := newChanSink(h.cfg.SendBuffer)
	opts = append(opts[:len(opts):len(opts)], func(c *Client) { c.relayed = true })
	id, err := h.Attach(ctx, sink, opts...)
	if err != nil {
		return nil, err
	}
	return &Stream{ID: id, Frames: sink.ch, hub: h}, nil
}

// Attach registers a client that writes to a caller-supplied sink. The
// connected frame is the first thing written to it.
func (h *Hub) Attach(ctx context.Context, sink Sink, opts ...ClientOption) (string, error) {
	now := h.clock.Now()
	c := &Client{
		id:          newClientID(now),
		sink:        sink,
		connectedAt: now,
		lastPing:    now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.connected.Store(true)

	frame, err := Event{
		Type:      EventTypeConnected,
		Data:      connectedPayload{ClientID: c.id, Timestamp: formatTimestamp(now)},
		Timestamp: now,
	}.Encode()
	if err != nil {
		return "", apperrors.Internal(err)
	}

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		appErr := apperrors.ServiceUnavailable("event hub")
		h.recordError(appErr, "")
		return "", appErr
	}
	if len(h.clients) >= h.cfg.MaxConnections {
		h.mu.Unlock()
		appErr := apperrors.CapacityExceeded(h.cfg.MaxConnections)
		h.recordError(appErr, "")
		return "", appErr
	}
	// Written under the lock so no other send can reach the sink first.
	if err := sink.Write(frame); err != nil {
		h.mu.Unlock()
		appErr := apperrors.SendFailure(c.id, err)
		h.recordError(appErr, c.id)
		return "", appErr
	}
	h.clients[c.id] = c
	addToIndex(h.byUser, c.userID, c.id)
	addToIndex(h.bySession, c.sessionID, c.id)
	c.stopWatch = context.AfterFunc(ctx, func() { h.disconnect(c.id, ReasonTransport) })
	active := len(h.clients)
	h.mu.Unlock()

	h.totalConnections.Add(1)
	h.recorder.ClientConnected()
	h.log.Info("client connected", map[string]interface{}{
		logger.FieldClientID:  c.id,
		logger.FieldUserID:    c.userID,
		logger.FieldSessionID: c.sessionID,
		"active":              active,
	})
	return c.id, nil
}

// SendToClient delivers event to one client. It returns false when the
// client is unknown, already disconnected, or its sink rejects the frame.
// It never disconnects the client itself.
func (h *Hub) SendToClient(clientID string, event Event) bool {
	h.mu.RLock()
	c := h.clients[clientID]
	h.mu.RUnlock()
	if c == nil {
		return false
	}
	frame, ok := h.encode(&event)
	if !ok {
		return false
	}
	return h.deliver(c, frame, event.Type)
}

// Broadcast delivers event to every connected client.
func (h *Hub) Broadcast(event Event) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return h.fanOut(targets, event)
}

// SendToUser delivers event to every client of userID.
func (h *Hub) SendToUser(userID string, event Event) int {
	return h.fanOut(h.indexed(h.byUser, userID), event)
}

// SendToSession delivers event to every client of sessionID.
func (h *Hub) SendToSession(sessionID string, event Event) int {
	return h.fanOut(h.indexed(h.bySession, sessionID), event)
}

// SendMessage dispatches msg by its target. A targeted message without a
// target id is recorded as an error and delivers nothing. Unknown targets
// fall back to a broadcast.
func (h *Hub) SendMessage(msg Message) int {
	if msg.Target.RequiresID() && msg.TargetID == "" {
		h.recordError(apperrors.MissingTargetID(string(msg.Target)), "")
		return 0
	}
	switch msg.Target {
	case TargetAll:
		return h.Broadcast(msg.Event)
	case TargetUser:
		return h.SendToUser(msg.TargetID, msg.Event)
	case TargetSession:
		return h.SendToSession(msg.TargetID, msg.Event)
	case TargetClient:
		if h.SendToClient(msg.TargetID, msg.Event) {
			return 1
		}
		return 0
	default:
		h.log.Warn("unknown target, broadcasting", map[string]interface{}{
			logger.FieldTarget: string(msg.Target),
		})
		return h.Broadcast(msg.Event)
	}
}

// DisconnectClient removes a client and closes its sink. It returns false
// if the client was not registered.
func (h *Hub) DisconnectClient(clientID string) bool {
	return h.disconnect(clientID, ReasonExplicit)
}

// DisconnectUser disconnects every client of userID and returns how many
// were removed.
func (h *Hub) DisconnectUser(userID string) int {
	return h.disconnectAll(clientIDs(h.indexed(h.byUser, userID)), ReasonExplicit)
}

// DisconnectSession disconnects every client of sessionID.
func (h *Hub) DisconnectSession(sessionID string) int {
	return h.disconnectAll(clientIDs(h.indexed(h.bySession, sessionID)), ReasonExplicit)
}

// Run performs a heartbeat sweep every HeartbeatInterval until Destroy is
// called. It blocks; start it in its own goroutine.
func (h *Hub) Run() {
	ticker := h.clock.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.Chan():
			h.sweep()
		}
	}
}

// sweep evicts clients idle for longer than ConnectionTimeout and sends a
// heartbeat to the rest. Evictions happen after the pass.
func (h *Hub) sweep() {
	now := h.clock.Now()
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	frame, err := Event{
		Type: EventTypeHeartbeat,
		Data: heartbeatPayload{Timestamp: formatTimestamp(now)},
	}.Encode()
	if err != nil {
		h.recordError(apperrors.Internal(err), "")
		return
	}

	type eviction struct{ id, reason string }
	var evict []eviction
	for _, c := range targets {
		if !c.Connected() {
			continue
		}
		if idle := now.Sub(c.LastPing()); idle > h.cfg.ConnectionTimeout {
			h.recordError(apperrors.ClientTimeout(c.id, idle), c.id)
			evict = append(evict, eviction{c.id, ReasonTimeout})
			continue
		}
		if !h.deliver(c, frame, EventTypeHeartbeat) {
			evict = append(evict, eviction{c.id, ReasonSendFailure})
		}
	}
	for _, e := range evict {
		h.disconnect(e.id, e.reason)
	}
	if len(evict) > 0 {
		h.log.Debug("heartbeat sweep evicted clients", map[string]interface{}{
			"evicted": len(evict),
			"checked": len(targets),
		})
	}
}

// Destroy stops the sweep and disconnects every client. Later connects fail
// and sends reach nobody. Safe to call more than once.
func (h *Hub) Destroy() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return
	}
	h.destroyed = true
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	n := h.disconnectAll(ids, ReasonShutdown)
	h.log.Info("hub destroyed", map[string]interface{}{"disconnected": n})
}

// GetConnectionInfo returns a snapshot of every client, oldest first.
func (h *Hub) GetConnectionInfo() []ConnectionInfo {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	infos := make([]ConnectionInfo, 0, len(targets))
	for _, c := range targets {
		infos = append(infos, c.info())
	}
	slices.SortFunc(infos, func(a, b ConnectionInfo) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ClientID, b.ClientID)
	})
	return infos
}

// Stats holds cumulative hub counters.
type Stats struct {
	TotalConnections  int64         `json:"total_connections"`
	ActiveConnections int           `json:"active_connections"`
	TotalEventsSent   int64         `json:"total_events_sent"`
	TotalErrors       int64         `json:"total_errors"`
	Uptime            time.Duration `json:"-"`
	UptimeSeconds     float64       `json:"uptime_seconds"`
}

// GetStats returns the current counters.
func (h *Hub) GetStats() Stats {
	uptime := h.clock.Since(h.startedAt)
	return Stats{
		TotalConnections:  h.totalConnections.Load(),
		ActiveConnections: h.ClientCount(),
		TotalEventsSent:   h.totalEventsSent.Load(),
		TotalErrors:       h.totalErrors.Load(),
		Uptime:            uptime,
		UptimeSeconds:     uptime.Seconds(),
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the ids of all registered clients.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// GetClient returns a client by id, or nil.
func (h *Hub) GetClient(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[clientID]
}

// --- internal helpers ---

func (h *Hub) encode(event *Event) ([]byte, bool) {
	if event.Timestamp.IsZero() {
		event.Timestamp = h.clock.Now()
	}
	frame, err := event.Encode()
	if err != nil {
		h.recordError(apperrors.InvalidInput("data", err.Error()), "")
		return nil, false
	}
	return frame, true
}

func (h *Hub) deliver(c *Client, frame []byte, eventType string) bool {
	if !c.Connected() {
		return false
	}
	if err := c.sink.Write(frame); err != nil {
		h.recordError(apperrors.SendFailure(c.id, err), c.id)
		return false
	}
	if !c.relayed {
		c.touch(h.clock.Now())
	}
	// Heartbeats are transport keepalive, not events.
	if eventType != EventTypeHeartbeat {
		h.totalEventsSent.Add(1)
	}
	h.recorder.EventSent(eventType)
	return true
}

// touch refreshes the last ping of a relayed client once its transport has
// written a frame to the peer.
func (h *Hub) touch(clientID string) {
	h.mu.RLock()
	c := h.clients[clientID]
	h.mu.RUnlock()
	if c != nil {
		c.touch(h.clock.Now())
	}
}

func (h *Hub) fanOut(targets []*Client, event Event) int {
	if len(targets) == 0 {
		return 0
	}
	frame, ok := h.encode(&event)
	if !ok {
		return 0
	}
	sent := 0
	var failed []string
	for _, c := range targets {
		if h.deliver(c, frame, event.Type) {
			sent++
		} else {
			failed = append(failed, c.id)
		}
	}
	h.disconnectAll(failed, ReasonSendFailure)
	return sent
}

func (h *Hub) indexed(index map[string]map[string]struct{}, key string) []*Client {
	if key == "" {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := index[key]
	targets := make([]*Client, 0, len(set))
	for id := range set {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	return targets
}

func clientIDs(cs []*Client) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.id)
	}
	return ids
}

func (h *Hub) disconnectAll(ids []string, reason string) int {
	n := 0
	for _, id := range ids {
		if h.disconnect(id, reason) {
			n++
		}
	}
	return n
}

// disconnect removes the client from all maps under the lock. Only the
// caller that removes the entry closes the sink, so it is closed once.
func (h *Hub) disconnect(clientID, reason string) bool {
	h.mu.Lock()
	c, ok := h.clients[clientID]
	if !ok {
		h.mu.Unlock()
		return false
	}
	c.connected.Store(false)
	delete(h.clients, clientID)
	removeFromIndex(h.byUser, c.userID, clientID)
	removeFromIndex(h.bySession, c.sessionID, clientID)
	active := len(h.clients)
	h.mu.Unlock()

	if c.stopWatch != nil {
		c.stopWatch()
	}
	if err := c.sink.Close(); err != nil {
		h.log.Warn("failed to close client sink", map[string]interface{}{
			logger.FieldClientID: clientID,
			logger.FieldError:    err.Error(),
		})
	}
	h.recorder.ClientDisconnected(reason)
	h.log.Info("client disconnected", map[string]interface{}{
		logger.FieldClientID: clientID,
		"reason":             reason,
		"active":             active,
	})
	return true
}

func (h *Hub) recordError(err *apperrors.AppError, clientID string) {
	h.totalErrors.Add(1)
	h.recorder.Error(string(err.Code))
	fields := map[string]interface{}{
		logger.FieldCode: string(err.Code),
		"detail":         err.Message,
		"timestamp":      formatTimestamp(h.clock.Now()),
	}
	if clientID != "" {
		fields[logger.FieldClientID] = clientID
	}
	if err.Cause != nil {
		fields[logger.FieldError] = err.Cause.Error()
	}
	h.log.Warn("hub error", fields)
}

func addToIndex(index map[string]map[string]struct{}, key, clientID string) {
	if key == "" {
		return
	}
	set, ok := index[key]
	if !ok {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[clientID] = struct{}{}
}

func removeFromIndex(index map[string]map[string]struct{}, key, clientID string) {
	if key == "" {
		return
	}
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, clientID)
	if len(set) == 0 {
		delete(index, key)
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("active=%d total=%d sent=%d errors=%d uptime=%s",
		s.ActiveConnections, s.TotalConnections, s.TotalEventsSent, s.TotalErrors, s.Uptime.Truncate(time.Second))
}
