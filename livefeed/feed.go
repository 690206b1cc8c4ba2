// Package livefeed pushes new contact submissions and quote requests
// to admin browsers over websockets.
package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/db/kvdb"
	"github.com/ecogroup/ecgsite/svc"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBufferSize = 64

	DefaultBacklogSize = 50
)

// Message types on the wire
const (
	TypeEvent   = "event"
	TypeBacklog = "backlog"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeError   = "error"
)

// Message is the envelope of every frame
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func newMessage(typ string, data any) Message {
	return Message{Type: typ, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// EventSource streams inbox events until ctx is done; catalog.Backend.Events fits
type EventSource func(ctx context.Context) (<-chan catalog.Event, error)

type Feed struct {
	Ctx    context.Context    // Service Context
	cancel context.CancelFunc // Service Context CancelFunc
	state  int                // internal service state
	done   chan error         // Shutdown Error Channel

	Source      EventSource
	KV          kvdb.Client // backlog store; nil keeps no backlog
	BacklogKey  string
	BacklogSize int64
	Upgrader    websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// Ensure Feed implements svc.Service
var _ svc.Service = (*Feed)(nil)

func New(parentCtx context.Context, source EventSource, kv kvdb.Client, backlogKey string) *Feed {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Feed{
		Ctx:         svcCtx,
		cancel:      svcCancel,
		state:       svc.StateREADY,
		done:        make(chan error, 1),
		Source:      source,
		KV:          kv,
		BacklogKey:  backlogKey,
		BacklogSize: DefaultBacklogSize,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

func (f *Feed) Name() string {
	return "LiveFeed"
}

func (f *Feed) Start() error {
	if f.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	events, err := f.Source(f.Ctx)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	f.state = svc.StateRUNNING
	go f.run(events)
	log.Println("[INFO][LIVE] live feed started")
	return nil
}

func (f *Feed) Stop() {
	f.cancel()
	f.state = svc.StateSTOPPED
	log.Println("[INFO][LIVE] live feed stopping")
}

func (f *Feed) Done() <-chan error {
	return f.done
}

func (f *Feed) run(events <-chan catalog.Event) {
	defer f.closeClients()
	for {
		select {
		case <-f.Ctx.Done():
			f.done <- nil
			return
		case ev, ok := <-events:
			if !ok {
				if f.Ctx.Err() != nil {
					f.done <- nil
				} else {
					f.done <- errors.New("live feed: event stream ended")
				}
				return
			}
			f.Publish(f.Ctx, ev)
		}
	}
}

// Publish records ev in the backlog and sends it to every connected admin
func (f *Feed) Publish(ctx context.Context, ev catalog.Event) {
	if f.KV != nil {
		if err := f.record(ctx, ev); err != nil {
			log.Printf("[WARN][LIVE] backlog write failed: %v", err)
		}
	}
	data, err := json.Marshal(newMessage(TypeEvent, ev))
	if err != nil {
		log.Printf("[ERROR][LIVE] encoding event: %v", err)
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		c.enqueue(data)
	}
}

func (f *Feed) record(ctx context.Context, ev catalog.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err = f.KV.Push(ctx, f.BacklogKey, string(raw)); err != nil {
		return err
	}
	return f.KV.Trim(ctx, f.BacklogKey, -f.backlogSize(), -1)
}

func (f *Feed) backlogSize() int64 {
	if f.BacklogSize <= 0 {
		return DefaultBacklogSize
	}
	return f.BacklogSize
}

// Backlog returns the most recent events, oldest first
func (f *Feed) Backlog(ctx context.Context) ([]catalog.Event, error) {
	if f.KV == nil {
		return []catalog.Event{}, nil
	}
	raws, err := f.KV.Range(ctx, f.BacklogKey, -f.backlogSize(), -1)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Event, 0, len(raws))
	for _, raw := range raws {
		var ev catalog.Event
		if err = json.Unmarshal([]byte(raw), &ev); err != nil {
			log.Printf("[WARN][LIVE] skipping corrupt backlog entry: %v", err)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Clients counts connected admins
func (f *Feed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// ServeHTTP upgrades the connection, replays the backlog and streams new events
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN][LIVE] upgrade failed: %v", err)
		return // Upgrade already replied
	}
	c := &client{feed: f, conn: conn, send: make(chan []byte, sendBufferSize)}

	backlog, err := f.Backlog(r.Context())
	if err != nil {
		log.Printf("[WARN][LIVE] backlog read failed: %v", err)
		backlog = []catalog.Event{}
	}
	if data, err := json.Marshal(newMessage(TypeBacklog, backlog)); err == nil {
		c.send <- data
	}

	f.mu.Lock()
	if f.Ctx.Err() != nil {
		f.mu.Unlock()
		_ = conn.Close()
		return
	}
	f.clients[c] = struct{}{}
	total := len(f.clients)
	f.mu.Unlock()
	log.Printf("[INFO][LIVE] admin connected (total: %d)", total)

	go c.writePump()
	go c.readPump()
}

func (f *Feed) unregister(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
		log.Printf("[INFO][LIVE] admin disconnected (total: %d)", len(f.clients))
	}
}

func (f *Feed) closeClients() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		delete(f.clients, c)
		close(c.send)
	}
}
