// Package sse fans server-sent events out to grouped subscribers. Each
// group keeps a short history so a reconnecting client can resume from
// Last-Event-ID.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event is one published message.
type Event struct {
	ID   uint64
	Name string
	Data []byte
}

func (e Event) encode() string {
	return fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Name, e.Data)
}

type Client struct {
	id     string
	groups map[string]bool
	ch     chan string
	done   chan struct{}
}

type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*Client
	groups      map[string]map[string]bool // group -> clientID set
	history     map[string][]Event
	historySize int
	seq         uint64
	interval    time.Duration
	retryMs     int
}

// NewHub keeps historySize events per group (0 disables replay) and pings
// idle clients every interval.
func NewHub(interval time.Duration, historySize int) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:     make(map[string]*Client),
		groups:      make(map[string]map[string]bool),
		history:     make(map[string][]Event),
		historySize: historySize,
		interval:    interval,
		retryMs:     5000,
	}
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[id]; ok {
		h.dropLocked(old)
	}
	c := &Client{id: id, groups: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[id] = c
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *Client) {
	close(c.done)
	for g := range c.groups {
		delete(h.groups[g], c.id)
		if len(h.groups[g]) == 0 {
			delete(h.groups, g)
		}
	}
	delete(h.clients, c.id)
}

func (h *Hub) Join(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.groups[group] = true
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]bool)
	}
	h.groups[group][id] = true
}

func (h *Hub) Leave(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(c.groups, group)
	delete(h.groups[group], id)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends v as JSON to every client of group. Slow clients whose
// buffer is full miss the event; they can catch up through replay.
func (h *Hub) Publish(group, name string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	h.mu.Lock()
	h.seq++
	ev := Event{ID: h.seq, Name: name, Data: data}
	if h.historySize > 0 {
		hist := append(h.history[group], ev)
		if len(hist) > h.historySize {
			hist = hist[len(hist)-h.historySize:]
		}
		h.history[group] = hist
	}
	msg := ev.encode()
	for id := range h.groups[group] {
		if c := h.clients[id]; c != nil {
			select {
			case c.ch <- msg:
			default:
			}
		}
	}
	h.mu.Unlock()
	return ev, nil
}

// Since returns the events of group published after lastID.
func (h *Hub) Since(group string, lastID uint64) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Event
	for _, ev := range h.history[group] {
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// Serve streams the given groups to the caller until the request ends.
func (h *Hub) Serve(c *gin.Context, clientID string, groups ...string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	client := h.AddClient(clientID)
	defer h.RemoveClient(clientID)
	for _, g := range groups {
		h.Join(clientID, g)
	}

	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	if last, err := strconv.ParseUint(c.GetHeader("Last-Event-ID"), 10, 64); err == nil {
		for _, g := range groups {
			for _, ev := range h.Since(g, last) {
				_, _ = c.Writer.WriteString(ev.encode())
			}
		}
	}
	flusher.Flush()

	ping := time.NewTicker(h.interval)
	defer ping.Stop()
	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprint(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			_, _ = c.Writer.WriteString(msg)
			flusher.Flush()
		}
	}
}
