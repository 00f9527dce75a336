package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

const (
	wsPingInterval = 30 * time.Second
	feedBuffer     = 32
)

// selectMessage is sent by the map client.
// {"action":"select","lat":1.3,"lng":103.8} picks or drags the marker;
// {"action":"update","rooms":3} changes the form.
type selectMessage struct {
	Action string   `json:"action"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	usecases.FormUpdate
}

type selectionEvent struct {
	Type string `json:"type"`
	usecases.SessionUpdate
}

type addressEvent struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
	Address    string `json:"address"`
	Found      bool   `json:"found"`
}

// wsWriter serializes writes; gofiber/websocket connections are not safe
// for concurrent writers.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeLocked(v)
}

func (w *wsWriter) writeLocked(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// keepAlive pings until done is closed or a write fails.
func (w *wsWriter) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// selectStream orders the events of one select session. An address goes
// out only after the selection event of its generation and is dropped once
// a newer selection has been shown.
type selectStream struct {
	*wsWriter
	shown   uint64
	pending *addressEvent
}

func (s *selectStream) selection(ev selectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(ev); err != nil {
		return err
	}
	if ev.Generation > s.shown {
		s.shown = ev.Generation
	}
	p := s.pending
	if p == nil || p.Generation > s.shown {
		return nil
	}
	s.pending = nil
	if p.Generation < s.shown {
		return nil
	}
	return s.writeLocked(*p)
}

func (s *selectStream) address(ev addressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case ev.Generation < s.shown:
		return nil
	case ev.Generation > s.shown:
		s.pending = &ev
		return nil
	}
	return s.writeLocked(ev)
}

// SelectHandler runs one interactive selection session per connection.
// Every select answers at once with the nearest station and estimate; the
// address follows in a separate event, and only for the latest select.
func SelectHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveSessions.Inc()
		defer metrics.ActiveSessions.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Debug("ws select session opened", "remote", remoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := &wsWriter{conn: c}
		stream := &selectStream{wsWriter: w}
		session := usecases.NewSession(deps.Stations, deps.Quotes, deps.Addresses)
		defer session.Close()

		onAddress := func(gen uint64, addr domain.Address) {
			_ = stream.address(addressEvent{Type: "address", Generation: gen, Address: addr.Text, Found: addr.Found})
		}

		done := make(chan struct{})
		defer close(done)
		go w.keepAlive(done)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m selectMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = w.writeJSON(map[string]string{"type": "error", "message": "invalid JSON"})
				continue
			}

			var (
				u      usecases.SessionUpdate
				opErr  error
				update = m.FormUpdate
			)
			switch m.Action {
			case "select", "drag":
				if m.Lat == nil || m.Lng == nil {
					_ = w.writeJSON(map[string]string{"type": "error", "message": "lat and lng are required"})
					continue
				}
				if update != (usecases.FormUpdate{}) {
					if _, opErr = session.Update(update); opErr != nil {
						break
					}
				}
				u, opErr = session.Pick(ctx, domain.GeoPoint{Lat: *m.Lat, Lng: *m.Lng}, onAddress)
			case "update":
				u, opErr = session.Update(update)
			default:
				_ = w.writeJSON(map[string]string{"type": "error", "message": "unknown action: " + m.Action})
				continue
			}

			if opErr != nil {
				_ = w.writeJSON(map[string]string{"type": "error", "message": opErr.Error()})
				continue
			}
			_ = stream.selection(selectionEvent{Type: "selection", SessionUpdate: u})
		}

		slog.Debug("ws select session closed", "remote", remoteAddr)
	}
}

// QuoteFeed fans quote events out to every connected /ws/quotes client.
// Slow clients miss events rather than stall the broker subscription.
type QuoteFeed struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

// NewQuoteFeed creates an empty feed.
func NewQuoteFeed() *QuoteFeed {
	return &QuoteFeed{subs: make(map[chan []byte]struct{})}
}

// Subscribe registers a listener. The returned func unregisters it.
func (f *QuoteFeed) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, feedBuffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
		})
	}
}

// Publish delivers q to every listener. It matches the broker subscriber
// handler signature.
func (f *QuoteFeed) Publish(_ context.Context, q *domain.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs {
		select {
		case ch <- data:
		default:
		}
	}
	return nil
}

// Len returns the number of listeners.
func (f *QuoteFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// QuotesHandler relays the live quote feed to one client.
func QuotesHandler(feed *QuoteFeed) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		events, unsubscribe := feed.Subscribe()
		defer unsubscribe()

		w := &wsWriter{conn: c}

		// Clients only listen; reading detects the close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case data := <-events:
				if err := w.writeJSON(json.RawMessage(data)); err != nil {
					return
				}
			case <-ticker.C:
				if err := w.ping(); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}
}
