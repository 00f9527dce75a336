package http_test

import (
	"context"
	"net"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"

	handler "github.com/samirrijal/sgrent/internal/adapters/http"
	"github.com/samirrijal/sgrent/internal/core/domain"
)

type wsStation struct {
	Name string `json:"name"`
}

type wsNearest struct {
	Station wsStation `json:"station"`
}

type wsEstimate struct {
	Estimate float64 `json:"estimate"`
}

type wsEvent struct {
	Type       string      `json:"type"`
	Message    string      `json:"message"`
	Generation uint64      `json:"generation"`
	Selected   bool        `json:"selected"`
	Address    string      `json:"address"`
	Found      bool        `json:"found"`
	Nearest    *wsNearest  `json:"nearest_station"`
	Estimate   *wsEstimate `json:"estimate"`
}

// dialSelect serves deps on a loopback listener and opens /ws/select.
func dialSelect(t *testing.T, deps *handler.Dependencies) *fws.Conn {
	t.Helper()

	app := setupApp(deps)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/select", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *fws.Conn, msg any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func next(t *testing.T, conn *fws.Conn) wsEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wsEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func TestSelectSocket_Session(t *testing.T) {
	conn := dialSelect(t, makeDeps())

	// Form changes before any pick carry no estimate.
	send(t, conn, map[string]any{"action": "update", "rooms": 2})
	ev := next(t, conn)
	if ev.Type != "selection" || ev.Selected || ev.Generation != 0 || ev.Estimate != nil {
		t.Fatalf("unexpected event before pick: %+v", ev)
	}

	send(t, conn, map[string]any{"action": "select", "lng": 103.8})
	if ev := next(t, conn); ev.Type != "error" || ev.Message != "lat and lng are required" {
		t.Fatalf("expected missing coordinate error, got %+v", ev)
	}

	send(t, conn, map[string]any{"action": "zoom"})
	if ev := next(t, conn); ev.Type != "error" || ev.Message != "unknown action: zoom" {
		t.Fatalf("expected unknown action error, got %+v", ev)
	}

	if err := conn.WriteMessage(fws.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ev := next(t, conn); ev.Type != "error" || ev.Message != "invalid JSON" {
		t.Fatalf("expected invalid JSON error, got %+v", ev)
	}

	// Fields sent with a pick apply before pricing.
	send(t, conn, map[string]any{"action": "select", "lat": 1.3, "lng": 103.8, "rooms": 2})
	ev = next(t, conn)
	if ev.Type != "selection" || !ev.Selected || ev.Generation != 1 {
		t.Fatalf("unexpected selection: %+v", ev)
	}
	if ev.Estimate == nil || ev.Estimate.Estimate != 3004 {
		t.Errorf("expected estimate 3004, got %+v", ev.Estimate)
	}
	if ev.Nearest == nil || ev.Nearest.Station.Name != "Commonwealth" {
		t.Errorf("expected Commonwealth, got %+v", ev.Nearest)
	}

	ev = next(t, conn)
	if ev.Type != "address" || ev.Generation != 1 || !ev.Found || ev.Address != "KIM TIAN PLACE BLOCK 1" {
		t.Fatalf("unexpected address: %+v", ev)
	}

	// An update reprices the same pick.
	send(t, conn, map[string]any{"action": "update", "rooms": 1})
	ev = next(t, conn)
	if ev.Type != "selection" || ev.Generation != 1 || ev.Estimate == nil || ev.Estimate.Estimate != 2458 {
		t.Fatalf("unexpected repriced selection: %+v", ev)
	}

	send(t, conn, map[string]any{"action": "drag", "lat": domain.DefaultView.Lat, "lng": domain.DefaultView.Lng})
	if ev := next(t, conn); ev.Type != "selection" || ev.Generation != 2 {
		t.Fatalf("unexpected drag selection: %+v", ev)
	}
	if ev := next(t, conn); ev.Type != "address" || ev.Generation != 2 {
		t.Fatalf("unexpected drag address: %+v", ev)
	}
}

func TestSelectSocket_OnlyLatestAddressFollowsItsSelection(t *testing.T) {
	// (1.3, 103.8) lies west of the projection's false easting; the default view lies east.
	geo := &mockGeocoder{reverseFn: func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
		if p.Easting < 28001 {
			time.Sleep(150 * time.Millisecond)
			return []domain.GeocodeCandidate{{BuildingName: "OLD", Block: "1"}}, nil
		}
		return []domain.GeocodeCandidate{{BuildingName: "NEW", Block: "2"}}, nil
	}}
	conn := dialSelect(t, makeDepsWith(geo))

	send(t, conn, map[string]any{"action": "select", "lat": 1.3, "lng": 103.8})
	send(t, conn, map[string]any{"action": "select", "lat": domain.DefaultView.Lat, "lng": domain.DefaultView.Lng})

	for _, want := range []uint64{1, 2} {
		if ev := next(t, conn); ev.Type != "selection" || ev.Generation != want {
			t.Fatalf("expected selection %d, got %+v", want, ev)
		}
	}
	if ev := next(t, conn); ev.Type != "address" || ev.Generation != 2 || ev.Address != "NEW BLOCK 2" {
		t.Fatalf("expected the newer address, got %+v", ev)
	}

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var ev wsEvent
	if err := conn.ReadJSON(&ev); err == nil {
		t.Fatalf("superseded address was delivered: %+v", ev)
	}
}
