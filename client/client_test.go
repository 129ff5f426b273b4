package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go_engine/server/ws"
	"go_engine/shared"

	"github.com/EngoEngine/glm"
	"github.com/gorilla/websocket"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		addr, want string
	}{
		{"localhost:8080", "ws://localhost:8080/ws"},
		{"http://127.0.0.1:9000", "ws://127.0.0.1:9000/ws"},
		{"https://example.com/", "wss://example.com/ws"},
		{"ws://example.com/poses", "ws://example.com/poses"},
	}
	for _, tt := range tests {
		u, err := endpoint(tt.addr)
		if err != nil {
			t.Fatalf("%s: %v", tt.addr, err)
		}
		if u.String() != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.addr, tt.want, u.String())
		}
	}
}

func TestPeersSeeEachOther(t *testing.T) {
	server := ws.New()
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go server.Run(ctx, 10*time.Millisecond)

	a, err := Dial(ctx, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Dial(ctx, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if a.Id() == b.Id() {
		t.Fatalf("Expected distinct ids, both got %d", a.Id())
	}

	seen := make(chan map[uint32]shared.CameraState, 16)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- b.Run(runCtx, func(peers map[uint32]shared.CameraState) {
			select {
			case seen <- peers:
			default:
			}
		})
	}()

	pos := glm.Vec3{3, 1, -4}
	if err := a.Publish(pos, glm.Quat{W: 1}); err != nil {
		t.Fatal(err)
	}

	for {
		select {
		case peers := <-seen:
			if _, self := peers[b.Id()]; self {
				t.Fatal("Expected own pose to be filtered out")
			}
			if p, ok := peers[a.Id()]; ok && p.Position == pos {
				stop()
				if err := <-done; err != nil {
					t.Errorf("Expected clean shutdown, got %v", err)
				}
				a.Close()
				return
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for peer pose")
		}
	}
}

func TestLeaveRemovesPeer(t *testing.T) {
	server := ws.New()
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Leave(); err != nil {
		t.Fatal(err)
	}
	for len(server.Snapshot()) != 0 {
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for leave")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDialFailsAfterRetries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := Dial(ctx, "127.0.0.1:1"); err == nil {
		t.Error("Expected dial to an unused port to fail")
	}
}

func TestDialGivesUpWithoutId(t *testing.T) {
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := Dial(ctx, srv.URL); err == nil {
		t.Fatal("Expected Dial to fail when the server never sends an id")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected Dial to return near the context deadline, took %v", elapsed)
	}
}
