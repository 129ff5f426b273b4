package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"go_engine/shared"

	"github.com/EngoEngine/glm"
	retry "github.com/avast/retry-go/v4"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// handshakeTimeout bounds the wait for the id frame when ctx has no deadline.
const handshakeTimeout = 5 * time.Second

type Client struct {
	conn *websocket.Conn
	id   uint32
	mu   sync.Mutex
}

// Dial connects to the pose server at addr ("host:port" or a ws/http URL)
// and reads the id the server assigned.
func Dial(ctx context.Context, addr string) (*Client, error) {
	u, err := endpoint(addr)
	if err != nil {
		return nil, err
	}
	log.Printf("connecting to %s", u.String())

	var conn *websocket.Conn
	err = retry.Do(func() error {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			return err
		}
		conn = c
		return nil
	},
		retry.Context(ctx),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(1500*time.Millisecond),
		retry.Attempts(4),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("dial retry %d: %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}

	c := &Client{conn: conn}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(handshakeTimeout)
	}
	conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	_, message, err := conn.ReadMessage()
	stop()
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read id: %w", err)
	}
	if _, err := fmt.Sscanf(string(message), "%d", &c.id); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read id: %w", err)
	}
	return c, nil
}

func endpoint(addr string) (*url.URL, error) {
	if !strings.Contains(addr, "://") {
		return &url.URL{Scheme: "ws", Host: addr, Path: "/ws"}, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u, nil
}

func (c *Client) Id() uint32 { return c.id }

func (c *Client) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// Publish sends the viewer's current camera pose.
func (c *Client) Publish(pos glm.Vec3, rot glm.Quat) error {
	msg, err := shared.EncodeSubmessage([]shared.Upd[shared.CameraState]{
		{Id: c.id, V: shared.CameraState{Id: c.id, Position: pos, Rotation: rot}},
	})
	if err != nil {
		return err
	}
	return c.send(msg)
}

// Leave tells the server to drop this viewer's pose.
func (c *Client) Leave() error {
	msg, err := shared.EncodeSubmessage([]shared.Deinst[shared.CameraState]{{Id: c.id}})
	if err != nil {
		return err
	}
	return c.send(msg)
}

// Run reads pose broadcasts until ctx is done or the connection fails.
// onPeers receives the full set of other viewers after every broadcast.
func (c *Client) Run(ctx context.Context, onPeers func(map[uint32]shared.CameraState)) error {
	errg, gctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		peers := make(map[uint32]shared.CameraState)
		for {
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
			if err := c.apply(peers, message); err != nil {
				log.Println("recv:", err)
				continue
			}
			out := make(map[uint32]shared.CameraState, len(peers))
			for id, p := range peers {
				out[id] = p
			}
			onPeers(out)
		}
	})

	errg.Go(func() error {
		<-gctx.Done()
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		c.conn.Close()
		return nil
	})

	return errg.Wait()
}

func (c *Client) apply(peers map[uint32]shared.CameraState, message []byte) error {
	for len(message) > 0 {
		header, err := shared.PeekSubmessage(message)
		if err != nil {
			return err
		}
		switch int(header.Op) {
		case shared.OpDeinstantiate:
			gone, n, err := shared.DecodeSubmessage[shared.Deinst[shared.CameraState]](message)
			if err != nil {
				return err
			}
			for _, d := range gone {
				delete(peers, d.Id)
			}
			message = message[n:]
		case shared.OpUpdate:
			updates, n, err := shared.DecodeSubmessage[shared.Upd[shared.CameraState]](message)
			if err != nil {
				return err
			}
			for _, u := range updates {
				if u.Id != c.id {
					peers[u.Id] = u.V
				}
			}
			message = message[n:]
		default:
			return fmt.Errorf("unknown op %d", header.Op)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
