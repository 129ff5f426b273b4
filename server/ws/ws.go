package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"go_engine/shared"

	"github.com/EngoEngine/glm"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Accepting all requests
	},
}

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex // gorilla allows one concurrent writer
}

func (c *conn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// Server relays camera poses between viewers. Every connection owns one
// slot in the pose storage; the slot index is the id handed to the client.
type Server struct {
	Lock    sync.Mutex
	clients map[int]*conn
	poses   *shared.Storage[shared.CameraState]
	removed []uint32
	router  *mux.Router
}

func New() *Server {
	s := &Server{
		clients: make(map[int]*conn),
		poses:   shared.NewStorage[shared.CameraState](),
		router:  mux.NewRouter(),
	}
	s.router.HandleFunc("/ws", s.serveWS)
	s.router.HandleFunc("/cameras", s.listCameras).Methods(http.MethodGet)
	s.router.HandleFunc("/cameras/{id:[0-9]+}/viewprojection", s.viewProjection).Methods(http.MethodGet)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Snapshot returns every live pose in id order.
func (s *Server) Snapshot() []shared.CameraState {
	s.Lock.Lock()
	defer s.Lock.Unlock()
	out := make([]shared.CameraState, 0, s.poses.Len())
	s.poses.Each(func(_ int, v shared.CameraState) {
		out = append(out, v)
	})
	return out
}

func (s *Server) pose(id int) (shared.CameraState, bool) {
	s.Lock.Lock()
	defer s.Lock.Unlock()
	return s.poses.Get(id)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	c := &conn{ws: connection}

	s.Lock.Lock()
	id := s.poses.Emplace(shared.CameraState{})
	s.poses.Set(id, shared.CameraState{Id: uint32(id), Rotation: glm.Quat{W: 1}})
	s.clients[id] = c
	s.Lock.Unlock()
	log.Printf("client %d connected from %s", id, r.RemoteAddr)

	defer s.drop(id)

	if err := c.write(websocket.TextMessage, []byte(fmt.Sprintf("%d", id))); err != nil {
		log.Printf("client %d: %v", id, err)
		return
	}

	for {
		mt, message, err := connection.ReadMessage()
		if err != nil || mt == websocket.CloseMessage {
			break // Exit the loop if the client tries to close the connection or the connection is interrupted
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		leave, err := s.handleMessage(id, message)
		if err != nil {
			log.Printf("client %d: %v", id, err)
			continue
		}
		if leave {
			break
		}
	}
}

func (s *Server) drop(id int) {
	s.Lock.Lock()
	c, ok := s.clients[id]
	delete(s.clients, id)
	s.poses.Remove(id)
	if ok {
		s.removed = append(s.removed, uint32(id))
	}
	s.Lock.Unlock()
	if ok {
		c.ws.Close()
		log.Printf("client %d disconnected", id)
	}
}

// handleMessage applies one client frame. It reports true when the client
// announced it is leaving.
func (s *Server) handleMessage(id int, message []byte) (bool, error) {
	for len(message) > 0 {
		header, err := shared.PeekSubmessage(message)
		if err != nil {
			return false, err
		}
		switch int(header.Op) {
		case shared.OpUpdate:
			updates, n, err := shared.DecodeSubmessage[shared.Upd[shared.CameraState]](message)
			if err != nil {
				return false, err
			}
			if len(updates) > 0 {
				// Only the newest pose matters, and only for the sender's own slot.
				pose := updates[len(updates)-1].V
				pose.Id = uint32(id)
				s.Lock.Lock()
				s.poses.Set(id, pose)
				s.Lock.Unlock()
			}
			message = message[n:]
		case shared.OpDeinstantiate:
			return true, nil
		default:
			return false, fmt.Errorf("unknown op %d", header.Op)
		}
	}
	return false, nil
}

// Run broadcasts the pose table every tick until ctx is done.
func (s *Server) Run(ctx context.Context, tick time.Duration) error {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := s.broadcastPoses(); err != nil {
				return err
			}
		}
	}
}

// broadcastPoses sends removals first so a slot that was freed and reused
// within one tick ends up live on the clients.
func (s *Server) broadcastPoses() error {
	s.Lock.Lock()
	if len(s.clients) == 0 {
		s.removed = s.removed[:0]
		s.Lock.Unlock()
		return nil
	}
	gone := make([]shared.Deinst[shared.CameraState], len(s.removed))
	for i, id := range s.removed {
		gone[i] = shared.Deinst[shared.CameraState]{Id: id}
	}
	s.removed = s.removed[:0]
	var live []shared.Upd[shared.CameraState]
	s.poses.Each(func(id int, v shared.CameraState) {
		live = append(live, shared.Upd[shared.CameraState]{Id: uint32(id), V: v})
	})
	targets := make(map[int]*conn, len(s.clients))
	for id, c := range s.clients {
		targets[id] = c
	}
	s.Lock.Unlock()

	message, err := shared.EncodeSubmessage(gone)
	if err != nil {
		return err
	}
	updates, err := shared.EncodeSubmessage(live)
	if err != nil {
		return err
	}
	message = append(message, updates...)

	for id, c := range targets {
		if err := c.write(websocket.BinaryMessage, message); err != nil {
			log.Printf("client %d: write: %v", id, err)
			c.ws.Close()
		}
	}
	return nil
}
