package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FeedServer publishes one Frame per tick to every connected renderer over
// websocket at /feed. New sessions are handed to the simulation goroutine
// through a channel and picked up on the next Broadcast.
type FeedServer struct {
	listener net.Listener
	http     *http.Server
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newConns chan *Session
	outSize  int
	log      *zap.Logger

	sessions map[uint64]*Session // simulation goroutine only
}

func NewFeedServer(bindAddr string, outSize int, log *zap.Logger) (*FeedServer, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	if outSize <= 0 {
		outSize = 16
	}
	s := &FeedServer{
		listener: ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		newConns: make(chan *Session, 64),
		outSize:  outSize,
		log:      log,
		sessions: make(map[uint64]*Session),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleFeed)
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s, nil
}

// Serve blocks until Shutdown.
func (s *FeedServer) Serve() error {
	s.log.Info("feed server listening", zap.String("addr", s.listener.Addr().String()))
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *FeedServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("feed upgrade failed", zap.Error(err))
		return
	}

	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.outSize, s.log)
	sess.Start()
	s.log.Info("renderer connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("feed connection queue full, rejecting")
		sess.Close()
	}
}

// accept moves newly connected sessions into the live set and drops
// closed ones.
func (s *FeedServer) accept() {
	for {
		select {
		case sess := <-s.newConns:
			s.sessions[sess.ID] = sess
		default:
			for id, sess := range s.sessions {
				if sess.IsClosed() {
					delete(s.sessions, id)
				}
			}
			return
		}
	}
}

// Broadcast encodes f once and queues it for every session, in session id
// order. Called from the simulation goroutine.
func (s *FeedServer) Broadcast(f *Frame) error {
	s.accept()
	if len(s.sessions) == 0 {
		return nil
	}
	data, err := f.Encode()
	if err != nil {
		return err
	}
	ids := make([]uint64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.sessions[id].Send(data)
	}
	return nil
}

// Sessions returns the number of live sessions as of the last Broadcast.
func (s *FeedServer) Sessions() int {
	return len(s.sessions)
}

// Shutdown stops accepting connections and closes every session.
func (s *FeedServer) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.listener.Close()
	s.accept()
	for _, sess := range s.sessions {
		sess.Close()
	}
	return err
}

// Addr returns the listener's address.
func (s *FeedServer) Addr() net.Addr {
	return s.listener.Addr()
}
