// Package server runs the ingress data plane: a TCP listener whose
// producer thread feeds the byte ring and a single consumer thread that
// frames, decodes, and dispatches records. One connection is served at a
// time; reconnects are expected.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/finquota/finquota/pkg/finerr"
	"github.com/finquota/finquota/pkg/handler"
	"github.com/finquota/finquota/pkg/ring"
	"github.com/finquota/finquota/pkg/wire"
)

type Server struct {
	lis         net.Listener
	ring        *ring.Ring
	registry    *handler.Registry
	readTimeout time.Duration
	log         *zap.SugaredLogger

	running atomic.Bool
	wg      sync.WaitGroup
}

// New binds the listen socket. A bind failure is fatal to init.
func New(port int, readTimeout time.Duration, rb *ring.Ring, reg *handler.Registry, log *zap.SugaredLogger) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: port %d: %v", finerr.ErrTcpStartFailed, port, err)
	}
	log.Infow("tcp_listening", "addr", lis.Addr().String())
	return &Server{
		lis:         lis,
		ring:        rb,
		registry:    reg,
		readTimeout: readTimeout,
		log:         log,
	}, nil
}

// Start launches the producer and consumer workers.
func (s *Server) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(2)
	go s.producer()
	go s.consumer(ctx)
}

// Stop flips the running flag, closes the listener to unblock accept,
// wakes the ring waiters, and joins both workers.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.log.Infow("tcp_stopping")
	_ = s.lis.Close()
	s.ring.Close()
	s.wg.Wait()
	s.log.Infow("tcp_stopped")
}

// producer accepts one connection at a time and copies its bytes into the
// ring, blocking on WaitForSpace when the consumer falls behind.
func (s *Server) producer() {
	defer s.wg.Done()
	for s.running.Load() {
		conn, err := s.lis.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Errorw("accept_failed", "err", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.log.Infow("feed_connected", "peer", conn.RemoteAddr().String())
		s.serveConn(conn)
		_ = conn.Close()
		s.log.Infow("feed_disconnected", "peer", conn.RemoteAddr().String())
	}
}

func (s *Server) serveConn(conn net.Conn) {
	for s.running.Load() {
		buf := s.ring.WritableSlice()
		if len(buf) == 0 {
			if !s.ring.WaitForSpace(1) {
				return
			}
			continue
		}

		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			if eerr := s.ring.Enqueue(n); eerr != nil {
				s.log.Errorw("ring_enqueue_failed", "err", eerr)
				return
			}
		}
		if err == nil {
			continue
		}

		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			// Read deadline elapsed with a quiet feed; loop back to the
			// running check.
			continue
		}
		if errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
			return
		}
		if !errors.Is(err, io.EOF) {
			s.log.Errorw("feed_read_failed", "err", err)
		}
		return
	}
}

// consumer drains complete frames: keep-alives are discarded, records are
// decoded and dispatched, and malformed frames are dropped; the newline
// boundary resynchronizes the stream on its own.
func (s *Server) consumer(ctx context.Context) {
	defer s.wg.Done()
	var scratch []byte
	for s.running.Load() {
		// Capture the size before scanning: if bytes land between the
		// failed scan and the wait, the wait returns immediately.
		seen := s.ring.Size()
		frame, ok := s.ring.NextFrame()
		if !ok {
			// A full ring without a terminator means the sender is
			// pushing a frame larger than the ring can ever hold.
			if s.ring.FreeSpace() == 0 {
				s.log.Errorw("frame_exceeds_ring_capacity",
					"capacity", s.ring.Capacity(), "generation", s.ring.Generation())
				s.ring.Clear()
				continue
			}
			if !s.ring.WaitForData(seen) {
				return
			}
			continue
		}

		if frame.KeepAlive() {
			s.log.Debugw("keepalive_dropped", "len", frame.Len())
			if err := s.ring.Dequeue(frame.Len()); err != nil {
				s.log.Errorw("ring_dequeue_failed", "err", err)
				s.ring.Clear()
			}
			continue
		}

		var data []byte
		data, scratch = frame.Bytes(scratch)

		msg, err := wire.Decode(data)
		if err != nil {
			s.log.Errorw("frame_dropped", "len", frame.Len(), "err", err)
		} else if err := s.registry.Dispatch(ctx, msg); err != nil {
			s.log.Errorw("record_failed",
				"t_code", string(msg.TCode), "err", err)
		}

		if err := s.ring.Dequeue(frame.Len()); err != nil {
			s.log.Errorw("ring_dequeue_failed", "err", err)
			s.ring.Clear()
		}
	}
}
