// Package server implements the TFTP server: a dispatcher listening on the
// well-known port that spawns one independent transfer session per accepted
// request.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajtop/tftp/pkg/transfer"
	"github.com/ajtop/tftp/pkg/types"
)

type Server struct {
	l            *zap.SugaredLogger
	conn         net.PacketConn
	pool         *types.BufferPool
	addr         string
	root         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	numTries     int
	trace        bool
	wg           sync.WaitGroup
}

func NewServer(l *zap.SugaredLogger, addr string, root string,
	readTimeout time.Duration, writeTimeout time.Duration,
	numTries int, trace bool,
) *Server {
	return &Server{
		l: l, addr: addr, root: root,
		pool:        types.NewBufferPool(),
		readTimeout: readTimeout, writeTimeout: writeTimeout,
		numTries: numTries, trace: trace,
	}
}

// Addr returns the bound listening address. Valid after ListenAndServe has
// bound the socket.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	lc := net.ListenConfig{
		Control: reusePort(),
	}

	conn, err := lc.ListenPacket(context.Background(), "udp", s.addr)
	if err != nil {
		s.l.Error(err.Error())

		return fmt.Errorf("error while binding %s: %w", s.addr, err)
	}

	s.conn = conn

	s.l.Infof("listening on %s", conn.LocalAddr().String())

	return nil
}

// ListenAndServe binds the listening socket and accepts requests until the
// server is closed. The accept loop never blocks on an individual transfer:
// every accepted request runs in its own goroutine on its own socket.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}

	return s.Serve()
}

// Serve runs the accept loop on the bound socket.
func (s *Server) Serve() error {
	for {
		buf := s.pool.Get()

		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			s.pool.Put(buf)

			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return fmt.Errorf("error while reading request datagram: %w", err)
		}

		s.wg.Add(1)

		go s.handleRequest(addr, types.NewRawPacket(buf, n))
	}
}

// Close shuts the listener down and waits for in-flight sessions to drain.
func (s *Server) Close() error {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("error while closing listener: %w", err)
		}
	}

	s.wg.Wait()

	return nil
}

// handleRequest decodes one inbound datagram and, when it is an acceptable
// request, runs the transfer session. Structurally undecodable datagrams are
// dropped without reply; a recognizable but unusable packet gets a
// best-effort error reply from the listening socket.
func (s *Server) handleRequest(addr net.Addr, raw types.RawPacket) {
	defer s.wg.Done()

	op, err := raw.Opcode()
	if err != nil {
		s.l.Debugf("dropping undecodable datagram from %s: %s", addr.String(), err.Error())
		raw.Release(s.pool)

		return
	}

	if op != types.OpCodeRRQ && op != types.OpCodeWRQ {
		raw.Release(s.pool)
		s.reject(addr, fmt.Sprintf("opcode %d is not a request", op))

		return
	}

	var req types.Request

	if err := raw.Decode(&req); err != nil {
		raw.Release(s.pool)
		s.reject(addr, err.Error())

		return
	}

	raw.Release(s.pool)

	// Fresh socket on an ephemeral port: its local port is the server-side
	// transfer id for this session.
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		s.l.Errorf("error while binding session socket: %s", err.Error())

		return
	}

	sess := transfer.NewSession(conn, addr, s.l,
		s.readTimeout, s.writeTimeout, s.numTries, s.trace)
	sess.LockPeer()

	defer func() {
		if err := sess.Close(); err != nil {
			s.l.Errorf("error while closing session with %s: %s", addr.String(), err.Error())
		}
	}()

	switch req.Opcode {
	case types.OpCodeRRQ:
		if err := s.serveRead(sess, req.Filename); err != nil {
			s.l.Errorf("error while responding to rrq from %s: %s", addr.String(), err.Error())
		}
	case types.OpCodeWRQ:
		if err := s.acceptWrite(sess, req.Filename); err != nil {
			s.l.Errorf("error while responding to wrq from %s: %s", addr.String(), err.Error())
		}
	}
}

func (s *Server) reject(addr net.Addr, reason string) {
	s.l.Debugf("rejecting request from %s: %s", addr.String(), reason)

	b, err := types.NewError(types.ErrIllegalTftpOp, reason).MarshalBinary()
	if err != nil {
		s.l.Errorf("error while marshalling error packet: %s", err.Error())

		return
	}

	if _, err := s.conn.WriteTo(b, addr); err != nil {
		s.l.Errorf("error while replying to %s: %s", addr.String(), err.Error())
	}
}
