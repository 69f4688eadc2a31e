// Package transfer implements the lockstep TFTP transfer session shared by
// the client and the server: one socket, one peer transfer id, exactly one
// datagram in flight at a time.
package transfer

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ajtop/tftp/pkg/types"
	"github.com/ajtop/tftp/pkg/utils"
)

// Session drives one transfer over its own socket. peer starts as the
// destination of the initial request and is locked as the transfer id by the
// first datagram received; from then on datagrams from any other address are
// ignored without touching session state.
//
// Sessions are not safe for concurrent use; each transfer owns one Session
// exclusively.
type Session struct {
	conn         net.PacketConn
	peer         net.Addr
	l            *zap.SugaredLogger
	pool         *types.BufferPool
	lastSent     []byte
	readTimeout  time.Duration
	writeTimeout time.Duration
	numTries     int
	locked       bool
	trace        bool
}

func NewSession(conn net.PacketConn, peer net.Addr,
	l *zap.SugaredLogger, readTimeout time.Duration,
	writeTimeout time.Duration, numTries int, trace bool,
) *Session {
	return &Session{
		conn: conn, peer: peer, l: l,
		pool:        types.NewBufferPool(),
		readTimeout: readTimeout, writeTimeout: writeTimeout,
		numTries: numTries, trace: trace,
	}
}

// LockPeer fixes the current peer address as the transfer id. The server
// side calls this at construction, since the requester's address is known;
// the client side locks on the first response instead.
func (s *Session) LockPeer() {
	s.locked = true
}

// Close releases the session socket, unblocking any pending receive.
func (s *Session) Close() error {
	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("error while closing session socket: %w", err)
	}

	return nil
}

func (s *Session) send(b []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return fmt.Errorf("error while setting write timeout: %w", err)
	}

	if _, err := s.conn.WriteTo(b, s.peer); err != nil {
		return fmt.Errorf("error while writing datagram: %w", err)
	}

	s.lastSent = b

	return nil
}

func (s *Session) sendPacket(p encoding.BinaryMarshaler) error {
	b, err := p.MarshalBinary()
	if err != nil {
		s.l.Error(err.Error())

		return utils.ErrPacketMarshall
	}

	return s.send(b)
}

func (s *Session) retransmit() error {
	if s.lastSent == nil {
		return nil
	}

	return s.send(s.lastSent)
}

// lockOrMatch locks the peer transfer id on the first datagram and filters
// every later datagram against it.
func (s *Session) lockOrMatch(addr net.Addr) bool {
	if !s.locked {
		s.peer = addr
		s.locked = true

		return true
	}

	return addr.String() == s.peer.String()
}

// SendRequest transmits the initial RRQ/WRQ of a client transfer.
func (s *Session) SendRequest(req *types.Request) error {
	return s.sendPacket(req)
}

// AcknowledgeWrq sends the acknowledgment of block 0 that accepts a write
// request.
func (s *Session) AcknowledgeWrq() error {
	return s.sendPacket(types.NewAck(0))
}

// SendError transmits an error packet. Send failures are only logged; the
// session is tearing down anyway.
func (s *Session) SendError(code types.ErrCode, msg string) {
	if err := s.sendPacket(types.NewError(code, msg)); err != nil {
		s.l.Errorf("error while sending error packet: %s", err.Error())
	}
}

// Receive runs the receiving half of a transfer: expect data blocks starting
// at 1, append each payload to dst, acknowledge it, and finish when a block
// is shorter than 512 bytes. The caller must already have sent the packet
// that solicits the first block (RRQ or the block-0 ack).
func (s *Session) Receive(dst io.Writer) error {
	expected := uint16(1)

	for {
		data, err := s.awaitData(expected)
		if err != nil {
			return err
		}

		if _, err := dst.Write(data.Payload); err != nil {
			return fmt.Errorf("error while writing block to sink: %w", err)
		}

		if err := s.sendPacket(types.NewAck(data.BlockNum)); err != nil {
			return err
		}

		if s.trace {
			s.l.Debugf("received block#=%d, #bytes=%d", data.BlockNum, len(data.Payload))
		}

		if len(data.Payload) < types.MaxPayloadSize {
			return nil
		}

		expected++
	}
}

// Send runs the sending half of a transfer: read chunks of up to 512 bytes
// from src, send each as a data block starting at 1, await the matching ack,
// and finish after the first short chunk. A source whose length is an exact
// multiple of 512 produces one final empty block.
func (s *Session) Send(src io.Reader) error {
	block := make([]byte, types.MaxPayloadSize)
	blockNum := uint16(1)

	for {
		n, err := io.ReadFull(src, block)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("error while reading block from source: %w", err)
		}

		if err := s.sendBlock(block[:n], blockNum); err != nil {
			return err
		}

		if s.trace {
			s.l.Debugf("sent block#=%d, #bytes=%d", blockNum, n)
		}

		if n < types.MaxPayloadSize {
			return nil
		}

		blockNum++
	}
}

func (s *Session) sendBlock(block []byte, blockNum uint16) error {
	if err := s.sendPacket(types.NewData(blockNum, block)); err != nil {
		return err
	}

	if _, err := s.awaitAck(blockNum); err != nil {
		return err
	}

	return nil
}

// AwaitAck waits for the acknowledgment of blockNum, retransmitting the last
// sent packet on each timeout. Used directly by the client to wait for the
// block-0 ack that accepts a WRQ and locks the transfer id.
func (s *Session) AwaitAck(blockNum uint16) error {
	_, err := s.awaitAck(blockNum)

	return err
}

func (s *Session) awaitData(expected uint16) (*types.Data, error) {
	raw, err := s.await(types.OpCodeDATA, func(raw types.RawPacket) (bool, error) {
		var data types.Data

		if err := raw.Decode(&data); err != nil {
			return false, err
		}

		if data.BlockNum != expected {
			s.l.Debugf("stray data block#=%d, expected block#=%d", data.BlockNum, expected)

			return false, nil
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	var data types.Data

	if err := raw.Decode(&data); err != nil {
		raw.Release(s.pool)

		return nil, err
	}

	// The payload aliases the pooled buffer; copy it out before release.
	payload := make([]byte, len(data.Payload))
	copy(payload, data.Payload)
	raw.Release(s.pool)

	return types.NewData(expected, payload), nil
}

func (s *Session) awaitAck(expected uint16) (*types.Ack, error) {
	raw, err := s.await(types.OpCodeACK, func(raw types.RawPacket) (bool, error) {
		var ack types.Ack

		if err := raw.Decode(&ack); err != nil {
			return false, err
		}

		if ack.BlockNum != expected {
			s.l.Debugf("stray ack block#=%d, expected block#=%d", ack.BlockNum, expected)

			return false, nil
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	defer raw.Release(s.pool)

	var ack types.Ack

	if err := raw.Decode(&ack); err != nil {
		return nil, err
	}

	return &ack, nil
}

// await reads datagrams until accept matches one of the wanted opcode. Each
// expired read deadline consumes one retry and retransmits the last sent
// packet; datagrams from a foreign address, stray block numbers and
// undecodable packets from the peer are handled per protocol.
func (s *Session) await(want types.OpCode,
	accept func(types.RawPacket) (bool, error),
) (types.RawPacket, error) {
	for tries := s.numTries; tries > 0; tries-- {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return types.RawPacket{}, fmt.Errorf("error while setting read timeout: %w", err)
		}

		for {
			buf := s.pool.Get()

			n, addr, err := s.conn.ReadFrom(buf)
			if err != nil {
				s.pool.Put(buf)

				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					if err := s.retransmit(); err != nil {
						return types.RawPacket{}, err
					}

					break
				}

				return types.RawPacket{}, fmt.Errorf("error while reading datagram: %w", err)
			}

			raw := types.NewRawPacket(buf, n)

			if !s.lockOrMatch(addr) {
				s.l.Debugf("ignoring datagram from unknown transfer id %s", addr.String())
				raw.Release(s.pool)

				continue
			}

			op, err := raw.Opcode()
			if err != nil {
				raw.Release(s.pool)

				return types.RawPacket{}, err
			}

			switch op {
			case want:
				ok, err := accept(raw)
				if err != nil {
					raw.Release(s.pool)

					return types.RawPacket{}, err
				}

				if !ok {
					raw.Release(s.pool)

					continue
				}

				return raw, nil
			case types.OpCodeError:
				var errPacket types.Error

				err := raw.Decode(&errPacket)
				raw.Release(s.pool)

				if err != nil {
					return types.RawPacket{}, err
				}

				return types.RawPacket{}, &errPacket
			default:
				raw.Release(s.pool)

				return types.RawPacket{}, utils.ErrUnexpectedPacket
			}
		}
	}

	return types.RawPacket{}, utils.ErrTimeoutExhausted
}
