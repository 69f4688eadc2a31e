package types

import (
	"encoding"
	"encoding/binary"
	"sync"

	"github.com/ajtop/tftp/pkg/utils"
)

// RawPacket wraps a datagram buffer plus its valid length, as produced by a
// socket read. It is interpreted later by decoding into a typed packet.
type RawPacket struct {
	buf []byte
	n   int
}

func NewRawPacket(buf []byte, n int) RawPacket {
	return RawPacket{buf: buf, n: n}
}

// Bytes returns the valid portion of the underlying buffer.
func (r RawPacket) Bytes() []byte {
	return r.buf[:r.n]
}

func (r RawPacket) Len() int {
	return r.n
}

// Opcode peeks the first two bytes without decoding the whole packet.
func (r RawPacket) Opcode() (OpCode, error) {
	if r.n < 2 {
		return 0, utils.ErrShortPacket
	}

	op := OpCode(binary.BigEndian.Uint16(r.buf[:2]))
	if !op.Valid() {
		return 0, utils.ErrWrongOpCode
	}

	return op, nil
}

// Decode attempts the typed decode for p. A mismatch is reported as an
// error, never a panic.
func (r RawPacket) Decode(p encoding.BinaryUnmarshaler) error {
	return p.UnmarshalBinary(r.Bytes())
}

// Release zeroes the underlying buffer and returns it to pool. The RawPacket
// must not be used afterwards; any payload that aliases the buffer has to be
// copied out first.
func (r RawPacket) Release(pool *BufferPool) {
	pool.Put(r.buf)
}

// BufferPool hands out datagram-sized buffers with single-owner semantics:
// a buffer is checked out, used, and zeroed when it is returned, so no stale
// packet content leaks across reuses.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return make([]byte, DatagramSize)
			},
		},
	}
}

func (p *BufferPool) Get() []byte {
	return p.pool.Get().([]byte)
}

func (p *BufferPool) Put(buf []byte) {
	if cap(buf) < DatagramSize {
		return
	}

	buf = buf[:cap(buf)]
	clear(buf)
	p.pool.Put(buf)
}
