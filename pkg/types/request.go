package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/ajtop/tftp/pkg/netascii"
	"github.com/ajtop/tftp/pkg/utils"
)

// Request is a read (RRQ) or write (WRQ) request packet. Filename holds the
// unescaped form; it is netascii escaped on the wire.
type Request struct {
	Filename string
	Mode     Mode
	Opcode   OpCode
}

func NewReadRequest(filename string, mode Mode) *Request {
	return &Request{Opcode: OpCodeRRQ, Filename: filename, Mode: mode}
}

func NewWriteRequest(filename string, mode Mode) *Request {
	return &Request{Opcode: OpCodeWRQ, Filename: filename, Mode: mode}
}

func (r *Request) MarshalBinary() ([]byte, error) {
	if r.Opcode != OpCodeRRQ && r.Opcode != OpCodeWRQ {
		return nil, utils.ErrWrongOpCode
	}

	filename := netascii.ToNetascii(r.Filename)

	b := new(bytes.Buffer)
	b.Grow(2 + len(filename) + 1 + len(r.Mode) + 1)

	if err := binary.Write(b, binary.BigEndian, &r.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if _, err := b.WriteString(filename); err != nil {
		return nil, fmt.Errorf("error while writing filename: %w", err)
	}

	if err := b.WriteByte(0); err != nil {
		return nil, fmt.Errorf("error while writing null byte after filename: %w", err)
	}

	if _, err := b.WriteString(string(r.Mode)); err != nil {
		return nil, fmt.Errorf("error while writing mode: %w", err)
	}

	if err := b.WriteByte(0); err != nil {
		return nil, fmt.Errorf("error while writing null byte after mode: %w", err)
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes a request packet. Exactly two NUL-terminated
// fields must follow the opcode, the filename must be valid UTF-8 and valid
// netascii, and the mode string must be a recognized mode.
func (r *Request) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return utils.ErrShortPacket
	}

	r.Opcode = OpCode(binary.BigEndian.Uint16(data[:2]))
	if r.Opcode != OpCodeRRQ && r.Opcode != OpCodeWRQ {
		return utils.ErrWrongOpCode
	}

	rest := data[2:]

	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		return utils.ErrMalformedPacket
	}

	filename := rest[:i]
	rest = rest[i+1:]

	j := bytes.IndexByte(rest, 0)
	if j < 0 || j+1 != len(rest) {
		return utils.ErrMalformedPacket
	}

	if !utf8.Valid(filename) {
		return utils.ErrInvalidText
	}

	unescaped, err := netascii.FromNetascii(string(filename))
	if err != nil {
		return err
	}

	mode, err := ParseMode(string(rest[:j]))
	if err != nil {
		return err
	}

	r.Filename = unescaped
	r.Mode = mode

	return nil
}
