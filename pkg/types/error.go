package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/ajtop/tftp/pkg/netascii"
	"github.com/ajtop/tftp/pkg/utils"
)

// Error is the ERROR packet. It implements the error interface so a packet
// received from the peer can be surfaced to the caller directly.
type Error struct {
	ErrMsg    string
	ErrorCode ErrCode
	Opcode    OpCode
}

func NewError(code ErrCode, msg string) *Error {
	return &Error{Opcode: OpCodeError, ErrorCode: code, ErrMsg: msg}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.ErrMsg)
}

func (e *Error) MarshalBinary() ([]byte, error) {
	if !e.ErrorCode.Valid() {
		return nil, utils.ErrUnknownErrCode
	}

	msg := netascii.ToNetascii(e.ErrMsg)

	b := new(bytes.Buffer)
	b.Grow(4 + len(msg) + 1)

	if err := binary.Write(b, binary.BigEndian, &e.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, &e.ErrorCode); err != nil {
		return nil, fmt.Errorf("error while writing error code: %w", err)
	}

	if _, err := b.WriteString(msg); err != nil {
		return nil, fmt.Errorf("error while writing error message: %w", err)
	}

	if err := b.WriteByte(0); err != nil {
		return nil, fmt.Errorf("error while writing null byte: %w", err)
	}

	return b.Bytes(), nil
}

func (e *Error) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return utils.ErrShortPacket
	}

	e.Opcode = OpCode(binary.BigEndian.Uint16(data[:2]))
	if e.Opcode != OpCodeError {
		return utils.ErrWrongOpCode
	}

	e.ErrorCode = ErrCode(binary.BigEndian.Uint16(data[2:4]))
	if !e.ErrorCode.Valid() {
		return utils.ErrUnknownErrCode
	}

	rest := data[4:]

	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		return utils.ErrMalformedPacket
	}

	msg := rest[:i]
	if !utf8.Valid(msg) {
		return utils.ErrInvalidText
	}

	unescaped, err := netascii.FromNetascii(string(msg))
	if err != nil {
		return err
	}

	e.ErrMsg = unescaped

	return nil
}
