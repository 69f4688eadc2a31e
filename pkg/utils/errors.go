package utils

import "errors"

var (
	ErrShortPacket       = errors.New("error: packet shorter than its minimum size")
	ErrWrongOpCode       = errors.New("error: invalid operation code")
	ErrUnknownErrCode    = errors.New("error: unknown error code")
	ErrUnknownMode       = errors.New("error: unknown transfer mode")
	ErrMalformedPacket   = errors.New("error: malformed packet")
	ErrInvalidText       = errors.New("error: text field is not valid utf-8")
	ErrInvalidNetascii   = errors.New("error: invalid netascii escape sequence")
	ErrDataPayloadTooBig = errors.New("error: payload exceeds 512 bytes")
	ErrPacketMarshall    = errors.New("error: can not marshall packet")
	ErrUnexpectedPacket  = errors.New("error: unexpected packet for current transfer state")
	ErrTimeoutExhausted  = errors.New("error: retry budget exhausted")
	ErrNotConnected      = errors.New("error: client is not connected")
)
