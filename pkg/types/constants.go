package types

import "github.com/ajtop/tftp/pkg/utils"

type OpCode uint16

const (
	OpCodeRRQ OpCode = iota + 1
	OpCodeWRQ
	OpCodeDATA
	OpCodeACK
	OpCodeError
)

func (o OpCode) Valid() bool {
	return o >= OpCodeRRQ && o <= OpCodeError
}

type ErrCode uint16

const (
	ErrNotDefined ErrCode = iota
	ErrFileNotFound
	ErrAccessViolation
	ErrDiskFull
	ErrIllegalTftpOp
	ErrUnknownTransferId
	ErrFileAlreadyExists
	ErrNoSuchUser
)

func (e ErrCode) Valid() bool {
	return e <= ErrNoSuchUser
}

func (e ErrCode) String() string {
	switch e {
	case ErrNotDefined:
		return "not defined"
	case ErrFileNotFound:
		return "file not found"
	case ErrAccessViolation:
		return "access violation"
	case ErrDiskFull:
		return "disk full"
	case ErrIllegalTftpOp:
		return "illegal tftp operation"
	case ErrUnknownTransferId:
		return "unknown transfer id"
	case ErrFileAlreadyExists:
		return "file already exists"
	case ErrNoSuchUser:
		return "no such user"
	default:
		return "invalid error code"
	}
}

// Mode is the transfer mode string carried in a request packet. Matching is
// case-sensitive exact match.
type Mode string

const (
	ModeNetascii Mode = "netascii"
	ModeOctet    Mode = "octet"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNetascii:
		return ModeNetascii, nil
	case ModeOctet:
		return ModeOctet, nil
	default:
		return "", utils.ErrUnknownMode
	}
}

const (
	MaxPayloadSize = 512
	DatagramSize   = 516
	AckSize        = 4
)

const DefaultTimeout = 5
