package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ajtop/tftp/pkg/utils"
)

// Ack acknowledges one data block. Exactly 4 bytes on the wire.
type Ack struct {
	Opcode   OpCode
	BlockNum uint16
}

func NewAck(blockNum uint16) *Ack {
	return &Ack{Opcode: OpCodeACK, BlockNum: blockNum}
}

func (a *Ack) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	b.Grow(AckSize)

	if err := binary.Write(b, binary.BigEndian, &a.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, &a.BlockNum); err != nil {
		return nil, fmt.Errorf("error while writing block#: %w", err)
	}

	return b.Bytes(), nil
}

func (a *Ack) UnmarshalBinary(data []byte) error {
	if len(data) < AckSize {
		return utils.ErrShortPacket
	}

	if len(data) != AckSize {
		return utils.ErrMalformedPacket
	}

	a.Opcode = OpCode(binary.BigEndian.Uint16(data[:2]))
	if a.Opcode != OpCodeACK {
		return utils.ErrWrongOpCode
	}

	a.BlockNum = binary.BigEndian.Uint16(data[2:4])

	return nil
}
