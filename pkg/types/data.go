package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ajtop/tftp/pkg/utils"
)

// Data carries one block of transfer content. A payload shorter than
// MaxPayloadSize marks the final block of a transfer.
type Data struct {
	Payload  []byte
	BlockNum uint16
	Opcode   OpCode
}

func NewData(blockNum uint16, payload []byte) *Data {
	return &Data{Opcode: OpCodeDATA, BlockNum: blockNum, Payload: payload}
}

func (d *Data) MarshalBinary() ([]byte, error) {
	if len(d.Payload) > MaxPayloadSize {
		return nil, utils.ErrDataPayloadTooBig
	}

	b := new(bytes.Buffer)
	b.Grow(4 + len(d.Payload))

	if err := binary.Write(b, binary.BigEndian, &d.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, &d.BlockNum); err != nil {
		return nil, fmt.Errorf("error while writing block#: %w", err)
	}

	if _, err := b.Write(d.Payload); err != nil {
		return nil, fmt.Errorf("error while writing payload: %w", err)
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes a data packet. The payload aliases data, it is not
// copied out.
func (d *Data) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return utils.ErrShortPacket
	}

	if len(data) > DatagramSize {
		return utils.ErrDataPayloadTooBig
	}

	d.Opcode = OpCode(binary.BigEndian.Uint16(data[:2]))
	if d.Opcode != OpCodeDATA {
		return utils.ErrWrongOpCode
	}

	d.BlockNum = binary.BigEndian.Uint16(data[2:4])
	d.Payload = data[4:]

	return nil
}
