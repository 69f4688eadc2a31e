package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajtop/tftp/pkg/types"
	"github.com/ajtop/tftp/pkg/utils"
)

func TestAckEncoding(t *testing.T) {
	t.Parallel()

	b, err := types.NewAck(1).MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, []byte{0, 4, 0, 1}, b)
}

func TestAckRoundTrip(t *testing.T) {
	t.Parallel()

	for _, blockNum := range []uint16{0, 1, 512, 65535} {
		b, err := types.NewAck(blockNum).MarshalBinary()
		require.NoError(t, err)
		require.Len(t, b, types.AckSize)

		var got types.Ack

		require.NoError(t, got.UnmarshalBinary(b))
		assert.Equal(t, blockNum, got.BlockNum)
	}
}

func TestAckDecodeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"too short", []byte{0, 4, 0}, utils.ErrShortPacket},
		{"too long", []byte{0, 4, 0, 1, 0}, utils.ErrMalformedPacket},
		{"wrong opcode", []byte{0, 3, 0, 1}, utils.ErrWrongOpCode},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var ack types.Ack

			assert.ErrorIs(t, ack.UnmarshalBinary(tc.in), tc.want)
		})
	}
}
