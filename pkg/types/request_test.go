package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajtop/tftp/pkg/types"
	"github.com/ajtop/tftp/pkg/utils"
)

func TestReadRequestEncoding(t *testing.T) {
	t.Parallel()

	b, err := types.NewReadRequest("foo.txt", types.ModeOctet).MarshalBinary()
	require.NoError(t, err)

	want := []byte{
		0x00, 0x01,
		0x66, 0x6F, 0x6F, 0x2E, 0x74, 0x78, 0x74, 0x00,
		0x6F, 0x63, 0x74, 0x65, 0x74, 0x00,
	}
	assert.Equal(t, want, b)
}

func TestWriteRequestEncoding(t *testing.T) {
	t.Parallel()

	b, err := types.NewWriteRequest("na", types.ModeNetascii).MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, []byte("\x00\x02na\x00netascii\x00"), b)
}

func TestRequestEncodingEscapesFilename(t *testing.T) {
	t.Parallel()

	b, err := types.NewReadRequest("foo\nbar", types.ModeOctet).MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, []byte("\x00\x01foo\r\nbar\x00octet\x00"), b)
}

func TestRequestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []*types.Request{
		types.NewReadRequest("foo.txt", types.ModeOctet),
		types.NewWriteRequest("foo.txt", types.ModeNetascii),
		types.NewReadRequest("dir/with\nnewline", types.ModeOctet),
		types.NewWriteRequest("", types.ModeOctet),
	}

	for _, req := range tests {
		b, err := req.MarshalBinary()
		require.NoError(t, err)

		var got types.Request

		require.NoError(t, got.UnmarshalBinary(b))
		assert.Equal(t, *req, got)
	}
}

func TestRequestDecodeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"wrong opcode", []byte("\x00\x03foo\x00octet\x00"), utils.ErrWrongOpCode},
		{"unknown opcode", []byte("\x00\x09foo\x00octet\x00"), utils.ErrWrongOpCode},
		{"missing filename terminator", []byte("\x00\x01foo"), utils.ErrMalformedPacket},
		{"missing mode terminator", []byte("\x00\x01foo\x00octet"), utils.ErrMalformedPacket},
		{"bytes after mode terminator", []byte("\x00\x01foo\x00octet\x00junk"), utils.ErrMalformedPacket},
		{"unknown mode", []byte("\x00\x01foo\x00mail\x00"), utils.ErrUnknownMode},
		{"mode case is not folded", []byte("\x00\x01foo\x00OCTET\x00"), utils.ErrUnknownMode},
		{"invalid utf-8 filename", []byte("\x00\x01\xff\xfe\x00octet\x00"), utils.ErrInvalidText},
		{"invalid netascii filename", []byte("\x00\x01fo\ro\x00octet\x00"), utils.ErrInvalidNetascii},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var req types.Request

			assert.ErrorIs(t, req.UnmarshalBinary(tc.in), tc.want)
		})
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	mode, err := types.ParseMode("octet")
	require.NoError(t, err)
	assert.Equal(t, types.ModeOctet, mode)

	mode, err = types.ParseMode("netascii")
	require.NoError(t, err)
	assert.Equal(t, types.ModeNetascii, mode)

	_, err = types.ParseMode("Octet")
	assert.ErrorIs(t, err, utils.ErrUnknownMode)
}
