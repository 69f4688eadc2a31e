package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajtop/tftp/pkg/types"
	"github.com/ajtop/tftp/pkg/utils"
)

func TestErrorEncoding(t *testing.T) {
	t.Parallel()

	b, err := types.NewError(types.ErrFileNotFound, "message").MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, []byte("\x00\x05\x00\x01message\x00"), b)
}

func TestErrorEncodingEscapesMessage(t *testing.T) {
	t.Parallel()

	b, err := types.NewError(types.ErrDiskFull, "me\rssage\n").MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, []byte("\x00\x05\x00\x03me\r\x00ssage\r\n\x00"), b)
}

func TestErrorRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []*types.Error{
		types.NewError(types.ErrNotDefined, ""),
		types.NewError(types.ErrFileNotFound, "foo.txt: file not found"),
		types.NewError(types.ErrNoSuchUser, "multi\nline\rmessage"),
	}

	for _, errPacket := range tests {
		b, err := errPacket.MarshalBinary()
		require.NoError(t, err)

		var got types.Error

		require.NoError(t, got.UnmarshalBinary(b))
		assert.Equal(t, *errPacket, got)
	}
}

func TestErrorImplementsError(t *testing.T) {
	t.Parallel()

	var err error = types.NewError(types.ErrAccessViolation, "denied")

	assert.Equal(t, "access violation: denied", err.Error())
}

func TestErrorDecodeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"wrong opcode", []byte("\x00\x04\x00\x01m\x00"), utils.ErrWrongOpCode},
		{"unknown error code", []byte("\x00\x05\x00\x08m\x00"), utils.ErrUnknownErrCode},
		{"missing terminator", []byte("\x00\x05\x00\x01msg"), utils.ErrMalformedPacket},
		{"invalid utf-8 message", []byte("\x00\x05\x00\x01\xff\xfe\x00"), utils.ErrInvalidText},
		{"too short", []byte("\x00\x05\x00\x01"), utils.ErrShortPacket},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var errPacket types.Error

			assert.ErrorIs(t, errPacket.UnmarshalBinary(tc.in), tc.want)
		})
	}
}
