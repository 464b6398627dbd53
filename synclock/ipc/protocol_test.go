package ipc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	in := []string{"1", "request-acquire", "ctx-1", "com.example:lib:jar"}

	require.NoError(t, WriteFrame(&buf, in))
	out, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestReadFrameEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))
	out, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Empty(t, out)
}
