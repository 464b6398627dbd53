package transport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileTransportGetFull(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib-1.0.jar"), []byte("jar-bytes"), 0o644))

	tr := NewFileTransport(dir, WriteCopy)
	var buf bytes.Buffer
	require.NoError(t, tr.Get(context.Background(), "lib-1.0.jar", &buf, 0, NopListener{}))
	require.Equal(t, "jar-bytes", buf.String())
}

func TestFileTransportGetOffset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.jar"), []byte("0123456789"), 0o644))

	tr := NewFileTransport(dir, WriteCopy)
	var buf bytes.Buffer
	require.NoError(t, tr.Get(context.Background(), "f.jar", &buf, 5, NopListener{}))
	require.Equal(t, "56789", buf.String())
}

func TestFileTransportPeekNotFound(t *testing.T) {
	tr := NewFileTransport(t.TempDir(), WriteCopy)
	err := tr.Peek(context.Background(), "missing.jar")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestFileTransportPutCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	tr := NewFileTransport(dir, WriteCopy)
	err := tr.Put(context.Background(), "com/example/lib/1.0/lib-1.0.jar", bytes.NewReader([]byte("x")), NopListener{})
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "com/example/lib/1.0/lib-1.0.jar"))
	require.NoError(t, err)
	require.Equal(t, "x", string(got))
}

func TestFileTransportGetSymlinkStrategy(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	src := filepath.Join(srcDir, "lib-1.0.jar")
	require.NoError(t, os.WriteFile(src, []byte("jar-bytes"), 0o644))

	tr := NewFileTransport(srcDir, WriteSymlink)
	dstPath := filepath.Join(dstDir, "lib-1.0.jar")
	dst, err := os.Create(dstPath)
	require.NoError(t, err)
	dst.Close()

	reopened, err := os.OpenFile(dstPath, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer reopened.Close()

	err = tr.Get(context.Background(), "lib-1.0.jar", reopened, 0, NopListener{})
	require.NoError(t, err)

	info, err := os.Lstat(dstPath)
	require.NoError(t, err)
	require.True(t, info.Mode()&os.ModeSymlink != 0)
}

func TestFileTransportCancelStopsCopy(t *testing.T) {
	dir := t.TempDir()
	big := bytes.Repeat([]byte("a"), 1<<20)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), big, 0o644))

	tr := NewFileTransport(dir, WriteCopy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := tr.Get(ctx, "big.bin", &buf, 0, NopListener{})
	require.Error(t, err)
}
