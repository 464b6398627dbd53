package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenForResumeFreshStart(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "lib-1.0.jar")

	pf, offset, err := OpenForResume(context.Background(), target, ResumeThreshold{})
	require.NoError(t, err)
	require.NotNil(t, pf)
	require.Equal(t, int64(0), offset)

	_, err = pf.Write([]byte("jar-bytes"))
	require.NoError(t, err)
	require.NoError(t, pf.Commit())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "jar-bytes", string(got))
	require.NoFileExists(t, target+".part")
}

func TestOpenForResumeContinuesExistingPart(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "lib-1.0.jar")
	require.NoError(t, os.WriteFile(target+".part", []byte("jar-"), 0o644))

	pf, offset, err := OpenForResume(context.Background(), target, ResumeThreshold{})
	require.NoError(t, err)
	require.Equal(t, int64(4), offset)

	_, err = pf.Write([]byte("bytes"))
	require.NoError(t, err)
	require.NoError(t, pf.Commit())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "jar-bytes", string(got))
}

func TestOpenForResumeAbortLeavesPartFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "lib-1.0.jar")

	pf, _, err := OpenForResume(context.Background(), target, ResumeThreshold{})
	require.NoError(t, err)
	_, err = pf.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, pf.Abort())

	require.FileExists(t, target+".part")
	require.NoFileExists(t, target)
}

func TestOpenForResumeAfterPeerCommitStartsFresh(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "lib-1.0.jar")

	writer, _, err := OpenForResume(context.Background(), target, ResumeThreshold{})
	require.NoError(t, err)
	_, err = writer.Write([]byte("jar-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Commit())

	// The writer already committed and released its lock; a second caller
	// arriving afterwards acquires the exclusive lock itself and starts a
	// fresh part file since Commit renamed the old one away.
	second, offset, err := OpenForResume(context.Background(), target, ResumeThreshold{Enabled: true, RequestTimeout: time.Second, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, int64(0), offset)
	require.NoError(t, second.Abort())
}
