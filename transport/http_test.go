package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	started, finished bool
	lastProgress      int64
	err               error
}

func (l *recordingListener) Started(string, int64)      { l.started = true }
func (l *recordingListener) Progress(_ string, n int64)  { l.lastProgress = n }
func (l *recordingListener) Finished(_ string, err error) {
	l.finished = true
	l.err = err
}

func TestHTTPTransportGetFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lib-1.0.jar", r.URL.Path)
		_, _ = w.Write([]byte("jar-bytes"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL})
	var buf bytes.Buffer
	l := &recordingListener{}
	err := tr.Get(context.Background(), "lib-1.0.jar", &buf, 0, l)
	require.NoError(t, err)
	require.Equal(t, "jar-bytes", buf.String())
	require.True(t, l.started)
	require.True(t, l.finished)
	require.NoError(t, l.err)
}

func TestHTTPTransportGetWithRangeResume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bytes=4-", r.Header.Get("Range"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL})
	var buf bytes.Buffer
	err := tr.Get(context.Background(), "f.jar", &buf, 4, NopListener{})
	require.NoError(t, err)
	require.Equal(t, "bytes", buf.String())
}

func TestHTTPTransportPeekNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL, MaxRetries: 0})
	err := tr.Peek(context.Background(), "missing.jar")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestHTTPTransportPeekOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL})
	require.NoError(t, tr.Peek(context.Background(), "present.jar"))
}

func TestHTTPTransportPut(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.Bytes()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL})
	l := &recordingListener{}
	err := tr.Put(context.Background(), "upload.jar", bytes.NewReader([]byte("payload")), l)
	require.NoError(t, err)
	require.Equal(t, "payload", string(gotBody))
	require.True(t, l.finished)
}

func TestHTTPTransportPreemptiveAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "alice", user)
		require.Equal(t, "s3cret", pass)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL, Username: "alice", Password: "s3cret"})
	require.NoError(t, tr.Peek(context.Background(), "x.jar"))
}

func TestHTTPTransportCustomHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "resolve-agent/1.0", r.Header.Get("User-Agent"))
		require.Equal(t, "v1", r.Header.Get("X-Custom"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPConfig{
		BaseURL:   srv.URL,
		UserAgent: "resolve-agent/1.0",
		Headers:   map[string]string{"X-Custom": "v1"},
	})
	require.NoError(t, tr.Peek(context.Background(), "x.jar"))
}
