package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
)

// HTTPConfig configures an HTTPTransport (§4.D.1: "user-configured
// headers, connect/request timeouts, proxies, preemptive vs
// challenge-driven auth").
type HTTPConfig struct {
	BaseURL        string
	UserAgent      string
	Headers        map[string]string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxRetries     int

	// Username/Password, when set, are sent as preemptive HTTP Basic auth
	// on every request rather than waiting for a 401 challenge.
	Username, Password string

	// Proxy overrides the process-wide proxy environment when non-nil.
	Proxy func(*http.Request) (*url.URL, error)

	Logger hclog.Logger
}

// HTTPTransport implements Transport over HTTP(S): GET with Range for
// resumption, HEAD for peek, PUT for upload (§4.D.1).
type HTTPTransport struct {
	cfg    HTTPConfig
	client *retryablehttp.Client
}

// NewHTTPTransport builds the retrying HTTP client wrapping
// go-cleanhttp's pooled transport, classifying 5xx/connection failures as
// retryable and 4xx as terminal (go-retryablehttp's default policy).
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	transport := cleanhttp.DefaultPooledTransport()
	if cfg.Proxy != nil {
		transport.Proxy = cfg.Proxy
	}
	if cfg.ConnectTimeout > 0 {
		transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	}

	httpClient := &http.Client{Transport: transport}
	if cfg.RequestTimeout > 0 {
		httpClient.Timeout = cfg.RequestTimeout
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	if cfg.MaxRetries > 0 {
		rc.RetryMax = cfg.MaxRetries
	}
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger
	} else {
		rc.Logger = nil
	}

	return &HTTPTransport{cfg: cfg, client: rc}
}

func (t *HTTPTransport) url(loc string) string {
	if t.cfg.BaseURL == "" {
		return loc
	}
	return t.cfg.BaseURL + "/" + loc
}

func (t *HTTPTransport) newRequest(ctx context.Context, method, loc string, body io.Reader) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, t.url(loc), body)
	if err != nil {
		return nil, err
	}
	if t.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", t.cfg.UserAgent)
	}
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}
	if t.cfg.Username != "" {
		req.SetBasicAuth(t.cfg.Username, t.cfg.Password)
	}
	return req, nil
}

func classify(op, loc string, resp *http.Response, err error) error {
	if err != nil {
		return &TransferError{Kind: KindOther, Op: op, Loc: loc, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return &TransferError{Kind: KindNotFound, Op: op, Loc: loc, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 300 {
		return &TransferError{Kind: KindOther, Op: op, Loc: loc, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}

func (t *HTTPTransport) Peek(ctx context.Context, loc string) error {
	req, err := t.newRequest(ctx, http.MethodHead, loc, nil)
	if err != nil {
		return &TransferError{Kind: KindOther, Op: "peek", Loc: loc, Err: err}
	}
	resp, err := t.client.Do(req)
	if err == nil {
		defer resp.Body.Close()
	}
	return classify("peek", loc, resp, err)
}

// Get performs a GET, adding a Range header when offset > 0 (§4.D.1 "GET
// with Range: for resumption"). A server that ignores Range and returns
// 200 instead of 206 has its full body written to sink; Get does not
// report which of the two statuses the server sent.
func (t *HTTPTransport) Get(ctx context.Context, loc string, sink Sink, offset int64, l Listener) error {
	req, err := t.newRequest(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return &TransferError{Kind: KindOther, Op: "get", Loc: loc, Err: err}
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return &TransferError{Kind: KindOther, Op: "get", Loc: loc, Err: err}
	}
	defer resp.Body.Close()
	if rerr := classify("get", loc, resp, nil); rerr != nil {
		return rerr
	}

	l.Started(loc, resp.ContentLength)
	_, err = copyWithProgress(ctx, sink, resp.Body, loc, l)
	l.Finished(loc, err)
	if err != nil {
		return &TransferError{Kind: KindOther, Op: "get", Loc: loc, Err: err}
	}
	return nil
}

func (t *HTTPTransport) Put(ctx context.Context, loc string, source Source, l Listener) error {
	body, err := io.ReadAll(source)
	if err != nil {
		return &TransferError{Kind: KindOther, Op: "put", Loc: loc, Err: err}
	}
	req, err := t.newRequest(ctx, http.MethodPut, loc, nil)
	if err != nil {
		return &TransferError{Kind: KindOther, Op: "put", Loc: loc, Err: err}
	}
	if err := req.SetBody(body); err != nil {
		return &TransferError{Kind: KindOther, Op: "put", Loc: loc, Err: err}
	}

	l.Started(loc, int64(len(body)))
	resp, err := t.client.Do(req)
	if err != nil {
		l.Finished(loc, err)
		return &TransferError{Kind: KindOther, Op: "put", Loc: loc, Err: err}
	}
	defer resp.Body.Close()
	l.Progress(loc, int64(len(body)))
	rerr := classify("put", loc, resp, nil)
	l.Finished(loc, rerr)
	return rerr
}
