package uptime

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		elapsed    time.Duration
		wantStatus Status
		wantReason string
	}{
		{"not found", 404, 200 * time.Millisecond, StatusDown, "HTTP 404 (Not Found)"},
		{"server error", 503, 10 * time.Millisecond, StatusDown, "HTTP 503 (Service Unavailable)"},
		{"unknown code", 499, 10 * time.Millisecond, StatusDown, "HTTP 499 (Unknown)"},
		{"fast ok", 200, 200 * time.Millisecond, StatusUp, "OK"},
		{"slow ok", 200, 5000 * time.Millisecond, StatusHighLatency, "Response time 5000ms exceeded 3000ms threshold"},
		{"exactly at threshold", 200, 3000 * time.Millisecond, StatusUp, "OK"},
		{"slow error is still down", 500, 5000 * time.Millisecond, StatusDown, "HTTP 500 (Internal Server Error)"},
		{"redirect code", 304, 50 * time.Millisecond, StatusUp, "OK"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, reason := classifyResponse(test.code, test.elapsed, DefaultDegradedThreshold)
			assert.Equal(t, test.wantStatus, status)
			assert.Equal(t, test.wantReason, reason)
		})
	}
}

func TestClassifyError(t *testing.T) {
	wrap := func(err error) error {
		return &url.Error{Op: "Get", URL: "http://example.test", Err: err}
	}
	opErr := func(err error) error {
		return wrap(&net.OpError{Op: "dial", Net: "tcp", Err: err})
	}
	tests := []struct {
		name          string
		err           error
		wantReason    string
		wantRetryable bool
	}{
		{"deadline", wrap(context.DeadlineExceeded), ReasonTimeout, true},
		{"dial timeout", opErr(os.ErrDeadlineExceeded), ReasonTimeout, true},
		{"redirects", wrap(errTooManyRedirects), ReasonTooManyRedirects, false},
		{"unknown authority", wrap(x509.UnknownAuthorityError{}), ReasonTLS, false},
		{"hostname mismatch", wrap(x509.HostnameError{Certificate: &x509.Certificate{}, Host: "a"}), ReasonTLS, false},
		{"tls text", wrap(errors.New("remote error: tls: handshake failure")), ReasonTLS, false},
		{"dns", opErr(&net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}), ReasonDNS, false},
		{"refused", opErr(os.NewSyscallError("connect", syscall.ECONNREFUSED)), ReasonConnectionRefused, true},
		{"net unreachable", opErr(os.NewSyscallError("connect", syscall.ENETUNREACH)), ReasonNetworkUnreachable, true},
		{"host unreachable", opErr(os.NewSyscallError("connect", syscall.EHOSTUNREACH)), ReasonNetworkUnreachable, true},
		{"reset", opErr(os.NewSyscallError("read", syscall.ECONNRESET)), ReasonConnectionReset, true},
		{"eof", wrap(io.EOF), ReasonConnectionReset, true},
		{"generic op error", opErr(errors.New("something odd")), ReasonConnectionFailed, true},
		{"cancelled", wrap(context.Canceled), "Unknown Error: probe cancelled", false},
		{"other", errors.New("boom"), "Unknown Error: boom", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reason, retryable := classifyError(test.err)
			assert.Equal(t, test.wantReason, reason)
			assert.Equal(t, test.wantRetryable, retryable)
		})
	}
}

func TestProbe_Up(t *testing.T) {
	var ua atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	p := NewProber(time.Second, DefaultDegradedThreshold, RetryPolicy{MaxAttempts: 2}, 0, DefaultUserAgent)
	res := p.Probe(context.Background(), ts.URL)

	assert.Equal(t, StatusUp, res.Status)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, ReasonOK, res.Error)
	assert.False(t, res.Timestamp.IsZero())
	assert.Equal(t, DefaultUserAgent, ua.Load())
}

func TestProbe_NotFoundIsDownWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	p := NewProber(time.Second, DefaultDegradedThreshold, RetryPolicy{MaxAttempts: 3}, 0, "")
	res := p.Probe(context.Background(), ts.URL)

	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, 404, res.StatusCode)
	assert.Equal(t, "HTTP 404 (Not Found)", res.Error)
	assert.EqualValues(t, 1, hits.Load())
}

func TestProbe_HighLatency(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(80 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	p := NewProber(time.Second, 20*time.Millisecond, RetryPolicy{MaxAttempts: 1}, 0, "")
	res := p.Probe(context.Background(), ts.URL)

	assert.Equal(t, StatusHighLatency, res.Status)
	assert.Equal(t, 200, res.StatusCode)
	assert.GreaterOrEqual(t, res.ElapsedMS, int64(80))
	assert.Contains(t, res.Error, "exceeded 20ms threshold")
}

func TestProbe_TimeoutAfterRetries(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	p := NewProber(50*time.Millisecond, DefaultDegradedThreshold, RetryPolicy{MaxAttempts: 2, Backoff: 10 * time.Millisecond}, 0, "")
	res := p.Probe(context.Background(), ts.URL)

	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, ReasonTimeout, res.Error)
	assert.Equal(t, 0, res.StatusCode)
	assert.EqualValues(t, 2, hits.Load())
}

func TestProbe_TooManyRedirectsIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", ts.URL, n), http.StatusFound)
	}))
	defer ts.Close()

	p := NewProber(time.Second, DefaultDegradedThreshold, RetryPolicy{MaxAttempts: 3}, 3, "")
	res := p.Probe(context.Background(), ts.URL)

	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, ReasonTooManyRedirects, res.Error)
	// one attempt: the original request plus the redirects followed before the cap
	assert.EqualValues(t, 3, hits.Load())
}

func TestProbe_TLSFailure(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	// the default client does not trust the test server's certificate
	p := NewProber(time.Second, DefaultDegradedThreshold, RetryPolicy{MaxAttempts: 2, Backoff: time.Second}, 0, "")
	start := time.Now()
	res := p.Probe(context.Background(), ts.URL)

	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, ReasonTLS, res.Error)
	assert.Less(t, time.Since(start), time.Second, "TLS failures must not wait for a retry")
}

func TestProbe_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	p := NewProber(time.Second, DefaultDegradedThreshold, RetryPolicy{MaxAttempts: 2, Backoff: 5 * time.Millisecond}, 0, "")
	res := p.Probe(context.Background(), "http://"+addr)

	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, ReasonConnectionRefused, res.Error)
	assert.Equal(t, 0, res.StatusCode)
}

func TestProbe_InvalidURL(t *testing.T) {
	p := NewProber(time.Second, DefaultDegradedThreshold, RetryPolicy{MaxAttempts: 2}, 0, "")
	for _, raw := range []string{"", "not a url", "ftp://example.com", "http://", "://missing-scheme"} {
		res := p.Probe(context.Background(), raw)
		assert.Equal(t, StatusDown, res.Status, raw)
		assert.Equal(t, ReasonInvalidURL, res.Error, raw)
	}
}
