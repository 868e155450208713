package uptime

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// Failure reasons reported in ProbeResult.Error.
const (
	ReasonOK                 = "OK"
	ReasonTimeout            = "Timeout"
	ReasonTLS                = "SSL Error"
	ReasonTooManyRedirects   = "Too Many Redirects"
	ReasonInvalidURL         = "Invalid URL"
	ReasonDNS                = "DNS Resolution Failed"
	ReasonConnectionRefused  = "Connection Refused"
	ReasonNetworkUnreachable = "Network Unreachable"
	ReasonConnectionReset    = "Connection Reset"
	ReasonConnectionFailed   = "Connection Failed"
)

const maxDrainBytes = 64 << 10

var errTooManyRedirects = errors.New("stopped after too many redirects")

// RetryPolicy bounds how often a probe is attempted. Only failures classified
// as retryable (timeouts and connection errors) consume further attempts.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func (rp RetryPolicy) attempts() int {
	if rp.MaxAttempts < 1 {
		return 1
	}
	return rp.MaxAttempts
}

// Prober executes HTTP health checks. It holds no mutable state and is safe
// for concurrent use.
type Prober struct {
	client    *http.Client
	degraded  time.Duration
	retry     RetryPolicy
	userAgent string
}

// NewProber builds a Prober whose client gives up after timeout and after
// maxRedirects redirects.
func NewProber(timeout, degraded time.Duration, retry RetryPolicy, maxRedirects int, userAgent string) *Prober {
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &Prober{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		degraded:  degraded,
		retry:     retry,
		userAgent: userAgent,
	}
}

// Probe checks rawURL and always returns a classified result; transport
// errors never escape as Go errors.
func (p *Prober) Probe(ctx context.Context, rawURL string) ProbeResult {
	if !validURL(rawURL) {
		return ProbeResult{Timestamp: time.Now(), Status: StatusDown, Error: ReasonInvalidURL}
	}

	attempts := p.retry.attempts()
	var last ProbeResult
	for attempt := 1; attempt <= attempts; attempt++ {
		res, retryable := p.attempt(ctx, rawURL)
		last = res
		if !retryable || attempt == attempts {
			break
		}
		if !sleepCtx(ctx, p.retry.Backoff) {
			break
		}
	}
	return last
}

func (p *Prober) attempt(ctx context.Context, rawURL string) (ProbeResult, bool) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ProbeResult{Timestamp: start, Status: StatusDown, Error: ReasonInvalidURL}, false
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		reason, retryable := classifyError(err)
		return ProbeResult{
			Timestamp: start,
			Status:    StatusDown,
			ElapsedMS: time.Since(start).Milliseconds(),
			Error:     reason,
		}, retryable
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
	elapsed := time.Since(start)

	status, reason := classifyResponse(resp.StatusCode, elapsed, p.degraded)
	return ProbeResult{
		Timestamp:  start,
		Status:     status,
		ElapsedMS:  elapsed.Milliseconds(),
		StatusCode: resp.StatusCode,
		Error:      reason,
	}, false
}

// classifyResponse applies the response policy: error codes first, then the
// degraded threshold.
func classifyResponse(code int, elapsed, degraded time.Duration) (Status, string) {
	if code >= 400 {
		text := http.StatusText(code)
		if text == "" {
			text = "Unknown"
		}
		return StatusDown, fmt.Sprintf("HTTP %d (%s)", code, text)
	}
	if degraded > 0 && elapsed > degraded {
		return StatusHighLatency, fmt.Sprintf("Response time %dms exceeded %dms threshold",
			elapsed.Milliseconds(), degraded.Milliseconds())
	}
	return StatusUp, ReasonOK
}

// classifyError maps a transport error to a reason and whether another
// attempt may help.
func classifyError(err error) (string, bool) {
	var (
		dnsErr     *net.DNSError
		certErr    *tls.CertificateVerificationError
		authErr    x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		recordErr  tls.RecordHeaderError
		alertErr   tls.AlertError
		opErr      *net.OpError
		netErr     net.Error
	)

	switch {
	case errors.Is(err, errTooManyRedirects):
		return ReasonTooManyRedirects, false
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return ReasonTimeout, true
	case errors.As(err, &certErr), errors.As(err, &authErr), errors.As(err, &hostErr),
		errors.As(err, &invalidErr), errors.As(err, &recordErr), errors.As(err, &alertErr),
		strings.Contains(err.Error(), "tls: "), strings.Contains(err.Error(), "x509: "):
		return ReasonTLS, false
	case errors.As(err, &dnsErr):
		return ReasonDNS, false
	case errors.Is(err, syscall.ECONNREFUSED):
		return ReasonConnectionRefused, true
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return ReasonNetworkUnreachable, true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ReasonConnectionReset, true
	case errors.As(err, &opErr):
		return ReasonConnectionFailed, true
	case errors.Is(err, context.Canceled):
		return "Unknown Error: probe cancelled", false
	}
	return "Unknown Error: " + err.Error(), false
}

func validURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
