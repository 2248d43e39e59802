package yahoo

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrProviderUnavailable marks a provider failure that says nothing about the symbol:
// throttling, auth trouble or a server-side fault.
var ErrProviderUnavailable = errors.New("market data provider unavailable")

// StatusError carries the HTTP status behind ErrProviderUnavailable.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d", ErrProviderUnavailable, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrProviderUnavailable }

// statusTransport surfaces non-404 failures as errors before finance-go collapses every
// status >= 400 into one generic message. A 404 passes through: that is how the chart
// endpoint answers for unknown symbols.
type statusTransport struct {
	next http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return nil, &StatusError{Code: resp.StatusCode}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: statusTransport{next: http.DefaultTransport},
	}
}
