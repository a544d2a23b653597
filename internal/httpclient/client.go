package httpclient

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
)

// LoggingRoundTripper logs every outbound call made to a payment gateway
// or notification API. Query strings are dropped from the logged URL since
// some providers put tokens in the path or query.
type LoggingRoundTripper struct {
	Next    http.RoundTripper
	Service string
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}

	log := logger.Named("http").With(
		zap.String("service", t.Service),
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
	)

	start := time.Now()
	resp, err := next.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("outbound request failed", zap.Duration("duration", elapsed), zap.Error(err))
		return nil, err
	}

	log.Debug("outbound request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
	)
	return resp, nil
}

// New returns an http.Client that logs through LoggingRoundTripper.
func New(service string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &LoggingRoundTripper{Next: http.DefaultTransport, Service: service},
	}
}
