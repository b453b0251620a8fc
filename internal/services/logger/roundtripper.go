// Package logger provides an http.RoundTripper that records outbound
// provider calls.
package logger

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type RoundTripper struct {
	Logger *zap.Logger
	Proxy  http.RoundTripper
}

func NewRoundTripper(logger *zap.Logger) *RoundTripper {
	return &RoundTripper{
		Logger: logger,
		Proxy:  http.DefaultTransport,
	}
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.Logger.Error("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("host", req.URL.Host),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	l.Logger.Info("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	return resp, nil
}
