package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// RequestObserver records the outcome of a finished request.
type RequestObserver interface {
	ObserveRequest(method, code string, duration time.Duration)
}

// Metrics reports every unary request to a RequestObserver.
type Metrics struct {
	observer RequestObserver
}

func NewMetrics(observer RequestObserver) *Metrics {
	return &Metrics{observer: observer}
}

func (m *Metrics) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	m.observer.ObserveRequest(info.FullMethod, codeOf(err).String(), time.Since(start))
	return resp, err
}
