package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestInitMetrics_ExposesRPCMetrics(t *testing.T) {
	provider, handler, err := InitMetrics(MetricsConfig{ServiceName: "loancalcd"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewRPCMetrics(provider.Meter("test"))
	require.NoError(t, err)

	interceptor := m.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/loancalc.v1.CalculatorService/Calculate"}
	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, nil
	})
	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "loancalc_rpc_requests")
	assert.Contains(t, string(body), `code="InvalidArgument"`)
}

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{ServiceName: "loancalcd"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestRPCMetrics_RecordNeverFails(t *testing.T) {
	provider, _, err := InitMetrics(MetricsConfig{})
	require.NoError(t, err)
	m, err := NewRPCMetrics(provider.Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.Record(context.Background(), "/x", status.Code(errors.New("boom")).String(), 0)
	})
}
