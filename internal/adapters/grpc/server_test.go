package grpc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcadapter "github.com/andrescamacho/colonysim/internal/adapters/grpc"
)

func startServer(t *testing.T) (*grpcadapter.HealthServer, *grpcadapter.HealthClient) {
	t.Helper()
	server, err := grpcadapter.NewHealthServer("127.0.0.1:0", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	client, err := grpcadapter.NewHealthClient(server.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return server, client
}

func TestHealthServer_ReportsEngineStatus(t *testing.T) {
	server, client := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	overall, err := client.Check(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "SERVING", overall)

	engine, err := client.Check(ctx, grpcadapter.EngineService)
	require.NoError(t, err)
	assert.Equal(t, "NOT_SERVING", engine)

	server.SetEngineServing(true)
	engine, err = client.Check(ctx, grpcadapter.EngineService)
	require.NoError(t, err)
	assert.Equal(t, "SERVING", engine)
}

func TestHealthServer_UnknownService(t *testing.T) {
	_, client := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Check(ctx, "nope")
	assert.Error(t, err)
}

func TestHealthServer_UnixSocket(t *testing.T) {
	socket := "unix:" + t.TempDir() + "/colony.sock"
	server, err := grpcadapter.NewHealthServer(socket, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	client, err := grpcadapter.NewHealthClient(socket)
	require.NoError(t, err)
	defer client.Close()

	checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer checkCancel()
	status, err := client.Check(checkCtx, "")
	require.NoError(t, err)
	assert.Equal(t, "SERVING", status)

	cancel()
	assert.NoError(t, <-done)
}
