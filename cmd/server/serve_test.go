package main

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"riceMarketplace/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(dir, "rice.db")
	cfg.HTTP.Address = "127.0.0.1:0"
	cfg.HTTP.UploadDir = filepath.Join(dir, "uploads")
	cfg.Auth.SessionSecret = "serve-test-secret"
	cfg.Auth.SessionTTL = time.Hour
	return cfg
}

// occupy holds a local port for the duration of the test.
func occupy(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = lis.Close() })
	return lis.Addr().String()
}

func TestServe_HTTPListenFailureIsReturned(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.Address = occupy(t)
	cfg.GRPC.Address = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := serve(ctx, cfg)
	if err == nil || !strings.Contains(err.Error(), "http server") {
		t.Fatalf("expected http server error, got %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("serve should fail fast, not wait for the context")
	}
}

func TestServe_GRPCListenFailureIsReturned(t *testing.T) {
	cfg := testConfig(t)
	cfg.GRPC.Address = occupy(t)

	err := serve(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "start grpc") {
		t.Fatalf("expected grpc start error, got %v", err)
	}
}

func TestServe_StopsCleanlyOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, cfg); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
