package auth

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"riceMarketplace/internal/testutil"
	"riceMarketplace/models"
)

func TestParseFromMD(t *testing.T) {
	s := newTestSessions(t)
	tok := testutil.GenerateJWTHS256(t, testSecret, 3, "alice", "farmer", time.Hour)
	p, err := ParseFromMD(testutil.CtxWithBearer(context.Background(), tok), s)
	if err != nil {
		t.Fatalf("ParseFromMD: %v", err)
	}
	if p.AccountID != 3 || p.Kind != models.RoleFarmer {
		t.Fatalf("principal mismatch: %+v", p)
	}
	if _, err := ParseFromMD(context.Background(), s); err == nil {
		t.Fatalf("expected error for missing metadata")
	}
}

func TestRequireKind(t *testing.T) {
	ctx := WithPrincipal(context.Background(), &Principal{AccountID: 1, Name: "b", Kind: models.RoleBuyer})
	if _, err := RequireFarmer(ctx); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if _, err := RequireKind(ctx, models.RoleBuyer); err != nil {
		t.Fatalf("RequireKind buyer: %v", err)
	}
	if _, err := RequirePrincipal(context.Background()); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestUnaryAuthInterceptor(t *testing.T) {
	s := newTestSessions(t)
	interceptor := NewUnaryAuthInterceptor(s, "/public")

	called := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/public"}, func(ctx context.Context, req any) (any, error) {
		called = true
		if _, ok := FromContext(ctx); ok {
			t.Fatalf("expected no principal on allowlisted path")
		}
		return nil, nil
	})
	if err != nil || !called {
		t.Fatalf("allowlisted handler err=%v called=%v", err, called)
	}

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/private"}, func(ctx context.Context, req any) (any, error) {
		t.Fatalf("handler must not run without token")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	tok := testutil.GenerateJWTHS256(t, testSecret, 9, "bob", "buyer", time.Hour)
	_, err = interceptor(testutil.CtxWithBearer(context.Background(), tok), nil, &grpc.UnaryServerInfo{FullMethod: "/private"}, func(ctx context.Context, req any) (any, error) {
		p, ok := FromContext(ctx)
		if !ok || p.AccountID != 9 || p.Kind != models.RoleBuyer {
			t.Fatalf("principal not injected: %+v ok=%v", p, ok)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor auth path: %v", err)
	}
}
