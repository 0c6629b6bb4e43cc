package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"riceMarketplace/models"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and validates
// a Bearer session token from incoming metadata and injects the Principal into the context.
// Methods listed in allowUnauthenticated bypass authentication (public catalog reads).
func NewUnaryAuthInterceptor(sessions *Sessions, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		p, err := ParseFromMD(ctx, sessions)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

// ParseFromMD extracts and validates a Bearer token from gRPC metadata.
func ParseFromMD(ctx context.Context, sessions *Sessions) (*Principal, error) {
	if sessions == nil {
		return nil, errors.New("sessions not configured")
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, errors.New("missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return nil, errors.New("missing authorization")
	}
	parts := strings.SplitN(vals[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid authorization header")
	}
	return sessions.Parse(parts[1])
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing principal")
	}
	return p, nil
}

// RequireKind ensures the principal has the given role.
func RequireKind(ctx context.Context, kind models.Role) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind != kind {
		return nil, status.Errorf(codes.PermissionDenied, "only %s can perform this action", kind)
	}
	return p, nil
}

// RequireFarmer ensures the caller is a farmer.
func RequireFarmer(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, models.RoleFarmer)
}
