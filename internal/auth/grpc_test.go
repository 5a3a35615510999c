package auth

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"roomBookingManagement/internal/testutil"
	"roomBookingManagement/models"
)

type lookupFunc func(ctx context.Context, username string) (*models.User, error)

func (f lookupFunc) LookupUser(ctx context.Context, username string) (*models.User, error) {
	return f(ctx, username)
}

func TestRequireKindAndHelpers(t *testing.T) {
	ctx := WithPrincipal(context.Background(), &Principal{Name: "alice", Kind: KindUser})
	if _, err := RequireUserOrAdmin(ctx); err != nil {
		t.Fatalf("RequireUserOrAdmin: %v", err)
	}
	if _, err := RequireKind(ctx, KindAdmin); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if _, err := RequirePrincipal(context.Background()); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestRequireAdmin_WithStoredRoleCheck(t *testing.T) {
	role := models.RoleUser
	users := lookupFunc(func(_ context.Context, username string) (*models.User, error) {
		if username != "alice" {
			return nil, nil
		}
		return &models.User{Username: "alice", Role: role}, nil
	})

	// Token says admin but the stored account is a user
	pctx := WithPrincipal(context.Background(), &Principal{Name: "alice", Kind: KindAdmin})
	if _, err := RequireAdmin(pctx, users); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied for non-admin role, got %v", err)
	}

	role = models.RoleAdmin
	if _, err := RequireAdmin(pctx, users); err != nil {
		t.Fatalf("RequireAdmin real admin: %v", err)
	}

	gone := WithPrincipal(context.Background(), &Principal{Name: "ghost", Kind: KindAdmin})
	if _, err := RequireAdmin(gone, users); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied for deleted admin, got %v", err)
	}
}

func TestUnaryAuthInterceptor(t *testing.T) {
	secret := "s3cr3t"
	interceptor := NewUnaryAuthInterceptor(secret, "/health")

	called := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/health"}, func(ctx context.Context, req any) (any, error) {
		called = true
		if p, ok := FromContext(ctx); ok && p != nil {
			t.Fatalf("expected no principal on allowlisted path")
		}
		return nil, nil
	})
	if err != nil || !called {
		t.Fatalf("allowlisted call: called=%v err=%v", called, err)
	}

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/secure"}, func(ctx context.Context, req any) (any, error) {
		t.Fatalf("handler must not run without credentials")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	tok := testutil.GenerateJWTHS256(t, secret, "alice", "user")
	var got *Principal
	_, err = interceptor(testutil.CtxWithBearer(context.Background(), tok), nil, &grpc.UnaryServerInfo{FullMethod: "/secure"}, func(ctx context.Context, req any) (any, error) {
		got, _ = FromContext(ctx)
		return nil, nil
	})
	if err != nil || got == nil || got.Name != "alice" {
		t.Fatalf("authenticated call: %v %+v", err, got)
	}
}
