package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "loancalc-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	tokenString, err := svc.GenerateToken("importer", []string{RoleAdmin})
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "importer", claims.Subject)
	assert.Equal(t, "loancalc-test", claims.Issuer)
	assert.Equal(t, []string{RoleAdmin}, claims.Roles)
}

func TestGenerateAndValidateToken_RSA(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	issuer, err := NewJWTService(JWTConfig{PrivateKeyPEM: string(privPEM), Issuer: "loancalc"})
	require.NoError(t, err)
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM), Issuer: "loancalc"})
	require.NoError(t, err)

	token, err := issuer.GenerateToken("client-1", []string{RoleAPIClient})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleAPIClient))

	_, err = validator.GenerateToken("client-1", nil)
	assert.Error(t, err, "validation-only service cannot sign")
}

func TestValidateToken_Rejections(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		svc, err := NewJWTService(JWTConfig{Secret: "s", Expiration: -time.Hour})
		require.NoError(t, err)
		token, err := svc.GenerateToken("x", nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		a, _ := NewJWTService(JWTConfig{Secret: "secret-one"})
		b, _ := NewJWTService(JWTConfig{Secret: "secret-two"})
		token, err := a.GenerateToken("x", nil)
		require.NoError(t, err)
		_, err = b.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "someone-else"})
		require.NoError(t, err)
		token, err := other.GenerateToken("x", nil)
		require.NoError(t, err)
		_, err = newTestJWTService(t).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("no key material", func(t *testing.T) {
		_, err := NewJWTService(JWTConfig{})
		assert.Error(t, err)
	})
}

func TestHasRole(t *testing.T) {
	claims := Claims{Roles: []string{RoleAdmin}}
	assert.True(t, claims.HasRole(RoleAdmin))
	assert.False(t, claims.HasRole(RoleAPIClient))
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	expected := &Claims{Roles: []string{RoleAPIClient}}
	got, ok := ClaimsFromContext(ContextWithClaims(context.Background(), expected))
	require.True(t, ok)
	assert.Same(t, expected, got)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	interceptor := UnaryAuthInterceptor(svc, []string{"/grpc.health.v1.Health/Check"})
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		claims, _ := ClaimsFromContext(ctx)
		return claims, nil
	}

	t.Run("skipped method", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		assert.NoError(t, err)
	})

	t.Run("missing header", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("bearer token", func(t *testing.T) {
		token, err := svc.GenerateToken("client", []string{RoleAPIClient})
		require.NoError(t, err)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))

		resp, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, handler)
		require.NoError(t, err)
		assert.Equal(t, "client", resp.(*Claims).Subject)
	})
}

func TestRequireMethodRoles(t *testing.T) {
	interceptor := RequireMethodRoles(map[string][]string{"/x/Import": {RoleAdmin}})
	ok := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Calculate"}, ok)
	assert.NoError(t, err)

	ctx := ContextWithClaims(context.Background(), &Claims{Roles: []string{RoleAPIClient}})
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Import"}, ok)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	ctx = ContextWithClaims(context.Background(), &Claims{Roles: []string{RoleAdmin}})
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Import"}, ok)
	assert.NoError(t, err)

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Import"}, ok)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
