package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func newPair(t *testing.T, issuer string, audience []string, expiry time.Duration) (*JWTGenerator, *JWTValidator) {
	t.Helper()
	gen, err := NewJWTGenerator(JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        issuer,
		Audience:      audience,
		ExpiryTime:    expiry,
	})
	require.NoError(t, err)
	val, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "recipebook",
		Audience:      []string{"recipebook-web"},
	})
	require.NoError(t, err)
	return gen, val
}

func TestValidateToken(t *testing.T) {
	gen, val := newPair(t, "recipebook", []string{"recipebook-web"}, time.Hour)
	token, err := gen.GenerateToken("user-1", "cook@example.com", "Ada", nil)
	require.NoError(t, err)

	claims, err := val.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Ada", claims.Name)

	user := NewUserContext(claims)
	assert.Equal(t, []string{"authenticated"}, user.Roles)
	assert.True(t, user.HasRole("authenticated"))
}

func TestValidateToken_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "empty",
			token:   func(*testing.T) string { return "  " },
			wantErr: ErrMissingToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				gen, _ := newPair(t, "recipebook", []string{"recipebook-web"}, -time.Minute)
				tok, err := gen.GenerateToken("u", "", "", nil)
				require.NoError(t, err)
				return tok
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				gen, _ := newPair(t, "someone-else", []string{"recipebook-web"}, time.Hour)
				tok, err := gen.GenerateToken("u", "", "", nil)
				require.NoError(t, err)
				return tok
			},
			wantErr: ErrInvalidClaims,
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				gen, _ := newPair(t, "recipebook", []string{"admin"}, time.Hour)
				tok, err := gen.GenerateToken("u", "", "", nil)
				require.NoError(t, err)
				return tok
			},
			wantErr: ErrInvalidClaims,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				gen, _ := newPair(t, "recipebook", []string{"recipebook-web"}, time.Hour)
				tok, err := gen.GenerateToken("", "", "", nil)
				require.NoError(t, err)
				return tok
			},
			wantErr: ErrInvalidClaims,
		},
		{
			name: "bad signature",
			token: func(t *testing.T) string {
				gen, err := NewJWTGenerator(JWTGeneratorConfig{SecretKey: "other-secret", Issuer: "recipebook", Audience: []string{"recipebook-web"}})
				require.NoError(t, err)
				tok, err := gen.GenerateToken("u", "", "", nil)
				require.NoError(t, err)
				return tok
			},
			wantErr: ErrInvalidSignature,
		},
		{
			name: "alg none",
			token: func(t *testing.T) string {
				tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u"}).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return tok
			},
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
	}

	_, val := newPair(t, "recipebook", nil, time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := val.ValidateToken(tt.token(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewJWTValidator_Config(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "RS256"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "RS256", PublicKey: "not pem"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "ES512", SecretKey: "x"})
	assert.Error(t, err)
}

func TestUserContextRoundTrip(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}

func TestUserSlotVisibleToOuterContext(t *testing.T) {
	outer := WithUserSlot(context.Background())
	_, err := GetUserFromContext(outer)
	assert.ErrorIs(t, err, ErrNoUser)

	inner := SetUserInContext(context.WithValue(outer, contextKey("other"), 1), &UserContext{UserID: "u2"})
	for _, ctx := range []context.Context{outer, inner} {
		user, err := GetUserFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u2", user.UserID)
	}
}

func TestKeyedRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyedRateLimiter(2)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "a")
	assert.False(t, ok, "burst exhausted")

	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(30 * time.Second)
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok, "one token refilled after 30s at 2/min")

	require.NoError(t, l.Reset(ctx, "a"))
	assert.Equal(t, 1, l.Len())

	now = now.Add(time.Hour)
	_, _ = l.Allow(ctx, "c")
	assert.Equal(t, 1, l.Len(), "idle keys swept")
}

func TestPrefixedRateLimiter(t *testing.T) {
	shared := NewKeyedRateLimiter(1)
	ip, user := NewIPRateLimiter(shared), NewUserRateLimiter(shared)

	ok, _ := ip.Allow(context.Background(), "same")
	assert.True(t, ok)
	ok, _ = user.Allow(context.Background(), "same")
	assert.True(t, ok, "prefixes keep ip and user buckets apart")
	ok, _ = ip.Allow(context.Background(), "same")
	assert.False(t, ok)
}

type fakeCounterStore struct {
	count   int
	err     error
	inputs  []*dynamodb.UpdateItemInput
	deleted int
}

func (f *fakeCounterStore) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	f.count++
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"Count": &types.AttributeValueMemberN{Value: strconv.Itoa(f.count)},
	}}, nil
}

func (f *fakeCounterStore) DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleted++
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDistributedRateLimiter(t *testing.T) {
	ctx := context.Background()
	store := &fakeCounterStore{}
	l := NewDistributedRateLimiter(store, "rate-limits", 5, time.Minute)
	l.now = func() time.Time { return time.Unix(1_700_000_030, 0) }

	ok, err := l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)

	key := store.inputs[0].Key["PK"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "RATELIMIT#ip:1.2.3.4#1700000000", key)
	assert.Contains(t, *store.inputs[0].ConditionExpression, "attribute_not_exists")

	store.err = &types.ConditionalCheckFailedException{}
	ok, err = l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	store.err = errors.New("throttled")
	ok, err = l.Allow(ctx, "ip:1.2.3.4")
	assert.Error(t, err)
	assert.True(t, ok, "fails open")

	require.NoError(t, l.Reset(ctx, "ip:1.2.3.4"))
	assert.Equal(t, 1, store.deleted)

	ok, err = NewDistributedRateLimiter(nil, "", 1, time.Minute).Allow(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)
}
