package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 168)
	userID := uuid.New()
	t1, t2 := uuid.New(), uuid.New()

	token, err := svc.Generate(userID, "agent@acme.test", []uuid.UUID{t1, t2}, &t2)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "agent@acme.test", claims.Email)
	assert.Equal(t, []uuid.UUID{t1, t2}, claims.TenantIDs)
	require.NotNil(t, claims.CurrentTenantID)
	assert.Equal(t, t2, *claims.CurrentTenantID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 168).Generate(uuid.New(), "a@b.test", nil, nil)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 168).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	token, err := NewJWTService("test-secret", -1).Generate(uuid.New(), "a@b.test", nil, nil)
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", -1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret", 168).Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHasTenant(t *testing.T) {
	t1, t2 := uuid.New(), uuid.New()
	claims := &Claims{TenantIDs: []uuid.UUID{t1}}

	assert.True(t, claims.HasTenant(t1))
	assert.False(t, claims.HasTenant(t2))
	assert.False(t, (&Claims{}).HasTenant(t1))
}
