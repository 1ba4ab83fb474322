package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velesk/marketplace-api/internal/domain"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	user := &domain.User{
		ID:    uuid.New(),
		Email: "buyer@example.com",
		Role:  domain.RoleBuyer,
	}

	token, err := manager.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ident, err := manager.ResolveIdentity(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, ident.UserID)
	assert.Equal(t, user.Email, ident.Email)
	assert.Equal(t, domain.RoleBuyer, ident.Role)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)

	user := &domain.User{
		ID:    uuid.New(),
		Email: "buyer@example.com",
		Role:  domain.RoleBuyer,
	}

	token, err := manager.GenerateAccessToken(user)
	require.NoError(t, err)

	ident, err := manager.ResolveIdentity(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, ident)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	issuer := NewJWTManager("issuer-secret", time.Hour)
	verifier := NewJWTManager("other-secret", time.Hour)

	user := &domain.User{
		ID:    uuid.New(),
		Email: "buyer@example.com",
		Role:  domain.RoleAdmin,
	}

	token, err := issuer.GenerateAccessToken(user)
	require.NoError(t, err)

	ident, err := verifier.ResolveIdentity(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, ident)
}

func TestJWTManager_GarbageToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	ident, err := manager.ResolveIdentity("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, ident)
}

func TestJWTManager_UnknownRoleRejected(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	user := &domain.User{
		ID:    uuid.New(),
		Email: "weird@example.com",
		Role:  domain.Role("superuser"),
	}

	token, err := manager.GenerateAccessToken(user)
	require.NoError(t, err)

	ident, err := manager.ResolveIdentity(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, ident)
}
